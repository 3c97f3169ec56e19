package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AudioArtifact is synthesized audio held in memory for one interaction.
type AudioArtifact struct {
	ID          uuid.UUID `json:"id"`
	Audio       []byte    `json:"-"`
	ContentType string    `json:"content_type"`
	Format      string    `json:"format"`
	SampleRate  int       `json:"sample_rate"`
	VoiceID     string    `json:"voice"`
	Model       string    `json:"model"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filename is the download name: speech_{voice}_{model}.{format}.
func (a *AudioArtifact) Filename() string {
	format := a.Format
	if format == "" {
		format = "mp3"
	}
	return fmt.Sprintf("speech_%s_%s.%s", safeName(a.VoiceID), safeName(a.Model), format)
}

func safeName(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '.', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
