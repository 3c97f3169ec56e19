// Package speech converts generated text into audio through a remote
// speech-synthesis service.
package speech

import (
	"context"
	"fmt"

	"github.com/nikhilbhutani/narrator/internal/models"
)

// SynthesisRequest holds the parameters for text-to-speech generation.
type SynthesisRequest struct {
	Input string
	Voice models.Voice
}

// SynthesisResult holds the generated audio and its encoding.
type SynthesisResult struct {
	Audio       []byte
	ContentType string
	Format      string
	SampleRate  int
}

// Backend is the interface for text-to-speech services.
type Backend interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error)
	Name() string
}

// StatusError is returned when a speech service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}
