package models

import (
	"strings"

	"github.com/nikhilbhutani/narrator/internal/apperr"
)

// SpeechBackend names the synthesis service that owns a voice.
type SpeechBackend string

const (
	BackendAzure  SpeechBackend = "azure"
	BackendOpenAI SpeechBackend = "openai"
)

const DefaultVoiceID = "en-US-AriaNeural"

// Voice is one entry of the fixed voice allow-list.
type Voice struct {
	ID      string        `json:"id"`
	Label   string        `json:"label"`
	Locale  string        `json:"locale"`
	Gender  string        `json:"gender"`
	Style   string        `json:"style"`
	Backend SpeechBackend `json:"backend"`
}

var voiceCatalog = []Voice{
	{ID: "en-US-AriaNeural", Label: "English (US) - Aria (Female)", Locale: "en-US", Gender: "female", Style: "neural", Backend: BackendAzure},
	{ID: "en-US-GuyNeural", Label: "English (US) - Guy (Male)", Locale: "en-US", Gender: "male", Style: "neural", Backend: BackendAzure},
	{ID: "en-US-JennyNeural", Label: "English (US) - Jenny (Female)", Locale: "en-US", Gender: "female", Style: "neural", Backend: BackendAzure},
	{ID: "en-GB-RyanNeural", Label: "English (UK) - Ryan (Male)", Locale: "en-GB", Gender: "male", Style: "neural", Backend: BackendAzure},
	{ID: "en-GB-SoniaNeural", Label: "English (UK) - Sonia (Female)", Locale: "en-GB", Gender: "female", Style: "neural", Backend: BackendAzure},
	{ID: "es-ES-ElviraNeural", Label: "Spanish (Spain) - Elvira (Female)", Locale: "es-ES", Gender: "female", Style: "neural", Backend: BackendAzure},
	{ID: "fr-FR-DeniseNeural", Label: "French (France) - Denise (Female)", Locale: "fr-FR", Gender: "female", Style: "neural", Backend: BackendAzure},
	{ID: "de-DE-KatjaNeural", Label: "German (Germany) - Katja (Female)", Locale: "de-DE", Gender: "female", Style: "neural", Backend: BackendAzure},

	{ID: "alloy", Label: "OpenAI - Alloy (Neutral)", Locale: "multi", Gender: "neutral", Style: "tts-1", Backend: BackendOpenAI},
	{ID: "echo", Label: "OpenAI - Echo (Male)", Locale: "multi", Gender: "male", Style: "tts-1", Backend: BackendOpenAI},
	{ID: "fable", Label: "OpenAI - Fable (Male)", Locale: "multi", Gender: "male", Style: "tts-1", Backend: BackendOpenAI},
	{ID: "onyx", Label: "OpenAI - Onyx (Male)", Locale: "multi", Gender: "male", Style: "tts-1", Backend: BackendOpenAI},
	{ID: "nova", Label: "OpenAI - Nova (Female)", Locale: "multi", Gender: "female", Style: "tts-1", Backend: BackendOpenAI},
	{ID: "shimmer", Label: "OpenAI - Shimmer (Female)", Locale: "multi", Gender: "female", Style: "tts-1", Backend: BackendOpenAI},
}

// Voices returns a copy of the allow-list.
func Voices() []Voice {
	out := make([]Voice, len(voiceCatalog))
	copy(out, voiceCatalog)
	return out
}

// VoicesFor returns the voices served by the given backends, in catalog order.
func VoicesFor(backends ...SpeechBackend) []Voice {
	var out []Voice
	for _, v := range voiceCatalog {
		for _, b := range backends {
			if v.Backend == b {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

// LookupVoice resolves an identifier against the allow-list.
func LookupVoice(id string) (Voice, error) {
	id = strings.TrimSpace(id)
	for _, v := range voiceCatalog {
		if v.ID == id {
			return v, nil
		}
	}
	return Voice{}, apperr.New(apperr.InvalidConfig, "voice %q is not supported", id)
}
