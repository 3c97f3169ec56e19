package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/nikhilbhutani/narrator/internal/apperr"
	"github.com/nikhilbhutani/narrator/internal/config"
	"github.com/nikhilbhutani/narrator/internal/models"
	"github.com/nikhilbhutani/narrator/pkg/truncate"
)

const (
	DefaultTimeout = 60 * time.Second
	// DefaultMaxChars is the longest text sent in one synthesis request.
	DefaultMaxChars = 10000
)

// SpeechSynthesizer turns generated text into an audio artifact.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text models.GeneratedText, voiceID string) (*models.AudioArtifact, error)
	Voices() []models.Voice
}

// Service dispatches synthesis to the backend that owns the voice.
type Service struct {
	backends map[models.SpeechBackend]Backend
	timeout  time.Duration
	maxChars int
}

type Option func(*Service)

func WithBackend(kind models.SpeechBackend, b Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.backends[kind] = b
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithMaxChars(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxChars = n
		}
	}
}

func NewService(opts ...Option) *Service {
	s := &Service{
		backends: make(map[models.SpeechBackend]Backend),
		timeout:  DefaultTimeout,
		maxChars: DefaultMaxChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewServiceFromConfig enables the backends listed in cfg.Backends.
func NewServiceFromConfig(cfg config.SpeechConfig) *Service {
	opts := []Option{WithTimeout(cfg.Timeout), WithMaxChars(cfg.MaxChars)}
	if cfg.Enabled(string(models.BackendAzure)) {
		opts = append(opts, WithBackend(models.BackendAzure, NewAzureTTS(AzureTTSConfig{
			Key:      cfg.AzureKey,
			Region:   cfg.AzureRegion,
			Endpoint: cfg.AzureEndpoint,
		})))
	}
	if cfg.Enabled(string(models.BackendOpenAI)) {
		opts = append(opts, WithBackend(models.BackendOpenAI, NewOpenAITTS(OpenAITTSConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})))
	}
	return NewService(opts...)
}

// Voices lists the allow-listed voices whose backend is configured.
func (s *Service) Voices() []models.Voice {
	kinds := make([]models.SpeechBackend, 0, len(s.backends))
	for k := range s.backends {
		kinds = append(kinds, k)
	}
	return models.VoicesFor(kinds...)
}

func (s *Service) Synthesize(ctx context.Context, text models.GeneratedText, voiceID string) (*models.AudioArtifact, error) {
	voice, err := models.LookupVoice(voiceID)
	if err != nil {
		return nil, err
	}
	backend, ok := s.backends[voice.Backend]
	if !ok {
		return nil, apperr.New(apperr.InvalidConfig, "voice %q is not available: %s speech is not configured", voice.ID, voice.Backend)
	}

	input := strings.TrimSpace(string(text))
	if input == "" {
		return nil, apperr.New(apperr.EmptyInputError, "there is no text to synthesize")
	}
	if n := utf8.RuneCountInString(input); n > s.maxChars {
		input = truncate.Truncate(input, s.maxChars)
		slog.Warn("synthesis text truncated",
			"chars", n,
			"limit", s.maxChars,
			"kept", utf8.RuneCountInString(input),
		)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	slog.Info("calling speech service", "backend", backend.Name(), "voice", voice.ID, "chars", utf8.RuneCountInString(input))
	start := time.Now()

	res, err := backend.Synthesize(ctx, SynthesisRequest{Input: input, Voice: voice})
	if err != nil {
		status := upstreamStatus(err)
		slog.Error("synthesis failed", "backend", backend.Name(), "voice", voice.ID, "status", status, "error", err)
		msg := fmt.Sprintf("%s synthesis failed", backend.Name())
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("%s synthesis timed out after %s", backend.Name(), s.timeout)
		}
		return nil, apperr.Upstream(apperr.SynthesisError, status, "", err, "%s", msg)
	}
	if len(res.Audio) == 0 {
		return nil, apperr.New(apperr.SynthesisError, "%s returned no audio", backend.Name())
	}

	slog.Info("synthesis complete",
		"backend", backend.Name(),
		"voice", voice.ID,
		"bytes", len(res.Audio),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return &models.AudioArtifact{
		ID:          uuid.New(),
		Audio:       res.Audio,
		ContentType: res.ContentType,
		Format:      res.Format,
		SampleRate:  res.SampleRate,
		VoiceID:     voice.ID,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func upstreamStatus(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
