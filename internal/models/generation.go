package models

import (
	"slices"
	"strings"

	"github.com/nikhilbhutani/narrator/internal/apperr"
)

const (
	MinMaxTokens   = 100
	MaxMaxTokens   = 4000
	MinTemperature = 0.0
	MaxTemperature = 2.0

	DefaultModel        = "gpt-4o-mini"
	DefaultMaxTokens    = 1000
	DefaultTemperature  = 0.7
	DefaultSystemPrompt = "You are a helpful assistant that creates engaging and informative content."
)

// GenerationConfig holds the caller's generation parameters.
type GenerationConfig struct {
	Model        string  `json:"model"`
	MaxTokens    int     `json:"max_tokens"`
	Temperature  float64 `json:"temperature"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
}

func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Model:        DefaultModel,
		MaxTokens:    DefaultMaxTokens,
		Temperature:  DefaultTemperature,
		SystemPrompt: DefaultSystemPrompt,
	}
}

// Validate checks the bounds and, when supported is non-empty, that the model
// is one of supported.
func (c GenerationConfig) Validate(supported []string) error {
	if strings.TrimSpace(c.Model) == "" {
		return apperr.New(apperr.InvalidConfig, "model is required")
	}
	if len(supported) > 0 && !slices.Contains(supported, c.Model) {
		return apperr.New(apperr.InvalidConfig, "model %q is not supported", c.Model)
	}
	if c.MaxTokens < MinMaxTokens || c.MaxTokens > MaxMaxTokens {
		return apperr.New(apperr.InvalidConfig, "max_tokens must be between %d and %d, got %d",
			MinMaxTokens, MaxMaxTokens, c.MaxTokens)
	}
	// written as a negated range so NaN is rejected too
	if !(c.Temperature >= MinTemperature && c.Temperature <= MaxTemperature) {
		return apperr.New(apperr.InvalidConfig, "temperature must be between %.1f and %.1f, got %v",
			MinTemperature, MaxTemperature, c.Temperature)
	}
	return nil
}
