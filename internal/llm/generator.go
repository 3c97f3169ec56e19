package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nikhilbhutani/narrator/internal/apperr"
	"github.com/nikhilbhutani/narrator/internal/config"
	"github.com/nikhilbhutani/narrator/internal/models"
	"github.com/nikhilbhutani/narrator/pkg/tokenizer"
)

const DefaultTimeout = 30 * time.Second

// TextGenerator turns sanitized source text into a generated response.
type TextGenerator interface {
	Generate(ctx context.Context, text models.SanitizedText, cfg models.GenerationConfig) (models.GeneratedText, error)
	SupportedModels() []string
}

// Generator routes a generation request to the provider that owns the model.
// Each call is a single synchronous request; failures are not retried.
type Generator struct {
	providers []Provider
	byModel   map[string]Provider
	timeout   time.Duration
}

func NewGenerator(timeout time.Duration, providers ...Provider) *Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	g := &Generator{
		byModel: make(map[string]Provider),
		timeout: timeout,
	}
	for _, p := range providers {
		if p == nil {
			continue
		}
		g.providers = append(g.providers, p)
		for _, m := range p.Models() {
			// first registration wins
			if _, ok := g.byModel[m]; !ok {
				g.byModel[m] = p
			}
		}
	}
	return g
}

// NewGeneratorFromConfig registers every provider that has credentials.
func NewGeneratorFromConfig(cfg config.LLMConfig) *Generator {
	var providers []Provider
	if cfg.OpenAIKey != "" {
		providers = append(providers, NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL))
	}
	if cfg.AnthropicKey != "" {
		providers = append(providers, NewAnthropicProvider(cfg.AnthropicKey, cfg.AnthropicBaseURL))
	}
	if cfg.OllamaURL != "" {
		providers = append(providers, NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModels))
	}
	return NewGenerator(cfg.Timeout, providers...)
}

// SupportedModels lists models in provider registration order.
func (g *Generator) SupportedModels() []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range g.providers {
		for _, m := range p.Models() {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

func (g *Generator) ListModels() []ModelInfo {
	var out []ModelInfo
	for _, m := range g.SupportedModels() {
		out = append(out, ModelInfo{Provider: g.byModel[m].Name(), Model: m})
	}
	return out
}

func (g *Generator) Generate(ctx context.Context, text models.SanitizedText, cfg models.GenerationConfig) (models.GeneratedText, error) {
	if err := cfg.Validate(g.SupportedModels()); err != nil {
		return "", err
	}
	p, ok := g.byModel[cfg.Model]
	if !ok {
		return "", apperr.New(apperr.InvalidConfig, "no provider configured for model %q", cfg.Model)
	}

	system := cfg.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = models.DefaultSystemPrompt
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	slog.Info("calling generation service",
		"provider", p.Name(),
		"model", cfg.Model,
		"max_tokens", cfg.MaxTokens,
		"temperature", cfg.Temperature,
		"input_tokens_est", tokenizer.CountTokens(string(text)),
	)

	resp, err := p.ChatCompletion(ctx, ChatRequest{
		Model: cfg.Model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: string(text)},
		},
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		status, code := upstreamStatus(err)
		slog.Error("generation failed",
			"provider", p.Name(),
			"model", cfg.Model,
			"status", status,
			"error", err,
		)
		msg := fmt.Sprintf("%s generation failed", p.Name())
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("%s generation timed out after %s", p.Name(), g.timeout)
		}
		return "", apperr.Upstream(apperr.GenerationError, status, code, err, "%s", msg)
	}

	slog.Info("generation complete",
		"provider", resp.Provider,
		"model", cfg.Model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"cost_usd", resp.CostUSD,
		"latency_ms", resp.LatencyMs,
	)

	return models.GeneratedText(strings.TrimSpace(resp.Content)), nil
}
