// Package narrate runs one narration end to end: acquire, validate,
// truncate, generate, synthesize.
package narrate

import (
	"context"
	"log/slog"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/nikhilbhutani/narrator/internal/apperr"
	"github.com/nikhilbhutani/narrator/internal/llm"
	"github.com/nikhilbhutani/narrator/internal/models"
	"github.com/nikhilbhutani/narrator/internal/speech"
	"github.com/nikhilbhutani/narrator/pkg/tokenizer"
	"github.com/nikhilbhutani/narrator/pkg/truncate"
)

const (
	DefaultContextTokens = 4000
	previewChars         = 500
)

// Source produces raw text for a submission.
type Source interface {
	Acquire(ctx context.Context, req models.InputRequest) (string, error)
}

// Cleaner bounds and strips raw text.
type Cleaner interface {
	Text(raw string) (models.SanitizedText, error)
}

type Request struct {
	Input      models.InputRequest
	Generation models.GenerationConfig
	VoiceID    string
}

// Result is the outcome of one run. On failure Stage is StageFailed and
// FailedAt names the stage that failed.
type Result struct {
	Stage         models.Stage          `json:"stage"`
	FailedAt      models.Stage          `json:"failed_at,omitempty"`
	SourcePreview string                `json:"source_preview,omitempty"`
	SourceChars   int                   `json:"source_chars"`
	Truncated     bool                  `json:"truncated"`
	Generated     models.GeneratedText  `json:"generated_text"`
	Artifact      *models.AudioArtifact `json:"-"`
}

type Pipeline struct {
	source        Source
	cleaner       Cleaner
	generator     llm.TextGenerator
	synthesizer   speech.SpeechSynthesizer
	contextTokens int
}

func NewPipeline(source Source, cleaner Cleaner, generator llm.TextGenerator, synthesizer speech.SpeechSynthesizer, contextTokens int) *Pipeline {
	if contextTokens <= 0 {
		contextTokens = DefaultContextTokens
	}
	return &Pipeline{
		source:        source,
		cleaner:       cleaner,
		generator:     generator,
		synthesizer:   synthesizer,
		contextTokens: contextTokens,
	}
}

// run tracks the state machine for a single Run call.
type run struct {
	res   *Result
	mode  models.InputMode
	start time.Time
}

func (r *run) advance(to models.Stage) {
	from := r.res.Stage
	if !from.CanTransition(to) {
		slog.Error("illegal stage transition", "from", from, "to", to)
		return
	}
	r.res.Stage = to
	slog.Debug("stage transition", "from", from, "to", to, "mode", r.mode)
}

func (r *run) fail(err error) (*Result, error) {
	r.res.FailedAt = r.res.Stage
	r.advance(models.StageFailed)
	slog.Warn("narration failed",
		"stage", r.res.FailedAt,
		"kind", apperr.KindOf(err),
		"mode", r.mode,
		"error", err,
		"elapsed_ms", time.Since(r.start).Milliseconds(),
	)
	return r.res, err
}

// Run executes every stage in order. Any failure stops the run; nothing is
// retried.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	r := &run{
		res:   &Result{Stage: models.StageIdle},
		mode:  req.Input.Mode(),
		start: time.Now(),
	}

	r.advance(models.StageAcquiring)
	raw, err := p.source.Acquire(ctx, req.Input)
	if err != nil {
		return r.fail(err)
	}

	r.advance(models.StageValidating)
	clean, err := p.cleaner.Text(raw)
	if err != nil {
		return r.fail(err)
	}
	if err := req.Generation.Validate(p.generator.SupportedModels()); err != nil {
		return r.fail(err)
	}
	if err := p.checkVoice(req.VoiceID); err != nil {
		return r.fail(err)
	}
	r.res.SourceChars = utf8.RuneCountInString(string(clean))
	r.res.SourcePreview = truncate.Truncate(string(clean), previewChars)

	r.advance(models.StageTruncating)
	budget := tokenizer.CharBudget(p.contextTokens, req.Generation.MaxTokens)
	prompt := truncate.Truncate(string(clean), budget)
	if prompt != string(clean) {
		r.res.Truncated = true
		slog.Info("source text truncated",
			"chars", r.res.SourceChars,
			"budget", budget,
			"kept", utf8.RuneCountInString(prompt),
		)
	}

	r.advance(models.StageGenerating)
	generated, err := p.generator.Generate(ctx, models.SanitizedText(prompt), req.Generation)
	if err != nil {
		return r.fail(err)
	}
	r.res.Generated = generated

	r.advance(models.StageSynthesizing)
	artifact, err := p.synthesizer.Synthesize(ctx, generated, req.VoiceID)
	if err != nil {
		return r.fail(err)
	}
	artifact.Model = req.Generation.Model
	r.res.Artifact = artifact

	r.advance(models.StageReady)
	slog.Info("narration ready",
		"id", artifact.ID,
		"mode", r.mode,
		"model", req.Generation.Model,
		"voice", artifact.VoiceID,
		"audio_bytes", len(artifact.Audio),
		"elapsed_ms", time.Since(r.start).Milliseconds(),
	)
	return r.res, nil
}

func (p *Pipeline) checkVoice(id string) error {
	voice, err := models.LookupVoice(id)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(p.synthesizer.Voices(), func(v models.Voice) bool { return v.ID == voice.ID }) {
		return apperr.New(apperr.InvalidConfig, "voice %q is not available", voice.ID)
	}
	return nil
}
