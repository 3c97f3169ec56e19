package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/narrator/internal/llm"
	"github.com/nikhilbhutani/narrator/internal/models"
)

// ModelLister lists the generation models that can be requested.
type ModelLister interface {
	ListModels() []llm.ModelInfo
}

// VoiceLister lists the voices that can be requested.
type VoiceLister interface {
	Voices() []models.Voice
}

type Bounds struct {
	MinMaxTokens   int     `json:"min_max_tokens"`
	MaxMaxTokens   int     `json:"max_max_tokens"`
	MinTemperature float64 `json:"min_temperature"`
	MaxTemperature float64 `json:"max_temperature"`
	MaxTextLength  int     `json:"max_text_length"`
	MaxFileSize    int64   `json:"max_file_size"`
}

type Defaults struct {
	Generation models.GenerationConfig `json:"generation"`
	Voice      string                  `json:"voice"`
}

type OptionsResponse struct {
	Models     []llm.ModelInfo    `json:"models"`
	Voices     []models.Voice     `json:"voices"`
	InputModes []models.InputMode `json:"input_modes"`
	Bounds     Bounds             `json:"bounds"`
	Defaults   Defaults           `json:"defaults"`
}

type OptionsHandler struct {
	models   ModelLister
	voices   VoiceLister
	limits   Limits
	defaults Defaults
}

func NewOptionsHandler(ml ModelLister, vl VoiceLister, limits Limits, defaults Defaults) *OptionsHandler {
	return &OptionsHandler{models: ml, voices: vl, limits: limits, defaults: defaults}
}

func (h *OptionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OptionsResponse{
		Models:     h.models.ListModels(),
		Voices:     h.voices.Voices(),
		InputModes: []models.InputMode{models.InputText, models.InputURL, models.InputFile},
		Bounds: Bounds{
			MinMaxTokens:   models.MinMaxTokens,
			MaxMaxTokens:   models.MaxMaxTokens,
			MinTemperature: models.MinTemperature,
			MaxTemperature: models.MaxTemperature,
			MaxTextLength:  h.limits.MaxTextLength,
			MaxFileSize:    h.limits.MaxFileSize,
		},
		Defaults: h.defaults,
	})
}
