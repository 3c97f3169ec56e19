package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nikhilbhutani/narrator/internal/apperr"
	"github.com/nikhilbhutani/narrator/internal/artifact"
	"github.com/nikhilbhutani/narrator/internal/models"
	"github.com/nikhilbhutani/narrator/internal/narrate"
)

const (
	// multipartOverhead covers form fields and part headers around the file.
	multipartOverhead = 1 << 20
	multipartMemory   = 1 << 20
	jsonOverhead      = 64 << 10
)

type Limits struct {
	MaxTextLength int
	MaxFileSize   int64
}

// Narrator runs the narration pipeline.
type Narrator interface {
	Run(ctx context.Context, req narrate.Request) (*narrate.Result, error)
}

type NarrationHandler struct {
	narrator Narrator
	store    artifact.Store
	limits   Limits
	defaults Defaults
}

func NewNarrationHandler(n Narrator, store artifact.Store, limits Limits, defaults Defaults) *NarrationHandler {
	return &NarrationHandler{narrator: n, store: store, limits: limits, defaults: defaults}
}

type narrationRequest struct {
	Mode         string   `json:"mode"`
	Text         string   `json:"text"`
	URL          string   `json:"url"`
	Model        string   `json:"model"`
	MaxTokens    *int     `json:"max_tokens"`
	Temperature  *float64 `json:"temperature"`
	SystemPrompt *string  `json:"system_prompt"`
	Voice        string   `json:"voice"`
}

type NarrationResponse struct {
	ID            uuid.UUID            `json:"id"`
	Stage         models.Stage         `json:"stage"`
	SourcePreview string               `json:"source_preview"`
	SourceChars   int                  `json:"source_chars"`
	Truncated     bool                 `json:"truncated"`
	GeneratedText models.GeneratedText `json:"generated_text"`
	AudioURL      string               `json:"audio_url"`
	DownloadURL   string               `json:"download_url"`
	Filename      string               `json:"filename"`
	ContentType   string               `json:"content_type"`
	SampleRate    int                  `json:"sample_rate"`
	Voice         string               `json:"voice"`
	Model         string               `json:"model"`
}

func (h *NarrationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var (
		req     narrate.Request
		cleanup func()
		err     error
	)
	if isMultipart(r) {
		req, cleanup, err = h.fromMultipart(w, r)
	} else {
		req, err = h.fromJSON(w, r)
	}
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		if _, ok := apperr.As(err); ok {
			writeFailure(w, err, "")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.narrator.Run(r.Context(), req)
	if err != nil {
		stage := models.StageFailed
		if res != nil {
			stage = res.FailedAt
		}
		writeFailure(w, err, stage)
		return
	}

	a := res.Artifact
	if err := h.store.Put(r.Context(), a); err != nil {
		slog.Error("store artifact", "id", a.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store audio")
		return
	}

	base := "/api/v1/narrations/" + a.ID.String()
	writeJSON(w, http.StatusCreated, NarrationResponse{
		ID:            a.ID,
		Stage:         res.Stage,
		SourcePreview: res.SourcePreview,
		SourceChars:   res.SourceChars,
		Truncated:     res.Truncated,
		GeneratedText: res.Generated,
		AudioURL:      base + "/audio",
		DownloadURL:   base + "/download",
		Filename:      a.Filename(),
		ContentType:   a.ContentType,
		SampleRate:    a.SampleRate,
		Voice:         a.VoiceID,
		Model:         a.Model,
	})
}

func (h *NarrationHandler) Audio(w http.ResponseWriter, r *http.Request) {
	h.serveAudio(w, r, false)
}

func (h *NarrationHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.serveAudio(w, r, true)
}

func (h *NarrationHandler) serveAudio(w http.ResponseWriter, r *http.Request, attachment bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "narration not found")
		return
	}

	a, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			writeError(w, http.StatusNotFound, "narration not found or expired")
			return
		}
		slog.Error("load artifact", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load audio")
		return
	}

	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Cache-Control", "private, no-store")
	if attachment {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename()}))
	}
	http.ServeContent(w, r, a.Filename(), a.CreatedAt, bytes.NewReader(a.Audio))
}

func (h *NarrationHandler) fromJSON(w http.ResponseWriter, r *http.Request) (narrate.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.limits.MaxTextLength)*4+jsonOverhead)

	var body narrationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return narrate.Request{}, apperr.Wrap(apperr.InputTooLarge, err, "request body exceeds %d bytes", mbe.Limit)
		}
		if errors.Is(err, io.EOF) {
			return narrate.Request{}, errors.New("request body is empty")
		}
		return narrate.Request{}, fmt.Errorf("invalid request body: %w", err)
	}

	mode, err := models.ParseInputMode(body.Mode)
	if err != nil {
		return narrate.Request{}, apperr.Wrap(apperr.InvalidConfig, err, "invalid input mode")
	}

	var input models.InputRequest
	switch mode {
	case models.InputText:
		input = models.NewTextInput(body.Text)
	case models.InputURL:
		input = models.NewURLInput(body.URL)
	default:
		return narrate.Request{}, apperr.New(apperr.InvalidConfig, "file input requires a multipart/form-data upload")
	}

	return h.request(input, body), nil
}

func (h *NarrationHandler) fromMultipart(w http.ResponseWriter, r *http.Request) (narrate.Request, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return narrate.Request{}, nil, apperr.Wrap(apperr.FileTooLarge, err,
				"file too large (max: %d MB)", h.limits.MaxFileSize>>20)
		}
		return narrate.Request{}, nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	closers := []func(){func() { _ = r.MultipartForm.RemoveAll() }}
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	body := narrationRequest{
		Mode:  r.FormValue("mode"),
		Text:  r.FormValue("text"),
		URL:   r.FormValue("url"),
		Model: r.FormValue("model"),
		Voice: r.FormValue("voice"),
	}
	if v := r.FormValue("system_prompt"); v != "" {
		body.SystemPrompt = &v
	}
	if v := strings.TrimSpace(r.FormValue("max_tokens")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return narrate.Request{}, cleanup, apperr.Wrap(apperr.InvalidConfig, err, "max_tokens must be an integer")
		}
		body.MaxTokens = &n
	}
	if v := strings.TrimSpace(r.FormValue("temperature")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return narrate.Request{}, cleanup, apperr.Wrap(apperr.InvalidConfig, err, "temperature must be a number")
		}
		body.Temperature = &f
	}

	_, hasFile := r.MultipartForm.File["file"]
	if body.Mode == "" && hasFile {
		body.Mode = string(models.InputFile)
	}
	mode, err := models.ParseInputMode(body.Mode)
	if err != nil {
		return narrate.Request{}, cleanup, apperr.Wrap(apperr.InvalidConfig, err, "invalid input mode")
	}

	var input models.InputRequest
	switch mode {
	case models.InputText:
		input = models.NewTextInput(body.Text)
	case models.InputURL:
		input = models.NewURLInput(body.URL)
	case models.InputFile:
		f, hdr, err := r.FormFile("file")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				return narrate.Request{}, cleanup, apperr.New(apperr.EmptyInputError, "no file was uploaded")
			}
			return narrate.Request{}, cleanup, fmt.Errorf("open upload: %w", err)
		}
		closers = append(closers, func() { _ = f.Close() })
		input = models.NewFileInput(models.FileUpload{
			Name:        hdr.Filename,
			ContentType: hdr.Header.Get("Content-Type"),
			Size:        hdr.Size,
			Body:        f,
		})
	}

	return h.request(input, body), cleanup, nil
}

// request fills unset generation fields from the server defaults.
func (h *NarrationHandler) request(input models.InputRequest, body narrationRequest) narrate.Request {
	gen := h.defaults.Generation
	if body.Model != "" {
		gen.Model = body.Model
	}
	if body.MaxTokens != nil {
		gen.MaxTokens = *body.MaxTokens
	}
	if body.Temperature != nil {
		gen.Temperature = *body.Temperature
	}
	if body.SystemPrompt != nil {
		gen.SystemPrompt = *body.SystemPrompt
	}

	voice := h.defaults.Voice
	if body.Voice != "" {
		voice = body.Voice
	}

	return narrate.Request{Input: input, Generation: gen, VoiceID: voice}
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}
