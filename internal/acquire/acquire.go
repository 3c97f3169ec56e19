// Package acquire turns a user submission into raw text: pasted text as-is,
// a web page's readable text, or a decoded plain-text upload.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nikhilbhutani/narrator/internal/apperr"
	"github.com/nikhilbhutani/narrator/internal/models"
	"github.com/nikhilbhutani/narrator/internal/sanitize"
)

const (
	DefaultMaxFileSize  = 10 << 20
	DefaultFetchTimeout = 10 * time.Second
)

type Config struct {
	MaxTextLength int
	MaxFileSize   int64
	FetchTimeout  time.Duration
}

type Acquirer struct {
	guard         *sanitize.URLGuard
	fetcher       *Fetcher
	maxTextLength int
	maxFileSize   int64
}

func New(cfg Config, guard *sanitize.URLGuard) *Acquirer {
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = sanitize.DefaultMaxTextLength
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	return &Acquirer{
		guard:         guard,
		fetcher:       NewFetcher(guard, cfg.FetchTimeout),
		maxTextLength: cfg.MaxTextLength,
		maxFileSize:   cfg.MaxFileSize,
	}
}

func (a *Acquirer) MaxFileSize() int64 { return a.maxFileSize }

// Acquire produces the raw text for req. URL and file inputs pass the
// sanitizer's safety checks before anything is fetched or decoded.
func (a *Acquirer) Acquire(ctx context.Context, req models.InputRequest) (string, error) {
	switch req.Mode() {
	case models.InputText:
		if err := sanitize.CheckLength(req.Text(), a.maxTextLength); err != nil {
			return "", err
		}
		return req.Text(), nil
	case models.InputURL:
		return a.fromURL(ctx, req.URL())
	case models.InputFile:
		return a.fromFile(req.File())
	default:
		return "", apperr.New(apperr.InvalidConfig, "unknown input mode %q", req.Mode())
	}
}

func (a *Acquirer) fromURL(ctx context.Context, raw string) (string, error) {
	u, err := a.guard.Check(ctx, raw)
	if err != nil {
		slog.Warn("url rejected", "error", err)
		return "", err
	}

	slog.Info("extracting content from url", "host", u.Host)
	text, err := a.fetcher.Fetch(ctx, u)
	if err != nil {
		return "", err
	}
	if err := sanitize.CheckLength(text, a.maxTextLength); err != nil {
		return "", err
	}
	return text, nil
}

func (a *Acquirer) fromFile(f *models.FileUpload) (string, error) {
	if f == nil || f.Body == nil {
		return "", apperr.New(apperr.EmptyInputError, "no file uploaded")
	}
	if f.Size > a.maxFileSize {
		return "", apperr.New(apperr.FileTooLarge, "file too large: %d bytes (max: %d)", f.Size, a.maxFileSize)
	}

	data, err := io.ReadAll(io.LimitReader(f.Body, a.maxFileSize+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", apperr.Wrap(apperr.FileTooLarge, err, "file too large (max: %d bytes)", a.maxFileSize)
		}
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > a.maxFileSize {
		return "", apperr.New(apperr.FileTooLarge, "file too large (max: %d bytes)", a.maxFileSize)
	}

	if err := sanitize.CheckFileType(f.Name, f.ContentType, data); err != nil {
		return "", err
	}

	slog.Info("processing uploaded file", "name", f.Name, "bytes", len(data))
	text, err := DecodeText(data)
	if err != nil {
		return "", err
	}
	if err := sanitize.CheckLength(text, a.maxTextLength); err != nil {
		return "", err
	}
	return text, nil
}
