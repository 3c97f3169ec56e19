package models

import (
	"fmt"
	"io"
	"strings"
)

type InputMode string

const (
	InputText InputMode = "text"
	InputURL  InputMode = "url"
	InputFile InputMode = "file"
)

// ParseInputMode accepts the API spelling of an input mode.
func ParseInputMode(s string) (InputMode, error) {
	switch InputMode(strings.ToLower(strings.TrimSpace(s))) {
	case InputText, "":
		return InputText, nil
	case InputURL:
		return InputURL, nil
	case InputFile:
		return InputFile, nil
	default:
		return "", fmt.Errorf("unknown input mode %q", s)
	}
}

// FileUpload is an uploaded file as handed over by the transport layer.
// Size is the declared size; Body is read at most once.
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// InputRequest is one user submission. Fields are set by the constructors
// and never change afterwards.
type InputRequest struct {
	mode InputMode
	text string
	url  string
	file *FileUpload
}

func NewTextInput(text string) InputRequest {
	return InputRequest{mode: InputText, text: text}
}

func NewURLInput(rawURL string) InputRequest {
	return InputRequest{mode: InputURL, url: rawURL}
}

func NewFileInput(f FileUpload) InputRequest {
	return InputRequest{mode: InputFile, file: &f}
}

func (r InputRequest) Mode() InputMode { return r.mode }
func (r InputRequest) Text() string    { return r.text }
func (r InputRequest) URL() string     { return r.url }

// File returns the upload for file mode, or nil.
func (r InputRequest) File() *FileUpload { return r.file }

// SanitizedText is size-bounded text with disallowed markup removed.
type SanitizedText string

// GeneratedText is the output of the generation service. It may be empty.
type GeneratedText string
