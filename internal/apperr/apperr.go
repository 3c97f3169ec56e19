// Package apperr defines the user-visible error kinds produced by the
// narration pipeline.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a class of pipeline failure.
type Kind string

const (
	InputTooLarge       Kind = "InputTooLarge"
	FetchError          Kind = "FetchError"
	FileTooLarge        Kind = "FileTooLarge"
	UnsupportedEncoding Kind = "UnsupportedEncoding"
	UnsafeURL           Kind = "UnsafeURL"
	UnsupportedFileType Kind = "UnsupportedFileType"
	InvalidConfig       Kind = "InvalidConfig"
	GenerationError     Kind = "GenerationError"
	EmptyInputError     Kind = "EmptyInputError"
	SynthesisError      Kind = "SynthesisError"
)

// Error is a classified failure. Status and Code are only set when the
// failure came back from a remote service.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Code    string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (upstream status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperr.New(k, ""))
// works as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Upstream builds an error for a failed remote call.
func Upstream(kind Kind, status int, code string, err error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Status:  status,
		Code:    code,
		Err:     err,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As is a shorthand for errors.As with *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// HTTPStatus maps a kind to the status code returned to API clients.
func HTTPStatus(kind Kind) int {
	switch kind {
	case InputTooLarge, FileTooLarge:
		return http.StatusRequestEntityTooLarge
	case UnsupportedEncoding, UnsupportedFileType:
		return http.StatusUnsupportedMediaType
	case UnsafeURL, InvalidConfig, EmptyInputError:
		return http.StatusBadRequest
	case FetchError:
		return http.StatusUnprocessableEntity
	case GenerationError, SynthesisError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage is the human readable text shown for a failure.
func UserMessage(err error) string {
	if e, ok := As(err); ok {
		if e.Status != 0 {
			return fmt.Sprintf("%s (upstream status %d)", e.Message, e.Status)
		}
		return e.Message
	}
	return "unexpected error"
}
