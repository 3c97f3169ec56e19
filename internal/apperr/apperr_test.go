package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/nikhilbhutani/narrator/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf_UnwrapsChain(t *testing.T) {
	t.Parallel()

	base := apperr.New(apperr.UnsafeURL, "host %q is private", "10.0.0.1")
	wrapped := fmt.Errorf("acquire url: %w", base)

	assert.Equal(t, apperr.UnsafeURL, apperr.KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, apperr.New(apperr.UnsafeURL, "")))
	assert.False(t, errors.Is(wrapped, apperr.New(apperr.FetchError, "")))
	assert.Equal(t, apperr.Kind(""), apperr.KindOf(errors.New("plain")))
}

func TestUpstream_CarriesStatus(t *testing.T) {
	t.Parallel()

	cause := errors.New("quota exceeded")
	err := apperr.Upstream(apperr.GenerationError, 429, "rate_limit_exceeded", cause, "generation failed")

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, 429, e.Status)
	assert.Equal(t, "rate_limit_exceeded", e.Code)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "generation failed (upstream status 429)", apperr.UserMessage(err))
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	cases := map[apperr.Kind]int{
		apperr.InputTooLarge:       http.StatusRequestEntityTooLarge,
		apperr.FileTooLarge:        http.StatusRequestEntityTooLarge,
		apperr.UnsupportedEncoding: http.StatusUnsupportedMediaType,
		apperr.UnsupportedFileType: http.StatusUnsupportedMediaType,
		apperr.UnsafeURL:           http.StatusBadRequest,
		apperr.InvalidConfig:       http.StatusBadRequest,
		apperr.EmptyInputError:     http.StatusBadRequest,
		apperr.FetchError:          http.StatusUnprocessableEntity,
		apperr.GenerationError:     http.StatusBadGateway,
		apperr.SynthesisError:      http.StatusBadGateway,
		apperr.Kind("other"):       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, apperr.HTTPStatus(kind), kind)
	}
}
