package speech_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/narrator/internal/apperr"
	"github.com/nikhilbhutani/narrator/internal/models"
	"github.com/nikhilbhutani/narrator/internal/speech"
)

func TestAzureTTS_SendsEscapedSSML(t *testing.T) {
	t.Parallel()

	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "azure-key-0123456789", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "audio-16khz-128kbitrate-mono-mp3", r.Header.Get("X-Microsoft-OutputFormat"))
		assert.Equal(t, "application/ssml+xml", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3azure"))
	}))
	t.Cleanup(srv.Close)

	tts := speech.NewAzureTTS(speech.AzureTTSConfig{Key: "azure-key-0123456789", Region: "eastus", Endpoint: srv.URL})
	voice, err := models.LookupVoice("en-GB-RyanNeural")
	require.NoError(t, err)

	res, err := tts.Synthesize(context.Background(), speech.SynthesisRequest{Input: `Tom & "Jerry" <3`, Voice: voice})
	require.NoError(t, err)

	assert.Equal(t, []byte("ID3azure"), res.Audio)
	assert.Equal(t, 16000, res.SampleRate)
	assert.Contains(t, body, `<voice name="en-GB-RyanNeural">`)
	assert.Contains(t, body, `xml:lang="en-GB"`)
	assert.Contains(t, body, "Tom &amp; &#34;Jerry&#34; &lt;3")
}

func TestAzureTTS_ErrorStatusBecomesSynthesisError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	svc := speech.NewService(speech.WithBackend(models.BackendAzure,
		speech.NewAzureTTS(speech.AzureTTSConfig{Key: "azure-key-0123456789", Endpoint: srv.URL})))

	_, err := svc.Synthesize(context.Background(), "Hello.", "en-US-AriaNeural")
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.SynthesisError, e.Kind)
	assert.Equal(t, http.StatusTooManyRequests, e.Status)
}

func TestAzureTTS_DefaultEndpointUsesRegion(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"https://westeurope.tts.speech.microsoft.com/cognitiveservices/v1",
		speech.AzureEndpoint("westeurope"))
}

func TestOpenAITTS(t *testing.T) {
	t.Parallel()

	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3openai"))
	}))
	t.Cleanup(srv.Close)

	svc := speech.NewService(speech.WithBackend(models.BackendOpenAI,
		speech.NewOpenAITTS(speech.OpenAITTSConfig{APIKey: "sk-test-0123456789", BaseURL: srv.URL + "/v1"})))

	art, err := svc.Synthesize(context.Background(), "Hello.", "nova")
	require.NoError(t, err)

	assert.Equal(t, []byte("ID3openai"), art.Audio)
	assert.Equal(t, 24000, art.SampleRate)
	assert.Equal(t, "tts-1", req["model"])
	assert.Equal(t, "nova", req["voice"])
	assert.Equal(t, "mp3", req["response_format"])
	assert.Equal(t, "Hello.", req["input"])
}

func TestOpenAITTS_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
	}))
	t.Cleanup(srv.Close)

	svc := speech.NewService(speech.WithBackend(models.BackendOpenAI,
		speech.NewOpenAITTS(speech.OpenAITTSConfig{APIKey: "sk-test-0123456789", BaseURL: srv.URL + "/v1"})))

	_, err := svc.Synthesize(context.Background(), "Hello.", "alloy")
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.SynthesisError, e.Kind)
	assert.Equal(t, http.StatusUnauthorized, e.Status)
}
