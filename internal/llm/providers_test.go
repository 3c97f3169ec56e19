package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/narrator/internal/apperr"
	"github.com/nikhilbhutani/narrator/internal/llm"
)

func TestOpenAIProvider_ChatCompletion(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test-0123456789", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Generated."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12}
		}`))
	}))
	t.Cleanup(srv.Close)

	p := llm.NewOpenAIProvider("sk-test-0123456789", srv.URL+"/v1")
	resp, err := p.ChatCompletion(context.Background(), llm.ChatRequest{
		Model:       "gpt-4o-mini",
		Messages:    []llm.Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "hello"}},
		Temperature: 0.5,
		MaxTokens:   200,
	})
	require.NoError(t, err)

	assert.Equal(t, "Generated.", resp.Content)
	assert.Equal(t, 12, resp.TotalTokens)
	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.EqualValues(t, 200, got["max_tokens"])
	assert.InDelta(t, 0.5, got["temperature"], 1e-6)
	assert.Len(t, got["messages"], 2)
}

func TestOpenAIProvider_ErrorStatusReachesGenerator(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
	}))
	t.Cleanup(srv.Close)

	g := llm.NewGenerator(time.Second, llm.NewOpenAIProvider("sk-test-0123456789", srv.URL+"/v1"))
	_, err := g.Generate(context.Background(), "x", validConfig())
	require.Error(t, err)

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.GenerationError, e.Kind)
	assert.Equal(t, http.StatusUnauthorized, e.Status)
	assert.Equal(t, "invalid_api_key", e.Code)
}

func TestAnthropicProvider_ChatCompletion(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "Hi there."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 5, "output_tokens": 3}
		}`))
	}))
	t.Cleanup(srv.Close)

	p := llm.NewAnthropicProvider("sk-ant-0123456789", srv.URL)
	resp, err := p.ChatCompletion(context.Background(), llm.ChatRequest{
		Model:       "claude-3-5-haiku-latest",
		Messages:    []llm.Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "hello"}},
		Temperature: 1.8,
		MaxTokens:   300,
	})
	require.NoError(t, err)

	assert.Equal(t, "Hi there.", resp.Content)
	assert.Equal(t, 8, resp.TotalTokens)
	assert.EqualValues(t, 300, got["max_tokens"])
	assert.InDelta(t, 1.0, got["temperature"], 1e-9, "temperature is clamped to the provider range")
	assert.NotNil(t, got["system"])
}

func TestAnthropicProvider_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "invalid_request_error", "message": "bad"}}`))
	}))
	t.Cleanup(srv.Close)

	p := llm.NewAnthropicProvider("sk-ant-0123456789", srv.URL)
	g := llm.NewGenerator(time.Second, p)

	cfg := validConfig()
	cfg.Model = "claude-3-5-haiku-latest"
	_, err := g.Generate(context.Background(), "x", cfg)

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.GenerationError, e.Kind)
	assert.Equal(t, http.StatusBadRequest, e.Status)
}

func TestOllamaProvider(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["model"] == "broken" {
			http.Error(w, "model not found", http.StatusNotFound)
			return
		}
		opts, _ := req["options"].(map[string]any)
		assert.EqualValues(t, 0, opts["temperature"])
		_, _ = w.Write([]byte(`{"message": {"role": "assistant", "content": "local"}, "done": true, "prompt_eval_count": 4, "eval_count": 1}`))
	}))
	t.Cleanup(srv.Close)

	g := llm.NewGenerator(time.Second, llm.NewOllamaProvider(srv.URL, []string{"llama3", "broken"}))

	cfg := validConfig()
	cfg.Model = "llama3"
	cfg.Temperature = 0
	out, err := g.Generate(context.Background(), "x", cfg)
	require.NoError(t, err)
	assert.EqualValues(t, "local", out)

	cfg.Model = "broken"
	_, err = g.Generate(context.Background(), "x", cfg)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, e.Status)
}

func TestCalculateCost(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.00015+0.0006, llm.CalculateCost("gpt-4o-mini", 1000, 1000), 1e-12)
	assert.Zero(t, llm.CalculateCost("llama3", 1000, 1000))
}
