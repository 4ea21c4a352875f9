package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docflow/internal/common"
	"github.com/joseph-ayodele/docflow/internal/llm"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop",
    "message": {"role": "assistant", "content": "  {\"title\": \"NDA\", \"fields\": [\"Party\"]}\n"}}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 9, "total_tokens": 21}
}`

func TestComplete_Success(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer server.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: server.URL}, nil)
	out, err := c.Complete(context.Background(), llm.BuildTemplatePrompt("Name: ____"))
	require.NoError(t, err)
	assert.Equal(t, `{"title": "NDA", "fields": ["Party"]}`, out)

	assert.Equal(t, "gpt-4o-mini", payload["model"])
	assert.InDelta(t, 0.4, payload["temperature"], 1e-6)
	msgs, ok := payload["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestComplete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "model not found", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "nope"}, nil)
	_, err := c.Complete(context.Background(), llm.Prompt{User: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUpstream))
	assert.Contains(t, err.Error(), "400")
}

func TestComplete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer server.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: server.URL}, nil)
	_, err := c.Complete(context.Background(), llm.Prompt{User: "hi"})
	assert.True(t, errors.Is(err, common.ErrUpstream))
}

func TestComplete_EmptyPrompt(t *testing.T) {
	c := NewClient(Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"}, nil)
	_, err := c.Complete(context.Background(), llm.Prompt{User: "   "})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}
