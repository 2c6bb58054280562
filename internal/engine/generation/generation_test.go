package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clarifier/internal/platform/config"
)

func TestAnthropicClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-test", req.Model)
		assert.Equal(t, 2000, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "clarify this", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","content":[{"type":"text","text":"{\"acceptanceCriteria\":"},{"type":"text","text":"[]}"}],"stop_reason":"end_turn"}`))
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", "claude-test", WithBaseURL(server.URL))
	text, err := client.Generate(context.Background(), "clarify this")
	require.NoError(t, err)
	assert.Equal(t, `{"acceptanceCriteria":[]}`, text)
}

func TestAnthropicClient_APIErrorIsNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(529)
		w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	}))
	defer server.Close()

	client := NewAnthropicClient("k", "m", WithBaseURL(server.URL))
	_, err := client.Generate(context.Background(), "p")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 529, apiErr.StatusCode)
	assert.Equal(t, "Overloaded", apiErr.Message)
	assert.Equal(t, 1, calls)
}

func TestAnthropicClient_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"msg_1","content":[]}`))
	}))
	defer server.Close()

	_, err := NewAnthropicClient("k", "m", WithBaseURL(server.URL)).Generate(context.Background(), "p")
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestOpenAIClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		assert.Equal(t, 500, req.MaxTokens)

		w.Write([]byte(`{"id":"c1","choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient("sk-test", "gpt-test", WithBaseURL(server.URL+"/v1/"), WithMaxTokens(500))
	text, err := client.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestOpenAIClient_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	_, err := NewOpenAIClient("k", "m", WithBaseURL(server.URL)).Generate(context.Background(), "p")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "bad key", apiErr.Message)

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer empty.Close()

	_, err = NewOpenAIClient("k", "m", WithBaseURL(empty.URL)).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNew(t *testing.T) {
	client, err := New(config.GenerationConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)

	client, err = New(config.GenerationConfig{Provider: "anthropic", APIKey: "k", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", client.Name())

	client, err = New(config.GenerationConfig{Provider: "openai", APIKey: "k", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "openai", client.Name())

	_, err = New(config.GenerationConfig{Provider: "mystery", APIKey: "k"})
	assert.Error(t, err)
}
