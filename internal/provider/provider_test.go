package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroq_Generate(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"llama3-70b-8192",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"<think>hm</think>Hi!"}}]}`))
	}))
	defer srv.Close()

	g := NewGroq("gsk-test", srv.URL+"/v1", srv.Client())
	out, err := g.Generate(context.Background(), "llama3-70b-8192", "hello?")
	require.NoError(t, err)
	assert.Equal(t, "<think>hm</think>Hi!", out)

	assert.Equal(t, "llama3-70b-8192", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, SystemPrompt, got.Messages[0].Content)
	assert.Equal(t, "Question: hello?", got.Messages[1].Content)
}

func TestGroq_MissingKey(t *testing.T) {
	_, err := NewGroq("", "", nil).Generate(context.Background(), "m", "q")
	var mk *MissingKeyError
	require.ErrorAs(t, err, &mk)
	assert.Equal(t, "GROQ_API_KEY not found in environment variables", err.Error())
}

func TestGroq_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"The model does not exist","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewGroq("k", srv.URL+"/v1/", srv.Client()).Generate(context.Background(), "nope", "q")
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusNotFound, perr.StatusCode)
	assert.True(t, perr.ModelMissing())
}

func TestAnthropic_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, SystemPrompt, req.System)
		assert.Equal(t, "Question: why?", req.Messages[0].Content)

		w.Write([]byte(`{"content":[{"type":"text","text":"Because."},{"type":"text","text":" Really."}]}`))
	}))
	defer srv.Close()

	out, err := NewAnthropic("sk-ant", srv.URL, srv.Client()).Generate(context.Background(), "claude-x", "why?")
	require.NoError(t, err)
	assert.Equal(t, "Because. Really.", out)
}

func TestAnthropic_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	_, err := NewAnthropic("k", srv.URL, srv.Client()).Generate(context.Background(), "m", "q")
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
	assert.Contains(t, perr.Error(), "rate_limit_error: slow down")

	_, err = NewAnthropic("", srv.URL, nil).Generate(context.Background(), "m", "q")
	var mk *MissingKeyError
	assert.ErrorAs(t, err, &mk)
}

func TestOllama_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, "qwen3:0.6b", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "Question: ping", req.Messages[1].Content)

		w.Write([]byte(`{"model":"qwen3:0.6b","message":{"role":"assistant","content":"pong"},"done":true}`))
	}))
	defer srv.Close()

	out, err := NewOllama(srv.URL+"/", srv.Client()).Generate(context.Background(), "qwen3:0.6b", "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", out)
}

func TestOllama_ModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model \"tiny\" not found, try pulling it first"}`))
	}))
	defer srv.Close()

	_, err := NewOllama(srv.URL, srv.Client()).Generate(context.Background(), "tiny", "q")
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.ModelMissing())
	assert.Contains(t, err.Error(), `model "tiny" not found`)
}

func TestOllama_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewOllama(url, nil).Generate(context.Background(), "m", "q")
	require.Error(t, err)
	var perr *Error
	assert.False(t, errors.As(err, &perr))
}

func TestTruncate_RuneBoundary(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc..."},
		{"ab日本", 4, "ab..."},
		{"ab日本", 5, "ab日..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		assert.Equal(t, tt.want, got, "truncate(%q, %d)", tt.in, tt.n)
		assert.True(t, utf8.ValidString(got), "truncate(%q, %d)", tt.in, tt.n)
	}
}
