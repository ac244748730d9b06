// Package apiclient talks to the llmdesk backend over HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const maxResponseBytes = 8 << 20

// Timeouts bound each kind of call.
type Timeouts struct {
	Health time.Duration
	Models time.Duration
	Cloud  time.Duration
	Local  time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Health: 5 * time.Second,
		Models: 10 * time.Second,
		Cloud:  60 * time.Second,
		Local:  120 * time.Second,
	}
}

func (t Timeouts) forMode(m Mode) time.Duration {
	if m == Local {
		return t.Local
	}
	return t.Cloud
}

// Client communicates with the backend HTTP API. Calls are never retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeouts   Timeouts
	log        *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

func WithTimeouts(t Timeouts) Option { return func(c *Client) { c.timeouts = t } }

func WithLogger(log *slog.Logger) Option { return func(c *Client) { c.log = log } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeouts:   DefaultTimeouts(),
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// CheckHealth reports whether GET /health answered 200.
func (c *Client) CheckHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Health)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("health check failed", "error", err)
		return false
	}
	drainAndClose(resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Models lists the model names offered per mode.
type Models struct {
	Cloud []string `json:"cloud_models"`
	Local []string `json:"local_models"`

	// Fallback is set when the list did not come from the server.
	Fallback bool `json:"-"`
}

func (m Models) For(mode Mode) []string {
	if mode == Local {
		return m.Local
	}
	return m.Cloud
}

// FallbackModels is used whenever the server cannot provide a list.
func FallbackModels() Models {
	return Models{
		Cloud: []string{
			"qwen/qwen3-32b",
			"qwen-qwq-32b",
			"llama3-70b-8192",
			"llama-3.1-8b-instant",
			"compound-beta",
			"gemma2-9b-it",
			"mistral-saba-24b",
		},
		Local: []string{
			"qwen3:0.6b",
			"deepseek-r1:1.5b",
		},
		Fallback: true,
	}
}

// ListModels fetches GET /models, returning FallbackModels on any failure.
func (c *Client) ListModels(ctx context.Context) Models {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Models)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return FallbackModels()
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("list models failed", "error", err)
		return FallbackModels()
	}
	defer drainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return FallbackModels()
	}

	var m Models
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&m); err != nil {
		c.log.Debug("decode models failed", "error", err)
		return FallbackModels()
	}
	return m
}

type askRequest struct {
	Input askInput `json:"input"`
}

type askInput struct {
	Question string `json:"question"`
	Model    string `json:"model"`
}

// Ask posts a question to the endpoint for mode and returns the raw answer.
// Every failure is an *Error.
func (c *Client) Ask(ctx context.Context, question, model string, mode Mode) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.forMode(mode))
	defer cancel()

	fail := func(kind Kind, err error) (string, error) {
		e := &Error{Kind: kind, Model: model, BaseURL: c.baseURL, Err: err}
		if kind == KindUnexpected {
			c.log.Error("ask failed", "mode", mode, "model", model, "error", err)
		}
		return "", e
	}

	body, err := json.Marshal(askRequest{Input: askInput{Question: question, Model: model}})
	if err != nil {
		return fail(KindUnexpected, fmt.Errorf("marshal request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+mode.endpoint(), bytes.NewReader(body))
	if err != nil {
		return fail(KindUnexpected, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(transportKind(err), err)
	}
	defer drainAndClose(resp.Body)

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fail(transportKind(err), fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		e := &Error{
			Kind:       KindHTTP,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(respBody),
			Model:      model,
			BaseURL:    c.baseURL,
		}
		if resp.StatusCode == http.StatusInternalServerError {
			e.Kind = KindServer
			if e.Detail == "" {
				e.Detail = "Unknown error"
			}
			if mode == Local && strings.Contains(strings.ToLower(e.Detail), "model") {
				e.Kind = KindModelMissing
			}
		}
		c.log.Warn("ask rejected", "mode", mode, "model", model, "status", resp.StatusCode, "detail", e.Detail)
		return "", e
	}

	return outputText(respBody), nil
}

// errorDetail extracts {"detail": ...}, or "" when there is none.
func errorDetail(body []byte) string {
	var env struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Detail == nil {
		return ""
	}
	if s, ok := env.Detail.(string); ok {
		return s
	}
	b, _ := json.Marshal(env.Detail)
	return string(b)
}

// outputText returns the "output" member of a JSON object, or the body text
// when there is none.
func outputText(body []byte) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return strings.TrimSpace(string(body))
	}
	raw, ok := obj["output"]
	if !ok {
		return strings.TrimSpace(string(body))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func drainAndClose(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, maxResponseBytes))
	_ = r.Close()
}
