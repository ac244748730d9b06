// Package provider forwards questions to hosted and local language models.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"unicode/utf8"
)

// Provider generates one answer for one question.
type Provider interface {
	Name() string
	Generate(ctx context.Context, model, question string) (string, error)
}

// Error is a non-success status returned by a provider API.
type Error struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s api status %d: %s", e.Provider, e.StatusCode, truncate(e.Message, 300))
}

// ModelMissing reports whether the provider does not know the requested model.
func (e *Error) ModelMissing() bool {
	return e.StatusCode == http.StatusNotFound
}

// MissingKeyError means a cloud provider was called without credentials.
type MissingKeyError struct {
	EnvVar string
}

func (e *MissingKeyError) Error() string {
	return e.EnvVar + " not found in environment variables"
}

// truncate keeps at most n bytes of s, cutting on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
