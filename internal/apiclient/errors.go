package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a failed call for display.
type Kind int

const (
	KindConnection Kind = iota + 1
	KindTimeout
	KindServer
	KindModelMissing
	KindHTTP
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server"
	case KindModelMissing:
		return "model_missing"
	case KindHTTP:
		return "http"
	case KindUnexpected:
		return "unexpected"
	}
	return "unknown"
}

// Error is returned by Ask for every failure.
type Error struct {
	Kind       Kind
	StatusCode int    // Zero unless the server answered.
	Detail     string // Server-provided detail, verbatim.
	Model      string
	BaseURL    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Kind, e.StatusCode, e.Detail)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage is the one-line message shown to the user.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindConnection:
		return "Connection failed. Please ensure the API server is running at " + e.BaseURL
	case KindTimeout:
		return "Request timed out. The server might be busy or the model is taking longer to respond."
	case KindServer:
		return "Server error: " + e.Detail
	case KindModelMissing:
		return "Model error: " + e.Detail
	case KindHTTP:
		msg := fmt.Sprintf("HTTP error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
		if e.Detail != "" {
			msg += ": " + e.Detail
		}
		return msg
	}
	return "An unexpected error occurred. See the client log for details."
}

// Hint is an optional follow-up suggestion.
func (e *Error) Hint() string {
	if e.Kind == KindModelMissing {
		return fmt.Sprintf("Make sure the selected model is installed in Ollama. Run `ollama pull %s` to download it.", e.Model)
	}
	return ""
}

// transportKind classifies an error from sending a request or reading its body.
func transportKind(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindUnexpected
	}
	// Refused, reset, DNS and TLS failures all mean the server is unreachable.
	return KindConnection
}
