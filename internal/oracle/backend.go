// Package oracle is the resilient client for the generative AI service
// behind the ASTRO-CYBER terminal.
//
// A Backend performs a single generateContent round trip and reports
// failures as a *StatusError, ErrEmptyResponse, or any other error for
// transport failures. Client wraps a Backend with bounded retries and
// exponential backoff and turns every failure into a classified *Error.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyResponse is returned by a Backend when a well-formed reply
// carries no text.
var ErrEmptyResponse = errors.New("oracle: empty response")

// Backend performs one generation request.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StatusError is a non-success HTTP status reported by the AI service.
type StatusError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the server-provided error message, if any.
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("oracle: HTTP %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the status is worth another attempt: rate
// limiting or a server-side failure.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// transient reports whether err is a NetworkTransient condition. Status
// errors are transient only when Retryable; an empty response never is;
// anything else is a transport failure and is retried.
func transient(err error) bool {
	if errors.Is(err, ErrEmptyResponse) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}
