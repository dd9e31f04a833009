package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"astrocyber/internal/origin"
)

// ErrorKind classifies a failure surfaced by Client.
type ErrorKind int

const (
	// KindNetworkFatal is a non-retryable HTTP error (4xx other than 429).
	KindNetworkFatal ErrorKind = iota + 1
	// KindEmptyResponse is a reply without text. It is not retried.
	KindEmptyResponse
	// KindExhaustedRetries means every attempt failed transiently.
	KindExhaustedRetries
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetworkFatal:
		return "network_fatal"
	case KindEmptyResponse:
		return "empty_response"
	case KindExhaustedRetries:
		return "exhausted_retries"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the classified failure of a Send.
type Error struct {
	Kind       ErrorKind
	StatusCode int    // set for KindNetworkFatal
	Message    string // server message for KindNetworkFatal
	Attempts   int
	Err        error // last underlying error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNetworkFatal:
		return fmt.Sprintf("Network response not ok. Status: %d. Message: %s.", e.StatusCode, e.Message)
	case KindEmptyResponse:
		return "Empty response from AI."
	case KindExhaustedRetries:
		return fmt.Sprintf("AI datastream unreachable after %d attempts.", e.Attempts)
	default:
		return fmt.Sprintf("AI request failed: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Policy bounds the retries of a Client.
type Policy struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // delay after the first failure; doubles after each one
}

// DefaultPolicy is 5 attempts starting at a one second delay.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 5, BaseDelay: time.Second}
}

// Client sends queries to a Backend with bounded retries.
type Client struct {
	backend Backend
	policy  Policy
	logger  *zap.Logger

	after func(time.Duration) <-chan time.Time
}

// NewClient wraps backend. A MaxAttempts below 1 is treated as 1.
func NewClient(backend Backend, policy Policy, logger *zap.Logger) *Client {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.BaseDelay < 0 {
		policy.BaseDelay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		backend: backend,
		policy:  policy,
		logger:  logger,
		after:   time.After,
	}
}

// Ask builds the persona prompt for rec and query and sends it.
func (c *Client) Ask(ctx context.Context, query string, rec origin.Record) (string, error) {
	return c.Send(ctx, BuildPrompt(rec, query))
}

// Send delivers prompt and returns the reply text verbatim. Every failure
// is returned as a *Error; transient failures are retried until the
// policy's attempt budget runs out.
func (c *Client) Send(ctx context.Context, prompt string) (string, error) {
	delay := c.policy.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		start := time.Now()
		text, err := c.backend.Generate(ctx, prompt)
		if err == nil {
			c.logger.Debug("oracle reply received",
				zap.Int("attempt", attempt),
				zap.Duration("elapsed", time.Since(start)),
				zap.Int("reply_len", len(text)))
			return text, nil
		}
		lastErr = err

		if !transient(err) {
			classified := classify(err, attempt)
			c.logger.Warn("oracle request failed",
				zap.Stringer("kind", classified.Kind),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return "", classified
		}

		c.logger.Debug("oracle attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.policy.MaxAttempts),
			zap.Error(err))

		if attempt == c.policy.MaxAttempts {
			break
		}

		c.logger.Warn("retrying oracle request", zap.Int("attempt", attempt), zap.Duration("delay", delay))
		select {
		case <-ctx.Done():
			return "", &Error{Kind: KindExhaustedRetries, Attempts: attempt, Err: errors.Join(lastErr, ctx.Err())}
		case <-c.after(delay):
		}
		delay *= 2
	}

	c.logger.Warn("oracle retries exhausted", zap.Int("attempts", c.policy.MaxAttempts), zap.Error(lastErr))
	return "", &Error{Kind: KindExhaustedRetries, Attempts: c.policy.MaxAttempts, Err: lastErr}
}

// classify turns a non-transient backend error into an Error.
func classify(err error, attempt int) *Error {
	if errors.Is(err, ErrEmptyResponse) {
		return &Error{Kind: KindEmptyResponse, Attempts: attempt, Err: err}
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return &Error{
			Kind:       KindNetworkFatal,
			StatusCode: statusErr.StatusCode,
			Message:    statusErr.Message,
			Attempts:   attempt,
			Err:        err,
		}
	}
	return &Error{Kind: KindNetworkFatal, Message: err.Error(), Attempts: attempt, Err: err}
}
