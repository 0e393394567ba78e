// Package retry implements the bounded retry used around completion calls:
// a rate-limit rejection is waited out once, everything else fails fast.
//
//	reply, err := retry.Do(ctx, retry.DefaultPolicy(), func(ctx context.Context) (*response.ChatResponse, error) {
//	    return t.Create(ctx, req)
//	})
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/reviewbot/clock"
	"github.com/tailored-agentic-units/reviewbot/transport"
)

const (
	// DefaultMaxRetries is the number of extra attempts after the first call.
	DefaultMaxRetries = 1
	// DefaultDelay is the wait used when a rate-limit rejection carries no
	// usable retry-after value.
	DefaultDelay = 20 * time.Second
)

// ErrExhausted wraps the last error when every allowed attempt was rate
// limited.
var ErrExhausted = errors.New("retries exhausted")

// Class is the retry classification of an error.
type Class int

const (
	Fatal Class = iota
	Retryable
)

func (c Class) String() string {
	if c == Retryable {
		return "retryable"
	}
	return "fatal"
}

// Policy decides whether and how long to wait before retrying.
type Policy struct {
	// MaxRetries is the number of attempts allowed after the first.
	MaxRetries int
	// DefaultDelay applies when the error carries no retry-after value.
	DefaultDelay time.Duration
	// Clock drives the wait. Nil means the real clock.
	Clock clock.Clock
	// OnRetry, if set, is called before each wait with the 1-based retry
	// number, the chosen delay and the error being retried.
	OnRetry func(retry int, delay time.Duration, err error)
}

// DefaultPolicy returns a policy allowing one retry after a rate-limit
// rejection with a 20 second fallback delay.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   DefaultMaxRetries,
		DefaultDelay: DefaultDelay,
	}
}

// Classify returns Retryable for rate-limit rejections and Fatal for
// everything else, including timeouts and cancellation.
func (p Policy) Classify(err error) Class {
	if transport.IsRateLimited(err) {
		return Retryable
	}
	return Fatal
}

// Delay returns the wait before retrying err: the endpoint's retry-after
// value when present, otherwise DefaultDelay.
func (p Policy) Delay(err error) time.Duration {
	var rl *transport.RateLimitError
	if errors.As(err, &rl) && rl.HasRetryAfter {
		return rl.RetryAfter
	}
	return p.DefaultDelay
}

// Do calls fn and retries it while the policy allows. The wait parks only
// the calling goroutine and ends early if ctx is done.
//
// A fatal error is returned unchanged. When the retry budget runs out the
// last error is returned wrapped with ErrExhausted.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	c := p.Clock
	if c == nil {
		c = clock.Real()
	}

	var zero T
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		if p.Classify(err) != Retryable {
			return zero, err
		}
		if attempt >= p.MaxRetries {
			return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt+1, err)
		}

		delay := p.Delay(err)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-c.After(delay):
		}
	}
}
