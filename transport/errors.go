package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned when a transport is built without a credential.
var ErrMissingAPIKey = errors.New("missing API key")

// RateLimitError is returned when the endpoint rejects a request for
// exceeding its rate limit (HTTP 429).
type RateLimitError struct {
	// RetryAfter is the wait advised by the endpoint. Only meaningful when
	// HasRetryAfter is true.
	RetryAfter    time.Duration
	HasRetryAfter bool
	Message       string
	Err           error
}

func (e *RateLimitError) Error() string {
	var b strings.Builder
	b.WriteString("rate limited")
	if e.HasRetryAfter {
		fmt.Fprintf(&b, " (retry after %s)", e.RetryAfter)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// StatusError is returned for any non-success HTTP status other than 429.
type StatusError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error { return e.Err }

// IsRateLimited reports whether err carries a rate-limit rejection.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// ParseRetryAfter reads a retry-after header value in seconds. HTTP-date
// values, negatives and garbage report false.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

// classifyStatus builds the typed error for an HTTP failure.
func classifyStatus(status int, header http.Header, message string, cause error) error {
	if status == http.StatusTooManyRequests {
		rl := &RateLimitError{Message: message, Err: cause}
		if header != nil {
			rl.RetryAfter, rl.HasRetryAfter = ParseRetryAfter(header.Get("Retry-After"))
		}
		return rl
	}
	return &StatusError{StatusCode: status, Message: message, Err: cause}
}
