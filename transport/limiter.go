package transport

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces outbound requests with a token bucket so a busy caller
// stays under the endpoint's request quota instead of tripping 429s.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter allowing requestsPerMin requests per minute
// with a burst of one. A requestsPerMin of 0 means unlimited.
func NewLimiter(requestsPerMin int) *Limiter {
	if requestsPerMin <= 0 {
		return &Limiter{}
	}
	r := rate.Limit(float64(requestsPerMin) / 60.0)
	return &Limiter{limiter: rate.NewLimiter(r, 1)}
}

// Wait blocks until a request is allowed or the context is done.
// Returns nil immediately if pacing is disabled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
