// Package mock provides a scripted Transport for tests.
package mock

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/tailored-agentic-units/reviewbot/core/protocol"
	"github.com/tailored-agentic-units/reviewbot/core/response"
	"github.com/tailored-agentic-units/reviewbot/transport"
)

// ErrExhausted is returned when Create is called more times than steps
// were scripted.
var ErrExhausted = errors.New("no more responses configured")

// Step is one scripted outcome of Create.
type Step struct {
	Response *response.ChatResponse
	Err      error
}

// Reply scripts a successful response with the given content.
func Reply(content string) Step {
	return Step{Response: response.NewChatResponse("mock", content)}
}

// NoContent scripts a successful response whose choice carries no content.
func NoContent() Step {
	resp := response.NewChatResponse("mock", "")
	resp.Choices[0].Message.Content = nil
	return Step{Response: resp}
}

// Fail scripts a failure with err.
func Fail(err error) Step {
	return Step{Err: err}
}

// RateLimited scripts a 429 rejection. A negative after means the endpoint
// sent no retry-after value.
func RateLimited(after time.Duration) Step {
	rl := &transport.RateLimitError{Message: "rate limit reached"}
	if after >= 0 {
		rl.RetryAfter = after
		rl.HasRetryAfter = true
	}
	return Step{Err: rl}
}

// Transport returns scripted steps in order and records every request.
type Transport struct {
	mu       sync.Mutex
	steps    []Step
	requests []transport.Request
}

// New creates a Transport that plays steps in order.
func New(steps ...Step) *Transport {
	return &Transport{steps: steps}
}

func (t *Transport) Create(ctx context.Context, req transport.Request) (*response.ChatResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := len(t.requests)
	req.Messages = slices.Clone(req.Messages)
	t.requests = append(t.requests, req)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if i >= len(t.steps) {
		return nil, ErrExhausted
	}
	return t.steps[i].Response, t.steps[i].Err
}

// Calls returns how many times Create was invoked.
func (t *Transport) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}

// Requests returns a copy of every request received, in order.
func (t *Transport) Requests() []transport.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.requests)
}

// LastMessages returns the messages of the most recent request.
func (t *Transport) LastMessages() []protocol.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.requests) == 0 {
		return nil
	}
	return slices.Clone(t.requests[len(t.requests)-1].Messages)
}
