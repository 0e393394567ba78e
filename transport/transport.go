// Package transport carries chat requests to a completion endpoint and
// classifies its failures.
//
// The Transport interface is the only capability a chat session needs:
//
//	resp, err := t.Create(ctx, transport.Request{
//	    Model:    "gpt-3.5-turbo",
//	    Messages: protocol.InitMessages(protocol.RoleUser, "Review this"),
//	})
//
// Rate-limit rejections surface as *RateLimitError; other HTTP failures as
// *StatusError. Anything else (network, timeout, decode) is returned wrapped.
package transport

import (
	"context"

	"github.com/tailored-agentic-units/reviewbot/core/protocol"
	"github.com/tailored-agentic-units/reviewbot/core/response"
)

// Request is a single chat completion request. It is built fresh for each
// call and never stored.
type Request struct {
	Messages    []protocol.Message `json:"messages"`
	Model       string             `json:"model"`
	Temperature float64            `json:"temperature"`
}

// Transport sends chat completion requests. Implementations must be safe
// for concurrent use.
type Transport interface {
	Create(ctx context.Context, req Request) (*response.ChatResponse, error)
}
