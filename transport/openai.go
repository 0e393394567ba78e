package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/tailored-agentic-units/reviewbot/core/protocol"
	"github.com/tailored-agentic-units/reviewbot/core/response"
)

// OpenAI implements Transport using the official OpenAI Go SDK.
// It supports any OpenAI-compatible endpoint via WithBaseURL.
//
// The SDK's own retry loop is disabled: a 429 is returned to the caller as
// a *RateLimitError so that the session's retry policy is the only one.
type OpenAI struct {
	client  openai.Client
	limiter *Limiter
}

// OpenAIOption configures an OpenAI transport.
type OpenAIOption func(*openaiConfig)

type openaiConfig struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	limiter *Limiter
}

// WithAPIKey sets the API key. Required.
func WithAPIKey(key string) OpenAIOption {
	return func(c *openaiConfig) { c.apiKey = key }
}

// WithBaseURL sets a custom base URL, enabling Azure, vLLM, Ollama, or other
// OpenAI-compatible endpoints.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openaiConfig) { c.baseURL = url }
}

// WithTimeout sets the per-request timeout (default: 30 seconds).
func WithTimeout(d time.Duration) OpenAIOption {
	return func(c *openaiConfig) { c.timeout = d }
}

// WithLimiter paces requests through l before they are sent.
func WithLimiter(l *Limiter) OpenAIOption {
	return func(c *openaiConfig) { c.limiter = l }
}

// NewOpenAI creates an OpenAI transport. Returns ErrMissingAPIKey when no
// key was supplied; the SDK's environment fallback is not used.
func NewOpenAI(opts ...OpenAIOption) (*OpenAI, error) {
	cfg := openaiConfig{timeout: defaultTimeoutSeconds * time.Second}
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(cfg.timeout))
	}

	return &OpenAI{
		client:  openai.NewClient(clientOpts...),
		limiter: cfg.limiter,
	}, nil
}

// Create sends a chat completion request and converts the SDK result into
// a ChatResponse.
func (t *OpenAI) Create(ctx context.Context, req Request) (*response.ChatResponse, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("openai pacing: %w", err)
	}

	params := openai.ChatCompletionNewParams{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: openai.Float(req.Temperature),
	}

	completion, err := t.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			var header map[string][]string
			if apiErr.Response != nil {
				header = apiErr.Response.Header
			}
			return nil, classifyStatus(apiErr.StatusCode, header, apiErr.Message, err)
		}
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	return fromCompletion(completion), nil
}

func fromCompletion(completion *openai.ChatCompletion) *response.ChatResponse {
	resp := &response.ChatResponse{
		ID:      completion.ID,
		Object:  string(completion.Object),
		Created: completion.Created,
		Model:   completion.Model,
		Usage: &response.TokenUsage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}

	for _, choice := range completion.Choices {
		content := choice.Message.Content
		resp.Choices = append(resp.Choices, response.Choice{
			Index: int(choice.Index),
			Message: response.ChatMessage{
				Role:    protocol.RoleAssistant,
				Content: &content,
			},
			FinishReason: string(choice.FinishReason),
		})
	}

	return resp
}

// toOpenAIMessages converts protocol messages to the SDK union type.
func toOpenAIMessages(msgs []protocol.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, len(msgs))
	for i, m := range msgs {
		switch m.Role {
		case protocol.RoleSystem:
			out[i] = openai.SystemMessage(m.Content)
		case protocol.RoleAssistant:
			out[i] = openai.AssistantMessage(m.Content)
		default:
			out[i] = openai.UserMessage(m.Content)
		}
	}
	return out
}
