package response

import "github.com/tailored-agentic-units/reviewbot/core/protocol"

// TokenUsage reports token consumption for a single completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatMessage is the assistant message carried by a choice. Content is a
// pointer because endpoints may omit it (refusals, filtered output).
type ChatMessage struct {
	Role    protocol.Role `json:"role"`
	Content *string       `json:"content"`
}

// Choice is one generated alternative in a chat response.
type Choice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

// ChatResponse represents the response from a chat completion request.
type ChatResponse struct {
	ID      string      `json:"id,omitempty"`
	Object  string      `json:"object,omitempty"`
	Created int64       `json:"created,omitempty"`
	Model   string      `json:"model"`
	Choices []Choice    `json:"choices"`
	Usage   *TokenUsage `json:"usage,omitempty"`
}

// Content returns the text of the first choice. Missing choices and absent
// content both yield the empty string.
func (r *ChatResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	if c := r.Choices[0].Message.Content; c != nil {
		return *c
	}
	return ""
}

// NewChatResponse builds a single-choice assistant response. Used by
// transports that decode vendor types and by test doubles.
func NewChatResponse(model, content string) *ChatResponse {
	return &ChatResponse{
		Model: model,
		Choices: []Choice{{
			Message: ChatMessage{
				Role:    protocol.RoleAssistant,
				Content: &content,
			},
			FinishReason: "stop",
		}},
	}
}
