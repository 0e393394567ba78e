package chat

import "github.com/tailored-agentic-units/reviewbot/observability"

// Chat event types emitted during an exchange.
const (
	EventSendStart        observability.EventType = "chat.send.start"
	EventTruncate         observability.EventType = "chat.truncate"
	EventPrompt           observability.EventType = "chat.prompt"
	EventRateLimited      observability.EventType = "chat.rate_limited"
	EventReply            observability.EventType = "chat.reply"
	EventSendComplete     observability.EventType = "chat.send.complete"
	EventSendFailed       observability.EventType = "chat.send.failed"
	EventTranscriptFailed observability.EventType = "chat.transcript.failed"
	EventFatal            observability.EventType = "chat.fatal"
)
