// Package chat implements the conversational client a review workflow talks
// to: it bounds prompt size, keeps a fixed context prefix seeded by an
// initial exchange, calls the completion endpoint and rides out one rate
// limit rejection.
//
// A session initializes from configuration via New. Functional options
// override any subsystem for tests.
//
//	s, err := chat.New(&cfg)
//	s.Send(ctx, "seed", guidelines, true)
//	reply, ok := s.Send(ctx, "review", diff, false)
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tailored-agentic-units/reviewbot/clock"
	"github.com/tailored-agentic-units/reviewbot/core/protocol"
	"github.com/tailored-agentic-units/reviewbot/core/response"
	"github.com/tailored-agentic-units/reviewbot/history"
	"github.com/tailored-agentic-units/reviewbot/observability"
	"github.com/tailored-agentic-units/reviewbot/retry"
	"github.com/tailored-agentic-units/reviewbot/transcript"
	"github.com/tailored-agentic-units/reviewbot/transport"
	"github.com/tailored-agentic-units/reviewbot/truncate"
)

// Option configures a Session. Options are applied before config-driven
// initialization, so an overridden subsystem is never built from config.
type Option func(*Session)

// WithTransport overrides the config-created OpenAI transport.
func WithTransport(t transport.Transport) Option {
	return func(s *Session) { s.transport = t }
}

// WithHistory overrides the config-created history.
func WithHistory(h history.History) Option {
	return func(s *Session) { s.history = h }
}

// WithObserver overrides the observer named in config.
func WithObserver(o observability.Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithClock overrides the real clock used for timing and retry waits.
func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithTranscriptStore overrides the config-created transcript store.
func WithTranscriptStore(store transcript.Store) Option {
	return func(s *Session) { s.store = store }
}

// WithRetryPolicy overrides the policy derived from config. The session
// supplies the clock and retry hook.
func WithRetryPolicy(p retry.Policy) Option {
	return func(s *Session) { s.policy = &p }
}

// Session is one conversation with the completion endpoint. Exchanges on a
// session are serialized.
type Session struct {
	transport transport.Transport
	history   history.History
	observer  observability.Observer
	clock     clock.Clock
	store     transcript.Store
	ownsStore bool
	policy    *retry.Policy

	model          string
	maxPromptChars int
	debug          bool

	mu  sync.Mutex
	seq atomic.Int64
}

// New creates a Session from configuration. Without a WithTransport
// override the OpenAI transport is built from cfg.Transport; a missing API
// key is reported as a fatal event and returned as ErrMissingCredential.
func New(cfg *Config, opts ...Option) (*Session, error) {
	s := &Session{
		model:          cfg.Model,
		maxPromptChars: cfg.MaxPromptChars,
		debug:          cfg.Debug,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.model == "" {
		s.model = defaultModel
	}
	if s.maxPromptChars <= 0 {
		s.maxPromptChars = defaultMaxPromptChars
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.policy == nil {
		p := cfg.Retry.Policy()
		s.policy = &p
	}

	if s.observer == nil {
		name := cfg.Observer
		if name == "" {
			name = defaultObserver
		}
		obs, err := observability.GetObserver(name)
		if err != nil {
			return nil, fmt.Errorf("failed to create observer: %w", err)
		}
		s.observer = obs
	}

	if s.history == nil {
		h, err := history.New(&cfg.History)
		if err != nil {
			return nil, fmt.Errorf("failed to create history: %w", err)
		}
		s.history = h
	}

	if s.store == nil {
		store, err := transcript.NewStore(&cfg.Transcript)
		if err != nil {
			return nil, fmt.Errorf("failed to create transcript store: %w", err)
		}
		s.store = store
		s.ownsStore = store != nil
	}

	if s.transport == nil {
		t, err := NewTransport(cfg, s.observer)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.transport = t
	}

	return s, nil
}

// NewTransport builds the OpenAI transport described by cfg.Transport. A
// missing API key is reported to observer as a fatal event and returned as
// ErrMissingCredential.
//
// Sessions given the same transport through WithTransport share its
// client-side pacing, so one transport per process keeps the whole process
// under RequestsPerMinute.
func NewTransport(cfg *Config, observer observability.Observer) (*transport.OpenAI, error) {
	t, err := transport.New(&cfg.Transport)
	if errors.Is(err, transport.ErrMissingAPIKey) {
		if observer != nil {
			observer.OnEvent(context.Background(), observability.Event{
				Type:      EventFatal,
				Level:     observability.LevelFatal,
				Timestamp: time.Now(),
				Source:    "chat.NewTransport",
				Data: map[string]any{
					"error": "no API key configured; set " + EnvAPIKey,
				},
			})
		}
		return nil, fmt.Errorf("%w: %w", ErrMissingCredential, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}
	return t, nil
}

// Close releases the transcript store the session built from config. A
// store supplied through WithTranscriptStore belongs to the caller and is
// left open.
func (s *Session) Close() error {
	if !s.ownsStore {
		return nil
	}
	s.ownsStore = false
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ID returns the identifier of the session's conversation history.
func (s *Session) ID() string {
	return s.history.ID()
}

// History returns the session's context prefix.
func (s *Session) History() history.History {
	return s.history
}

// Model returns the model name sent with every request.
func (s *Session) Model() string {
	return s.model
}

// Send performs one exchange and never fails: it returns the reply and true
// on success, or "" and false when the exchange could not be completed.
// Failures are reported to the observer as warnings.
func (s *Session) Send(ctx context.Context, action, message string, initial bool) (string, bool) {
	reply, err := s.Exchange(ctx, action, message, initial)
	if err != nil {
		data := map[string]any{
			"action":       action,
			"initial":      initial,
			"error":        err.Error(),
			"rate_limited": transport.IsRateLimited(err),
		}
		var se *transport.StatusError
		if errors.As(err, &se) {
			data["status"] = se.StatusCode
		}
		s.emit(ctx, EventSendFailed, observability.LevelWarning, "chat.Send", data)
		return "", false
	}
	return reply, true
}

// Exchange sends message to the endpoint and returns the reply text.
//
// An empty message returns "" without contacting the endpoint. A message
// longer than the configured limit is truncated first. When initial is
// true the history is cleared before the call and, on success, replaced by
// the message and its reply. Otherwise the history is sent as a prefix and
// left unchanged.
func (s *Session) Exchange(ctx context.Context, action, message string, initial bool) (string, error) {
	if message == "" {
		return "", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.clock.Now()
	s.emit(ctx, EventSendStart, observability.LevelVerbose, "chat.Exchange", map[string]any{
		"action":        action,
		"initial":       initial,
		"history_id":    s.history.ID(),
		"prompt_length": truncate.Len(message),
	})

	if n := truncate.Len(message); n > s.maxPromptChars {
		message = truncate.Prompt(message, s.maxPromptChars)
		s.emit(ctx, EventTruncate, observability.LevelWarning, "chat.Exchange", map[string]any{
			"action":          action,
			"original_length": n,
			"final_length":    truncate.Len(message),
			"limit":           s.maxPromptChars,
		})
	}

	if s.debug {
		s.emit(ctx, EventPrompt, observability.LevelInfo, "chat.Exchange", map[string]any{
			"action": action,
			"prompt": message,
		})
	}

	var messages []protocol.Message
	if initial {
		s.history.Clear()
	} else {
		messages = s.history.Messages()
	}
	prompt := protocol.NewMessage(protocol.RoleUser, message)
	messages = append(messages, prompt)

	req := transport.Request{
		Messages:    messages,
		Model:       s.model,
		Temperature: 0,
	}

	resp, err := retry.Do(ctx, s.retryPolicy(ctx, action), func(ctx context.Context) (*response.ChatResponse, error) {
		return s.transport.Create(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("%s failed: %w", actionName(action), err)
	}

	answer := protocol.NewMessage(protocol.RoleAssistant, resp.Content())
	reply := answer.Content

	if initial {
		primed := append(messages[:len(messages):len(messages)], answer)
		if err := s.history.Prime(primed); err != nil {
			return "", fmt.Errorf("%s failed: %w", actionName(action), err)
		}
	}

	elapsed := s.clock.Now().Sub(start)

	replyLevel := observability.LevelVerbose
	if s.debug {
		replyLevel = observability.LevelInfo
	}
	s.emit(ctx, EventReply, replyLevel, "chat.Exchange", map[string]any{
		"action":   action,
		"reply":    reply,
		"response": resp,
	})

	complete := map[string]any{
		"action":        action,
		"initial":       initial,
		"elapsed_ms":    elapsed.Milliseconds(),
		"prompt_length": prompt.Len(),
		"reply_length":  answer.Len(),
		"messages":      len(messages),
	}
	if u := resp.Usage; u != nil {
		complete["prompt_tokens"] = u.PromptTokens
		complete["completion_tokens"] = u.CompletionTokens
		complete["total_tokens"] = u.TotalTokens
	}
	s.emit(ctx, EventSendComplete, observability.LevelInfo, "chat.Exchange", complete)

	if s.store != nil {
		s.record(ctx, &transcript.Record{
			HistoryID: s.history.ID(),
			Seq:       int(s.seq.Add(1)),
			Action:    action,
			Initial:   initial,
			Model:     s.model,
			Messages:  messages,
			Reply:     reply,
			Usage:     resp.Usage,
			ElapsedMS: elapsed.Milliseconds(),
			Timestamp: start,
		})
	}

	return reply, nil
}

// retryPolicy binds the configured policy to the session clock and reports
// each rate-limit wait.
func (s *Session) retryPolicy(ctx context.Context, action string) retry.Policy {
	p := *s.policy
	p.Clock = s.clock
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		s.emit(ctx, EventRateLimited, observability.LevelInfo, "chat.Exchange", map[string]any{
			"action":   action,
			"retry":    attempt,
			"delay_ms": delay.Milliseconds(),
			"error":    err.Error(),
		})
	}
	return p
}

func (s *Session) record(ctx context.Context, rec *transcript.Record) {
	if err := transcript.Save(ctx, s.store, rec); err != nil {
		s.emit(ctx, EventTranscriptFailed, observability.LevelWarning, "chat.Exchange", map[string]any{
			"action": rec.Action,
			"key":    rec.Key(),
			"error":  err.Error(),
		})
	}
}

func (s *Session) emit(ctx context.Context, typ observability.EventType, level observability.Level, source string, data map[string]any) {
	s.observer.OnEvent(ctx, observability.Event{
		Type:      typ,
		Level:     level,
		Timestamp: s.clock.Now(),
		Source:    source,
		Data:      data,
	})
}

func actionName(action string) string {
	if action == "" {
		return "send"
	}
	return action
}
