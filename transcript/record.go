package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tailored-agentic-units/reviewbot/core/protocol"
	"github.com/tailored-agentic-units/reviewbot/core/response"
)

// Namespace is the top-level key segment for transcript records.
const Namespace = "transcripts"

// Entry is a key-value pair in a Store. Keys are /-separated paths and
// values are raw bytes.
type Entry struct {
	Key   string
	Value []byte
}

// Record is one completed exchange: the request as sent and the reply as
// received.
type Record struct {
	HistoryID string               `json:"history_id"`
	Seq       int                  `json:"seq"`
	Action    string               `json:"action"`
	Initial   bool                 `json:"initial,omitempty"`
	Model     string               `json:"model"`
	Messages  []protocol.Message   `json:"messages"`
	Reply     string               `json:"reply"`
	Usage     *response.TokenUsage `json:"usage,omitempty"`
	ElapsedMS int64                `json:"elapsed_ms"`
	Timestamp time.Time            `json:"timestamp"`
}

// Key returns the store key for r:
// transcripts/<history id>/<seq>-<action>.json.
func (r *Record) Key() string {
	return fmt.Sprintf("%s/%s/%04d-%s.json", Namespace, r.HistoryID, r.Seq, keySafe(r.Action))
}

// Entry encodes r as a store entry.
func (r *Record) Entry() (Entry, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return Entry{}, fmt.Errorf("encode transcript %s: %w", r.Key(), err)
	}
	return Entry{Key: r.Key(), Value: data}, nil
}

// Decode parses a store entry back into a Record.
func Decode(e Entry) (*Record, error) {
	var r Record
	if err := json.Unmarshal(e.Value, &r); err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", e.Key, err)
	}
	return &r, nil
}

// Save encodes r and writes it to store.
func Save(ctx context.Context, store Store, r *Record) error {
	entry, err := r.Entry()
	if err != nil {
		return err
	}
	return store.Save(ctx, entry)
}

// keySafe maps an action name to a single path segment.
func keySafe(action string) string {
	if action == "" {
		return "send"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, action)
}
