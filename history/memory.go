package history

import (
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/reviewbot/core/protocol"
)

type memoryHistory struct {
	id       string
	messages []protocol.Message
	mu       sync.RWMutex
}

// NewMemoryHistory creates a History backed by an in-memory slice.
// The history is assigned a unique UUIDv7 identifier.
func NewMemoryHistory() History {
	return &memoryHistory{
		id: uuid.Must(uuid.NewV7()).String(),
	}
}

func (h *memoryHistory) ID() string {
	return h.id
}

func (h *memoryHistory) Prime(msgs []protocol.Message) error {
	if err := Validate(msgs); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = slices.Clone(msgs)
	return nil
}

func (h *memoryHistory) Messages() []protocol.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.messages)
}

func (h *memoryHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

func (h *memoryHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}
