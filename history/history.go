// Package history holds the fixed context prefix a chat session sends ahead
// of every non-initial prompt.
//
// A history is empty until an initial exchange primes it. Priming replaces
// the whole prefix; there is no append. Entries alternate user/assistant,
// starting with a user message.
package history

import (
	"errors"
	"fmt"

	"github.com/tailored-agentic-units/reviewbot/core/protocol"
)

// ErrNotAlternating is returned by Prime when the messages do not strictly
// alternate user/assistant starting with a user turn.
var ErrNotAlternating = errors.New("history messages must alternate user/assistant")

// ErrInvalidRole is returned by Prime when a message carries an unknown role,
// typically from a hand-written seed.
var ErrInvalidRole = errors.New("history message has unknown role")

// History holds an ordered context prefix. Implementations must be safe for
// concurrent use.
type History interface {
	// ID returns the unique conversation identifier.
	ID() string
	// Prime replaces the prefix with msgs.
	Prime(msgs []protocol.Message) error
	// Messages returns a defensive copy of the prefix.
	Messages() []protocol.Message
	// Len returns the number of messages in the prefix.
	Len() int
	// Clear resets the prefix to empty.
	Clear()
}

// Validate checks every role is known and the alternation invariant holds.
func Validate(msgs []protocol.Message) error {
	for i, msg := range msgs {
		if !msg.Role.IsValid() {
			return fmt.Errorf("%w: message %d has role %q", ErrInvalidRole, i, msg.Role)
		}
		want := protocol.RoleUser
		if i%2 == 1 {
			want = protocol.RoleAssistant
		}
		if msg.Role != want {
			return ErrNotAlternating
		}
	}
	return nil
}
