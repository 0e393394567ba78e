// Package transcript records completed chat exchanges so a review run can be
// inspected after the fact. Records are stored as JSON under hierarchical
// keys in a pluggable Store.
package transcript

import "context"

// Store persists transcript entries. Implementations perform I/O on each call
// and hold no cache.
type Store interface {
	// List returns every key in the store.
	List(ctx context.Context) ([]string, error)
	// Load retrieves entries for the specified keys.
	Load(ctx context.Context, keys ...string) ([]Entry, error)
	// Save persists entries, creating or overwriting as needed.
	Save(ctx context.Context, entries ...Entry) error
	// Delete removes entries. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}
