package history

import "github.com/tailored-agentic-units/reviewbot/core/protocol"

// Config holds history initialization parameters. Seed, when set, primes the
// history at construction so a session starts with a fixed context prefix.
type Config struct {
	Seed []protocol.Message `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// DefaultConfig returns the default history configuration (no seed).
func DefaultConfig() Config {
	return Config{}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if len(source.Seed) > 0 {
		c.Seed = source.Seed
	}
}

// New creates a History from configuration. Currently returns an in-memory
// history, primed with the configured seed.
func New(cfg *Config) (History, error) {
	h := NewMemoryHistory()
	if len(cfg.Seed) > 0 {
		if err := h.Prime(cfg.Seed); err != nil {
			return nil, err
		}
	}
	return h, nil
}
