package retry

import "time"

// Config holds retry parameters loaded from configuration.
type Config struct {
	DefaultDelaySeconds int `json:"default_delay_seconds,omitempty" yaml:"default_delay_seconds,omitempty"`
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() Config {
	return Config{DefaultDelaySeconds: int(DefaultDelay / time.Second)}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.DefaultDelaySeconds > 0 {
		c.DefaultDelaySeconds = source.DefaultDelaySeconds
	}
}

// Policy builds a Policy from the configuration. The retry count is fixed
// at DefaultMaxRetries.
func (c *Config) Policy() Policy {
	p := DefaultPolicy()
	if c.DefaultDelaySeconds > 0 {
		p.DefaultDelay = time.Duration(c.DefaultDelaySeconds) * time.Second
	}
	return p
}
