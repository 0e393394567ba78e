package transcript

import "time"

const defaultRedisPrefix = "reviewbot:"

// Config holds transcript store initialization parameters. With neither
// Path nor RedisURL set, recording is disabled.
type Config struct {
	Path        string `json:"path,omitempty" yaml:"path,omitempty"`                 // FileStore root directory.
	RedisURL    string `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`       // Takes precedence over Path.
	RedisPrefix string `json:"redis_prefix,omitempty" yaml:"redis_prefix,omitempty"` // Key prefix inside Redis.
	TTLSeconds  int    `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty"`   // Redis expiry; 0 keeps entries.
}

// DefaultConfig returns the default transcript configuration (disabled).
func DefaultConfig() Config {
	return Config{RedisPrefix: defaultRedisPrefix}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.RedisURL != "" {
		c.RedisURL = source.RedisURL
	}
	if source.RedisPrefix != "" {
		c.RedisPrefix = source.RedisPrefix
	}
	if source.TTLSeconds > 0 {
		c.TTLSeconds = source.TTLSeconds
	}
}

// Enabled reports whether a store is configured.
func (c *Config) Enabled() bool {
	return c.Path != "" || c.RedisURL != ""
}

// NewStore creates a Store from configuration. Returns a nil Store when
// recording is disabled.
func NewStore(cfg *Config) (Store, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	if cfg.RedisURL != "" {
		client, err := OpenRedis(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		ttl := time.Duration(cfg.TTLSeconds) * time.Second
		return NewRedisStore(client, cfg.RedisPrefix, ttl), nil
	}
	return NewFileStore(cfg.Path), nil
}
