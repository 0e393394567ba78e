package transport

import "time"

const (
	defaultTimeoutSeconds = 30
	defaultBaseURL        = "https://api.openai.com/v1"
)

// Config holds transport initialization parameters.
type Config struct {
	// APIKey is the endpoint credential. Normally supplied by the
	// environment rather than a config file.
	APIKey            string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL           string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	TimeoutSeconds    int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	RequestsPerMinute int    `json:"requests_per_minute,omitempty" yaml:"requests_per_minute,omitempty"` // 0 disables client-side pacing.
}

// DefaultConfig returns the default transport configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:        defaultBaseURL,
		TimeoutSeconds: defaultTimeoutSeconds,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.TimeoutSeconds > 0 {
		c.TimeoutSeconds = source.TimeoutSeconds
	}
	if source.RequestsPerMinute > 0 {
		c.RequestsPerMinute = source.RequestsPerMinute
	}
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// New creates the OpenAI transport described by cfg.
func New(cfg *Config) (*OpenAI, error) {
	opts := []OpenAIOption{
		WithAPIKey(cfg.APIKey),
		WithBaseURL(cfg.BaseURL),
		WithTimeout(cfg.Timeout()),
	}
	if cfg.RequestsPerMinute > 0 {
		opts = append(opts, WithLimiter(NewLimiter(cfg.RequestsPerMinute)))
	}
	return NewOpenAI(opts...)
}
