package chat

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tailored-agentic-units/reviewbot/history"
	"github.com/tailored-agentic-units/reviewbot/retry"
	"github.com/tailored-agentic-units/reviewbot/transcript"
	"github.com/tailored-agentic-units/reviewbot/transport"
	"gopkg.in/yaml.v3"
)

const (
	defaultModel          = "gpt-3.5-turbo"
	defaultMaxPromptChars = 4000
	defaultObserver       = "slog"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey         = "OPENAI_API_KEY"
	EnvBaseURL        = "OPENAI_BASE_URL"
	EnvModel          = "REVIEWBOT_MODEL"
	EnvMaxPromptChars = "REVIEWBOT_MAX_PROMPT_CHARS"
	EnvDebug          = "REVIEWBOT_DEBUG"
)

// Config holds initialization parameters for a chat session and the
// subsystems it composes. Each subsystem section delegates to that
// subsystem's own config.
type Config struct {
	Model          string            `json:"model,omitempty" yaml:"model,omitempty"`
	MaxPromptChars int               `json:"max_prompt_chars,omitempty" yaml:"max_prompt_chars,omitempty"`
	Debug          bool              `json:"debug,omitempty" yaml:"debug,omitempty"`
	Observer       string            `json:"observer,omitempty" yaml:"observer,omitempty"` // Registered observer name.
	Transport      transport.Config  `json:"transport" yaml:"transport"`
	Retry          retry.Config      `json:"retry" yaml:"retry"`
	History        history.Config    `json:"history" yaml:"history"`
	Transcript     transcript.Config `json:"transcript" yaml:"transcript"`
}

// DefaultConfig returns a Config with defaults for every subsystem.
func DefaultConfig() Config {
	return Config{
		Model:          defaultModel,
		MaxPromptChars: defaultMaxPromptChars,
		Observer:       defaultObserver,
		Transport:      transport.DefaultConfig(),
		Retry:          retry.DefaultConfig(),
		History:        history.DefaultConfig(),
		Transcript:     transcript.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Transport.Merge(&source.Transport)
	c.Retry.Merge(&source.Retry)
	c.History.Merge(&source.History)
	c.Transcript.Merge(&source.Transcript)

	if source.Model != "" {
		c.Model = source.Model
	}
	if source.MaxPromptChars > 0 {
		c.MaxPromptChars = source.MaxPromptChars
	}
	if source.Debug {
		c.Debug = true
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// LoadConfig reads a config file, merges it with defaults, and returns the
// resulting Config. Files ending in .yaml or .yml are parsed as YAML,
// anything else as JSON.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

// ApplyEnv overlays values from the environment onto c. Unset variables
// leave c unchanged.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvAPIKey); ok && v != "" {
		c.Transport.APIKey = v
	}
	if v, ok := os.LookupEnv(EnvBaseURL); ok && v != "" {
		c.Transport.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvModel); ok && v != "" {
		c.Model = v
	}
	if v, ok := os.LookupEnv(EnvMaxPromptChars); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid %s %q: want a positive integer", EnvMaxPromptChars, v)
		}
		c.MaxPromptChars = n
	}
	if v, ok := os.LookupEnv(EnvDebug); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDebug, v, err)
		}
		c.Debug = b
	}
	return nil
}
