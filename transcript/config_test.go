package transcript_test

import (
	"testing"

	"github.com/tailored-agentic-units/reviewbot/transcript"
)

func TestDefaultConfig(t *testing.T) {
	cfg := transcript.DefaultConfig()

	if cfg.Enabled() {
		t.Error("default config should be disabled")
	}
	if cfg.RedisPrefix != "reviewbot:" {
		t.Errorf("got RedisPrefix %q, want %q", cfg.RedisPrefix, "reviewbot:")
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := transcript.DefaultConfig()

	cfg.Merge(&transcript.Config{Path: "/data/transcripts", TTLSeconds: 60})

	if cfg.Path != "/data/transcripts" {
		t.Errorf("got Path %q, want %q", cfg.Path, "/data/transcripts")
	}
	if cfg.TTLSeconds != 60 {
		t.Errorf("got TTLSeconds %d, want 60", cfg.TTLSeconds)
	}
	if cfg.RedisPrefix != "reviewbot:" {
		t.Errorf("got RedisPrefix %q, want preserved default", cfg.RedisPrefix)
	}
}

func TestNewStore(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		store, err := transcript.NewStore(&transcript.Config{})
		if err != nil {
			t.Fatalf("NewStore() error = %v", err)
		}
		if store != nil {
			t.Error("expected nil store when disabled")
		}
	})

	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		store, err := transcript.NewStore(&transcript.Config{Path: dir})
		if err != nil {
			t.Fatalf("NewStore() error = %v", err)
		}
		if _, ok := store.(*transcript.FileStore); !ok {
			t.Fatalf("store = %T, want *FileStore", store)
		}
	})

	t.Run("redis takes precedence", func(t *testing.T) {
		store, err := transcript.NewStore(&transcript.Config{Path: t.TempDir(), RedisURL: "redis://localhost:6379/0"})
		if err != nil {
			t.Fatalf("NewStore() error = %v", err)
		}
		rs, ok := store.(*transcript.RedisStore)
		if !ok {
			t.Fatalf("store = %T, want *RedisStore", store)
		}
		rs.Close()
	})

	t.Run("bad redis url", func(t *testing.T) {
		if _, err := transcript.NewStore(&transcript.Config{RedisURL: "::"}); err == nil {
			t.Error("expected error for invalid URL")
		}
	})
}
