package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/tailored-agentic-units/reviewbot/chat"
	"github.com/tailored-agentic-units/reviewbot/observability"
	"github.com/tailored-agentic-units/reviewbot/transport"
	"github.com/tailored-agentic-units/reviewbot/transport/mock"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newReviewer(tr transport.Transport, seed string) *reviewer {
	cfg := chat.DefaultConfig()
	return &reviewer{
		cfg:         &cfg,
		observer:    observability.NoOpObserver{},
		seed:        seed,
		action:      "review",
		concurrency: 1,
		transport:   tr,
	}
}

func TestReviewer_Run(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.go", "package a")
	b := writeFile(t, dir, "b.go", "package b")

	tr := mock.New(
		mock.Reply("ack"), mock.Reply("review of a"),
		mock.Reply("ack"), mock.Reply("review of b"),
	)
	results, err := newReviewer(tr, "style guide").Run(context.Background(), []string{a, b})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].File != a || results[0].Reply != "review of a" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].File != b || results[1].Reply != "review of b" {
		t.Errorf("results[1] = %+v", results[1])
	}

	// Each review carries its session's seed prefix.
	reqs := tr.Requests()
	review := reqs[1].Messages
	if len(review) != 3 || review[0].Content != "style guide" {
		t.Errorf("review request = %+v, want seed prefix", review)
	}
	if !strings.HasPrefix(review[2].Content, "File: a.go") {
		t.Errorf("review prompt = %q, want file header", review[2].Content)
	}
}

func TestReviewer_PerFileFailures(t *testing.T) {
	dir := t.TempDir()
	ok := writeFile(t, dir, "ok.go", "package ok")
	missing := filepath.Join(dir, "missing.go")

	tr := mock.New(mock.Reply("fine"), mock.Fail(&transport.StatusError{StatusCode: 500}))
	r := newReviewer(tr, "")

	results, err := r.Run(context.Background(), []string{missing, ok, ok})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !errors.Is(results[0].Err, os.ErrNotExist) {
		t.Errorf("results[0].Err = %v, want not-exist", results[0].Err)
	}
	if results[1].Err != nil || results[1].Reply != "fine" {
		t.Errorf("results[1] = %+v", results[1])
	}
	if !errors.Is(results[2].Err, errReviewFailed) {
		t.Errorf("results[2].Err = %v, want errReviewFailed", results[2].Err)
	}
}

func TestReviewer_SeedFailure(t *testing.T) {
	file := writeFile(t, t.TempDir(), "a.go", "package a")
	tr := mock.New(mock.Fail(errors.New("down")))

	results, err := newReviewer(tr, "seed").Run(context.Background(), []string{file})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !errors.Is(results[0].Err, errSeedFailed) {
		t.Errorf("Err = %v, want errSeedFailed", results[0].Err)
	}
	if tr.Calls() != 1 {
		t.Errorf("got %d calls, want 1", tr.Calls())
	}
}

func TestReviewer_MissingCredential(t *testing.T) {
	cfg := chat.DefaultConfig()
	r := &reviewer{cfg: &cfg, observer: observability.NoOpObserver{}, action: "review"}

	_, err := r.Run(context.Background(), []string{"a.go"})
	if !errors.Is(err, chat.ErrMissingCredential) {
		t.Errorf("got %v, want ErrMissingCredential", err)
	}
}

func newCompletionServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   "gpt-3.5-turbo",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": "looks fine"},
				},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestReviewer_SharedPacing(t *testing.T) {
	var hits atomic.Int32
	srv := newCompletionServer(t, &hits)

	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "a.go", "package a"),
		writeFile(t, dir, "b.go", "package b"),
		writeFile(t, dir, "c.go", "package c"),
	}

	cfg := chat.DefaultConfig()
	cfg.Transport.APIKey = "sk-test"
	cfg.Transport.BaseURL = srv.URL
	cfg.Transport.RequestsPerMinute = 1
	r := &reviewer{
		cfg:         &cfg,
		observer:    observability.NoOpObserver{},
		action:      "review",
		concurrency: 3,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	results, err := r.Run(ctx, files)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := hits.Load(); got != 1 {
		t.Errorf("server got %d requests, want 1 at 1 request per minute", got)
	}

	var reviewed int
	for _, res := range results {
		if res.Err == nil {
			reviewed++
		} else if !errors.Is(res.Err, errReviewFailed) {
			t.Errorf("%s: Err = %v, want errReviewFailed", res.File, res.Err)
		}
	}
	if reviewed != 1 {
		t.Errorf("got %d reviewed files, want 1", reviewed)
	}
}

func TestReviewer_SharedTranscriptStore(t *testing.T) {
	mr := miniredis.RunT(t)

	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "a.go", "package a"),
		writeFile(t, dir, "b.go", "package b"),
	}

	r := newReviewer(mock.New(mock.Reply("review of a"), mock.Reply("review of b")), "")
	r.cfg.Transcript.RedisURL = "redis://" + mr.Addr()

	results, err := r.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, res := range results {
		if res.Err != nil {
			t.Errorf("%s: %v", res.File, res.Err)
		}
	}

	keys := mr.Keys()
	if len(keys) != 2 {
		t.Fatalf("got keys %v, want one transcript per file", keys)
	}
	for _, key := range keys {
		if !strings.HasPrefix(key, "reviewbot:transcripts/") {
			t.Errorf("key %q missing store prefix", key)
		}
	}
}

func TestLoadEnv(t *testing.T) {
	const key = "REVIEWBOT_LOADENV_TEST"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := writeFile(t, t.TempDir(), ".env", key+"=from-dotenv\n")
	if err := loadEnv(path, true); err != nil {
		t.Fatalf("loadEnv failed: %v", err)
	}
	if got := os.Getenv(key); got != "from-dotenv" {
		t.Errorf("got %q, want from-dotenv", got)
	}

	missing := filepath.Join(t.TempDir(), ".env")
	if err := loadEnv(missing, false); err != nil {
		t.Errorf("implicit missing .env should be ignored: %v", err)
	}
	if err := loadEnv(missing, true); err == nil {
		t.Error("explicit missing env file should fail")
	}
}
