package transcript_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/tailored-agentic-units/reviewbot/transcript"
)

// unreachableStore points at a port nothing listens on, so every command
// fails at dial time without a running server.
func unreachableStore(t *testing.T) *transcript.RedisStore {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	store := transcript.NewRedisStore(client, "test:", 0)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRedisStore_Unreachable(t *testing.T) {
	ctx := context.Background()
	store := unreachableStore(t)

	if _, err := store.List(ctx); !errors.Is(err, transcript.ErrLoadFailed) {
		t.Errorf("List() error = %v, want ErrLoadFailed", err)
	}
	if _, err := store.Load(ctx, "k"); !errors.Is(err, transcript.ErrLoadFailed) {
		t.Errorf("Load() error = %v, want ErrLoadFailed", err)
	}
	if err := store.Save(ctx, transcript.Entry{Key: "k", Value: []byte("v")}); !errors.Is(err, transcript.ErrSaveFailed) {
		t.Errorf("Save() error = %v, want ErrSaveFailed", err)
	}
	if err := store.Delete(ctx, "k"); err == nil {
		t.Error("Delete() expected error")
	}
}

func newMiniStore(t *testing.T, ttl time.Duration) (*transcript.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := transcript.NewRedisStore(client, "test:", ttl)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniStore(t, time.Minute)

	entries := []transcript.Entry{
		{Key: "transcripts/h1/0002-review.json", Value: []byte(`{"seq":2}`)},
		{Key: "transcripts/h1/0001-seed.json", Value: []byte(`{"seq":1}`)},
	}
	if err := store.Save(ctx, entries...); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !mr.Exists("test:transcripts/h1/0001-seed.json") {
		t.Error("expected prefixed key in redis")
	}
	if got := mr.TTL("test:transcripts/h1/0001-seed.json"); got != time.Minute {
		t.Errorf("TTL = %v, want %v", got, time.Minute)
	}

	keys, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"transcripts/h1/0001-seed.json", "transcripts/h1/0002-review.json"}
	if !slices.Equal(keys, want) {
		t.Errorf("List() = %v, want %v", keys, want)
	}

	loaded, err := store.Load(ctx, entries[0].Key)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded) != 1 || loaded[0].Key != entries[0].Key || string(loaded[0].Value) != `{"seq":2}` {
		t.Errorf("Load() = %+v", loaded)
	}

	if err := store.Delete(ctx, entries[1].Key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, entries[1].Key); !errors.Is(err, transcript.ErrKeyNotFound) {
		t.Errorf("Load() after Delete error = %v, want ErrKeyNotFound", err)
	}
	if mr.Exists("test:transcripts/h1/0001-seed.json") {
		t.Error("deleted key still in redis")
	}
}

func TestRedisStore_NoTTL(t *testing.T) {
	store, mr := newMiniStore(t, 0)

	if err := store.Save(context.Background(), transcript.Entry{Key: "k", Value: []byte("v")}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got := mr.TTL("test:k"); got != 0 {
		t.Errorf("TTL = %v, want none", got)
	}
}

func TestRedisStore_ListIgnoresForeignKeys(t *testing.T) {
	store, mr := newMiniStore(t, 0)
	mr.Set("other:transcripts/x.json", "{}")

	if err := store.Save(context.Background(), transcript.Entry{Key: "mine", Value: []byte("v")}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	keys, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !slices.Equal(keys, []string{"mine"}) {
		t.Errorf("List() = %v, want [mine]", keys)
	}
}

func TestRedisStore_RecordFromConfig(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := transcript.DefaultConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	cfg.TTLSeconds = 3600
	store, err := transcript.NewStore(&cfg)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	rs, ok := store.(*transcript.RedisStore)
	if !ok {
		t.Fatalf("NewStore() = %T, want *RedisStore", store)
	}
	defer rs.Close()

	rec := &transcript.Record{HistoryID: "h1", Seq: 1, Action: "review", Reply: "looks fine"}
	if err := transcript.Save(ctx, store, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got := mr.TTL(cfg.RedisPrefix + rec.Key()); got != time.Hour {
		t.Errorf("TTL = %v, want 1h", got)
	}

	loaded, err := store.Load(ctx, rec.Key())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got, err := transcript.Decode(loaded[0])
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Reply != "looks fine" || got.Seq != 1 {
		t.Errorf("decoded = %+v", got)
	}
}

func TestRedisStore_EmptyBatchesSkipServer(t *testing.T) {
	ctx := context.Background()
	store := unreachableStore(t)

	if err := store.Save(ctx); err != nil {
		t.Errorf("Save() with no entries error = %v", err)
	}
	if err := store.Delete(ctx); err != nil {
		t.Errorf("Delete() with no keys error = %v", err)
	}
}

func TestOpenRedis(t *testing.T) {
	client, err := transcript.OpenRedis("redis://localhost:6379/2")
	if err != nil {
		t.Fatalf("OpenRedis() error = %v", err)
	}
	defer client.Close()

	if got := client.Options().DB; got != 2 {
		t.Errorf("DB = %d, want 2", got)
	}

	if _, err := transcript.OpenRedis("http://localhost"); err == nil {
		t.Error("expected error for non-redis scheme")
	}
}
