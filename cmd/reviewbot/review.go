package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tailored-agentic-units/reviewbot/chat"
	"github.com/tailored-agentic-units/reviewbot/observability"
	"github.com/tailored-agentic-units/reviewbot/transcript"
	"github.com/tailored-agentic-units/reviewbot/transport"
	"golang.org/x/sync/errgroup"
)

var (
	errSeedFailed   = errors.New("seed exchange failed")
	errReviewFailed = errors.New("review exchange failed")
)

// result is the outcome of reviewing one file.
type result struct {
	File  string
	Reply string
	Err   error
}

// reviewer runs one chat session per file with bounded concurrency. All
// sessions of a run share one transport and one transcript store, so
// requests_per_minute bounds the run as a whole.
type reviewer struct {
	cfg         *chat.Config
	observer    observability.Observer
	seed        string
	action      string
	concurrency int

	// transport and store are built from cfg when nil.
	transport transport.Transport
	store     transcript.Store
}

// Run reviews every file and returns results in input order. Per-file
// failures are reported in the result; the returned error is reserved for
// failures that stop the whole run, such as a missing credential.
func (r *reviewer) Run(ctx context.Context, files []string) ([]result, error) {
	tr := r.transport
	if tr == nil {
		t, err := chat.NewTransport(r.cfg, r.observer)
		if err != nil {
			return nil, err
		}
		tr = t
	}

	store := r.store
	if store == nil {
		s, err := transcript.NewStore(&r.cfg.Transcript)
		if err != nil {
			return nil, fmt.Errorf("failed to create transcript store: %w", err)
		}
		if c, ok := s.(io.Closer); ok {
			defer c.Close()
		}
		store = s
	}

	opts := []chat.Option{chat.WithObserver(r.observer), chat.WithTransport(tr)}
	if store != nil {
		opts = append(opts, chat.WithTranscriptStore(store))
	}

	sessions := make([]*chat.Session, len(files))
	for i := range files {
		s, err := chat.New(r.cfg, opts...)
		if err != nil {
			return nil, err
		}
		sessions[i] = s
	}

	results := make([]result, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}

	for i, file := range files {
		g.Go(func() error {
			results[i] = r.review(gCtx, sessions[i], file)
			return gCtx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (r *reviewer) review(ctx context.Context, s *chat.Session, file string) result {
	res := result{File: file}

	data, err := os.ReadFile(file)
	if err != nil {
		res.Err = fmt.Errorf("read %s: %w", file, err)
		return res
	}

	if r.seed != "" {
		if _, ok := s.Send(ctx, "seed", r.seed, true); !ok {
			res.Err = errSeedFailed
			return res
		}
	}

	prompt := fmt.Sprintf("File: %s\n\n%s", filepath.Base(file), data)
	reply, ok := s.Send(ctx, r.action, prompt, false)
	if !ok {
		res.Err = errReviewFailed
		return res
	}
	res.Reply = reply
	return res
}
