// Command reviewbot sends one or more files to a chat completion endpoint
// for review, one conversation per file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/tailored-agentic-units/reviewbot/chat"
	"github.com/tailored-agentic-units/reviewbot/observability"
)

type options struct {
	configFile  string
	seedFile    string
	envFile     string
	logFile     string
	action      string
	model       string
	concurrency int
	maxChars    int
	verbose     bool
	debug       bool
}

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options

	flagSet := pflag.NewFlagSet("reviewbot", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configFile, "config", "", "path to config file (.json, .yaml or .yml)")
	flagSet.StringVar(&opts.seedFile, "seed", "", "file sent as the initial exchange of every conversation")
	flagSet.StringVar(&opts.envFile, "env", ".env", "dotenv file loaded before reading the environment")
	flagSet.StringVar(&opts.logFile, "log-output", "", "also write JSON log records to this file")
	flagSet.StringVar(&opts.action, "action", "review", "action name used in logs and transcripts")
	flagSet.StringVar(&opts.model, "model", "", "model name (overrides config)")
	flagSet.IntVarP(&opts.concurrency, "concurrency", "j", 4, "number of files reviewed at once")
	flagSet.IntVar(&opts.maxChars, "max-prompt-chars", 0, "prompt character limit (overrides config)")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging to stderr")
	flagSet.BoolVar(&opts.debug, "debug", false, "log every prompt and reply")
	flagSet.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: reviewbot [flags] FILE...")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}
	files := flagSet.Args()
	if len(files) == 0 {
		flagSet.Usage()
		return errors.New("no files given")
	}

	if err := loadEnv(opts.envFile, flagSet.Changed("env")); err != nil {
		return err
	}

	cfg, err := loadConfig(&opts)
	if err != nil {
		return err
	}

	observer, closeLog, err := newObserver(&opts)
	if err != nil {
		return err
	}
	defer closeLog()

	var seed string
	if opts.seedFile != "" {
		data, err := os.ReadFile(opts.seedFile)
		if err != nil {
			return fmt.Errorf("failed to read seed file: %w", err)
		}
		seed = string(data)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := &reviewer{
		cfg:         cfg,
		observer:    observer,
		seed:        seed,
		action:      opts.action,
		concurrency: opts.concurrency,
	}
	results, err := r.Run(ctx, files)
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		fmt.Printf("== %s ==\n", res.File)
		if res.Err != nil {
			failed++
			fmt.Printf("(no review: %v)\n\n", res.Err)
			continue
		}
		fmt.Printf("%s\n\n", res.Reply)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d reviews failed", failed, len(results))
	}
	return nil
}

// loadEnv loads the dotenv file. A missing file is only an error when it
// was named explicitly.
func loadEnv(path string, explicit bool) error {
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func loadConfig(opts *options) (*chat.Config, error) {
	cfg := chat.DefaultConfig()
	if opts.configFile != "" {
		loaded, err := chat.LoadConfig(opts.configFile)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if opts.model != "" {
		cfg.Model = opts.model
	}
	if opts.maxChars > 0 {
		cfg.MaxPromptChars = opts.maxChars
	}
	if opts.debug {
		cfg.Debug = true
	}
	return &cfg, nil
}

// newObserver builds the stderr observer and, with --log-output, a JSON
// file observer alongside it.
func newObserver(opts *options) (observability.Observer, func(), error) {
	level := slog.LevelInfo
	if opts.verbose || opts.debug {
		level = slog.LevelDebug
	}
	stderr := observability.NewSlogObserver(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	if opts.logFile == "" {
		return stderr, func() {}, nil
	}

	f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log output: %w", err)
	}
	file := observability.NewSlogObserver(slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
	return observability.NewMultiObserver(stderr, file), func() { f.Close() }, nil
}
