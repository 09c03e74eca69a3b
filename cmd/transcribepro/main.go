package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/transcribepro/transcribepro/internal/api"
	"github.com/transcribepro/transcribepro/internal/config"
	"github.com/transcribepro/transcribepro/internal/inbox"
	"github.com/transcribepro/transcribepro/internal/metrics"
	"github.com/transcribepro/transcribepro/internal/storage"
	"github.com/transcribepro/transcribepro/internal/transcribe"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		os.Exit(serve(os.Args[2:]))
	}
	os.Exit(transcribeOnce(os.Args[1:]))
}

func newLogger(levelStr string, w *os.File) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(level)
}

func loadConfig(o config.Overrides) *config.Config {
	cfg, err := config.Load(o)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}
	return cfg
}

// transcribeOnce prints the result for a single file. Logs go to stderr so
// stdout carries only the transcript.
func transcribeOnce(args []string) int {
	fs := flag.NewFlagSet("transcribepro", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: transcribepro [flags] <audio-file>\n       transcribepro serve [flags]\n\n")
		fs.PrintDefaults()
	}
	var o config.Overrides
	var save bool
	fs.StringVar(&o.Language, "lang", "", "language hint (default from TRANSCRIBE_LANGUAGE)")
	fs.StringVar(&o.OpenAIAPIKey, "key", "", "OpenAI API key (default from OPENAI_API_KEY)")
	fs.StringVar(&o.EnvFile, "env", "", "path to .env file")
	fs.StringVar(&o.LogLevel, "log-level", "", "log level")
	fs.BoolVar(&save, "save", false, "save the transcript to the transcript store")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	path := fs.Arg(0)

	cfg := loadConfig(o)
	log := newLogger(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := transcribe.NewClient(transcribe.WithLogger(log.With().Str("component", "transcribe").Logger()))
	result := client.Transcribe(ctx, path, cfg.Language, cfg.OpenAIAPIKey)
	fmt.Println(result)
	if transcribe.IsError(result) {
		return 1
	}

	if save {
		store, err := storage.New(cfg.S3, cfg.TranscriptDir, log.With().Str("component", "storage").Logger())
		if err != nil {
			log.Error().Err(err).Msg("failed to open transcript store")
			return 1
		}
		t, err := store.Save(ctx, result)
		if err != nil {
			log.Error().Err(err).Msg("failed to save transcript")
			return 1
		}
		log.Info().Str("name", t.Name).Str("store", store.Type()).Msg("transcript saved")
	}
	return 0
}

func serve(args []string) int {
	startTime := time.Now()

	fs := flag.NewFlagSet("transcribepro serve", flag.ExitOnError)
	var o config.Overrides
	var workers int
	fs.StringVar(&o.HTTPAddr, "listen", "", "HTTP listen address (default from HTTP_ADDR)")
	fs.StringVar(&o.LogLevel, "log-level", "", "log level")
	fs.StringVar(&o.InboxDir, "inbox", "", "watched drop folder (default from INBOX_DIR)")
	fs.StringVar(&o.TranscriptDir, "transcripts", "", "transcript directory (default from TRANSCRIPT_DIR)")
	fs.StringVar(&o.EnvFile, "env", "", "path to .env file")
	fs.IntVar(&workers, "workers", 2, "inbox transcription workers")
	fs.Parse(args)
	if workers < 1 {
		fmt.Fprintf(fs.Output(), "-workers must be >= 1, got %d\n", workers)
		return 2
	}

	cfg := loadConfig(o)
	log := newLogger(cfg.LogLevel, os.Stdout)
	log.Info().Str("version", version).Msg("transcribepro starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Transcript store
	store, err := storage.New(cfg.S3, cfg.TranscriptDir, log.With().Str("component", "storage").Logger())
	if err != nil {
		log.Error().Err(err).Msg("failed to open transcript store")
		return 1
	}
	storeLog := log.Info().Str("type", store.Type())
	if local, ok := store.(*storage.LocalStore); ok {
		storeLog = storeLog.Str("dir", local.Dir())
	}
	storeLog.Msg("transcript store ready")

	client := transcribe.NewClient(transcribe.WithLogger(log.With().Str("component", "transcribe").Logger()))

	// Inbox watcher (optional)
	var stats metrics.InboxStats
	if cfg.InboxDir != "" {
		if cfg.OpenAIAPIKey == "" {
			log.Warn().Msg("INBOX_DIR is set but OPENAI_API_KEY is empty; inbox files will fail")
		}
		pool := inbox.NewWorkerPool(inbox.WorkerPoolOptions{
			Transcriber: client,
			Store:       store,
			APIKey:      cfg.OpenAIAPIKey,
			Language:    cfg.Language,
			Workers:     workers,
			QueueSize:   64,
			Log:         log.With().Str("component", "inbox-worker").Logger(),
		})
		watcher := inbox.NewWatcher(cfg.InboxDir, pool, inbox.DefaultDebounce, log)
		if err := watcher.Start(); err != nil {
			log.Error().Err(err).Str("dir", cfg.InboxDir).Msg("failed to start inbox watcher")
			return 1
		}
		defer watcher.Stop()
		stats = watcher
	}
	prometheus.MustRegister(metrics.NewCollector(stats))

	// HTTP Server
	srv := api.NewServer(api.ServerOptions{
		Config:      cfg,
		Transcriber: client,
		Store:       store,
		Version:     version,
		StartTime:   startTime,
		InboxDir:    cfg.InboxDir,
		Log:         log.With().Str("component", "http").Logger(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	code := 0
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
			code = 1
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("transcribepro stopped")
	return code
}
