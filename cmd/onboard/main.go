package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/onboard/internal/api"
	"github.com/erazemk/onboard/internal/config"
	"github.com/erazemk/onboard/internal/db"
	"github.com/erazemk/onboard/internal/metrics"
	"github.com/erazemk/onboard/internal/notify"
	"github.com/erazemk/onboard/internal/store"
	"github.com/erazemk/onboard/internal/suggest"
	"github.com/erazemk/onboard/internal/web"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		config.Usage()
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready", "path", cfg.DBPath)

	// Cookie signing secret, generated on first run.
	secret, err := store.GetSessionSecret(context.Background(), database)
	if err != nil {
		slog.Error("failed to get session secret", "error", err)
		os.Exit(1)
	}

	provider := &suggest.Provider{Policy: cfg.OnFailure, Timeout: cfg.SuggestTimeout}
	if cfg.OpenAIKey != "" {
		provider.Client = suggest.NewClient(cfg.OpenAIURL, cfg.OpenAIKey, cfg.OpenAIModel)
		slog.Info("remote suggestions enabled", "model", cfg.OpenAIModel, "on_failure", cfg.OnFailure)
	} else {
		slog.Info("remote suggestions disabled, using built-in table")
	}

	m := metrics.New(func() (int, error) {
		return store.CountSessions(context.Background(), database)
	})

	webCfg := web.Config{
		DB:         database,
		Secret:     secret,
		SessionTTL: cfg.SessionTTL,
		CountMode:  cfg.CountMode,
		Suggester:  provider,
		Metrics:    m,
	}

	if mailer := notify.NewMailer(cfg.SendGridKey, cfg.MailFrom); mailer != nil {
		webCfg.Inviter = mailer
		slog.Info("teammate invites enabled", "from", cfg.MailFrom)
	}

	publisher, err := notify.NewPublisher(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	if publisher != nil {
		defer publisher.Close()
		webCfg.Events = publisher
		slog.Info("submission events enabled", "subject", cfg.NATSSubject)
	}

	apiRouter := api.NewRouter(database, provider, m)
	webRouter, err := web.NewRouter(webCfg)
	if err != nil {
		slog.Error("failed to set up web router", "error", err)
		os.Exit(1)
	}

	// API routes and probes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("GET /healthz", apiRouter)
	mux.Handle("GET /metrics", m.Handler())
	mux.Handle("/", webRouter)

	handler := api.RequestLogger(slog.Default(), api.SkipProbes, mux)

	// The write timeout leaves room for a slow suggestion request.
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.SuggestTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go purgeSessions(ctx, database, cfg.SessionTTL)

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())
		stop()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}

// purgeSessions removes sessions idle for longer than ttl until ctx is done.
func purgeSessions(ctx context.Context, database *sql.DB, ttl time.Duration) {
	interval := max(min(ttl/4, 15*time.Minute), time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.PurgeSessions(ctx, database, now.Add(-ttl))
			if err != nil {
				slog.Error("failed to purge sessions", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("purged idle sessions", "count", n)
			}
		}
	}
}
