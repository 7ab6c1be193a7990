package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dailypulse/pollengine/auth"
	"github.com/dailypulse/pollengine/cache"
	"github.com/dailypulse/pollengine/closer"
	"github.com/dailypulse/pollengine/config"
	"github.com/dailypulse/pollengine/models"
	"github.com/dailypulse/pollengine/results"
	"github.com/dailypulse/pollengine/rollover"
	"github.com/dailypulse/pollengine/router"
	"github.com/dailypulse/pollengine/store"
	"github.com/dailypulse/pollengine/turnstile"
	"github.com/dailypulse/pollengine/voting"
)

func main() {
	// Parse configuration
	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// The admin key is derived from the token secret; no database needed
	if cfg.PrintAdminKey {
		os.Stdout.WriteString(auth.GenerateAdminKey(cfg.TokenSecret) + "\n")
		return
	}

	// Connect to PostgreSQL
	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if cfg.MigrateAction != "" {
		if err := st.Migrate(cfg.MigrateAction); err != nil {
			slog.Error("migration failed", "action", cfg.MigrateAction, "error", err)
			os.Exit(1)
		}
		return
	}

	// Serve and job modes both want the schema current
	if err := st.Migrate("up"); err != nil {
		slog.Error("schema migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	if cfg.Job != "" {
		if err := runJob(st, cfg); err != nil {
			slog.Error("job failed", "job", cfg.Job, "error", err)
			os.Exit(1)
		}
		return
	}

	// Pick the cache backend
	var c cache.Cache
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer rc.Close()
		c = rc
		slog.Info("Cache backend: redis")
	} else {
		c = cache.NewMemory()
		slog.Info("Cache backend: in-process memory")
	}

	var verifier voting.BotVerifier
	if cfg.TurnstileSecret != "" {
		verifier = turnstile.New(cfg.TurnstileSecret)
		slog.Info("Turnstile verification enabled")
	}

	// Create router
	mux := router.NewRouter(st, c, verifier, cfg)

	// Create server
	server := http.Server{
		Handler: mux,
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// runJob executes one scheduled maintenance pass and returns. External
// schedulers run these on a fixed cadence; both are safe to re-run.
func runJob(st *store.Store, cfg config.Config) error {
	ctx := context.Background()

	date := cfg.Today()
	if cfg.JobDate != "" {
		d, err := time.Parse(models.DateLayout, cfg.JobDate)
		if err != nil {
			return err
		}
		date = d
	}

	switch cfg.Job {
	case "rollover":
		created, err := rollover.New(st).EnsureInstancesForDate(ctx, date)
		if err != nil {
			return err
		}
		slog.Info("rollover complete", "date", date.Format(models.DateLayout), "created", created)

	case "close":
		// The closer never touches the cache, so job runs use the
		// in-process one regardless of configuration.
		eng := closer.New(st, results.NewBuilder(st, cache.NewMemory()), cfg.SnapshotMinBallots)

		due, err := eng.CloseAndSnapshotForDate(ctx, date)
		if err != nil {
			return err
		}
		overdue, err := eng.CloseAndSnapshotBeforeDate(ctx, date)
		if err != nil {
			return err
		}
		slog.Info("close run complete",
			"date", date.Format(models.DateLayout),
			"closed", due.Closed+overdue.Closed,
			"snapshots", due.Snapshots+overdue.Snapshots,
		)
	}
	return nil
}
