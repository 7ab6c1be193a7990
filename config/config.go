package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        int
	DatabaseURL string
	RedisURL    string

	TokenSecret     string
	TurnstileSecret string

	CookieDomain string
	CookieSecure bool

	VoteRateLimit      int
	VoteRateWindow     time.Duration
	SnapshotMinBallots int

	Timezone *time.Location

	// One-shot modes; empty means serve
	Job           string // "rollover" or "close"
	JobDate       string // optional YYYY-MM-DD for -job
	MigrateAction string // "up", "down", or "status"
	PrintAdminKey bool
}

// ParseFlags builds the configuration from CLI args with environment
// fallback. A .env file in the working directory is loaded first if present.
func ParseFlags(args []string) (Config, error) {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	var cfg Config

	fs := flag.NewFlagSet("pollengine", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.RedisURL, "r", "", "Redis URL (empty runs the in-process cache)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.TokenSecret, "token-secret", "", "Voter token signing secret (prefer env)")
	fs.StringVar(&cfg.TurnstileSecret, "turnstile-secret", "", "Turnstile secret, empty disables bot checks (prefer env)")

	// One-shot modes
	fs.StringVar(&cfg.Job, "job", "", "Run one job and exit: rollover or close")
	fs.StringVar(&cfg.JobDate, "date", "", "Target date for -job (YYYY-MM-DD, default today)")
	fs.StringVar(&cfg.MigrateAction, "migrate", "", "Run migrations and exit: up, down, or status")
	fs.BoolVar(&cfg.PrintAdminKey, "print-admin-key", false, "Print the derived admin key and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 8080 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}

	// Secrets - the token secret MUST be provided
	if cfg.TokenSecret == "" {
		cfg.TokenSecret = os.Getenv("TOKEN_SECRET")
	}
	if cfg.TokenSecret == "" {
		return Config{}, errors.New("TOKEN_SECRET required")
	}
	if cfg.TurnstileSecret == "" {
		cfg.TurnstileSecret = os.Getenv("TURNSTILE_SECRET")
	}

	cfg.CookieDomain = os.Getenv("COOKIE_DOMAIN")
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, errors.New("invalid COOKIE_SECURE env variable")
		}
		cfg.CookieSecure = secure
	}

	cfg.VoteRateLimit = 1
	if v := os.Getenv("VOTE_RATE_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return Config{}, errors.New("invalid VOTE_RATE_LIMIT env variable")
		}
		cfg.VoteRateLimit = limit
	}

	cfg.VoteRateWindow = 24 * time.Hour
	if v := os.Getenv("VOTE_RATE_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, errors.New("invalid VOTE_RATE_WINDOW env variable")
		}
		cfg.VoteRateWindow = d
	}

	if v := os.Getenv("SNAPSHOT_MIN_BALLOTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, errors.New("invalid SNAPSHOT_MIN_BALLOTS env variable")
		}
		cfg.SnapshotMinBallots = n
	}

	tzName := os.Getenv("TIMEZONE")
	if tzName == "" {
		tzName = "America/New_York"
	}
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE env variable: %w", err)
	}
	cfg.Timezone = tz

	switch cfg.Job {
	case "", "rollover", "close":
	default:
		return Config{}, errors.New("-job must be rollover or close")
	}
	if cfg.JobDate != "" {
		if _, err := time.Parse("2006-01-02", cfg.JobDate); err != nil {
			return Config{}, errors.New("-date must be YYYY-MM-DD")
		}
	}
	switch cfg.MigrateAction {
	case "", "up", "down", "status":
	default:
		return Config{}, errors.New("-migrate must be up, down, or status")
	}

	return cfg, nil
}

// Today returns the current calendar date in the service timezone,
// normalized to midnight UTC so date arithmetic is DST-proof.
func (c *Config) Today() time.Time {
	now := time.Now().In(c.Timezone)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
