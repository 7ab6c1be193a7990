// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package config handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := config.ParseFlags(os.Args[1:])

A .env file in the working directory is loaded first when present.

# Config Fields

  - Port: Server listen port (default: 8080)
  - DatabaseURL: PostgreSQL connection string (required)
  - RedisURL: Redis connection string (empty runs the in-process cache)
  - TokenSecret: Voter token signing secret (required)
  - TurnstileSecret: Turnstile secret; empty disables bot checks
  - CookieDomain, CookieSecure: voter cookie attributes
  - VoteRateLimit, VoteRateWindow: per-IP votes per poll per window (1 per 24h)
  - SnapshotMinBallots: minimum ballots before an interim snapshot is written
  - Timezone: poll-day boundary timezone (default: America/New_York)
  - Job, JobDate, MigrateAction, PrintAdminKey: one-shot process modes

# CLI Flags

	-p                Server port
	-d                Database URL
	-r                Redis URL
	-token-secret     Voter token signing secret
	-turnstile-secret Turnstile secret
	-job              Run one job and exit (rollover or close)
	-date             Target date for -job (YYYY-MM-DD)
	-migrate          Run migrations and exit (up, down, status)
	-print-admin-key  Print the derived admin key and exit

# Environment Variables

Flags fall back to environment variables:

	PORT                 → -p
	DATABASE_URL         → -d
	REDIS_URL            → -r
	TOKEN_SECRET         → -token-secret
	TURNSTILE_SECRET     → -turnstile-secret
	COOKIE_DOMAIN
	COOKIE_SECURE
	VOTE_RATE_LIMIT
	VOTE_RATE_WINDOW
	SNAPSHOT_MIN_BALLOTS
	TIMEZONE

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - TOKEN_SECRET must be provided

# Example

	// In main.go
	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	st, err := store.Open(cfg.DatabaseURL)
	// ...
	mux := router.NewRouter(st, c, verifier, cfg)
*/
package config
