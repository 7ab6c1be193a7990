// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the poll engine.

The engine runs a daily poll lifecycle: templates and per-date plans are
materialized into poll instances each morning, voters submit single-choice
or ranked ballots during the day, and a scheduled close seals each poll's
results into an immutable snapshot.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... TOKEN_SECRET=... go run .

Or with flags:

	go run . -p 8080 -d "postgres://..." -token-secret "..."

# One-Shot Modes

The same binary doubles as the scheduler workhorse; each mode runs once
and exits:

	go run . -job rollover            # materialize today's instances
	go run . -job close               # close due polls, then sweep overdue
	go run . -job close -date 2025-06-01
	go run . -migrate up              # or: down, status
	go run . -print-admin-key         # derive the X-Admin-Key value

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string
  - TOKEN_SECRET (-token-secret): Secret for voter token signing and the admin key

Optional settings:

  - PORT (-p): Server port (default: 8080)
  - REDIS_URL (-r): Redis cache; empty runs the in-process cache
  - TURNSTILE_SECRET (-turnstile-secret): Enables bot verification
  - COOKIE_DOMAIN, COOKIE_SECURE: Voter cookie attributes
  - VOTE_RATE_LIMIT, VOTE_RATE_WINDOW: Per-network vote admission limits
  - SNAPSHOT_MIN_BALLOTS: Floor for interim snapshot refreshes
  - TIMEZONE: Calendar-day boundary (default: America/New_York)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (voting, results, listings, admin, health)
  - router: Route definitions using Go 1.22+ routing
  - middleware: Logging and JSON helpers
  - models: Domain and request/response types
  - store: Postgres repositories, transactions, schema migrations
  - rollover: Daily instance materialization
  - closer: Snapshot-then-close transitions
  - tally: Plurality and instant-runoff counting
  - results: Cached result and listing payload assembly
  - voting: Vote admission pipeline
  - cache: Redis-or-memory cache behind one interface
  - auth: Voter tokens, hashing, admin key
  - turnstile: Bot verification client
  - metrics: Prometheus counters
  - config: Configuration parsing

See package documentation for each component.
*/
package main
