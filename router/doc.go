// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the poll engine API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(st, c, verifier, cfg)

# Endpoints

Health and metrics:

	GET /health  - Liveness probe
	GET /readyz  - Readiness probe (503 when the database is down)
	GET /metrics - Prometheus metrics

Voting (public):

	POST /polls/{id}/vote - Submit a ballot

Results and listings (public):

	GET /polls/{id}/results      - Live tally or sealed snapshot
	GET /polls/today             - Today's polls grouped by category
	GET /polls/{date}            - Polls for a calendar date
	GET /templates/{id}/history  - Past winners for a template

Lifecycle operations (admin, requires X-Admin-Key):

	POST /admin/rollover                 - Materialize instances for a date
	POST /admin/close                    - Close due polls and seal snapshots
	POST /admin/instances/{id}/snapshot  - Refresh one poll's snapshot
	POST /admin/templates/{id}/replace   - Drop and re-materialize an instance
	GET  /admin/snapshots/missing        - Closed polls without a snapshot

The literal /polls/today pattern takes precedence over /polls/{date},
so "today" is never parsed as a date.

# Handler Initialization

The router builds the engines and handler instances from the store, the
cache, the bot verifier, and the configuration:

	builder := results.NewBuilder(st, c)
	pipeline := voting.New(st, c, verifier, cfg.VoteRateLimit, cfg.VoteRateWindow)

	votingHandler := handlers.NewVotingHandler(pipeline, cfg)
	resultsHandler := handlers.NewResultsHandler(builder)
	pollsHandler := handlers.NewPollsHandler(builder, cfg)
	adminHandler := handlers.NewAdminHandler(st, rollover.New(st), closer.New(st, builder, cfg.SnapshotMinBallots), cfg)
	healthHandler := handlers.NewHealthHandler(st, c)

A nil verifier disables bot checks entirely; tests rely on that.
*/
package router
