// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the poll engine API.

# Handler Types

Each handler is a struct carrying its engine dependencies:

  - VotingHandler: vote submission through the admission pipeline
  - ResultsHandler: per-poll results (live or snapshot)
  - PollsHandler: daily listings and template history
  - AdminHandler: rollover, close runs, snapshot repair, instance replace
  - HealthHandler: liveness and readiness probes

Handlers are created via constructor functions that accept their engines:

	votingHandler := handlers.NewVotingHandler(pipeline, cfg)

# Voting Flow

Voters are anonymous. The first submission mints a signed token into the
"vt" cookie; only the hash of its embedded random value is stored:

	POST /polls/{id}/vote → SubmitVote (sets/reads the vt cookie)

Rejections map to specific statuses: 403 bot check, 429 rate limit, 409
duplicate or closed, 422 validation, 404 unknown poll.

# Read Flow

Read endpoints wrap the payload in a small envelope reporting whether it
was served from cache or snapshot:

	GET /polls/today               → GetToday
	GET /polls/{date}              → GetByDate
	GET /polls/{id}/results        → GetResults
	GET /templates/{id}/history    → TemplateHistory

	{"cached": true, "data": {...}}

# Admin Operations

Admin routes check the X-Admin-Key header against the key derived from
the service secret (auth.GenerateAdminKey):

	POST /admin/rollover                  → Rollover
	POST /admin/close                     → Close
	POST /admin/instances/{id}/snapshot   → Snapshot
	POST /admin/templates/{id}/replace    → ReplaceInstance
	GET  /admin/snapshots/missing         → MissingSnapshots
*/
package handlers
