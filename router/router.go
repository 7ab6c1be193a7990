// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/dailypulse/pollengine/cache"
	"github.com/dailypulse/pollengine/closer"
	"github.com/dailypulse/pollengine/config"
	"github.com/dailypulse/pollengine/handlers"
	"github.com/dailypulse/pollengine/metrics"
	"github.com/dailypulse/pollengine/middleware"
	"github.com/dailypulse/pollengine/results"
	"github.com/dailypulse/pollengine/rollover"
	"github.com/dailypulse/pollengine/store"
	"github.com/dailypulse/pollengine/voting"
)

func NewRouter(st *store.Store, c cache.Cache, verifier voting.BotVerifier, cfg config.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize engines and handlers
	builder := results.NewBuilder(st, c)
	pipeline := voting.New(st, c, verifier, cfg.VoteRateLimit, cfg.VoteRateWindow)

	votingHandler := handlers.NewVotingHandler(pipeline, cfg)
	resultsHandler := handlers.NewResultsHandler(builder)
	pollsHandler := handlers.NewPollsHandler(builder, cfg)
	adminHandler := handlers.NewAdminHandler(st, rollover.New(st), closer.New(st, builder, cfg.SnapshotMinBallots), cfg)
	healthHandler := handlers.NewHealthHandler(st, c)

	// Health and metrics
	mux.HandleFunc("GET /health", healthHandler.Live)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("GET /metrics", metrics.Handler())

	// Voting (public)
	mux.HandleFunc("POST /polls/{id}/vote", middleware.WithLogging(votingHandler.SubmitVote))

	// Results and listings (public)
	mux.HandleFunc("GET /polls/{id}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /polls/today", middleware.WithLogging(pollsHandler.GetToday))
	mux.HandleFunc("GET /polls/{date}", middleware.WithLogging(pollsHandler.GetByDate))
	mux.HandleFunc("GET /templates/{id}/history", middleware.WithLogging(pollsHandler.TemplateHistory))

	// Lifecycle operations (admin, requires X-Admin-Key)
	mux.HandleFunc("POST /admin/rollover", middleware.WithLogging(adminHandler.RequireKey(adminHandler.Rollover)))
	mux.HandleFunc("POST /admin/close", middleware.WithLogging(adminHandler.RequireKey(adminHandler.Close)))
	mux.HandleFunc("POST /admin/instances/{id}/snapshot", middleware.WithLogging(adminHandler.RequireKey(adminHandler.Snapshot)))
	mux.HandleFunc("POST /admin/templates/{id}/replace", middleware.WithLogging(adminHandler.RequireKey(adminHandler.ReplaceInstance)))
	mux.HandleFunc("GET /admin/snapshots/missing", middleware.WithLogging(adminHandler.RequireKey(adminHandler.MissingSnapshots)))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pollengine API v1"))
	})

	return mux
}
