// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// VotesTotal counts submissions by outcome: accepted, deduped,
	// bot_rejected, rate_limited, duplicate, not_found, closed, invalid,
	// error.
	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pollengine_votes_total",
		Help: "Vote submissions by outcome.",
	}, []string{"result"})

	InstancesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pollengine_instances_created_total",
		Help: "Poll instances materialized by rollover.",
	})

	InstancesClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pollengine_instances_closed_total",
		Help: "Poll instances flipped to CLOSED.",
	})

	SnapshotsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pollengine_snapshots_written_total",
		Help: "Result snapshots written or replaced.",
	})

	// CacheErrors counts cache calls that fell back to their degraded
	// default, labeled by operation.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pollengine_cache_errors_total",
		Help: "Cache operations that returned their degraded default.",
	}, []string{"op"})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
