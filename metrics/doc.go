// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package metrics declares the Prometheus counters and serves the scrape
endpoint.

Counters are registered at import via promauto and incremented directly from
the packages that own the events:

	metrics.VotesTotal.WithLabelValues("accepted").Inc()

Handler returns the /metrics http.Handler.
*/
package metrics
