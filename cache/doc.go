// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cache is the fast path in front of the database: rate-limit counters,
idempotency claims, already-voted markers, and rendered result payloads.

# Degraded contract

Implementations never surface backend errors. Each Cache method documents the
value it returns when the backend is unreachable, chosen so a cache outage
weakens throttling but cannot block votes or admit duplicates; the vote_ballot
unique constraint remains the authority. Degraded calls are logged and counted
in pollengine_cache_errors_total.

# Implementations

  - Redis: production backend via go-redis, connected from a redis:// URL
  - Memory: in-process map with expiry, for tests and cacheless deployments
  - Null: every call returns its degraded default

# Keys

Key builders live here so call sites cannot drift:

	rl:vote:{instance}:{ipHash}:{window}   rate limit counter
	idem:{instance}:{voterHash}:{key}      idempotency claim
	voted:{instance}:{voterHash}           already-voted marker, voter scope
	voted:{instance}:ip:{ipHash}           already-voted marker, network scope
	results:{instance}                     rendered results payload
	polls:{date}                           rendered daily listing
	history:{template}:{limit}             rendered template history
*/
package cache
