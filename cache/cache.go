// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is the fast path in front of the database: rate-limit counters,
// idempotency claims, already-voted markers, and rendered payloads.
//
// Every method absorbs backend trouble and returns the documented degraded
// value instead of an error. The defaults are chosen so that losing the cache
// weakens throttling but never blocks a vote and never loosens the one-ballot
// rule; the vote_ballot unique constraint stays the authority either way.
type Cache interface {
	// Allow counts one hit against the fixed-window counter at key and
	// reports whether the count is still within limit. Degraded: true.
	Allow(ctx context.Context, key string, limit int, window time.Duration) bool

	// ClaimIdempotent marks key for ttl and reports whether this call was the
	// first to claim it. A repeat within ttl reports false. Degraded: true.
	ClaimIdempotent(ctx context.Context, key string, ttl time.Duration) bool

	// HasVoted reports whether the dedup marker at key exists. Callers pass
	// voter-scoped and network-scoped keys. Degraded: false, deferring the
	// decision to the database.
	HasVoted(ctx context.Context, key string) bool

	// MarkVoted sets the dedup marker at key for ttl. Best effort.
	MarkVoted(ctx context.Context, key string, ttl time.Duration)

	// GetBytes returns the payload cached at key, if any.
	GetBytes(ctx context.Context, key string) ([]byte, bool)

	// SetBytes caches payload at key for ttl. Best effort.
	SetBytes(ctx context.Context, key string, payload []byte, ttl time.Duration)

	// Delete drops key. Best effort.
	Delete(ctx context.Context, key string)

	// Ping reports backend reachability, for readiness checks.
	Ping(ctx context.Context) error

	Close() error
}

// Key builders. Hashes arrive pre-computed; raw identifiers never reach the
// cache.

// RateKey is the fixed-window rate limit counter for one network origin on
// one poll. The window index is part of the key, so counters roll over
// without coordination.
func RateKey(instanceID, ipHash string, windowIndex int64) string {
	return fmt.Sprintf("rl:vote:%s:%s:%d", instanceID, ipHash, windowIndex)
}

// WindowIndex buckets now into fixed windows of the given width.
func WindowIndex(now time.Time, window time.Duration) int64 {
	if window <= 0 {
		return 0
	}
	return now.UnixNano() / int64(window)
}

// IdemKey is the client idempotency claim for one voter's retry key.
func IdemKey(instanceID, voterHash, clientKey string) string {
	return "idem:" + instanceID + ":" + voterHash + ":" + clientKey
}

// VotedKey is the voter-scoped already-voted marker for one poll.
func VotedKey(instanceID, voterHash string) string {
	return "voted:" + instanceID + ":" + voterHash
}

// VotedIPKey is the network-scoped already-voted marker for one poll, kept in
// its own namespace so the two scopes never shadow each other.
func VotedIPKey(instanceID, ipHash string) string {
	return "voted:" + instanceID + ":ip:" + ipHash
}

// ResultsKey caches one open poll's rendered results payload.
func ResultsKey(instanceID string) string {
	return "results:" + instanceID
}

// DailyKey caches the rendered poll listing for one date (YYYY-MM-DD).
func DailyKey(date string) string {
	return "polls:" + date
}

// HistoryKey caches one template's rendered history payload at one depth.
func HistoryKey(templateID string, limit int) string {
	return fmt.Sprintf("history:%s:%d", templateID, limit)
}
