// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Cache for tests and single-node deployments
// running without Redis. Expired entries are dropped on access.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

type memEntry struct {
	payload   []byte
	count     int64
	expiresAt time.Time // zero means no expiry
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memEntry),
		now:     time.Now,
	}
}

func (m *Memory) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		e = memEntry{expiresAt: m.expiry(window)}
	}
	e.count++
	m.entries[key] = e

	return e.count <= int64(limit)
}

func (m *Memory) ClaimIdempotent(ctx context.Context, key string, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.live(key); ok {
		return false
	}
	m.entries[key] = memEntry{expiresAt: m.expiry(ttl)}

	return true
}

func (m *Memory) HasVoted(ctx context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.live(key)
	return ok
}

func (m *Memory) MarkVoted(ctx context.Context, key string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memEntry{expiresAt: m.expiry(ttl)}
}

func (m *Memory) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		return nil, false
	}
	return e.payload, true
}

func (m *Memory) SetBytes(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memEntry{
		payload:   append([]byte(nil), payload...),
		expiresAt: m.expiry(ttl),
	}
}

func (m *Memory) Delete(ctx context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

// live returns the entry at key if present and unexpired, dropping it
// otherwise. Callers hold mu.
func (m *Memory) live(key string) (memEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return memEntry{}, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return memEntry{}, false
	}
	return e, true
}

func (m *Memory) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}
