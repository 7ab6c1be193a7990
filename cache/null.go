// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"context"
	"time"
)

// Null pins every method to its degraded default. Voting then leans entirely
// on the database constraint; tests use it to prove that path holds.
type Null struct{}

func (Null) Allow(context.Context, string, int, time.Duration) bool { return true }

func (Null) ClaimIdempotent(context.Context, string, time.Duration) bool { return true }

func (Null) HasVoted(context.Context, string) bool { return false }

func (Null) MarkVoted(context.Context, string, time.Duration) {}

func (Null) GetBytes(context.Context, string) ([]byte, bool) { return nil, false }

func (Null) SetBytes(context.Context, string, []byte, time.Duration) {}

func (Null) Delete(context.Context, string) {}

func (Null) Ping(context.Context) error { return nil }

func (Null) Close() error { return nil }
