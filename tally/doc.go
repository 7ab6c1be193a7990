// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally implements the counting algorithms for both poll kinds. It is
pure computation: no storage, no clocks, no I/O.

# Single Choice

SingleChoice turns per-option first-choice counts into the public results
list: every option present (zeros included), descending by count, ties kept
in display order so output is deterministic.

# Instant Runoff

InstantRunoff runs round-by-round elimination:

  - Each ballot counts toward its highest-ranked option still active, or is
    exhausted when none remain.
  - A strict majority of active votes wins the round immediately.
  - Otherwise the minimum-tally option is eliminated, ties broken by
    ascending option id.
  - A sole survivor must still clear the same majority check in a re-counted
    final round; a count with every ballot exhausted ends without a winner.

Round records (totals, eliminated, exhausted) are persisted verbatim inside
result snapshots, so their shape is part of the storage contract.
*/
package tally
