// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package closer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dailypulse/pollengine/metrics"
	"github.com/dailypulse/pollengine/models"
	"github.com/dailypulse/pollengine/results"
	"github.com/dailypulse/pollengine/store"
)

// Engine freezes results and flips poll status in one transaction.
type Engine struct {
	store      *store.Store
	builder    *results.Builder
	minBallots int
}

func New(st *store.Store, builder *results.Builder, minBallots int) *Engine {
	return &Engine{store: st, builder: builder, minBallots: minBallots}
}

// Outcome reports one close run.
type Outcome struct {
	Snapshots int
	Closed    int
}

// CloseAndSnapshotForDate closes every open instance whose close date is the
// given date. Each instance is tallied and its snapshot upserted before the
// bulk status flip, all inside one transaction, so the frozen payload
// reflects exactly the ballots present at closing. Re-running is a no-op:
// only OPEN instances are selected.
func (e *Engine) CloseAndSnapshotForDate(ctx context.Context, date time.Time) (Outcome, error) {
	var out Outcome
	err := e.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		insts, err := e.store.DueOpenInstances(ctx, tx, date)
		if err != nil {
			return fmt.Errorf("load due instances: %w", err)
		}
		out, err = e.closeBatch(ctx, tx, insts)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}

	recordRun(out)
	slog.Info("close run finished",
		"closeDate", date.Format(models.DateLayout),
		"snapshots", out.Snapshots,
		"closed", out.Closed)
	return out, nil
}

// CloseAndSnapshotBeforeDate is the safety sweep: it closes every open
// instance whose close date has already passed the cutoff. A missed daily
// run leaves instances behind; the sweep picks them up on the next run.
func (e *Engine) CloseAndSnapshotBeforeDate(ctx context.Context, cutoff time.Time) (Outcome, error) {
	var out Outcome
	err := e.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		insts, err := e.store.OverdueOpenInstances(ctx, tx, cutoff)
		if err != nil {
			return fmt.Errorf("load overdue instances: %w", err)
		}
		out, err = e.closeBatch(ctx, tx, insts)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}

	recordRun(out)
	if out.Closed > 0 {
		slog.Warn("sweep closed instances past their close date",
			"cutoff", cutoff.Format(models.DateLayout),
			"closed", out.Closed)
	}
	return out, nil
}

// closeBatch snapshots each instance, then flips the whole set to CLOSED.
// Runs inside the caller's transaction; any failure rolls back both the
// snapshots and the status change together.
func (e *Engine) closeBatch(ctx context.Context, tx *sqlx.Tx, insts []models.Instance) (Outcome, error) {
	if len(insts) == 0 {
		return Outcome{}, nil
	}

	ids := make([]string, 0, len(insts))
	for _, inst := range insts {
		built, err := e.builder.BuildTx(ctx, tx, inst)
		if err != nil {
			return Outcome{}, fmt.Errorf("tally instance %s: %w", inst.ID, err)
		}
		if err := e.store.UpsertSnapshotTx(ctx, tx, built.Snapshot(inst.ID)); err != nil {
			return Outcome{}, fmt.Errorf("snapshot instance %s: %w", inst.ID, err)
		}
		slog.Info("instance snapshotted for close",
			"instanceId", inst.ID,
			"pollDate", inst.PollDate.Format(models.DateLayout))
		ids = append(ids, inst.ID)
	}

	closed, err := e.store.CloseInstances(ctx, tx, ids)
	if err != nil {
		return Outcome{}, fmt.Errorf("close instances: %w", err)
	}
	return Outcome{Snapshots: len(ids), Closed: closed}, nil
}

// recordRun counts a committed run. Metrics move only after commit so a
// rolled-back batch leaves them untouched.
func recordRun(out Outcome) {
	if out.Snapshots > 0 {
		metrics.SnapshotsWritten.Add(float64(out.Snapshots))
	}
	if out.Closed > 0 {
		metrics.InstancesClosed.Add(float64(out.Closed))
	}
}

// UpsertResultSnapshot tallies one instance and writes its snapshot in
// place, whatever the instance status. Reports whether a snapshot was
// written; an unknown instance yields (false, nil).
func (e *Engine) UpsertResultSnapshot(ctx context.Context, instanceID string) (bool, error) {
	built, err := e.builder.Build(ctx, instanceID)
	if err != nil {
		if errors.Is(err, results.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("tally instance %s: %w", instanceID, err)
	}
	if err := e.store.UpsertSnapshot(ctx, built.Snapshot(instanceID)); err != nil {
		return false, fmt.Errorf("snapshot instance %s: %w", instanceID, err)
	}
	metrics.SnapshotsWritten.Inc()
	return true, nil
}

// InterimSnapshot refreshes a poll's snapshot mid-flight once enough ballots
// exist to be worth freezing. Below the threshold nothing is written.
func (e *Engine) InterimSnapshot(ctx context.Context, instanceID string) (bool, error) {
	n, err := e.store.BallotCount(ctx, instanceID)
	if err != nil {
		return false, fmt.Errorf("count ballots for %s: %w", instanceID, err)
	}
	if n < e.minBallots {
		return false, nil
	}
	return e.UpsertResultSnapshot(ctx, instanceID)
}
