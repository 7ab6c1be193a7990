// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dailypulse/pollengine/models"
)

// UpsertSnapshot writes or replaces the snapshot for its instance. The
// instance_id unique constraint guarantees one snapshot per poll; re-running
// a close overwrites the payload and bumps updated_at, keeping the original
// created_at.
func (s *Store) UpsertSnapshot(ctx context.Context, snap models.ResultSnapshot) error {
	return upsertSnapshot(ctx, s.db, snap)
}

// UpsertSnapshotTx is UpsertSnapshot on the caller's transaction, so the
// close run commits snapshots and status flips together.
func (s *Store) UpsertSnapshotTx(ctx context.Context, tx *sqlx.Tx, snap models.ResultSnapshot) error {
	return upsertSnapshot(ctx, tx, snap)
}

func upsertSnapshot(ctx context.Context, e sqlx.ExtContext, snap models.ResultSnapshot) error {
	_, err := sqlx.NamedExecContext(ctx, e, `
		INSERT INTO result_snapshot (id, instance_id, results_json,
		                             total_votes, total_ballots, winner_option_id)
		VALUES (:id, :instance_id, :results_json,
		        :total_votes, :total_ballots, :winner_option_id)
		ON CONFLICT (instance_id) DO UPDATE SET
			results_json = EXCLUDED.results_json,
			total_votes = EXCLUDED.total_votes,
			total_ballots = EXCLUDED.total_ballots,
			winner_option_id = EXCLUDED.winner_option_id,
			updated_at = NOW()`,
		snap)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the instance's snapshot, or nil when none exists.
func (s *Store) GetSnapshot(ctx context.Context, instanceID string) (*models.ResultSnapshot, error) {
	var snap models.ResultSnapshot
	err := s.db.GetContext(ctx, &snap, `
		SELECT id, instance_id, results_json, total_votes, total_ballots,
		       winner_option_id, created_at, updated_at
		FROM result_snapshot
		WHERE instance_id = $1`, instanceID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	return &snap, nil
}

// SnapshotsForInstances returns snapshots keyed by instance id. Instances
// without a snapshot are simply absent from the map.
func (s *Store) SnapshotsForInstances(ctx context.Context, instanceIDs []string) (map[string]models.ResultSnapshot, error) {
	byInstance := make(map[string]models.ResultSnapshot)
	if len(instanceIDs) == 0 {
		return byInstance, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, instance_id, results_json, total_votes, total_ballots,
		       winner_option_id, created_at, updated_at
		FROM result_snapshot
		WHERE instance_id IN (?)`, instanceIDs)
	if err != nil {
		return nil, fmt.Errorf("build snapshots query: %w", err)
	}

	var snaps []models.ResultSnapshot
	if err := s.db.SelectContext(ctx, &snaps, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select snapshots: %w", err)
	}
	for _, snap := range snaps {
		byInstance[snap.InstanceID] = snap
	}

	return byInstance, nil
}
