// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dailypulse/pollengine/models"
)

// InsertBallotWithRankings writes the ballot and its rankings in one
// transaction. A second ballot for the same (instance, voter) pair trips the
// uq_vote_ballot_instance_voter constraint and comes back as
// ErrDuplicateBallot; the caller treats that as an idempotent success.
func (s *Store) InsertBallotWithRankings(ctx context.Context, ballot models.Ballot, rankings []models.Ranking) error {
	return s.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO vote_ballot (id, instance_id, voter_token_hash, ip_hash,
			                         user_agent_hash, country_code, region_code,
			                         first_choice_option_id,
			                         age_range, gender, race, ethnicity, state_code,
			                         community_type, political_party, political_ideology,
			                         religion, education_level)
			VALUES (:id, :instance_id, :voter_token_hash, :ip_hash,
			        :user_agent_hash, :country_code, :region_code,
			        :first_choice_option_id,
			        :age_range, :gender, :race, :ethnicity, :state_code,
			        :community_type, :political_party, :political_ideology,
			        :religion, :education_level)`,
			ballot)
		if err != nil {
			if isUniqueViolation(err, "uq_vote_ballot_instance_voter") {
				return ErrDuplicateBallot
			}
			return fmt.Errorf("insert ballot: %w", err)
		}

		for _, r := range rankings {
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO vote_ranking (id, ballot_id, rank, option_id)
				VALUES (:id, :ballot_id, :rank, :option_id)`,
				r); err != nil {
				return fmt.Errorf("insert ranking: %w", err)
			}
		}

		return nil
	})
}

// FirstChoiceCounts tallies single-choice ballots by option. Ballots whose
// option was deleted (first choice nulled by the FK) are skipped here and
// therefore drop out of the totals.
func (s *Store) FirstChoiceCounts(ctx context.Context, instanceID string) (map[string]int, error) {
	return firstChoiceCounts(ctx, s.db, instanceID)
}

// FirstChoiceCountsTx is FirstChoiceCounts on an open transaction.
func (s *Store) FirstChoiceCountsTx(ctx context.Context, tx *sqlx.Tx, instanceID string) (map[string]int, error) {
	return firstChoiceCounts(ctx, tx, instanceID)
}

func firstChoiceCounts(ctx context.Context, e sqlx.ExtContext, instanceID string) (map[string]int, error) {
	rows, err := e.QueryxContext(ctx, `
		SELECT first_choice_option_id, COUNT(*)
		FROM vote_ballot
		WHERE instance_id = $1 AND first_choice_option_id IS NOT NULL
		GROUP BY first_choice_option_id`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("count first choices: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var optionID string
		var n int
		if err := rows.Scan(&optionID, &n); err != nil {
			return nil, fmt.Errorf("scan first choice count: %w", err)
		}
		counts[optionID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate first choice counts: %w", err)
	}

	return counts, nil
}

// BallotRankings returns each ballot's option ids in rank order, one slice
// per ballot, for the instant-runoff tally. Ballot order is stable across
// calls (ordered by ballot id) though the tally result does not depend on it.
func (s *Store) BallotRankings(ctx context.Context, instanceID string) ([][]string, error) {
	return ballotRankings(ctx, s.db, instanceID)
}

// BallotRankingsTx is BallotRankings on an open transaction.
func (s *Store) BallotRankingsTx(ctx context.Context, tx *sqlx.Tx, instanceID string) ([][]string, error) {
	return ballotRankings(ctx, tx, instanceID)
}

func ballotRankings(ctx context.Context, e sqlx.ExtContext, instanceID string) ([][]string, error) {
	rows, err := e.QueryxContext(ctx, `
		SELECT r.ballot_id, r.option_id
		FROM vote_ranking r
		JOIN vote_ballot b ON b.id = r.ballot_id
		WHERE b.instance_id = $1
		ORDER BY r.ballot_id, r.rank`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("select rankings: %w", err)
	}
	defer rows.Close()

	var ballots [][]string
	var lastBallotID string
	for rows.Next() {
		var ballotID, optionID string
		if err := rows.Scan(&ballotID, &optionID); err != nil {
			return nil, fmt.Errorf("scan ranking: %w", err)
		}
		if ballotID != lastBallotID {
			ballots = append(ballots, nil)
			lastBallotID = ballotID
		}
		ballots[len(ballots)-1] = append(ballots[len(ballots)-1], optionID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rankings: %w", err)
	}

	return ballots, nil
}

// BallotCount returns the number of ballots cast on an instance.
func (s *Store) BallotCount(ctx context.Context, instanceID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM vote_ballot WHERE instance_id = $1`, instanceID)
	if err != nil {
		return 0, fmt.Errorf("count ballots: %w", err)
	}
	return n, nil
}
