// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"fmt"
	"log/slog"

	migrate "github.com/rubenv/sql-migrate"
)

// Migrations is the full schema history. New schema changes append a
// migration; existing entries never change once released.
var Migrations = migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{Id: "1", Up: []string{migration1up}, Down: []string{migration1down}},
		{Id: "2", Up: []string{migration2up}, Down: []string{migration2down}},
		{Id: "3", Up: []string{migration3up}, Down: []string{migration3down}},
		{Id: "4", Up: []string{migration4up}, Down: []string{migration4down}},
		{Id: "5", Up: []string{migration5up}, Down: []string{migration5down}},
	},
}

// Migrate runs a schema migration action: "up" applies everything pending,
// "down" reverts the latest migration, "status" only logs the current state.
func (s *Store) Migrate(action string) error {
	switch action {
	case "up":
		n, err := migrate.Exec(s.db.DB, "postgres", Migrations, migrate.Up)
		if err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		if n > 0 {
			slog.Info("schema migrations applied", "count", n)
		}
	case "down":
		n, err := migrate.ExecMax(s.db.DB, "postgres", Migrations, migrate.Down, 1)
		if err != nil {
			return fmt.Errorf("revert migration: %w", err)
		}
		slog.Info("schema migration reverted", "count", n)
	case "status":
		records, err := migrate.GetMigrationRecords(s.db.DB, "postgres")
		if err != nil {
			return fmt.Errorf("read migration records: %w", err)
		}
		slog.Info("schema status",
			"applied", len(records),
			"total", len(Migrations.Migrations),
		)
	default:
		return fmt.Errorf("unknown migrate action %q", action)
	}
	return nil
}

// Initial schema. The (template_id, poll_date) pair starts out unique; the
// constraint is loosened in migration 2.
const migration1up = `
CREATE TABLE poll_category (
    id TEXT PRIMARY KEY,
    key TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE poll_template (
    id TEXT PRIMARY KEY,
    category_id TEXT NOT NULL REFERENCES poll_category(id) ON DELETE RESTRICT,
    key TEXT NOT NULL,
    title TEXT NOT NULL,
    question TEXT,
    poll_type TEXT NOT NULL CHECK (poll_type IN ('SINGLE', 'RANKED')),
    max_rank INTEGER,
    audience TEXT NOT NULL DEFAULT 'PUBLIC',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    CONSTRAINT uq_poll_template_category_key UNIQUE (category_id, key)
);

CREATE INDEX ix_poll_template_category_active ON poll_template(category_id, is_active);

CREATE TABLE template_option (
    id TEXT PRIMARY KEY,
    template_id TEXT NOT NULL REFERENCES poll_template(id) ON DELETE CASCADE,
    label TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0,
    CONSTRAINT uq_template_option_sort UNIQUE (template_id, sort_order)
);

CREATE TABLE poll_plan (
    id TEXT PRIMARY KEY,
    template_id TEXT NOT NULL REFERENCES poll_template(id) ON DELETE CASCADE,
    plan_date DATE NOT NULL,
    enabled BOOLEAN NOT NULL DEFAULT TRUE,
    question_override TEXT,
    CONSTRAINT uq_poll_plan_template_date UNIQUE (template_id, plan_date)
);

CREATE TABLE plan_option (
    id TEXT PRIMARY KEY,
    plan_id TEXT NOT NULL REFERENCES poll_plan(id) ON DELETE CASCADE,
    label TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0,
    CONSTRAINT uq_plan_option_sort UNIQUE (plan_id, sort_order)
);

CREATE TABLE poll_instance (
    id TEXT PRIMARY KEY,
    template_id TEXT NOT NULL REFERENCES poll_template(id) ON DELETE RESTRICT,
    category_id TEXT NOT NULL REFERENCES poll_category(id) ON DELETE RESTRICT,
    poll_date DATE NOT NULL,
    title TEXT NOT NULL,
    question TEXT,
    poll_type TEXT NOT NULL,
    max_rank INTEGER,
    audience TEXT NOT NULL DEFAULT 'PUBLIC',
    status TEXT NOT NULL DEFAULT 'OPEN' CHECK (status IN ('OPEN', 'CLOSED')),
    CONSTRAINT uq_poll_instance_template_date UNIQUE (template_id, poll_date)
);

CREATE INDEX ix_poll_instance_date ON poll_instance(poll_date);
CREATE INDEX ix_poll_instance_category_date ON poll_instance(category_id, poll_date);

CREATE TABLE instance_option (
    id TEXT PRIMARY KEY,
    instance_id TEXT NOT NULL REFERENCES poll_instance(id) ON DELETE CASCADE,
    label TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0,
    CONSTRAINT uq_instance_option_sort UNIQUE (instance_id, sort_order)
);

CREATE TABLE vote_ballot (
    id TEXT PRIMARY KEY,
    instance_id TEXT NOT NULL REFERENCES poll_instance(id) ON DELETE CASCADE,
    voter_token_hash TEXT NOT NULL,
    ip_hash TEXT NOT NULL,
    user_agent_hash TEXT,
    country_code TEXT,
    region_code TEXT,
    first_choice_option_id TEXT REFERENCES instance_option(id) ON DELETE SET NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT uq_vote_ballot_instance_voter UNIQUE (instance_id, voter_token_hash)
);

CREATE INDEX ix_vote_ballot_first_choice ON vote_ballot(instance_id, first_choice_option_id);

CREATE TABLE vote_ranking (
    id TEXT PRIMARY KEY,
    ballot_id TEXT NOT NULL REFERENCES vote_ballot(id) ON DELETE CASCADE,
    rank INTEGER NOT NULL CHECK (rank >= 1),
    option_id TEXT NOT NULL REFERENCES instance_option(id) ON DELETE CASCADE,
    CONSTRAINT uq_vote_ranking_ballot_rank UNIQUE (ballot_id, rank),
    CONSTRAINT uq_vote_ranking_ballot_option UNIQUE (ballot_id, option_id)
);

CREATE INDEX ix_vote_ranking_ballot ON vote_ranking(ballot_id);

CREATE TABLE result_snapshot (
    id TEXT PRIMARY KEY,
    instance_id TEXT NOT NULL UNIQUE REFERENCES poll_instance(id) ON DELETE CASCADE,
    results_json JSONB NOT NULL,
    total_votes INTEGER,
    total_ballots INTEGER,
    winner_option_id TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const migration1down = `
DROP TABLE result_snapshot;
DROP TABLE vote_ranking;
DROP TABLE vote_ballot;
DROP TABLE instance_option;
DROP TABLE poll_instance;
DROP TABLE plan_option;
DROP TABLE poll_plan;
DROP TABLE template_option;
DROP TABLE poll_template;
DROP TABLE poll_category;
`

// Same-day instance replacement needs transient duplicate (template, date)
// pairs, so the unique constraint becomes a plain index. Rollover stays
// idempotent by skipping dates that already have an instance.
const migration2up = `
ALTER TABLE poll_instance DROP CONSTRAINT uq_poll_instance_template_date;
CREATE INDEX ix_poll_instance_template_date ON poll_instance(template_id, poll_date);
`

const migration2down = `
DROP INDEX ix_poll_instance_template_date;
ALTER TABLE poll_instance ADD CONSTRAINT uq_poll_instance_template_date UNIQUE (template_id, poll_date);
`

// Multi-day polls: templates carry a duration, instances a close date
// (poll_date + duration_days). Existing single-day instances close the
// morning after they open.
const migration3up = `
ALTER TABLE poll_template ADD COLUMN duration_days INTEGER NOT NULL DEFAULT 1;
ALTER TABLE poll_instance ADD COLUMN close_date DATE;
UPDATE poll_instance SET close_date = poll_date + 1 WHERE close_date IS NULL;
ALTER TABLE poll_instance ALTER COLUMN close_date SET NOT NULL;
CREATE INDEX ix_poll_instance_close_date ON poll_instance(close_date);
`

const migration3down = `
DROP INDEX ix_poll_instance_close_date;
ALTER TABLE poll_instance DROP COLUMN close_date;
ALTER TABLE poll_template DROP COLUMN duration_days;
`

// Optional self-reported demographics on ballots. All nullable; the vote
// path accepts them as-is and never requires them.
const migration4up = `
ALTER TABLE vote_ballot ADD COLUMN age_range TEXT;
ALTER TABLE vote_ballot ADD COLUMN gender TEXT;
ALTER TABLE vote_ballot ADD COLUMN race TEXT;
ALTER TABLE vote_ballot ADD COLUMN ethnicity TEXT;
ALTER TABLE vote_ballot ADD COLUMN state_code TEXT;
ALTER TABLE vote_ballot ADD COLUMN region TEXT;
ALTER TABLE vote_ballot ADD COLUMN community_type TEXT;
ALTER TABLE vote_ballot ADD COLUMN political_party TEXT;
ALTER TABLE vote_ballot ADD COLUMN political_ideology TEXT;
ALTER TABLE vote_ballot ADD COLUMN religion TEXT;
ALTER TABLE vote_ballot ADD COLUMN education_level TEXT;
`

const migration4down = `
ALTER TABLE vote_ballot DROP COLUMN education_level;
ALTER TABLE vote_ballot DROP COLUMN religion;
ALTER TABLE vote_ballot DROP COLUMN political_ideology;
ALTER TABLE vote_ballot DROP COLUMN political_party;
ALTER TABLE vote_ballot DROP COLUMN community_type;
ALTER TABLE vote_ballot DROP COLUMN region;
ALTER TABLE vote_ballot DROP COLUMN state_code;
ALTER TABLE vote_ballot DROP COLUMN ethnicity;
ALTER TABLE vote_ballot DROP COLUMN race;
ALTER TABLE vote_ballot DROP COLUMN gender;
ALTER TABLE vote_ballot DROP COLUMN age_range;
`

// region duplicated what state_code already gives us; drop it.
const migration5up = `
ALTER TABLE vote_ballot DROP COLUMN region;
`

const migration5down = `
ALTER TABLE vote_ballot ADD COLUMN region TEXT;
`
