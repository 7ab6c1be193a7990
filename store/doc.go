// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the Postgres persistence layer.

# Connecting

Open dials the database and retries the initial ping a few times so the
service survives a slow database start:

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

# Migrations

Schema changes live in migrations.go as an ordered in-memory migration set
applied with sql-migrate:

	if err := st.Migrate("up"); err != nil {
		log.Fatal(err)
	}

"up" applies pending migrations, "down" rolls back one, "status" logs the
applied set. Applied migrations are recorded in the gorp_migrations table.

# Tables

  - poll_category: Fixed display groupings
  - poll_template: Recurring poll definitions
  - template_option: Default options per template
  - poll_plan: Per-date overrides for a template
  - plan_option: Option overrides per plan
  - poll_instance: One concrete poll per template per day
  - instance_option: Frozen options per instance
  - vote_ballot: One ballot per voter per instance
  - vote_ranking: Ranked choices per ballot
  - result_snapshot: Frozen tally payload per closed instance

# Relationships

	poll_category 1──* poll_template
	poll_template 1──* template_option
	poll_template 1──* poll_plan
	poll_plan 1──* plan_option
	poll_template 1──* poll_instance
	poll_instance 1──* instance_option
	poll_instance 1──* vote_ballot
	vote_ballot 1──* vote_ranking
	poll_instance 1──1 result_snapshot

# Integrity constraints

Two constraints carry correctness, not just performance:

  - vote_ballot (instance_id, voter_token_hash) unique: the final authority
    on one ballot per voter, regardless of cache state
  - result_snapshot instance_id unique: one snapshot per poll, upserts
    replace in place

# Transactions

WithTx wraps a function in begin/commit with rollback on error. Methods
taking a *sqlx.Tx compose into a caller's transaction; the close run uses
this to commit snapshots and status flips atomically.
*/
package store
