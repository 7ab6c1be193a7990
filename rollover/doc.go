// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package rollover materializes the day's poll instances.

EnsureInstancesForDate walks every active template and creates one instance
per template for the target date, applying any plan for that (template, date)
pair: a disabled plan skips the template entirely, a question override
replaces the template question when non-empty, and plan options replace the
template defaults when any exist. Question text and options are copied onto
the instance at creation, so later template edits never touch live polls.

The run is idempotent. Templates that already have an instance on the date
are skipped, which makes a blind re-run after partial failure safe and a
duplicate cron firing harmless.

ReplaceInstance tears down one template's instance for a date, ballots and
all, and materializes a fresh one in the same transaction. It is the repair
path for a poll published with the wrong content.
*/
package rollover
