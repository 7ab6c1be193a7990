// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package closer ends polls and freezes their results.

CloseAndSnapshotForDate selects the open instances due to close on a date,
tallies each one, upserts its result snapshot, and flips the whole set to
CLOSED, all in a single transaction. Snapshot before status flip means the
frozen payload holds exactly the ballots present at closing; a failure
anywhere rolls back everything, leaving the polls open for the next run.
Only OPEN instances are ever selected, so repeat runs are no-ops.

CloseAndSnapshotBeforeDate is the sweep companion: same transaction shape,
but selecting instances whose close date has already passed, so polls missed
by a dead cron still close on the next invocation. The daily close job runs
both.

UpsertResultSnapshot and InterimSnapshot recompute a single instance's
snapshot on demand, the latter gated on a minimum ballot count.
*/
package closer
