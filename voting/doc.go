// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting admits ballots through a fixed gauntlet of checks, ordered
cheapest first so abusive traffic burns the least work:

 1. Bot verification when configured: explicit rejection or a missing token
    denies; verifier outages allow.
 2. Per-network fixed-window rate limit.
 3. Idempotency claim: a replayed client key returns the first outcome
    without touching the database.
 4. Cache markers for already-voted, in voter scope then network scope.
 5. Instance state: must exist, be OPEN, and carry a sane option set.
 6. Ballot shape: no duplicates, only the instance's own options, exactly
    one choice for single polls, two up to max_rank for ranked ones.
 7. Transactional insert of ballot plus rankings, where the unique
    constraint on (instance, voter) is the final duplicate arbiter.

Every cache step degrades safely: rate limiting and idempotency fail open,
duplicate fast-paths fall back to the constraint. A lost cache costs
duplicate work, never correctness. Rejections surface as the package's
sentinel errors; handlers translate them to HTTP statuses. Outcomes feed
the votes metric by label.
*/
package voting
