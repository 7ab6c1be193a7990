// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package results builds the public results payloads and decides where reads
come from.

Build produces the canonical payload for one poll: first-choice counts fed
through the single-choice tally, or full ballot rankings fed through instant
runoff, wrapped with the poll header and option list as they stand at build
time. The payload is marshaled once; the same bytes are cached for open
polls, frozen into result_snapshot at close, and served verbatim forever
after.

# Read routing

Results picks the source by poll status. Closed polls read the stored
snapshot; a closed poll missing its snapshot is tallied once and the result
stored, so the gap heals on first read. Open polls go through the cache with
a short TTL, falling back to a live tally on miss.

PollsForDate and TemplateHistory render the daily listing and the per-series
archive behind the same cache, keyed per date and per (template, depth).
*/
package results
