// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, domain, and payload types shared
across the engine.

# Domain Types

Entities mirroring the storage schema (db tags for sqlx):

  - Category: grouping for the daily listing
  - Template: reusable poll definition with default options
  - Plan: per-(template, date) override (question, options, enabled flag)
  - Instance: one materialized, ballot-accepting poll for a date
  - Ballot: one voter's submission, hashes only, optional Survey answers
  - Ranking: one (ballot, rank, option) triple
  - ResultSnapshot: frozen tally payload plus denormalized totals

# Payload Types

The persisted snapshot contract. Key names are stable across versions:

  - SingleResults: totalVotes, winnerOptionId, results[{optionId,label,count}]
  - RankedResults: totalBallots, winnerOptionId,
    rounds[{round, totals, eliminated, exhausted}]
  - DailyPolls / CategoryPolls / PollCard: tally-free daily listing
  - TemplateHistory / HistoryEntry: recent closed polls of one template

# Constants

Instance status:

	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"

Poll kinds:

	PollTypeSingle = "SINGLE"
	PollTypeRanked = "RANKED"

Audience scopes:

	AudiencePublic   = "PUBLIC"
	AudienceUserOnly = "USER_ONLY"

Dates cross the wire and the schema as DateLayout ("2006-01-02").
*/
package models
