// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"sort"

	"github.com/dailypulse/pollengine/models"
)

// SingleChoice aggregates first-choice counts into the public results list.
// Every option appears, zero-tallied ones included; counts keyed by unknown
// option ids are dropped. Results sort by descending count, ties kept in the
// options' display order rather than by id.
func SingleChoice(counts map[string]int, options []models.OptionInfo) ([]models.OptionCount, int) {
	displayIndex := make(map[string]int, len(options))
	results := make([]models.OptionCount, 0, len(options))
	totalVotes := 0

	for i, opt := range options {
		displayIndex[opt.OptionID] = i
		count := counts[opt.OptionID]
		results = append(results, models.OptionCount{
			OptionID: opt.OptionID,
			Label:    opt.Label,
			Count:    count,
		})
		totalVotes += count
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		return displayIndex[results[i].OptionID] < displayIndex[results[j].OptionID]
	})

	return results, totalVotes
}

// InstantRunoff runs an instant-runoff election over the given ballots. Each
// ballot is an ordered list of option ids, strongest preference first. The
// returned rounds are part of the persisted snapshot payload, so their shape
// and the elimination rule must stay stable:
//
//  1. Each ballot counts for its highest-ranked option still in the running,
//     or as exhausted when none of its options remain.
//  2. A strict majority of the active (non-exhausted) votes wins immediately.
//  3. Otherwise the option with the fewest votes is eliminated; ties are
//     broken by ascending option id.
//  4. A sole survivor is not declared winner automatically: the last round is
//     re-counted with only it active, and it must still hold a strict
//     majority of the votes that survive that recount.
func InstantRunoff(ballots [][]string, optionIDs []string) models.RankedTally {
	remaining := make(map[string]bool, len(optionIDs))
	for _, id := range optionIDs {
		remaining[id] = true
	}

	var rounds []models.TallyRound
	roundNumber := 0

	for {
		roundNumber++
		totals, exhausted := countRound(ballots, remaining)

		activeVotes := 0
		for id := range remaining {
			activeVotes += totals[id]
		}

		// Every ballot exhausted: nothing left to decide.
		if activeVotes == 0 {
			rounds = append(rounds, models.TallyRound{
				Round:     roundNumber,
				Totals:    totals,
				Exhausted: exhausted,
			})
			return models.RankedTally{Rounds: rounds, TotalBallots: len(ballots)}
		}

		// Strict majority of active votes ends the election.
		for _, id := range sortedIDs(remaining) {
			if totals[id]*2 > activeVotes {
				rounds = append(rounds, models.TallyRound{
					Round:     roundNumber,
					Totals:    totals,
					Exhausted: exhausted,
				})
				winner := id
				return models.RankedTally{
					WinnerOptionID: &winner,
					Rounds:         rounds,
					TotalBallots:   len(ballots),
				}
			}
		}

		// Eliminate the lowest tally; ties break by ascending option id.
		minVotes := -1
		for id := range remaining {
			if minVotes < 0 || totals[id] < minVotes {
				minVotes = totals[id]
			}
		}
		var tied []string
		for id := range remaining {
			if totals[id] == minVotes {
				tied = append(tied, id)
			}
		}
		sort.Strings(tied)
		eliminated := tied[0]

		rounds = append(rounds, models.TallyRound{
			Round:      roundNumber,
			Totals:     totals,
			Eliminated: &eliminated,
			Exhausted:  exhausted,
		})
		delete(remaining, eliminated)

		if len(remaining) == 1 {
			return finalRound(ballots, remaining, rounds, roundNumber+1)
		}
	}
}

// finalRound re-counts with only the survivor active, so the recorded rounds
// end with its post-elimination total rather than the tally it held before
// the last elimination. The same exhaustion and majority checks run against
// the recount.
func finalRound(ballots [][]string, remaining map[string]bool, rounds []models.TallyRound, roundNumber int) models.RankedTally {
	var survivor string
	for id := range remaining {
		survivor = id
	}

	totals, exhausted := countRound(ballots, remaining)

	activeVotes := 0
	for id := range remaining {
		activeVotes += totals[id]
	}

	if activeVotes == 0 {
		rounds = append(rounds, models.TallyRound{
			Round:     roundNumber,
			Totals:    totals,
			Exhausted: exhausted,
		})
		return models.RankedTally{Rounds: rounds, TotalBallots: len(ballots)}
	}

	rounds = append(rounds, models.TallyRound{
		Round:     roundNumber,
		Totals:    totals,
		Exhausted: exhausted,
	})

	if totals[survivor]*2 > activeVotes {
		winner := survivor
		return models.RankedTally{
			WinnerOptionID: &winner,
			Rounds:         rounds,
			TotalBallots:   len(ballots),
		}
	}

	return models.RankedTally{Rounds: rounds, TotalBallots: len(ballots)}
}

// countRound gives every ballot to its highest-ranked option still in the
// running, or counts it exhausted. Remaining options with no votes are kept
// in the totals at zero.
func countRound(ballots [][]string, remaining map[string]bool) (map[string]int, int) {
	totals := make(map[string]int, len(remaining))
	exhausted := 0

	for _, ranking := range ballots {
		selected := ""
		for _, optionID := range ranking {
			if remaining[optionID] {
				selected = optionID
				break
			}
		}
		if selected == "" {
			exhausted++
		} else {
			totals[selected]++
		}
	}

	for optionID := range remaining {
		if _, ok := totals[optionID]; !ok {
			totals[optionID] = 0
		}
	}

	return totals, exhausted
}

func sortedIDs(set map[string]bool) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
