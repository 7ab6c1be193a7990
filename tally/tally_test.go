package tally

import (
	"testing"

	"github.com/dailypulse/pollengine/models"
)

func optionInfos(ids ...string) []models.OptionInfo {
	infos := make([]models.OptionInfo, len(ids))
	for i, id := range ids {
		infos[i] = models.OptionInfo{OptionID: id, Label: "Option " + id, SortOrder: i}
	}
	return infos
}

func TestSingleChoice(t *testing.T) {
	tests := []struct {
		name       string
		counts     map[string]int
		options    []models.OptionInfo
		wantTotal  int
		wantOrder  []string
		wantCounts []int
	}{
		{
			name:       "descending count order",
			counts:     map[string]int{"A": 1, "B": 4, "C": 2},
			options:    optionInfos("A", "B", "C"),
			wantTotal:  7,
			wantOrder:  []string{"B", "C", "A"},
			wantCounts: []int{4, 2, 1},
		},
		{
			name:       "missing options tally zero",
			counts:     map[string]int{"B": 3},
			options:    optionInfos("A", "B", "C"),
			wantTotal:  3,
			wantOrder:  []string{"B", "A", "C"},
			wantCounts: []int{3, 0, 0},
		},
		{
			name:       "unknown option ids are ignored",
			counts:     map[string]int{"B": 2, "ghost": 9},
			options:    optionInfos("A", "B"),
			wantTotal:  2,
			wantOrder:  []string{"B", "A"},
			wantCounts: []int{2, 0},
		},
		{
			name:       "ties keep display order",
			counts:     map[string]int{"A": 2, "B": 2, "C": 2},
			options:    optionInfos("C", "A", "B"),
			wantTotal:  6,
			wantOrder:  []string{"C", "A", "B"},
			wantCounts: []int{2, 2, 2},
		},
		{
			name:      "no ballots",
			counts:    map[string]int{},
			options:   optionInfos("A", "B"),
			wantTotal: 0,
			wantOrder: []string{"A", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, total := SingleChoice(tt.counts, tt.options)

			if total != tt.wantTotal {
				t.Errorf("Expected total %d, got %d", tt.wantTotal, total)
			}
			if len(results) != len(tt.wantOrder) {
				t.Fatalf("Expected %d results, got %d", len(tt.wantOrder), len(results))
			}
			for i, wantID := range tt.wantOrder {
				if results[i].OptionID != wantID {
					t.Errorf("Position %d: expected %s, got %s", i, wantID, results[i].OptionID)
				}
				if tt.wantCounts != nil && results[i].Count != tt.wantCounts[i] {
					t.Errorf("Option %s: expected count %d, got %d", wantID, tt.wantCounts[i], results[i].Count)
				}
			}
		})
	}
}

func TestInstantRunoffEliminationAndRedistribution(t *testing.T) {
	ballots := [][]string{
		{"A", "B", "C"},
		{"A", "C", "B"},
		{"B", "A", "C"},
		{"B", "C", "A"},
		{"C", "B", "A"},
	}

	result := InstantRunoff(ballots, []string{"A", "B", "C"})

	if result.WinnerOptionID == nil || *result.WinnerOptionID != "B" {
		t.Fatalf("Expected winner B, got %v", result.WinnerOptionID)
	}
	if len(result.Rounds) != 2 {
		t.Fatalf("Expected 2 rounds, got %d", len(result.Rounds))
	}

	// Round 1: A=2, B=2, C=1; C eliminated as the lone minimum
	r1 := result.Rounds[0]
	if r1.Totals["A"] != 2 || r1.Totals["B"] != 2 || r1.Totals["C"] != 1 {
		t.Errorf("Round 1 totals wrong: %v", r1.Totals)
	}
	if r1.Eliminated == nil || *r1.Eliminated != "C" {
		t.Errorf("Expected C eliminated in round 1, got %v", r1.Eliminated)
	}
	if r1.Exhausted != 0 {
		t.Errorf("Expected no exhausted ballots in round 1, got %d", r1.Exhausted)
	}

	// Round 2: C's ballot transfers to B; B reaches 3 of 5
	r2 := result.Rounds[1]
	if r2.Totals["A"] != 2 || r2.Totals["B"] != 3 {
		t.Errorf("Round 2 totals wrong: %v", r2.Totals)
	}
	if r2.Eliminated != nil {
		t.Errorf("Winning round should record no elimination, got %v", *r2.Eliminated)
	}
}

func TestInstantRunoffFirstRoundMajority(t *testing.T) {
	ballots := [][]string{
		{"A", "B"},
		{"A"},
		{"B", "A"},
	}

	result := InstantRunoff(ballots, []string{"A", "B"})

	if result.WinnerOptionID == nil || *result.WinnerOptionID != "A" {
		t.Fatalf("Expected winner A, got %v", result.WinnerOptionID)
	}
	if len(result.Rounds) != 1 {
		t.Fatalf("Majority in round 1 should end the election, got %d rounds", len(result.Rounds))
	}
	if result.Rounds[0].Eliminated != nil {
		t.Errorf("No elimination expected in a winning round, got %v", *result.Rounds[0].Eliminated)
	}
}

func TestInstantRunoffTwoWayTieEliminatesAlphabetically(t *testing.T) {
	ballots := [][]string{{"A"}, {"B"}}

	result := InstantRunoff(ballots, []string{"A", "B"})

	if len(result.Rounds) != 2 {
		t.Fatalf("Expected 2 rounds, got %d", len(result.Rounds))
	}

	// Round 1 is a 1-1 tie; A goes first in id order
	r1 := result.Rounds[0]
	if r1.Eliminated == nil || *r1.Eliminated != "A" {
		t.Fatalf("Expected A eliminated on the tie, got %v", r1.Eliminated)
	}

	// Round 2: A's ballot exhausts, B holds 1 of 1 active votes
	r2 := result.Rounds[1]
	if r2.Totals["B"] != 1 {
		t.Errorf("Round 2: expected B=1, got %v", r2.Totals)
	}
	if r2.Exhausted != 1 {
		t.Errorf("Round 2: expected 1 exhausted ballot, got %d", r2.Exhausted)
	}
	if result.WinnerOptionID == nil || *result.WinnerOptionID != "B" {
		t.Errorf("Expected winner B, got %v", result.WinnerOptionID)
	}
}

func TestInstantRunoffEliminatesMinimumWithTieBreak(t *testing.T) {
	ballots := [][]string{{"C"}, {"C"}, {"A"}, {"B"}}

	result := InstantRunoff(ballots, []string{"A", "B", "C"})

	// A and B tie for the minimum; A loses the tie-break
	if got := result.Rounds[0].Eliminated; got == nil || *got != "A" {
		t.Fatalf("Expected A eliminated first, got %v", got)
	}
	if result.WinnerOptionID == nil || *result.WinnerOptionID != "C" {
		t.Errorf("Expected winner C, got %v", result.WinnerOptionID)
	}
}

func TestInstantRunoffRecountsExhaustionInFinalRound(t *testing.T) {
	ballots := [][]string{{"A"}, {"A"}, {"B"}, {"B"}}

	result := InstantRunoff(ballots, []string{"A", "B"})

	if result.WinnerOptionID == nil || *result.WinnerOptionID != "B" {
		t.Fatalf("Expected winner B, got %v", result.WinnerOptionID)
	}

	// After A's elimination both of its ballots exhaust; B's majority is
	// measured against the 2 votes still active, not the original 4.
	final := result.Rounds[len(result.Rounds)-1]
	if final.Exhausted != 2 {
		t.Errorf("Expected 2 exhausted ballots in the final round, got %d", final.Exhausted)
	}
	if final.Totals["B"] != 2 {
		t.Errorf("Expected B=2 in the final round, got %v", final.Totals)
	}
}

func TestInstantRunoffNoBallots(t *testing.T) {
	result := InstantRunoff(nil, []string{"A", "B"})

	if result.WinnerOptionID != nil {
		t.Errorf("Expected no winner, got %v", *result.WinnerOptionID)
	}
	if len(result.Rounds) != 1 {
		t.Fatalf("Expected a single degenerate round, got %d", len(result.Rounds))
	}
	if result.Rounds[0].Totals["A"] != 0 || result.Rounds[0].Totals["B"] != 0 {
		t.Errorf("Expected zero totals, got %v", result.Rounds[0].Totals)
	}
}

func TestInstantRunoffAllBallotsExhausted(t *testing.T) {
	// Ballots referencing only removed/unknown options never become active
	ballots := [][]string{{"X"}, {"Y"}}

	result := InstantRunoff(ballots, []string{"A", "B"})

	if result.WinnerOptionID != nil {
		t.Errorf("Expected no winner, got %v", *result.WinnerOptionID)
	}
	if result.Rounds[0].Exhausted != 2 {
		t.Errorf("Expected 2 exhausted ballots, got %d", result.Rounds[0].Exhausted)
	}
}

func TestInstantRunoffRoundInvariant(t *testing.T) {
	ballots := [][]string{
		{"A", "B", "C", "D"},
		{"B", "C"},
		{"C"},
		{"D", "A"},
		{"D", "C", "B"},
		{"A"},
		{"B"},
		{"C", "D"},
	}

	result := InstantRunoff(ballots, []string{"A", "B", "C", "D"})

	// Active tallies plus exhausted ballots account for every ballot, every round
	for _, round := range result.Rounds {
		sum := 0
		for _, count := range round.Totals {
			sum += count
		}
		if sum+round.Exhausted != len(ballots) {
			t.Errorf("Round %d: %d active + %d exhausted != %d ballots",
				round.Round, sum, round.Exhausted, len(ballots))
		}
	}

	if result.TotalBallots != len(ballots) {
		t.Errorf("Expected TotalBallots %d, got %d", len(ballots), result.TotalBallots)
	}
}
