// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dailypulse/pollengine/auth"
	"github.com/dailypulse/pollengine/models"
	"github.com/dailypulse/pollengine/testutil"
)

// TestConcurrentVoteSubmissions verifies that simultaneous votes from
// distinct voters all land without losing or double counting ballots.
func TestConcurrentVoteSubmissions(t *testing.T) {
	st := testutil.SetupTestDB(t)
	defer st.Close()

	handler := newVotingHandler(st)
	inst := testutil.CreateTestInstance(t, st, models.PollTypeSingle, models.StatusOpen,
		testutil.Day("2025-06-01"), []string{"A", "B", "C"})

	numVoters := 10
	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			// Distinct client addresses keep the per-network layer out of
			// the way; each request also mints its own voter identity.
			choice := inst.Options[idx%len(inst.Options)].ID
			req := testutil.MakeRequest("POST", "/polls/"+inst.ID+"/vote",
				models.SubmitVoteRequest{RankedChoices: []string{choice}},
				map[string]string{"CF-Connecting-IP": "198.51.100." + strconv.Itoa(idx)})
			req.SetPathValue("id", inst.ID)
			w := httptest.NewRecorder()

			handler.SubmitVote(w, req)

			if w.Code == http.StatusOK {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if int(successCount.Load()) != numVoters {
		t.Errorf("Expected %d successful votes, got %d", numVoters, successCount.Load())
	}

	var ballotCount int
	err := st.DB().QueryRow(
		"SELECT COUNT(*) FROM vote_ballot WHERE instance_id = $1", inst.ID).Scan(&ballotCount)
	if err != nil {
		t.Fatalf("Failed to count ballots: %v", err)
	}
	if ballotCount != numVoters {
		t.Errorf("Expected %d ballots in database, got %d", numVoters, ballotCount)
	}

	var uniqueVoters int
	err = st.DB().QueryRow(
		"SELECT COUNT(DISTINCT voter_token_hash) FROM vote_ballot WHERE instance_id = $1", inst.ID).Scan(&uniqueVoters)
	if err != nil {
		t.Fatalf("Failed to count unique voters: %v", err)
	}
	if uniqueVoters != numVoters {
		t.Errorf("Expected %d unique voters, got %d (possible duplicates)", numVoters, uniqueVoters)
	}
}

// TestConcurrentDuplicateVoter races one identity against itself. The
// unique constraint arbitrates: exactly one ballot lands however the cache
// checks interleave.
func TestConcurrentDuplicateVoter(t *testing.T) {
	st := testutil.SetupTestDB(t)
	defer st.Close()

	handler := newVotingHandler(st)
	inst := testutil.CreateTestInstance(t, st, models.PollTypeSingle, models.StatusOpen,
		testutil.Day("2025-06-01"), []string{"Yes", "No"})

	token, err := auth.MintVoterToken(testutil.GetTestConfig().TokenSecret)
	if err != nil {
		t.Fatalf("MintVoterToken() error = %v", err)
	}
	cookie := &http.Cookie{Name: VoterCookie, Value: token}

	numAttempts := 5
	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numAttempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			req := testutil.MakeRequest("POST", "/polls/"+inst.ID+"/vote",
				models.SubmitVoteRequest{RankedChoices: []string{inst.Options[0].ID}},
				map[string]string{"CF-Connecting-IP": "203.0.113." + strconv.Itoa(idx)})
			req.SetPathValue("id", inst.ID)
			req.AddCookie(cookie)
			w := httptest.NewRecorder()

			handler.SubmitVote(w, req)

			if w.Code == http.StatusOK {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("Expected exactly 1 successful vote, got %d", successCount.Load())
	}

	var ballotCount int
	err = st.DB().QueryRow(
		"SELECT COUNT(*) FROM vote_ballot WHERE instance_id = $1", inst.ID).Scan(&ballotCount)
	if err != nil {
		t.Fatalf("Failed to count ballots: %v", err)
	}
	if ballotCount != 1 {
		t.Errorf("Expected 1 ballot in database, got %d", ballotCount)
	}
}

// TestConcurrentCloseRuns fires several close runs at once. Every run may
// tally, but the OPEN guard lets only one record the close and the snapshot
// upsert converges on a single row.
func TestConcurrentCloseRuns(t *testing.T) {
	st := testutil.SetupTestDB(t)
	defer st.Close()

	handler := newAdminHandler(st)
	inst := testutil.CreateTestInstance(t, st, models.PollTypeSingle, models.StatusOpen,
		testutil.Day("2025-06-01"), []string{"Yes", "No"})
	testutil.SubmitTestBallot(t, st, inst.ID, "alice", []string{inst.Options[0].ID})

	numRuns := 3
	var closedTotal atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numRuns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := testutil.MakeRequest("POST", "/admin/close",
				models.CloseRequest{Date: "2025-06-02"}, adminHeaders())
			w := httptest.NewRecorder()

			handler.Close(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("Close run failed: %d - %s", w.Code, w.Body.String())
				return
			}
			var resp models.CloseResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Errorf("Failed to decode close response: %v", err)
				return
			}
			closedTotal.Add(int32(resp.Closed))
		}()
	}

	wg.Wait()

	if closedTotal.Load() != 1 {
		t.Errorf("Expected the close to be recorded once across runs, got %d", closedTotal.Load())
	}

	var status string
	err := st.DB().QueryRow("SELECT status FROM poll_instance WHERE id = $1", inst.ID).Scan(&status)
	if err != nil {
		t.Fatalf("Failed to query instance status: %v", err)
	}
	if status != models.StatusClosed {
		t.Errorf("Expected status CLOSED, got %s", status)
	}

	var snapshotCount int
	err = st.DB().QueryRow(
		"SELECT COUNT(*) FROM result_snapshot WHERE instance_id = $1", inst.ID).Scan(&snapshotCount)
	if err != nil {
		t.Fatalf("Failed to count snapshots: %v", err)
	}
	if snapshotCount != 1 {
		t.Errorf("Expected exactly 1 snapshot, got %d", snapshotCount)
	}
}

// TestParallelInstances verifies that votes on different polls don't
// interfere with each other.
func TestParallelInstances(t *testing.T) {
	st := testutil.SetupTestDB(t)
	defer st.Close()

	votingHandler := newVotingHandler(st)
	resultsHandler := newResultsHandler(st)

	numPolls := 5
	instances := make([]models.Instance, numPolls)
	for i := range instances {
		instances[i] = testutil.CreateTestInstance(t, st, models.PollTypeSingle, models.StatusOpen,
			testutil.Day("2025-06-01"), []string{"Left", "Right"})
	}

	var wg sync.WaitGroup
	for i := 0; i < numPolls; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			inst := instances[idx]

			req := testutil.MakeRequest("POST", "/polls/"+inst.ID+"/vote",
				models.SubmitVoteRequest{RankedChoices: []string{inst.Options[0].ID}},
				map[string]string{"CF-Connecting-IP": "192.0.2." + strconv.Itoa(100+idx)})
			req.SetPathValue("id", inst.ID)
			w := httptest.NewRecorder()
			votingHandler.SubmitVote(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("Poll %d vote failed: %d - %s", idx, w.Code, w.Body.String())
				return
			}

			w = getResults(resultsHandler, inst.ID)
			if w.Code != http.StatusOK {
				t.Errorf("Poll %d results failed: %d", idx, w.Code)
			}
		}(i)
	}

	wg.Wait()

	for i, inst := range instances {
		var ballotCount int
		err := st.DB().QueryRow(
			"SELECT COUNT(*) FROM vote_ballot WHERE instance_id = $1", inst.ID).Scan(&ballotCount)
		if err != nil {
			t.Fatalf("Failed to count ballots: %v", err)
		}
		if ballotCount != 1 {
			t.Errorf("Poll %d: expected 1 ballot, got %d", i, ballotCount)
		}
	}
}
