package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dailypulse/pollengine/cache"
	"github.com/dailypulse/pollengine/models"
	"github.com/dailypulse/pollengine/testutil"
)

func TestHealthLive(t *testing.T) {
	st := testutil.SetupTestDB(t)
	defer st.Close()

	handler := NewHealthHandler(st, cache.NewMemory())
	req := testutil.MakeRequest("GET", "/health", nil, nil)
	w := httptest.NewRecorder()
	handler.Live(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.HealthResponse
	testutil.AssertJSON(t, w, &resp)
	if !resp.Ok || resp.Status != "healthy" {
		t.Errorf("Expected healthy response, got %+v", resp)
	}
}

func TestReadyz(t *testing.T) {
	st := testutil.SetupTestDB(t)
	defer st.Close()

	handler := NewHealthHandler(st, cache.NewMemory())
	req := testutil.MakeRequest("GET", "/readyz", nil, nil)
	w := httptest.NewRecorder()
	handler.Ready(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ReadyResponse
	testutil.AssertJSON(t, w, &resp)
	if !resp.Ok {
		t.Errorf("Expected ready, got %+v", resp)
	}
	if resp.Components["database"] != "healthy" || resp.Components["redis"] != "healthy" {
		t.Errorf("Expected healthy components, got %+v", resp.Components)
	}
}

func TestReadyzReportsDeadStore(t *testing.T) {
	st := testutil.SetupTestDB(t)
	st.Close()

	handler := NewHealthHandler(st, cache.NewMemory())
	req := testutil.MakeRequest("GET", "/readyz", nil, nil)
	w := httptest.NewRecorder()
	handler.Ready(w, req)

	testutil.AssertStatus(t, w, http.StatusServiceUnavailable)

	var resp models.ReadyResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Ok || resp.Status != "degraded" {
		t.Errorf("Expected degraded report, got %+v", resp)
	}
	if resp.Components["database"] != "unhealthy" {
		t.Errorf("Expected unhealthy database, got %+v", resp.Components)
	}
}
