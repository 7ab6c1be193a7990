// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dailypulse/pollengine/middleware"
	"github.com/dailypulse/pollengine/results"
)

type ResultsHandler struct {
	builder *results.Builder
}

func NewResultsHandler(builder *results.Builder) *ResultsHandler {
	return &ResultsHandler{builder: builder}
}

// envelope wraps every cache-fronted read so clients can tell a live tally
// from a cached or frozen one.
type envelope struct {
	Cached bool            `json:"cached"`
	Data   json.RawMessage `json:"data"`
}

// GetResults handles GET /polls/:id/results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	instanceID := r.PathValue("id")
	if instanceID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	data, cached, err := h.builder.Results(r.Context(), instanceID)
	if err != nil {
		if errors.Is(err, results.ErrNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
			return
		}
		slog.Error("failed to build results", "error", err, "instanceId", instanceID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load results")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, envelope{Cached: cached, Data: data})
}
