// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dailypulse/pollengine/config"
	"github.com/dailypulse/pollengine/middleware"
	"github.com/dailypulse/pollengine/models"
	"github.com/dailypulse/pollengine/results"
)

const (
	historyDefaultLimit = 10
	historyMaxLimit     = 50
)

type PollsHandler struct {
	builder *results.Builder
	cfg     config.Config
}

func NewPollsHandler(builder *results.Builder, cfg config.Config) *PollsHandler {
	return &PollsHandler{builder: builder, cfg: cfg}
}

// GetToday handles GET /polls/today
func (h *PollsHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	h.writeListing(w, r, h.cfg.Today())
}

// GetByDate handles GET /polls/:date
func (h *PollsHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(models.DateLayout, r.PathValue("date"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	h.writeListing(w, r, date)
}

func (h *PollsHandler) writeListing(w http.ResponseWriter, r *http.Request, date time.Time) {
	data, cached, err := h.builder.PollsForDate(r.Context(), date)
	if err != nil {
		slog.Error("failed to build poll listing", "error", err, "date", date.Format(models.DateLayout))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load polls")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, envelope{Cached: cached, Data: data})
}

// TemplateHistory handles GET /templates/:id/history
func (h *PollsHandler) TemplateHistory(w http.ResponseWriter, r *http.Request) {
	templateID := r.PathValue("id")
	if templateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "template id is required")
		return
	}

	limit := historyDefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = n
	}
	if limit < 1 {
		limit = 1
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}

	data, cached, err := h.builder.TemplateHistory(r.Context(), templateID, limit)
	if err != nil {
		if errors.Is(err, results.ErrNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Template not found")
			return
		}
		slog.Error("failed to build template history", "error", err, "templateId", templateID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, envelope{Cached: cached, Data: data})
}
