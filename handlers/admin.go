// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dailypulse/pollengine/auth"
	"github.com/dailypulse/pollengine/closer"
	"github.com/dailypulse/pollengine/config"
	"github.com/dailypulse/pollengine/middleware"
	"github.com/dailypulse/pollengine/models"
	"github.com/dailypulse/pollengine/results"
	"github.com/dailypulse/pollengine/rollover"
	"github.com/dailypulse/pollengine/store"
)

// AdminKeyHeader carries the operator key on admin requests.
const AdminKeyHeader = "X-Admin-Key"

// AdminHandler exposes the operational endpoints: run rollover, run the
// close job, force snapshots, replace a day's instance, and audit closed
// instances that are missing snapshots.
type AdminHandler struct {
	store    *store.Store
	rollover *rollover.Engine
	closer   *closer.Engine
	cfg      config.Config
}

func NewAdminHandler(st *store.Store, ro *rollover.Engine, cl *closer.Engine, cfg config.Config) *AdminHandler {
	return &AdminHandler{store: st, rollover: ro, closer: cl, cfg: cfg}
}

// RequireKey gates a route on a valid X-Admin-Key header.
func (h *AdminHandler) RequireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := auth.ValidateAdminKey(h.cfg.TokenSecret, r.Header.Get(AdminKeyHeader)); err != nil {
			middleware.ErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	}
}

// Rollover handles POST /admin/rollover. The body is optional; without a
// date it materializes instances for the service's current day.
func (h *AdminHandler) Rollover(w http.ResponseWriter, r *http.Request) {
	var req models.RolloverRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	date, err := h.dateOrToday(req.Date)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	created, err := h.rollover.EnsureInstancesForDate(r.Context(), date)
	if err != nil {
		slog.Error("rollover run failed", "error", err, "date", date.Format(models.DateLayout))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Rollover failed")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.RolloverResponse{
		Date:    date.Format(models.DateLayout),
		Created: created,
	})
}

// Close handles POST /admin/close. Closes and snapshots instances due on
// the date, and with sweep set also catches anything overdue before it.
func (h *AdminHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req models.CloseRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	date, err := h.dateOrToday(req.Date)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	out, err := h.closer.CloseAndSnapshotForDate(r.Context(), date)
	if err != nil {
		slog.Error("close run failed", "error", err, "date", date.Format(models.DateLayout))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Close run failed")
		return
	}

	if req.Sweep {
		swept, err := h.closer.CloseAndSnapshotBeforeDate(r.Context(), date)
		if err != nil {
			slog.Error("close sweep failed", "error", err, "cutoff", date.Format(models.DateLayout))
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Close run failed")
			return
		}
		out.Snapshots += swept.Snapshots
		out.Closed += swept.Closed
	}

	middleware.JSONResponse(w, http.StatusOK, models.CloseResponse{
		Date:      date.Format(models.DateLayout),
		Snapshots: out.Snapshots,
		Closed:    out.Closed,
	})
}

// Snapshot handles POST /admin/instances/:id/snapshot, recomputing and
// writing the instance's snapshot whatever its status.
func (h *AdminHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	instanceID := r.PathValue("id")
	if instanceID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	written, err := h.closer.UpsertResultSnapshot(r.Context(), instanceID)
	if err != nil {
		slog.Error("snapshot refresh failed", "error", err, "instanceId", instanceID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to write snapshot")
		return
	}
	if !written {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SnapshotResponse{PollID: instanceID, Written: true})
}

// ReplaceInstance handles POST /admin/templates/:id/replace, dropping the
// template's instances on the date and materializing a fresh one. Any
// ballots on the dropped instances are lost with them.
func (h *AdminHandler) ReplaceInstance(w http.ResponseWriter, r *http.Request) {
	templateID := r.PathValue("id")
	if templateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "template id is required")
		return
	}

	var req models.ReplaceInstanceRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	date, err := h.dateOrToday(req.Date)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	removed, inst, err := h.rollover.ReplaceInstance(r.Context(), templateID, date)
	if err != nil {
		switch {
		case errors.Is(err, rollover.ErrTemplateNotFound):
			middleware.ErrorResponse(w, http.StatusNotFound, "Template not found")
		case errors.Is(err, rollover.ErrTemplateDisabled):
			middleware.ErrorResponse(w, http.StatusConflict, "Template is disabled for this date")
		default:
			slog.Error("instance replace failed", "error", err, "templateId", templateID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to replace instance")
		}
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ReplaceInstanceResponse{
		Removed:  removed,
		Instance: *inst,
	})
}

// MissingSnapshots handles GET /admin/snapshots/missing, listing CLOSED
// instances that never got a snapshot so an operator can repair them.
func (h *AdminHandler) MissingSnapshots(w http.ResponseWriter, r *http.Request) {
	instances, err := h.store.InstancesMissingSnapshots(r.Context())
	if err != nil {
		slog.Error("missing snapshot audit failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load snapshot report")
		return
	}

	polls := make([]models.PollCard, len(instances))
	for i, inst := range instances {
		polls[i] = results.Card(inst)
	}

	middleware.JSONResponse(w, http.StatusOK, models.MissingSnapshotsResponse{
		Count: len(polls),
		Polls: polls,
	})
}

func (h *AdminHandler) dateOrToday(raw string) (time.Time, error) {
	if raw == "" {
		return h.cfg.Today(), nil
	}
	return time.Parse(models.DateLayout, raw)
}
