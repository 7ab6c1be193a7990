// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dailypulse/pollengine/cache"
	"github.com/dailypulse/pollengine/middleware"
	"github.com/dailypulse/pollengine/models"
	"github.com/dailypulse/pollengine/store"
)

type HealthHandler struct {
	store *store.Store
	cache cache.Cache
}

func NewHealthHandler(st *store.Store, c cache.Cache) *HealthHandler {
	return &HealthHandler{store: st, cache: c}
}

// Live handles GET /health. Always healthy while the process serves.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.HealthResponse{Ok: true, Status: "healthy"})
}

// Ready handles GET /readyz, probing the database and cache. A dead
// database means 503; a dead cache only degrades the report, since every
// cache path falls back to the store.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := models.ReadyResponse{
		Ok:         true,
		Status:     "healthy",
		Components: map[string]string{"database": "healthy", "redis": "healthy"},
	}
	status := http.StatusOK

	if err := h.store.Ping(r.Context()); err != nil {
		slog.Error("readiness database check failed", "error", err)
		resp.Ok = false
		resp.Status = "degraded"
		resp.Components["database"] = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	if err := h.cache.Ping(r.Context()); err != nil {
		slog.Error("readiness cache check failed", "error", err)
		resp.Ok = false
		resp.Status = "degraded"
		resp.Components["redis"] = "unhealthy"
	}

	middleware.JSONResponse(w, status, resp)
}
