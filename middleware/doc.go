// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (duration_ms).

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse JSON request bodies:

	var req models.CloseRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client Identity Headers

Get the original client IP (handles CF-Connecting-IP, X-Forwarded-For,
X-Real-IP):

	ip := middleware.GetClientIP(r)

Used for IP hashing in vote admission. ClientCountry and ClientRegion read
the coarse geolocation the edge proxy attaches (CF-IPCountry, CF-Region);
both return nil when the headers are absent so ballots store NULL rather
than empty strings.
*/
package middleware
