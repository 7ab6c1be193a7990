// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dailypulse/pollengine/auth"
	"github.com/dailypulse/pollengine/config"
	"github.com/dailypulse/pollengine/middleware"
	"github.com/dailypulse/pollengine/models"
	"github.com/dailypulse/pollengine/voting"
)

// VoterCookie carries the signed identity token across visits.
const VoterCookie = "vt"

const voterCookieMaxAge = 365 * 24 * time.Hour

type VotingHandler struct {
	pipeline *voting.Pipeline
	cfg      config.Config
}

func NewVotingHandler(pipeline *voting.Pipeline, cfg config.Config) *VotingHandler {
	return &VotingHandler{pipeline: pipeline, cfg: cfg}
}

// SubmitVote handles POST /polls/:id/vote
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	instanceID := r.PathValue("id")
	if instanceID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	voterHash, err := h.resolveVoter(w, r)
	if err != nil {
		slog.Error("failed to establish voter identity", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Unable to establish voter identity")
		return
	}

	clientIP := middleware.GetClientIP(r)

	var uaHash *string
	if ua := r.UserAgent(); ua != "" {
		hashed := auth.HashString(ua)
		uaHash = &hashed
	}

	res, err := h.pipeline.Submit(r.Context(), voting.SubmitRequest{
		InstanceID:     instanceID,
		RankedChoices:  req.RankedChoices,
		VoterHash:      voterHash,
		IPHash:         auth.HashString(clientIP),
		UserAgentHash:  uaHash,
		CountryCode:    middleware.ClientCountry(r),
		RegionCode:     middleware.ClientRegion(r),
		IdempotencyKey: req.IdempotencyKey,
		TurnstileToken: req.TurnstileToken,
		RemoteIP:       clientIP,
		Survey:         req.Survey,
	})
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SubmitVoteResponse{
		Ok:      res.Ok,
		Deduped: res.Deduped,
	})
}

// resolveVoter returns the voter hash for this request. A valid cookie keeps
// its identity; anything else gets a fresh token set on the response. Only
// the hash of the embedded random value is ever persisted, so a database
// leak cannot impersonate voters.
func (h *VotingHandler) resolveVoter(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(VoterCookie); err == nil {
		if raw, err := auth.VerifyVoterToken(h.cfg.TokenSecret, c.Value); err == nil {
			return auth.HashString(raw), nil
		}
	}

	token, err := auth.MintVoterToken(h.cfg.TokenSecret)
	if err != nil {
		return "", err
	}
	raw, err := auth.VerifyVoterToken(h.cfg.TokenSecret, token)
	if err != nil {
		return "", err
	}

	cookie := &http.Cookie{
		Name:     VoterCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(voterCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if h.cfg.CookieDomain != "" {
		cookie.Domain = h.cfg.CookieDomain
	}
	http.SetCookie(w, cookie)

	return auth.HashString(raw), nil
}

// writeSubmitError maps pipeline rejections onto HTTP statuses. Anything
// not a sentinel is a server fault and stays vague toward the client.
func writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, voting.ErrBotCheckFailed):
		middleware.ErrorResponse(w, http.StatusForbidden, "Bot verification failed")
	case errors.Is(err, voting.ErrRateLimited):
		middleware.ErrorResponse(w, http.StatusTooManyRequests, "Too many attempts")
	case errors.Is(err, voting.ErrAlreadyVoted):
		middleware.ErrorResponse(w, http.StatusConflict, "Already voted")
	case errors.Is(err, voting.ErrDuplicateNetwork):
		middleware.ErrorResponse(w, http.StatusConflict, "Already voted from this network")
	case errors.Is(err, voting.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
	case errors.Is(err, voting.ErrPollClosed):
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is closed")
	case errors.Is(err, voting.ErrInvalidOption):
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, "Invalid option for this poll")
	case errors.Is(err, voting.ErrChoiceCount):
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, "Wrong number of choices for this poll")
	case errors.Is(err, voting.ErrMisconfigured):
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Poll options misconfigured")
	default:
		slog.Error("vote submission failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit vote")
	}
}
