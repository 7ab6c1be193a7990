// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dailypulse/pollengine/cache"
	"github.com/dailypulse/pollengine/metrics"
	"github.com/dailypulse/pollengine/models"
	"github.com/dailypulse/pollengine/store"
)

// Admission failures. Handlers map these onto HTTP statuses; anything else
// coming out of Submit is a server fault.
var (
	ErrBotCheckFailed   = errors.New("bot check failed")
	ErrRateLimited      = errors.New("rate limited")
	ErrAlreadyVoted     = errors.New("already voted")
	ErrDuplicateNetwork = errors.New("already voted from this network")
	ErrNotFound         = errors.New("poll not found")
	ErrPollClosed       = errors.New("poll closed")
	ErrInvalidOption    = errors.New("invalid option")
	ErrChoiceCount      = errors.New("wrong number of choices")
	ErrMisconfigured    = errors.New("poll options misconfigured")
)

const (
	// Retries carrying the same client key collapse into the first
	// submission for this long.
	idempotencyTTL = 60 * time.Second

	// Already-voted markers outlive any poll still accepting votes.
	votedTTL = 24 * time.Hour
)

// BotVerifier is the bot check seam; satisfied by turnstile.Verifier.
type BotVerifier interface {
	Enabled() bool
	Verify(ctx context.Context, token, remoteIP string) bool
}

// Pipeline admits votes through a fixed sequence of checks, cheapest first.
// The cache carries the fast paths; the ballot unique constraint is the
// final duplicate arbiter when the cache is cold or down.
type Pipeline struct {
	store    *store.Store
	cache    cache.Cache
	verifier BotVerifier
	limit    int
	window   time.Duration
}

func New(st *store.Store, c cache.Cache, verifier BotVerifier, limit int, window time.Duration) *Pipeline {
	return &Pipeline{store: st, cache: c, verifier: verifier, limit: limit, window: window}
}

// SubmitRequest is one vote after the HTTP layer has resolved identity.
// Hashes arrive pre-computed; raw tokens, IPs, and user agents never reach
// the pipeline.
type SubmitRequest struct {
	InstanceID     string
	RankedChoices  []string
	VoterHash      string
	IPHash         string
	UserAgentHash  *string
	CountryCode    *string
	RegionCode     *string
	IdempotencyKey string
	TurnstileToken string
	RemoteIP       string
	Survey         models.Survey
}

// SubmitResult reports an accepted submission. Deduped marks an idempotent
// replay that was not reprocessed.
type SubmitResult struct {
	Ok      bool
	Deduped bool
}

func reject(outcome string, err error) (*SubmitResult, error) {
	metrics.VotesTotal.WithLabelValues(outcome).Inc()
	return nil, err
}

// Submit runs one vote through the admission pipeline.
func (p *Pipeline) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	// A configured verifier with no token is an automatic rejection; only
	// verifier trouble fails open, and that happens inside Verify
	if p.verifier != nil && p.verifier.Enabled() {
		if req.TurnstileToken == "" {
			return reject("bot_rejected", ErrBotCheckFailed)
		}
		if !p.verifier.Verify(ctx, req.TurnstileToken, req.RemoteIP) {
			return reject("bot_rejected", ErrBotCheckFailed)
		}
	}

	// One network origin gets a fixed vote budget per window
	idx := cache.WindowIndex(time.Now(), p.window)
	if !p.cache.Allow(ctx, cache.RateKey(req.InstanceID, req.IPHash, idx), p.limit, p.window) {
		return reject("rate_limited", ErrRateLimited)
	}

	if req.IdempotencyKey != "" {
		key := cache.IdemKey(req.InstanceID, req.VoterHash, req.IdempotencyKey)
		if !p.cache.ClaimIdempotent(ctx, key, idempotencyTTL) {
			metrics.VotesTotal.WithLabelValues("deduped").Inc()
			return &SubmitResult{Ok: true, Deduped: true}, nil
		}
	}

	// Fast-path duplicate checks, voter scope then network scope
	if p.cache.HasVoted(ctx, cache.VotedKey(req.InstanceID, req.VoterHash)) {
		return reject("duplicate", ErrAlreadyVoted)
	}
	if p.cache.HasVoted(ctx, cache.VotedIPKey(req.InstanceID, req.IPHash)) {
		return reject("duplicate", ErrDuplicateNetwork)
	}

	inst, err := p.store.GetInstanceWithOptions(ctx, req.InstanceID)
	if err != nil {
		return reject("error", fmt.Errorf("load instance: %w", err))
	}
	if inst == nil {
		return reject("not_found", ErrNotFound)
	}
	if inst.Status != models.StatusOpen {
		return reject("closed", ErrPollClosed)
	}
	if len(inst.Options) < 2 {
		return reject("error", ErrMisconfigured)
	}

	if err := validateChoices(*inst, req.RankedChoices); err != nil {
		if errors.Is(err, ErrMisconfigured) {
			return reject("error", err)
		}
		return reject("invalid", err)
	}

	ballot := buildBallot(req)
	if err := p.store.InsertBallotWithRankings(ctx, ballot, buildRankings(ballot.ID, req.RankedChoices)); err != nil {
		if errors.Is(err, store.ErrDuplicateBallot) {
			return reject("duplicate", ErrAlreadyVoted)
		}
		return reject("error", fmt.Errorf("persist ballot: %w", err))
	}

	// Post-commit bookkeeping is best-effort: the markers speed up the next
	// duplicate check, and dropping the cached payload lets the new vote
	// show up on the next read instead of after a TTL
	p.cache.MarkVoted(ctx, cache.VotedKey(req.InstanceID, req.VoterHash), votedTTL)
	p.cache.MarkVoted(ctx, cache.VotedIPKey(req.InstanceID, req.IPHash), votedTTL)
	p.cache.Delete(ctx, cache.ResultsKey(req.InstanceID))

	metrics.VotesTotal.WithLabelValues("accepted").Inc()
	return &SubmitResult{Ok: true}, nil
}

// validateChoices enforces the ballot shape for the poll kind against the
// instance's own option set.
func validateChoices(inst models.Instance, choices []string) error {
	if len(choices) == 0 {
		return ErrChoiceCount
	}

	valid := make(map[string]bool, len(inst.Options))
	for _, opt := range inst.Options {
		valid[opt.ID] = true
	}

	seen := make(map[string]bool, len(choices))
	for _, id := range choices {
		if seen[id] || !valid[id] {
			return ErrInvalidOption
		}
		seen[id] = true
	}

	switch inst.PollType {
	case models.PollTypeSingle:
		if len(choices) != 1 {
			return ErrChoiceCount
		}
	case models.PollTypeRanked:
		if len(choices) < 2 {
			return ErrChoiceCount
		}
		if inst.MaxRank != nil && len(choices) > *inst.MaxRank {
			return ErrChoiceCount
		}
	default:
		return ErrMisconfigured
	}

	return nil
}

// buildBallot denormalizes the top choice onto the ballot row; single-choice
// tallies read it directly.
func buildBallot(req SubmitRequest) models.Ballot {
	first := req.RankedChoices[0]
	return models.Ballot{
		ID:                  uuid.NewString(),
		InstanceID:          req.InstanceID,
		VoterTokenHash:      req.VoterHash,
		IPHash:              req.IPHash,
		UserAgentHash:       req.UserAgentHash,
		CountryCode:         req.CountryCode,
		RegionCode:          req.RegionCode,
		FirstChoiceOptionID: &first,
		Survey:              req.Survey,
	}
}

func buildRankings(ballotID string, choices []string) []models.Ranking {
	rankings := make([]models.Ranking, len(choices))
	for i, optionID := range choices {
		rankings[i] = models.Ranking{
			ID:       uuid.NewString(),
			BallotID: ballotID,
			Rank:     i + 1,
			OptionID: optionID,
		}
	}
	return rankings
}
