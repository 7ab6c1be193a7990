// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dailypulse/pollengine/cache"
	"github.com/dailypulse/pollengine/metrics"
	"github.com/dailypulse/pollengine/models"
	"github.com/dailypulse/pollengine/store"
	"github.com/dailypulse/pollengine/tally"
)

// ErrNotFound reports a poll or template id that matches nothing.
var ErrNotFound = errors.New("poll not found")

const (
	resultsTTL = 10 * time.Second
	listingTTL = 60 * time.Second
	historyTTL = 60 * time.Second
)

// Builder computes result payloads and serves the read paths in front of
// them: live tallies for open polls, frozen snapshots for closed ones, and
// the cached listing and history views.
type Builder struct {
	store *store.Store
	cache cache.Cache
}

func NewBuilder(st *store.Store, c cache.Cache) *Builder {
	return &Builder{store: st, cache: c}
}

// Built is one computed payload plus the denormalized columns the snapshot
// row keeps alongside it.
type Built struct {
	JSON           []byte
	TotalVotes     *int
	TotalBallots   *int
	WinnerOptionID *string
}

// Snapshot shapes the payload into a fresh snapshot row for instanceID.
func (b Built) Snapshot(instanceID string) models.ResultSnapshot {
	return models.ResultSnapshot{
		ID:             uuid.NewString(),
		InstanceID:     instanceID,
		ResultsJSON:    b.JSON,
		TotalVotes:     b.TotalVotes,
		TotalBallots:   b.TotalBallots,
		WinnerOptionID: b.WinnerOptionID,
	}
}

// Build computes the full results payload for one instance.
func (b *Builder) Build(ctx context.Context, instanceID string) (Built, error) {
	inst, err := b.store.GetInstanceWithOptions(ctx, instanceID)
	if err != nil {
		return Built{}, err
	}
	if inst == nil {
		return Built{}, ErrNotFound
	}

	switch inst.PollType {
	case models.PollTypeSingle:
		counts, err := b.store.FirstChoiceCounts(ctx, inst.ID)
		if err != nil {
			return Built{}, err
		}
		return buildSingle(inst, counts)
	case models.PollTypeRanked:
		ballots, err := b.store.BallotRankings(ctx, inst.ID)
		if err != nil {
			return Built{}, err
		}
		return buildRanked(inst, ballots)
	}
	return Built{}, fmt.Errorf("instance %s has unknown poll type %q", inst.ID, inst.PollType)
}

// BuildTx computes the payload for an already-loaded instance on the
// caller's transaction. The close run uses it so the frozen tally reads the
// same ballot set the status flip commits against.
func (b *Builder) BuildTx(ctx context.Context, tx *sqlx.Tx, inst models.Instance) (Built, error) {
	options, err := b.store.InstanceOptionsTx(ctx, tx, inst.ID)
	if err != nil {
		return Built{}, err
	}
	inst.Options = options

	switch inst.PollType {
	case models.PollTypeSingle:
		counts, err := b.store.FirstChoiceCountsTx(ctx, tx, inst.ID)
		if err != nil {
			return Built{}, err
		}
		return buildSingle(&inst, counts)
	case models.PollTypeRanked:
		ballots, err := b.store.BallotRankingsTx(ctx, tx, inst.ID)
		if err != nil {
			return Built{}, err
		}
		return buildRanked(&inst, ballots)
	}
	return Built{}, fmt.Errorf("instance %s has unknown poll type %q", inst.ID, inst.PollType)
}

// Results serves one poll's payload: the frozen snapshot once the poll is
// CLOSED, a short-TTL cached live tally while it is OPEN. The bool reports
// whether the bytes were already rendered (snapshot or cache hit).
func (b *Builder) Results(ctx context.Context, instanceID string) ([]byte, bool, error) {
	inst, err := b.store.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, false, err
	}
	if inst == nil {
		return nil, false, ErrNotFound
	}

	if inst.Status == models.StatusClosed {
		snap, err := b.store.GetSnapshot(ctx, instanceID)
		if err != nil {
			return nil, false, err
		}
		if snap != nil {
			return snap.ResultsJSON, true, nil
		}

		// Closed poll with no snapshot: compute once and store it, so the
		// next read is a plain row fetch.
		built, err := b.Build(ctx, instanceID)
		if err != nil {
			return nil, false, err
		}
		if err := b.store.UpsertSnapshot(ctx, built.Snapshot(instanceID)); err != nil {
			return nil, false, err
		}
		metrics.SnapshotsWritten.Inc()
		return built.JSON, false, nil
	}

	key := cache.ResultsKey(instanceID)
	if data, ok := b.cache.GetBytes(ctx, key); ok {
		return data, true, nil
	}

	built, err := b.Build(ctx, instanceID)
	if err != nil {
		return nil, false, err
	}
	b.cache.SetBytes(ctx, key, built.JSON, resultsTTL)
	return built.JSON, false, nil
}

// PollsForDate renders the public daily listing: categories in display
// order, each with its PUBLIC instances for the date.
func (b *Builder) PollsForDate(ctx context.Context, date time.Time) ([]byte, bool, error) {
	day := date.Format(models.DateLayout)
	key := cache.DailyKey(day)
	if data, ok := b.cache.GetBytes(ctx, key); ok {
		return data, true, nil
	}

	categories, err := b.store.Categories(ctx)
	if err != nil {
		return nil, false, err
	}
	instances, err := b.store.InstancesForDate(ctx, date)
	if err != nil {
		return nil, false, err
	}

	byCategory := make(map[string][]models.PollCard)
	for _, inst := range instances {
		if inst.Audience != models.AudiencePublic {
			continue
		}
		byCategory[inst.CategoryID] = append(byCategory[inst.CategoryID], Card(inst))
	}

	listing := models.DailyPolls{Date: day, Categories: []models.CategoryPolls{}}
	for _, cat := range categories {
		cards := byCategory[cat.ID]
		if len(cards) == 0 {
			continue
		}
		listing.Categories = append(listing.Categories, models.CategoryPolls{
			CategoryID: cat.ID,
			Key:        cat.Key,
			Name:       cat.Name,
			Polls:      cards,
		})
	}

	data, err := json.Marshal(listing)
	if err != nil {
		return nil, false, fmt.Errorf("marshal daily listing: %w", err)
	}
	b.cache.SetBytes(ctx, key, data, listingTTL)
	return data, false, nil
}

// TemplateHistory renders one template's recent closed polls with their
// snapshot summaries, newest first. Closed instances that never got a
// snapshot are left out.
func (b *Builder) TemplateHistory(ctx context.Context, templateID string, limit int) ([]byte, bool, error) {
	key := cache.HistoryKey(templateID, limit)
	if data, ok := b.cache.GetBytes(ctx, key); ok {
		return data, true, nil
	}

	tpl, err := b.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, false, err
	}
	if tpl == nil {
		return nil, false, ErrNotFound
	}

	instances, err := b.store.ClosedInstancesByTemplate(ctx, templateID, limit)
	if err != nil {
		return nil, false, err
	}

	ids := make([]string, len(instances))
	for i, inst := range instances {
		ids[i] = inst.ID
	}
	snaps, err := b.store.SnapshotsForInstances(ctx, ids)
	if err != nil {
		return nil, false, err
	}

	var winnerIDs []string
	for _, snap := range snaps {
		if snap.WinnerOptionID != nil {
			winnerIDs = append(winnerIDs, *snap.WinnerOptionID)
		}
	}
	labels, err := b.store.OptionLabels(ctx, winnerIDs)
	if err != nil {
		return nil, false, err
	}

	history := models.TemplateHistory{
		TemplateID: templateID,
		Title:      tpl.Title,
		Entries:    []models.HistoryEntry{},
	}
	for _, inst := range instances {
		snap, ok := snaps[inst.ID]
		if !ok {
			continue
		}
		entry := models.HistoryEntry{
			PollID:         inst.ID,
			PollDate:       inst.PollDate.Format(models.DateLayout),
			TotalVotes:     snap.TotalVotes,
			TotalBallots:   snap.TotalBallots,
			WinnerOptionID: snap.WinnerOptionID,
		}
		if snap.WinnerOptionID != nil {
			if label, ok := labels[*snap.WinnerOptionID]; ok {
				entry.WinnerLabel = &label
			}
		}
		history.Entries = append(history.Entries, entry)
	}

	data, err := json.Marshal(history)
	if err != nil {
		return nil, false, fmt.Errorf("marshal template history: %w", err)
	}
	b.cache.SetBytes(ctx, key, data, historyTTL)
	return data, false, nil
}

func buildSingle(inst *models.Instance, counts map[string]int) (Built, error) {
	infos := optionInfos(inst.Options)
	list, totalVotes := tally.SingleChoice(counts, infos)

	payload := models.SingleResults{
		ResultsBase:    payloadBase(inst, infos),
		TotalVotes:     totalVotes,
		WinnerOptionID: singleWinner(list, totalVotes),
		Results:        list,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Built{}, fmt.Errorf("marshal single results: %w", err)
	}
	return Built{JSON: data, TotalVotes: &totalVotes, WinnerOptionID: payload.WinnerOptionID}, nil
}

// singleWinner is the plurality leader, or nil when there are no votes or
// the lead is shared.
func singleWinner(list []models.OptionCount, totalVotes int) *string {
	if totalVotes == 0 || len(list) == 0 {
		return nil
	}
	if len(list) > 1 && list[1].Count == list[0].Count {
		return nil
	}
	return &list[0].OptionID
}

func buildRanked(inst *models.Instance, ballots [][]string) (Built, error) {
	infos := optionInfos(inst.Options)
	ids := make([]string, len(infos))
	for i, opt := range infos {
		ids[i] = opt.OptionID
	}

	outcome := tally.InstantRunoff(ballots, ids)

	payload := models.RankedResults{
		ResultsBase:    payloadBase(inst, infos),
		TotalBallots:   outcome.TotalBallots,
		WinnerOptionID: outcome.WinnerOptionID,
		Rounds:         outcome.Rounds,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Built{}, fmt.Errorf("marshal ranked results: %w", err)
	}
	return Built{JSON: data, TotalBallots: &outcome.TotalBallots, WinnerOptionID: outcome.WinnerOptionID}, nil
}

// payloadBase stamps the instance as it stands when the tally runs; a
// snapshot written while the poll was still open keeps that status.
func payloadBase(inst *models.Instance, options []models.OptionInfo) models.ResultsBase {
	return models.ResultsBase{
		PollID:   inst.ID,
		PollDate: inst.PollDate.Format(models.DateLayout),
		Title:    inst.Title,
		Question: inst.Question,
		PollType: inst.PollType,
		MaxRank:  inst.MaxRank,
		Audience: inst.Audience,
		Status:   inst.Status,
		Options:  options,
	}
}

func optionInfos(options []models.InstanceOption) []models.OptionInfo {
	infos := make([]models.OptionInfo, len(options))
	for i, opt := range options {
		infos[i] = models.OptionInfo{OptionID: opt.ID, Label: opt.Label, SortOrder: opt.SortOrder}
	}
	return infos
}

// Card maps an instance to its tally-free listing view.
func Card(inst models.Instance) models.PollCard {
	return models.PollCard{
		PollID:    inst.ID,
		PollDate:  inst.PollDate.Format(models.DateLayout),
		CloseDate: inst.CloseDate.Format(models.DateLayout),
		Title:     inst.Title,
		Question:  inst.Question,
		PollType:  inst.PollType,
		MaxRank:   inst.MaxRank,
		Audience:  inst.Audience,
		Status:    inst.Status,
		Options:   optionInfos(inst.Options),
	}
}
