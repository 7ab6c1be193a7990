// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rollover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dailypulse/pollengine/metrics"
	"github.com/dailypulse/pollengine/models"
	"github.com/dailypulse/pollengine/store"
)

// ErrTemplateNotFound reports a replace against an unknown template id.
var ErrTemplateNotFound = errors.New("template not found")

// ErrTemplateDisabled reports a replace that nothing would materialize:
// the template is inactive, or its plan disables the date.
var ErrTemplateDisabled = errors.New("template disabled for date")

// Engine materializes the day's poll instances from templates and plans.
type Engine struct {
	store *store.Store
}

func New(st *store.Store) *Engine {
	return &Engine{store: st}
}

// EnsureInstancesForDate creates one instance per active template for the
// given date and returns how many it created. Idempotent: templates that
// already have an instance on the date are skipped, so a partial failure is
// repaired by running again.
func (e *Engine) EnsureInstancesForDate(ctx context.Context, date time.Time) (int, error) {
	templates, err := e.store.ActiveTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("load active templates: %w", err)
	}
	if len(templates) == 0 {
		return 0, nil
	}

	templateIDs := make([]string, len(templates))
	for i, tmpl := range templates {
		templateIDs[i] = tmpl.ID
	}

	existing, err := e.store.TemplatesWithInstanceOnDate(ctx, templateIDs, date)
	if err != nil {
		return 0, fmt.Errorf("load existing instances: %w", err)
	}
	plans, err := e.store.PlansForDate(ctx, templateIDs, date)
	if err != nil {
		return 0, fmt.Errorf("load plans: %w", err)
	}

	day := date.Format(models.DateLayout)
	created := 0
	for _, tmpl := range templates {
		if existing[tmpl.ID] {
			continue
		}

		plan, planned := plans[tmpl.ID]
		if planned && !plan.Enabled {
			slog.Info("rollover skipping disabled plan", "templateId", tmpl.ID, "date", day)
			continue
		}

		inst := buildInstance(tmpl, plan, planned, date)
		if err := e.store.CreateInstance(ctx, inst); err != nil {
			return created, fmt.Errorf("create instance for template %s: %w", tmpl.ID, err)
		}
		metrics.InstancesCreated.Inc()
		slog.Info("instance created",
			"instanceId", inst.ID,
			"templateId", tmpl.ID,
			"pollDate", day,
			"closeDate", inst.CloseDate.Format(models.DateLayout),
			"options", len(inst.Options))
		created++
	}

	return created, nil
}

// ReplaceInstance drops a template's instances on the date and materializes
// a fresh one from the template and plan as they stand now. Ballots on the
// removed instances go with them, so this is for repairing a bad rollout
// before votes matter, not for editing a live poll. Delete and insert share
// one transaction. Returns how many instances were removed along with the
// replacement.
func (e *Engine) ReplaceInstance(ctx context.Context, templateID string, date time.Time) (int, *models.Instance, error) {
	tmpl, err := e.store.GetTemplate(ctx, templateID)
	if err != nil {
		return 0, nil, fmt.Errorf("load template: %w", err)
	}
	if tmpl == nil {
		return 0, nil, ErrTemplateNotFound
	}
	if !tmpl.IsActive {
		return 0, nil, ErrTemplateDisabled
	}

	plans, err := e.store.PlansForDate(ctx, []string{templateID}, date)
	if err != nil {
		return 0, nil, fmt.Errorf("load plan: %w", err)
	}
	plan, planned := plans[templateID]
	if planned && !plan.Enabled {
		return 0, nil, ErrTemplateDisabled
	}

	inst := buildInstance(*tmpl, plan, planned, date)

	removed := 0
	err = e.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		n, err := e.store.DeleteInstancesForTemplateDate(ctx, tx, templateID, date)
		if err != nil {
			return err
		}
		removed = n
		return e.store.CreateInstanceTx(ctx, tx, inst)
	})
	if err != nil {
		return 0, nil, fmt.Errorf("replace instance for template %s: %w", templateID, err)
	}

	metrics.InstancesCreated.Inc()
	slog.Info("instance replaced",
		"instanceId", inst.ID,
		"templateId", templateID,
		"pollDate", date.Format(models.DateLayout),
		"removed", removed)
	return removed, &inst, nil
}

// buildInstance resolves the question and option set from the template and
// its plan, freezing copies onto a new instance. Instance options get fresh
// ids; ballots reference these, never the template's.
func buildInstance(tmpl models.Template, plan models.Plan, planned bool, date time.Time) models.Instance {
	question := tmpl.Question
	if planned && plan.QuestionOverride != nil && *plan.QuestionOverride != "" {
		question = plan.QuestionOverride
	}

	instanceID := uuid.NewString()
	inst := models.Instance{
		ID:         instanceID,
		TemplateID: tmpl.ID,
		CategoryID: tmpl.CategoryID,
		PollDate:   date,
		CloseDate:  date.AddDate(0, 0, durationDays(tmpl)),
		Title:      tmpl.Title,
		Question:   question,
		PollType:   tmpl.PollType,
		MaxRank:    tmpl.MaxRank,
		Audience:   tmpl.Audience,
		Status:     models.StatusOpen,
	}

	if planned && len(plan.Options) > 0 {
		opts := append([]models.PlanOption(nil), plan.Options...)
		sort.SliceStable(opts, func(i, j int) bool { return opts[i].SortOrder < opts[j].SortOrder })
		for _, o := range opts {
			inst.Options = append(inst.Options, models.InstanceOption{
				ID:         uuid.NewString(),
				InstanceID: instanceID,
				Label:      o.Label,
				SortOrder:  o.SortOrder,
			})
		}
		return inst
	}

	opts := append([]models.TemplateOption(nil), tmpl.Options...)
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].SortOrder < opts[j].SortOrder })
	for _, o := range opts {
		inst.Options = append(inst.Options, models.InstanceOption{
			ID:         uuid.NewString(),
			InstanceID: instanceID,
			Label:      o.Label,
			SortOrder:  o.SortOrder,
		})
	}
	return inst
}

// durationDays never lets a bad row produce an instance that closes before
// it opens.
func durationDays(tmpl models.Template) int {
	if tmpl.DurationDays < 1 {
		return 1
	}
	return tmpl.DurationDays
}
