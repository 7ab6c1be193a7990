// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dailypulse/pollengine/models"
)

// Categories returns every category in display order.
func (s *Store) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.SelectContext(ctx, &categories, `
		SELECT id, key, name, sort_order
		FROM poll_category
		ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	return categories, nil
}

// ActiveTemplates returns every active template with its default options in
// sort order.
func (s *Store) ActiveTemplates(ctx context.Context) ([]models.Template, error) {
	var templates []models.Template
	err := s.db.SelectContext(ctx, &templates, `
		SELECT id, category_id, key, title, question, poll_type, max_rank,
		       audience, is_active, duration_days
		FROM poll_template
		WHERE is_active
		ORDER BY category_id, key`)
	if err != nil {
		return nil, fmt.Errorf("select active templates: %w", err)
	}
	if len(templates) == 0 {
		return templates, nil
	}

	ids := make([]string, len(templates))
	byID := make(map[string]*models.Template, len(templates))
	for i := range templates {
		ids[i] = templates[i].ID
		byID[templates[i].ID] = &templates[i]
	}

	options, err := s.templateOptions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, opt := range options {
		tpl := byID[opt.TemplateID]
		tpl.Options = append(tpl.Options, opt)
	}

	return templates, nil
}

// GetTemplate returns one template with its default options, or nil when it
// does not exist.
func (s *Store) GetTemplate(ctx context.Context, templateID string) (*models.Template, error) {
	var tpl models.Template
	err := s.db.GetContext(ctx, &tpl, `
		SELECT id, category_id, key, title, question, poll_type, max_rank,
		       audience, is_active, duration_days
		FROM poll_template
		WHERE id = $1`, templateID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("select template: %w", err)
	}

	options, err := s.templateOptions(ctx, []string{tpl.ID})
	if err != nil {
		return nil, err
	}
	tpl.Options = options

	return &tpl, nil
}

func (s *Store) templateOptions(ctx context.Context, templateIDs []string) ([]models.TemplateOption, error) {
	query, args, err := sqlx.In(`
		SELECT id, template_id, label, sort_order
		FROM template_option
		WHERE template_id IN (?)
		ORDER BY template_id, sort_order`, templateIDs)
	if err != nil {
		return nil, fmt.Errorf("build template options query: %w", err)
	}

	var options []models.TemplateOption
	if err := s.db.SelectContext(ctx, &options, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select template options: %w", err)
	}
	return options, nil
}

// PlansForDate returns the plans matching (template set, date), keyed by
// template id, each with its override options in sort order.
func (s *Store) PlansForDate(ctx context.Context, templateIDs []string, date time.Time) (map[string]models.Plan, error) {
	plans := make(map[string]models.Plan)
	if len(templateIDs) == 0 {
		return plans, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, template_id, plan_date, enabled, question_override
		FROM poll_plan
		WHERE template_id IN (?) AND plan_date = ?`,
		templateIDs, date.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("build plans query: %w", err)
	}

	var rows []models.Plan
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select plans: %w", err)
	}
	if len(rows) == 0 {
		return plans, nil
	}

	planIDs := make([]string, len(rows))
	byID := make(map[string]*models.Plan, len(rows))
	for i := range rows {
		planIDs[i] = rows[i].ID
		byID[rows[i].ID] = &rows[i]
	}

	query, args, err = sqlx.In(`
		SELECT id, plan_id, label, sort_order
		FROM plan_option
		WHERE plan_id IN (?)
		ORDER BY plan_id, sort_order`, planIDs)
	if err != nil {
		return nil, fmt.Errorf("build plan options query: %w", err)
	}

	var options []models.PlanOption
	if err := s.db.SelectContext(ctx, &options, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select plan options: %w", err)
	}
	for _, opt := range options {
		plan := byID[opt.PlanID]
		plan.Options = append(plan.Options, opt)
	}

	for _, plan := range byID {
		plans[plan.TemplateID] = *plan
	}

	return plans, nil
}
