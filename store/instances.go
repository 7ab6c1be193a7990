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

const instanceColumns = `id, template_id, category_id, poll_date, close_date,
	title, question, poll_type, max_rank, audience, status`

// TemplatesWithInstanceOnDate returns the set of template ids that already
// have an instance for the given date. Rollover skips these, which is what
// keeps it idempotent now that (template_id, poll_date) is no longer unique.
func (s *Store) TemplatesWithInstanceOnDate(ctx context.Context, templateIDs []string, date time.Time) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(templateIDs) == 0 {
		return existing, nil
	}

	query, args, err := sqlx.In(`
		SELECT DISTINCT template_id
		FROM poll_instance
		WHERE template_id IN (?) AND poll_date = ?`,
		templateIDs, date.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("build existing instances query: %w", err)
	}

	var ids []string
	if err := s.db.SelectContext(ctx, &ids, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select existing instances: %w", err)
	}
	for _, id := range ids {
		existing[id] = true
	}

	return existing, nil
}

// CreateInstance inserts the instance and its copied options in one
// transaction.
func (s *Store) CreateInstance(ctx context.Context, inst models.Instance) error {
	return s.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.CreateInstanceTx(ctx, tx, inst)
	})
}

// CreateInstanceTx is CreateInstance inside a caller-owned transaction, for
// flows that pair the insert with other writes.
func (s *Store) CreateInstanceTx(ctx context.Context, tx *sqlx.Tx, inst models.Instance) error {
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO poll_instance (id, template_id, category_id, poll_date, close_date,
		                           title, question, poll_type, max_rank, audience, status)
		VALUES (:id, :template_id, :category_id, :poll_date, :close_date,
		        :title, :question, :poll_type, :max_rank, :audience, :status)`,
		inst); err != nil {
		return fmt.Errorf("insert instance: %w", err)
	}

	for _, opt := range inst.Options {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO instance_option (id, instance_id, label, sort_order)
			VALUES (:id, :instance_id, :label, :sort_order)`,
			opt); err != nil {
			return fmt.Errorf("insert instance option: %w", err)
		}
	}

	return nil
}

// GetInstance returns one instance without options, or nil when absent.
func (s *Store) GetInstance(ctx context.Context, instanceID string) (*models.Instance, error) {
	var inst models.Instance
	err := s.db.GetContext(ctx, &inst,
		`SELECT `+instanceColumns+` FROM poll_instance WHERE id = $1`, instanceID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("select instance: %w", err)
	}
	return &inst, nil
}

// GetInstanceWithOptions returns one instance with its options in sort
// order, or nil when absent.
func (s *Store) GetInstanceWithOptions(ctx context.Context, instanceID string) (*models.Instance, error) {
	inst, err := s.GetInstance(ctx, instanceID)
	if err != nil || inst == nil {
		return inst, err
	}

	options, err := s.InstanceOptions(ctx, inst.ID)
	if err != nil {
		return nil, err
	}
	inst.Options = options

	return inst, nil
}

// InstanceOptions returns the instance's options in sort order.
func (s *Store) InstanceOptions(ctx context.Context, instanceID string) ([]models.InstanceOption, error) {
	return instanceOptions(ctx, s.db, instanceID)
}

// InstanceOptionsTx is InstanceOptions on an open transaction, so the closer
// reads options and ballots in the same view it closes.
func (s *Store) InstanceOptionsTx(ctx context.Context, tx *sqlx.Tx, instanceID string) ([]models.InstanceOption, error) {
	return instanceOptions(ctx, tx, instanceID)
}

func instanceOptions(ctx context.Context, e sqlx.ExtContext, instanceID string) ([]models.InstanceOption, error) {
	var options []models.InstanceOption
	err := sqlx.SelectContext(ctx, e, &options, `
		SELECT id, instance_id, label, sort_order
		FROM instance_option
		WHERE instance_id = $1
		ORDER BY sort_order`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("select instance options: %w", err)
	}
	return options, nil
}

// InstancesForDate returns every instance open on the given date with
// options attached, for the daily listing.
func (s *Store) InstancesForDate(ctx context.Context, date time.Time) ([]models.Instance, error) {
	var instances []models.Instance
	err := s.db.SelectContext(ctx, &instances,
		`SELECT `+instanceColumns+`
		 FROM poll_instance
		 WHERE poll_date = $1
		 ORDER BY category_id, title`, date.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("select instances for date: %w", err)
	}

	if err := s.attachOptions(ctx, instances); err != nil {
		return nil, err
	}
	return instances, nil
}

// DueOpenInstances returns OPEN instances whose close date equals date.
// Runs on the closer's transaction so the selection and the status flip see
// the same ballot set.
func (s *Store) DueOpenInstances(ctx context.Context, tx *sqlx.Tx, date time.Time) ([]models.Instance, error) {
	var instances []models.Instance
	err := tx.SelectContext(ctx, &instances,
		`SELECT `+instanceColumns+`
		 FROM poll_instance
		 WHERE status = $1 AND close_date = $2
		 ORDER BY poll_date, id`,
		models.StatusOpen, date.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("select due instances: %w", err)
	}
	return instances, nil
}

// OverdueOpenInstances returns OPEN instances whose close date lies strictly
// before the cutoff, for the safety sweep after missed close runs.
func (s *Store) OverdueOpenInstances(ctx context.Context, tx *sqlx.Tx, cutoff time.Time) ([]models.Instance, error) {
	var instances []models.Instance
	err := tx.SelectContext(ctx, &instances,
		`SELECT `+instanceColumns+`
		 FROM poll_instance
		 WHERE status = $1 AND close_date < $2
		 ORDER BY close_date, id`,
		models.StatusOpen, cutoff.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("select overdue instances: %w", err)
	}
	return instances, nil
}

// CloseInstances flips the given instances to CLOSED. Only rows still OPEN
// are touched, so a concurrent or repeated close run settles at zero.
func (s *Store) CloseInstances(ctx context.Context, tx *sqlx.Tx, instanceIDs []string) (int, error) {
	if len(instanceIDs) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`
		UPDATE poll_instance
		SET status = ?
		WHERE id IN (?) AND status = ?`,
		models.StatusClosed, instanceIDs, models.StatusOpen)
	if err != nil {
		return 0, fmt.Errorf("build close query: %w", err)
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("close instances: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count closed instances: %w", err)
	}

	return int(n), nil
}

// DeleteInstancesForTemplateDate removes every instance of a template on one
// date, cascading options, ballots, rankings, and snapshots. Only the
// administrative replace flow calls this.
func (s *Store) DeleteInstancesForTemplateDate(ctx context.Context, tx *sqlx.Tx, templateID string, date time.Time) (int, error) {
	res, err := tx.ExecContext(ctx, `
		DELETE FROM poll_instance
		WHERE template_id = $1 AND poll_date = $2`,
		templateID, date.Format(models.DateLayout))
	if err != nil {
		return 0, fmt.Errorf("delete instances: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted instances: %w", err)
	}
	return int(n), nil
}

// ClosedInstancesByTemplate returns a template's CLOSED instances, newest
// poll date first.
func (s *Store) ClosedInstancesByTemplate(ctx context.Context, templateID string, limit int) ([]models.Instance, error) {
	var instances []models.Instance
	err := s.db.SelectContext(ctx, &instances,
		`SELECT `+instanceColumns+`
		 FROM poll_instance
		 WHERE template_id = $1 AND status = $2
		 ORDER BY poll_date DESC
		 LIMIT $3`,
		templateID, models.StatusClosed, limit)
	if err != nil {
		return nil, fmt.Errorf("select closed instances: %w", err)
	}
	return instances, nil
}

// InstancesMissingSnapshots returns CLOSED instances that have no result
// snapshot, for the audit endpoint.
func (s *Store) InstancesMissingSnapshots(ctx context.Context) ([]models.Instance, error) {
	var instances []models.Instance
	err := s.db.SelectContext(ctx, &instances,
		`SELECT `+qualifiedInstanceColumns("i")+`
		 FROM poll_instance i
		 LEFT JOIN result_snapshot rs ON rs.instance_id = i.id
		 WHERE i.status = $1 AND rs.id IS NULL
		 ORDER BY i.poll_date DESC, i.id`, models.StatusClosed)
	if err != nil {
		return nil, fmt.Errorf("select instances missing snapshots: %w", err)
	}

	if err := s.attachOptions(ctx, instances); err != nil {
		return nil, err
	}
	return instances, nil
}

// OptionLabels maps instance option ids to their labels. History rendering
// uses it to label winners without loading full option sets.
func (s *Store) OptionLabels(ctx context.Context, optionIDs []string) (map[string]string, error) {
	labels := make(map[string]string)
	if len(optionIDs) == 0 {
		return labels, nil
	}

	query, args, err := sqlx.In(
		`SELECT id, label FROM instance_option WHERE id IN (?)`, optionIDs)
	if err != nil {
		return nil, fmt.Errorf("build option labels query: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("select option labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, label string
		if err := rows.Scan(&id, &label); err != nil {
			return nil, fmt.Errorf("scan option label: %w", err)
		}
		labels[id] = label
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate option labels: %w", err)
	}

	return labels, nil
}

func (s *Store) attachOptions(ctx context.Context, instances []models.Instance) error {
	if len(instances) == 0 {
		return nil
	}

	ids := make([]string, len(instances))
	byID := make(map[string]*models.Instance, len(instances))
	for i := range instances {
		ids[i] = instances[i].ID
		byID[instances[i].ID] = &instances[i]
	}

	query, args, err := sqlx.In(`
		SELECT id, instance_id, label, sort_order
		FROM instance_option
		WHERE instance_id IN (?)
		ORDER BY instance_id, sort_order`, ids)
	if err != nil {
		return fmt.Errorf("build instance options query: %w", err)
	}

	var options []models.InstanceOption
	if err := s.db.SelectContext(ctx, &options, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("select instance options: %w", err)
	}
	for _, opt := range options {
		inst := byID[opt.InstanceID]
		inst.Options = append(inst.Options, opt)
	}

	return nil
}

func qualifiedInstanceColumns(alias string) string {
	return alias + `.id, ` + alias + `.template_id, ` + alias + `.category_id, ` +
		alias + `.poll_date, ` + alias + `.close_date, ` + alias + `.title, ` +
		alias + `.question, ` + alias + `.poll_type, ` + alias + `.max_rank, ` +
		alias + `.audience, ` + alias + `.status`
}
