// AngelaMos | 2026
// repository.go

package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, s *Subscription) error
	GetByID(ctx context.Context, id string) (*Subscription, error)
	GetByBusinessID(ctx context.Context, businessID string) (*Subscription, error)
	List(ctx context.Context, status Status) ([]Subscription, error)
	Update(ctx context.Context, s *Subscription) error
	Delete(ctx context.Context, id string) error
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const subscriptionColumns = `
	id, business_id, plan, status, start_date, end_date, billing_cycle_days,
	CAST(COALESCE(monthly_price, 0) AS DOUBLE PRECISION) AS monthly_price,
	auto_renew, trial_end_date, notes, created_at, updated_at`

func (r *repository) Create(ctx context.Context, s *Subscription) error {
	now := core.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	query := r.db.Rebind(`
		INSERT INTO subscriptions (
			id, business_id, plan, status, start_date, end_date,
			billing_cycle_days, monthly_price, auto_renew, trial_end_date,
			notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.BusinessID, s.Plan, s.Status, s.StartDate, s.EndDate,
		s.BillingCycleDays, s.MonthlyPrice, s.AutoRenew, s.TrialEndDate,
		s.Notes, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create subscription: %w",
				core.Errorf(core.ErrConflict, "business already has a subscription"))
		}
		return fmt.Errorf("create subscription: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Subscription, error) {
	return r.getOne(ctx, `id = ?`, id)
}

func (r *repository) GetByBusinessID(ctx context.Context, businessID string) (*Subscription, error) {
	return r.getOne(ctx, `business_id = ?`, businessID)
}

func (r *repository) getOne(ctx context.Context, where string, arg any) (*Subscription, error) {
	query := r.db.Rebind(`SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE ` + where)

	var s Subscription
	err := r.db.GetContext(ctx, &s, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	return &s, nil
}

// List returns all subscriptions, or those in status when it is set.
func (r *repository) List(ctx context.Context, status Status) ([]Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	items := []Subscription{}
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	return items, nil
}

func (r *repository) Update(ctx context.Context, s *Subscription) error {
	s.UpdatedAt = core.Now()

	query := r.db.Rebind(`
		UPDATE subscriptions SET
			plan = ?, status = ?, start_date = ?, end_date = ?,
			billing_cycle_days = ?, monthly_price = ?, auto_renew = ?,
			trial_end_date = ?, notes = ?, updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		s.Plan, s.Status, s.StartDate, s.EndDate,
		s.BillingCycleDays, s.MonthlyPrice, s.AutoRenew,
		s.TrialEndDate, s.Notes, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update subscription: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM subscriptions WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete subscription: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := r.db.Rebind(`
		UPDATE subscriptions SET status = 'EXPIRED', updated_at = ?
		WHERE status = 'ACTIVE' AND end_date IS NOT NULL AND end_date < ?`)

	result, err := r.db.ExecContext(ctx, query, now, now)
	if err != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", err)
	}

	return n, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	var rows []struct {
		Status Status `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT status, COUNT(*) AS count FROM subscriptions GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count subscriptions: %w", err)
	}

	out := make(map[Status]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
