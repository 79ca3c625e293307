// AngelaMos | 2026
// repository.go

package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, res *Reservation) error
	GetByID(ctx context.Context, id string) (*Reservation, error)
	GetDetail(ctx context.Context, id string) (*Detail, error)
	Update(ctx context.Context, res *Reservation) error
	List(ctx context.Context, filter ListFilter) ([]Detail, error)
	ExistsActiveAt(ctx context.Context, businessID, date, clock string) (bool, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
	WithTx(ctx context.Context, fn func(repo Repository) error) error
}

type ListFilter struct {
	BusinessIDs []string
	ScopeToIDs  bool
	CustomerID  string
	Date        string
	Statuses    []Status
}

type repository struct {
	db   core.DBTX
	root *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db, root: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(repo Repository) error) error {
	if r.root == nil {
		return fn(r)
	}
	return core.InTx(ctx, r.root, func(tx *sqlx.Tx) error {
		return fn(&repository{db: tx})
	})
}

// reservation_date is read back as text so both drivers yield YYYY-MM-DD.
const reservationColumns = `
	r.id, r.business_id, r.customer_id,
	CAST(r.reservation_date AS VARCHAR(10)) AS reservation_date,
	r.reservation_time, r.party_size, r.status, r.special_requests,
	r.created_at, r.updated_at`

const detailSelect = `
	SELECT ` + reservationColumns + `,
		b.name AS business_name, c.name AS customer_name, c.phone AS customer_phone
	FROM reservations r
	JOIN businesses b ON b.id = r.business_id
	JOIN customers c ON c.id = r.customer_id`

func (r *repository) Create(ctx context.Context, res *Reservation) error {
	now := core.Now()
	res.CreatedAt = now
	res.UpdatedAt = now

	query := r.db.Rebind(`
		INSERT INTO reservations (
			id, business_id, customer_id, reservation_date, reservation_time,
			party_size, status, special_requests, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		res.ID, res.BusinessID, res.CustomerID, res.Date, res.Time,
		res.PartySize, res.Status, res.SpecialRequests, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Reservation, error) {
	query := r.db.Rebind(`SELECT ` + reservationColumns + ` FROM reservations r WHERE r.id = ?`)

	var res Reservation
	err := r.db.GetContext(ctx, &res, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get reservation: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}

	return &res, nil
}

func (r *repository) GetDetail(ctx context.Context, id string) (*Detail, error) {
	query := r.db.Rebind(detailSelect + ` WHERE r.id = ?`)

	var d Detail
	err := r.db.GetContext(ctx, &d, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get reservation: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}

	return &d, nil
}

func (r *repository) Update(ctx context.Context, res *Reservation) error {
	res.UpdatedAt = core.Now()

	query := r.db.Rebind(`
		UPDATE reservations SET
			reservation_date = ?, reservation_time = ?, party_size = ?,
			status = ?, special_requests = ?, updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		res.Date, res.Time, res.PartySize,
		res.Status, res.SpecialRequests, res.UpdatedAt, res.ID,
	)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update reservation: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Detail, error) {
	if filter.ScopeToIDs && len(filter.BusinessIDs) == 0 {
		return []Detail{}, nil
	}

	conditions := []string{"1 = 1"}
	var args []any

	if filter.ScopeToIDs {
		conditions = append(conditions, `r.business_id IN (?)`)
		args = append(args, filter.BusinessIDs)
	}
	if filter.CustomerID != "" {
		conditions = append(conditions, `r.customer_id = ?`)
		args = append(args, filter.CustomerID)
	}
	if filter.Date != "" {
		conditions = append(conditions, `r.reservation_date = ?`)
		args = append(args, filter.Date)
	}
	if len(filter.Statuses) > 0 {
		conditions = append(conditions, `r.status IN (?)`)
		args = append(args, filter.Statuses)
	}

	query, args, err := sqlx.In(
		detailSelect+`
		WHERE `+strings.Join(conditions, " AND ")+`
		ORDER BY r.reservation_date, r.reservation_time, r.created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	items := []Detail{}
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	return items, nil
}

// ExistsActiveAt matches the exact slot only; overlapping times at
// different minutes are not conflicts.
func (r *repository) ExistsActiveAt(
	ctx context.Context,
	businessID, date, clock string,
) (bool, error) {
	query, args, err := sqlx.In(`
		SELECT COUNT(*) FROM reservations
		WHERE business_id = ? AND reservation_date = ? AND reservation_time = ?
			AND status IN (?)`,
		businessID, date, clock, ActiveStatuses)
	if err != nil {
		return false, fmt.Errorf("check reservation slot: %w", err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), args...); err != nil {
		return false, fmt.Errorf("check reservation slot: %w", err)
	}

	return n > 0, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	var rows []struct {
		Status Status `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT status, COUNT(*) AS count FROM reservations GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count reservations: %w", err)
	}

	out := make(map[Status]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
