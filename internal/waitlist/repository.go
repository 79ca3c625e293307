// AngelaMos | 2026
// repository.go

package waitlist

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
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id string) (*Entry, error)
	GetDetail(ctx context.Context, id string) (*Detail, error)
	Update(ctx context.Context, e *Entry) error
	ListActive(ctx context.Context, filter ListFilter) ([]Detail, error)
	FindActiveByCustomer(ctx context.Context, businessID, customerID string) (*Entry, error)
	MaxActivePosition(ctx context.Context, businessID string) (int, error)
	Compact(ctx context.Context, businessID string, removedPosition, averageServiceTime int) (int64, error)
	Stats(ctx context.Context, businessID string) (*Stats, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
	LockQueue(ctx context.Context, businessID string) error
	WithTx(ctx context.Context, fn func(repo Repository) error) error
}

// ListFilter narrows active queue listings. An empty BusinessIDs with
// ScopeToIDs set yields nothing.
type ListFilter struct {
	BusinessIDs []string
	ScopeToIDs  bool
}

type Stats struct {
	WaitingCount    int             `db:"waiting_count"`
	NotifiedCount   int             `db:"notified_count"`
	ActiveCount     int             `db:"active_count"`
	AverageWaitTime sql.NullFloat64 `db:"average_wait_time"`
}

type repository struct {
	db      core.DBTX
	root    *sqlx.DB
	dialect core.Dialect
}

func NewRepository(db *core.Database) Repository {
	return &repository{db: db.DB, root: db.DB, dialect: db.Dialect}
}

func (r *repository) WithTx(ctx context.Context, fn func(repo Repository) error) error {
	if r.root == nil {
		return fn(r)
	}
	return core.InTx(ctx, r.root, func(tx *sqlx.Tx) error {
		return fn(&repository{db: tx, dialect: r.dialect})
	})
}

// LockQueue serializes queue mutations for one business across instances
// until the surrounding transaction ends. sqlite runs on a single
// connection, so it is already serialized.
func (r *repository) LockQueue(ctx context.Context, businessID string) error {
	if r.dialect != core.DialectPostgres {
		return nil
	}
	if _, err := r.db.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, "waitlist:"+businessID); err != nil {
		return fmt.Errorf("lock waitlist queue: %w", err)
	}
	return nil
}

const entryColumns = `
	w.id, w.business_id, w.customer_id, w.party_size, w.position,
	w.estimated_wait_time, w.status, w.notes, w.notified_at, w.seated_at,
	w.created_at, w.updated_at`

const detailFrom = `
	FROM waitlist_entries w
	JOIN businesses b ON b.id = w.business_id
	JOIN customers c ON c.id = w.customer_id`

const activeStatuses = `('WAITING', 'NOTIFIED')`

func (r *repository) Create(ctx context.Context, e *Entry) error {
	now := core.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	query := r.db.Rebind(`
		INSERT INTO waitlist_entries (
			id, business_id, customer_id, party_size, position,
			estimated_wait_time, status, notes, notified_at, seated_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.BusinessID, e.CustomerID, e.PartySize, e.Position,
		e.EstimatedWaitTime, e.Status, e.Notes, e.NotifiedAt, e.SeatedAt,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create waitlist entry: %w",
				core.Errorf(core.ErrConflict, "customer is already on the waitlist"))
		}
		return fmt.Errorf("create waitlist entry: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Entry, error) {
	query := r.db.Rebind(`SELECT ` + entryColumns + ` FROM waitlist_entries w WHERE w.id = ?`)

	var e Entry
	err := r.db.GetContext(ctx, &e, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get waitlist entry: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get waitlist entry: %w", err)
	}

	return &e, nil
}

func (r *repository) GetDetail(ctx context.Context, id string) (*Detail, error) {
	query := r.db.Rebind(`
		SELECT ` + entryColumns + `,
			b.name AS business_name, c.name AS customer_name, c.phone AS customer_phone
		` + detailFrom + `
		WHERE w.id = ?`)

	var d Detail
	err := r.db.GetContext(ctx, &d, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get waitlist entry: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get waitlist entry: %w", err)
	}

	return &d, nil
}

func (r *repository) Update(ctx context.Context, e *Entry) error {
	e.UpdatedAt = core.Now()

	query := r.db.Rebind(`
		UPDATE waitlist_entries SET
			party_size = ?, position = ?, estimated_wait_time = ?, status = ?,
			notes = ?, notified_at = ?, seated_at = ?, updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		e.PartySize, e.Position, e.EstimatedWaitTime, e.Status,
		e.Notes, e.NotifiedAt, e.SeatedAt, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update waitlist entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update waitlist entry: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update waitlist entry: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListActive(ctx context.Context, filter ListFilter) ([]Detail, error) {
	if filter.ScopeToIDs && len(filter.BusinessIDs) == 0 {
		return []Detail{}, nil
	}

	conditions := []string{`w.status IN ` + activeStatuses}
	var args []any

	if filter.ScopeToIDs {
		conditions = append(conditions, `w.business_id IN (?)`)
		args = append(args, filter.BusinessIDs)
	}

	query, args, err := sqlx.In(`
		SELECT `+entryColumns+`,
			b.name AS business_name, c.name AS customer_name, c.phone AS customer_phone
		`+detailFrom+`
		WHERE `+strings.Join(conditions, " AND ")+`
		ORDER BY w.business_id, w.position`, args...)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}

	items := []Detail{}
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}

	return items, nil
}

func (r *repository) FindActiveByCustomer(
	ctx context.Context,
	businessID, customerID string,
) (*Entry, error) {
	query := r.db.Rebind(`
		SELECT ` + entryColumns + ` FROM waitlist_entries w
		WHERE w.business_id = ? AND w.customer_id = ? AND w.status IN ` + activeStatuses)

	var e Entry
	err := r.db.GetContext(ctx, &e, query, businessID, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find active waitlist entry: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find active waitlist entry: %w", err)
	}

	return &e, nil
}

func (r *repository) MaxActivePosition(ctx context.Context, businessID string) (int, error) {
	query := r.db.Rebind(`
		SELECT COALESCE(MAX(position), 0) FROM waitlist_entries
		WHERE business_id = ? AND status IN ` + activeStatuses)

	var last int
	if err := r.db.GetContext(ctx, &last, query, businessID); err != nil {
		return 0, fmt.Errorf("max waitlist position: %w", err)
	}

	return last, nil
}

// Compact closes the gap left at removedPosition. Every right-hand side
// sees the pre-update position, so the wait estimate tracks the new one.
func (r *repository) Compact(
	ctx context.Context,
	businessID string,
	removedPosition, averageServiceTime int,
) (int64, error) {
	query := r.db.Rebind(`
		UPDATE waitlist_entries SET
			position = position - 1,
			estimated_wait_time = (position - 1) * ?,
			updated_at = ?
		WHERE business_id = ? AND position > ? AND status IN ` + activeStatuses)

	result, err := r.db.ExecContext(ctx, query,
		averageServiceTime, core.Now(), businessID, removedPosition)
	if err != nil {
		return 0, fmt.Errorf("compact waitlist: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("compact waitlist: %w", err)
	}

	return n, nil
}

func (r *repository) Stats(ctx context.Context, businessID string) (*Stats, error) {
	query := r.db.Rebind(`
		SELECT
			COALESCE(SUM(CASE WHEN status = 'WAITING' THEN 1 ELSE 0 END), 0) AS waiting_count,
			COALESCE(SUM(CASE WHEN status = 'NOTIFIED' THEN 1 ELSE 0 END), 0) AS notified_count,
			COUNT(*) AS active_count,
			CAST(AVG(CASE WHEN status = 'WAITING' THEN estimated_wait_time END) AS DOUBLE PRECISION) AS average_wait_time
		FROM waitlist_entries
		WHERE business_id = ? AND status IN ` + activeStatuses)

	var s Stats
	if err := r.db.GetContext(ctx, &s, query, businessID); err != nil {
		return nil, fmt.Errorf("waitlist stats: %w", err)
	}

	return &s, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	var rows []struct {
		Status Status `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT status, COUNT(*) AS count FROM waitlist_entries GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count waitlist entries: %w", err)
	}

	out := make(map[Status]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
