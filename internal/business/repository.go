// AngelaMos | 2026
// repository.go

package business

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
	Create(ctx context.Context, b *Business) error
	GetByID(ctx context.Context, id string) (*Business, error)
	GetByIDs(ctx context.Context, ids []string) ([]Business, error)
	List(ctx context.Context, params ListParams) ([]Business, int, error)
	Update(ctx context.Context, b *Business) error
	ExistsActiveByName(ctx context.Context, name string) (bool, error)
	Count(ctx context.Context) (total, active int, err error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const businessColumns = `
	id, name, type, address, phone, email, capacity,
	average_service_time, is_active, created_at, updated_at`

func (r *repository) Create(ctx context.Context, b *Business) error {
	now := core.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	query := r.db.Rebind(`
		INSERT INTO businesses (` + businessColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		b.ID,
		b.Name,
		b.Type,
		b.Address,
		b.Phone,
		b.Email,
		b.Capacity,
		b.AverageServiceTime,
		b.IsActive,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create business: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create business: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Business, error) {
	query := r.db.Rebind(`SELECT ` + businessColumns + ` FROM businesses WHERE id = ?`)

	var b Business
	err := r.db.GetContext(ctx, &b, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get business: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get business: %w", err)
	}

	return &b, nil
}

func (r *repository) GetByIDs(ctx context.Context, ids []string) ([]Business, error) {
	if len(ids) == 0 {
		return []Business{}, nil
	}

	query, args, err := sqlx.In(
		`SELECT `+businessColumns+` FROM businesses WHERE id IN (?) ORDER BY name`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("get businesses: %w", err)
	}

	var items []Business
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get businesses: %w", err)
	}

	return items, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Business, int, error) {
	params.Normalize()

	if params.ScopeToIDs && len(params.IDs) == 0 {
		return []Business{}, 0, nil
	}

	conditions := []string{"1 = 1"}
	var args []any

	if params.ActiveOnly {
		conditions = append(conditions, "is_active = ?")
		args = append(args, true)
	}

	if params.Search != "" {
		conditions = append(conditions,
			`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(address) LIKE ? ESCAPE '\')`)
		pattern := "%" + core.EscapeLike(strings.ToLower(params.Search)) + "%"
		args = append(args, pattern, pattern)
	}

	if params.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, params.Type)
	}

	if params.ScopeToIDs {
		conditions = append(conditions, "id IN (?)")
		args = append(args, params.IDs)
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery, countArgs, err := sqlx.In(
		"SELECT COUNT(*) FROM businesses WHERE "+whereClause, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count businesses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count businesses: %w", err)
	}

	listQuery, listArgs, err := sqlx.In(`
		SELECT `+businessColumns+`
		FROM businesses
		WHERE `+whereClause+`
		ORDER BY name
		LIMIT ? OFFSET ?`,
		append(args, params.PageSize, params.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list businesses: %w", err)
	}

	var items []Business
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(listQuery), listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list businesses: %w", err)
	}

	return items, total, nil
}

func (r *repository) Update(ctx context.Context, b *Business) error {
	b.UpdatedAt = core.Now()

	query := r.db.Rebind(`
		UPDATE businesses
		SET name = ?, type = ?, address = ?, phone = ?, email = ?,
			capacity = ?, average_service_time = ?, is_active = ?, updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		b.Name,
		b.Type,
		b.Address,
		b.Phone,
		b.Email,
		b.Capacity,
		b.AverageServiceTime,
		b.IsActive,
		b.UpdatedAt,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("update business: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update business: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update business: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ExistsActiveByName(ctx context.Context, name string) (bool, error) {
	query := r.db.Rebind(`
		SELECT COUNT(*) FROM businesses WHERE name = ? AND is_active = ?`)

	var n int
	if err := r.db.GetContext(ctx, &n, query, name, true); err != nil {
		return false, fmt.Errorf("check business name: %w", err)
	}

	return n > 0, nil
}

func (r *repository) Count(ctx context.Context) (int, int, error) {
	var counts struct {
		Total  int `db:"total"`
		Active int `db:"active"`
	}

	query := r.db.Rebind(`
		SELECT COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN is_active = ? THEN 1 ELSE 0 END), 0) AS active
		FROM businesses`)

	if err := r.db.GetContext(ctx, &counts, query, true); err != nil {
		return 0, 0, fmt.Errorf("count businesses: %w", err)
	}

	return counts.Total, counts.Active, nil
}
