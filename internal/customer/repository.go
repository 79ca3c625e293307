// AngelaMos | 2026
// repository.go

package customer

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
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id string) (*Customer, error)
	GetByPhone(ctx context.Context, phone string) (*Customer, error)
	Update(ctx context.Context, c *Customer) error
	List(ctx context.Context, params ListParams) ([]Customer, int, error)
	LinkBusiness(ctx context.Context, customerID, businessID string) error
	BusinessIDs(ctx context.Context, customerID string) ([]string, error)
	Count(ctx context.Context) (int, error)
	WithTx(ctx context.Context, fn func(repo Repository) error) error
}

type repository struct {
	db   core.DBTX
	root *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db, root: db}
}

// NewTxRepository binds the repository to a transaction owned by the caller.
func NewTxRepository(tx *sqlx.Tx) Repository {
	return &repository{db: tx}
}

func (r *repository) WithTx(ctx context.Context, fn func(repo Repository) error) error {
	if r.root == nil {
		return fn(r)
	}
	return core.InTx(ctx, r.root, func(tx *sqlx.Tx) error {
		return fn(&repository{db: tx})
	})
}

const customerColumns = `id, phone, name, email, created_at, updated_at`

func (r *repository) Create(ctx context.Context, c *Customer) error {
	now := core.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := r.db.Rebind(`
		INSERT INTO customers (` + customerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Phone, c.Name, c.Email, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create customer: %w",
				core.Errorf(core.ErrDuplicateKey, "a customer with phone %s already exists", c.Phone))
		}
		return fmt.Errorf("create customer: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Customer, error) {
	return r.getOne(ctx, "get customer", `id = ?`, id)
}

func (r *repository) GetByPhone(ctx context.Context, phone string) (*Customer, error) {
	return r.getOne(ctx, "get customer by phone", `phone = ?`, phone)
}

func (r *repository) getOne(
	ctx context.Context,
	op, where string,
	arg any,
) (*Customer, error) {
	query := r.db.Rebind(`SELECT ` + customerColumns + ` FROM customers WHERE ` + where)

	var c Customer
	err := r.db.GetContext(ctx, &c, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids, err := r.BusinessIDs(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.BusinessIDs = ids

	return &c, nil
}

func (r *repository) Update(ctx context.Context, c *Customer) error {
	c.UpdatedAt = core.Now()

	query := r.db.Rebind(`
		UPDATE customers SET phone = ?, name = ?, email = ?, updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		c.Phone, c.Name, c.Email, c.UpdatedAt, c.ID)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update customer: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update customer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update customer: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Customer, int, error) {
	params.Normalize()

	if params.ScopeToIDs && len(params.BusinessIDs) == 0 {
		return []Customer{}, 0, nil
	}

	conditions := []string{"1 = 1"}
	var args []any

	if params.Search != "" {
		conditions = append(conditions,
			`(LOWER(c.name) LIKE ? ESCAPE '\' OR c.phone LIKE ? ESCAPE '\' OR LOWER(COALESCE(c.email, '')) LIKE ? ESCAPE '\')`)
		pattern := "%" + core.EscapeLike(strings.ToLower(params.Search)) + "%"
		args = append(args, pattern, pattern, pattern)
	}

	if params.ScopeToIDs {
		conditions = append(conditions, `EXISTS (
			SELECT 1 FROM customer_businesses cb
			WHERE cb.customer_id = c.id AND cb.business_id IN (?))`)
		args = append(args, params.BusinessIDs)
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery, countArgs, err := sqlx.In(
		"SELECT COUNT(*) FROM customers c WHERE "+whereClause, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	listQuery, listArgs, err := sqlx.In(`
		SELECT c.id, c.phone, c.name, c.email, c.created_at, c.updated_at
		FROM customers c
		WHERE `+whereClause+`
		ORDER BY c.name
		LIMIT ? OFFSET ?`,
		append(args, params.PageSize, params.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}

	var items []Customer
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(listQuery), listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}

	if err := r.attachBusinessIDs(ctx, items); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *repository) attachBusinessIDs(ctx context.Context, items []Customer) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	query, args, err := sqlx.In(`
		SELECT customer_id, business_id FROM customer_businesses
		WHERE customer_id IN (?)
		ORDER BY business_id`, ids)
	if err != nil {
		return fmt.Errorf("load customer businesses: %w", err)
	}

	var links []struct {
		CustomerID string `db:"customer_id"`
		BusinessID string `db:"business_id"`
	}
	if err := r.db.SelectContext(ctx, &links, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("load customer businesses: %w", err)
	}

	byCustomer := make(map[string][]string, len(items))
	for _, l := range links {
		byCustomer[l.CustomerID] = append(byCustomer[l.CustomerID], l.BusinessID)
	}
	for i := range items {
		items[i].BusinessIDs = byCustomer[items[i].ID]
	}

	return nil
}

// LinkBusiness is a no-op when the link already exists.
func (r *repository) LinkBusiness(ctx context.Context, customerID, businessID string) error {
	query := r.db.Rebind(`
		INSERT INTO customer_businesses (customer_id, business_id)
		VALUES (?, ?)
		ON CONFLICT (customer_id, business_id) DO NOTHING`)

	if _, err := r.db.ExecContext(ctx, query, customerID, businessID); err != nil {
		return fmt.Errorf("link customer to business: %w", err)
	}

	return nil
}

func (r *repository) BusinessIDs(ctx context.Context, customerID string) ([]string, error) {
	query := r.db.Rebind(`
		SELECT business_id FROM customer_businesses
		WHERE customer_id = ? ORDER BY business_id`)

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, customerID); err != nil {
		return nil, fmt.Errorf("customer businesses: %w", err)
	}

	return ids, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM customers`); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}
