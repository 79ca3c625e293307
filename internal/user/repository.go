// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/waitlist-backend/internal/access"
	"github.com/carterperez-dev/waitlist-backend/internal/business"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	CreateOwner(ctx context.Context, u *User, b *business.Business) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, u *User) error
	SetBusinesses(ctx context.Context, userID string, businessIDs []string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	List(ctx context.Context, params ListParams) ([]User, int, error)
	CountStaff(ctx context.Context, businessIDs []string) (int, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountByRole(ctx context.Context) (map[access.Role]int, error)
}

type repository struct {
	db   core.DBTX
	root *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db, root: db}
}

func (r *repository) inTx(ctx context.Context, fn func(repo *repository) error) error {
	if r.root == nil {
		return fn(r)
	}
	return core.InTx(ctx, r.root, func(tx *sqlx.Tx) error {
		return fn(&repository{db: tx})
	})
}

const userColumns = `
	id, username, email, password_hash, role, is_active, token_version,
	created_at, updated_at`

// Create inserts the user and its memberships atomically.
func (r *repository) Create(ctx context.Context, u *User) error {
	return r.inTx(ctx, func(repo *repository) error {
		if err := repo.insert(ctx, u); err != nil {
			return err
		}
		return repo.link(ctx, u.ID, u.BusinessIDs())
	})
}

// CreateOwner inserts a new business and its owning account together.
func (r *repository) CreateOwner(ctx context.Context, u *User, b *business.Business) error {
	return r.inTx(ctx, func(repo *repository) error {
		if err := business.NewRepository(repo.db).Create(ctx, b); err != nil {
			return err
		}
		if err := repo.insert(ctx, u); err != nil {
			return err
		}
		u.Businesses = []Membership{{
			UserID:       u.ID,
			BusinessID:   b.ID,
			BusinessName: b.Name,
			BusinessType: string(b.Type),
		}}
		return repo.link(ctx, u.ID, []string{b.ID})
	})
}

func (r *repository) insert(ctx context.Context, u *User) error {
	now := core.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := r.db.Rebind(`
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role,
		u.IsActive, u.TokenVersion, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w",
				core.Errorf(core.ErrDuplicateKey, "username or email already exists"))
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) link(ctx context.Context, userID string, businessIDs []string) error {
	query := r.db.Rebind(`INSERT INTO user_businesses (user_id, business_id) VALUES (?, ?)`)
	for _, id := range businessIDs {
		if _, err := r.db.ExecContext(ctx, query, userID, id); err != nil {
			return fmt.Errorf("link user business: %w", err)
		}
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, "get user", `id = ?`, id)
}

func (r *repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, "get user by username", `username = ?`, username)
}

func (r *repository) getOne(ctx context.Context, op, where string, arg any) (*User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + where)

	var u User
	err := r.db.GetContext(ctx, &u, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := []User{u}
	if err := r.attachMemberships(ctx, items); err != nil {
		return nil, err
	}

	return &items[0], nil
}

func (r *repository) Update(ctx context.Context, u *User) error {
	u.UpdatedAt = core.Now()

	query := r.db.Rebind(`
		UPDATE users
		SET username = ?, email = ?, role = ?, is_active = ?, updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		u.Username, u.Email, u.Role, u.IsActive, u.UpdatedAt, u.ID)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update user: %w",
				core.Errorf(core.ErrDuplicateKey, "username or email already exists"))
		}
		return fmt.Errorf("update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}

	return nil
}

// SetBusinesses replaces every membership of the user.
func (r *repository) SetBusinesses(ctx context.Context, userID string, businessIDs []string) error {
	return r.inTx(ctx, func(repo *repository) error {
		if _, err := repo.db.ExecContext(ctx,
			repo.db.Rebind(`DELETE FROM user_businesses WHERE user_id = ?`), userID); err != nil {
			return fmt.Errorf("clear user businesses: %w", err)
		}
		return repo.link(ctx, userID, businessIDs)
	})
}

func (r *repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := r.db.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`)
	return r.execOne(ctx, "update password", query, passwordHash, core.Now(), id)
}

func (r *repository) IncrementTokenVersion(ctx context.Context, id string) error {
	query := r.db.Rebind(`
		UPDATE users SET token_version = token_version + 1, updated_at = ?
		WHERE id = ?`)
	return r.execOne(ctx, "increment token version", query, core.Now(), id)
}

func (r *repository) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]User, int, error) {
	params.Normalize()

	if params.ScopeToIDs && len(params.BusinessIDs) == 0 {
		return []User{}, 0, nil
	}

	conditions := []string{"1 = 1"}
	var args []any

	if params.Search != "" {
		conditions = append(conditions,
			`(LOWER(u.username) LIKE ? ESCAPE '\' OR LOWER(u.email) LIKE ? ESCAPE '\')`)
		pattern := "%" + core.EscapeLike(strings.ToLower(params.Search)) + "%"
		args = append(args, pattern, pattern)
	}

	if params.Role != "" {
		conditions = append(conditions, "u.role = ?")
		args = append(args, params.Role)
	}

	if params.ActiveOnly {
		conditions = append(conditions, "u.is_active = ?")
		args = append(args, true)
	}

	if params.ScopeToIDs {
		conditions = append(conditions, `EXISTS (
			SELECT 1 FROM user_businesses ub
			WHERE ub.user_id = u.id AND ub.business_id IN (?))`)
		args = append(args, params.BusinessIDs)
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery, countArgs, err := sqlx.In(
		"SELECT COUNT(*) FROM users u WHERE "+whereClause, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	listQuery, listArgs, err := sqlx.In(`
		SELECT `+userColumns+` FROM users u
		WHERE `+whereClause+`
		ORDER BY u.created_at DESC
		LIMIT ? OFFSET ?`,
		append(args, params.PageSize, params.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	users := []User{}
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(listQuery), listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	if err := r.attachMemberships(ctx, users); err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *repository) attachMemberships(ctx context.Context, items []User) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	query, args, err := sqlx.In(`
		SELECT ub.user_id, ub.business_id, b.name AS business_name, b.type AS business_type
		FROM user_businesses ub
		JOIN businesses b ON b.id = ub.business_id
		WHERE ub.user_id IN (?)
		ORDER BY b.name`, ids)
	if err != nil {
		return fmt.Errorf("load user businesses: %w", err)
	}

	var links []Membership
	if err := r.db.SelectContext(ctx, &links, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("load user businesses: %w", err)
	}

	byUser := make(map[string][]Membership, len(items))
	for _, l := range links {
		byUser[l.UserID] = append(byUser[l.UserID], l)
	}
	for i := range items {
		items[i].Businesses = byUser[items[i].ID]
	}

	return nil
}

// CountStaff counts distinct active staff accounts linked to any of the
// given businesses.
func (r *repository) CountStaff(ctx context.Context, businessIDs []string) (int, error) {
	if len(businessIDs) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`
		SELECT COUNT(DISTINCT u.id) FROM users u
		JOIN user_businesses ub ON ub.user_id = u.id
		WHERE u.role = ? AND u.is_active = ? AND ub.business_id IN (?)`,
		access.RoleBusinessStaff, true, businessIDs)
	if err != nil {
		return 0, fmt.Errorf("count staff: %w", err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count staff: %w", err)
	}

	return n, nil
}

func (r *repository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username", username)
}

func (r *repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email", email)
}

func (r *repository) exists(ctx context.Context, column, value string) (bool, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM users WHERE ` + column + ` = ?`)

	var n int
	if err := r.db.GetContext(ctx, &n, query, value); err != nil {
		return false, fmt.Errorf("check %s exists: %w", column, err)
	}

	return n > 0, nil
}

func (r *repository) CountByRole(ctx context.Context) (map[access.Role]int, error) {
	var rows []struct {
		Role  access.Role `db:"role"`
		Count int         `db:"count"`
	}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT role, COUNT(*) AS count FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}

	counts := make(map[access.Role]int, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}

	return counts, nil
}
