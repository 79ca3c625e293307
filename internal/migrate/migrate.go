// AngelaMos | 2026
// migrate.go

package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/waitlist-backend/internal/config"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

type step struct {
	name string
	run  func(ctx context.Context, m *migrator) error
}

type migrator struct {
	db      *sqlx.DB
	dialect core.Dialect
	logger  *slog.Logger
}

var steps = []step{
	{"schema", createSchema},
	{"column patches", patchColumns},
	{"role constraint", refreshRoleConstraint},
	{"retired roles", removeRetiredRoles},
	{"user business backfill", backfillUserBusinesses},
	{"customer business backfill", backfillCustomerBusinesses},
}

// Run brings the schema up to date. Every step is safe to repeat.
func Run(ctx context.Context, db *core.Database, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	m := &migrator{db: db.DB, dialect: db.Dialect, logger: logger}

	for _, s := range steps {
		if err := s.run(ctx, m); err != nil {
			return fmt.Errorf("migration %q: %w", s.name, err)
		}
		logger.Debug("migration step applied", "step", s.name)
	}

	logger.Info("database schema up to date", "dialect", db.Dialect)
	return nil
}

// Prepare applies migrations when auto_migrate is on and then seeds. With
// auto_migrate off the schema is assumed to be managed out of band.
func Prepare(
	ctx context.Context,
	db *core.Database,
	dbCfg config.DatabaseConfig,
	seedCfg config.SeedConfig,
	logger *slog.Logger,
) error {
	if logger == nil {
		logger = slog.Default()
	}

	if dbCfg.AutoMigrate {
		if err := Run(ctx, db, logger); err != nil {
			return err
		}
	} else {
		logger.Info("automatic migrations disabled")
	}

	return Seed(ctx, db, seedCfg, logger)
}

func createSchema(ctx context.Context, m *migrator) error {
	for _, stmt := range schema {
		if _, err := m.db.ExecContext(ctx, m.dialect.DDL(stmt)); err != nil {
			return fmt.Errorf("exec %.60q: %w", stmt, err)
		}
	}
	return nil
}

func patchColumns(ctx context.Context, m *migrator) error {
	for _, p := range columnPatches {
		added, err := m.addColumnIfNotExists(ctx, p.table, p.column, p.definition)
		if err != nil {
			return err
		}
		if added {
			m.logger.Info("column added", "table", p.table, "column", p.column)
		}
	}
	return nil
}

func (m *migrator) columnExists(ctx context.Context, table, column string) (bool, error) {
	var query string
	if m.dialect == core.DialectSQLite {
		query = `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`
	} else {
		query = `
			SELECT COUNT(*) FROM information_schema.columns
			WHERE table_schema = current_schema()
				AND table_name = ? AND column_name = ?`
	}

	var n int
	if err := m.db.GetContext(ctx, &n, m.db.Rebind(query), table, column); err != nil {
		return false, fmt.Errorf("inspect %s.%s: %w", table, column, err)
	}

	return n > 0, nil
}

func (m *migrator) addColumnIfNotExists(
	ctx context.Context,
	table, column, definition string,
) (bool, error) {
	exists, err := m.columnExists(ctx, table, column)
	if err != nil || exists {
		return false, err
	}

	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)
	if _, err := m.db.ExecContext(ctx, m.dialect.DDL(stmt)); err != nil {
		return false, fmt.Errorf("add column %s.%s: %w", table, column, err)
	}

	return true, nil
}

// refreshRoleConstraint replaces a users_role_check left over from older
// schemas that still allowed BUSINESS_MANAGER. sqlite cannot alter table
// constraints, and fresh sqlite tables already carry the current check.
func refreshRoleConstraint(ctx context.Context, m *migrator) error {
	if m.dialect == core.DialectSQLite {
		return nil
	}

	var clause string
	err := m.db.GetContext(ctx, &clause, `
		SELECT COALESCE(MAX(check_clause), '') FROM information_schema.check_constraints
		WHERE constraint_name = 'users_role_check'`)
	if err != nil {
		return fmt.Errorf("inspect role constraint: %w", err)
	}

	if clause == "" {
		return nil
	}
	if strings.Contains(clause, "PLATFORM_ADMIN") &&
		!strings.Contains(clause, "BUSINESS_MANAGER") {
		return nil
	}

	return m.replaceRoleConstraint(ctx)
}

func (m *migrator) replaceRoleConstraint(ctx context.Context) error {
	return core.InTx(ctx, m.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_role_check`); err != nil {
			return fmt.Errorf("drop role constraint: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			ALTER TABLE users ADD CONSTRAINT users_role_check
			CHECK (role IN ('PLATFORM_ADMIN', 'BUSINESS_OWNER', 'BUSINESS_STAFF'))`); err != nil {
			return fmt.Errorf("add role constraint: %w", err)
		}
		m.logger.Info("users_role_check constraint replaced")
		return nil
	})
}

// removeRetiredRoles deletes accounts holding the retired BUSINESS_MANAGER
// role together with their memberships.
func removeRetiredRoles(ctx context.Context, m *migrator) error {
	return core.InTx(ctx, m.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM user_businesses WHERE user_id IN
			(SELECT id FROM users WHERE role = 'BUSINESS_MANAGER')`); err != nil {
			return fmt.Errorf("delete retired memberships: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE role = 'BUSINESS_MANAGER'`)
		if err != nil {
			return fmt.Errorf("delete retired users: %w", err)
		}

		if n, _ := res.RowsAffected(); n > 0 {
			m.logger.Info("retired role accounts removed", "count", n)
		}
		return nil
	})
}

// backfillUserBusinesses copies the legacy users.business_id column into
// the membership table when an old schema still carries it.
func backfillUserBusinesses(ctx context.Context, m *migrator) error {
	exists, err := m.columnExists(ctx, "users", "business_id")
	if err != nil || !exists {
		return err
	}

	res, err := m.db.ExecContext(ctx, `
		INSERT INTO user_businesses (user_id, business_id)
		SELECT u.id, u.business_id FROM users u
		WHERE u.business_id IS NOT NULL
			AND NOT EXISTS (
				SELECT 1 FROM user_businesses ub
				WHERE ub.user_id = u.id AND ub.business_id = u.business_id
			)`)
	if err != nil {
		return fmt.Errorf("backfill user businesses: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		m.logger.Info("user business links backfilled", "count", n)
	}
	return nil
}

// backfillCustomerBusinesses links customers to every business they have
// reserved at or queued for.
func backfillCustomerBusinesses(ctx context.Context, m *migrator) error {
	sources := []string{"reservations", "waitlist_entries"}

	for _, table := range sources {
		stmt := fmt.Sprintf(`
			INSERT INTO customer_businesses (customer_id, business_id)
			SELECT DISTINCT s.customer_id, s.business_id FROM %s s
			WHERE NOT EXISTS (
				SELECT 1 FROM customer_businesses cb
				WHERE cb.customer_id = s.customer_id AND cb.business_id = s.business_id
			)`, table)

		res, err := m.db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("backfill customer businesses from %s: %w", table, err)
		}

		if n, _ := res.RowsAffected(); n > 0 {
			m.logger.Info("customer business links backfilled", "source", table, "count", n)
		}
	}

	return nil
}
