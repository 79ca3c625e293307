// AngelaMos | 2026
// migrate_test.go

package migrate

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/waitlist-backend/internal/config"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openDB(t *testing.T) *core.Database {
	t.Helper()

	db, err := OpenInMemory(context.Background(), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestRun_Idempotent(t *testing.T) {
	db := openDB(t)

	require.NoError(t, Run(context.Background(), db, quietLogger()))
	require.NoError(t, Run(context.Background(), db, quietLogger()))

	m := &migrator{db: db.DB, dialect: db.Dialect, logger: quietLogger()}
	ok, err := m.columnExists(context.Background(), "waitlist_entries", "estimated_wait_time")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAddColumnIfNotExists(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	m := &migrator{db: db.DB, dialect: db.Dialect, logger: quietLogger()}

	added, err := m.addColumnIfNotExists(ctx, "users", "business_id", "VARCHAR(36)")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = m.addColumnIfNotExists(ctx, "users", "business_id", "VARCHAR(36)")
	require.NoError(t, err)
	assert.False(t, added)
}

func TestBackfillUserBusinesses_FromLegacyColumn(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	m := &migrator{db: db.DB, dialect: db.Dialect, logger: quietLogger()}

	_, err := m.addColumnIfNotExists(ctx, "users", "business_id", "VARCHAR(36)")
	require.NoError(t, err)

	now := core.Now()
	_, err = db.DB.ExecContext(ctx, `
		INSERT INTO businesses (id, name, type, created_at, updated_at)
		VALUES ('b1', 'Legacy Bistro', 'RESTAURANT', ?, ?)`, now, now)
	require.NoError(t, err)
	_, err = db.DB.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, business_id, created_at, updated_at)
		VALUES ('u1', 'legacy', 'legacy@x.com', 'h', 'BUSINESS_OWNER', 'b1', ?, ?)`, now, now)
	require.NoError(t, err)

	require.NoError(t, backfillUserBusinesses(ctx, m))
	require.NoError(t, backfillUserBusinesses(ctx, m))

	var n int
	require.NoError(t, db.DB.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM user_businesses WHERE user_id = 'u1' AND business_id = 'b1'`))
	assert.Equal(t, 1, n)
}

func TestActiveWaitlistUniqueIndex(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	now := core.Now()

	insert := func(id, status string) error {
		_, err := db.DB.ExecContext(ctx, `
			INSERT INTO waitlist_entries (
				id, business_id, customer_id, party_size, position,
				estimated_wait_time, status, created_at, updated_at
			) VALUES (?, 'b1', 'c1', 2, 1, 60, ?, ?, ?)`, id, status, now, now)
		return err
	}

	require.NoError(t, insert("e1", "SEATED"))
	require.NoError(t, insert("e2", "WAITING"))

	err := insert("e3", "NOTIFIED")
	require.Error(t, err)
	assert.True(t, core.IsDuplicateKeyError(err))
}

func TestSeed(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	cfg := config.SeedConfig{
		Enabled:       true,
		DemoData:      true,
		AdminUsername: "platform@waitlist.com",
		AdminPassword: "platform123",
		DemoPassword:  "owner123",
	}

	require.NoError(t, Seed(ctx, db, cfg, quietLogger()))
	require.NoError(t, Seed(ctx, db, cfg, quietLogger()))

	var users int
	require.NoError(t, db.DB.GetContext(ctx, &users, `SELECT COUNT(*) FROM users`))
	assert.Equal(t, 5, users)

	var role string
	require.NoError(t, db.DB.GetContext(ctx, &role,
		`SELECT role FROM users WHERE username = 'platform@waitlist.com'`))
	assert.Equal(t, "PLATFORM_ADMIN", role)

	var staffBusiness string
	require.NoError(t, db.DB.GetContext(ctx, &staffBusiness, `
		SELECT b.name FROM businesses b
		JOIN user_businesses ub ON ub.business_id = b.id
		JOIN users u ON u.id = ub.user_id
		WHERE u.username = 'demo-staff@restaurant.com'`))
	assert.Equal(t, "Demo Restaurant", staffBusiness)

	var capacity int
	require.NoError(t, db.DB.GetContext(ctx, &capacity,
		`SELECT capacity FROM businesses WHERE name = 'Demo Café'`))
	assert.Equal(t, 40, capacity)
}

func TestPrepare_RespectsAutoMigrate(t *testing.T) {
	ctx := context.Background()

	tableCount := func(db *core.Database) int {
		var n int
		require.NoError(t, db.DB.GetContext(ctx, &n,
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'waitlist_entries'`))
		return n
	}

	for _, tt := range []struct {
		name        string
		autoMigrate bool
		want        int
	}{
		{"disabled leaves schema alone", false, 0},
		{"enabled creates schema", true, 1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			db, err := core.NewDatabase(ctx, config.DatabaseConfig{
				Driver: config.DriverSQLite,
				URL:    ":memory:",
			})
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })

			err = Prepare(ctx, db,
				config.DatabaseConfig{AutoMigrate: tt.autoMigrate},
				config.SeedConfig{},
				quietLogger(),
			)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tableCount(db))
		})
	}
}
