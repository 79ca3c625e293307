// AngelaMos | 2026
// seed.go

package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/waitlist-backend/internal/config"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

type seedBusiness struct {
	name        string
	kind        string
	email       string
	capacity    int
	serviceTime int
}

type seedAccount struct {
	username string
	role     string
	business seedBusiness
}

var (
	platformBusiness = seedBusiness{
		name: "Platform Business", kind: "OTHER",
		email: "platform@waitlist.com", capacity: 0, serviceTime: 60,
	}
	demoRestaurant = seedBusiness{
		name: "Demo Restaurant", kind: "RESTAURANT",
		email: "contact@restaurant.com", capacity: 75, serviceTime: 45,
	}
	demoCafe = seedBusiness{
		name: "Demo Café", kind: "CAFE",
		email: "hello@cafe.com", capacity: 40, serviceTime: 30,
	}
	defaultRestaurant = seedBusiness{
		name: "Default Restaurant", kind: "RESTAURANT",
		email: "admin@waitlist.com", capacity: 50, serviceTime: 60,
	}
)

var demoAccounts = []seedAccount{
	{"demo-owner@restaurant.com", "BUSINESS_OWNER", demoRestaurant},
	{"demo-staff@restaurant.com", "BUSINESS_STAFF", demoRestaurant},
	{"demo2-owner@cafe.com", "BUSINESS_OWNER", demoCafe},
	{"admin@waitlist.com", "BUSINESS_OWNER", defaultRestaurant},
}

// Seed creates the platform admin and, when enabled, the demo accounts.
// Existing usernames are left untouched so restarts never reset passwords.
func Seed(
	ctx context.Context,
	db *core.Database,
	cfg config.SeedConfig,
	logger *slog.Logger,
) error {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	accounts := []struct {
		seedAccount
		password string
	}{
		{seedAccount{cfg.AdminUsername, "PLATFORM_ADMIN", platformBusiness}, cfg.AdminPassword},
	}
	if cfg.DemoData {
		for _, a := range demoAccounts {
			accounts = append(accounts, struct {
				seedAccount
				password string
			}{a, cfg.DemoPassword})
		}
	}

	for _, a := range accounts {
		created, err := seedOne(ctx, db.DB, a.seedAccount, a.password)
		if err != nil {
			return fmt.Errorf("seed %s: %w", a.username, err)
		}
		if created {
			logger.Info("seed account created",
				"username", a.username,
				"role", a.role,
				"business", a.business.name,
			)
		}
	}

	return nil
}

func seedOne(
	ctx context.Context,
	db *sqlx.DB,
	a seedAccount,
	password string,
) (bool, error) {
	var existing string
	err := db.GetContext(ctx, &existing,
		db.Rebind(`SELECT id FROM users WHERE username = ?`), a.username)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := core.HashPassword(password)
	if err != nil {
		return false, err
	}

	err = core.InTx(ctx, db, func(tx *sqlx.Tx) error {
		businessID, err := findOrCreateBusiness(ctx, tx, a.business)
		if err != nil {
			return err
		}

		now := core.Now()
		userID := uuid.NewString()

		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO users (
				id, username, email, password_hash, role,
				is_active, token_version, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, TRUE, 0, ?, ?)`),
			userID, a.username, a.username, hash, a.role, now, now,
		); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO user_businesses (user_id, business_id) VALUES (?, ?)`),
			userID, businessID,
		); err != nil {
			return fmt.Errorf("link business: %w", err)
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	return true, nil
}

func findOrCreateBusiness(
	ctx context.Context,
	tx *sqlx.Tx,
	b seedBusiness,
) (string, error) {
	var id string
	err := tx.GetContext(ctx, &id,
		tx.Rebind(`SELECT id FROM businesses WHERE name = ? ORDER BY created_at LIMIT 1`),
		b.name,
	)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("lookup business: %w", err)
	}

	id = uuid.NewString()
	now := core.Now()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO businesses (
			id, name, type, address, phone, email, capacity,
			average_service_time, is_active, created_at, updated_at
		) VALUES (?, ?, ?, '', '', ?, ?, ?, TRUE, ?, ?)`),
		id, b.name, b.kind, b.email, b.capacity, b.serviceTime, now, now,
	); err != nil {
		return "", fmt.Errorf("insert business: %w", err)
	}

	return id, nil
}
