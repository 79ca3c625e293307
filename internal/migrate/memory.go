// AngelaMos | 2026
// memory.go

package migrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/waitlist-backend/internal/config"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

// OpenInMemory returns a migrated private sqlite database. Repository
// tests and throwaway local runs use it.
func OpenInMemory(ctx context.Context, logger *slog.Logger) (*core.Database, error) {
	db, err := core.NewDatabase(ctx, config.DatabaseConfig{
		Driver: config.DriverSQLite,
		URL:    ":memory:",
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory database: %w", err)
	}

	if err := Run(ctx, db, logger); err != nil {
		_ = db.Close() //nolint:errcheck // cleanup on migration failure
		return nil, err
	}

	return db, nil
}
