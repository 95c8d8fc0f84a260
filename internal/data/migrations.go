package data

import (
	"context"
	"database/sql"

	"github.com/target/opsrelay/internal/migrate"
)

// RunMigrations applies the run-history schema by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB) ([]string, error) {
	return migrate.Run(ctx, db)
}
