// Package tests contains end-to-end and database integration tests for the
// auth server.
package tests

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pocketauth/pocketauth/internal/db"
)

// PrepareDatabase runs migrations against a test database
func PrepareDatabase(database *sql.DB) error {
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate test database: %w", err)
	}
	return nil
}

// TruncateTables clears all rows for a clean test state
func TruncateTables(ctx context.Context, database *sql.DB) error {
	_, err := database.ExecContext(ctx, "TRUNCATE TABLE tokens, users")
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
