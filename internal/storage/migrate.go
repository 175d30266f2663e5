package storage

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/GuiaBolso/darwin"
	"github.com/diegoclair/sqlmigrator"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

// Migrate applies the embedded schema migrations that have not run yet.
func Migrate(db *sql.DB) error {
	m := sqlmigrator.New(db, darwin.SqliteDialect{})
	if err := m.Migrate(sqlFiles, "sql"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
