package persistence

import (
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/iota-uz/orgchart/migrations"
	"github.com/iota-uz/orgchart/pkg/configuration"
)

// NewMigrator returns a goose provider for the embedded migrations of driver.
// Closing the provider closes db.
func NewMigrator(db *sql.DB, driver string) (*goose.Provider, error) {
	var dialect goose.Dialect
	switch driver {
	case configuration.DriverPostgres:
		dialect = goose.DialectPostgres
	case configuration.DriverSQLite:
		dialect = goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("migrate: unsupported driver %q", driver)
	}

	fsys, err := fs.Sub(migrations.FS, driver)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return provider, nil
}
