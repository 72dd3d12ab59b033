package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"booking-insights/core/logger"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func (d *Database) provider() (*goose.Provider, error) {
	dialect := goose.DialectPostgres
	if d.driver == "sqlite" {
		dialect = goose.DialectSQLite3
	}
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(dialect, d.sqlx.DB, fsys)
}

// Migrate applies all pending embedded migrations.
func (d *Database) Migrate(ctx context.Context, log *logger.Logger) error {
	log = logger.OrDefault(log)

	p, err := d.provider()
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		log.Error("Database:Migrate:Error", "error", err)
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		log.Info("Database:Migrate:Applied", "version", r.Source.Version, "duration", r.Duration.String())
	}
	return nil
}

// MigrationVersion reports the current schema version.
func (d *Database) MigrationVersion(ctx context.Context) (int64, error) {
	p, err := d.provider()
	if err != nil {
		return 0, err
	}
	return p.GetDBVersion(ctx)
}
