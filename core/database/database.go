package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"booking-insights/core/config"
	"booking-insights/core/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know about.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type IDatabase interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	Rebind(query string) string
}

type Database struct {
	sqlx   *sqlx.DB
	driver string
}

// Open connects using the configured driver and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*Database, error) {
	log = logger.OrDefault(log)

	driver, dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}

	sqlxDB, err := sqlx.Open(driver, dsn)
	if err != nil {
		log.Error("Database:Open:Error", "driver", driver, "error", err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen, maxIdle := cfg.MaxOpenConns, cfg.MaxIdleConns
	if driver == config.DriverSQLite {
		// One long-lived connection: a single writer, and ":memory:" survives.
		maxOpen, maxIdle = 1, 1
	}
	sqlxDB.SetMaxOpenConns(maxOpen)
	sqlxDB.SetMaxIdleConns(maxIdle)
	sqlxDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlxDB.PingContext(pingCtx); err != nil {
		_ = sqlxDB.Close()
		log.Error("Database:Open:Ping:Error", "driver", driver, "error", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database:Open:Success",
		"driver", driver,
		"host", cfg.Host,
		"database", cfg.Name,
		"maxOpenConns", maxOpen,
		"maxIdleConns", maxIdle,
	)
	return &Database{sqlx: sqlxDB, driver: driver}, nil
}

// Wrap adapts an already opened handle, mostly for tests.
func Wrap(db *sqlx.DB) *Database {
	return &Database{sqlx: db, driver: db.DriverName()}
}

func dataSource(cfg config.DatabaseConfig) (string, string, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return "postgres", fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslMode), nil
	case config.DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = "booking-insights.db"
		}
		return "sqlite", path, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func (d *Database) Driver() string {
	return d.driver
}

func (d *Database) Close() error {
	return d.sqlx.Close()
}

func (d *Database) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return d.sqlx.GetContext(ctx, dest, query, args...)
}

func (d *Database) NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error) {
	return d.sqlx.NamedExecContext(ctx, query, arg)
}

// Rebind converts '?' placeholders to the driver's bind style.
func (d *Database) Rebind(query string) string {
	return d.sqlx.Rebind(query)
}
