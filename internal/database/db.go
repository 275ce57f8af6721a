// Package database provides database setup, models, and the data access layer (Store).
// Postgres is the production backend; SQLite is supported for local runs and tests.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/threec/aurion/internal/config"
	"github.com/threec/aurion/migrations"

	_ "github.com/lib/pq"   //revive:disable:blank-imports
	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// Supported driver names, as registered with database/sql.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const sqliteDefaultPragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// NewDB connects, configures the pool, applies migrations and returns the pool.
func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPostgres
	}

	dsn := cfg.URL
	if driver == DriverSQLite {
		dsn = sqliteDSN(cfg.URL)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// SQLite doesn't support concurrent writes, so max open conns = 1
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := ApplyMigrations(db.DB, driver); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Error closing database after migration failure", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	slog.Info("Database connected and migrations applied successfully", "driver", driver)
	return db, nil
}

// CloseDB closes the database connection pool.
func CloseDB(db *sqlx.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		slog.Error("Error closing database connection", "error", err)
	} else {
		slog.Info("Database connection closed successfully.")
	}
}

// ApplyMigrations runs the embedded migrations for driver.
func ApplyMigrations(db *sql.DB, driver string) error {
	if db == nil {
		return errors.New("database connection is nil, cannot apply migrations")
	}

	slog.Info("Applying database migrations...", "driver", driver)

	sourceDriver, err := iofs.New(migrations.FS, migrations.Dir(driver))
	if err != nil {
		return fmt.Errorf("failed to create embed source driver instance: %w", err)
	}

	var dbDriver migratedb.Driver
	switch driver {
	case DriverPostgres:
		dbDriver, err = postgres.WithInstance(db, &postgres.Config{})
	case DriverSQLite:
		dbDriver, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s migration driver: %w", driver, err)
	}

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, driver, dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	migrateErr := migrator.Up()
	if migrateErr != nil {
		if errors.Is(migrateErr, migrate.ErrNoChange) {
			slog.Info("No database migrations to apply.")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", migrateErr)
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		slog.Warn("Could not read migration version", "error", err)
	}
	slog.Info("Database migrations applied successfully.", "version", version, "dirty", dirty)
	return nil
}

// sqliteDSN appends the default pragmas unless the caller set any.
func sqliteDSN(path string) string {
	if strings.Contains(path, "_pragma=") {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&" + sqliteDefaultPragmas
	}
	return path + "?" + sqliteDefaultPragmas
}
