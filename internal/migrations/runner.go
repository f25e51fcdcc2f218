// Package migrations drives the schema for the processed_events and
// failed_events tables: embedded .sql files applied through
// golang-migrate against a Postgres connection.
package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/nova-stream/eventpipe/internal/pipeline"
)

// Runner applies or rolls back the embedded migration set against a
// single Postgres database.
type Runner struct {
	migrate *migrate.Migrate
	db      *sql.DB
}

// NewRunner opens dsn, validates the embedded migration set, and
// wires golang-migrate's Postgres driver to it. The worker's idempotent
// startup migration call is just Runner.Up on an already-migrated
// database, which golang-migrate reports as ErrNoChange rather than an
// error.
func NewRunner(dsn string) (*Runner, error) {
	src, err := newSource()
	if err != nil {
		return nil, pipeline.FatalStartupError("embedded migration validation failed", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, pipeline.FatalStartupError("failed to open migration database connection", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, pipeline.FatalStartupError("failed to reach migration database", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, pipeline.FatalStartupError("failed to create postgres migration driver", err)
	}

	sourceDriver, err := iofs.New(src.fs, ".")
	if err != nil {
		_ = db.Close()
		return nil, pipeline.FatalStartupError("failed to create embedded migration source", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, pipeline.FatalStartupError("failed to build migrate instance", err)
	}
	m.Log = &migrateLogger{}

	return &Runner{migrate: m, db: db}, nil
}

// Up applies every pending migration. Safe to call on every worker
// startup: a fully migrated database returns migrate.ErrNoChange,
// which Up treats as success.
func (r *Runner) Up() error {
	if err := r.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Down rolls back the single most recently applied migration.
func (r *Runner) Down() error {
	if err := r.migrate.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// Version reports the currently applied migration version and
// whether the database was left in a dirty state by a failed
// migration.
func (r *Runner) Version() (uint, bool, error) {
	version, dirty, err := r.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close releases both the migration source and the underlying
// database connection.
func (r *Runner) Close() error {
	var errs []error
	if sourceErr, dbErr := r.migrate.Close(); sourceErr != nil || dbErr != nil {
		errs = append(errs, sourceErr, dbErr)
	}
	if err := r.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...))
}

func (l *migrateLogger) Verbose() bool { return false }
