package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/deckforge/internal/config"
	"github.com/phrazzld/deckforge/internal/platform/migrate"
	"github.com/phrazzld/deckforge/internal/platform/postgres"
	"github.com/phrazzld/deckforge/internal/platform/sqlite"
	"github.com/phrazzld/deckforge/internal/queue"
	"github.com/phrazzld/deckforge/internal/store"
)

// memoryQueueSize bounds the in-process queue used by the memory driver.
const memoryQueueSize = 1000

// errNoMigrations is returned by migrate for the memory driver.
var errNoMigrations = errors.New("the memory driver has no schema to migrate")

// jobQueue is a queue that can be closed on shutdown.
type jobQueue interface {
	queue.Queue
	Close()
}

// backend is the record store and job queue selected by database.driver.
type backend struct {
	driver  string
	records store.RecordStore
	jobs    jobQueue
	db      *sql.DB
}

// shared reports whether other processes can see this backend's records and
// jobs. The memory driver is private to one process.
func (b *backend) shared() bool {
	return b.db != nil
}

// close stops the queue and releases the database.
func (b *backend) close() error {
	if b.jobs != nil {
		b.jobs.Close()
	}
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// openDatabase connects to the configured SQL database. It returns a nil
// db for the memory driver.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.URL, logger)
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.URL, logger)
	case config.DriverMemory:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// newMigrator creates the migrator for the driver's embedded migrations.
func newMigrator(driver string, db *sql.DB, logger *slog.Logger) (*migrate.Migrator, error) {
	switch driver {
	case config.DriverPostgres:
		return postgres.NewMigrator(db, logger)
	case config.DriverSQLite:
		return sqlite.NewMigrator(db, logger)
	case config.DriverMemory:
		return nil, errNoMigrations
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// openBackend connects to the configured driver, applies pending migrations
// and builds the record store and job queue on top of it.
func openBackend(
	ctx context.Context,
	cfg config.DatabaseConfig,
	lease time.Duration,
	logger *slog.Logger,
) (*backend, error) {
	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	b := &backend{driver: cfg.Driver, db: db}
	switch cfg.Driver {
	case config.DriverPostgres:
		b.records = postgres.NewRecordStore(db, logger)
		b.jobs = postgres.NewJobQueue(db, lease, logger)
	case config.DriverSQLite:
		b.records = sqlite.NewRecordStore(db, logger)
		b.jobs = sqlite.NewJobQueue(db, lease, logger)
	default:
		b.records = store.NewMemoryStore()
		b.jobs = queue.NewMemoryQueue(memoryQueueSize, logger)
		logger.Warn("using in-memory store and queue, records are lost on exit")
		return b, nil
	}

	// The migrator is not closed here: closing it would close db.
	migrator, err := newMigrator(cfg.Driver, db, logger)
	if err == nil {
		err = migrator.Up(ctx)
	}
	if err != nil {
		_ = b.close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return b, nil
}
