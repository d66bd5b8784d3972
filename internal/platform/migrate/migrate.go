// Package migrate applies the embedded schema migrations of a database
// backend with goose.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// TableName is the table goose records applied versions in.
const TableName = "schema_migrations"

// Commands accepted by Run.
const (
	CommandUp     = "up"
	CommandDown   = "down"
	CommandStatus = "status"
)

// ErrUnknownCommand is returned by Run for commands other than up, down and status.
var ErrUnknownCommand = errors.New("unknown migration command")

// Migrator runs one backend's migrations against a database.
type Migrator struct {
	provider *goose.Provider
	logger   *slog.Logger
}

// New creates a Migrator for the migrations at the root of fsys.
func New(db *sql.DB, dialect database.Dialect, fsys fs.FS, logger *slog.Logger) (*Migrator, error) {
	versions, err := database.NewStore(dialect, TableName)
	if err != nil {
		return nil, fmt.Errorf("create migration store: %w", err)
	}

	provider, err := goose.NewProvider("", db, fsys, goose.WithStore(versions))
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}

	return &Migrator{
		provider: provider,
		logger:   logger.With("component", "migrations", "dialect", string(dialect)),
	}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	start := time.Now()
	results, err := m.provider.Up(ctx)
	for _, r := range results {
		m.logResult(ctx, r)
	}
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	m.logger.InfoContext(ctx, "migrations applied",
		"applied", len(results),
		"version", version,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	result, err := m.provider.Down(ctx)
	if result != nil {
		m.logResult(ctx, result)
	}
	if err != nil {
		return fmt.Errorf("roll back migration: %w", err)
	}
	return nil
}

// Status describes one known migration.
type Status struct {
	Version   int64
	Path      string
	Applied   bool
	AppliedAt time.Time
}

// Status reports every known migration in version order.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("read migration status: %w", err)
	}

	out := make([]Status, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, Status{
			Version:   s.Source.Version,
			Path:      s.Source.Path,
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}

// Run executes command and writes a short report to out.
func (m *Migrator) Run(ctx context.Context, command string, out io.Writer) error {
	switch command {
	case CommandUp:
		return m.Up(ctx)
	case CommandDown:
		return m.Down(ctx)
	case CommandStatus:
		statuses, err := m.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			applied := "pending"
			if s.Applied {
				applied = s.AppliedAt.UTC().Format(time.RFC3339)
			}
			if _, err := fmt.Fprintf(out, "%-6d %-45s %s\n", s.Version, s.Path, applied); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
}

// Close closes the database the Migrator was created with.
func (m *Migrator) Close() error {
	return m.provider.Close()
}

func (m *Migrator) logResult(ctx context.Context, r *goose.MigrationResult) {
	attrs := []any{
		"direction", r.Direction,
		"duration_ms", r.Duration.Milliseconds(),
	}
	if r.Source != nil {
		attrs = append(attrs, "version", r.Source.Version, "path", r.Source.Path)
	}
	if r.Error != nil {
		m.logger.ErrorContext(ctx, "migration failed", append(attrs, "error", r.Error)...)
		return
	}
	m.logger.InfoContext(ctx, "migration applied", attrs...)
}
