package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/domain"
	"github.com/phrazzld/deckforge/internal/platform/logger"
	"github.com/phrazzld/deckforge/internal/store"
)

const (
	saveRecordQuery = `
		INSERT INTO presentation_records (key, id, value, version, status, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, $5, $6)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    version = presentation_records.version + 1,
		    status = EXCLUDED.status,
		    updated_at = EXCLUDED.updated_at
		RETURNING version`

	getRecordQuery = `SELECT value, version FROM presentation_records WHERE key = $1`

	compareAndSaveQuery = `
		UPDATE presentation_records
		SET value = $2, version = version + 1, status = $3, updated_at = $4
		WHERE key = $1 AND version = $5`

	recordExistsQuery = `SELECT EXISTS (SELECT 1 FROM presentation_records WHERE key = $1)`

	listByStatusQuery = `
		SELECT key, value, version
		FROM presentation_records
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at ASC
		LIMIT $3`
)

// RecordStore implements store.RecordStore on the presentation_records table.
// The version column is authoritative; the version inside the JSON value is
// informational.
type RecordStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.RecordStore = (*RecordStore)(nil)

// NewRecordStore creates a RecordStore over db.
func NewRecordStore(db *sql.DB, logger *slog.Logger) *RecordStore {
	return &RecordStore{
		db:     db,
		logger: logger.With("component", "postgres_record_store"),
	}
}

// Save implements store.RecordStore.
func (s *RecordStore) Save(ctx context.Context, p *domain.Presentation) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := store.ValidateForSave(p); err != nil {
		return err
	}

	key := store.Key(p.ID)
	value, err := store.EncodeRecord(p)
	if err != nil {
		return err
	}

	var version int64
	err = s.db.QueryRowContext(ctx, saveRecordQuery,
		key, p.ID, string(value), string(p.Status), p.CreatedAt, p.UpdatedAt,
	).Scan(&version)
	if err != nil {
		log.ErrorContext(ctx, "failed to save presentation record", "key", key, "error", err)
		return store.NewStoreError(key, "save", "failed to upsert record", MapError(err))
	}

	p.Version = version
	return nil
}

// Get implements store.RecordStore.
func (s *RecordStore) Get(ctx context.Context, id uuid.UUID) (*domain.Presentation, error) {
	key := store.Key(id)

	var (
		value   []byte
		version int64
	)
	err := s.db.QueryRowContext(ctx, getRecordQuery, key).Scan(&value, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrRecordNotFound
	}
	if err != nil {
		return nil, store.NewStoreError(key, "get", "failed to read record", MapError(err))
	}

	return store.DecodeRecord(key, value, version)
}

// CompareAndSave implements store.RecordStore. The update and the existence
// check run in one transaction so a miss is reported as either a conflict or
// a missing record, never both.
func (s *RecordStore) CompareAndSave(ctx context.Context, p *domain.Presentation, expectedVersion int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := store.ValidateForSave(p); err != nil {
		return err
	}

	key := store.Key(p.ID)
	next := *p
	next.Version = expectedVersion + 1
	value, err := store.EncodeRecord(&next)
	if err != nil {
		return err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, compareAndSaveQuery,
			key, string(value), string(p.Status), p.UpdatedAt, expectedVersion)
		if err != nil {
			return store.NewStoreError(key, "compare-and-save", "failed to update record", MapError(err))
		}
		if CheckRowsAffected(result, "presentation") == nil {
			return nil
		}

		var exists bool
		if err := tx.QueryRowContext(ctx, recordExistsQuery, key).Scan(&exists); err != nil {
			return store.NewStoreError(key, "compare-and-save", "failed to check record", MapError(err))
		}
		if !exists {
			return store.ErrRecordNotFound
		}
		return store.NewStoreError(key, "compare-and-save", "stale version", store.ErrVersionConflict)
	})
	if err != nil {
		if !store.IsVersionConflict(err) && !store.IsNotFoundError(err) {
			log.ErrorContext(ctx, "failed to compare-and-save presentation record", "key", key, "error", err)
		}
		return err
	}

	p.Version = next.Version
	return nil
}

// ListByStatus implements store.RecordStore. A non-positive limit returns
// every match.
func (s *RecordStore) ListByStatus(
	ctx context.Context,
	status domain.PresentationStatus,
	updatedBefore time.Time,
	limit int,
) ([]*domain.Presentation, error) {
	rows, err := s.db.QueryContext(ctx, listByStatusQuery,
		string(status), updatedBefore, sql.NullInt64{Int64: int64(limit), Valid: limit > 0})
	if err != nil {
		return nil, fmt.Errorf("failed to list presentations by status: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Presentation
	for rows.Next() {
		var (
			key     string
			value   []byte
			version int64
		)
		if err := rows.Scan(&key, &value, &version); err != nil {
			return nil, fmt.Errorf("failed to scan presentation row: %w", err)
		}
		p, err := store.DecodeRecord(key, value, version)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating presentation rows: %w", err)
	}
	return out, nil
}
