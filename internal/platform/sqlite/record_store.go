package sqlite

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
		VALUES (?, ?, ?, 1, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value,
		    version = presentation_records.version + 1,
		    status = excluded.status,
		    updated_at = excluded.updated_at
		RETURNING version`

	getRecordQuery = `SELECT value, version FROM presentation_records WHERE key = ?`

	compareAndSaveQuery = `
		UPDATE presentation_records
		SET value = ?, version = version + 1, status = ?, updated_at = ?
		WHERE key = ? AND version = ?`

	recordExistsQuery = `SELECT EXISTS (SELECT 1 FROM presentation_records WHERE key = ?)`

	listByStatusQuery = `
		SELECT key, value, version
		FROM presentation_records
		WHERE status = ? AND updated_at < ?
		ORDER BY updated_at ASC
		LIMIT ?`
)

// RecordStore implements store.RecordStore on the presentation_records table.
type RecordStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.RecordStore = (*RecordStore)(nil)

// NewRecordStore creates a RecordStore over db.
func NewRecordStore(db *sql.DB, logger *slog.Logger) *RecordStore {
	return &RecordStore{
		db:     db,
		logger: logger.With("component", "sqlite_record_store"),
	}
}

// Save implements store.RecordStore.
func (s *RecordStore) Save(ctx context.Context, p *domain.Presentation) error {
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
		key, p.ID.String(), string(value), string(p.Status), p.CreatedAt.UnixMicro(), p.UpdatedAt.UnixMicro(),
	).Scan(&version)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to save presentation record",
			"key", key, "error", err)
		return store.NewStoreError(key, "save", "failed to upsert record", MapError(err))
	}

	p.Version = version
	return nil
}

// Get implements store.RecordStore.
func (s *RecordStore) Get(ctx context.Context, id uuid.UUID) (*domain.Presentation, error) {
	key := store.Key(id)

	var (
		value   string
		version int64
	)
	err := s.db.QueryRowContext(ctx, getRecordQuery, key).Scan(&value, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrRecordNotFound
	}
	if err != nil {
		return nil, store.NewStoreError(key, "get", "failed to read record", MapError(err))
	}

	return store.DecodeRecord(key, []byte(value), version)
}

// CompareAndSave implements store.RecordStore.
func (s *RecordStore) CompareAndSave(ctx context.Context, p *domain.Presentation, expectedVersion int64) error {
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
			string(value), string(p.Status), p.UpdatedAt.UnixMicro(), key, expectedVersion)
		if err != nil {
			return store.NewStoreError(key, "compare-and-save", "failed to update record", MapError(err))
		}
		n, err := rowsAffected(result)
		if err != nil {
			return err
		}
		if n == 1 {
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
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, listByStatusQuery, string(status), updatedBefore.UnixMicro(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list presentations by status: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Presentation
	for rows.Next() {
		var (
			key     string
			value   string
			version int64
		)
		if err := rows.Scan(&key, &value, &version); err != nil {
			return nil, fmt.Errorf("failed to scan presentation row: %w", err)
		}
		p, err := store.DecodeRecord(key, []byte(value), version)
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
