package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/domain"
	"github.com/phrazzld/deckforge/internal/platform/logger"
)

// KeyPrefix is prepended to every presentation id to form its record key.
const KeyPrefix = "presentation:"

// DefaultUpdateAttempts bounds the read-modify-write loop in Update.
const DefaultUpdateAttempts = 5

// Key returns the record key for a presentation id.
func Key(id uuid.UUID) string {
	return KeyPrefix + id.String()
}

// RecordStore persists presentation records.
//
// Every successful write increments the record's version and writes the new
// value back into the presentation passed in.
type RecordStore interface {
	// Save unconditionally writes the whole record. It is atomic per key.
	Save(ctx context.Context, p *domain.Presentation) error

	// Get returns the record for id, or ErrRecordNotFound.
	Get(ctx context.Context, id uuid.UUID) (*domain.Presentation, error)

	// CompareAndSave writes p only if the stored version equals
	// expectedVersion. It returns ErrVersionConflict when the version has
	// moved and ErrRecordNotFound when the record does not exist.
	CompareAndSave(ctx context.Context, p *domain.Presentation, expectedVersion int64) error

	// ListByStatus returns up to limit records in status whose last update
	// is older than updatedBefore, oldest first.
	ListByStatus(
		ctx context.Context,
		status domain.PresentationStatus,
		updatedBefore time.Time,
		limit int,
	) ([]*domain.Presentation, error)
}

// MutateFn changes a freshly read record in place. Returning an error aborts
// the update without writing.
type MutateFn func(p *domain.Presentation) error

// Update reads the record for id, applies fn, and writes it back with a
// compare-and-save. A lost race re-reads and re-applies fn, up to
// DefaultUpdateAttempts times. It returns the record as stored.
func Update(ctx context.Context, s RecordStore, id uuid.UUID, fn MutateFn) (*domain.Presentation, error) {
	log := logger.FromContextOrDefault(ctx, slog.Default())

	for attempt := 1; attempt <= DefaultUpdateAttempts; attempt++ {
		p, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		expected := p.Version
		if err := fn(p); err != nil {
			return nil, err
		}

		err = s.CompareAndSave(ctx, p, expected)
		if err == nil {
			return p, nil
		}
		if !IsVersionConflict(err) {
			return nil, err
		}

		log.Debug("version conflict, retrying update",
			slog.String("key", Key(id)),
			slog.Int("attempt", attempt))
	}

	return nil, fmt.Errorf("%w: %s", ErrTooManyConflicts, Key(id))
}

// EncodeRecord serializes a presentation for storage.
func EncodeRecord(p *domain.Presentation) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, NewStoreError(Key(p.ID), "encode", "failed to marshal record", err)
	}
	return data, nil
}

// DecodeRecord deserializes a stored value and stamps it with version.
func DecodeRecord(key string, data []byte, version int64) (*domain.Presentation, error) {
	var p domain.Presentation
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, NewStoreError(key, "decode", "failed to unmarshal record",
			fmt.Errorf("%w: %v", ErrCorruptRecord, err))
	}
	p.Version = version
	return &p, nil
}

// ValidateForSave checks a record before it is written.
func ValidateForSave(p *domain.Presentation) error {
	if p == nil {
		return fmt.Errorf("%w: nil presentation", ErrInvalidEntity)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntity, err)
	}
	return nil
}
