package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/domain"
)

type memoryEntry struct {
	data      []byte
	version   int64
	status    domain.PresentationStatus
	updatedAt time.Time
}

// MemoryStore is an in-process RecordStore. Records are kept serialized so
// that callers never share pointers with the store. It is only durable for
// the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryEntry
}

var _ RecordStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryEntry)}
}

// Save implements RecordStore.
func (s *MemoryStore) Save(ctx context.Context, p *domain.Presentation) error {
	if err := ValidateForSave(p); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(p.ID)
	next := s.records[key].version + 1
	return s.write(key, p, next)
}

// Get implements RecordStore.
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*domain.Presentation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entry, ok := s.records[Key(id)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrRecordNotFound
	}

	return DecodeRecord(Key(id), entry.data, entry.version)
}

// CompareAndSave implements RecordStore.
func (s *MemoryStore) CompareAndSave(ctx context.Context, p *domain.Presentation, expectedVersion int64) error {
	if err := ValidateForSave(p); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(p.ID)
	entry, ok := s.records[key]
	if !ok {
		return ErrRecordNotFound
	}
	if entry.version != expectedVersion {
		return NewStoreError(key, "compare-and-save", "stale version", ErrVersionConflict)
	}
	return s.write(key, p, expectedVersion+1)
}

// ListByStatus implements RecordStore.
func (s *MemoryStore) ListByStatus(
	ctx context.Context,
	status domain.PresentationStatus,
	updatedBefore time.Time,
	limit int,
) ([]*domain.Presentation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	type match struct {
		key   string
		entry memoryEntry
	}
	var matches []match
	for key, entry := range s.records {
		if entry.status == status && entry.updatedAt.Before(updatedBefore) {
			matches = append(matches, match{key: key, entry: entry})
		}
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].entry.updatedAt.Before(matches[j].entry.updatedAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]*domain.Presentation, 0, len(matches))
	for _, m := range matches {
		p, err := DecodeRecord(m.key, m.entry.data, m.entry.version)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// write stores p at version. Callers must hold s.mu.
func (s *MemoryStore) write(key string, p *domain.Presentation, version int64) error {
	prev := p.Version
	p.Version = version
	data, err := EncodeRecord(p)
	if err != nil {
		p.Version = prev
		return err
	}

	s.records[key] = memoryEntry{
		data:      data,
		version:   version,
		status:    p.Status,
		updatedAt: p.UpdatedAt,
	}
	return nil
}
