package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/domain"
	"github.com/phrazzld/deckforge/internal/store"
)

var _ store.RecordStore = (*MockRecordStore)(nil)

// MockRecordStore implements store.RecordStore for testing. Methods without
// a function field set delegate to Delegate, which defaults to an empty
// in-memory store.
type MockRecordStore struct {
	Delegate store.RecordStore

	SaveFn           func(ctx context.Context, p *domain.Presentation) error
	GetFn            func(ctx context.Context, id uuid.UUID) (*domain.Presentation, error)
	CompareAndSaveFn func(ctx context.Context, p *domain.Presentation, expectedVersion int64) error
	ListByStatusFn   func(
		ctx context.Context,
		status domain.PresentationStatus,
		updatedBefore time.Time,
		limit int,
	) ([]*domain.Presentation, error)
}

// NewMockRecordStore creates a MockRecordStore over a fresh memory store.
func NewMockRecordStore() *MockRecordStore {
	return &MockRecordStore{Delegate: store.NewMemoryStore()}
}

func (m *MockRecordStore) delegate() store.RecordStore {
	if m.Delegate == nil {
		m.Delegate = store.NewMemoryStore()
	}
	return m.Delegate
}

// Save implements store.RecordStore.
func (m *MockRecordStore) Save(ctx context.Context, p *domain.Presentation) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, p)
	}
	return m.delegate().Save(ctx, p)
}

// Get implements store.RecordStore.
func (m *MockRecordStore) Get(ctx context.Context, id uuid.UUID) (*domain.Presentation, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	return m.delegate().Get(ctx, id)
}

// CompareAndSave implements store.RecordStore.
func (m *MockRecordStore) CompareAndSave(ctx context.Context, p *domain.Presentation, expectedVersion int64) error {
	if m.CompareAndSaveFn != nil {
		return m.CompareAndSaveFn(ctx, p, expectedVersion)
	}
	return m.delegate().CompareAndSave(ctx, p, expectedVersion)
}

// ListByStatus implements store.RecordStore.
func (m *MockRecordStore) ListByStatus(
	ctx context.Context,
	status domain.PresentationStatus,
	updatedBefore time.Time,
	limit int,
) ([]*domain.Presentation, error) {
	if m.ListByStatusFn != nil {
		return m.ListByStatusFn(ctx, status, updatedBefore, limit)
	}
	return m.delegate().ListByStatus(ctx, status, updatedBefore, limit)
}
