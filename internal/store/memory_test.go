package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/domain"
	"github.com/phrazzld/deckforge/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPresentation(t *testing.T) *domain.Presentation {
	t.Helper()
	p, err := domain.NewPresentation("Quarterly Review", domain.DefaultGenerationConfig())
	require.NoError(t, err)
	return p
}

func TestKey(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("6f1c2e1a-4b7d-4a43-9c1e-1a2b3c4d5e6f")
	assert.Equal(t, "presentation:6f1c2e1a-4b7d-4a43-9c1e-1a2b3c4d5e6f", store.Key(id))
}

func TestMemoryStore_SaveGetRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemoryStore()

	p := newPresentation(t)
	p.Config.CustomColors = &domain.TemplateColors{Background: "FFFFFF", Text: "000000", Title: "111111", Accent: "FF0000"}
	p.Config.CustomFont = "Arial"
	require.NoError(t, s.Save(ctx, p))
	assert.Equal(t, int64(1), p.Version)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestMemoryStore_SaveIsIdempotentUpsert(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemoryStore()

	p := newPresentation(t)
	require.NoError(t, s.Save(ctx, p))
	require.NoError(t, s.Save(ctx, p))

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, p.Topic, got.Topic)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	t.Parallel()
	s := store.NewMemoryStore()

	_, err := s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, store.IsNotFoundError(err))
}

func TestMemoryStore_ReturnsIndependentCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemoryStore()

	p := newPresentation(t)
	require.NoError(t, s.Save(ctx, p))

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	got.Topic = "changed"

	again, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly Review", again.Topic)
}

func TestMemoryStore_CompareAndSave(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemoryStore()

	p := newPresentation(t)
	require.NoError(t, s.Save(ctx, p))

	first, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	second, err := s.Get(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, first.BeginProcessing())
	require.NoError(t, s.CompareAndSave(ctx, first, 1))
	assert.Equal(t, int64(2), first.Version)

	second.Config.NumSlides = 9
	err = s.CompareAndSave(ctx, second, 1)
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	stored, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, stored.Status)
	assert.Equal(t, domain.DefaultNumSlides, stored.Config.NumSlides)

	missing := newPresentation(t)
	err = s.CompareAndSave(ctx, missing, 0)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestMemoryStore_RejectsInvalid(t *testing.T) {
	t.Parallel()
	s := store.NewMemoryStore()

	p := newPresentation(t)
	p.Topic = ""
	assert.ErrorIs(t, s.Save(context.Background(), p), store.ErrInvalidEntity)
	assert.ErrorIs(t, s.Save(context.Background(), nil), store.ErrInvalidEntity)
}

func TestMemoryStore_ListByStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemoryStore()

	old := newPresentation(t)
	old.UpdatedAt = time.Now().Add(-time.Hour).UTC()
	older := newPresentation(t)
	older.UpdatedAt = time.Now().Add(-2 * time.Hour).UTC()
	fresh := newPresentation(t)
	processing := newPresentation(t)
	processing.UpdatedAt = time.Now().Add(-3 * time.Hour).UTC()
	processing.Status = domain.StatusProcessing

	for _, p := range []*domain.Presentation{old, older, fresh, processing} {
		require.NoError(t, s.Save(ctx, p))
	}

	cutoff := time.Now().Add(-30 * time.Minute)
	got, err := s.ListByStatus(ctx, domain.StatusPending, cutoff, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, older.ID, got[0].ID)
	assert.Equal(t, old.ID, got[1].ID)

	limited, err := s.ListByStatus(ctx, domain.StatusPending, cutoff, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, older.ID, limited[0].ID)
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("applies mutation", func(t *testing.T) {
		t.Parallel()
		s := store.NewMemoryStore()
		p := newPresentation(t)
		require.NoError(t, s.Save(ctx, p))

		got, err := store.Update(ctx, s, p.ID, func(p *domain.Presentation) error {
			return p.BeginProcessing()
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusProcessing, got.Status)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("mutation error aborts", func(t *testing.T) {
		t.Parallel()
		s := store.NewMemoryStore()
		p := newPresentation(t)
		require.NoError(t, s.Save(ctx, p))

		boom := errors.New("boom")
		_, err := store.Update(ctx, s, p.ID, func(*domain.Presentation) error { return boom })
		assert.ErrorIs(t, err, boom)

		stored, err := s.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.Version)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		_, err := store.Update(ctx, store.NewMemoryStore(), uuid.New(), func(*domain.Presentation) error { return nil })
		assert.ErrorIs(t, err, store.ErrRecordNotFound)
	})

	t.Run("concurrent updates all land", func(t *testing.T) {
		t.Parallel()
		s := store.NewMemoryStore()
		p := newPresentation(t)
		p.Config.NumSlides = 1
		require.NoError(t, s.Save(ctx, p))

		var wg sync.WaitGroup
		var mu sync.Mutex
		var applied int
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Update(ctx, s, p.ID, func(p *domain.Presentation) error {
					p.Config.NumSlides++
					return nil
				})
				if err == nil {
					mu.Lock()
					applied++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		stored, err := s.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 1+applied, stored.Config.NumSlides)
	})
}
