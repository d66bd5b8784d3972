package task_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/domain"
	"github.com/phrazzld/deckforge/internal/events"
	"github.com/phrazzld/deckforge/internal/generation"
	"github.com/phrazzld/deckforge/internal/mocks"
	"github.com/phrazzld/deckforge/internal/queue"
	"github.com/phrazzld/deckforge/internal/store"
	"github.com/phrazzld/deckforge/internal/task"
	"github.com/phrazzld/deckforge/internal/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	store       *mocks.MockRecordStore
	generator   *mocks.MockGenerator
	synthesizer *mocks.MockSynthesizer
	artifacts   *mocks.MockArtifacts
	transitions *transitionRecorder
	executor    *task.PresentationExecutor
}

type transitionRecorder struct {
	mu  sync.Mutex
	got []string
}

func (r *transitionRecorder) HandleEvent(_ context.Context, e *events.StatusChangedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, string(e.From)+"->"+string(e.To))
	return nil
}

func (r *transitionRecorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.got...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:       mocks.NewMockRecordStore(),
		generator:   mocks.NewMockGeneratorWithSlides(domain.DefaultNumSlides),
		synthesizer: &mocks.MockSynthesizer{Path: "/out/deck.pptx"},
		artifacts:   &mocks.MockArtifacts{},
		transitions: &transitionRecorder{},
	}

	emitter := events.NewInMemoryEventEmitter(testLogger())
	emitter.RegisterHandler(h.transitions)

	resolver := templates.NewResolver(templates.BuiltinCatalog(), templates.NewCache(), testLogger())
	exec, err := task.NewPresentationExecutor(task.ExecutorDeps{
		Store:       h.store,
		Templates:   resolver,
		Generator:   h.generator,
		Synthesizer: h.synthesizer,
		Artifacts:   h.artifacts,
		Emitter:     emitter,
		Logger:      testLogger(),
	})
	require.NoError(t, err)
	h.executor = exec
	return h
}

func (h *harness) seed(t *testing.T, cfg domain.GenerationConfig) *domain.Presentation {
	t.Helper()
	p, err := domain.NewPresentation("Quarterly Review", cfg)
	require.NoError(t, err)
	require.NoError(t, h.store.Save(context.Background(), p))
	return p
}

func (h *harness) reload(t *testing.T, id uuid.UUID) *domain.Presentation {
	t.Helper()
	p, err := h.store.Get(context.Background(), id)
	require.NoError(t, err)
	return p
}

func TestExecute_CompletesPendingPresentation(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	p := h.seed(t, domain.DefaultGenerationConfig())

	require.NoError(t, h.executor.Execute(context.Background(), p.ID, false))

	got := h.reload(t, p.ID)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, "/out/deck.pptx", got.FilePath)
	require.NotNil(t, got.Content)
	assert.Len(t, got.Content.Slides, domain.DefaultNumSlides)
	assert.Empty(t, got.ErrorMessage)

	assert.Equal(t, []string{"pending->processing", "processing->completed"}, h.transitions.list())
	require.Len(t, h.synthesizer.Templates(), 1)
	assert.Equal(t, domain.DefaultTemplateName, h.synthesizer.Templates()[0].Name)
	assert.Empty(t, h.artifacts.Removed())
}

func TestExecute_ThreeSlideStandardDeck(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.generator = mocks.NewMockGeneratorWithSlides(3)
	exec, err := task.NewPresentationExecutor(task.ExecutorDeps{
		Store:       h.store,
		Templates:   templates.NewResolver(templates.BuiltinCatalog(), templates.NewCache(), testLogger()),
		Generator:   h.generator,
		Synthesizer: h.synthesizer,
		Artifacts:   h.artifacts,
		Logger:      testLogger(),
	})
	require.NoError(t, err)

	cfg := domain.DefaultGenerationConfig()
	cfg.NumSlides = 3
	cfg.AspectRatio = domain.AspectStandard
	p := h.seed(t, cfg)
	assert.Equal(t, domain.StatusPending, p.Status)

	require.NoError(t, exec.Execute(context.Background(), p.ID, false))

	got := h.reload(t, p.ID)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.NotEmpty(t, got.FilePath)
	require.NotNil(t, got.Content)
	require.Len(t, got.Content.Slides, 3)
	assert.Equal(t, "Quarterly Review", got.Content.Slides[0].Title)
	assert.Equal(t, []int{3}, h.generator.GenerateContentCalls.NumSlides)
}

func TestExecute_MissingRecordIsAcknowledged(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	assert.NoError(t, h.executor.Execute(context.Background(), uuid.New(), false))
	assert.Zero(t, h.generator.CallCount())
}

func TestExecute_TerminalRecordIsNoOp(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	p := h.seed(t, domain.DefaultGenerationConfig())
	require.NoError(t, h.executor.Execute(context.Background(), p.ID, false))
	before := h.reload(t, p.ID)

	require.NoError(t, h.executor.Execute(context.Background(), p.ID, true))

	after := h.reload(t, p.ID)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, 1, h.generator.CallCount())
}

func TestExecute_ProcessingRecord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		redelivered bool
		wantStatus  domain.PresentationStatus
		wantCalls   int
	}{
		{name: "duplicate delivery is skipped", redelivered: false, wantStatus: domain.StatusProcessing, wantCalls: 0},
		{name: "redelivery takes over", redelivered: true, wantStatus: domain.StatusCompleted, wantCalls: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			p := h.seed(t, domain.DefaultGenerationConfig())
			_, err := store.Update(context.Background(), h.store, p.ID, func(p *domain.Presentation) error {
				return p.BeginProcessing()
			})
			require.NoError(t, err)

			require.NoError(t, h.executor.Execute(context.Background(), p.ID, tc.redelivered))

			assert.Equal(t, tc.wantStatus, h.reload(t, p.ID).Status)
			assert.Equal(t, tc.wantCalls, h.generator.CallCount())
		})
	}
}

func TestExecute_FailuresAreRecorded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       func() domain.GenerationConfig
		setup     func(h *harness)
		wantInMsg string
	}{
		{
			name: "unknown template",
			cfg: func() domain.GenerationConfig {
				cfg := domain.DefaultGenerationConfig()
				cfg.TemplateName = "does_not_exist"
				return cfg
			},
			wantInMsg: "does_not_exist",
		},
		{
			name: "generator error",
			cfg:  domain.DefaultGenerationConfig,
			setup: func(h *harness) {
				h.generator.GenerateContentFn = nil
				h.generator.Err = generation.ErrContentBlocked
			},
			wantInMsg: "safety",
		},
		{
			name: "slide count mismatch",
			cfg:  domain.DefaultGenerationConfig,
			setup: func(h *harness) {
				h.generator.GenerateContentFn = mocks.NewMockGeneratorWithSlides(domain.DefaultNumSlides - 1).GenerateContentFn
			},
			wantInMsg: "slide",
		},
		{
			name: "synthesis error",
			cfg:  domain.DefaultGenerationConfig,
			setup: func(h *harness) {
				h.synthesizer.Err = errors.New("disk full")
			},
			wantInMsg: "disk full",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			if tc.setup != nil {
				tc.setup(h)
			}
			p := h.seed(t, tc.cfg())

			require.NoError(t, h.executor.Execute(context.Background(), p.ID, false))

			got := h.reload(t, p.ID)
			assert.Equal(t, domain.StatusFailed, got.Status)
			assert.Contains(t, got.ErrorMessage, tc.wantInMsg)
			assert.Nil(t, got.Content)
			assert.Empty(t, got.FilePath)
			assert.Equal(t, []string{"pending->processing", "processing->failed"}, h.transitions.list())
		})
	}
}

func TestExecute_CustomTemplateReplacesNamedTemplate(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	cfg := domain.DefaultGenerationConfig()
	cfg.TemplateName = "does_not_exist"
	cfg.CustomColors = &domain.TemplateColors{Background: "#000000", Text: "FFFFFF", Title: "FF0000", Accent: "00FF00"}
	cfg.CustomFont = "Georgia"
	p := h.seed(t, cfg)

	require.NoError(t, h.executor.Execute(context.Background(), p.ID, false))

	assert.Equal(t, domain.StatusCompleted, h.reload(t, p.ID).Status)
	require.Len(t, h.synthesizer.Templates(), 1)
	used := h.synthesizer.Templates()[0]
	assert.Equal(t, domain.CustomTemplateName, used.Name)
	assert.Equal(t, "Georgia", used.Font)
	assert.Equal(t, "000000", used.Colors.Background)
}

func TestExecute_ColorsWithoutFontUseNamedTemplate(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	cfg := domain.DefaultGenerationConfig()
	cfg.TemplateName = "ocean"
	cfg.CustomColors = &domain.TemplateColors{Background: "000000", Text: "FFFFFF", Title: "FF0000", Accent: "00FF00"}
	p := h.seed(t, cfg)

	require.NoError(t, h.executor.Execute(context.Background(), p.ID, false))

	used := h.synthesizer.Templates()[0]
	assert.Equal(t, "ocean", used.Name)
	assert.Equal(t, "0B2545", used.Colors.Background, "no merge of custom and named values")
}

func TestExecute_CustomContentSkipsGenerator(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	cfg := domain.DefaultGenerationConfig()
	cfg.CustomContent = []domain.Slide{
		{Layout: domain.LayoutTitle, Title: "Mine", Subtitle: "Hand written"},
		{Layout: domain.LayoutBulletPoints, Title: "Agenda", Points: []string{"One"}},
	}
	cfg.NumSlides = len(cfg.CustomContent)
	p := h.seed(t, cfg)

	require.NoError(t, h.executor.Execute(context.Background(), p.ID, false))

	got := h.reload(t, p.ID)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, "Mine", got.Content.Title)
	assert.Zero(t, h.generator.CallCount())
}

func TestExecute_SupersededOutcomeIsDiscarded(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	p := h.seed(t, domain.DefaultGenerationConfig())

	// Another worker takes the record over while this one is synthesizing.
	h.synthesizer.SynthesizeFn = func(ctx context.Context, _ *domain.PresentationData, _ domain.GenerationConfig, _ *domain.Template) (string, error) {
		_, err := store.Update(ctx, h.store, p.ID, func(cur *domain.Presentation) error {
			cur.UpdatedAt = domain.Now()
			return nil
		})
		require.NoError(t, err)
		return "/out/orphan.pptx", nil
	}

	require.NoError(t, h.executor.Execute(context.Background(), p.ID, false))

	got := h.reload(t, p.ID)
	assert.Equal(t, domain.StatusProcessing, got.Status, "the newer claim owns the record")
	assert.Equal(t, []string{"/out/orphan.pptx"}, h.artifacts.Removed())
	assert.Equal(t, []string{"pending->processing"}, h.transitions.list())
}

func TestExecute_FinalSaveFailureRequestsRedelivery(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	p := h.seed(t, domain.DefaultGenerationConfig())

	delegate := h.store.Delegate
	h.store.CompareAndSaveFn = func(ctx context.Context, rec *domain.Presentation, expected int64) error {
		if rec.Status.IsTerminal() {
			return errors.New("connection reset")
		}
		return delegate.CompareAndSave(ctx, rec, expected)
	}

	err := h.executor.Execute(context.Background(), p.ID, false)
	assert.ErrorIs(t, err, queue.ErrRedeliver)
	assert.Equal(t, domain.StatusProcessing, h.reload(t, p.ID).Status)
	assert.Equal(t, []string{"/out/deck.pptx"}, h.artifacts.Removed())
}

func TestExecute_ReadFailureRequestsRedelivery(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.store.GetFn = func(context.Context, uuid.UUID) (*domain.Presentation, error) {
		return nil, errors.New("database is down")
	}

	err := h.executor.Execute(context.Background(), uuid.New(), false)
	assert.ErrorIs(t, err, queue.ErrRedeliver)
}

func TestHandle(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	p := h.seed(t, domain.DefaultGenerationConfig())

	assert.NoError(t, h.executor.Handle(context.Background(), &queue.Job{
		ID: uuid.New(), Name: task.TypeGeneratePresentation, Payload: "not-a-uuid", Attempts: 1,
	}))

	require.NoError(t, h.executor.Handle(context.Background(), &queue.Job{
		ID: uuid.New(), Name: task.TypeGeneratePresentation, Payload: p.ID.String(), Attempts: 1,
	}))
	assert.Equal(t, domain.StatusCompleted, h.reload(t, p.ID).Status)
}

func TestExecute_ThroughPool(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	q := queue.NewMemoryQueue(10, testLogger())
	pool := queue.NewPool(q, queue.PoolConfig{Concurrency: 2, PollInterval: 10 * time.Millisecond}, testLogger())
	pool.Register(task.TypeGeneratePresentation, h.executor.Handle)
	pool.Start(context.Background())

	ids := make([]uuid.UUID, 0, 3)
	for range 3 {
		p := h.seed(t, domain.DefaultGenerationConfig())
		ids = append(ids, p.ID)
		_, err := q.Enqueue(context.Background(), task.TypeGeneratePresentation, p.ID.String())
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		for _, id := range ids {
			if h.reload(t, id).Status != domain.StatusCompleted {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Stop(ctx))
}

func TestNewPresentationExecutor_RequiresDeps(t *testing.T) {
	t.Parallel()
	_, err := task.NewPresentationExecutor(task.ExecutorDeps{Logger: testLogger()})
	assert.Error(t, err)
}

func TestExecute_UsesInjectedResolver(t *testing.T) {
	t.Parallel()

	plain := &domain.Template{
		Name:   "plain",
		Colors: domain.TemplateColors{Background: "FFFFFF", Text: "000000", Title: "111111", Accent: "222222"},
		Font:   "Arial",
	}

	tests := []struct {
		name       string
		resolver   *mocks.MockTemplateResolver
		wantStatus domain.PresentationStatus
		wantInMsg  string
	}{
		{
			name:       "known template",
			resolver:   mocks.NewMockTemplateResolver(plain),
			wantStatus: domain.StatusCompleted,
		},
		{
			name: "catalog unavailable",
			resolver: &mocks.MockTemplateResolver{
				ResolveFn: func(context.Context, string) (*domain.Template, error) {
					return nil, errors.New("template directory unreadable")
				},
			},
			wantStatus: domain.StatusFailed,
			wantInMsg:  "template directory unreadable",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			records := mocks.NewMockRecordStore()
			synthesizer := &mocks.MockSynthesizer{Path: "/out/plain.pptx"}
			exec, err := task.NewPresentationExecutor(task.ExecutorDeps{
				Store:       records,
				Templates:   tc.resolver,
				Generator:   mocks.NewMockGeneratorWithSlides(domain.DefaultNumSlides),
				Synthesizer: synthesizer,
				Artifacts:   &mocks.MockArtifacts{},
				Logger:      testLogger(),
			})
			require.NoError(t, err)

			cfg := domain.DefaultGenerationConfig()
			cfg.TemplateName = "plain"
			p, err := domain.NewPresentation("Quarterly Review", cfg)
			require.NoError(t, err)
			require.NoError(t, records.Save(context.Background(), p))

			require.NoError(t, exec.Execute(context.Background(), p.ID, false))

			got, err := records.Get(context.Background(), p.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, got.Status)
			assert.Contains(t, got.ErrorMessage, tc.wantInMsg)
			if tc.wantStatus == domain.StatusCompleted {
				require.Len(t, synthesizer.Templates(), 1)
				assert.Equal(t, "plain", synthesizer.Templates()[0].Name)
			}
		})
	}
}
