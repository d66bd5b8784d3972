package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/deckforge/internal/api"
	"github.com/phrazzld/deckforge/internal/config"
	"github.com/phrazzld/deckforge/internal/document"
	"github.com/phrazzld/deckforge/internal/events"
	"github.com/phrazzld/deckforge/internal/generation"
	"github.com/phrazzld/deckforge/internal/platform/gemini"
	"github.com/phrazzld/deckforge/internal/queue"
	"github.com/phrazzld/deckforge/internal/service"
	"github.com/phrazzld/deckforge/internal/storage"
	"github.com/phrazzld/deckforge/internal/task"
	"github.com/phrazzld/deckforge/internal/telemetry"
	"github.com/phrazzld/deckforge/internal/templates"
)

// application holds the dependencies shared by the HTTP server and the
// worker, and releases them on cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger

	backend   *backend
	telemetry *telemetry.Provider
	metrics   *telemetry.Metrics
	emitter   *events.InMemoryEventEmitter
	artifacts *storage.FileStore

	presentations service.PresentationService
}

// newApplication opens the backend and builds the lifecycle service. The
// generation side is built separately by newWorker.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: logger}

	var err error
	app.telemetry, err = telemetry.NewProvider(cfg.Metrics.Enabled)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	app.metrics, err = telemetry.NewMetrics(app.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.emitter.RegisterHandler(events.LogHandler(logger))
	app.emitter.RegisterHandler(app.metrics)

	app.artifacts, err = storage.NewFileStore(cfg.Output.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact storage: %w", err)
	}

	app.backend, err = openBackend(ctx, cfg.Database, cfg.Worker.Lease, logger)
	if err != nil {
		return nil, err
	}

	app.presentations, err = service.NewPresentationService(
		app.backend.records,
		app.backend.jobs,
		app.artifacts,
		app.emitter,
		logger,
	)
	if err != nil {
		_ = app.backend.close()
		return nil, fmt.Errorf("failed to create presentation service: %w", err)
	}

	logger.Info("application initialized",
		"database_driver", app.backend.driver,
		"output_dir", app.artifacts.BasePath())
	return app, nil
}

// router builds the HTTP handler for the accepting process.
func (app *application) router() (http.Handler, error) {
	handler, err := api.NewPresentationHandler(app.presentations, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create presentation handler: %w", err)
	}

	httpMetrics, err := telemetry.NewHTTPMetrics(app.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	return api.NewRouter(api.RouterConfig{
		Presentations:    handler,
		Logger:           app.logger,
		APIKeys:          app.config.Server.APIKeys,
		CreateRateLimit:  app.config.Server.CreateRateLimit,
		DefaultRateLimit: app.config.Server.DefaultRateLimit,
		Metrics:          app.telemetry.Handler(),
		HTTPMetrics:      httpMetrics,
	}), nil
}

// newGenerator selects the content generator named by llm.provider.
func newGenerator(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (generation.ContentGenerator, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.NewGenerator(ctx, logger, cfg)
	case config.ProviderOutline:
		logger.Warn("using the offline outline generator, decks contain placeholder text")
		return generation.NewOutlineGenerator(), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", generation.ErrInvalidConfig, cfg.Provider)
	}
}

// newTemplateResolver layers templates.dir, when set, over the built-in catalog.
func newTemplateResolver(cfg config.TemplatesConfig, logger *slog.Logger) *templates.Resolver {
	catalog := templates.ChainCatalog{templates.BuiltinCatalog()}
	if cfg.Dir != "" {
		catalog = templates.ChainCatalog{templates.NewDirCatalog(cfg.Dir), catalog[0]}
		logger.Info("loading templates from directory", "dir", cfg.Dir)
	}
	if names, err := catalog.Names(); err != nil {
		logger.Warn("failed to list templates", "dir", cfg.Dir, "error", err)
	} else {
		logger.Info("templates available", "templates", names)
	}
	return templates.NewResolver(catalog, templates.NewCache(), logger)
}

// newWorker builds the generation pipeline and the pool that drives it.
func (app *application) newWorker(ctx context.Context) (*worker, error) {
	generator, err := newGenerator(ctx, app.config.LLM, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize content generator: %w", err)
	}

	synthesizer, err := document.NewPPTXWriter(app.artifacts, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create document writer: %w", err)
	}

	executor, err := task.NewPresentationExecutor(task.ExecutorDeps{
		Store:       app.backend.records,
		Templates:   newTemplateResolver(app.config.Templates, app.logger),
		Generator:   generator,
		Synthesizer: synthesizer,
		Artifacts:   app.artifacts,
		Emitter:     app.emitter,
		Metrics:     app.metrics,
		Logger:      app.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create presentation executor: %w", err)
	}

	wc := app.config.Worker
	pool := queue.NewPool(app.backend.jobs, queue.PoolConfig{
		Concurrency:        wc.Concurrency,
		PollInterval:       wc.PollInterval,
		LeaseRenewInterval: wc.Lease / 3,
	}, app.logger)
	pool.Register(task.TypeGeneratePresentation, executor.Handle)
	pool.SetObserver(app.metrics)

	reconciler := task.NewReconciler(app.backend.records, app.backend.jobs, task.ReconcilerConfig{
		Interval:   wc.ReconcileInterval,
		StaleAfter: wc.ReconcileAfter,
	}, app.logger)

	return &worker{pool: pool, reconciler: reconciler, logger: app.logger}, nil
}

// cleanup releases the backend and flushes telemetry.
func (app *application) cleanup(ctx context.Context) error {
	var errs []error
	if app.backend != nil {
		if err := app.backend.close(); err != nil {
			errs = append(errs, fmt.Errorf("close backend: %w", err))
		}
	}
	if app.telemetry != nil {
		if err := app.telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
		}
	}
	app.logger.Info("application shutdown completed")
	return errors.Join(errs...)
}
