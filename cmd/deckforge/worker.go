package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/deckforge/internal/queue"
	"github.com/phrazzld/deckforge/internal/task"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// errMemoryWorker is returned when a standalone worker is started on the
// memory driver, whose queue only exists inside the serving process.
var errMemoryWorker = errors.New("the memory driver cannot run a standalone worker, use serve --embedded-worker")

// worker runs the job pool and the orphan reconciler.
type worker struct {
	pool       *queue.Pool
	reconciler *task.Reconciler
	logger     *slog.Logger
}

// Run processes jobs until ctx is done, then waits up to stopTimeout for
// in-flight jobs to finish.
func (w *worker) Run(ctx context.Context, stopTimeout time.Duration) error {
	w.pool.Start(ctx)
	w.logger.Info("worker started")

	err := w.reconciler.Run(ctx)

	if stopTimeout <= 0 {
		stopTimeout = defaultShutdownTimeout
	}
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()
	return errors.Join(err, w.pool.Stop(stopCtx))
}

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background generation worker",
		Long: `Run the background worker that claims generate_presentation_task jobs,
generates slide content, renders PPTX files and records the outcome.

Requires the postgres or sqlite driver so that jobs are shared with serve.`,
		Args: cobra.NoArgs,
		RunE: runWorker,
	}
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.cleanup(context.WithoutCancel(ctx)); err != nil {
			logger.Error("cleanup failed", "error", err)
		}
	}()

	if !app.backend.shared() {
		return errMemoryWorker
	}

	w, err := app.newWorker(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx, cfg.Server.ShutdownTimeout)
	})

	if handler := app.telemetry.Handler(); handler != nil && cfg.Worker.MetricsPort > 0 {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Worker.MetricsPort),
			Handler:           metricsRouter(handler),
			ReadHeaderTimeout: 5 * time.Second,
		}
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("failed to listen for metrics: %w", err)
		}
		logger.Info("serving worker metrics", "addr", ln.Addr().String())
		g.Go(func() error {
			return serveUntilDone(gctx, srv, ln, cfg.Server.ShutdownTimeout, logger)
		})
	}

	return g.Wait()
}

// metricsRouter exposes the Prometheus handler and a liveness probe.
func metricsRouter(metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", metrics)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	})
	return r
}
