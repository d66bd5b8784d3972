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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server that accepts presentation requests under
/api/v1/presentations.

With --embedded-worker the generation worker runs in the same process. The
memory driver always runs the worker in process.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().Bool("embedded-worker", false, "Run the generation worker inside the server process")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	embedded, err := cmd.Flags().GetBool("embedded-worker")
	if err != nil {
		return fmt.Errorf("failed to get embedded-worker flag: %w", err)
	}

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

	router, err := app.router()
	if err != nil {
		return err
	}

	if !app.backend.shared() && !embedded {
		logger.Info("memory driver selected, running the worker in process")
		embedded = true
	}

	var w *worker
	if embedded {
		if w, err = app.newWorker(ctx); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}
	logger.Info("starting server", "addr", ln.Addr().String(), "embedded_worker", embedded)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return serveUntilDone(gctx, srv, ln, cfg.Server.ShutdownTimeout, logger)
	})
	if w != nil {
		g.Go(func() error {
			return w.Run(gctx, cfg.Server.ShutdownTimeout)
		})
	}
	return g.Wait()
}

// serveUntilDone serves on ln until ctx is done, then shuts srv down,
// giving open requests up to timeout to complete.
func serveUntilDone(
	ctx context.Context,
	srv *http.Server,
	ln net.Listener,
	timeout time.Duration,
	logger *slog.Logger,
) error {
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server", "timeout", timeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	logger.Info("server shutdown completed")
	return nil
}
