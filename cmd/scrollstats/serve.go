package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/scrollstats/internal/adapters/http/api"
	"github.com/okian/scrollstats/internal/adapters/http/swagger"
	"github.com/okian/scrollstats/internal/adapters/schedule"
	"github.com/okian/scrollstats/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the command API over HTTP",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := bootstrap(ctx, os.Stdout)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := c.logger

	go c.cache.Warm(ctx)

	if c.cfg.RefreshSchedule != "" {
		sched, err := schedule.New(c.cfg.RefreshSchedule, c.cache, schedule.WithLogger(logger.Named("schedule")))
		if err != nil {
			return err
		}
		stopSched, err := sched.Start(ctx)
		if err != nil {
			return err
		}
		defer stopSched()
	}

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(c.svc, api.WithLogger(logger.Named("http"))).Register(ctx, mux)

	srv := &http.Server{
		Addr:              c.cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", c.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}
