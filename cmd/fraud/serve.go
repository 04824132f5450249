package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/the-fraud-must-flow/internal/common"
	"github.com/Veraticus/the-fraud-must-flow/internal/engine"
	"github.com/Veraticus/the-fraud-must-flow/internal/httpapi"
)

const (
	shutdownTimeout = 10 * time.Second
	drainTimeout    = 30 * time.Second
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the transaction API",
		Long: `Start the HTTP API and the background flush loop.

Generated transactions are visible immediately and persisted to SQLite on every
flush interval. On shutdown any queued transactions are flushed one last time.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default: server.addr, :4000)")
	cmd.Flags().Duration("flush-interval", 0, "interval between queue flushes (default: queue.flush_interval, 5s)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if interval, _ := cmd.Flags().GetDuration("flush-interval"); interval > 0 {
		cfg.Queue.FlushInterval = interval
	}

	store, err := initStorage(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng, err := initEngine(cfg, store)
	if err != nil {
		return err
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.NewServer(eng).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Starting fraud API",
		"addr", cfg.Server.Addr,
		"database", store.Path(),
		"flush_interval", cfg.Queue.FlushInterval,
		"notify", cfg.Notify.Driver)

	serveErr := serve(cmd.Context(), srv, eng, cfg.Queue.FlushInterval)

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := drain(drainCtx, eng); err != nil && serveErr == nil {
		serveErr = err
	}

	return serveErr
}

// serve runs the HTTP server and the flush loop until ctx is cancelled or the
// server fails.
func serve(ctx context.Context, srv *http.Server, eng *engine.FraudEngine, interval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		eng.Queue().Run(ctx, ticker.C)
		return nil
	})

	return g.Wait()
}

// drain makes a final attempt to persist queued transactions.
func drain(ctx context.Context, eng *engine.FraudEngine) error {
	pending := eng.Queue().Len()
	if pending == 0 {
		return nil
	}

	slog.Info("Flushing queued transactions before exit", "pending", pending)
	if err := eng.Queue().Drain(ctx, nil); err != nil {
		common.LogError(err, "Queued transactions were not persisted", common.Fields{"pending": eng.Queue().Len()})
		return fmt.Errorf("failed to flush queued transactions: %w", err)
	}
	return nil
}
