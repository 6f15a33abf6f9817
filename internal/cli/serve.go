package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/cyborgbench/internal/evaluator"
	"github.com/hyperjump/cyborgbench/internal/ingest"
	"github.com/hyperjump/cyborgbench/internal/server"
	"github.com/hyperjump/cyborgbench/internal/watcher"
)

func newServeCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat server and dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), watch)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "watch ingest.directories and re-ingest changed files")
	return cmd
}

func runServe(ctx context.Context, watch bool) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := seedIfEmpty(ctx, components, cfg.Ingest.Generate, cfg.Ingest.Seed, cfg.Ingest.FraudRate, logger); err != nil {
		return err
	}
	if err := components.Resync(ctx); err != nil {
		return err
	}

	if watch {
		loader := ingest.NewLoader(cfg.Ingest.Extensions, cfg.Ingest.RecursiveOrDefault(), logger)
		w := watcher.New(cfg.Ingest.Directories, loader.Supports, cfg.Ingest.RecursiveOrDefault(),
			&watchHandler{loader: loader, pipeline: components.Pipeline, logger: logger},
			watcher.WithLogger(logger))
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	}

	eval, err := evaluator.New(cfg.Evaluator)
	if err != nil {
		return err
	}
	srv := server.NewServer(components.Pipeline, components.Storage, evaluator.NewDashboard(eval), cfg, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	select {
	case <-sigChan:
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	if err := components.Save(); err != nil {
		logger.Warn("vector index save failed", zap.Error(err))
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Stop(shutdownCtx)
}
