package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/cyborgbench/internal/ingest"
)

func newIngestCmd() *cobra.Command {
	var generate int
	cmd := &cobra.Command{
		Use:   "ingest [paths...]",
		Short: "Load files and/or synthetic transactions into every backend",
		Long: `Load records into the store, the keyword index and every vector backend.

Paths may be files or directories (csv, xlsx, pdf, docx, odt, rtf, txt, md).
With no paths, ingest.directories from the config is used. --generate N adds
N synthetic transactions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd, args, generate)
		},
	}
	cmd.Flags().IntVar(&generate, "generate", 0, "number of synthetic transactions to generate")
	return cmd
}

func runIngest(ctx context.Context, cmd *cobra.Command, paths []string, generate int) error {
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

	if len(paths) == 0 && generate == 0 {
		paths = cfg.Ingest.Directories
	}
	total := 0
	if len(paths) > 0 {
		loader := ingest.NewLoader(cfg.Ingest.Extensions, cfg.Ingest.RecursiveOrDefault(), logger)
		recs, err := loader.LoadPaths(ctx, paths)
		if err != nil {
			return err
		}
		if err := components.Pipeline.Ingest(ctx, recs); err != nil {
			return err
		}
		total += len(recs)
	}
	if generate > 0 {
		recs := ingest.NewGenerator(cfg.Ingest.Seed, cfg.Ingest.FraudRate).Generate(generate)
		if err := components.Pipeline.Ingest(ctx, recs); err != nil {
			return err
		}
		total += len(recs)
	}
	if err := components.Save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d records\n", total)
	return nil
}

// seedIfEmpty fills an empty store with n synthetic transactions.
func seedIfEmpty(ctx context.Context, c *Components, n int, seed int64, fraudRate float64, logger *zap.Logger) error {
	if n <= 0 {
		return nil
	}
	count, err := c.Storage.CountRecords(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	logger.Info("store is empty, generating synthetic transactions", zap.Int("count", n))
	if err := c.Pipeline.Ingest(ctx, ingest.NewGenerator(seed, fraudRate).Generate(n)); err != nil {
		return fmt.Errorf("failed to seed synthetic data: %w", err)
	}
	return c.Save()
}
