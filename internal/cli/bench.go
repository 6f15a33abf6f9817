package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/cyborgbench/internal/bench"
	"github.com/hyperjump/cyborgbench/internal/embedding"
)

func newBenchCmd() *cobra.Command {
	var samples int
	var out string
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark search latency of every backend and write a markdown report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if samples <= 0 {
				samples = cfg.Bench.Samples
			}
			if out == "" {
				out = cfg.Bench.ReportPath
			}

			components, err := initializeComponents(cfg, logger)
			if err != nil {
				return err
			}
			defer components.Close()

			ctx := cmd.Context()
			if err := seedIfEmpty(ctx, components, cfg.Ingest.Generate, cfg.Ingest.Seed, cfg.Ingest.FraudRate, logger); err != nil {
				return err
			}
			if err := components.Resync(ctx); err != nil {
				return err
			}
			queries, err := components.Storage.RandomTexts(ctx, samples)
			if err != nil {
				return err
			}
			if len(queries) == 0 {
				return fmt.Errorf("no records to sample queries from; run ingest first")
			}

			logger.Info("benchmark started", zap.Int("queries", len(queries)))
			res, err := bench.NewRunner(components.Pipeline, logger).Run(ctx, queries)
			if err != nil {
				return err
			}
			if ce, ok := components.Embedder.(*embedding.CachedEmbedder); ok {
				st := ce.Stats()
				logger.Debug("embedding cache", zap.Uint64("hits", st.Hits), zap.Uint64("misses", st.Misses), zap.Int("entries", st.Entries))
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create report: %w", err)
			}
			if err := bench.WriteReport(f, res); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Benchmark of %d queries written to %s\n", res.Queries, out)
			return nil
		},
	}
	cmd.Flags().IntVar(&samples, "samples", 0, "number of queries (default bench.samples)")
	cmd.Flags().StringVar(&out, "out", "", "report path (default bench.report_path)")
	return cmd
}
