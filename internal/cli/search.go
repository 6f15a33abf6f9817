package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one timed search locally against every backend",
		Long: `Run a query through the local retrieval pipeline without a server and
print the fused hits and per-backend latency. The query is all remaining
arguments joined by spaces.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := OutputFormat(output)
			if format != OutputText && format != OutputJSON {
				return fmt.Errorf("unknown output format %q; use text or json", output)
			}
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("query is empty")
			}

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
			if err := components.Resync(cmd.Context()); err != nil {
				return err
			}

			res, err := components.Pipeline.Search(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			return WriteSearchResults(cmd.OutOrStdout(), res, format)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", string(OutputText), "output format: text or json")
	return cmd
}
