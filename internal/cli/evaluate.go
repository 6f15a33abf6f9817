package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperjump/cyborgbench/internal/evaluator"
	"github.com/hyperjump/cyborgbench/internal/models"
)

func newEvaluateCmd() *cobra.Command {
	var policy policyFlags
	cmd := &cobra.Command{
		Use:   "evaluate [file|-]",
		Short: "Evaluate a /get_response JSON body and print the display model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			p, err := policy.apply(cfg.Evaluator)
			if err != nil {
				return err
			}
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return evaluateJSON(in, cmd.OutOrStdout(), p)
		},
	}
	policy.bind(cmd)
	return cmd
}

// evaluateJSON decodes one response body from r and writes its display model to w.
func evaluateJSON(r io.Reader, w io.Writer, policy evaluator.Policy) error {
	var resp models.ChatResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return fmt.Errorf("invalid response JSON: %w", err)
	}
	eval, err := evaluator.New(policy)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(eval.Evaluate(resp.Payload()))
}
