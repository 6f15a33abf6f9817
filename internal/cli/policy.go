package cli

import (
	"github.com/spf13/cobra"

	"github.com/hyperjump/cyborgbench/internal/evaluator"
)

// policyFlags overrides the configured evaluator policy from the command line.
type policyFlags struct {
	chatMetrics   string
	absentPrimary string
	activation    string
}

func (f *policyFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.chatMetrics, "chat-metrics", "", "metrics panel in CHAT mode: reset or retain")
	cmd.Flags().StringVar(&f.absentPrimary, "absent-primary", "", `primary latency text when unmeasured: "--" or "0.000s"`)
	cmd.Flags().StringVar(&f.activation, "activation", "", "SEARCH badge rule: positive or present")
}

// apply returns base with every non-empty flag applied, validated.
func (f *policyFlags) apply(base evaluator.Policy) (evaluator.Policy, error) {
	p := base
	if f.chatMetrics != "" {
		p.ChatMetrics = evaluator.ChatMetricsPolicy(f.chatMetrics)
	}
	if f.absentPrimary != "" {
		p.AbsentPrimaryText = f.absentPrimary
	}
	if f.activation != "" {
		p.Activation = evaluator.ActivationRule(f.activation)
	}
	p = p.WithDefaults()
	if err := p.Validate(); err != nil {
		return evaluator.Policy{}, err
	}
	return p, nil
}
