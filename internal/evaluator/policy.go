package evaluator

import "fmt"

// Display placeholders.
const (
	Placeholder      = "--"
	ZeroPrimaryText  = "0.000s"
	NotAvailableText = "N/A"
)

// ChatMetricsPolicy decides what happens to the metrics panel in CHAT mode.
type ChatMetricsPolicy string

const (
	// ChatMetricsReset replaces every metric with a placeholder.
	ChatMetricsReset ChatMetricsPolicy = "reset"
	// ChatMetricsRetain leaves the previous search's metrics on screen.
	ChatMetricsRetain ChatMetricsPolicy = "retain"
)

// ActivationRule decides when a search-flagged payload shows as SEARCH.
type ActivationRule string

const (
	// ActivationPositive requires a primary measurement greater than zero.
	ActivationPositive ActivationRule = "positive"
	// ActivationPresent requires a metrics object carrying a primary
	// measurement of any value.
	ActivationPresent ActivationRule = "present"
)

// Policy selects between the behaviors the dashboard has historically shown.
type Policy struct {
	ChatMetrics ChatMetricsPolicy `yaml:"chat_metrics" json:"chat_metrics"`
	// AbsentPrimaryText is shown for the primary latency when it has no
	// measurement: Placeholder or ZeroPrimaryText.
	AbsentPrimaryText string         `yaml:"absent_primary" json:"absent_primary"`
	Activation        ActivationRule `yaml:"activation" json:"activation"`
}

// DefaultPolicy resets metrics in CHAT mode, shows "--" for a missing primary
// and requires a positive primary measurement for SEARCH.
func DefaultPolicy() Policy {
	return Policy{
		ChatMetrics:       ChatMetricsReset,
		AbsentPrimaryText: Placeholder,
		Activation:        ActivationPositive,
	}
}

// WithDefaults fills empty fields from DefaultPolicy.
func (p Policy) WithDefaults() Policy {
	d := DefaultPolicy()
	if p.ChatMetrics == "" {
		p.ChatMetrics = d.ChatMetrics
	}
	if p.AbsentPrimaryText == "" {
		p.AbsentPrimaryText = d.AbsentPrimaryText
	}
	if p.Activation == "" {
		p.Activation = d.Activation
	}
	return p
}

// Validate reports the first unsupported field value.
func (p Policy) Validate() error {
	switch p.ChatMetrics {
	case ChatMetricsReset, ChatMetricsRetain:
	default:
		return fmt.Errorf("unknown chat metrics policy %q (supported: reset, retain)", p.ChatMetrics)
	}
	switch p.AbsentPrimaryText {
	case Placeholder, ZeroPrimaryText:
	default:
		return fmt.Errorf("unknown absent primary text %q (supported: %q, %q)", p.AbsentPrimaryText, Placeholder, ZeroPrimaryText)
	}
	switch p.Activation {
	case ActivationPositive, ActivationPresent:
	default:
		return fmt.Errorf("unknown activation rule %q (supported: positive, present)", p.Activation)
	}
	return nil
}
