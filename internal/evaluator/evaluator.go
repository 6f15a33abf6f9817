package evaluator

import (
	"fmt"
	"math"
	"strconv"
)

// Evaluator computes display models under a fixed Policy. It has no mutable
// state, so one value can be shared freely.
type Evaluator struct {
	policy Policy
}

// New returns an evaluator for policy. Empty policy fields take their defaults.
func New(policy Policy) (*Evaluator, error) {
	policy = policy.WithDefaults()
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{policy: policy}, nil
}

// Policy returns the policy in effect.
func (e *Evaluator) Policy() Policy {
	return e.policy
}

// Evaluate builds the display model for p.
func (e *Evaluator) Evaluate(p Payload) DisplayModel {
	if !e.searchActive(p) {
		return e.chatModel()
	}
	m := newDisplayModel(ModeSearch)
	for _, b := range Backends {
		m.Latency[b] = e.formatLatency(b, p.Metrics.Get(b))
	}
	for _, c := range Comparators {
		m.Overhead[c] = Compare(p.Metrics.Cyborg, p.Metrics.Get(c))
	}
	m.MetricsUpdated = true
	return m
}

func (e *Evaluator) searchActive(p Payload) bool {
	if p.ModeUsed != ModeSearch {
		return false
	}
	primary := p.Metrics.Cyborg
	if e.policy.Activation == ActivationPresent {
		return p.MetricsPresent && primary.Present
	}
	return primary.Present && primary.Seconds > 0
}

func (e *Evaluator) chatModel() DisplayModel {
	m := newDisplayModel(ModeChat)
	if e.policy.ChatMetrics == ChatMetricsRetain {
		return m
	}
	m.Latency[BackendCyborg] = e.policy.AbsentPrimaryText
	for _, c := range Comparators {
		m.Latency[c] = Placeholder
		m.Overhead[c] = Overhead{Text: Placeholder, Qualifier: NotAvailable}
	}
	m.MetricsUpdated = true
	return m
}

func (e *Evaluator) formatLatency(b Backend, m Measurement) string {
	if m.Present {
		return FormatSeconds(m.Seconds)
	}
	if b == BackendCyborg {
		return e.policy.AbsentPrimaryText
	}
	return Placeholder
}

// FormatSeconds renders s with four fractional digits and a seconds suffix.
func FormatSeconds(s float64) string {
	return fmt.Sprintf("%.4fs", s)
}

// Compare returns the overhead of primary relative to comparator. A zero
// difference counts as faster; a ratio too large for a float64 is not available.
func Compare(primary, comparator Measurement) Overhead {
	if !primary.Present || !comparator.Present || !(comparator.Seconds > 0) {
		return Overhead{Text: NotAvailableText, Qualifier: NotAvailable}
	}
	diff := ((primary.Seconds - comparator.Seconds) / comparator.Seconds) * 100
	if math.IsInf(diff, 0) || math.IsNaN(diff) {
		return Overhead{Text: NotAvailableText, Qualifier: NotAvailable}
	}
	if diff > 0 {
		return Overhead{Text: formatPercent(diff) + "% Slower", Qualifier: Slower}
	}
	return Overhead{Text: formatPercent(math.Abs(diff)) + "% Faster", Qualifier: Faster}
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}
