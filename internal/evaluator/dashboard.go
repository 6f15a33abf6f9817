package evaluator

import "sync"

// Dashboard keeps the model currently on screen and applies each new payload
// to it. Under ChatMetricsRetain a CHAT payload only flips the mode badge.
type Dashboard struct {
	mu      sync.RWMutex
	eval    *Evaluator
	current DisplayModel
}

// NewDashboard starts in CHAT mode with every metric reset.
func NewDashboard(e *Evaluator) *Dashboard {
	initial := &Evaluator{policy: e.policy}
	initial.policy.ChatMetrics = ChatMetricsReset
	return &Dashboard{eval: e, current: initial.chatModel()}
}

// Apply evaluates p, merges it with the current model and returns the result.
func (d *Dashboard) Apply(p Payload) DisplayModel {
	next := d.eval.Evaluate(p)
	d.mu.Lock()
	defer d.mu.Unlock()
	if !next.MetricsUpdated {
		prev := d.current.Clone()
		next.Latency = prev.Latency
		next.Overhead = prev.Overhead
	}
	d.current = next
	return next.Clone()
}

// Current returns a copy of the model on screen.
func (d *Dashboard) Current() DisplayModel {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current.Clone()
}
