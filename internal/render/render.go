// Package render draws chat messages and the latency dashboard. HTML backs the
// server page; Terminal backs the CLI chat.
package render

import "github.com/hyperjump/cyborgbench/internal/evaluator"

// ConnectivityErrorText is shown in the chat log when the server cannot be reached.
const ConnectivityErrorText = "Error connecting to server."

// Renderer receives one chat cycle at a time.
type Renderer interface {
	RenderUser(text string) error
	RenderBot(reply string) error
	RenderError(msg string) error
	RenderDashboard(m evaluator.DisplayModel) error
}

// Badge is the router mode indicator.
type Badge struct {
	Label string
	Class string
	Icon  string
}

// BadgeFor returns the badge shown for mode. Anything other than SEARCH shows as CHAT.
func BadgeFor(mode evaluator.Mode) Badge {
	if mode == evaluator.ModeSearch {
		return Badge{Label: "Router: SEARCH", Class: "badge bg-success border border-success p-2", Icon: "fa-database"}
	}
	return Badge{Label: "Router: CHAT", Class: "badge bg-secondary border border-secondary p-2", Icon: "fa-comments"}
}

// OverheadClass returns the CSS class of an overhead value.
func OverheadClass(q evaluator.Qualifier) string {
	switch q {
	case evaluator.Slower:
		return "fw-bold text-warning"
	case evaluator.Faster:
		return "fw-bold text-success"
	default:
		return "fw-bold text-secondary"
	}
}

// BackendLabel is the display name of a backend.
func BackendLabel(b evaluator.Backend) string {
	switch b {
	case evaluator.BackendCyborg:
		return "CyborgDB (encrypted)"
	case evaluator.BackendFaiss:
		return "FAISS"
	case evaluator.BackendChroma:
		return "ChromaDB"
	default:
		return string(b)
	}
}

// Metric is one labelled dashboard value.
type Metric struct {
	ID        string
	Label     string
	Value     string
	Class     string
	Qualifier evaluator.Qualifier
}

// DashboardView is a DisplayModel flattened into display order.
type DashboardView struct {
	Badge    Badge
	Latency  []Metric
	Overhead []Metric
}

// NewDashboardView orders m by backend. Missing entries show the placeholder.
func NewDashboardView(m evaluator.DisplayModel) DashboardView {
	v := DashboardView{Badge: BadgeFor(m.Mode)}
	for _, b := range evaluator.Backends {
		val, ok := m.Latency[b]
		if !ok {
			val = evaluator.Placeholder
		}
		v.Latency = append(v.Latency, Metric{ID: string(b) + "-val", Label: BackendLabel(b), Value: val})
	}
	for _, b := range evaluator.Comparators {
		o, ok := m.Overhead[b]
		if !ok {
			o = evaluator.Overhead{Text: evaluator.Placeholder, Qualifier: evaluator.NotAvailable}
		}
		v.Overhead = append(v.Overhead, Metric{
			ID:        "overhead-" + string(b),
			Label:     "vs " + BackendLabel(b),
			Value:     o.Text,
			Class:     OverheadClass(o.Qualifier),
			Qualifier: o.Qualifier,
		})
	}
	return v
}
