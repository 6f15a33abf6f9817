package bench

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/cyborgbench/internal/evaluator"
)

// BarWidth is the number of cells in an ASCII latency bar.
const BarWidth = 20

var backendLabels = map[evaluator.Backend]string{
	evaluator.BackendFaiss:  "FAISS (RAM)  ",
	evaluator.BackendChroma: "Chroma (Disk)",
	evaluator.BackendCyborg: "Cyborg (Enc) ",
}

// reportOrder lists the baseline first and the primary last.
var reportOrder = []evaluator.Backend{evaluator.BackendFaiss, evaluator.BackendChroma, evaluator.BackendCyborg}

// Bar renders val relative to maxVal as width cells of '█' and '░'.
func Bar(val, maxVal float64, width int) string {
	if maxVal <= 0 || width <= 0 {
		return ""
	}
	filled := int(val / maxVal * float64(width))
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// WriteReport renders r as markdown.
func WriteReport(w io.Writer, r *Result) error {
	stats := r.Summaries()
	var b strings.Builder

	fmt.Fprintf(&b, "# Benchmark: Encrypted vs Standard Vector Search\n\n")
	fmt.Fprintf(&b, "**Experiment Date:** %s\n", r.Started.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "**Workload:** %d sequential queries", r.Queries)
	if r.Failures > 0 {
		fmt.Fprintf(&b, " (%d failed)", r.Failures)
	}
	fmt.Fprintf(&b, "\n**Wall time:** %s\n\n---\n\n", r.Elapsed.Round(time.Millisecond))

	fmt.Fprintf(&b, "## 1. Summary\n\n")
	faiss, hasFaiss := stats[evaluator.BackendFaiss]
	cyborg, hasCyborg := stats[evaluator.BackendCyborg]
	if hasFaiss && hasCyborg {
		fmt.Fprintf(&b, "- **Privacy Cost:** %+.1f%% latency vs unencrypted memory.\n", OverheadPercent(cyborg.Avg, faiss.Avg))
	}
	if hasCyborg {
		fmt.Fprintf(&b, "- **Stability:** %.5f (standard deviation).\n", cyborg.StdDev)
	}
	if chroma, ok := stats[evaluator.BackendChroma]; ok && hasCyborg {
		fmt.Fprintf(&b, "- **Versus disk:** %+.1f%% latency vs on-disk index.\n", OverheadPercent(cyborg.Avg, chroma.Avg))
	}

	fmt.Fprintf(&b, "\n---\n\n## 2. Latency Comparison (P95)\n*(lower is better)*\n\n")
	maxP95 := 0.0
	for _, s := range stats {
		maxP95 = max(maxP95, s.P95)
	}
	for _, be := range reportOrder {
		s, ok := stats[be]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "`%s:` %s %s\n", backendLabels[be], Bar(s.P95, maxP95, BarWidth), evaluator.FormatSeconds(s.P95))
	}

	fmt.Fprintf(&b, "\n---\n\n## 3. Statistics\n\n")
	var present []evaluator.Backend
	for _, be := range reportOrder {
		if _, ok := stats[be]; ok {
			present = append(present, be)
		}
	}
	b.WriteString("| Metric |")
	for _, be := range present {
		fmt.Fprintf(&b, " %s |", strings.TrimSpace(backendLabels[be]))
	}
	b.WriteString("\n| :--- |")
	for range present {
		b.WriteString(" :--- |")
	}
	b.WriteString("\n")
	rows := []struct {
		name string
		get  func(Summary) float64
	}{
		{"Avg Latency", func(s Summary) float64 { return s.Avg }},
		{"Median (P50)", func(s Summary) float64 { return s.P50 }},
		{"P95", func(s Summary) float64 { return s.P95 }},
		{"P99", func(s Summary) float64 { return s.P99 }},
		{"Std Dev", func(s Summary) float64 { return s.StdDev }},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "| **%s** |", row.name)
		for _, be := range present {
			fmt.Fprintf(&b, " %s |", evaluator.FormatSeconds(row.get(stats[be])))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
