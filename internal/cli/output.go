package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/cyborgbench/internal/evaluator"
	"github.com/hyperjump/cyborgbench/internal/retrieval"
	"github.com/hyperjump/cyborgbench/pkg/utils"
)

// OutputFormat is the format for search result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

type hitOutput struct {
	ID            string  `json:"id"`
	Text          string  `json:"text"`
	Fraud         bool    `json:"fraud"`
	Amount        float64 `json:"amount"`
	Score         float64 `json:"score"`
	KeywordScore  float64 `json:"keyword_score"`
	SemanticScore float64 `json:"semantic_score"`
}

type searchOutput struct {
	Query     string                        `json:"query"`
	Corrected string                        `json:"corrected,omitempty"`
	Latencies map[evaluator.Backend]float64 `json:"latencies"`
	Hits      []hitOutput                   `json:"hits"`
}

func toSearchOutput(res *retrieval.SearchResult) searchOutput {
	out := searchOutput{
		Query:     res.Query,
		Corrected: res.Corrected,
		Latencies: make(map[evaluator.Backend]float64, len(res.Latencies)),
		Hits:      make([]hitOutput, 0, len(res.Hits)),
	}
	for b, d := range res.Latencies {
		out.Latencies[b] = d.Seconds()
	}
	for _, h := range res.Hits {
		out.Hits = append(out.Hits, hitOutput{
			ID:            h.Record.ID,
			Text:          h.Record.Text,
			Fraud:         h.Record.IsFraud(),
			Amount:        h.Record.Amount,
			Score:         h.Score,
			KeywordScore:  h.KeywordScore,
			SemanticScore: h.SemanticScore,
		})
	}
	return out
}

// WriteSearchResults writes a search result to w in the given format.
func WriteSearchResults(w io.Writer, res *retrieval.SearchResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(toSearchOutput(res))
	default:
		writeSearchResultsText(w, res)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, res *retrieval.SearchResult) {
	fmt.Fprintf(w, "\nFound %d results for %q", len(res.Hits), res.Query)
	if res.Corrected != "" {
		fmt.Fprintf(w, " (keyword leg used %q)", res.Corrected)
	}
	fmt.Fprintln(w)
	for _, b := range evaluator.Backends {
		if d, ok := res.Latencies[b]; ok {
			fmt.Fprintf(w, "  %-7s %s\n", b, evaluator.FormatSeconds(d.Seconds()))
		} else {
			fmt.Fprintf(w, "  %-7s %s\n", b, evaluator.Placeholder)
		}
	}
	fmt.Fprintln(w)
	for i, h := range res.Hits {
		label := "CLEARED"
		if h.Record.IsFraud() {
			label = "FRAUD"
		}
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%s] Rank: %d | Score: %.4f (Keyword: %.4f, Semantic: %.4f)\n",
			label, i+1, h.Score, h.KeywordScore, h.SemanticScore)
		fmt.Fprintf(w, "ID: %s\n", h.Record.ID)
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(h.Record.Text, 200))
	}
}
