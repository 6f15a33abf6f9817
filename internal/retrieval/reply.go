package retrieval

import (
	"fmt"
	"strings"

	"github.com/hyperjump/cyborgbench/internal/router"
)

const (
	greetingReply = "Hello! I screen transactions for fraud. Describe one, for example " +
		"\"sent $5,000 by wire to Panama\", and I will compare it against known records."
	capabilityReply = "I am a fraud screening assistant. I search an encrypted index of past " +
		"transactions for ones similar to yours and report whether they were flagged, " +
		"timing the encrypted search against two unencrypted ones.\n" +
		"Mention an amount, a destination or a transfer type to start a search."
	fallbackReply = "I can help with transaction screening. Mention an amount, a destination " +
		"or a transfer type and I will search for similar records."
)

// ChatReply is the conversational answer for a message routed to CHAT.
func ChatReply(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "who are you"), strings.Contains(lower, "what can you do"),
		strings.Contains(lower, "help"), strings.Contains(lower, "bot"):
		return capabilityReply
	case router.IsSmallTalk(message):
		return greetingReply
	default:
		return fallbackReply
	}
}

// SearchReply summarizes the hits of a search, one line per record.
func SearchReply(res *SearchResult) string {
	var b strings.Builder
	if res.Corrected != "" {
		fmt.Fprintf(&b, "Showing results for %q.\n", res.Corrected)
	}
	if len(res.Hits) == 0 {
		b.WriteString("No similar transactions found.")
		return b.String()
	}
	fraud := 0
	for _, h := range res.Hits {
		if h.Record.IsFraud() {
			fraud++
		}
	}
	fmt.Fprintf(&b, "Found %d similar transaction%s, %d flagged as fraud.\n", len(res.Hits), plural(len(res.Hits)), fraud)
	for i, h := range res.Hits {
		tag := "CLEARED"
		if h.Record.IsFraud() {
			tag = "FRAUD"
		}
		fmt.Fprintf(&b, "%d. [%s] %s (match %.2f)\n", i+1, tag, h.Record.Text, h.Score)
	}
	b.WriteString("Risk: ")
	b.WriteString(riskLevel(fraud, len(res.Hits)))
	return b.String()
}

func riskLevel(fraud, total int) string {
	switch {
	case fraud == 0:
		return "Low"
	case fraud*2 >= total:
		return "High"
	default:
		return "Medium"
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
