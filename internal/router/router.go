// Package router classifies a chat message as conversation or a fraud search.
package router

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/hyperjump/cyborgbench/internal/evaluator"
)

// searchTerms mark a message that describes a transaction, money or risk.
var searchTerms = map[string]struct{}{
	"transfer": {}, "transfers": {}, "transferred": {},
	"sent": {}, "send": {}, "wire": {}, "wired": {},
	"usd": {}, "eur": {}, "account": {}, "payment": {}, "paid": {},
	"fraud": {}, "fraudulent": {}, "scam": {}, "suspicious": {},
	"transaction": {}, "transactions": {}, "purchase": {},
	"offshore": {}, "crypto": {}, "panama": {}, "cayman": {}, "cyprus": {}, "russia": {},
}

// chatPhrases are greetings and meta questions.
var chatPhrases = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening",
	"who are you", "what can you do", "help", "thanks", "thank you", "are you a bot",
}

// amountPattern matches money: a currency sign ("$50", "€20"), a unit or
// currency suffix ("50k", "500 usd"), a thousands separator ("1,000") or
// cents ("12.50"). Bare counts and years ("2 questions", "2024") do not match.
var amountPattern = regexp.MustCompile(`[$€£]\s*\d|\b\d+(\.\d+)?\s*(k|m|usd|eur|gbp|dollars?|euros?)\b|\b\d{1,3}(,\d{3})+(\.\d+)?\b|\b\d+\.\d{2}\b`)

// Decision is the routing outcome for one message.
type Decision struct {
	Mode evaluator.Mode
	// Matched lists the terms that selected SEARCH; empty for CHAT.
	Matched []string
}

// Router is a keyword intent classifier. The zero value is ready to use.
type Router struct{}

// New creates a Router.
func New() *Router {
	return &Router{}
}

// Route returns SEARCH when the message mentions money, a transaction verb,
// a risk word or a watched location; otherwise CHAT. Greetings never
// override a money mention: "hi, I sent $500" is a search.
func (r *Router) Route(message string) Decision {
	lower := strings.ToLower(message)
	var matched []string
	seen := make(map[string]struct{})
	for _, word := range strings.Fields(lower) {
		tok := normalizeToken(word)
		if _, ok := searchTerms[tok]; ok {
			if _, dup := seen[tok]; !dup {
				seen[tok] = struct{}{}
				matched = append(matched, tok)
			}
		}
	}
	if m := amountPattern.FindString(lower); m != "" {
		matched = append(matched, strings.TrimSpace(m))
	}
	if len(matched) > 0 {
		return Decision{Mode: evaluator.ModeSearch, Matched: matched}
	}
	return Decision{Mode: evaluator.ModeChat}
}

// IsSmallTalk reports whether message is a greeting or a meta question.
func IsSmallTalk(message string) bool {
	words := strings.Fields(strings.ToLower(message))
	for i := range words {
		words[i] = normalizeToken(words[i])
	}
	joined := " " + strings.Join(words, " ") + " "
	for _, p := range chatPhrases {
		if strings.Contains(joined, " "+p+" ") {
			return true
		}
	}
	return false
}

// normalizeToken trims edge punctuation except '$'.
func normalizeToken(token string) string {
	return strings.TrimFunc(token, func(r rune) bool {
		return (unicode.IsPunct(r) || unicode.IsSymbol(r)) && r != '$'
	})
}
