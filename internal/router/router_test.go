package router

import (
	"testing"

	"github.com/hyperjump/cyborgbench/internal/evaluator"
)

func TestRouter_Route(t *testing.T) {
	r := New()
	tests := []struct {
		msg  string
		want evaluator.Mode
	}{
		{"hi", evaluator.ModeChat},
		{"Hello!", evaluator.ModeChat},
		{"good morning", evaluator.ModeChat},
		{"who are you?", evaluator.ModeChat},
		{"are you a bot?", evaluator.ModeChat},
		{"what can you do", evaluator.ModeChat},
		{"sent $50k", evaluator.ModeSearch},
		{"is this transfer safe?", evaluator.ModeSearch},
		{"Wire to Panama", evaluator.ModeSearch},
		{"check my account", evaluator.ModeSearch},
		{"500 usd to cyprus", evaluator.ModeSearch},
		{"hi, I paid 1,200 yesterday", evaluator.ModeSearch},
		{"is this a scam", evaluator.ModeSearch},
		{"", evaluator.ModeChat},
		{"I have 2 questions", evaluator.ModeChat},
		{"hi, what can you do in 2024?", evaluator.ModeChat},
		{"hello 3", evaluator.ModeChat},
		{"charged 49.99 twice", evaluator.ModeSearch},
		{"lost 20k last week", evaluator.ModeSearch},
		{"€300 to a stranger", evaluator.ModeSearch},
		{"got 150 dollars back", evaluator.ModeSearch},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got := r.Route(tt.msg)
			if got.Mode != tt.want {
				t.Errorf("Route(%q) = %s (matched %v), want %s", tt.msg, got.Mode, got.Matched, tt.want)
			}
			if got.Mode == evaluator.ModeChat && len(got.Matched) != 0 {
				t.Errorf("CHAT decision should not carry matches: %v", got.Matched)
			}
		})
	}
}

func TestRouter_RouteMatchedTerms(t *testing.T) {
	got := New().Route("Urgent wire transfer, wire again")
	if len(got.Matched) != 2 || got.Matched[0] != "wire" || got.Matched[1] != "transfer" {
		t.Errorf("Matched = %v", got.Matched)
	}
}

func TestIsSmallTalk(t *testing.T) {
	cases := map[string]bool{
		"hey there":          true,
		"Thank you!":         true,
		"help":               true,
		"history of payment": false,
		"which":              false,
	}
	for msg, want := range cases {
		if got := IsSmallTalk(msg); got != want {
			t.Errorf("IsSmallTalk(%q) = %v, want %v", msg, got, want)
		}
	}
}
