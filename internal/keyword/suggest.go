package keyword

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// Suggestion is a dictionary term close to a query term.
type Suggestion struct {
	Term      string
	Distance  int
	Frequency int
}

// Suggester proposes corrections for query terms missing from the index,
// e.g. "walmrt" -> "walmart".
type Suggester struct {
	dict        TermDictionary
	maxDistance int
	minFreq     int

	mu    sync.RWMutex
	terms map[string]int
}

// SuggesterOption configures a Suggester.
type SuggesterOption func(*Suggester)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SuggesterOption {
	return func(s *Suggester) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency ignores dictionary terms seen in fewer documents.
func WithMinFrequency(f int) SuggesterOption {
	return func(s *Suggester) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// NewSuggester creates a Suggester over dict. Call Refresh after the index changes.
func NewSuggester(dict TermDictionary, opts ...SuggesterOption) *Suggester {
	s := &Suggester{dict: dict, maxDistance: 2, minFreq: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh reloads the term dictionary.
func (s *Suggester) Refresh() error {
	terms, err := s.dict.Terms()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.terms = terms
	s.mu.Unlock()
	return nil
}

func (s *Suggester) loaded() map[string]int {
	s.mu.RLock()
	terms := s.terms
	s.mu.RUnlock()
	if terms != nil {
		return terms
	}
	if err := s.Refresh(); err != nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terms
}

// Suggest returns the best dictionary term for term, closest first and then
// most frequent. ok is false when term is known or nothing is close enough.
func (s *Suggester) Suggest(term string) (Suggestion, bool) {
	term = strings.ToLower(term)
	terms := s.loaded()
	if _, known := terms[term]; known {
		return Suggestion{}, false
	}
	var cands []Suggestion
	n := utf8.RuneCountInString(term)
	for t, freq := range terms {
		if freq < s.minFreq {
			continue
		}
		if d := utf8.RuneCountInString(t) - n; d > s.maxDistance || -d > s.maxDistance {
			continue
		}
		if dist := Levenshtein(term, t); dist <= s.maxDistance {
			cands = append(cands, Suggestion{Term: t, Distance: dist, Frequency: freq})
		}
	}
	if len(cands) == 0 {
		return Suggestion{}, false
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Distance != cands[j].Distance {
			return cands[i].Distance < cands[j].Distance
		}
		if cands[i].Frequency != cands[j].Frequency {
			return cands[i].Frequency > cands[j].Frequency
		}
		return cands[i].Term < cands[j].Term
	})
	return cands[0], true
}

// Correct rewrites query with the best suggestion for each unknown term.
// changed is false when every term is known or has no suggestion.
func (s *Suggester) Correct(query string) (corrected string, changed bool) {
	terms := tokenizeQuery(query)
	for i, t := range terms {
		// short tokens ("$", "to") produce noise
		if utf8.RuneCountInString(t) < 4 {
			continue
		}
		if sug, ok := s.Suggest(t); ok {
			terms[i] = sug.Term
			changed = true
		}
	}
	if !changed {
		return query, false
	}
	return strings.Join(terms, " "), true
}

// Levenshtein returns the edit distance between a and b, counting runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
