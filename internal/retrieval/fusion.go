package retrieval

import (
	"sort"

	"github.com/hyperjump/cyborgbench/internal/keyword"
	"github.com/hyperjump/cyborgbench/internal/vector"
)

// FusedResult holds a record ID and fused keyword/semantic scores.
type FusedResult struct {
	ID            string
	Score         float64
	KeywordScore  float64
	SemanticScore float64
}

// NormalizeKeywordScores scales BM25 scores to [0,1] by the maximum.
func NormalizeKeywordScores(results []*keyword.Result) map[string]float64 {
	normalized := make(map[string]float64, len(results))
	maxScore := 0.0
	for _, r := range results {
		maxScore = max(maxScore, r.Score)
	}
	for _, r := range results {
		if maxScore > 0 {
			normalized[r.ID] = r.Score / maxScore
		} else {
			normalized[r.ID] = 0
		}
	}
	return normalized
}

// SemanticScores maps vector hits to their inner-product score, clamped at 0.
func SemanticScores(results []*vector.Result) map[string]float64 {
	scores := make(map[string]float64, len(results))
	for _, r := range results {
		scores[r.ID] = max(r.Score, 0)
	}
	return scores
}

// Fuse merges keyword and semantic score maps with weights, best first.
// Equal scores order by ID so replies are stable.
func Fuse(keywordScores, semanticScores map[string]float64, keywordWeight, semanticWeight float64) []*FusedResult {
	byID := make(map[string]*FusedResult, len(keywordScores)+len(semanticScores))
	for id, s := range keywordScores {
		byID[id] = &FusedResult{ID: id, KeywordScore: s}
	}
	for id, s := range semanticScores {
		if r, ok := byID[id]; ok {
			r.SemanticScore = s
		} else {
			byID[id] = &FusedResult{ID: id, SemanticScore: s}
		}
	}
	out := make([]*FusedResult, 0, len(byID))
	for _, r := range byID {
		r.Score = keywordWeight*r.KeywordScore + semanticWeight*r.SemanticScore
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}
