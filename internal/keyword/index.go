// Package keyword provides the keyword (BM25) leg of record search.
package keyword

import (
	"context"

	"github.com/hyperjump/cyborgbench/internal/models"
)

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// MetadataBoost multiplies matches in the metadata field (merchant, fraud keyword).
	// Use 1.0 for no boost.
	MetadataBoost float64
	// FuzzyEnabled matches terms within Fuzziness edits, so "walmrt" finds "walmart".
	FuzzyEnabled bool
	Fuzziness    int
}

// Index defines keyword search operations over records.
type Index interface {
	Index(ctx context.Context, rec *models.Record) error
	IndexBatch(ctx context.Context, recs []*models.Record) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error)
	Delete(ctx context.Context, id string) error
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword search hit.
type Result struct {
	ID    string
	Score float64
}

// TermDictionary exposes the indexed vocabulary to the suggester.
type TermDictionary interface {
	Terms() (map[string]int, error)
}
