// Package vector provides the vector indexes whose search latency is compared:
// a flat in-memory index (faiss), an encrypted index (cyborg) and a disk-backed
// SQLite index (chroma).
package vector

import (
	"context"
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned when a vector does not match the index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Index defines vector storage and similarity search.
type Index interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*Result, error)
	Remove(ctx context.Context, ids []string) error
	Save(path string) error
	Load(path string) error
	Size() int
	Type() string
	Close() error
}

// Result is a single vector search hit; ID is the record ID.
type Result struct {
	ID    string
	Score float64 // inner product, cosine similarity for normalized vectors
}

func checkDim(got, want int) error {
	if got != want {
		return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, got, want)
	}
	return nil
}
