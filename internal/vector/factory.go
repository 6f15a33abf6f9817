package vector

import (
	"fmt"

	"github.com/hyperjump/cyborgbench/internal/evaluator"
)

// IndexType represents the implementation behind a backend.
type IndexType string

const (
	// TypeFlat is an exhaustive in-memory inner-product index.
	TypeFlat IndexType = "flat"
	// TypeEncrypted seals vectors at rest and in memory.
	TypeEncrypted IndexType = "encrypted"
	// TypeSQLite scans vectors stored in SQLite.
	TypeSQLite IndexType = "sqlite"
)

// Options configures NewIndex.
type Options struct {
	Dimensions int
	// Path is the SQLite database for chroma.
	Path string
	// Key is the encryption key for cyborg.
	Key []byte
}

// NewIndex creates the index that backs the named backend.
func NewIndex(backend evaluator.Backend, opts Options) (Index, error) {
	switch backend {
	case evaluator.BackendCyborg:
		return NewEncryptedIndex(opts.Dimensions, opts.Key)
	case evaluator.BackendFaiss:
		return NewFlatIndex(opts.Dimensions)
	case evaluator.BackendChroma:
		if opts.Path == "" {
			return nil, fmt.Errorf("chroma backend requires a database path")
		}
		return NewSQLiteIndex(opts.Path, opts.Dimensions)
	default:
		return nil, fmt.Errorf("unknown backend: %s (supported: cyborg, faiss, chroma)", backend)
	}
}
