// Package embedding turns record text and chat queries into the vectors every
// backend indexes.
package embedding

import "context"

// Embedder maps text to fixed-length vectors. Vectors are unit length so an
// inner product is cosine similarity.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
