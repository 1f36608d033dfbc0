package core

import "context"

// Embedder turns text into fixed-length vectors. Implementations batch
// however their API allows; callers bound request size themselves.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
