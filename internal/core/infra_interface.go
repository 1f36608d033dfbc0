package core

import (
	"context"

	"github.com/anybrain-ai/anybrain/internal/models"
)

// VectorStore abstracts the external similarity-search backend so higher
// layers never depend on a specific database. The store is append-only
// from this module's point of view: Upsert never overwrites rows the
// pipeline wrote earlier.
type VectorStore interface {
	Upsert(ctx context.Context, chunks []models.StoredChunk) error

	// Query returns up to k stored chunks ranked most-similar first.
	// Ordering must be deterministic for a fixed store state.
	Query(ctx context.Context, vector []float32, k int) ([]models.Passage, error)

	Close() error
}
