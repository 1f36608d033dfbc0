// Package index owns the mapping from chunks to stored vectors: it
// embeds chunk text and persists (vector, text, metadata) into the
// external vector store, and answers top-k similarity queries.
package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/anybrain-ai/anybrain/internal/core"
	"github.com/anybrain-ai/anybrain/internal/models"
)

const DefaultBatchSize = 100

type VectorIndex struct {
	embedder  core.Embedder
	store     core.VectorStore
	batchSize int
	log       *slog.Logger
}

func New(embedder core.Embedder, store core.VectorStore, batchSize int, log *slog.Logger) *VectorIndex {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &VectorIndex{embedder: embedder, store: store, batchSize: batchSize, log: log}
}

// Add embeds and persists the chunks in batches, bounding peak memory and
// giving per-batch progress. It returns how many chunks were confirmed
// persisted; on error that count is the prefix written before the
// failure, which the pipeline uses to decide which files to record.
// Add never updates or removes previously stored vectors.
func (v *VectorIndex) Add(ctx context.Context, chunks []models.Chunk) (int, error) {
	persisted := 0
	for start := 0; start < len(chunks); start += v.batchSize {
		end := start + v.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Text
		}

		vecs, err := v.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return persisted, fmt.Errorf("embed batch: %w", err)
		}
		if len(vecs) != len(batch) {
			return persisted, fmt.Errorf("embed size mismatch: got %d want %d", len(vecs), len(batch))
		}

		rows := make([]models.StoredChunk, len(batch))
		for i := range batch {
			rows[i] = models.StoredChunk{
				ID:        uuid.NewString(),
				Text:      batch[i].Text,
				Position:  batch[i].Position,
				Embedding: vecs[i],
				Metadata:  batch[i].Metadata,
			}
		}
		if err := v.store.Upsert(ctx, rows); err != nil {
			return persisted, fmt.Errorf("persist batch: %w", err)
		}

		persisted += len(batch)
		v.log.Info("indexed batch", "persisted", persisted, "total", len(chunks))
	}
	return persisted, nil
}

// Search embeds the query and returns up to k stored passages ranked
// most-similar first.
func (v *VectorIndex) Search(ctx context.Context, query string, k int) ([]models.Passage, error) {
	vecs, err := v.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vecs))
	}
	return v.store.Query(ctx, vecs[0], k)
}
