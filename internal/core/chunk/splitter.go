// Package chunk splits extracted documents into bounded, overlapping
// segments suitable for embedding.
package chunk

import (
	"maps"

	"github.com/anybrain-ai/anybrain/internal/models"
)

const (
	DefaultSize    = 1500
	DefaultOverlap = 200
)

// Splitter slides a fixed window of Size runes over the text, stepping by
// Size-Overlap, so each chunk after the first repeats the last Overlap
// runes of its predecessor. The arithmetic is exact: dropping the first
// Overlap runes of every chunk after the first reconstructs the document.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter returns a splitter for the given window. Non-positive size
// or an overlap that doesn't leave room to advance falls back to the
// defaults.
func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 || overlap < 0 || overlap >= size {
		size, overlap = DefaultSize, DefaultOverlap
	}
	return &Splitter{size: size, overlap: overlap}
}

// Split segments the document in left-to-right order. A final shorter
// chunk is kept if it has any content; an empty document yields no
// chunks. Metadata is propagated unchanged to every chunk.
func (s *Splitter) Split(doc models.Document) []models.Chunk {
	runes := []rune(doc.Content)
	if len(runes) == 0 {
		return nil
	}

	step := s.size - s.overlap
	var chunks []models.Chunk
	for start := 0; start < len(runes); start += step {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, models.Chunk{
			Text:     string(runes[start:end]),
			Position: len(chunks),
			Metadata: maps.Clone(doc.Metadata),
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}
