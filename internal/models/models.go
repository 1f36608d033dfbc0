package models

// MetaSource is the metadata key every document and chunk carries: the
// filename it was extracted from, relative to the input directory.
const MetaSource = "source"

// Document is the extracted text of one source file plus its metadata.
// The pipeline never builds a Document from a degenerate extraction, so
// Content is always above the extraction threshold.
type Document struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// Chunk is one bounded segment of a Document, in left-to-right document
// order. Metadata is propagated unchanged from the parent document.
type Chunk struct {
	Text     string            `json:"text"`
	Position int               `json:"position"`
	Metadata map[string]string `json:"metadata"`
}

// StoredChunk is the persistence row for one chunk: its embedding plus
// the original text and metadata needed at retrieval time.
type StoredChunk struct {
	ID        string            `db:"id"`
	Text      string            `db:"text"`
	Position  int               `db:"position"`
	Embedding []float32         `db:"embedding"` // pgvector column
	Metadata  map[string]string `db:"metadata"`
}

// Passage is one retrieval result: chunk text, its metadata and a
// similarity score (higher is more similar).
type Passage struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Score    float32           `json:"score"`
}

// Source returns the originating filename, or "" if the metadata was
// stored without one.
func (p Passage) Source() string {
	return p.Metadata[MetaSource]
}
