// Package retrieval is the query surface the chat loop uses to fetch
// top-k passages for grounding.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anybrain-ai/anybrain/internal/models"
)

const DefaultTopK = 4

// Searcher is the slice of the vector index the retriever needs.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]models.Passage, error)
}

// Retriever is a thin pass-through over the index: no caching, no query
// rewriting. Any enrichment (chat-history folding etc.) belongs to the
// caller.
type Retriever struct {
	index Searcher
	topK  int
	log   *slog.Logger
}

func New(index Searcher, topK int, log *slog.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if log == nil {
		log = slog.Default()
	}
	return &Retriever{index: index, topK: topK, log: log}
}

// Retrieve returns up to k ranked passages. A failing or empty index
// yields an empty result set, never an error: generation degrades to
// answering without grounding rather than failing the caller.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) []models.Passage {
	if k <= 0 {
		k = r.topK
	}
	passages, err := r.index.Search(ctx, query, k)
	if err != nil {
		r.log.Warn("retrieval failed, answering without context", "error", err)
		return nil
	}
	return passages
}

// BuildContext renders retrieved passages into the grounding block that
// precedes the user's question in the generation prompt.
func BuildContext(passages []models.Passage) string {
	if len(passages) == 0 {
		return ""
	}
	parts := make([]string, len(passages))
	for i, p := range passages {
		if src := p.Source(); src != "" {
			parts[i] = fmt.Sprintf("[Source %d: %s]: %s", i+1, src, p.Text)
		} else {
			parts[i] = fmt.Sprintf("[Source %d]: %s", i+1, p.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt combines the grounding context with the user question. An
// empty context yields the bare question.
func BuildPrompt(contextBlock, question string) string {
	if contextBlock == "" {
		return question
	}
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextBlock, question)
}
