package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anybrain-ai/anybrain/internal/config"
	"github.com/anybrain-ai/anybrain/internal/core"
	"github.com/anybrain-ai/anybrain/internal/core/chunk"
	db "github.com/anybrain-ai/anybrain/internal/core/database"
	"github.com/anybrain-ai/anybrain/internal/core/extract"
	"github.com/anybrain-ai/anybrain/internal/core/index"
	"github.com/anybrain-ai/anybrain/internal/core/ingest"
	"github.com/anybrain-ai/anybrain/internal/core/ledger"
	"github.com/anybrain-ai/anybrain/internal/core/llm"
	"github.com/anybrain-ai/anybrain/internal/core/retrieval"
	"github.com/anybrain-ai/anybrain/internal/session"
)

// App wires the ingestion and retrieval components from config. Both
// CLIs build one and use the slice they need.
type App struct {
	Config    *config.Config
	Store     core.VectorStore
	Index     *index.VectorIndex
	Pipeline  *ingest.Pipeline
	Retriever *retrieval.Retriever
	Settings  *session.Store

	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	store, err := db.NewStore(ctx, cfg.DatabaseURL, cfg.EmbedDim)
	if err != nil {
		return nil, fmt.Errorf("vector store: %w", err)
	}
	log.Info("vector store ready")

	a := &App{Config: cfg, Store: store, Settings: session.NewStore(cfg.SettingsPath)}
	a.closers = append(a.closers, store.Close)

	embedder, err := a.newEmbedder(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("embedder: %w", err)
	}

	a.Index = index.New(embedder, store, cfg.BatchSize, log)

	splitter := chunk.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	led := ledger.New(cfg.Ledger)
	extractor := extract.New(&extract.TesseractOCR{})

	a.Pipeline = ingest.New(cfg.InputDir, extractor, splitter, led, a.Index, log)
	a.Retriever = retrieval.New(a.Index, cfg.TopK, log)
	return a, nil
}

func (a *App) newEmbedder(ctx context.Context, cfg *config.Config) (core.Embedder, error) {
	switch cfg.EmbedProvider {
	case "gemini":
		emb, err := llm.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbedModel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, emb.Close)
		return emb, nil
	case "openai":
		return llm.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbedBaseURL, cfg.EmbedModel), nil
	}
	return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbedProvider)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}
