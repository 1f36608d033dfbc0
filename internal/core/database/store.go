// Package db implements the vector store on Postgres with the pgvector
// extension.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/anybrain-ai/anybrain/internal/core"
	"github.com/anybrain-ai/anybrain/internal/models"
)

type Store struct {
	db *sql.DB
}

var _ core.VectorStore = (*Store)(nil)

// NewStore opens the database, verifies connectivity and bootstraps the
// schema for the given embedding dimension.
func NewStore(ctx context.Context, databaseURL string, embedDim int) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	if embedDim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", embedDim)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// The pipeline is a single sequential writer; a small pool covers
	// concurrent read-only queries from the chat side.
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := ensureBootstrapped(ctx, db, embedDim); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Upsert inserts the chunk rows in one transaction. Ids are fresh per
// call and existing rows are never touched; file-level deduplication is
// the ledger's job.
func (s *Store) Upsert(ctx context.Context, chunks []models.StoredChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
        INSERT INTO anybrain_chunks (id, source, position, text, metadata, embedding)
        VALUES ($1, $2, $3, $4, $5, $6)`

	for _, ch := range chunks {
		meta, err := json.Marshal(ch.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		vec := pgvector.NewVector(ch.Embedding)
		if _, err := tx.ExecContext(ctx, q,
			ch.ID, ch.Metadata[models.MetaSource], ch.Position, ch.Text, meta, vec); err != nil {
			return fmt.Errorf("insert chunk %s: %w", ch.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Query returns the k nearest chunks by cosine distance, most similar
// first; ids break ties so the ordering is stable for a fixed store.
func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]models.Passage, error) {
	if k <= 0 {
		return nil, nil
	}

	const q = `
        SELECT text, metadata, 1 - (embedding <=> $1) AS score
        FROM anybrain_chunks
        ORDER BY embedding <=> $1, id
        LIMIT $2`

	rows, err := s.db.QueryContext(ctx, q, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var out []models.Passage
	for rows.Next() {
		var (
			p    models.Passage
			meta []byte
		)
		if err := rows.Scan(&p.Text, &meta, &p.Score); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if err := json.Unmarshal(meta, &p.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}
