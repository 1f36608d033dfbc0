package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"time"
)

//go:embed scripts/initdb.sql
var bootstrapFS embed.FS

// ensureBootstrapped creates the pgvector extension and the chunks table
// if they are missing. The embedded script carries a {{DIM}} placeholder
// for the embedding dimension, which must match the embedder in use.
func ensureBootstrapped(ctx context.Context, db *sql.DB, dim int) error {
	ctxBoot, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	var exists bool
	err := db.QueryRowContext(ctxBoot, `
		SELECT EXISTS (
		  SELECT 1 FROM information_schema.tables
		  WHERE table_name = 'anybrain_chunks'
		)`).
		Scan(&exists)
	if err != nil {
		return fmt.Errorf("table check failed: %w", err)
	}
	if exists {
		return nil
	}

	sqlBytes, err := bootstrapFS.ReadFile("scripts/initdb.sql")
	if err != nil {
		return fmt.Errorf("read initdb.sql: %w", err)
	}
	script := strings.ReplaceAll(string(sqlBytes), "{{DIM}}", strconv.Itoa(dim))

	tx, err := db.BeginTx(ctxBoot, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctxBoot, script); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec bootstrap: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap: %w", err)
	}
	return nil
}
