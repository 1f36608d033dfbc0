// Package ingest orchestrates extraction, chunking and indexing of the
// input directory, keeping the run idempotent through the ledger.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/anybrain-ai/anybrain/internal/core"
	"github.com/anybrain-ai/anybrain/internal/core/chunk"
	"github.com/anybrain-ai/anybrain/internal/models"
)

// minTextLength is the extraction threshold: a result of this many
// characters or fewer is treated as an unreadable file, not as a valid
// short document.
const minTextLength = 50

// Indexer is the slice of the vector index the pipeline needs. The
// persisted count lets the pipeline record only files whose chunks all
// made it into the store before a failure.
type Indexer interface {
	Add(ctx context.Context, chunks []models.Chunk) (persisted int, err error)
}

// Ledger is the slice of the ingestion registry the pipeline needs.
type Ledger interface {
	Load() (map[string]struct{}, error)
	Record(name string) error
}

type Pipeline struct {
	inputDir  string
	extractor core.Extractor
	splitter  *chunk.Splitter
	ledger    Ledger
	index     Indexer
	log       *slog.Logger
}

// Report summarizes one run: how many new files were discovered in the
// input directory and how many of them were ingested and recorded.
type Report struct {
	Discovered int
	Ingested   int
}

func New(inputDir string, extractor core.Extractor, splitter *chunk.Splitter, led Ledger, idx Indexer, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		inputDir:  inputDir,
		extractor: extractor,
		splitter:  splitter,
		ledger:    led,
		index:     idx,
		log:       log,
	}
}

// Run ingests every file present in the input directory but absent from
// the ledger. Per-file extraction failures are logged and skipped; the
// file stays out of the ledger and is retried on the next run. A failure
// while indexing aborts the run, but files whose chunks were fully
// persisted before the failure are still recorded.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	newFiles, err := p.discover()
	if err != nil {
		return Report{}, err
	}

	report := Report{Discovered: len(newFiles)}
	if len(newFiles) == 0 {
		p.log.Info("index up to date, no new files")
		return report, nil
	}
	p.log.Info("found new files", "count", len(newFiles), "dir", p.inputDir)

	// Phase 1: extraction. Failures stay local to their file.
	var (
		docs  []models.Document
		names []string
	)
	for _, name := range newFiles {
		p.log.Info("processing file", "file", name)
		text, err := p.extractor.Process(filepath.Join(p.inputDir, name))
		if err != nil {
			p.log.Warn("extraction failed, file skipped", "file", name, "error", err)
			continue
		}
		if utf8.RuneCountInString(text) <= minTextLength {
			p.log.Warn("file empty or unreadable, skipped", "file", name)
			continue
		}
		docs = append(docs, models.Document{
			Content:  text,
			Metadata: map[string]string{models.MetaSource: name},
		})
		names = append(names, name)
	}
	if len(docs) == 0 {
		p.log.Warn("no readable text in any new file")
		return report, nil
	}

	// Phase 2: chunk, embed, persist, then record the successes.
	var all []models.Chunk
	perFile := make([]int, len(docs))
	for i, doc := range docs {
		chunks := p.splitter.Split(doc)
		perFile[i] = len(chunks)
		all = append(all, chunks...)
	}
	p.log.Info("chunked documents", "files", len(docs), "chunks", len(all))

	persisted, addErr := p.index.Add(ctx, all)

	offset := 0
	for i, name := range names {
		if offset+perFile[i] <= persisted {
			if err := p.ledger.Record(name); err != nil {
				recordErr := fmt.Errorf("record %q: %w", name, err)
				if addErr != nil {
					return report, errors.Join(fmt.Errorf("index add: %w", addErr), recordErr)
				}
				return report, recordErr
			}
			report.Ingested++
		}
		offset += perFile[i]
	}

	if addErr != nil {
		return report, fmt.Errorf("index add: %w", addErr)
	}

	p.log.Info("ingestion complete", "ingested", report.Ingested, "discovered", report.Discovered)
	return report, nil
}

// discover lists non-hidden regular files in the input directory that are
// not yet in the ledger, in directory order.
func (p *Pipeline) discover() ([]string, error) {
	entries, err := os.ReadDir(p.inputDir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	seen, err := p.ledger.Load()
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	var newFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name[0] == '.' {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		newFiles = append(newFiles, name)
	}
	return newFiles, nil
}
