package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anybrain-ai/anybrain/internal/core/chunk"
	"github.com/anybrain-ai/anybrain/internal/core/ledger"
	"github.com/anybrain-ai/anybrain/internal/models"
)

// fakeExtractor maps filenames to canned text or errors; anything else
// behaves like an unsupported format.
type fakeExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (f *fakeExtractor) Process(path string) (string, error) {
	name := filepath.Base(path)
	if err, ok := f.errs[name]; ok {
		return "", err
	}
	return f.texts[name], nil
}

type fakeIndexer struct {
	added [][]models.Chunk
	// persistLimit caps how many chunks "succeed" before an error; -1
	// means everything succeeds.
	persistLimit int
	err          error
}

func (f *fakeIndexer) Add(ctx context.Context, chunks []models.Chunk) (int, error) {
	f.added = append(f.added, chunks)
	if f.err != nil {
		n := f.persistLimit
		if n > len(chunks) {
			n = len(chunks)
		}
		return n, f.err
	}
	return len(chunks), nil
}

type fixture struct {
	dir      string
	pipeline *Pipeline
	ledger   *ledger.Ledger
	index    *fakeIndexer
}

func newFixture(t *testing.T, ex *fakeExtractor, idx *fakeIndexer) *fixture {
	t.Helper()
	dir := t.TempDir()
	led := ledger.New(filepath.Join(dir, "registry.txt"))
	inputs := filepath.Join(dir, "inputs")
	require.NoError(t, os.MkdirAll(inputs, 0o755))

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	sp := chunk.NewSplitter(chunk.DefaultSize, chunk.DefaultOverlap)
	return &fixture{
		dir:      inputs,
		pipeline: New(inputs, ex, sp, led, idx, log),
		ledger:   led,
		index:    idx,
	}
}

func (f *fixture) touch(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), []byte("raw"), 0o644))
	}
}

func longText(seed string) string {
	return strings.Repeat(seed+" ", 40) // comfortably above the threshold
}

func TestRunEmptyDirectory(t *testing.T) {
	f := newFixture(t, &fakeExtractor{}, &fakeIndexer{})

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Discovered)
	assert.Zero(t, report.Ingested)
	assert.Empty(t, f.index.added, "no index calls on an empty directory")
}

func TestRunIngestsAndRecords(t *testing.T) {
	ex := &fakeExtractor{texts: map[string]string{
		"report.pdf": longText("report"),
		"guide.docx": longText("guide"),
	}}
	f := newFixture(t, ex, &fakeIndexer{})
	f.touch(t, "report.pdf", "guide.docx")

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Discovered)
	assert.Equal(t, 2, report.Ingested)

	seen, err := f.ledger.Load()
	require.NoError(t, err)
	assert.Contains(t, seen, "report.pdf")
	assert.Contains(t, seen, "guide.docx")

	require.Len(t, f.index.added, 1, "one Add call over the flattened sequence")
	for _, c := range f.index.added[0] {
		assert.NotEmpty(t, c.Metadata[models.MetaSource])
	}
}

func TestRunSkipsShortExtraction(t *testing.T) {
	ex := &fakeExtractor{texts: map[string]string{
		"notes.txt":  "hello world", // 11 chars, below threshold
		"report.pdf": longText("content"),
	}}
	f := newFixture(t, ex, &fakeIndexer{})
	f.touch(t, "notes.txt", "report.pdf")

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Discovered)
	assert.Equal(t, 1, report.Ingested)

	seen, err := f.ledger.Load()
	require.NoError(t, err)
	assert.NotContains(t, seen, "notes.txt", "below-threshold file must not be recorded")
	assert.Contains(t, seen, "report.pdf")
}

func TestRunIsolatesPerFileErrors(t *testing.T) {
	ex := &fakeExtractor{
		texts: map[string]string{"good.pdf": longText("fine")},
		errs:  map[string]error{"bad.pdf": errors.New("corrupt xref table")},
	}
	f := newFixture(t, ex, &fakeIndexer{})
	f.touch(t, "bad.pdf", "good.pdf")

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err, "a per-file failure must not fail the run")
	assert.Equal(t, 1, report.Ingested)

	seen, _ := f.ledger.Load()
	assert.NotContains(t, seen, "bad.pdf")
}

func TestRunFailedFileIsRetriedNextRun(t *testing.T) {
	ex := &fakeExtractor{errs: map[string]error{"flaky.pdf": errors.New("io timeout")}}
	f := newFixture(t, ex, &fakeIndexer{})
	f.touch(t, "flaky.pdf")

	_, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	// The file recovers; the next run picks it up again.
	ex.errs = nil
	ex.texts = map[string]string{"flaky.pdf": longText("recovered")}

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ingested)
}

func TestRunIgnoresHiddenFilesAndDirs(t *testing.T) {
	ex := &fakeExtractor{texts: map[string]string{"visible.txt": longText("text")}}
	f := newFixture(t, ex, &fakeIndexer{})
	f.touch(t, "visible.txt", ".DS_Store")
	require.NoError(t, os.MkdirAll(filepath.Join(f.dir, "subdir"), 0o755))

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Discovered)
}

func TestRunIsIdempotent(t *testing.T) {
	ex := &fakeExtractor{texts: map[string]string{"report.pdf": longText("stable")}}
	f := newFixture(t, ex, &fakeIndexer{})
	f.touch(t, "report.pdf")

	_, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	ledgerBefore, err := os.ReadFile(filepath.Join(filepath.Dir(f.dir), "registry.txt"))
	require.NoError(t, err)

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Discovered, "second run discovers nothing")
	assert.Len(t, f.index.added, 1, "second run must not add vectors")

	ledgerAfter, err := os.ReadFile(filepath.Join(filepath.Dir(f.dir), "registry.txt"))
	require.NoError(t, err)
	assert.Equal(t, ledgerBefore, ledgerAfter, "second run must not change the ledger")
}

func TestRunRecordsExactlyOnceRegardlessOfChunkCount(t *testing.T) {
	// ~5000 chars -> several chunks, one ledger line.
	ex := &fakeExtractor{texts: map[string]string{"big.pdf": strings.Repeat("abcde ", 900)}}
	f := newFixture(t, ex, &fakeIndexer{})
	f.touch(t, "big.pdf")

	_, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(filepath.Dir(f.dir), "registry.txt"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "big.pdf"))
	assert.Greater(t, len(f.index.added[0]), 1)
}

func TestRunPartialIndexFailureRecordsPersistedFilesOnly(t *testing.T) {
	// Two files, one chunk each. The index fails after persisting the
	// first chunk, so only the first file is recorded.
	ex := &fakeExtractor{texts: map[string]string{
		"alpha.txt": longText("alpha"),
		"beta.txt":  longText("beta"),
	}}
	idx := &fakeIndexer{err: errors.New("store unreachable"), persistLimit: 1}
	f := newFixture(t, ex, idx)
	f.touch(t, "alpha.txt", "beta.txt")

	report, err := f.pipeline.Run(context.Background())
	require.Error(t, err, "index failure is run-fatal")
	assert.Equal(t, 1, report.Ingested)

	seen, lerr := f.ledger.Load()
	require.NoError(t, lerr)
	assert.Contains(t, seen, "alpha.txt")
	assert.NotContains(t, seen, "beta.txt")
}

// brokenLedger loads fine but refuses every Record.
type brokenLedger struct {
	*ledger.Ledger
	recordErr error
}

func (b *brokenLedger) Record(name string) error { return b.recordErr }

func TestRunKeepsIndexErrorWhenRecordingFails(t *testing.T) {
	dir := t.TempDir()
	inputs := filepath.Join(dir, "inputs")
	require.NoError(t, os.MkdirAll(inputs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inputs, "alpha.txt"), []byte("raw"), 0o644))

	ex := &fakeExtractor{texts: map[string]string{"alpha.txt": longText("alpha")}}
	indexErr := errors.New("store unreachable")
	idx := &fakeIndexer{err: indexErr, persistLimit: 1}
	led := &brokenLedger{
		Ledger:    ledger.New(filepath.Join(dir, "registry.txt")),
		recordErr: errors.New("disk full"),
	}
	sp := chunk.NewSplitter(chunk.DefaultSize, chunk.DefaultOverlap)
	p := New(inputs, ex, sp, led, idx, nil)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, indexErr, "the index failure must survive a record failure")
	assert.ErrorIs(t, err, led.recordErr)
}

func TestRunMissingInputDirFails(t *testing.T) {
	led := ledger.New(filepath.Join(t.TempDir(), "registry.txt"))
	sp := chunk.NewSplitter(chunk.DefaultSize, chunk.DefaultOverlap)
	p := New(filepath.Join(t.TempDir(), "nope"), &fakeExtractor{}, sp, led, &fakeIndexer{}, nil)

	_, err := p.Run(context.Background())
	assert.Error(t, err)
}
