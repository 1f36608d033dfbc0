// Package ledger persists the append-only record of already-ingested
// source files, one filename per line.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Ledger is keyed by filename only: a changed file re-uploaded under the
// same name is not detected. Membership, not line count, is what matters,
// so duplicate lines are harmless.
type Ledger struct {
	path string
}

func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Load returns the set of previously ingested filenames. A missing
// ledger file is an empty set, not an error.
func (l *Ledger) Load() (map[string]struct{}, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	seen := map[string]struct{}{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		name := strings.TrimSpace(sc.Text())
		if name == "" {
			continue
		}
		seen[name] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return seen, nil
}

// Record appends a filename, creating the ledger (and its directory) if
// absent. Entries are never removed.
func (l *Ledger) Record(name string) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("ledger dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, name); err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}
	return nil
}
