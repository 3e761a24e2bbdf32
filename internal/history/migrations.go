package history

import (
	"context"
	"embed"
	"fmt"
	"path"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// schemaSteps returns the ledger DDL indexed by version-1. Files are named
// NNN_description.sql and must number contiguously from 001.
func schemaSteps() ([]string, error) {
	files, err := schemaFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read ledger schema: %w", err)
	}
	steps := make([]string, len(files))
	for _, f := range files {
		prefix, _, _ := strings.Cut(f.Name(), "_")
		n, err := strconv.Atoi(prefix)
		if err != nil || n < 1 || n > len(files) || steps[n-1] != "" {
			return nil, fmt.Errorf("ledger schema file %s out of sequence", f.Name())
		}
		data, err := schemaFS.ReadFile(path.Join("migrations", f.Name()))
		if err != nil {
			return nil, fmt.Errorf("read ledger schema %s: %w", f.Name(), err)
		}
		steps[n-1] = string(data)
	}
	return steps, nil
}

// upgrade brings the ledger to the newest schema, tracking progress in
// PRAGMA user_version. A ledger written by a newer build is refused rather
// than partially understood.
func (s *Store) upgrade(ctx context.Context) error {
	steps, err := schemaSteps()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger upgrade: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read ledger version: %w", err)
	}
	if version > len(steps) {
		return fmt.Errorf("ledger %s has schema version %d, this build supports %d", s.path, version, len(steps))
	}
	if version == len(steps) {
		return nil
	}
	for v := version; v < len(steps); v++ {
		if _, err := tx.ExecContext(ctx, steps[v]); err != nil {
			return fmt.Errorf("upgrade ledger to version %d: %w", v+1, err)
		}
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, "PRAGMA user_version = "+strconv.Itoa(len(steps))); err != nil {
		return fmt.Errorf("record ledger version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger upgrade: %w", err)
	}
	return nil
}
