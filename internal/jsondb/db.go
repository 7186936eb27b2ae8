// Package jsondb implements a tiny table store backed by a single JSON
// document on disk. The whole document is loaded into memory at open and
// rewritten wholesale on every mutation, so the file is always a complete,
// valid snapshot.
package jsondb

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Row is a single record in a table.
type Row = map[string]any

// Predicate selects target rows for Select, Update and Delete.
type Predicate func(Row) bool

// Store-level errors. These indicate caller bugs (bad table name, missing
// predicate) rather than user-facing conditions.
var (
	ErrTableNotFound    = errors.New("table not found")
	ErrMissingPredicate = errors.New("a predicate is required")
	ErrNoRows           = errors.New("no rows matched")
)

// Seed is the bundled initial document, written to disk when the database
// file does not exist yet.
//
//go:embed seed.json
var Seed []byte

// DB is an in-memory mirror of the on-disk document. A single mutex
// serializes every operation; net/http runs handlers on arbitrary
// goroutines and two interleaved read-modify-write sequences would
// otherwise silently drop one of the writes.
type DB struct {
	path string

	mu     sync.Mutex
	tables map[string][]Row
}

// Open loads the document at path, creating it from seed if absent.
func Open(path string, seed []byte) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeAtomic(path, seed); err != nil {
			return nil, fmt.Errorf("failed to seed database file %s: %w", path, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read database file %s: %w", path, err)
	}

	var tables map[string][]Row
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse database file %s: %w", path, err)
	}
	for name, rows := range tables {
		if rows == nil {
			tables[name] = []Row{}
		}
	}

	return &DB{path: path, tables: tables}, nil
}

// Select returns the rows of table matching pred, in insertion order.
// A nil pred selects every row. Returned rows are copies.
func (db *DB) Select(table string, pred Predicate) ([]Row, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, ok := db.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", table, ErrTableNotFound)
	}

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if pred == nil || pred(row) {
			out = append(out, cloneRow(row))
		}
	}
	return out, nil
}

// Insert appends row to table and persists the document before returning.
// Id assignment is the caller's responsibility.
func (db *DB) Insert(table string, row Row) (Row, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, ok := db.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", table, ErrTableNotFound)
	}

	db.tables[table] = append(rows, cloneRow(row))
	if err := db.persist(); err != nil {
		// Roll the in-memory mirror back so it keeps matching the disk state.
		db.tables[table] = db.tables[table][:len(rows)]
		return nil, err
	}
	return cloneRow(row), nil
}

// Update shallow-merges patch into the first row of table matching pred,
// persists, and returns the merged row. Fields absent from patch are
// retained. Returns ErrNoRows when nothing matches.
func (db *DB) Update(table string, patch Row, pred Predicate) (Row, error) {
	if pred == nil {
		return nil, fmt.Errorf("update on %q: %w", table, ErrMissingPredicate)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	rows, ok := db.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", table, ErrTableNotFound)
	}

	for i, row := range rows {
		if !pred(row) {
			continue
		}
		merged := cloneRow(row)
		for k, v := range patch {
			merged[k] = v
		}
		rows[i] = merged
		if err := db.persist(); err != nil {
			rows[i] = row
			return nil, err
		}
		return cloneRow(merged), nil
	}
	return nil, fmt.Errorf("update on %q: %w", table, ErrNoRows)
}

// Delete removes the rows of table matching pred and persists. The
// predicate selects the rows to delete, same convention as Select and
// Update.
func (db *DB) Delete(table string, pred Predicate) error {
	if pred == nil {
		return fmt.Errorf("delete on %q: %w", table, ErrMissingPredicate)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	rows, ok := db.tables[table]
	if !ok {
		return fmt.Errorf("table %q: %w", table, ErrTableNotFound)
	}

	kept := make([]Row, 0, len(rows))
	for _, row := range rows {
		if !pred(row) {
			kept = append(kept, row)
		}
	}
	db.tables[table] = kept
	if err := db.persist(); err != nil {
		db.tables[table] = rows
		return err
	}
	return nil
}

// persist rewrites the whole document. Callers must hold db.mu.
func (db *DB) persist() error {
	data, err := json.MarshalIndent(db.tables, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal database: %w", err)
	}
	return writeAtomic(db.path, data)
}

// writeAtomic writes data to a temp file in the same directory and renames
// it over path, so a crash mid-write never leaves a partial document.
func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func cloneRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
