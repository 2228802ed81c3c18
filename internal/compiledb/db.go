// Package compiledb accumulates and persists a JSON compilation database.
package compiledb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Entry is one compilation-database record: how a single source file was
// compiled. Field order matches the serialized key order.
type Entry struct {
	// Directory is the compiler's working directory at exec time, absolute.
	Directory string `json:"directory"`
	// File is the source path exactly as it appeared in the argv.
	File string `json:"file"`
	// Arguments is the full argv, Arguments[0] being the compiler.
	Arguments []string `json:"arguments"`
}

// key returns the canonical identity of the entry's source file: the
// symlink-resolved absolute path, or the clean absolute join when
// resolution fails (e.g. the file was deleted mid-build).
func (e Entry) key() string {
	abs := e.File
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(e.Directory, e.File)
	}
	abs = filepath.Clean(abs)
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// DB holds the in-memory compilation database, at most one entry per
// canonical source path. Later captures for the same source replace
// earlier ones.
type DB struct {
	entries  map[string]Entry
	isSource func(string) bool
}

// New creates an empty database. isSource classifies argv tokens as
// compilation sources.
func New(isSource func(string) bool) *DB {
	return &DB{
		entries:  make(map[string]Entry),
		isSource: isSource,
	}
}

// Len returns the number of entries currently held.
func (db *DB) Len() int {
	return len(db.entries)
}

// Load merges a previously saved database at path into the accumulator.
// A missing file is an empty initial state. Entries whose directory/file no
// longer exists on disk are pruned. A malformed file is an error: the run
// must not silently overwrite a database it could not read.
func (db *DB) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			line := 1 + bytes.Count(data[:syntaxErr.Offset], []byte{'\n'})
			return fmt.Errorf("parse %s: line %d: %w", path, line, err)
		}
		return fmt.Errorf("parse %s: %w", path, err)
	}

	pruned := 0
	for _, entry := range entries {
		joined := entry.File
		if !filepath.IsAbs(joined) {
			joined = filepath.Join(entry.Directory, entry.File)
		}
		if _, err := os.Stat(joined); err != nil {
			pruned++
			continue
		}
		db.entries[entry.key()] = entry
	}
	if pruned > 0 {
		slog.Debug("pruned stale entries", "path", path, "count", pruned)
	}
	return nil
}

// Add records one compiler invocation. Every argv token recognised as a
// source yields an entry sharing the invocation's directory and arguments.
// Returns the number of entries inserted or replaced.
func (db *DB) Add(directory string, argv []string) int {
	added := 0
	for _, argument := range argv {
		if !db.isSource(argument) {
			continue
		}
		entry := Entry{
			Directory: directory,
			File:      argument,
			Arguments: argv,
		}
		db.entries[entry.key()] = entry
		added++
	}
	return added
}

// Save serialises the database as a JSON array with a trailing newline,
// entries ordered by canonical source path so that identical states produce
// identical bytes. The file is written to a temporary sibling and renamed
// into place: a failed save never leaves a partial database behind.
func (db *DB) Save(path string) error {
	keys := make([]string, 0, len(db.entries))
	for key := range db.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, db.entries[key])
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal compilation database: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".basset-*")
	if err != nil {
		return fmt.Errorf("create temporary file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s to %s: %w", tmpPath, path, err)
	}
	return nil
}
