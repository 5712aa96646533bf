// Package persist saves and restores spreadsheets.
//
// A saved sheet is a version tag plus each non-empty cell's contents exactly
// as the user typed them, in the order the cells were created. Stores never
// interpret contents: restoring a sheet means replaying every record through
// the spreadsheet's normal update path.
package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Record is a single saved cell
type Record struct {
	Name     string `json:"name" yaml:"name"`
	Contents string `json:"contents" yaml:"contents"`
}

// Snapshot is everything needed to rebuild a spreadsheet
type Snapshot struct {
	Version string   `json:"version" yaml:"version"`
	Cells   []Record `json:"cells" yaml:"cells"`
}

// Store reads and writes snapshots
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

var (
	// ErrReadWrite is matched by every failure a store reports
	ErrReadWrite = errors.New("persist: read/write failure")

	// ErrNotFound means nothing has been saved at the location yet
	ErrNotFound = errors.New("persist: no saved sheet")
)

// Error wraps a store failure with the operation and location involved
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("persist: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("persist: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrReadWrite
}

func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Path: path, Err: err}
}

// Kind names a store implementation
type Kind string

const (
	KindJSON   Kind = "json"
	KindYAML   Kind = "yaml"
	KindSQLite Kind = "sqlite"
	KindBadger Kind = "badger"
)

// KindFor picks a store kind from a path's extension. an existing directory
// is assumed to be a badger database.
func KindFor(path string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return KindJSON, nil
	case ".yaml", ".yml":
		return KindYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite, nil
	case ".badger":
		return KindBadger, nil
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return KindBadger, nil
	}
	return "", wrap("open", path, errors.New("cannot infer store kind from extension"))
}

// Open opens the store of the given kind at path. an empty kind is inferred
// from the path.
func Open(kind Kind, path string) (Store, error) {
	if kind == "" {
		var err error
		if kind, err = KindFor(path); err != nil {
			return nil, err
		}
	}

	switch kind {
	case KindJSON:
		return NewFile(path, JSON), nil
	case KindYAML:
		return NewFile(path, YAML), nil
	case KindSQLite:
		return NewSQLite(path)
	case KindBadger:
		cfg := DefaultBadgerConfig()
		cfg.Path = path
		return NewBadger(cfg)
	}
	return nil, wrap("open", path, fmt.Errorf("unknown store kind %q", kind))
}

// OpenReadOnly is like Open for callers that never save. nothing is created
// or modified on disk, and a location that does not exist yet fails with
// ErrNotFound.
func OpenReadOnly(kind Kind, path string) (Store, error) {
	if kind == "" {
		var err error
		if kind, err = KindFor(path); err != nil {
			return nil, err
		}
	}

	switch kind {
	case KindJSON, KindYAML:
		return Open(kind, path)
	case KindSQLite:
		return NewSQLiteReadOnly(path)
	case KindBadger:
		cfg := DefaultBadgerConfig()
		cfg.Path = path
		cfg.ReadOnly = true
		return NewBadger(cfg)
	}
	return nil, wrap("open", path, fmt.Errorf("unknown store kind %q", kind))
}

// ErrReadOnly is returned by Save on a store opened with OpenReadOnly
var ErrReadOnly = errors.New("persist: store is read-only")

func exists(path string) error {
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
