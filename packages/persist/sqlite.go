package persist

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the layout of the cells and metadata tables
const SchemaVersion = "1"

// SQLite keeps snapshots in a SQLite database
type SQLite struct {
	mu       sync.Mutex
	db       *sql.DB
	path     string
	readOnly bool
}

// NewSQLite opens (and if needed creates) the database at path
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrap("open", path, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS cells (
			ordinal INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			contents TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, wrap("open", path, err)
	}

	s := &SQLite{db: db, path: path}

	version, err := s.getMetadataUnlocked(context.Background(), s.db, "schema_version")
	if err != nil {
		db.Close()
		return nil, wrap("open", path, err)
	}
	switch version {
	case "":
		if err := s.setMetadataUnlocked(context.Background(), s.db, "schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, wrap("open", path, err)
		}
	case SchemaVersion:
	default:
		db.Close()
		return nil, wrap("open", path, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion))
	}

	return s, nil
}

// NewSQLiteReadOnly opens an existing database without creating the file
// or its tables
func NewSQLiteReadOnly(path string) (*SQLite, error) {
	if err := exists(path); err != nil {
		return nil, wrap("open", path, err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, wrap("open", path, err)
	}

	s := &SQLite{db: db, path: path, readOnly: true}
	version, err := s.getMetadataUnlocked(context.Background(), s.db, "schema_version")
	if err != nil {
		db.Close()
		return nil, wrap("open", path, err)
	}
	if version != SchemaVersion {
		db.Close()
		return nil, wrap("open", path, fmt.Errorf("unsupported schema version: %q (expected %s)", version, SchemaVersion))
	}
	return s, nil
}

func (s *SQLite) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var version string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = 'version'").Scan(&version)
	if err == sql.ErrNoRows {
		return Snapshot{}, wrap("load", s.path, ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, wrap("load", s.path, err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT name, contents FROM cells ORDER BY ordinal")
	if err != nil {
		return Snapshot{}, wrap("load", s.path, err)
	}
	defer rows.Close()

	snap := Snapshot{Version: version, Cells: []Record{}}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Name, &rec.Contents); err != nil {
			return Snapshot{}, wrap("load", s.path, err)
		}
		snap.Cells = append(snap.Cells, rec)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, wrap("load", s.path, err)
	}
	return snap, nil
}

// Save replaces the stored sheet in a single transaction
func (s *SQLite) Save(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return wrap("save", s.path, ErrReadOnly)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("save", s.path, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cells"); err != nil {
		return wrap("save", s.path, err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO cells (ordinal, name, contents) VALUES (?, ?, ?)")
	if err != nil {
		return wrap("save", s.path, err)
	}
	defer stmt.Close()

	for i, rec := range snap.Cells {
		if _, err := stmt.ExecContext(ctx, i, rec.Name, rec.Contents); err != nil {
			return wrap("save", s.path, fmt.Errorf("cell %s: %w", rec.Name, err))
		}
	}

	if err := s.setMetadataUnlocked(ctx, tx, "version", snap.Version); err != nil {
		return wrap("save", s.path, err)
	}
	return wrap("save", s.path, tx.Commit())
}

func (s *SQLite) Close() error {
	return wrap("close", s.path, s.db.Close())
}

// execQuerier is satisfied by both *sql.DB and *sql.Tx
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLite) getMetadataUnlocked(ctx context.Context, q execQuerier, key string) (string, error) {
	var value string
	err := q.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *SQLite) setMetadataUnlocked(ctx context.Context, q execQuerier, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
