package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

var (
	badgerVersionKey  = []byte("meta/version")
	badgerCellsPrefix = []byte("cell/")
)

// BadgerConfig holds configuration for a badger backed store
type BadgerConfig struct {
	// Path is the database directory, ignored when InMemory is set
	Path string

	InMemory   bool
	SyncWrites bool

	// ReadOnly opens an existing database without writing to its directory
	ReadOnly bool

	// Logger receives badger's own log output. nil disables it.
	Logger *slog.Logger
}

// DefaultBadgerConfig returns a durable on-disk configuration
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{SyncWrites: true}
}

// InMemoryBadgerConfig returns a configuration that never touches disk
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// badgerLogger adapts slog.Logger to badger's Logger interface
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Badger keeps snapshots in a badger key-value database. cells are stored
// under "cell/<ordinal>" so a prefix scan returns them in creation order.
type Badger struct {
	db       *badger.DB
	path     string
	readOnly bool
}

// NewBadger opens the database described by cfg
func NewBadger(cfg BadgerConfig) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, wrap("open", "", errors.New("path is required for persistent database"))
	}

	var opts badger.Options
	switch {
	case cfg.InMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	case cfg.ReadOnly:
		if err := exists(cfg.Path); err != nil {
			return nil, wrap("open", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithReadOnly(true)
	default:
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, wrap("open", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, wrap("open", cfg.Path, err)
	}
	return &Badger{db: db, path: cfg.Path, readOnly: cfg.ReadOnly}, nil
}

func (b *Badger) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, wrap("load", b.path, err)
	}

	snap := Snapshot{Cells: []Record{}}
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerVersionKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		version, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		snap.Version = string(version)

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(badgerCellsPrefix); it.ValidForPrefix(badgerCellsPrefix); it.Next() {
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			snap.Cells = append(snap.Cells, rec)
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, wrap("load", b.path, err)
	}
	return snap, nil
}

// Save replaces the stored sheet in a single read-write transaction
func (b *Badger) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return wrap("save", b.path, err)
	}
	if b.readOnly {
		return wrap("save", b.path, ErrReadOnly)
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		var stale [][]byte
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		for it.Seek(badgerCellsPrefix); it.ValidForPrefix(badgerCellsPrefix); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}

		for i, rec := range snap.Cells {
			val, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := txn.Set(badgerCellKey(i), val); err != nil {
				return fmt.Errorf("cell %s: %w", rec.Name, err)
			}
		}
		return txn.Set(badgerVersionKey, []byte(snap.Version))
	})
	return wrap("save", b.path, err)
}

func (b *Badger) Close() error {
	return wrap("close", b.path, b.db.Close())
}

func badgerCellKey(ordinal int) []byte {
	return []byte(fmt.Sprintf("%s%010d", badgerCellsPrefix, ordinal))
}
