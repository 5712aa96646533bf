package spreadsheet

import (
	"context"
	"errors"
	"fmt"

	"github.com/markusbuck/spreadsheet/packages/persist"
)

// Snapshot captures the version tag and every non-empty cell's raw contents
// in creation order
func (s *Spreadsheet) Snapshot() persist.Snapshot {
	names := s.storage.names.Names()
	snap := persist.Snapshot{
		Version: s.version,
		Cells:   make([]persist.Record, 0, len(names)),
	}
	for _, name := range names {
		c, _ := s.storage.get(name)
		snap.Cells = append(snap.Cells, persist.Record{Name: name, Contents: c.raw})
	}
	return snap
}

// Save writes the spreadsheet to store and clears the changed flag
func (s *Spreadsheet) Save(ctx context.Context, store persist.Store) error {
	snap := s.Snapshot()
	ctx, span := startPersistSpan(ctx, "Save", len(snap.Cells))
	defer span.End()

	if err := store.Save(ctx, snap); err != nil {
		span.RecordError(err)
		s.metrics.recordPersist(ctx, "save", false)
		return readWriteError("save", err)
	}

	s.changed = false
	s.metrics.recordPersist(ctx, "save", true)
	s.logger.Info("spreadsheet saved", "cells", len(snap.Cells), "version", snap.Version)
	return nil
}

// Load builds a spreadsheet from store by replaying every saved cell through
// SetContent. the saved version tag must equal the configured one.
func Load(ctx context.Context, store persist.Store, opts ...Option) (*Spreadsheet, error) {
	s := New(opts...)

	ctx, span := startPersistSpan(ctx, "Load", 0)
	defer span.End()

	snap, err := store.Load(ctx)
	if err != nil {
		span.RecordError(err)
		s.metrics.recordPersist(ctx, "load", false)
		return nil, readWriteError("load", err)
	}

	if err := s.restore(snap); err != nil {
		span.RecordError(err)
		s.metrics.recordPersist(ctx, "load", false)
		return nil, err
	}

	s.metrics.recordPersist(ctx, "load", true)
	s.logger.Info("spreadsheet loaded", "cells", len(snap.Cells), "version", snap.Version)
	return s, nil
}

// restore replays snap into an empty spreadsheet
func (s *Spreadsheet) restore(snap persist.Snapshot) error {
	if snap.Version != s.version {
		return readWriteError("load", fmt.Errorf("version mismatch: saved %q, expected %q", snap.Version, s.version))
	}

	for _, rec := range snap.Cells {
		if _, err := s.SetContent(rec.Name, rec.Contents); err != nil {
			return readWriteError("load", fmt.Errorf("cell %s: %w", rec.Name, err))
		}
	}
	s.changed = false
	return nil
}

func readWriteError(op string, err error) *AppError {
	msg := fmt.Sprintf("spreadsheet: %s: %v", op, err)
	if errors.Is(err, persist.ErrNotFound) {
		msg = fmt.Sprintf("spreadsheet: %s: nothing saved yet: %v", op, err)
	}
	return &AppError{Code: ReadWrite, Message: msg, Err: err}
}
