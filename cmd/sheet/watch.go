package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// debounce groups the bursts of events a single save produces
const debounce = 100 * time.Millisecond

// badgerLockFile comes and goes with every process that opens a badger
// sheet for writing
const badgerLockFile = "LOCK"

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Show the sheet again every time it is saved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd.Context(), func() error {
				s, err := a.loadSheet(cmd.Context(), true)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return renderSheet(cmd.OutOrStdout(), s, a.styles)
			})
		},
	}
}

// watch calls render once and then after every change to the sheet until
// ctx is done. the parent directory is watched because file stores replace
// the sheet by renaming a temporary file over it. render must not write to
// the sheet's location.
func (a *app) watch(ctx context.Context, render func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	path, err := filepath.Abs(a.cfg.Store.Path)
	if err != nil {
		return err
	}
	dirs := []string{filepath.Dir(path)}
	if isDir(path) {
		dirs = append(dirs, path)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	a.logger.Info("watching sheet", "path", path)

	if err := render(); err != nil {
		return err
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !affects(event, path) {
				continue
			}
			if event.Has(fsnotify.Create) && isDir(path) && filepath.Clean(event.Name) == filepath.Clean(path) {
				// a badger sheet created after watching started
				if err := watcher.Add(path); err != nil {
					a.logger.Warn("watch sheet directory", "path", path, "error", err)
				}
			}
			a.logger.Debug("sheet changed", "event", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			if err := render(); err != nil {
				a.logger.Warn("reload sheet", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watcher error", "error", err)
		}
	}
}

// affects reports whether event touches the sheet itself or, for directory
// backed stores, a file inside it
func affects(event fsnotify.Event, path string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil || filepath.Base(name) == badgerLockFile {
		return false
	}
	return name == path || strings.HasPrefix(name, path+string(filepath.Separator))
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
