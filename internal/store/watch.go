package store

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchStaleness watches the directory holding the store's db file for the
// given duration and reports whether any write-related event landed on the
// db/WAL/SHM files during that window. doctor uses this to distinguish "no
// process is actively using this database" from "something's wrong" — an
// in-memory store always reports false (nothing to watch).
func (s *Store) WatchStaleness(window time.Duration) (active bool, err error) {
	if s.path == "" || isMemoryPath(s.path) {
		return false, nil
	}
	dir := filepath.Dir(s.path)
	base := filepath.Base(s.path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return false, fmt.Errorf("store: watch staleness: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return false, fmt.Errorf("store: watch staleness: watching %s: %w", dir, err)
	}

	deadline := time.After(window)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return false, nil
			}
			name := filepath.Base(ev.Name)
			if name == base || name == base+"-wal" || name == base+"-shm" {
				return true, nil
			}
		case err := <-w.Errors:
			return false, fmt.Errorf("store: watch staleness: %w", err)
		case <-deadline:
			return false, nil
		}
	}
}
