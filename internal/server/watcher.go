package server

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of events an export rewrite produces.
const debounceDelay = 100 * time.Millisecond

// isExport reports whether a changed file can hold registry exports.
func isExport(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return true
	}
	return false
}

// watchFiles reloads the registry when exports in the watch directory
// change.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.watchDir); err != nil {
		s.logger.Error("failed to watch export directory", "dir", s.watchDir, "error", err)
		// Don't fail - continue without watching
		<-ctx.Done()
		return nil
	}
	s.logger.Debug("watching exports", "dir", s.watchDir)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !isExport(event.Name) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.logger.Debug("export changed, reloading", "file", name)
				if err := s.Reload(ctx); err != nil {
					s.logger.Error("reload failed", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}
