package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vk/formulagrid/internal/ctxlog"
	"github.com/vk/formulagrid/internal/formula"
)

// watchDebounce lets a burst of writes settle before the batch is re-run.
const watchDebounce = 100 * time.Millisecond

// watch runs the batch once, then again after every change to the batch or
// records files, until ctx is cancelled. Failed runs are logged and do not
// stop the loop.
func (a *App) watch(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	dirs, err := a.watchDirs()
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		logger.Info("Watching for changes.", "dir", dir)
	}

	a.runLogged(ctx)

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Watch stopped.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if !a.isWatched(event.Name) {
				continue
			}
			logger.Debug("Change detected.", "path", event.Name, "op", event.Op.String())
			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("File watcher error.", "error", err)

		case <-timer.C:
			a.runLogged(ctx)
		}
	}
}

func (a *App) runLogged(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	err := a.runOnce(ctx)
	switch {
	case err == nil:
	case formula.IsClientError(err):
		logger.Warn("Batch rejected.", "error", err)
	default:
		logger.Error("Batch run failed.", "error", err)
	}
}

// watchDirs lists the directories to watch: every directory under a batch
// directory, and the parent directory of each watched file.
func (a *App) watchDirs() ([]string, error) {
	var dirs []string
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}

	for _, p := range a.watchedPaths() {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("watching %s: %w", p, err)
		}
		if !info.IsDir() {
			add(filepath.Dir(p))
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("watching %s: %w", p, err)
		}
	}
	return dirs, nil
}

func (a *App) watchedPaths() []string {
	paths := []string{filepath.Clean(a.config.BatchPath)}
	if a.config.RecordsPath != "" {
		paths = append(paths, filepath.Clean(a.config.RecordsPath))
	}
	return paths
}

// isWatched reports whether a change to path affects the batch: the path is
// a watched file, or an .hcl file under a watched directory.
func (a *App) isWatched(path string) bool {
	path = filepath.Clean(path)
	for _, p := range a.watchedPaths() {
		if path == p {
			return true
		}
		if strings.HasPrefix(path, p+string(filepath.Separator)) && strings.EqualFold(filepath.Ext(path), ".hcl") {
			return true
		}
	}
	return false
}
