package inbox

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/mnemo/internal/storage"
)

// Watch sweeps the inbox once, then watches it with fsnotify and sweeps again
// after each burst of file events until ctx is cancelled.
//
// New directories created at runtime are added to the watch list. Hidden
// directories, including the archive, are never watched.
func (im *Importer) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, im.root); err != nil {
		return err
	}
	im.logger.Info("inbox: watching", slog.String("root", im.root))

	if _, err := im.Sweep(ctx); err != nil && ctx.Err() == nil {
		im.logger.Warn("inbox: initial sweep failed", slog.String("error", err.Error()))
	}

	var sweepTimer *time.Timer
	var sweepCh <-chan time.Time

	scheduleSweep := func() {
		if sweepTimer == nil {
			sweepTimer = time.NewTimer(im.debounce)
			sweepCh = sweepTimer.C
		} else {
			sweepTimer.Reset(im.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if sweepTimer != nil {
				sweepTimer.Stop()
			}
			im.logger.Info("inbox: stopped")
			return nil

		case <-sweepCh:
			if _, err := im.Sweep(ctx); err != nil && ctx.Err() == nil {
				im.logger.Warn("inbox: sweep failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if storage.IsHidden(name) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						im.logger.Warn("inbox: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// Files may have landed before the watch was added.
					scheduleSweep()
					continue
				}
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 && storage.Importable(name) {
				scheduleSweep()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			im.logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its visible subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && storage.IsHidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
