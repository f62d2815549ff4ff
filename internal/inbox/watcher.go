package inbox

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/zettel/internal/storage"
)

// DefaultDebounce is how long a file must stay quiet before it is imported.
const DefaultDebounce = 200 * time.Millisecond

// Watch sweeps the inbox once, then imports capture files as they are
// written until ctx is cancelled. Each path is debounced independently so
// partially written files are not imported.
func Watch(ctx context.Context, notes Notes, files storage.Provider, root string, debounce time.Duration, logger *slog.Logger) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	logger.Info("inbox: watching", slog.String("root", root))

	// restored holds paths the importer moved back itself; the Create event
	// that move produces must not trigger another attempt.
	restored := make(map[string]bool)
	n, back := sweep(ctx, notes, files, logger)
	if n > 0 {
		logger.Info("inbox: initial sweep", slog.Int("imported", n))
	}
	for _, rel := range back {
		restored[rel] = true
	}

	due := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	schedule := func(rel string) {
		if t, ok := timers[rel]; ok {
			t.Reset(debounce)
			return
		}
		timers[rel] = time.AfterFunc(debounce, func() {
			select {
			case due <- rel:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("inbox: stopped")
			return nil

		case rel := <-due:
			delete(timers, rel)
			if _, back := importOne(ctx, notes, files, rel, logger); back {
				restored[rel] = true
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if isDir(ev.Name) {
					if err := addDirsRecursive(w, ev.Name); err != nil {
						logger.Warn("inbox: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", err.Error()))
					}
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			rel, ok := captureFile(root, ev.Name)
			if !ok {
				continue
			}
			if ev.Op&fsnotify.Create != 0 && restored[rel] {
				delete(restored, rel)
				continue
			}
			schedule(rel)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// captureFile maps an event path to a slash-separated inbox path, rejecting
// non-Markdown and hidden files.
func captureFile(root, abs string) (string, bool) {
	if !strings.HasSuffix(abs, ".md") || strings.HasPrefix(filepath.Base(abs), ".") {
		return "", false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
