// Package inbox imports Markdown capture files dropped into a directory.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	"github.com/starford/zettel/internal/apperr"
	"github.com/starford/zettel/internal/models"
	"github.com/starford/zettel/internal/parser"
	"github.com/starford/zettel/internal/storage"
)

// Notes is the write surface the importer needs.
type Notes interface {
	CreateNote(ctx context.Context, content string, parentIDs []int64) (*models.Note, error)
	AddTag(ctx context.Context, noteID int64, tag string) (*models.Tag, error)
}

// ErrSkipped marks a file left in place because it holds nothing to save.
var ErrSkipped = errors.New("inbox: nothing to import")

// Import turns the capture file at rel into a note, tags it and removes the
// file. The file is moved aside before the note is created and moved back
// only when creation fails, so one file yields at most one note.
func Import(ctx context.Context, notes Notes, files storage.Provider, rel string) (*models.Note, error) {
	n, _, err := importFile(ctx, notes, files, rel)
	return n, err
}

// claimName is where a capture file waits while its note is created. Hidden
// names are skipped by List and by the watcher.
func claimName(rel string) string {
	dir, base := path.Split(rel)
	return dir + "." + base + ".importing"
}

// importFile is Import that also reports whether the file was moved back
// into the inbox.
func importFile(ctx context.Context, notes Notes, files storage.Provider, rel string) (*models.Note, bool, error) {
	data, err := files.Read(rel)
	if err != nil {
		return nil, false, fmt.Errorf("inbox: read %s: %w", rel, err)
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, false, fmt.Errorf("inbox: parse %s: %w", rel, err)
	}

	claim := claimName(rel)
	if err := files.Rename(rel, claim); err != nil {
		return nil, false, fmt.Errorf("inbox: claim %s: %w", rel, err)
	}

	n, err := notes.CreateNote(ctx, res.Body, res.Parents)
	if err != nil {
		if rerr := files.Rename(claim, rel); rerr != nil {
			return nil, false, fmt.Errorf("inbox: create from %s: %w (restore failed: %v)", rel, err, rerr)
		}
		if errors.Is(err, apperr.ErrNoChange) {
			return nil, true, fmt.Errorf("%w: %s", ErrSkipped, rel)
		}
		return nil, true, fmt.Errorf("inbox: create from %s: %w", rel, err)
	}

	// The note exists from here on; later failures must not put the file back.
	var errs []error
	for _, tag := range res.Tags {
		if _, err := notes.AddTag(ctx, n.ID, tag); err != nil {
			errs = append(errs, fmt.Errorf("inbox: tag note %d: %w", n.ID, err))
		}
	}
	if err := files.Delete(claim); err != nil {
		errs = append(errs, fmt.Errorf("inbox: remove %s: %w", claim, err))
	}
	return n, false, errors.Join(errs...)
}

// Sweep imports every capture file currently in the inbox and returns the
// number of notes created.
func Sweep(ctx context.Context, notes Notes, files storage.Provider, logger *slog.Logger) int {
	created, _ := sweep(ctx, notes, files, logger)
	return created
}

// sweep also returns the paths that were moved back after a failed import.
func sweep(ctx context.Context, notes Notes, files storage.Provider, logger *slog.Logger) (int, []string) {
	metas, err := files.List("")
	if err != nil {
		logger.Warn("inbox: list failed", slog.String("error", err.Error()))
		return 0, nil
	}
	created := 0
	var restored []string
	for _, m := range metas {
		if ctx.Err() != nil {
			break
		}
		ok, back := importOne(ctx, notes, files, m.Path, logger)
		if ok {
			created++
		}
		if back {
			restored = append(restored, m.Path)
		}
	}
	return created, restored
}

// importOne imports rel and logs the outcome. created reports whether a note
// was written; restored whether the file was moved back into the inbox.
func importOne(ctx context.Context, notes Notes, files storage.Provider, rel string, logger *slog.Logger) (created, restored bool) {
	n, restored, err := importFile(ctx, notes, files, rel)
	switch {
	case err == nil:
		logger.Info("inbox: imported", slog.String("path", rel), slog.Int64("id", n.ID))
		return true, false
	case n != nil:
		logger.Warn("inbox: imported with errors",
			slog.String("path", rel),
			slog.Int64("id", n.ID),
			slog.String("error", err.Error()))
		return true, false
	case errors.Is(err, ErrSkipped):
		logger.Debug("inbox: skipped", slog.String("path", rel))
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("inbox: already gone", slog.String("path", rel))
	default:
		logger.Warn("inbox: import failed", slog.String("path", rel), slog.String("error", err.Error()))
	}
	return false, restored
}
