// Package inbox imports text files dropped into a directory as notes.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/mnemo/internal/noteservice"
	"github.com/starford/mnemo/internal/parser"
	"github.com/starford/mnemo/internal/storage"
)

// DefaultDebounce is the quiet period after a file event before a sweep runs.
const DefaultDebounce = 300 * time.Millisecond

// Creator creates notes from imported files. DeleteNote rolls an import back
// when its file cannot be archived.
type Creator interface {
	CreateNote(ctx context.Context, title, body string) (*noteservice.NoteDetail, error)
	DeleteNote(ctx context.Context, id string) error
}

// Option configures an Importer.
type Option func(*Importer)

// WithArchiveDir sets the directory (relative to the inbox root) imported
// files are moved to. An empty dir deletes files after import.
func WithArchiveDir(dir string) Option {
	return func(im *Importer) { im.archiveDir = dir }
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(im *Importer) { im.debounce = d }
}

// Importer turns every importable file in an inbox directory into a note.
type Importer struct {
	notes      Creator
	files      storage.Provider
	root       string
	archiveDir string
	debounce   time.Duration
	logger     *slog.Logger
}

// New creates an Importer over files rooted at root.
func New(notes Creator, files storage.Provider, root string, logger *slog.Logger, opts ...Option) *Importer {
	im := &Importer{
		notes:      notes,
		files:      files,
		root:       root,
		archiveDir: ".imported",
		debounce:   DefaultDebounce,
		logger:     logger,
	}
	for _, o := range opts {
		o(im)
	}
	return im
}

// Sweep imports every file currently in the inbox and returns how many notes
// were created. Files that fail to import are logged and left in place.
func (im *Importer) Sweep(ctx context.Context) (int, error) {
	metas, err := im.files.List("")
	if err != nil {
		return 0, err
	}
	paths := make([]string, 0, len(metas))
	for _, m := range metas {
		if !im.archived(m.Path) {
			paths = append(paths, m.Path)
		}
	}
	sort.Strings(paths)

	imported := 0
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return imported, err
		}
		id, err := im.ImportFile(ctx, p)
		if err != nil {
			im.logger.Warn("inbox: import failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		imported++
		im.logger.Info("inbox: imported", slog.String("path", p), slog.String("id", id))
	}
	return imported, nil
}

// ImportFile creates a note from the file at rel and then archives or
// deletes it. It returns the new note's id.
func (im *Importer) ImportFile(ctx context.Context, rel string) (string, error) {
	data, err := im.files.Read(rel)
	if err != nil {
		return "", err
	}
	base := filepath.Base(rel)
	res := parser.Parse(data, strings.TrimSuffix(base, filepath.Ext(base)))

	note, err := im.notes.CreateNote(ctx, res.Title, res.Body)
	if err != nil {
		return "", fmt.Errorf("inbox: create note from %s: %w", rel, err)
	}

	if im.archiveDir == "" {
		err = im.files.Delete(rel)
	} else {
		err = im.files.Move(rel, im.archivePath(rel, note.ID))
	}
	if err != nil {
		// The file stays in the inbox, so drop the note to keep the next
		// sweep from importing a duplicate.
		err = fmt.Errorf("inbox: archive %s: %w", rel, err)
		if derr := im.notes.DeleteNote(ctx, note.ID); derr != nil {
			err = errors.Join(err, fmt.Errorf("inbox: roll back note %s: %w", note.ID, derr))
		}
		return "", err
	}
	return note.ID, nil
}

// archived reports whether rel lies inside the archive directory.
func (im *Importer) archived(rel string) bool {
	if im.archiveDir == "" {
		return false
	}
	r, err := filepath.Rel(im.archiveDir, rel)
	return err == nil && !strings.HasPrefix(r, "..")
}

// archivePath keeps the file's relative directory and prefixes the note id
// so repeated imports of the same name do not collide.
func (im *Importer) archivePath(rel, id string) string {
	dir, base := filepath.Split(rel)
	return filepath.Join(im.archiveDir, dir, id+"-"+base)
}
