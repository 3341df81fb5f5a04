package discovery

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"dedupe/internal/category"
	"dedupe/internal/logging"
)

// FileRecord describes a discovered file. Records are never mutated
// after discovery.
type FileRecord struct {
	Path     string
	Size     int64
	ModTime  time.Time
	Ext      string
	Category category.Category
}

// Root pairs a scan root with its recursion flag.
type Root struct {
	Path           string
	IncludeSubdirs bool
}

// excludedDirs are skipped at any depth.
var excludedDirs = map[string]struct{}{
	"node_modules": {}, "__pycache__": {}, ".git": {}, ".svn": {},
	"venv": {}, "env": {}, ".venv": {}, "dist": {}, "build": {},
	".cache": {}, ".pytest_cache": {}, ".mypy_cache": {},
}

// Progress reports discovery state: index of the root being walked,
// total roots, and the running count of discovered files.
type Progress struct {
	RootIndex  int
	RootCount  int
	Discovered int
}

// Walker enumerates files for the requested categories.
type Walker struct {
	categories map[category.Category]struct{}
	logger     *slog.Logger
}

// NewWalker constructs a walker limited to the given categories.
func NewWalker(categories []category.Category, logger *slog.Logger) *Walker {
	set := make(map[category.Category]struct{}, len(categories))
	for _, cat := range categories {
		set[cat] = struct{}{}
	}
	return &Walker{
		categories: set,
		logger:     logging.NewComponentLogger(logger, "discovery"),
	}
}

// Walk enumerates all roots in order and returns the discovered records.
// Encounter order within a root follows the filesystem walk; order
// across roots is the root order, but callers must not rely on it.
// onProgress may be nil.
func (w *Walker) Walk(ctx context.Context, roots []Root, onProgress func(Progress)) ([]FileRecord, error) {
	var records []FileRecord
	for idx, root := range roots {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		if err := unix.Access(root.Path, unix.R_OK); err != nil {
			w.logger.Warn("skipping unreadable root",
				logging.String(logging.FieldRoot, root.Path),
				logging.Error(err),
			)
			continue
		}

		emit := func(rec FileRecord) {
			records = append(records, rec)
			if onProgress != nil {
				onProgress(Progress{RootIndex: idx, RootCount: len(roots), Discovered: len(records)})
			}
		}

		var err error
		if root.IncludeSubdirs {
			err = w.walkRecursive(ctx, root.Path, emit)
		} else {
			err = w.walkFlat(ctx, root.Path, emit)
		}
		if err != nil {
			return records, err
		}
	}
	return records, nil
}

func (w *Walker) walkRecursive(ctx context.Context, root string, emit func(FileRecord)) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Unreadable directory or vanished entry: skip and continue.
			w.logger.Debug("walk error", logging.String(logging.FieldPath, path), logging.Error(err))
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			if _, excluded := excludedDirs[entry.Name()]; excluded && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if rec, ok := w.record(path, entry); ok {
			emit(rec)
		}
		return nil
	})
}

func (w *Walker) walkFlat(ctx context.Context, root string, emit func(FileRecord)) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		w.logger.Warn("skipping unreadable root", logging.String(logging.FieldRoot, root), logging.Error(err))
		return nil
	}
	for _, entry := range entries {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			continue
		}
		if rec, ok := w.record(filepath.Join(root, entry.Name()), entry); ok {
			emit(rec)
		}
	}
	return nil
}

func (w *Walker) record(path string, entry fs.DirEntry) (FileRecord, bool) {
	cat, ok := category.ForPath(path)
	if !ok {
		return FileRecord{}, false
	}
	if _, requested := w.categories[cat]; !requested {
		return FileRecord{}, false
	}
	info, err := entry.Info()
	if err != nil {
		// File vanished between listing and stat.
		w.logger.Debug("stat failed", logging.String(logging.FieldPath, path), logging.Error(err))
		return FileRecord{}, false
	}
	return FileRecord{
		Path:     path,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
		Ext:      filepath.Ext(path),
		Category: cat,
	}, true
}
