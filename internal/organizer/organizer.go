package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dedupe/internal/category"
	"dedupe/internal/fileutil"
	"dedupe/internal/logging"
)

// otherFolder receives files whose extension matches no category.
const otherFolder = "others"

// categoryFolders maps each category to its destination folder name.
var categoryFolders = map[category.Category]string{
	category.Image:    "images",
	category.Document: "documents",
	category.Video:    "videos",
	category.Archive:  "archives",
	category.Code:     "code",
}

// Stats summarizes one sorting pass.
type Stats struct {
	Moved      int
	Failed     int
	ByCategory map[string]int
}

// Progress reports sorting advancement file by file.
type Progress struct {
	Processed int
	Total     int
	Current   string
}

// Organizer moves files into category folders.
type Organizer struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Organizer {
	return &Organizer{logger: logging.NewComponentLogger(logger, "organizer")}
}

// Sort moves every regular file directly under sourceDir into a
// category folder under targetDir. Subdirectories are left untouched.
// Individual move failures are counted and logged, not fatal.
func (o *Organizer) Sort(ctx context.Context, sourceDir, targetDir string, onProgress func(Progress)) (*Stats, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, entry.Name())
	}

	stats := &Stats{ByCategory: make(map[string]int)}
	for i, name := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		folder := otherFolder
		if cat, ok := category.ForPath(name); ok {
			folder = categoryFolders[cat]
		}

		destDir := filepath.Join(targetDir, folder)
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return stats, fmt.Errorf("create %s: %w", destDir, err)
		}

		dest, err := fileutil.UniquePath(filepath.Join(destDir, name))
		if err == nil {
			err = fileutil.MoveFile(filepath.Join(sourceDir, name), dest)
		}
		if err != nil {
			stats.Failed++
			o.logger.Warn("move failed",
				logging.String(logging.FieldPath, name),
				logging.Error(err))
		} else {
			stats.Moved++
			stats.ByCategory[folder]++
		}

		if onProgress != nil {
			onProgress(Progress{Processed: i + 1, Total: len(files), Current: name})
		}
	}

	o.logger.Info("sort finished",
		logging.Int(logging.FieldFileCount, stats.Moved),
		logging.Int("failed", stats.Failed))
	return stats, nil
}
