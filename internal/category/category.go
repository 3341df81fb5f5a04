// Package category maps file extensions to the duplicate-detection
// categories each signature provider owns.
package category

import (
	"path/filepath"
	"sort"
	"strings"
)

// Category identifies which signature provider handles a file.
type Category string

const (
	Image    Category = "image"
	Document Category = "document"
	Video    Category = "video"
	Archive  Category = "archive"
	Code     Category = "code"
)

// extensions maps lowercased file extensions (with leading dot) to a category.
// The table is static; lookups are case-insensitive.
var extensions = map[string]Category{
	".jpg": Image, ".jpeg": Image, ".png": Image, ".gif": Image,
	".bmp": Image, ".webp": Image, ".tiff": Image, ".svg": Image,

	".txt": Document, ".doc": Document, ".docx": Document, ".odt": Document,
	".pdf": Document, ".rtf": Document, ".srt": Document, ".vtt": Document,
	".sub": Document,

	".mp4": Video, ".avi": Video, ".mkv": Video, ".mov": Video,
	".wmv": Video, ".flv": Video, ".webm": Video, ".m4v": Video,

	".zip": Archive, ".tar": Archive, ".gz": Archive, ".bz2": Archive,
	".xz": Archive, ".7z": Archive, ".rar": Archive, ".zst": Archive,

	".py": Code, ".js": Code, ".ts": Code, ".exs": Code, ".html": Code,
	".css": Code, ".jsx": Code, ".tsx": Code, ".vue": Code, ".rs": Code,
	".go": Code, ".cpp": Code, ".c": Code, ".h": Code,
}

// All lists every category in a stable order.
func All() []Category {
	return []Category{Image, Document, Video, Archive, Code}
}

// Parse resolves a user-supplied category name.
func Parse(value string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(value))) {
	case Image:
		return Image, true
	case Document:
		return Document, true
	case Video:
		return Video, true
	case Archive:
		return Archive, true
	case Code:
		return Code, true
	}
	return "", false
}

// ForPath returns the category owning the path's extension.
func ForPath(path string) (Category, bool) {
	cat, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return cat, ok
}

// Extensions returns the sorted extensions belonging to the given categories.
func Extensions(categories []Category) []string {
	requested := make(map[Category]struct{}, len(categories))
	for _, cat := range categories {
		requested[cat] = struct{}{}
	}
	var exts []string
	for ext, cat := range extensions {
		if _, ok := requested[cat]; ok {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}
