package signature

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"dedupe/internal/category"
	"dedupe/internal/logging"
	"dedupe/internal/textutil"
)

// minDocumentLength is the minimum normalized text length worth
// fingerprinting; shorter files produce no signature.
const minDocumentLength = 10

// plainTextExtensions are the document formats with a built-in text
// extractor. Other document extensions (.pdf, .docx, ...) have no
// extractor here and yield an absent signature.
var plainTextExtensions = map[string]struct{}{
	".txt": {}, ".srt": {}, ".vtt": {}, ".sub": {},
}

// DocumentProvider fingerprints documents by hashing their normalized
// extracted text. Identical hashes mean identical normalized content;
// CompareFiles offers a token-sort fuzzy ratio for near-duplicate text.
type DocumentProvider struct {
	textCache *lruCache
	logger    *slog.Logger
	metric    *metrics.Levenshtein
}

func NewDocumentProvider(cacheSize int, logger *slog.Logger) *DocumentProvider {
	return &DocumentProvider{
		textCache: newLRUCache(cacheSize),
		logger:    logging.NewComponentLogger(logger, "signature.document"),
		metric:    metrics.NewLevenshtein(),
	}
}

func (p *DocumentProvider) Category() category.Category { return category.Document }

func (p *DocumentProvider) ComputeSignature(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text := p.extractText(path)
	if len(strings.TrimSpace(text)) < minDocumentLength {
		return "", nil
	}
	return textHash(text), nil
}

func (p *DocumentProvider) CompareSignatures(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	// Differing hashes stay 0 at the signature level; near-duplicate
	// text is only scored through CompareFiles.
	return 0
}

// CompareFiles scores two documents with a token-sort fuzzy ratio over
// their normalized text.
func (p *DocumentProvider) CompareFiles(ctx context.Context, pathA, pathB string) float64 {
	if ctx.Err() != nil {
		return 0
	}
	textA := p.extractText(pathA)
	textB := p.extractText(pathB)
	if textA == "" || textB == "" {
		return 0
	}
	return strutil.Similarity(textutil.SortTokens(textA), textutil.SortTokens(textB), p.metric)
}

func (p *DocumentProvider) BucketKey(sig string) string { return hexPrefix(sig) }

// extractText returns normalized document text, or "" when the format
// has no extractor or the file is unreadable.
func (p *DocumentProvider) extractText(path string) string {
	if text, ok := p.textCache.Get(path); ok {
		return text
	}

	ext := strings.ToLower(pathExt(path))
	if _, ok := plainTextExtensions[ext]; !ok {
		return ""
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		p.logger.Debug("read failed", logging.String(logging.FieldPath, path), logging.Error(err))
		return ""
	}
	decoded, ok := textutil.Decode(raw)
	if !ok {
		p.logger.Debug("undecodable text", logging.String(logging.FieldPath, path))
		return ""
	}

	text := textutil.NormalizeText(decoded)
	p.textCache.Set(path, text)
	return text
}
