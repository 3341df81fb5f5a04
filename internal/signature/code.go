package signature

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"dedupe/internal/category"
	"dedupe/internal/logging"
	"dedupe/internal/textutil"
)

// CodeProvider fingerprints source files by hashing comment-stripped,
// whitespace-normalized content. CompareFiles offers a token-set fuzzy
// ratio so reordered but equivalent code still scores high.
type CodeProvider struct {
	codeCache *lruCache
	logger    *slog.Logger
	metric    *metrics.Levenshtein
}

func NewCodeProvider(cacheSize int, logger *slog.Logger) *CodeProvider {
	return &CodeProvider{
		codeCache: newLRUCache(cacheSize),
		logger:    logging.NewComponentLogger(logger, "signature.code"),
		metric:    metrics.NewLevenshtein(),
	}
}

func (p *CodeProvider) Category() category.Category { return category.Code }

func (p *CodeProvider) ComputeSignature(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	code := p.normalizedCode(path)
	if strings.TrimSpace(code) == "" {
		return "", nil
	}
	return textHash(code), nil
}

func (p *CodeProvider) CompareSignatures(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return 0
}

// CompareFiles scores two source files with a token-set fuzzy ratio
// over their normalized content.
func (p *CodeProvider) CompareFiles(ctx context.Context, pathA, pathB string) float64 {
	if ctx.Err() != nil {
		return 0
	}
	codeA := p.normalizedCode(pathA)
	codeB := p.normalizedCode(pathB)
	if codeA == "" || codeB == "" {
		return 0
	}
	return strutil.Similarity(textutil.UniqueSortedTokens(codeA), textutil.UniqueSortedTokens(codeB), p.metric)
}

func (p *CodeProvider) BucketKey(sig string) string { return hexPrefix(sig) }

func (p *CodeProvider) normalizedCode(path string) string {
	if code, ok := p.codeCache.Get(path); ok {
		return code
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		p.logger.Debug("read failed", logging.String(logging.FieldPath, path), logging.Error(err))
		return ""
	}
	decoded, ok := textutil.Decode(raw)
	if !ok {
		p.logger.Debug("undecodable source", logging.String(logging.FieldPath, path))
		return ""
	}

	code := textutil.NormalizeCode(decoded)
	p.codeCache.Set(path, code)
	return code
}

func pathExt(path string) string {
	return filepath.Ext(path)
}
