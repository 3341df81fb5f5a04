package signature

import (
	"context"
	"log/slog"

	"dedupe/internal/category"
	"dedupe/internal/logging"
)

// ArchiveProvider fingerprints archives by exact content hash. There is
// no fuzzy comparison for this category: two archives either match
// byte-for-byte or not at all.
type ArchiveProvider struct {
	cache  *lruCache
	logger *slog.Logger
}

func NewArchiveProvider(cacheSize int, logger *slog.Logger) *ArchiveProvider {
	return &ArchiveProvider{
		cache:  newLRUCache(cacheSize),
		logger: logging.NewComponentLogger(logger, "signature.archive"),
	}
}

func (p *ArchiveProvider) Category() category.Category { return category.Archive }

func (p *ArchiveProvider) ComputeSignature(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if sig, ok := p.cache.Get(path); ok {
		return sig, nil
	}
	sig, err := fileHash(path)
	if err != nil {
		p.logger.Debug("hash failed", logging.String(logging.FieldPath, path), logging.Error(err))
		return "", nil
	}
	p.cache.Set(path, sig)
	return sig, nil
}

func (p *ArchiveProvider) CompareSignatures(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return 0
}

func (p *ArchiveProvider) CompareFiles(ctx context.Context, pathA, pathB string) float64 {
	sigA, _ := p.ComputeSignature(ctx, pathA)
	sigB, _ := p.ComputeSignature(ctx, pathB)
	return p.CompareSignatures(sigA, sigB)
}

// BucketKey returns ""; archives participate in the exact phase only.
func (p *ArchiveProvider) BucketKey(string) string { return "" }
