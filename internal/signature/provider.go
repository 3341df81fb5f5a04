package signature

import (
	"context"
	"image"
	"log/slog"

	"dedupe/internal/category"
	"dedupe/internal/config"
)

// Provider computes and compares signatures for one category.
//
// ComputeSignature returns an empty signature when the file cannot be
// fingerprinted; the error return is reserved for cancellation. All
// similarity scores are in [0, 1].
type Provider interface {
	Category() category.Category

	ComputeSignature(ctx context.Context, path string) (string, error)

	// CompareSignatures scores two signatures produced by this provider.
	CompareSignatures(a, b string) float64

	// CompareFiles scores two files from raw content. This is the
	// fallback for callers that need similarity beyond what the
	// signature encodes (fuzzy text comparison); the bucketed grouping
	// path does not use it.
	CompareFiles(ctx context.Context, pathA, pathB string) float64

	// BucketKey derives the locality-sensitive bucket for a signature.
	// An empty key marks an exact-match-only category: no fuzzy
	// bucketing phase runs for it.
	BucketKey(sig string) string
}

// FrameSampler extracts evenly spaced frames from a video file.
// Implemented by the ffmpeg package.
type FrameSampler interface {
	SampleFrames(ctx context.Context, path string, max int) ([]image.Image, error)
}

// NewProviders builds the provider for every requested category.
func NewProviders(cfg *config.Config, categories []category.Category, sampler FrameSampler, logger *slog.Logger) map[category.Category]Provider {
	providers := make(map[category.Category]Provider, len(categories))
	for _, cat := range categories {
		switch cat {
		case category.Archive:
			providers[cat] = NewArchiveProvider(cfg.Scan.SignatureCacheSize, logger)
		case category.Image:
			providers[cat] = NewImageProvider(cfg.Scan.SignatureCacheSize, logger)
		case category.Video:
			providers[cat] = NewVideoProvider(sampler, cfg.Scan.SampleFrames, cfg.Scan.SignatureCacheSize, logger)
		case category.Document:
			providers[cat] = NewDocumentProvider(cfg.Scan.SignatureCacheSize, logger)
		case category.Code:
			providers[cat] = NewCodeProvider(cfg.Scan.SignatureCacheSize, logger)
		}
	}
	return providers
}

// signaturePrefixLen is the bucket prefix length for hex signatures.
const signaturePrefixLen = 8

func hexPrefix(sig string) string {
	if len(sig) < signaturePrefixLen {
		return sig
	}
	return sig[:signaturePrefixLen]
}
