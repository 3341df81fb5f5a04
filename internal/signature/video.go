package signature

import (
	"context"
	"log/slog"
	"strings"

	"github.com/corona10/goimagehash"

	"dedupe/internal/category"
	"dedupe/internal/logging"
)

// frameHashBits is the per-frame average hash size (8×8 grid).
const frameHashBits = 64

// VideoProvider fingerprints videos by perceptually hashing an evenly
// spaced sample of frames. Videos with fewer frames than the sample
// count use every frame; signatures with differing frame counts never
// match.
type VideoProvider struct {
	sampler      FrameSampler
	sampleFrames int
	cache        *lruCache
	logger       *slog.Logger
}

func NewVideoProvider(sampler FrameSampler, sampleFrames int, cacheSize int, logger *slog.Logger) *VideoProvider {
	return &VideoProvider{
		sampler:      sampler,
		sampleFrames: sampleFrames,
		cache:        newLRUCache(cacheSize),
		logger:       logging.NewComponentLogger(logger, "signature.video"),
	}
}

func (p *VideoProvider) Category() category.Category { return category.Video }

func (p *VideoProvider) ComputeSignature(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if sig, ok := p.cache.Get(path); ok {
		return sig, nil
	}
	if p.sampler == nil {
		return "", nil
	}

	frames, err := p.sampler.SampleFrames(ctx, path, p.sampleFrames)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		p.logger.Debug("frame sampling failed", logging.String(logging.FieldPath, path), logging.Error(err))
		return "", nil
	}
	if len(frames) == 0 {
		return "", nil
	}

	hashes := make([]string, 0, len(frames))
	for _, frame := range frames {
		hash, err := goimagehash.AverageHash(frame)
		if err != nil {
			p.logger.Debug("frame hash failed", logging.String(logging.FieldPath, path), logging.Error(err))
			return "", nil
		}
		hashes = append(hashes, hash.ToString())
	}

	sig := strings.Join(hashes, channelDelimiter)
	p.cache.Set(path, sig)
	return sig, nil
}

// CompareSignatures averages per-frame hash similarity. Signatures with
// different sampled-frame counts are incomparable and score 0.
func (p *VideoProvider) CompareSignatures(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	framesA := strings.Split(a, channelDelimiter)
	framesB := strings.Split(b, channelDelimiter)
	if len(framesA) != len(framesB) {
		return 0
	}

	var total float64
	for i := range framesA {
		hashA, err := goimagehash.ImageHashFromString(framesA[i])
		if err != nil {
			return 0
		}
		hashB, err := goimagehash.ImageHashFromString(framesB[i])
		if err != nil {
			return 0
		}
		distance, err := hashA.Distance(hashB)
		if err != nil {
			return 0
		}
		total += 1 - float64(distance)/float64(frameHashBits)
	}
	return total / float64(len(framesA))
}

func (p *VideoProvider) CompareFiles(ctx context.Context, pathA, pathB string) float64 {
	sigA, _ := p.ComputeSignature(ctx, pathA)
	sigB, _ := p.ComputeSignature(ctx, pathB)
	if sigA == "" || sigB == "" {
		return 0
	}
	return p.CompareSignatures(sigA, sigB)
}

// BucketKey buckets on the leading hex of the first sampled frame.
func (p *VideoProvider) BucketKey(sig string) string {
	first, _, _ := strings.Cut(sig, channelDelimiter)
	return hexPrefix(stripHashKind(first))
}
