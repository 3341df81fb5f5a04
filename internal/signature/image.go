package signature

import (
	"context"
	"image"
	"log/slog"
	"os"
	"strings"

	"github.com/corona10/goimagehash"

	// Decoders for the image formats the category table admits. SVG has
	// no raster decoder; such files yield an absent signature.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"dedupe/internal/category"
	"dedupe/internal/logging"
)

const (
	// imageHashSize is the perceptual hash grid edge; every channel
	// carries imageHashSize² bits.
	imageHashSize = 12
	imageHashBits = imageHashSize * imageHashSize

	channelDelimiter = "|"
	imageChannels    = 3
)

// ImageProvider fingerprints images with three independent perceptual
// hashes: mean-brightness (average), frequency-domain (DCT perception),
// and gradient (difference). The combined similarity is the minimum
// across channels, so all three must agree before two images group.
type ImageProvider struct {
	cache  *lruCache
	logger *slog.Logger
}

func NewImageProvider(cacheSize int, logger *slog.Logger) *ImageProvider {
	return &ImageProvider{
		cache:  newLRUCache(cacheSize),
		logger: logging.NewComponentLogger(logger, "signature.image"),
	}
}

func (p *ImageProvider) Category() category.Category { return category.Image }

func (p *ImageProvider) ComputeSignature(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if sig, ok := p.cache.Get(path); ok {
		return sig, nil
	}

	img, err := decodeImage(path)
	if err != nil {
		p.logger.Debug("decode failed", logging.String(logging.FieldPath, path), logging.Error(err))
		return "", nil
	}

	sig, err := hashImage(img)
	if err != nil {
		p.logger.Debug("hash failed", logging.String(logging.FieldPath, path), logging.Error(err))
		return "", nil
	}

	p.cache.Set(path, sig)
	return sig, nil
}

// CompareSignatures returns the minimum per-channel similarity. A lone
// coincidentally matching channel cannot produce a false positive.
func (p *ImageProvider) CompareSignatures(a, b string) float64 {
	partsA := strings.Split(a, channelDelimiter)
	partsB := strings.Split(b, channelDelimiter)
	if len(partsA) != imageChannels || len(partsB) != imageChannels {
		return 0
	}

	lowest := 1.0
	for i := 0; i < imageChannels; i++ {
		hashA, err := goimagehash.ExtImageHashFromString(partsA[i])
		if err != nil {
			return 0
		}
		hashB, err := goimagehash.ExtImageHashFromString(partsB[i])
		if err != nil {
			return 0
		}
		distance, err := hashA.Distance(hashB)
		if err != nil {
			return 0
		}
		sim := 1 - float64(distance)/float64(imageHashBits)
		if sim < lowest {
			lowest = sim
		}
	}
	return lowest
}

func (p *ImageProvider) CompareFiles(ctx context.Context, pathA, pathB string) float64 {
	sigA, _ := p.ComputeSignature(ctx, pathA)
	sigB, _ := p.ComputeSignature(ctx, pathB)
	if sigA == "" || sigB == "" {
		return 0
	}
	return p.CompareSignatures(sigA, sigB)
}

// BucketKey buckets on the leading hex of the average-hash channel.
func (p *ImageProvider) BucketKey(sig string) string {
	first, _, _ := strings.Cut(sig, channelDelimiter)
	return hexPrefix(stripHashKind(first))
}

func decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func hashImage(img image.Image) (string, error) {
	average, err := goimagehash.ExtAverageHash(img, imageHashSize, imageHashSize)
	if err != nil {
		return "", err
	}
	perception, err := goimagehash.ExtPerceptionHash(img, imageHashSize, imageHashSize)
	if err != nil {
		return "", err
	}
	difference, err := goimagehash.ExtDifferenceHash(img, imageHashSize, imageHashSize)
	if err != nil {
		return "", err
	}
	return average.ToString() + channelDelimiter + perception.ToString() + channelDelimiter + difference.ToString(), nil
}

// stripHashKind removes the goimagehash kind prefix ("a:", "p:", "d:")
// so bucket keys span hash payload bits only.
func stripHashKind(encoded string) string {
	if _, payload, found := strings.Cut(encoded, ":"); found {
		return payload
	}
	return encoded
}
