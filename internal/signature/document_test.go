package signature

import (
	"context"
	"testing"

	"dedupe/internal/logging"
)

func TestDocumentSignatureIgnoresWhitespaceLayout(t *testing.T) {
	dir := t.TempDir()
	pathA := writeBytes(t, dir, "a.txt", []byte("the quick brown fox jumps over the lazy dog"))
	pathB := writeBytes(t, dir, "b.txt", []byte("the  quick\n brown\tfox jumps over the lazy dog\n"))

	provider := NewDocumentProvider(16, logging.NewNop())
	ctx := context.Background()

	sigA, _ := provider.ComputeSignature(ctx, pathA)
	sigB, _ := provider.ComputeSignature(ctx, pathB)
	if sigA == "" || sigA != sigB {
		t.Fatalf("whitespace layout should not change the signature: %q vs %q", sigA, sigB)
	}
	if got := provider.CompareSignatures(sigA, sigB); got != 1.0 {
		t.Fatalf("expected 1.0, got %v", got)
	}
}

func TestDocumentShortTextHasNoSignature(t *testing.T) {
	dir := t.TempDir()
	path := writeBytes(t, dir, "short.txt", []byte("tiny"))

	provider := NewDocumentProvider(16, logging.NewNop())
	sig, err := provider.ComputeSignature(context.Background(), path)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if sig != "" {
		t.Fatalf("text below the minimum length should have no signature")
	}
}

func TestDocumentUnsupportedFormatHasNoSignature(t *testing.T) {
	dir := t.TempDir()
	path := writeBytes(t, dir, "report.pdf", []byte("%PDF-1.4 binary payload that is long enough"))

	provider := NewDocumentProvider(16, logging.NewNop())
	sig, err := provider.ComputeSignature(context.Background(), path)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if sig != "" {
		t.Fatalf("formats without a text extractor should have no signature")
	}
}

func TestDocumentDifferentTextScoresZeroAtSignatureLevel(t *testing.T) {
	dir := t.TempDir()
	pathA := writeBytes(t, dir, "a.txt", []byte("the quick brown fox jumps over the lazy dog"))
	pathB := writeBytes(t, dir, "b.txt", []byte("an entirely different body of document text"))

	provider := NewDocumentProvider(16, logging.NewNop())
	ctx := context.Background()

	sigA, _ := provider.ComputeSignature(ctx, pathA)
	sigB, _ := provider.ComputeSignature(ctx, pathB)
	if got := provider.CompareSignatures(sigA, sigB); got != 0 {
		t.Fatalf("differing hashes must score 0, got %v", got)
	}
}

func TestDocumentCompareFilesTokenOrderInsensitive(t *testing.T) {
	dir := t.TempDir()
	pathA := writeBytes(t, dir, "a.txt", []byte("alpha beta gamma delta epsilon"))
	pathB := writeBytes(t, dir, "b.txt", []byte("epsilon delta gamma beta alpha"))

	provider := NewDocumentProvider(16, logging.NewNop())
	got := provider.CompareFiles(context.Background(), pathA, pathB)
	if got != 1.0 {
		t.Fatalf("token-sorted comparison should ignore word order, got %v", got)
	}
}

func TestDocumentCompareFilesNearDuplicate(t *testing.T) {
	dir := t.TempDir()
	pathA := writeBytes(t, dir, "a.txt", []byte("meeting notes for the quarterly planning session in august"))
	pathB := writeBytes(t, dir, "b.txt", []byte("meeting notes for the quarterly planning session in september"))

	provider := NewDocumentProvider(16, logging.NewNop())
	got := provider.CompareFiles(context.Background(), pathA, pathB)
	if got <= 0.8 || got >= 1.0 {
		t.Fatalf("expected a high but imperfect ratio, got %v", got)
	}
}

func TestDocumentBucketKeyIsHexPrefix(t *testing.T) {
	provider := NewDocumentProvider(16, logging.NewNop())
	if got := provider.BucketKey("deadbeefcafe0123"); got != "deadbeef" {
		t.Fatalf("unexpected bucket key: %q", got)
	}
}
