package signature

import (
	"context"
	"testing"

	"dedupe/internal/logging"
)

func TestCodeSignatureIgnoresComments(t *testing.T) {
	dir := t.TempDir()
	pathA := writeBytes(t, dir, "a.go", []byte("package main\n\nfunc main() {\n\tprintln(1)\n}\n"))
	pathB := writeBytes(t, dir, "b.go", []byte("// entry point\npackage main\n\nfunc main() {\n\tprintln(1)\n}\n"))

	provider := NewCodeProvider(16, logging.NewNop())
	ctx := context.Background()

	sigA, _ := provider.ComputeSignature(ctx, pathA)
	sigB, _ := provider.ComputeSignature(ctx, pathB)
	if sigA == "" || sigA != sigB {
		t.Fatalf("comment-only differences should not change the signature: %q vs %q", sigA, sigB)
	}
}

func TestCodeSignatureDiffersForDifferentLogic(t *testing.T) {
	dir := t.TempDir()
	pathA := writeBytes(t, dir, "a.py", []byte("def add(a, b):\n    return a + b\n"))
	pathB := writeBytes(t, dir, "b.py", []byte("def sub(a, b):\n    return a - b\n"))

	provider := NewCodeProvider(16, logging.NewNop())
	ctx := context.Background()

	sigA, _ := provider.ComputeSignature(ctx, pathA)
	sigB, _ := provider.ComputeSignature(ctx, pathB)
	if sigA == sigB {
		t.Fatalf("different logic should produce different signatures")
	}
	if got := provider.CompareSignatures(sigA, sigB); got != 0 {
		t.Fatalf("differing hashes must score 0, got %v", got)
	}
}

func TestCodeEmptyAfterNormalizationHasNoSignature(t *testing.T) {
	dir := t.TempDir()
	path := writeBytes(t, dir, "comments.go", []byte("// nothing but comments\n// all the way down\n"))

	provider := NewCodeProvider(16, logging.NewNop())
	sig, err := provider.ComputeSignature(context.Background(), path)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if sig != "" {
		t.Fatalf("comment-only files should have no signature")
	}
}

func TestCodeCompareFilesDeduplicatesTokens(t *testing.T) {
	dir := t.TempDir()
	pathA := writeBytes(t, dir, "a.js", []byte("let x = 1\nlet y = 1\n"))
	pathB := writeBytes(t, dir, "b.js", []byte("let y = 1\nlet x = 1\nlet x = 1\n"))

	provider := NewCodeProvider(16, logging.NewNop())
	got := provider.CompareFiles(context.Background(), pathA, pathB)
	if got != 1.0 {
		t.Fatalf("token-set comparison should ignore order and repetition, got %v", got)
	}
}

func TestCodeCompareFilesMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := writeBytes(t, dir, "a.go", []byte("package main\n"))

	provider := NewCodeProvider(16, logging.NewNop())
	if got := provider.CompareFiles(context.Background(), path, "/nonexistent/b.go"); got != 0 {
		t.Fatalf("unreadable file must score 0, got %v", got)
	}
}

func TestCodeBucketKeyIsHexPrefix(t *testing.T) {
	provider := NewCodeProvider(16, logging.NewNop())
	if got := provider.BucketKey("0123456789abcdef"); got != "01234567" {
		t.Fatalf("unexpected bucket key: %q", got)
	}
}
