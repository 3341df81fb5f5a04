package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Scan.SimilarityThreshold != 0.95 {
		t.Fatalf("unexpected default threshold: %v", cfg.Scan.SimilarityThreshold)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("data dir should be absolute after normalize: %q", cfg.Paths.DataDir)
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + dir + `/data"

[scan]
similarity_threshold = 0.8
workers = 2

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatalf("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Fatalf("resolved path mismatch: %q", resolved)
	}
	if cfg.Scan.SimilarityThreshold != 0.8 {
		t.Fatalf("threshold override not applied: %v", cfg.Scan.SimilarityThreshold)
	}
	if cfg.Scan.Workers != 2 {
		t.Fatalf("workers override not applied: %v", cfg.Scan.Workers)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("logging format override not applied: %q", cfg.Logging.Format)
	}
	// Unset values keep defaults.
	if cfg.Scan.SampleFrames != defaultSampleFrames {
		t.Fatalf("sample frames default lost: %v", cfg.Scan.SampleFrames)
	}
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[scan]\nsimilarity_threshold = 1.5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "similarity_threshold") {
		t.Fatalf("expected threshold validation error, got %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	if _, _, exists, err := Load(path); err != nil || !exists {
		t.Fatalf("sample config should load cleanly: exists=%v err=%v", exists, err)
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := ExpandPath("~/dedupe-test")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != filepath.Join(home, "dedupe-test") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}
