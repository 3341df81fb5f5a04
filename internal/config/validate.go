package config

import (
	"errors"
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Scan.Workers == 0 {
		c.Scan.Workers = defaultWorkers
	}
	if c.Scan.SampleFrames == 0 {
		c.Scan.SampleFrames = defaultSampleFrames
	}
	if c.Scan.SignatureCacheSize == 0 {
		c.Scan.SignatureCacheSize = defaultSignatureCacheSize
	}
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Scan.SimilarityThreshold < 0 || c.Scan.SimilarityThreshold > 1 {
		return errors.New("scan.similarity_threshold must be between 0 and 1")
	}
	if c.Scan.Workers < 1 {
		return errors.New("scan.workers must be at least 1")
	}
	if c.Scan.SampleFrames < 1 {
		return errors.New("scan.sample_frames must be at least 1")
	}
	if c.Scan.SignatureCacheSize < 1 {
		return errors.New("scan.signature_cache_size must be at least 1")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
