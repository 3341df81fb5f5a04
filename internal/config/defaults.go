package config

const (
	defaultDataDir             = "~/.local/share/dedupe"
	defaultLogDir              = "~/.local/share/dedupe/logs"
	defaultSimilarityThreshold = 0.95
	defaultWorkers             = 4
	defaultSampleFrames        = 10
	defaultSignatureCacheSize  = 1000
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Scan: Scan{
			SimilarityThreshold: defaultSimilarityThreshold,
			Workers:             defaultWorkers,
			SampleFrames:        defaultSampleFrames,
			SignatureCacheSize:  defaultSignatureCacheSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
