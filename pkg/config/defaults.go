package config

import (
	"strings"

	"github.com/pressdrop/fileops/internal/logger"
	"github.com/pressdrop/fileops/pkg/download"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced, explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyStoreDefaults(&cfg.Store)
	applyDownloadDefaults(&cfg.Download)
	applyMetricsDefaults(&cfg.Metrics)
	applyProfilingDefaults(&cfg.Profiling)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *logger.Config) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.DirMode == 0 {
		cfg.DirMode = 0o755
	}
	// TmpDir has no default, empty means $TMPDIR and its fallbacks.
}

func applyDownloadDefaults(cfg *DownloadConfig) {
	if cfg.Parallel == 0 {
		cfg.Parallel = download.DefaultParallel
	}
	if cfg.VerifyPolicy == "" {
		cfg.VerifyPolicy = string(download.VerifyWarn)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = download.DefaultUserAgent
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in for metrics)
	if cfg.Listen == "" {
		cfg.Listen = ":9090"
	}
}

func applyProfilingDefaults(cfg *ProfilingConfig) {
	// Enabled defaults to false (opt-in for profiling)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// GetDefaultConfig returns a Config struct with all default values
// applied. Useful for generating sample configuration files and tests.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
