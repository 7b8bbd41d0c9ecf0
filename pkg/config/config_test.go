package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pressdrop/fileops/internal/bytesize"
	"github.com/pressdrop/fileops/pkg/download"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" || cfg.Logging.Format != "text" || cfg.Logging.Output != "stderr" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
	if cfg.Store.Root != "." || cfg.Store.DirMode != 0o755 {
		t.Errorf("store defaults = %+v", cfg.Store)
	}
	if cfg.Download.Parallel != download.DefaultParallel {
		t.Errorf("parallel default = %d", cfg.Download.Parallel)
	}
	if cfg.Download.VerifyPolicy != string(download.VerifyWarn) {
		t.Errorf("verify policy default = %q", cfg.Download.VerifyPolicy)
	}
	if cfg.Metrics.Listen != ":9090" {
		t.Errorf("metrics listen default = %q", cfg.Metrics.Listen)
	}
	if cfg.Profiling.Endpoint != "http://localhost:4040" {
		t.Errorf("profiling endpoint default = %q", cfg.Profiling.Endpoint)
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_InvalidVerifyPolicy(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Download.VerifyPolicy = "ignore"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid verify policy")
	}
}

func TestValidate_NegativeParallel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Download.Parallel = -1

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for negative parallelism")
	}
	if !strings.Contains(err.Error(), "min") {
		t.Errorf("Expected 'min' validation error, got: %v", err)
	}
}

func TestValidate_MissingStoreRoot(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Store.Root = ""

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for missing store root")
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected default config, got level %q", cfg.Logging.Level)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: debug
  format: json
store:
  root: /srv/files
download:
  parallel: 8
  timeout: 45s
  verify_policy: fail
  max_size: 10Mi
  s3:
    region: eu-west-1
    force_path_style: true
metrics:
  enabled: true
  listen: ":8088"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("level = %q, want normalized DEBUG", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("format = %q", cfg.Logging.Format)
	}
	if cfg.Store.Root != "/srv/files" {
		t.Errorf("root = %q", cfg.Store.Root)
	}
	if cfg.Store.DirMode != 0o755 {
		t.Errorf("dir mode default not applied: %o", cfg.Store.DirMode)
	}
	if cfg.Download.Parallel != 8 {
		t.Errorf("parallel = %d", cfg.Download.Parallel)
	}
	if cfg.Download.Timeout != 45*time.Second {
		t.Errorf("timeout = %v", cfg.Download.Timeout)
	}
	if cfg.Download.VerifyPolicy != "fail" {
		t.Errorf("verify policy = %q", cfg.Download.VerifyPolicy)
	}
	if cfg.Download.MaxSize != 10*bytesize.MiB {
		t.Errorf("max size = %d", cfg.Download.MaxSize)
	}
	if cfg.Download.S3.Region != "eu-west-1" || !cfg.Download.S3.ForcePathStyle {
		t.Errorf("s3 = %+v", cfg.Download.S3)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Listen != ":8088" {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
}

func TestLoad_InvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
download:
  verify_policy: silently-ignore
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Expected validation failure for bad verify policy")
	}
}

func TestSaveConfigRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Store.Root = "/data"
	cfg.Download.Parallel = 2

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config file mode = %o, want 600", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Store.Root != "/data" || loaded.Download.Parallel != 2 {
		t.Errorf("roundtrip mismatch: %+v", loaded)
	}
}

func TestCoordinatorOptions(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Download.Parallel = 3
	cfg.Download.Timeout = time.Minute
	cfg.Download.VerifyPolicy = "fail"

	opts := cfg.Download.CoordinatorOptions()
	if opts.Parallel != 3 || opts.Timeout != time.Minute || opts.Verify != download.VerifyFail {
		t.Errorf("options = %+v", opts)
	}
}
