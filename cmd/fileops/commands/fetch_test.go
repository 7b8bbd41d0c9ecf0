package commands

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pressdrop/fileops/pkg/config"
	"github.com/pressdrop/fileops/pkg/download"
)

func noS3(t *testing.T) func() (*s3.Client, error) {
	t.Helper()
	return func() (*s3.Client, error) {
		return nil, errors.New("no S3 client in this test")
	}
}

func okS3() func() (*s3.Client, error) {
	return func() (*s3.Client, error) {
		return &s3.Client{}, nil
	}
}

func TestBuildJobHTTP(t *testing.T) {
	cfg := config.GetDefaultConfig()

	spec, err := buildJob(cfg, "https://example.com/data/catalog.pdf", "/srv/files",
		download.JobSpec{}, noS3(t))
	if err != nil {
		t.Fatalf("buildJob: %v", err)
	}
	if spec.ID != "https://example.com/data/catalog.pdf" {
		t.Errorf("ID = %q", spec.ID)
	}
	if spec.Name != "catalog.pdf" {
		t.Errorf("Name = %q, want catalog.pdf", spec.Name)
	}
	if spec.Dir != "/srv/files" {
		t.Errorf("Dir = %q", spec.Dir)
	}
	if spec.Source == nil {
		t.Fatal("expected a source")
	}
	if got := spec.Source.String(); got != spec.ID {
		t.Errorf("Source.String() = %q", got)
	}
}

func TestBuildJobCarriesExpectations(t *testing.T) {
	cfg := config.GetDefaultConfig()
	base := download.JobSpec{ExpectedSize: 42, ExpectedSHA256: "abc"}

	spec, err := buildJob(cfg, "https://example.com/a.bin", "/tmp", base, noS3(t))
	if err != nil {
		t.Fatalf("buildJob: %v", err)
	}
	if spec.ExpectedSize != 42 || spec.ExpectedSHA256 != "abc" {
		t.Errorf("expectations not carried: %+v", spec)
	}
}

func TestBuildJobS3(t *testing.T) {
	cfg := config.GetDefaultConfig()

	spec, err := buildJob(cfg, "s3://assets/covers/issue-42.png", "/srv/files",
		download.JobSpec{}, okS3())
	if err != nil {
		t.Fatalf("buildJob: %v", err)
	}
	if spec.Name != "issue-42.png" {
		t.Errorf("Name = %q, want issue-42.png", spec.Name)
	}
	if got := spec.Source.String(); got != "s3://assets/covers/issue-42.png" {
		t.Errorf("Source.String() = %q", got)
	}
}

func TestBuildJobS3MissingKey(t *testing.T) {
	cfg := config.GetDefaultConfig()

	if _, err := buildJob(cfg, "s3://assets", "/srv/files", download.JobSpec{}, okS3()); err == nil {
		t.Fatal("expected error for bucket-only URL")
	}
}

func TestBuildJobUnsupportedScheme(t *testing.T) {
	cfg := config.GetDefaultConfig()

	if _, err := buildJob(cfg, "ftp://example.com/a", "/tmp", download.JobSpec{}, noS3(t)); err == nil {
		t.Fatal("expected error for ftp scheme")
	}
}

func TestBuildJobNoBasename(t *testing.T) {
	cfg := config.GetDefaultConfig()

	if _, err := buildJob(cfg, "https://example.com/", "/tmp", download.JobSpec{}, noS3(t)); err == nil {
		t.Fatal("expected error when no file name can be derived")
	}
}
