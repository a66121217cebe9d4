package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kavos113/assistant-artifacts/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendS3, cfg.Backend)
	assert.Equal(t, "assistant_versions", cfg.RootFolder)
	assert.Equal(t, domain.DefaultServices, cfg.Services)
	assert.Equal(t, "assistant01", cfg.S3.Bucket)
	assert.Equal(t, "eu-central-1", cfg.S3.Region)
	assert.Equal(t, int64(8*1024*1024), cfg.S3.PartSize)
	assert.Equal(t, 5, cfg.S3.Concurrency)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ARTIFACT_S3_BUCKET", "other-bucket")
	t.Setenv("ARTIFACT_S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("ARTIFACT_BACKEND", "filesystem")
	t.Setenv("ARTIFACT_SERVICES", "jobs, hologram")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "other-bucket", cfg.S3.Bucket)
	assert.Equal(t, "http://localhost:9000", cfg.S3.Endpoint)
	assert.Equal(t, BackendFilesystem, cfg.Backend)
	assert.Equal(t, []string{"jobs", "hologram"}, cfg.Services)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "custom.yaml")
	content := `backend: filesystem
storage_path: /tmp/artifacts
services:
  - jobs
  - translation
s3:
  region: us-east-1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendFilesystem, cfg.Backend)
	assert.Equal(t, "/tmp/artifacts", cfg.StoragePath)
	assert.Equal(t, []string{"jobs", "translation"}, cfg.Services)
	assert.Equal(t, "us-east-1", cfg.S3.Region)
	assert.Equal(t, "assistant01", cfg.S3.Bucket)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	base := Config{Backend: BackendS3, RootFolder: "r", Services: []string{"jobs"}, S3: S3{Bucket: "b"}}
	assert.NoError(t, base.Validate())

	c := base
	c.Backend = "gcs"
	assert.Error(t, c.Validate())

	c = base
	c.S3.Bucket = ""
	assert.Error(t, c.Validate())

	c = base
	c.Services = nil
	assert.Error(t, c.Validate())

	c = base
	c.Backend = BackendFilesystem
	c.StoragePath = ""
	assert.Error(t, c.Validate())
}
