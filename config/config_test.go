package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-release/errors"
)

const validConfig = `
product: "forge"
downloadBase: "https://downloads.example.com/forge"
github: {
	owner: "input-output-hk"
	repo: "catalyst-forge"
}
storage: {
	bucket: "forge-artifacts"
	region: "eu-central-1"
}
`

func TestParse_Valid(t *testing.T) {
	cfg, err := Parse([]byte(validConfig), "test.cue")
	require.NoError(t, err)

	assert.Equal(t, "forge", cfg.Product)
	assert.Equal(t, "input-output-hk", cfg.GitHub.Owner)
	assert.Equal(t, "forge-artifacts", cfg.Storage.Bucket)
	assert.Equal(t, "eu-central-1", cfg.Storage.Region)
}

func TestParse_DefaultsApply(t *testing.T) {
	cfg, err := Parse([]byte(validConfig), "test.cue")
	require.NoError(t, err)

	assert.Equal(t, "main", cfg.MainBranch)
	assert.Equal(t, BackendS3, cfg.Storage.Backend)
	assert.False(t, cfg.BuildImages)
	assert.False(t, cfg.Storage.ForcePathStyle)
}

func TestParse_MissingRequiredField(t *testing.T) {
	src := `
product: "forge"
github: owner: "input-output-hk"
`
	_, err := Parse([]byte(src), "test.cue")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.CodeOf(err))
}

func TestParse_UnknownBackendRejected(t *testing.T) {
	src := validConfig + `
storage: backend: "ftp"
`
	_, err := Parse([]byte(src), "test.cue")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.CodeOf(err))
}

func TestParse_MinioRequiresEndpoint(t *testing.T) {
	src := `
product: "forge"
github: {
	owner: "input-output-hk"
	repo: "catalyst-forge"
}
storage: {
	backend: "minio"
	bucket: "forge-artifacts"
}
`
	_, err := Parse([]byte(src), "test.cue")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "storage.endpoint is required")
}

func TestParse_BadSyntax(t *testing.T) {
	_, err := Parse([]byte(`product: "forge`), "test.cue")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.CodeOf(err))
}

func TestValidate_DownloadBaseMustBeURL(t *testing.T) {
	cfg := &Config{DownloadBase: "s3://bucket"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "downloadBase must be an http(s) URL")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(validConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "forge", cfg.Product)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.CodeOf(err))
}
