// Package config provides parsing, validation, and convenient access to the
// release pipeline configuration defined in CUE format.
//
// The schema is embedded in the package; user files are unified with it so
// defaults apply and unknown or ill-typed fields fail early with a CUE
// validation error.
package config

import (
	"strings"

	"github.com/adrg/xdg"

	"github.com/input-output-hk/catalyst-forge-release/errors"
)

// DefaultFileName is the configuration file looked up when no explicit path
// is given, both in the working directory and in the XDG config hierarchy.
const DefaultFileName = "forge-release.cue"

// Storage backends.
const (
	BackendS3    = "s3"
	BackendMinio = "minio"
)

// Config is the decoded release pipeline configuration.
type Config struct {
	// Product is the product name used as the artifact name prefix.
	Product string `json:"product"`

	// MainBranch is the integration branch producing dev builds.
	MainBranch string `json:"mainBranch"`

	// DownloadBase is the URL prefix recorded in the latest-version pointer.
	DownloadBase string `json:"downloadBase"`

	// GitHub identifies the repository hosting releases.
	GitHub GitHubConfig `json:"github"`

	// Storage configures the artifact blob store.
	Storage StorageConfig `json:"storage"`

	// BuildImages enables image builds for manual dispatch triggers.
	BuildImages bool `json:"buildImages"`
}

// GitHubConfig identifies the release host repository.
type GitHubConfig struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// StorageConfig selects and configures the artifact blob store backend.
type StorageConfig struct {
	// Backend is "s3" or "minio".
	Backend string `json:"backend"`

	// Bucket receives published packages and pointers.
	Bucket string `json:"bucket"`

	// Region is the bucket region (s3 backend).
	Region string `json:"region"`

	// Endpoint overrides the service endpoint (required for minio).
	Endpoint string `json:"endpoint"`

	// ForcePathStyle forces path-style addressing (s3-compatible stores).
	ForcePathStyle bool `json:"forcePathStyle"`
}

// Validate checks the referential constraints CUE cannot express.
//
// Returns:
//   - An error with code CodeInvalidConfig describing every violation, or
//     nil when the configuration is usable.
func (c *Config) Validate() error {
	var problems []string

	if c.Storage.Backend == BackendMinio && c.Storage.Endpoint == "" {
		problems = append(problems, "storage.endpoint is required for the minio backend")
	}
	if c.DownloadBase != "" && !strings.HasPrefix(c.DownloadBase, "http") {
		problems = append(problems, "downloadBase must be an http(s) URL")
	}

	if len(problems) > 0 {
		return errors.New(errors.CodeInvalidConfig,
			"configuration validation failed: "+strings.Join(problems, "; "))
	}
	return nil
}

// DefaultPath resolves the configuration file path: the working directory's
// forge-release.cue when present, otherwise the XDG config hierarchy.
//
// Returns:
//   - The resolved path, or "" when no configuration file exists anywhere.
func DefaultPath() string {
	if path, err := xdg.SearchConfigFile("forge-release/" + DefaultFileName); err == nil {
		return path
	}
	return ""
}
