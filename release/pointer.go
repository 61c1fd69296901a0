package release

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/input-output-hk/catalyst-forge-release/storage"
)

// LatestPointerKey is the storage key of the stable-channel latest-version
// record. Each write fully overwrites the prior value (last writer wins).
const LatestPointerKey = "latest-version.json"

// LatestPointer is the external record consumers poll to discover the
// newest stable release.
type LatestPointer struct {
	Version     string `json:"version"`
	Tag         string `json:"tag"`
	ReleaseDate string `json:"release_date"`
	ReleaseType string `json:"release_type"`
	DownloadURL string `json:"download_url"`
}

// writeLatestPointer updates the stable-channel pointer record. Only stable
// releases reach here; prereleases never move the pointer. A nil store or
// missing credentials skips the update with a warning rather than failing —
// the release itself is already published at this point. The bool reports
// whether the record was actually written (false on any skip).
func (c *Coordinator) writeLatestPointer(ctx context.Context, version, tag, downloadURL string) (bool, error) {
	if c.pointerStore == nil {
		c.logger.Warn("latest-pointer store not configured, skipping pointer update", "tag", tag)
		return false, nil
	}

	record := LatestPointer{
		Version:     version,
		Tag:         tag,
		ReleaseDate: c.now().UTC().Format(time.RFC3339),
		ReleaseType: "stable",
		DownloadURL: downloadURL,
	}

	err := c.pointerStore.PutJSON(ctx, LatestPointerKey, record)
	if err != nil {
		if errors.Is(err, storage.ErrNoCredentials) {
			c.logger.Warn("latest-pointer credentials unavailable, skipping pointer update", "tag", tag)
			return false, nil
		}
		return false, fmt.Errorf("release: latest-pointer update: %w", err)
	}

	c.logger.Info("updated latest-version pointer", "version", version, "tag", tag)
	return true, nil
}
