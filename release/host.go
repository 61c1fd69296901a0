package release

import "context"

// Record is the pipeline's view of one hosted release, identified by tag.
// Lifecycle: absent → created as draft → assets attached → published. The
// pipeline never deletes records.
type Record struct {
	// ID is the host's numeric identifier for the release.
	ID int64

	// Tag is the git tag the release is bound to.
	Tag string

	// URL is the release's web URL.
	URL string

	// Draft is true until the release has been published.
	Draft bool

	// Prerelease marks the release as not production-ready.
	Prerelease bool
}

// Asset is one file attached to a release.
type Asset struct {
	// Name is the asset file name, unique within a release.
	Name string

	// Data is the asset content.
	Data []byte
}

// Host is the release-hosting port. Implementations must be idempotent in
// the ways the coordinator depends on: CreateDraft on an existing tag
// returns the existing record instead of erroring, UploadAsset overwrites a
// same-named asset instead of duplicating it, and Publish on an already
// published release is a no-op.
type Host interface {
	// GetByTag looks up an existing release. The second return is false
	// when no release exists for the tag.
	GetByTag(ctx context.Context, tag string) (*Record, bool, error)

	// CreateDraft creates a draft release for the tag.
	CreateDraft(ctx context.Context, tag, title, notes string, prerelease bool) (*Record, error)

	// UploadAsset attaches an asset to the release, replacing any existing
	// asset with the same name.
	UploadAsset(ctx context.Context, rec *Record, asset Asset) error

	// Publish clears the draft flag. Publishing an already-published
	// release must succeed without side effects.
	Publish(ctx context.Context, rec *Record) (*Record, error)
}
