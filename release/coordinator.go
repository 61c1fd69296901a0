// Package release drives the hosted-release lifecycle for tagged builds:
// idempotent draft creation, aggregation of the matrix cells' artifacts,
// checksum manifest generation, asset upload, the draft→published
// transition, and the external latest-version pointer update.
//
// The coordinator's stages run strictly in order and are safe to re-run:
// an existing release is reused rather than duplicated, asset uploads
// overwrite rather than accumulate, and publishing twice is a no-op.
package release

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/input-output-hk/catalyst-forge-release/classify"
	forgeerrors "github.com/input-output-hk/catalyst-forge-release/errors"
	"github.com/input-output-hk/catalyst-forge-release/storage"
)

// Artifact is one aggregated package handed to the coordinator after the
// matrix join barrier.
type Artifact struct {
	// Name is the package file name, unique within the release.
	Name string

	// Data is the package content.
	Data []byte
}

// Meta carries the repository metadata feeding release notes. All fields
// are optional; empty values degrade to generated defaults.
type Meta struct {
	// TagMessage is the tag's annotation message, when the tag has one.
	TagMessage string

	// Changelog is a rendered changelog for the release body.
	Changelog string
}

// Summary reports what one coordinator run did, including per-asset upload
// failures, so a human can judge whether a partial release is acceptable.
type Summary struct {
	// Record is the release after the run (published on success).
	Record *Record

	// Reused is true when an existing release was found for the tag.
	Reused bool

	// Assets lists the asset names attached during this run.
	Assets []string

	// AssetErrors maps asset names to their upload failures.
	AssetErrors map[string]error

	// PointerUpdated is true when the stable latest-version record was
	// written.
	PointerUpdated bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPointerStore sets the blob store receiving the latest-version pointer
// record. A nil store disables pointer updates (skip-with-warning).
func WithPointerStore(store storage.BlobStore) Option {
	return func(c *Coordinator) {
		c.pointerStore = store
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// withClock overrides the time source in tests.
func withClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// Coordinator runs the release lifecycle for one tag. Stages are strictly
// sequential; concurrent invocations for the same tag converge through the
// host's create-or-reuse idempotency rather than locking.
type Coordinator struct {
	host         Host
	pointerStore storage.BlobStore
	product      string
	downloadBase string
	logger       *slog.Logger
	now          func() time.Time
}

// NewCoordinator creates a Coordinator. downloadBase is the canonical
// download URL prefix recorded in the latest-version pointer (the tag name
// is appended to it).
func NewCoordinator(host Host, product, downloadBase string, opts ...Option) *Coordinator {
	c := &Coordinator{
		host:         host,
		product:      product,
		downloadBase: downloadBase,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Run executes the release lifecycle:
//
//	aggregate → create-or-reuse draft → manifests → upload assets →
//	publish → latest-pointer update (stable only)
//
// The aggregate must be non-empty; a release is never created for zero
// artifacts. Individual asset failures are recorded on the summary and do
// not abort the run as long as at least one package asset attached —
// a partial release is preferable to none for the platforms that succeeded.
func (c *Coordinator) Run(ctx context.Context, cls classify.Classification, artifacts []Artifact, meta Meta) (*Summary, error) {
	if cls.Type != classify.BuildRelease && cls.Type != classify.BuildPrerelease {
		return nil, forgeerrors.New(forgeerrors.CodeInvalidInput,
			"only release and prerelease builds enter the release lifecycle")
	}
	tag := cls.Version

	if len(artifacts) == 0 {
		return nil, forgeerrors.WrapWithContext(nil, forgeerrors.CodeNoArtifacts,
			"no artifacts reached the release aggregate", map[string]interface{}{"tag": tag})
	}

	rec, reused, err := c.createOrReuse(ctx, tag, cls.Prerelease, meta)
	if err != nil {
		return nil, err
	}
	summary := &Summary{Record: rec, Reused: reused, AssetErrors: map[string]error{}}

	if err := c.uploadAssets(ctx, rec, artifacts, summary); err != nil {
		return summary, err
	}

	published, err := c.publish(ctx, rec)
	if err != nil {
		return summary, forgeerrors.Wrap(err, forgeerrors.CodeReleaseFailed, "publish failed")
	}
	summary.Record = published

	if !cls.Prerelease {
		downloadURL := c.downloadBase + "/" + tag
		wrote, err := c.writeLatestPointer(ctx, cls.Version, tag, downloadURL)
		if err != nil {
			return summary, err
		}
		summary.PointerUpdated = wrote
	}

	return summary, nil
}

// createOrReuse looks the tag's release up and reuses it, creating a new
// draft only when none exists. Re-running against an existing tag must
// yield the same release identity.
func (c *Coordinator) createOrReuse(ctx context.Context, tag string, prerelease bool, meta Meta) (*Record, bool, error) {
	existing, found, err := c.host.GetByTag(ctx, tag)
	if err != nil {
		return nil, false, forgeerrors.Wrap(err, forgeerrors.CodeReleaseFailed, "release lookup failed")
	}
	if found {
		c.logger.Info("reusing existing release", "tag", tag, "id", existing.ID, "draft", existing.Draft)
		return existing, true, nil
	}

	notes := buildNotes(c.product, tag, meta.TagMessage, meta.Changelog)
	rec, err := c.host.CreateDraft(ctx, tag, notes.Title, notes.Body, prerelease)
	if err != nil {
		return nil, false, forgeerrors.Wrap(err, forgeerrors.CodeReleaseFailed, "draft creation failed")
	}
	c.logger.Info("created draft release", "tag", tag, "id", rec.ID)
	return rec, false, nil
}

// uploadAssets attaches the packages, checksum manifests, and signature
// placeholders. Per-asset failures are recorded and aggregated; the run
// fails only when not a single package asset attached.
func (c *Coordinator) uploadAssets(ctx context.Context, rec *Record, artifacts []Artifact, summary *Summary) error {
	inputs := make([]checksumInput, 0, len(artifacts))
	for _, a := range artifacts {
		inputs = append(inputs, checksumInput{name: a.Name, data: a.Data})
	}

	var merr *multierror.Error
	packagesAttached := 0

	for _, a := range artifacts {
		if err := c.host.UploadAsset(ctx, rec, Asset{Name: a.Name, Data: a.Data}); err != nil {
			c.logger.Warn("package asset upload failed", "asset", a.Name, "error", err)
			summary.AssetErrors[a.Name] = err
			merr = multierror.Append(merr, err)
			continue
		}
		summary.Assets = append(summary.Assets, a.Name)
		packagesAttached++
	}

	extras := buildManifests(inputs)
	extras = append(extras, buildSignaturePlaceholders(inputs)...)
	for _, f := range extras {
		if err := c.host.UploadAsset(ctx, rec, Asset{Name: f.Name, Data: f.Content}); err != nil {
			c.logger.Warn("manifest asset upload failed", "asset", f.Name, "error", err)
			summary.AssetErrors[f.Name] = err
			merr = multierror.Append(merr, err)
			continue
		}
		summary.Assets = append(summary.Assets, f.Name)
	}

	if packagesAttached == 0 {
		return forgeerrors.Wrap(merr.ErrorOrNil(), forgeerrors.CodeReleaseFailed,
			"no package assets could be attached")
	}
	return nil
}

// publish clears the draft flag. Re-invoking on an already-published
// release is a no-op.
func (c *Coordinator) publish(ctx context.Context, rec *Record) (*Record, error) {
	if !rec.Draft {
		c.logger.Info("release already published", "tag", rec.Tag, "id", rec.ID)
		return rec, nil
	}
	return c.host.Publish(ctx, rec)
}
