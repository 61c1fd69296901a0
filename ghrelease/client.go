// Package ghrelease adapts the GitHub Releases API to the release host
// contract: lookup by tag, draft creation, overwriting asset uploads, and
// the draft→published transition.
package ghrelease

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/go-github/v66/github"

	"github.com/input-output-hk/catalyst-forge-release/release"
)

// defaultUploadBase is the upload endpoint for github.com. GitHub Enterprise
// deployments override it via WithUploadBase.
const defaultUploadBase = "https://uploads.github.com"

// ReleasesAPI defines the subset of the GitHub Repositories service the
// client uses. It enables mocking for tests.
type ReleasesAPI interface {
	GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*github.RepositoryRelease, *github.Response, error)
	CreateRelease(ctx context.Context, owner, repo string, release *github.RepositoryRelease) (*github.RepositoryRelease, *github.Response, error)
	EditRelease(ctx context.Context, owner, repo string, id int64, release *github.RepositoryRelease) (*github.RepositoryRelease, *github.Response, error)
	ListReleaseAssets(ctx context.Context, owner, repo string, id int64, opts *github.ListOptions) ([]*github.ReleaseAsset, *github.Response, error)
	DeleteReleaseAsset(ctx context.Context, owner, repo string, id int64) (*github.Response, error)
}

// Uploader pushes raw asset content to a release's upload endpoint. The
// Releases API serves uploads from a separate host, so the upload path is
// isolated behind its own interface.
type Uploader interface {
	Upload(ctx context.Context, url, contentType string, data []byte) error
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithUploadBase overrides the asset upload endpoint base URL.
func WithUploadBase(base string) Option {
	return func(c *Client) {
		c.uploadBase = strings.TrimSuffix(base, "/")
	}
}

// Client implements the release host contract against the GitHub Releases
// API for a single owner/repo pair.
type Client struct {
	api        ReleasesAPI
	uploader   Uploader
	owner      string
	repo       string
	uploadBase string
	logger     *slog.Logger
}

// New creates a Client authenticated with the given token.
func New(token, owner, repo string, opts ...Option) *Client {
	gh := github.NewClient(nil).WithAuthToken(token)
	return NewWithAPI(gh.Repositories, &httpUploader{gh: gh}, owner, repo, opts...)
}

// NewWithAPI creates a Client with explicit API and uploader implementations.
// Intended for testing with mocks.
func NewWithAPI(api ReleasesAPI, uploader Uploader, owner, repo string, opts ...Option) *Client {
	c := &Client{
		api:        api,
		uploader:   uploader,
		owner:      owner,
		repo:       repo,
		uploadBase: defaultUploadBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// GetByTag looks up the release for a tag. A missing release is not an
// error; it reports found=false.
func (c *Client) GetByTag(ctx context.Context, tag string) (*release.Record, bool, error) {
	rel, _, err := c.api.GetReleaseByTag(ctx, c.owner, c.repo, tag)
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("ghrelease: get release by tag %q: %w", tag, err)
	}
	return toRecord(rel), true, nil
}

// CreateDraft creates a draft release for the tag.
func (c *Client) CreateDraft(ctx context.Context, tag, title, notes string, prerelease bool) (*release.Record, error) {
	rel, _, err := c.api.CreateRelease(ctx, c.owner, c.repo, &github.RepositoryRelease{
		TagName:    github.String(tag),
		Name:       github.String(title),
		Body:       github.String(notes),
		Draft:      github.Bool(true),
		Prerelease: github.Bool(prerelease),
	})
	if err != nil {
		return nil, fmt.Errorf("ghrelease: create draft for tag %q: %w", tag, err)
	}
	return toRecord(rel), nil
}

// UploadAsset attaches an asset to the release. An existing asset with the
// same name is deleted first, so re-uploads overwrite rather than fail with
// a name conflict.
func (c *Client) UploadAsset(ctx context.Context, rec *release.Record, asset release.Asset) error {
	if err := c.deleteExistingAsset(ctx, rec.ID, asset.Name); err != nil {
		return err
	}

	uploadURL := fmt.Sprintf("%s/repos/%s/%s/releases/%d/assets?name=%s",
		c.uploadBase, c.owner, c.repo, rec.ID, url.QueryEscape(asset.Name))
	contentType := mimetype.Detect(asset.Data).String()

	if err := c.uploader.Upload(ctx, uploadURL, contentType, asset.Data); err != nil {
		return fmt.Errorf("ghrelease: upload asset %q: %w", asset.Name, err)
	}
	c.logger.Debug("uploaded release asset", "asset", asset.Name, "release_id", rec.ID)
	return nil
}

// Publish clears the draft flag, making the release publicly visible.
func (c *Client) Publish(ctx context.Context, rec *release.Record) (*release.Record, error) {
	rel, _, err := c.api.EditRelease(ctx, c.owner, c.repo, rec.ID, &github.RepositoryRelease{
		Draft: github.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("ghrelease: publish release %d: %w", rec.ID, err)
	}
	return toRecord(rel), nil
}

// deleteExistingAsset removes any asset already attached under the given
// name. Missing assets are fine.
func (c *Client) deleteExistingAsset(ctx context.Context, releaseID int64, name string) error {
	opts := &github.ListOptions{PerPage: 100}
	for {
		assets, resp, err := c.api.ListReleaseAssets(ctx, c.owner, c.repo, releaseID, opts)
		if err != nil {
			return fmt.Errorf("ghrelease: list assets for release %d: %w", releaseID, err)
		}
		for _, a := range assets {
			if a.GetName() != name {
				continue
			}
			if _, err := c.api.DeleteReleaseAsset(ctx, c.owner, c.repo, a.GetID()); err != nil {
				return fmt.Errorf("ghrelease: delete stale asset %q: %w", name, err)
			}
			c.logger.Debug("replaced stale release asset", "asset", name, "release_id", releaseID)
			return nil
		}
		if resp == nil || resp.NextPage == 0 {
			return nil
		}
		opts.Page = resp.NextPage
	}
}

// toRecord maps a GitHub release to the host-neutral record.
func toRecord(rel *github.RepositoryRelease) *release.Record {
	return &release.Record{
		ID:         rel.GetID(),
		Tag:        rel.GetTagName(),
		URL:        rel.GetHTMLURL(),
		Draft:      rel.GetDraft(),
		Prerelease: rel.GetPrerelease(),
	}
}

// isNotFound reports whether err is a GitHub 404 response.
func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}

// httpUploader performs asset uploads through the go-github client's raw
// request path; the Releases upload endpoint is not covered by the typed
// Repositories service for in-memory content.
type httpUploader struct {
	gh *github.Client
}

func (u *httpUploader) Upload(ctx context.Context, url, contentType string, data []byte) error {
	req, err := u.gh.NewUploadRequest(url, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return err
	}
	_, err = u.gh.Do(ctx, req, nil)
	return err
}

var _ release.Host = (*Client)(nil)
