package ghrelease

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-github/v66/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-release/release"
)

// mockAPI implements ReleasesAPI in memory.
type mockAPI struct {
	releases    map[string]*github.RepositoryRelease // tag → release
	assets      map[int64][]*github.ReleaseAsset     // release ID → assets
	nextID      int64
	getErr      error
	deleteCalls []int64
}

func newMockAPI() *mockAPI {
	return &mockAPI{
		releases: map[string]*github.RepositoryRelease{},
		assets:   map[int64][]*github.ReleaseAsset{},
		nextID:   10,
	}
}

func (m *mockAPI) GetReleaseByTag(_ context.Context, _, _, tag string) (*github.RepositoryRelease, *github.Response, error) {
	if m.getErr != nil {
		return nil, nil, m.getErr
	}
	rel, ok := m.releases[tag]
	if !ok {
		return nil, nil, &github.ErrorResponse{
			Response: &http.Response{StatusCode: http.StatusNotFound},
		}
	}
	return rel, nil, nil
}

func (m *mockAPI) CreateRelease(_ context.Context, _, _ string, rel *github.RepositoryRelease) (*github.RepositoryRelease, *github.Response, error) {
	m.nextID++
	created := &github.RepositoryRelease{
		ID:         github.Int64(m.nextID),
		TagName:    rel.TagName,
		Name:       rel.Name,
		Body:       rel.Body,
		Draft:      rel.Draft,
		Prerelease: rel.Prerelease,
		HTMLURL:    github.String("https://github.com/o/r/releases/tag/" + rel.GetTagName()),
	}
	m.releases[rel.GetTagName()] = created
	return created, nil, nil
}

func (m *mockAPI) EditRelease(_ context.Context, _, _ string, id int64, patch *github.RepositoryRelease) (*github.RepositoryRelease, *github.Response, error) {
	for _, rel := range m.releases {
		if rel.GetID() == id {
			if patch.Draft != nil {
				rel.Draft = patch.Draft
			}
			return rel, nil, nil
		}
	}
	return nil, nil, errors.New("release not found")
}

func (m *mockAPI) ListReleaseAssets(_ context.Context, _, _ string, id int64, _ *github.ListOptions) ([]*github.ReleaseAsset, *github.Response, error) {
	return m.assets[id], &github.Response{NextPage: 0}, nil
}

func (m *mockAPI) DeleteReleaseAsset(_ context.Context, _, _ string, id int64) (*github.Response, error) {
	m.deleteCalls = append(m.deleteCalls, id)
	for relID, assets := range m.assets {
		for i, a := range assets {
			if a.GetID() == id {
				m.assets[relID] = append(assets[:i], assets[i+1:]...)
				return nil, nil
			}
		}
	}
	return nil, errors.New("asset not found")
}

// mockUploader records upload calls.
type mockUploader struct {
	calls []uploadCall
	err   error
}

type uploadCall struct {
	url         string
	contentType string
	size        int
}

func (m *mockUploader) Upload(_ context.Context, url, contentType string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, uploadCall{url: url, contentType: contentType, size: len(data)})
	return nil
}

func newTestClient(api *mockAPI, up *mockUploader) *Client {
	return NewWithAPI(api, up, "input-output-hk", "forge", WithUploadBase("https://uploads.example.com"))
}

func TestGetByTag_NotFound(t *testing.T) {
	client := newTestClient(newMockAPI(), &mockUploader{})

	rec, found, err := client.GetByTag(context.Background(), "1.0.0")
	require.NoError(t, err, "a missing release is not an error")
	assert.False(t, found)
	assert.Nil(t, rec)
}

func TestGetByTag_Found(t *testing.T) {
	api := newMockAPI()
	api.releases["1.0.0"] = &github.RepositoryRelease{
		ID:      github.Int64(42),
		TagName: github.String("1.0.0"),
		Draft:   github.Bool(true),
	}
	client := newTestClient(api, &mockUploader{})

	rec, found, err := client.GetByTag(context.Background(), "1.0.0")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(42), rec.ID)
	assert.Equal(t, "1.0.0", rec.Tag)
	assert.True(t, rec.Draft)
}

func TestGetByTag_APIError(t *testing.T) {
	api := newMockAPI()
	api.getErr = errors.New("boom")
	client := newTestClient(api, &mockUploader{})

	_, _, err := client.GetByTag(context.Background(), "1.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get release by tag")
}

func TestCreateDraft(t *testing.T) {
	api := newMockAPI()
	client := newTestClient(api, &mockUploader{})

	rec, err := client.CreateDraft(context.Background(), "1.0.0", "forge 1.0.0", "notes", false)
	require.NoError(t, err)
	assert.True(t, rec.Draft)
	assert.False(t, rec.Prerelease)
	assert.Equal(t, "1.0.0", rec.Tag)

	stored := api.releases["1.0.0"]
	assert.Equal(t, "forge 1.0.0", stored.GetName())
	assert.Equal(t, "notes", stored.GetBody())
}

func TestUploadAsset(t *testing.T) {
	api := newMockAPI()
	up := &mockUploader{}
	client := newTestClient(api, up)
	rec := &release.Record{ID: 42, Tag: "1.0.0", Draft: true}

	err := client.UploadAsset(context.Background(), rec,
		release.Asset{Name: "forge-linux-amd64-v1.0.0.zip", Data: []byte("PK\x03\x04zipdata")})
	require.NoError(t, err)

	require.Len(t, up.calls, 1)
	call := up.calls[0]
	assert.True(t, strings.HasPrefix(call.url,
		"https://uploads.example.com/repos/input-output-hk/forge/releases/42/assets?name="))
	assert.Contains(t, call.url, "forge-linux-amd64-v1.0.0.zip")
	assert.Equal(t, len("PK\x03\x04zipdata"), call.size)
}

func TestUploadAsset_OverwritesExisting(t *testing.T) {
	api := newMockAPI()
	api.assets[42] = []*github.ReleaseAsset{
		{ID: github.Int64(7), Name: github.String("checksums-sha256.txt")},
		{ID: github.Int64(8), Name: github.String("other.zip")},
	}
	up := &mockUploader{}
	client := newTestClient(api, up)
	rec := &release.Record{ID: 42, Tag: "1.0.0"}

	err := client.UploadAsset(context.Background(), rec,
		release.Asset{Name: "checksums-sha256.txt", Data: []byte("sums")})
	require.NoError(t, err)

	assert.Equal(t, []int64{7}, api.deleteCalls, "only the same-name asset is replaced")
	require.Len(t, up.calls, 1)
}

func TestUploadAsset_EscapesName(t *testing.T) {
	up := &mockUploader{}
	client := newTestClient(newMockAPI(), up)
	rec := &release.Record{ID: 42, Tag: "1.0.0"}

	err := client.UploadAsset(context.Background(), rec,
		release.Asset{Name: "forge v1.0.0+build.zip", Data: []byte("x")})
	require.NoError(t, err)

	require.Len(t, up.calls, 1)
	assert.Contains(t, up.calls[0].url, "name=forge+v1.0.0%2Bbuild.zip")
}

func TestUploadAsset_UploadError(t *testing.T) {
	client := newTestClient(newMockAPI(), &mockUploader{err: errors.New("throttled")})
	rec := &release.Record{ID: 42, Tag: "1.0.0"}

	err := client.UploadAsset(context.Background(), rec, release.Asset{Name: "a.zip", Data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `upload asset "a.zip"`)
}

func TestPublish(t *testing.T) {
	api := newMockAPI()
	client := newTestClient(api, &mockUploader{})

	rec, err := client.CreateDraft(context.Background(), "1.0.0", "t", "b", false)
	require.NoError(t, err)
	require.True(t, rec.Draft)

	published, err := client.Publish(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, published.Draft)
}
