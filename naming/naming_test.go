package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-release/classify"
)

func TestNamer_PackageName(t *testing.T) {
	n := New("forge")

	tests := []struct {
		name           string
		classification classify.Classification
		platform       string
		arch           string
		shortSHA       string
		expected       string
	}{
		{
			name:           "release",
			classification: classify.Classification{Type: classify.BuildRelease, Version: "1.2.3"},
			platform:       "linux",
			arch:           "amd64",
			shortSHA:       "abcdef1",
			expected:       "forge-linux-amd64-v1.2.3",
		},
		{
			name: "prerelease",
			classification: classify.Classification{
				Type: classify.BuildPrerelease, Version: "1.2.3-rc1", Prerelease: true,
			},
			platform: "darwin",
			arch:     "arm64",
			shortSHA: "abcdef1",
			expected: "forge-darwin-arm64-v1.2.3-rc1",
		},
		{
			name:           "development",
			classification: classify.Classification{Type: classify.BuildDevelopment, Version: "dev-abcdef1"},
			platform:       "windows",
			arch:           "amd64",
			shortSHA:       "abcdef1",
			expected:       "forge-windows-amd64-dev-abcdef1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.PackageName(tt.classification, tt.platform, tt.arch, tt.shortSHA)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestReleaseLatest(t *testing.T) {
	got, ok := ReleaseLatest("forge-linux-amd64-v1.2.3")
	require.True(t, ok)
	assert.Equal(t, "forge-linux-amd64-latest", got)

	// Prerelease versions with their own dashes still rewrite on the last
	// "-v" marker.
	got, ok = ReleaseLatest("forge-linux-amd64-v1.2.3-rc1")
	require.True(t, ok)
	assert.Equal(t, "forge-linux-amd64-latest", got)

	// Development names carry no version suffix.
	_, ok = ReleaseLatest("forge-linux-amd64-dev-abcdef1")
	assert.False(t, ok)

	_, ok = ReleaseLatest("bare")
	assert.False(t, ok)
}

func TestDevLatest(t *testing.T) {
	got, ok := DevLatest("forge-linux-amd64-dev-abcdef1")
	require.True(t, ok)
	assert.Equal(t, "forge-linux-amd64-dev-latest", got)

	_, ok = DevLatest("forge-linux-amd64-v1.2.3")
	assert.False(t, ok)
}

func TestMainLatest(t *testing.T) {
	got, ok := MainLatest("forge-linux-amd64-dev-abcdef1")
	require.True(t, ok)
	assert.Equal(t, "forge-linux-amd64-main-latest", got)

	_, ok = MainLatest("forge-linux-amd64-v1.2.3")
	assert.False(t, ok)
}

// The pointer derivations are structural rewrites of generated names: for
// every package name the namer can produce, derivation succeeds, yields a
// distinct name, and is stable across repeated calls.
func TestPointerDerivation_RoundTrip(t *testing.T) {
	n := New("forge")

	release := classify.Classification{Type: classify.BuildRelease, Version: "2.0.0"}
	dev := classify.Classification{Type: classify.BuildDevelopment, Version: "dev-0123abc"}

	platforms := []struct{ platform, arch string }{
		{"linux", "amd64"},
		{"linux", "arm64"},
		{"darwin", "arm64"},
		{"windows", "amd64"},
	}

	for _, p := range platforms {
		relName := n.PackageName(release, p.platform, p.arch, "0123abc")
		latest, ok := ReleaseLatest(relName)
		require.True(t, ok, "release pointer derivation must succeed for %s", relName)
		assert.NotEqual(t, relName, latest)

		again, _ := ReleaseLatest(relName)
		assert.Equal(t, latest, again, "derivation must be stable")

		devName := n.PackageName(dev, p.platform, p.arch, "0123abc")
		devLatest, ok := DevLatest(devName)
		require.True(t, ok, "dev pointer derivation must succeed for %s", devName)
		assert.NotEqual(t, devName, devLatest)

		mainLatest, ok := MainLatest(devName)
		require.True(t, ok)
		assert.NotEqual(t, devLatest, mainLatest)
	}
}

func TestDockerBase(t *testing.T) {
	n := New("forge")
	assert.Equal(t, "forge-docker-base", n.DockerBase())
}

func TestZip(t *testing.T) {
	assert.Equal(t, "forge-linux-amd64-v1.2.3.zip", Zip("forge-linux-amd64-v1.2.3"))
}
