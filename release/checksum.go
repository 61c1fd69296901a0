package release

import (
	"fmt"
	"sort"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Manifest digest algorithms. One manifest file is emitted per algorithm.
var manifestAlgorithms = []digest.Algorithm{digest.SHA256, digest.SHA512}

// ManifestFile is one generated checksum file ready to attach as an asset.
type ManifestFile struct {
	// Name is the asset file name (e.g. "checksums-sha256.txt").
	Name string

	// Content is the manifest body: one "<hex-digest>  <filename>" line per
	// package, sorted by filename.
	Content []byte
}

// checksumInput is one package to be digested.
type checksumInput struct {
	name string
	data []byte
}

// buildManifests computes the checksum manifests over the aggregated
// package set. Inputs are deduplicated by filename (retries re-offer the
// same package) and sorted, so the output is deterministic regardless of
// the order cells completed in.
func buildManifests(inputs []checksumInput) []ManifestFile {
	deduped := map[string][]byte{}
	for _, in := range inputs {
		deduped[in.name] = in.data
	}

	names := make([]string, 0, len(deduped))
	for name := range deduped {
		names = append(names, name)
	}
	sort.Strings(names)

	files := make([]ManifestFile, 0, len(manifestAlgorithms))
	for _, algo := range manifestAlgorithms {
		var b strings.Builder
		for _, name := range names {
			d := algo.FromBytes(deduped[name])
			fmt.Fprintf(&b, "%s  %s\n", d.Encoded(), name)
		}
		files = append(files, ManifestFile{
			Name:    fmt.Sprintf("checksums-%s.txt", algo.String()),
			Content: []byte(b.String()),
		})
	}
	return files
}

// buildSignaturePlaceholders emits one placeholder signature entry per
// package. Actual signing is deferred; the placeholders keep the asset
// layout stable for consumers until it lands.
func buildSignaturePlaceholders(inputs []checksumInput) []ManifestFile {
	deduped := map[string]bool{}
	names := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if deduped[in.name] {
			continue
		}
		deduped[in.name] = true
		names = append(names, in.name)
	}
	sort.Strings(names)

	files := make([]ManifestFile, 0, len(names))
	for _, name := range names {
		files = append(files, ManifestFile{
			Name:    name + ".sig",
			Content: []byte("unsigned\n"),
		})
	}
	return files
}
