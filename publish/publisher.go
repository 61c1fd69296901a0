// Package publish uploads one cell's packaged artifact to durable object
// storage: the primary package under its channel prefix, plus the derived
// pointer-named copies that track "latest" for each channel.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/input-output-hk/catalyst-forge-release/classify"
	"github.com/input-output-hk/catalyst-forge-release/naming"
	"github.com/input-output-hk/catalyst-forge-release/storage"
)

// Channel prefixes within the artifact bucket. Development artifacts and
// release/prerelease artifacts never share a prefix.
const (
	DevPrefix     = "dev/"
	ReleasePrefix = "release/"
)

// Package is the publisher's view of one produced artifact.
type Package struct {
	// Name is the package file name (with extension).
	Name string

	// Path is the local path of the archive. Used when Data is empty.
	Path string

	// Data is the archive content carried in memory. Wins over Path.
	Data []byte

	// Size is the content size in bytes.
	Size int64
}

// Receipt records what one Publish call uploaded. Pointer-copy failures are
// recorded here rather than failing the call: the primary artifact is the
// contract, pointers are best-effort conveniences.
type Receipt struct {
	// PrimaryKey is the storage key of the uploaded package.
	PrimaryKey string

	// PackageName is the package file name attached to releases later.
	PackageName string

	// Size is the uploaded content size.
	Size int64

	// PointerKeys lists the pointer copies that uploaded successfully.
	PointerKeys []string

	// PointerErrors lists pointer copies that failed, by key.
	PointerErrors map[string]error
}

// Publisher uploads packages and pointer copies for one pipeline run.
type Publisher struct {
	store  storage.BlobStore
	namer  *naming.Namer
	onMain bool
	logger *slog.Logger
}

// NewPublisher creates a Publisher. onMainBranch controls whether
// development builds additionally publish main-latest pointers (and the
// docker-base alias for the primary platform family).
func NewPublisher(store storage.BlobStore, namer *naming.Namer, onMainBranch bool, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{store: store, namer: namer, onMain: onMainBranch, logger: logger}
}

// Publish uploads the package to its channel-scoped destination and then its
// pointer-named copies. Failure of the primary upload is fatal for the cell;
// pointer-copy failures are logged, recorded on the receipt, and never fail
// the call.
func (p *Publisher) Publish(ctx context.Context, pkg Package, c classify.Classification) (*Receipt, error) {
	if pkg.Name == "" {
		return nil, errors.New("publish: package name cannot be empty")
	}

	prefix := channelPrefix(c)
	primaryKey := prefix + pkg.Name

	if err := p.upload(ctx, primaryKey, pkg); err != nil {
		return nil, fmt.Errorf("publish: primary upload failed: %w", err)
	}
	p.logger.Info("published package", "key", primaryKey, "size", pkg.Size)

	receipt := &Receipt{
		PrimaryKey:    primaryKey,
		PackageName:   pkg.Name,
		Size:          pkg.Size,
		PointerErrors: map[string]error{},
	}

	for _, key := range p.pointerKeys(pkg.Name, c, prefix) {
		if err := p.upload(ctx, key, pkg); err != nil {
			p.logger.Warn("pointer copy upload failed", "key", key, "error", err)
			receipt.PointerErrors[key] = err
			continue
		}
		receipt.PointerKeys = append(receipt.PointerKeys, key)
	}

	return receipt, nil
}

// pointerKeys derives the pointer-copy keys for a package. Release and
// prerelease packages get a release-latest copy; development packages get
// dev-latest and main-latest copies only when built from the main branch,
// and the primary platform family additionally gets the fixed docker-base
// alias consumed by downstream image builds.
func (p *Publisher) pointerKeys(name string, c classify.Classification, prefix string) []string {
	base, ok := stripExtension(name)
	if !ok {
		return nil
	}

	var keys []string
	switch c.Type {
	case classify.BuildRelease, classify.BuildPrerelease:
		if latest, ok := naming.ReleaseLatest(base); ok {
			keys = append(keys, prefix+naming.Zip(latest))
		}
	case classify.BuildDevelopment:
		if !p.onMain {
			return nil
		}
		if devLatest, ok := naming.DevLatest(base); ok {
			keys = append(keys, prefix+naming.Zip(devLatest))
		}
		if mainLatest, ok := naming.MainLatest(base); ok {
			keys = append(keys, prefix+naming.Zip(mainLatest))
		}
		if isPrimaryPlatform(base) {
			keys = append(keys, prefix+naming.Zip(p.namer.DockerBase()))
		}
	}
	return keys
}

// upload streams the package content to the store.
func (p *Publisher) upload(ctx context.Context, key string, pkg Package) error {
	r, size, err := open(pkg)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Close()
	}()
	return p.store.Put(ctx, key, r, size)
}

// open returns a fresh reader over the package content. Each upload needs
// its own reader since pointer copies re-send the same bytes.
func open(pkg Package) (io.ReadCloser, int64, error) {
	if len(pkg.Data) > 0 || pkg.Path == "" {
		return io.NopCloser(bytes.NewReader(pkg.Data)), int64(len(pkg.Data)), nil
	}
	f, err := os.Open(pkg.Path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// channelPrefix maps a classification onto its storage prefix.
func channelPrefix(c classify.Classification) string {
	if c.Type == classify.BuildDevelopment {
		return DevPrefix
	}
	return ReleasePrefix
}

// stripExtension removes the archive extension from a package file name.
func stripExtension(name string) (string, bool) {
	if len(name) <= len(naming.Extension) {
		return "", false
	}
	if name[len(name)-len(naming.Extension):] != naming.Extension {
		return name, true
	}
	return name[:len(name)-len(naming.Extension)], true
}

// isPrimaryPlatform reports whether a package base name belongs to the
// primary platform family.
func isPrimaryPlatform(base string) bool {
	marker := "-" + naming.PrimaryPlatform + "-" + naming.PrimaryArch + "-"
	return strings.Contains(base, marker)
}
