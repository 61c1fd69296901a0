// Package naming derives canonical artifact package names and their pointer
// variants. Pointer names are pure suffix rewrites of the package name
// rather than independent reconstructions, so a naming-scheme change only
// ever has to be made in one place.
package naming

import (
	"strings"

	"github.com/input-output-hk/catalyst-forge-release/classify"
)

// Extension is the archive extension applied to every package.
const Extension = ".zip"

// DockerBaseSuffix is the fixed, toolchain-independent alias suffix consumed
// by downstream image builds. Only the primary platform family emits it.
const DockerBaseSuffix = "-docker-base"

// PrimaryPlatform and PrimaryArch identify the platform family whose
// main-branch builds additionally publish the docker-base alias.
const (
	PrimaryPlatform = "linux"
	PrimaryArch     = "amd64"
)

// Namer derives artifact names for one product.
type Namer struct {
	product string
}

// New creates a Namer for the given product name.
func New(product string) *Namer {
	return &Namer{product: product}
}

// PackageName returns the canonical package base name (without extension)
// for one matrix cell:
//
//	<product>-<platform>-<arch>-v<version>      releases and prereleases
//	<product>-<platform>-<arch>-dev-<shortSHA>  development builds
func (n *Namer) PackageName(c classify.Classification, platform, arch, shortSHA string) string {
	base := n.product + "-" + platform + "-" + arch
	if c.Type == classify.BuildDevelopment {
		return base + "-dev-" + shortSHA
	}
	return base + "-v" + c.Version
}

// ReleaseLatest rewrites a release or prerelease package name into its
// release-latest pointer name by replacing the trailing "-v<version>" suffix
// with "-latest". The second return is false when the name does not carry a
// version suffix.
func ReleaseLatest(name string) (string, bool) {
	prefix, ok := trimVersionSuffix(name)
	if !ok {
		return "", false
	}
	return prefix + "-latest", true
}

// DevLatest rewrites a development package name into its dev-latest pointer
// name by replacing the trailing "-dev-<shortSHA>" suffix with "-dev-latest".
func DevLatest(name string) (string, bool) {
	prefix, ok := trimDevSuffix(name)
	if !ok {
		return "", false
	}
	return prefix + "-dev-latest", true
}

// MainLatest rewrites a development package name into its main-latest
// pointer name by replacing the trailing "-dev-<shortSHA>" suffix with
// "-main-latest". Emitted only for main-branch development builds.
func MainLatest(name string) (string, bool) {
	prefix, ok := trimDevSuffix(name)
	if !ok {
		return "", false
	}
	return prefix + "-main-latest", true
}

// DockerBase rewrites a development package name into the fixed docker-base
// alias for the product. The platform/arch segment is dropped entirely: the
// alias is stable across toolchains so downstream image builds never chase
// naming changes.
func (n *Namer) DockerBase() string {
	return n.product + DockerBaseSuffix
}

// Zip appends the archive extension to a package or pointer base name.
func Zip(name string) string {
	return name + Extension
}

// trimVersionSuffix removes a trailing "-v<version>" segment. The version
// segment is everything after the last "-v" marker; the marker must not be
// the start of the string.
func trimVersionSuffix(name string) (string, bool) {
	idx := strings.LastIndex(name, "-v")
	if idx <= 0 || idx+2 >= len(name) {
		return "", false
	}
	return name[:idx], true
}

// trimDevSuffix removes a trailing "-dev-<shortSHA>" segment.
func trimDevSuffix(name string) (string, bool) {
	idx := strings.LastIndex(name, "-dev-")
	if idx <= 0 || idx+5 >= len(name) {
		return "", false
	}
	return name[:idx], true
}
