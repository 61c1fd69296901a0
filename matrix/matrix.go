// Package matrix models the multi-platform build matrix: the fixed set of
// (platform, arch, cross-compile) cells, the producer boundary that builds
// one packaged binary per cell, and the fan-out runner that executes cells
// in parallel with continue-on-error semantics.
package matrix

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-release/classify"
)

// Cell is one independent build unit of the matrix. Cells share no mutable
// state and have no ordering dependency on each other.
type Cell struct {
	// OS is the runner operating system the cell builds on.
	OS string

	// Triple is the target triple handed to the toolchain.
	Triple string

	// Cross indicates a cross-compiled cell (target differs from runner).
	Cross bool

	// Platform is the artifact platform segment (linux, darwin, windows).
	Platform string

	// Arch is the artifact architecture segment (amd64, arm64).
	Arch string
}

// DefaultCells enumerates the fixed build matrix. The set is declared ahead
// of time; nothing discovers cells dynamically.
func DefaultCells() []Cell {
	return []Cell{
		{OS: "ubuntu-latest", Triple: "x86_64-unknown-linux-gnu", Platform: "linux", Arch: "amd64"},
		{OS: "ubuntu-latest", Triple: "aarch64-unknown-linux-gnu", Cross: true, Platform: "linux", Arch: "arm64"},
		{OS: "macos-13", Triple: "x86_64-apple-darwin", Platform: "darwin", Arch: "amd64"},
		{OS: "macos-latest", Triple: "aarch64-apple-darwin", Platform: "darwin", Arch: "arm64"},
		{OS: "windows-latest", Triple: "x86_64-pc-windows-msvc", Platform: "windows", Arch: "amd64"},
	}
}

// Package is one cell's produced artifact: the packaged binary and its
// canonical name. It is owned exclusively by its producing cell until handed
// to the publisher.
type Package struct {
	// Name is the canonical package file name (with extension).
	Name string

	// Path is the local filesystem path of the packaged archive.
	Path string

	// Data is the package content when it is carried in memory instead of
	// on disk (tests, small artifacts). Data wins when both are set.
	Data []byte

	// Size is the package size in bytes.
	Size int64

	// Cell identifies the producing cell.
	Cell Cell
}

// Producer builds one packaged binary for a cell. It is the external
// collaborator boundary around the actual compiler toolchain; the pipeline
// only sees the packaged result.
type Producer interface {
	Produce(ctx context.Context, cell Cell, c classify.Classification) (*Package, error)
}

// ProducerFunc adapts a function to the Producer interface.
type ProducerFunc func(ctx context.Context, cell Cell, c classify.Classification) (*Package, error)

// Produce implements Producer.
func (f ProducerFunc) Produce(ctx context.Context, cell Cell, c classify.Classification) (*Package, error) {
	return f(ctx, cell, c)
}
