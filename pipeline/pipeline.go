// Package pipeline composes the build stages end to end: trigger
// classification, the parallel build matrix, per-cell publication, and —
// for tagged builds — the hosted release lifecycle.
package pipeline

import (
	"context"
	"log/slog"
	"os"

	"github.com/input-output-hk/catalyst-forge-release/classify"
	forgeerrors "github.com/input-output-hk/catalyst-forge-release/errors"
	"github.com/input-output-hk/catalyst-forge-release/matrix"
	"github.com/input-output-hk/catalyst-forge-release/release"
)

// MetaSource supplies the repository metadata feeding release notes. A nil
// source degrades to generated defaults.
type MetaSource interface {
	// ReleaseMeta derives the notes inputs for a tag.
	ReleaseMeta(tag string) (release.Meta, error)
}

// Summary reports everything one pipeline run did.
type Summary struct {
	// Classification is the decision derived from the trigger.
	Classification classify.Classification

	// Cells holds one result per matrix cell, in matrix order. Empty when
	// the classification produced no build.
	Cells []matrix.CellResult

	// Release is the release lifecycle outcome, nil for non-tag builds.
	Release *release.Summary
}

// Skipped reports whether the trigger produced no build at all.
func (s *Summary) Skipped() bool {
	return !s.Classification.ShouldBuild()
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCells overrides the build matrix. Defaults to matrix.DefaultCells().
func WithCells(cells []matrix.Cell) Option {
	return func(p *Pipeline) {
		p.cells = cells
	}
}

// WithMetaSource sets the release notes metadata source.
func WithMetaSource(source MetaSource) Option {
	return func(p *Pipeline) {
		p.meta = source
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// Pipeline wires the stages together. The runner handles fan-out and the
// join barrier; the coordinator handles everything after it.
type Pipeline struct {
	runner      *matrix.Runner
	coordinator *release.Coordinator
	cells       []matrix.Cell
	meta        MetaSource
	logger      *slog.Logger
}

// New creates a Pipeline. The coordinator may be nil when the deployment
// never produces tagged builds (development-only pipelines); a tag trigger
// reaching such a pipeline fails with CodeInvalidConfig instead of building.
func New(runner *matrix.Runner, coordinator *release.Coordinator, opts ...Option) *Pipeline {
	p := &Pipeline{
		runner:      runner,
		coordinator: coordinator,
		cells:       matrix.DefaultCells(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Run executes one pipeline run for the given trigger.
//
// Classification decides everything downstream: a none classification
// short-circuits before any cell spawns; development builds stop after the
// matrix join; release and prerelease builds continue into the release
// lifecycle with whatever cells succeeded.
func (p *Pipeline) Run(ctx context.Context, bc classify.BuildContext) (*Summary, error) {
	cls := classify.Classify(bc)
	summary := &Summary{Classification: cls}

	if !cls.ShouldBuild() {
		p.logger.Info("trigger produced no build", "event", bc.Event.String(), "ref", bc.Ref)
		return summary, nil
	}
	p.logger.Info("classified trigger",
		"type", cls.Type.String(), "version", cls.Version, "prerelease", cls.Prerelease)
	if cls.Type != classify.BuildDevelopment && !classify.IsSemver(cls.Version) {
		p.logger.Warn("tag is not a semantic version, releasing anyway", "tag", cls.Version)
	}

	cells, err := p.runner.Run(ctx, p.cells, cls)
	summary.Cells = cells
	if err != nil {
		p.logger.Warn("matrix finished with failed cells", "error", err)
	}

	if cls.Type == classify.BuildDevelopment {
		if allCellsFailed(cells) {
			return summary, forgeerrors.Wrap(err, forgeerrors.CodeBuildFailed, "every matrix cell failed")
		}
		return summary, nil
	}

	if p.coordinator == nil {
		return summary, forgeerrors.New(forgeerrors.CodeInvalidConfig,
			"tagged build triggered but no release coordinator is configured")
	}

	artifacts := p.aggregate(cells)

	meta, metaErr := p.releaseMeta(cls.Version)
	if metaErr != nil {
		p.logger.Warn("release metadata unavailable, using generated notes", "error", metaErr)
	}

	rel, err := p.coordinator.Run(ctx, cls, artifacts, meta)
	summary.Release = rel
	if err != nil {
		return summary, err
	}
	return summary, nil
}

// releaseMeta pulls the notes inputs from the metadata source, when one is
// configured.
func (p *Pipeline) releaseMeta(tag string) (release.Meta, error) {
	if p.meta == nil {
		return release.Meta{}, nil
	}
	return p.meta.ReleaseMeta(tag)
}

// aggregate collects the successful cells' packages for the release stage,
// loading archive content from disk for cells that produced to a path. A
// package that cannot be read back stays local to its cell: the error is
// recorded on the cell result and the artifact is dropped from the
// aggregate, leaving the coordinator's empty-aggregate gate to decide
// whether anything remains worth releasing.
func (p *Pipeline) aggregate(cells []matrix.CellResult) []release.Artifact {
	artifacts := make([]release.Artifact, 0, len(cells))
	for i, res := range cells {
		if !res.Succeeded() {
			continue
		}
		pkg := res.Package

		data := pkg.Data
		if len(data) == 0 && pkg.Path != "" {
			loaded, err := os.ReadFile(pkg.Path)
			if err != nil {
				p.logger.Warn("produced package unreadable at aggregation, dropping it",
					"package", pkg.Name, "path", pkg.Path, "error", err)
				cells[i].Err = forgeerrors.WrapWithContext(err, forgeerrors.CodeBuildFailed,
					"produced package vanished before aggregation",
					map[string]interface{}{"package": pkg.Name, "path": pkg.Path})
				continue
			}
			data = loaded
		}

		artifacts = append(artifacts, release.Artifact{Name: pkg.Name, Data: data})
	}
	return artifacts
}

// allCellsFailed reports whether not a single cell succeeded.
func allCellsFailed(cells []matrix.CellResult) bool {
	for _, res := range cells {
		if res.Succeeded() {
			return false
		}
	}
	return true
}
