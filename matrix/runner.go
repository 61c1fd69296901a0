package matrix

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/input-output-hk/catalyst-forge-release/classify"
	"github.com/input-output-hk/catalyst-forge-release/publish"
)

// CellResult records the outcome of one cell: the produced package (when the
// build succeeded), the publish receipt (when the upload succeeded), and the
// first error that stopped the cell. Every cell of a run gets exactly one
// CellResult, success or not, so the join barrier never silently truncates
// the aggregate.
type CellResult struct {
	Cell    Cell
	Package *Package
	Receipt *publish.Receipt
	Err     error
}

// Succeeded reports whether the cell produced and published its artifact.
func (r CellResult) Succeeded() bool {
	return r.Err == nil && r.Package != nil
}

// Runner fans the matrix out into parallel per-cell tasks and joins them.
type Runner struct {
	producer  Producer
	publisher *publish.Publisher
	logger    *slog.Logger
}

// NewRunner creates a Runner. The publisher may be nil, in which case cells
// only produce (used when classification requires no publication).
func NewRunner(producer Producer, publisher *publish.Publisher, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{producer: producer, publisher: publisher, logger: logger}
}

// Run executes every cell in parallel and waits for all of them to finish,
// success or failure. One cell failing never cancels its siblings; the
// returned slice has one entry per cell in input order, and the error is a
// multierror summary of every failed cell (nil when all succeeded).
//
// The returned error is informational: callers decide whether partial
// success is acceptable (it is, for release aggregation).
func (r *Runner) Run(ctx context.Context, cells []Cell, c classify.Classification) ([]CellResult, error) {
	results := make([]CellResult, len(cells))

	var wg sync.WaitGroup
	for i, cell := range cells {
		wg.Add(1)
		go func(i int, cell Cell) {
			defer wg.Done()
			results[i] = r.runCell(ctx, cell, c)
		}(i, cell)
	}
	wg.Wait()

	var merr *multierror.Error
	for _, res := range results {
		if res.Err != nil {
			merr = multierror.Append(merr, res.Err)
		}
	}
	return results, merr.ErrorOrNil()
}

// runCell produces and publishes one cell's artifact.
func (r *Runner) runCell(ctx context.Context, cell Cell, c classify.Classification) CellResult {
	result := CellResult{Cell: cell}

	pkg, err := r.producer.Produce(ctx, cell, c)
	if err != nil {
		r.logger.Error("cell build failed",
			"platform", cell.Platform, "arch", cell.Arch, "error", err)
		result.Err = err
		return result
	}
	result.Package = pkg

	if r.publisher == nil {
		return result
	}

	receipt, err := r.publisher.Publish(ctx, toPublishPackage(pkg), c)
	if err != nil {
		r.logger.Error("cell publish failed",
			"platform", cell.Platform, "arch", cell.Arch, "package", pkg.Name, "error", err)
		result.Err = err
		return result
	}
	result.Receipt = receipt

	return result
}

// toPublishPackage converts a matrix package into the publisher's input.
func toPublishPackage(pkg *Package) publish.Package {
	return publish.Package{
		Name: pkg.Name,
		Path: pkg.Path,
		Data: pkg.Data,
		Size: pkg.Size,
	}
}
