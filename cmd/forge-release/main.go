// Command forge-release runs one release pipeline invocation: it classifies
// the CI trigger, collects the matrix cells' prebuilt packages, publishes
// them to the artifact store, and drives the hosted release lifecycle for
// tagged builds.
//
// Flags fall back to the standard CI environment (GITHUB_REF, GITHUB_SHA,
// GITHUB_EVENT_NAME, GITHUB_TOKEN), so a bare invocation works inside a
// workflow.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/input-output-hk/catalyst-forge-release/classify"
	"github.com/input-output-hk/catalyst-forge-release/config"
	"github.com/input-output-hk/catalyst-forge-release/ghrelease"
	"github.com/input-output-hk/catalyst-forge-release/gitmeta"
	"github.com/input-output-hk/catalyst-forge-release/matrix"
	"github.com/input-output-hk/catalyst-forge-release/naming"
	"github.com/input-output-hk/catalyst-forge-release/pipeline"
	"github.com/input-output-hk/catalyst-forge-release/publish"
	"github.com/input-output-hk/catalyst-forge-release/release"
	"github.com/input-output-hk/catalyst-forge-release/storage"
	"github.com/input-output-hk/catalyst-forge-release/storage/miniostore"
	"github.com/input-output-hk/catalyst-forge-release/storage/s3store"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		slog.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("forge-release", flag.ContinueOnError)
	var (
		configPath = flags.String("config", "", "configuration file path (defaults to forge-release.cue lookup)")
		artifacts  = flags.String("artifacts", "dist", "directory holding the matrix cells' packaged archives")
		repoPath   = flags.String("repo", ".", "path of the git repository being released")
		eventName  = flags.String("event", envOr("GITHUB_EVENT_NAME", ""), "CI event name")
		ref        = flags.String("ref", envOr("GITHUB_REF", ""), "git reference that triggered the run")
		sha        = flags.String("sha", envOr("GITHUB_SHA", ""), "commit SHA being built")
		message    = flags.String("message", "", "head commit message (dev-build marker detection)")
		verbose    = flags.Bool("v", false, "enable debug logging")
	)
	if err := flags.Parse(args); err != nil {
		return err
	}

	logger := newLogger(*verbose)
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	bc, err := buildContext(*repoPath, *eventName, *ref, *sha, *message, cfg)
	if err != nil {
		return err
	}

	store := openStore(cfg, logger)

	host := ghrelease.New(os.Getenv("GITHUB_TOKEN"), cfg.GitHub.Owner, cfg.GitHub.Repo,
		ghrelease.WithLogger(logger))

	namer := naming.New(cfg.Product)

	// No store means no credentials: cells still produce, nothing uploads.
	var publisher *publish.Publisher
	coordOpts := []release.Option{release.WithLogger(logger)}
	if store != nil {
		publisher = publish.NewPublisher(store, namer, classify.OnMainBranch(bc), logger)
		coordOpts = append(coordOpts, release.WithPointerStore(store))
	}
	runner := matrix.NewRunner(dirProducer(*artifacts, namer), publisher, logger)

	coordinator := release.NewCoordinator(host, cfg.Product, cfg.DownloadBase, coordOpts...)

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if meta := openMetaSource(*repoPath, logger); meta != nil {
		opts = append(opts, pipeline.WithMetaSource(meta))
	}
	p := pipeline.New(runner, coordinator, opts...)

	summary, err := p.Run(ctx, bc)
	if err != nil {
		return err
	}
	report(logger, summary)
	return nil
}

// envOr returns the environment value for key, or fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newLogger builds the process logger writing to stderr.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig resolves and loads the configuration file.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultFileName); err == nil {
			path = config.DefaultFileName
		} else {
			path = config.DefaultPath()
		}
	}
	if path == "" {
		return nil, errors.New("no configuration file found; pass -config")
	}
	return config.Load(path)
}

// buildContext assembles the classification input from flags, the CI
// environment, and the local repository.
func buildContext(repoPath, eventName, ref, sha, message string, cfg *config.Config) (classify.BuildContext, error) {
	bc := classify.BuildContext{
		Event:         classify.ParseEventKind(eventName),
		Ref:           ref,
		CommitMessage: message,
		MainBranch:    cfg.MainBranch,
		BuildImages:   cfg.BuildImages,
	}
	if strings.HasPrefix(ref, classify.TagRefPrefix) {
		bc.Tag = strings.TrimPrefix(ref, classify.TagRefPrefix)
		bc.Event = classify.EventTagPush
	}

	bc.ShortSHA = shortSHA(sha)
	if bc.ShortSHA == "" {
		repo, err := gitmeta.Open(repoPath)
		if err != nil {
			return bc, fmt.Errorf("resolving commit: %w", err)
		}
		short, err := repo.ShortSHA()
		if err != nil {
			return bc, fmt.Errorf("resolving commit: %w", err)
		}
		bc.ShortSHA = short
	}
	return bc, nil
}

// shortSHA abbreviates a full commit hash.
func shortSHA(sha string) string {
	if len(sha) > gitmeta.ShortSHALength {
		return sha[:gitmeta.ShortSHALength]
	}
	return sha
}

// openStore builds the configured blob store backend. Missing credentials
// are not fatal here: the publisher and pointer writer treat the nil store
// as skip-with-warning.
func openStore(cfg *config.Config, logger *slog.Logger) storage.BlobStore {
	var (
		store storage.BlobStore
		err   error
	)
	switch cfg.Storage.Backend {
	case config.BackendMinio:
		store, err = miniostore.New(cfg.Storage.Bucket, miniostore.Options{
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     os.Getenv("MINIO_ACCESS_KEY"),
			SecretAccessKey: os.Getenv("MINIO_SECRET_KEY"),
			Secure:          true,
			Logger:          logger,
		})
	default:
		opts := []s3store.Option{s3store.WithLogger(logger)}
		if cfg.Storage.Region != "" {
			opts = append(opts, s3store.WithRegion(cfg.Storage.Region))
		}
		if cfg.Storage.Endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(cfg.Storage.Endpoint))
		}
		if cfg.Storage.ForcePathStyle {
			opts = append(opts, s3store.WithForcePathStyle(true))
		}
		store, err = s3store.New(context.Background(), cfg.Storage.Bucket, opts...)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNoCredentials) {
			logger.Warn("artifact store credentials unavailable, uploads will be skipped")
			return nil
		}
		logger.Warn("artifact store unavailable, uploads will be skipped", "error", err)
		return nil
	}
	return store
}

// openMetaSource opens the local repository for release-notes metadata.
// A missing repository only degrades the notes.
func openMetaSource(repoPath string, logger *slog.Logger) pipeline.MetaSource {
	repo, err := gitmeta.Open(repoPath)
	if err != nil {
		logger.Warn("repository metadata unavailable, release notes degrade to defaults", "error", err)
		return nil
	}
	return &repoMeta{repo: repo}
}

// repoMeta derives release-notes inputs from the local repository.
type repoMeta struct {
	repo *gitmeta.Repo
}

func (m *repoMeta) ReleaseMeta(tag string) (release.Meta, error) {
	meta := release.Meta{}

	msg, err := m.repo.TagMessage(tag)
	if err != nil && !errors.Is(err, gitmeta.ErrTagMissing) {
		return meta, err
	}
	meta.TagMessage = msg

	since, err := m.repo.PreviousTag(tag)
	if err != nil {
		return meta, nil
	}
	commits, err := m.repo.CommitsSince(since)
	if err != nil {
		return meta, nil
	}
	meta.Changelog = gitmeta.Changelog(commits)
	return meta, nil
}

// dirProducer resolves each cell's package from a directory of prebuilt
// archives. The CI matrix builds the binaries; this process only collects,
// publishes, and releases them.
func dirProducer(dir string, namer *naming.Namer) matrix.Producer {
	return matrix.ProducerFunc(func(_ context.Context, cell matrix.Cell, c classify.Classification) (*matrix.Package, error) {
		name := naming.Zip(namer.PackageName(c, cell.Platform, cell.Arch, versionSHA(c)))
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("package %s not found in %s: %w", name, dir, err)
		}
		return &matrix.Package{Name: name, Path: path, Size: info.Size(), Cell: cell}, nil
	})
}

// versionSHA extracts the short SHA from a development version string.
func versionSHA(c classify.Classification) string {
	return strings.TrimPrefix(c.Version, "dev-")
}

// report summarizes the run for the workflow log.
func report(logger *slog.Logger, summary *pipeline.Summary) {
	if summary.Skipped() {
		logger.Info("nothing to do for this trigger")
		return
	}

	succeeded := 0
	for _, res := range summary.Cells {
		if res.Succeeded() {
			succeeded++
		}
	}
	logger.Info("matrix finished", "succeeded", succeeded, "total", len(summary.Cells))

	if summary.Release != nil {
		logger.Info("release finished",
			"tag", summary.Release.Record.Tag,
			"url", summary.Release.Record.URL,
			"reused", summary.Release.Reused,
			"assets", len(summary.Release.Assets),
			"asset_errors", len(summary.Release.AssetErrors),
			"pointer_updated", summary.Release.PointerUpdated)
	}
}
