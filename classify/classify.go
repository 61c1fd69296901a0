// Package classify turns a CI trigger context into a build classification.
// Classification is a pure, total function: every BuildContext maps to
// exactly one Classification, so the decision table can be tested in
// isolation from any CI system.
package classify

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// TagRefPrefix is the git reference prefix that marks a tag push.
const TagRefPrefix = "refs/tags/"

// DevBuildMarker is the commit message token that opts a branch push into a
// development build.
const DevBuildMarker = "[dev-build]"

// EventKind identifies what triggered the pipeline.
type EventKind int

const (
	// EventUnknown indicates an unrecognized trigger.
	EventUnknown EventKind = iota

	// EventTagPush indicates a tag was pushed.
	EventTagPush

	// EventBranchPush indicates a branch was pushed.
	EventBranchPush

	// EventSchedule indicates a scheduled (cron) trigger.
	EventSchedule

	// EventManualDispatch indicates a manually dispatched run.
	EventManualDispatch
)

// String returns a human-readable representation of the EventKind.
func (k EventKind) String() string {
	switch k {
	case EventTagPush:
		return "tag-push"
	case EventBranchPush:
		return "branch-push"
	case EventSchedule:
		return "schedule"
	case EventManualDispatch:
		return "manual-dispatch"
	default:
		return "unknown"
	}
}

// ParseEventKind maps a CI event name onto an EventKind. Unrecognized names
// map to EventUnknown rather than erroring, keeping classification total.
func ParseEventKind(name string) EventKind {
	switch name {
	case "tag-push", "tag", "create":
		return EventTagPush
	case "branch-push", "push":
		return EventBranchPush
	case "schedule", "cron":
		return EventSchedule
	case "manual-dispatch", "workflow_dispatch", "dispatch":
		return EventManualDispatch
	default:
		return EventUnknown
	}
}

// BuildType identifies the release category of a pipeline run.
type BuildType int

const (
	// BuildNone means the trigger does not produce artifacts.
	BuildNone BuildType = iota

	// BuildDevelopment is an untagged build published to the dev channel.
	BuildDevelopment

	// BuildRelease is a stable tagged release.
	BuildRelease

	// BuildPrerelease is a tagged alpha/beta/rc release.
	BuildPrerelease
)

// String returns a human-readable representation of the BuildType.
func (t BuildType) String() string {
	switch t {
	case BuildDevelopment:
		return "development"
	case BuildRelease:
		return "release"
	case BuildPrerelease:
		return "prerelease"
	default:
		return "none"
	}
}

// BuildContext is the immutable trigger input for one pipeline invocation.
// It is constructed once from the CI environment and passed by value; no
// component mutates it.
type BuildContext struct {
	// Event is the kind of trigger that started the pipeline.
	Event EventKind

	// Ref is the full git reference name (e.g. "refs/tags/1.2.3",
	// "refs/heads/main").
	Ref string

	// ShortSHA is the abbreviated commit hash of the built commit.
	ShortSHA string

	// Tag is the pushed tag name, when Event is a tag push.
	Tag string

	// CommitMessage is the head commit message, when available.
	CommitMessage string

	// MainBranch is the repository's main branch name. Empty defaults
	// to "main".
	MainBranch string

	// BuildImages requests a downstream container image build. It is
	// forwarded, never interpreted here.
	BuildImages bool
}

// Classification is the derived, immutable result of classifying a trigger.
type Classification struct {
	// Type is the release category of this run.
	Type BuildType

	// Version is the derived version string. Empty exactly when Type is
	// BuildNone.
	Version string

	// Prerelease is true exactly when Type is BuildPrerelease.
	Prerelease bool
}

// ShouldBuild reports whether this run produces artifacts at all. When
// false, every downstream stage must short-circuit.
func (c Classification) ShouldBuild() bool {
	return c.Type != BuildNone
}

// Subkind identifies the prerelease sub-kind of a tag.
type Subkind string

const (
	// SubkindAlpha is an alpha prerelease tag.
	SubkindAlpha Subkind = "alpha"

	// SubkindBeta is a beta prerelease tag.
	SubkindBeta Subkind = "beta"

	// SubkindRC is a release-candidate tag.
	SubkindRC Subkind = "rc"

	// SubkindStable is a tag with no prerelease marker.
	SubkindStable Subkind = "stable"
)

// TagSubkind returns the prerelease sub-kind of a tag name. The substring
// rule here is the single source of truth for prerelease detection; both
// classification and release-notes generation consume it.
func TagSubkind(tag string) Subkind {
	lower := strings.ToLower(tag)
	switch {
	case strings.Contains(lower, "alpha"):
		return SubkindAlpha
	case strings.Contains(lower, "beta"):
		return SubkindBeta
	case strings.Contains(lower, "rc"):
		return SubkindRC
	default:
		return SubkindStable
	}
}

// IsSemver reports whether a tag name parses as a semantic version
// ("1.2.3" and "v1.2.3" both qualify). Non-semver tags still release; the
// result is informational.
func IsSemver(tag string) bool {
	_, err := semver.NewVersion(tag)
	return err == nil
}

// Classify maps a BuildContext onto its Classification. The decision rules
// are ordered; the first match wins:
//
//  1. Tag push (ref under refs/tags/): version is the tag name; an
//     alpha/beta/rc marker in the tag makes it a prerelease, otherwise a
//     stable release.
//  2. Push to the main branch: development build versioned "dev-<shortSHA>".
//  3. Scheduled or manually dispatched runs, or a commit message carrying
//     the DevBuildMarker token: development build versioned "dev-<shortSHA>".
//  4. Anything else: no build.
//
// Classify never fails and has no side effects.
func Classify(ctx BuildContext) Classification {
	if tag, ok := tagFromRef(ctx); ok {
		if TagSubkind(tag) != SubkindStable {
			return Classification{Type: BuildPrerelease, Version: tag, Prerelease: true}
		}
		return Classification{Type: BuildRelease, Version: tag}
	}

	if onMainBranch(ctx) {
		return Classification{Type: BuildDevelopment, Version: "dev-" + ctx.ShortSHA}
	}

	if ctx.Event == EventSchedule || ctx.Event == EventManualDispatch ||
		strings.Contains(ctx.CommitMessage, DevBuildMarker) {
		return Classification{Type: BuildDevelopment, Version: "dev-" + ctx.ShortSHA}
	}

	return Classification{}
}

// tagFromRef extracts the tag name driving this run. The ref prefix is
// authoritative; the explicit Tag field covers CI systems that deliver tag
// events with a bare ref.
func tagFromRef(ctx BuildContext) (string, bool) {
	if strings.HasPrefix(ctx.Ref, TagRefPrefix) {
		return strings.TrimPrefix(ctx.Ref, TagRefPrefix), true
	}
	if ctx.Event == EventTagPush && ctx.Tag != "" {
		return ctx.Tag, true
	}
	return "", false
}

// onMainBranch reports whether the run's ref is the main branch.
func onMainBranch(ctx BuildContext) bool {
	main := ctx.MainBranch
	if main == "" {
		main = "main"
	}
	return ctx.Ref == "refs/heads/"+main || ctx.Ref == main
}

// OnMainBranch reports whether the context's ref is the repository main
// branch. Exposed for the publisher, which emits main-latest pointer copies
// only for main-branch development builds.
func OnMainBranch(ctx BuildContext) bool {
	return onMainBranch(ctx)
}
