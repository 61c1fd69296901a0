// Package gitmeta reads the repository metadata the release pipeline needs:
// the head short hash, tag annotation messages for release notes, and the
// commit range since the previous tag for changelog generation.
//
// Every operation here degrades instead of failing the pipeline: a missing
// tag message or unreadable history yields empty metadata, never an abort.
package gitmeta

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// ShortSHALength is the abbreviated hash length used in artifact names.
const ShortSHALength = 7

// maxChangelogCommits bounds how far back CommitsSince walks when the
// previous tag cannot be found.
const maxChangelogCommits = 200

// Sentinel errors, checkable with errors.Is().
var (
	// ErrTagMissing is returned when the requested tag does not exist.
	ErrTagMissing = errors.New("gitmeta: tag does not exist")

	// ErrNoHead is returned when the repository has no resolvable HEAD.
	ErrNoHead = errors.New("gitmeta: repository has no HEAD")
)

// Commit is one history entry feeding changelog generation.
type Commit struct {
	// Hash is the abbreviated commit hash.
	Hash string

	// Subject is the first line of the commit message.
	Subject string
}

// Repo wraps a go-git repository with the pipeline's read-only metadata
// operations.
type Repo struct {
	repo *git.Repository
}

// Open opens the repository at path.
func Open(path string) (*Repo, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("gitmeta: open %s: %w", path, err)
	}
	return &Repo{repo: repo}, nil
}

// NewFromRepo wraps an existing go-git repository. Used by tests with
// in-memory repositories.
func NewFromRepo(repo *git.Repository) *Repo {
	return &Repo{repo: repo}
}

// ShortSHA returns the abbreviated hash of HEAD.
func (r *Repo) ShortSHA() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoHead, err)
	}
	return head.Hash().String()[:ShortSHALength], nil
}

// TagMessage returns the annotation message attached to a tag. Lightweight
// tags carry no message; the empty string (with no error) is returned for
// them so callers fall back to generated notes.
func (r *Repo) TagMessage(tag string) (string, error) {
	ref, err := r.repo.Tag(tag)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrTagMissing, tag)
	}

	tagObj, err := r.repo.TagObject(ref.Hash())
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			// Lightweight tag: the ref points straight at a commit.
			return "", nil
		}
		return "", fmt.Errorf("gitmeta: read tag object %s: %w", tag, err)
	}

	return strings.TrimSpace(tagObj.Message), nil
}

// CommitsSince lists commits reachable from HEAD that are newer than the
// given tag, newest first. An empty or unresolvable tag yields the most
// recent commits up to an internal bound instead of an error, keeping
// changelog generation a degraded-mode concern.
func (r *Repo) CommitsSince(tag string) ([]Commit, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoHead, err)
	}

	var boundary plumbing.Hash
	if tag != "" {
		if ref, tagErr := r.repo.Tag(tag); tagErr == nil {
			boundary = r.resolveTagCommit(ref.Hash())
		}
	}

	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("gitmeta: log: %w", err)
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if c.Hash == boundary {
			return storer.ErrStop
		}
		if len(commits) >= maxChangelogCommits {
			return storer.ErrStop
		}
		commits = append(commits, Commit{
			Hash:    c.Hash.String()[:ShortSHALength],
			Subject: firstLine(c.Message),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gitmeta: iterate commits: %w", err)
	}

	return commits, nil
}

// PreviousTag returns the name of the most recent tag reachable from HEAD
// other than the given one, or "" when there is none. Tags are compared by
// commit ancestry order in the log, not by name.
func (r *Repo) PreviousTag(current string) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoHead, err)
	}

	// Index tag target hashes.
	tags, err := r.repo.Tags()
	if err != nil {
		return "", fmt.Errorf("gitmeta: list tags: %w", err)
	}
	byHash := map[plumbing.Hash][]string{}
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if name == current {
			return nil
		}
		hash := r.resolveTagCommit(ref.Hash())
		byHash[hash] = append(byHash[hash], name)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("gitmeta: iterate tags: %w", err)
	}
	if len(byHash) == 0 {
		return "", nil
	}

	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return "", fmt.Errorf("gitmeta: log: %w", err)
	}
	defer iter.Close()

	var found string
	err = iter.ForEach(func(c *object.Commit) error {
		if names, ok := byHash[c.Hash]; ok {
			found = names[0]
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("gitmeta: iterate commits: %w", err)
	}

	return found, nil
}

// resolveTagCommit follows an annotated tag object to its target commit
// hash; lightweight tags already point at the commit.
func (r *Repo) resolveTagCommit(hash plumbing.Hash) plumbing.Hash {
	if tagObj, err := r.repo.TagObject(hash); err == nil {
		return tagObj.Target
	}
	return hash
}

// firstLine returns the subject line of a commit message.
func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return strings.TrimSpace(message[:idx])
	}
	return strings.TrimSpace(message)
}
