package gitmeta

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRepo builds an in-memory repository and returns it with a commit
// helper. Each commit touches a distinct file so the worktree never goes
// clean between commits.
func testRepo(t *testing.T) (*git.Repository, func(msg string) plumbing.Hash) {
	t.Helper()

	fs := memfs.New()
	repo, err := git.Init(memory.NewStorage(), fs)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	n := 0
	commit := func(msg string) plumbing.Hash {
		t.Helper()
		n++
		name := fmt.Sprintf("file%d.txt", n)
		require.NoError(t, util.WriteFile(fs, name, []byte(msg), 0o644))
		_, err := wt.Add(name)
		require.NoError(t, err)

		hash, err := wt.Commit(msg, &git.CommitOptions{
			Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
		})
		require.NoError(t, err)
		return hash
	}

	return repo, commit
}

func sig() *object.Signature {
	return &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()}
}

func TestRepo_ShortSHA(t *testing.T) {
	repo, commit := testRepo(t)
	hash := commit("initial commit")

	r := NewFromRepo(repo)
	short, err := r.ShortSHA()
	require.NoError(t, err)
	assert.Equal(t, hash.String()[:ShortSHALength], short)
	assert.Len(t, short, ShortSHALength)
}

func TestRepo_ShortSHA_NoHead(t *testing.T) {
	repo, err := git.Init(memory.NewStorage(), memfs.New())
	require.NoError(t, err)

	_, err = NewFromRepo(repo).ShortSHA()
	assert.ErrorIs(t, err, ErrNoHead)
}

func TestRepo_TagMessage(t *testing.T) {
	repo, commit := testRepo(t)
	hash := commit("initial commit")

	_, err := repo.CreateTag("1.0.0", hash, &git.CreateTagOptions{
		Tagger:  sig(),
		Message: "First stable release.\n\nHighlights inside.",
	})
	require.NoError(t, err)

	r := NewFromRepo(repo)

	msg, err := r.TagMessage("1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "First stable release.\n\nHighlights inside.", msg)
}

func TestRepo_TagMessage_Lightweight(t *testing.T) {
	repo, commit := testRepo(t)
	hash := commit("initial commit")

	_, err := repo.CreateTag("1.0.0", hash, nil)
	require.NoError(t, err)

	msg, err := NewFromRepo(repo).TagMessage("1.0.0")
	require.NoError(t, err)
	assert.Empty(t, msg, "lightweight tags carry no message")
}

func TestRepo_TagMessage_Missing(t *testing.T) {
	repo, commit := testRepo(t)
	commit("initial commit")

	_, err := NewFromRepo(repo).TagMessage("9.9.9")
	assert.ErrorIs(t, err, ErrTagMissing)
}

func TestRepo_CommitsSince(t *testing.T) {
	repo, commit := testRepo(t)
	first := commit("feat: initial feature")
	_, err := repo.CreateTag("1.0.0", first, nil)
	require.NoError(t, err)

	commit("fix: squash a bug")
	commit("docs update")

	r := NewFromRepo(repo)
	commits, err := r.CommitsSince("1.0.0")
	require.NoError(t, err)

	require.Len(t, commits, 2, "only commits after the tag")
	assert.Equal(t, "docs update", commits[0].Subject, "newest first")
	assert.Equal(t, "fix: squash a bug", commits[1].Subject)
}

func TestRepo_CommitsSince_UnknownTagWalksRecent(t *testing.T) {
	repo, commit := testRepo(t)
	commit("one")
	commit("two")

	commits, err := NewFromRepo(repo).CommitsSince("no-such-tag")
	require.NoError(t, err)
	assert.Len(t, commits, 2)
}

func TestRepo_PreviousTag(t *testing.T) {
	repo, commit := testRepo(t)

	first := commit("feat: one")
	_, err := repo.CreateTag("1.0.0", first, nil)
	require.NoError(t, err)

	second := commit("feat: two")
	_, err = repo.CreateTag("1.1.0", second, &git.CreateTagOptions{Tagger: sig(), Message: "1.1.0"})
	require.NoError(t, err)

	prev, err := NewFromRepo(repo).PreviousTag("1.1.0")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", prev)
}

func TestRepo_PreviousTag_None(t *testing.T) {
	repo, commit := testRepo(t)
	hash := commit("feat: one")
	_, err := repo.CreateTag("1.0.0", hash, nil)
	require.NoError(t, err)

	prev, err := NewFromRepo(repo).PreviousTag("1.0.0")
	require.NoError(t, err)
	assert.Empty(t, prev)
}

func TestChangelog(t *testing.T) {
	commits := []Commit{
		{Hash: "abc1234", Subject: "feat(api): add release endpoint"},
		{Hash: "def5678", Subject: "fix: handle empty aggregate"},
		{Hash: "0112358", Subject: "bump dependencies"},
	}

	out := Changelog(commits)

	assert.Contains(t, out, "### Features")
	assert.Contains(t, out, "**api**: add release endpoint (abc1234)")
	assert.Contains(t, out, "### Fixes")
	assert.Contains(t, out, "handle empty aggregate (def5678)")
	assert.Contains(t, out, "### Other changes")
	assert.Contains(t, out, "bump dependencies (0112358)")
}

func TestChangelog_Empty(t *testing.T) {
	assert.Empty(t, Changelog(nil))
}
