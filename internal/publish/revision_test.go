package publish

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	ggit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitAll(t *testing.T, dir string) string {
	t.Helper()
	repo, err := ggit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("index.html")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &ggit.CommitOptions{
		Author: &object.Signature{Name: "Site Bot", Email: "bot@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestRevision_NotARepository(t *testing.T) {
	rev, err := Revision(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, rev)
}

func TestRevision_DetectsParentRepository(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.html"), indexHTML)
	want := commitAll(t, dir)
	writeFile(t, filepath.Join(dir, "site", "page.html"), "p")

	rev, err := Revision(filepath.Join(dir, "site"))
	require.NoError(t, err)
	assert.Equal(t, want, rev)
}

func TestRun_StampsRevision(t *testing.T) {
	src, cfg := newSite(t)
	want := commitAll(t, src)

	report, err := New(cfg, WithLogger(quietLogger())).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, report.Revision)
	assert.NoDirExists(t, filepath.Join(report.Output, ".git"))

	var buf bytes.Buffer
	report.Summary(&buf)
	assert.Contains(t, buf.String(), "revision:  "+want[:12])
}

func TestRevision_EmptyRepository(t *testing.T) {
	dir := t.TempDir()
	_, err := ggit.PlainInit(dir, false)
	require.NoError(t, err)

	_, err = Revision(dir)
	assert.Error(t, err, "a repository without commits has no HEAD")
}
