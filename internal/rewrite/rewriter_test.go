package rewrite

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRewrite_UpdatesOnlyChangedHTML(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.html"), "访问主站 at yfy0109.github.io")
	writeFile(t, filepath.Join(root, "blog", "post.HTM"), `<a href="https://yfy0109.github.io/p">visit primary site</a>`)
	writeFile(t, filepath.Join(root, "about.html"), "<p>nothing to see</p>")

	old := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(root, "about.html"), old, old))

	rw := New(ModeMirror, DefaultDomains(), DefaultLabels(), WithLogger(quietLogger()))
	res, err := rw.Rewrite(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Scanned)
	assert.Equal(t, 1, res.Unchanged)
	assert.Empty(t, res.Failures)
	// The English label is not in this table, only the domain changes in post.HTM.
	assert.Equal(t, []string{"blog/post.HTM", "index.html"}, res.UpdatedFiles)

	assert.Equal(t, "访问备用站 at yfy0109.top", readFile(t, filepath.Join(root, "index.html")))
	assert.Equal(t, `<a href="https://yfy0109.top/p">visit primary site</a>`, readFile(t, filepath.Join(root, "blog", "post.HTM")))

	info, err := os.Stat(filepath.Join(root, "about.html"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old), "unchanged files keep their mtime")
}

func TestRewrite_NeverOpensNonHTML(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	css := filepath.Join(root, "style.css")
	writeFile(t, css, "body { background: url(https://yfy0109.github.io/bg.png) }")
	writeFile(t, filepath.Join(root, "index.html"), "yfy0109.github.io")
	require.NoError(t, os.Chmod(css, 0o000))
	t.Cleanup(func() { _ = os.Chmod(css, 0o644) })

	res, err := New(ModeMirror, DefaultDomains(), DefaultLabels(), WithLogger(quietLogger())).Rewrite(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, res.Failures, "an unreadable stylesheet is never opened")
	assert.Equal(t, 1, res.Scanned)
	assert.Equal(t, []string{"index.html"}, res.UpdatedFiles)

	require.NoError(t, os.Chmod(css, 0o644))
	assert.Equal(t, "body { background: url(https://yfy0109.github.io/bg.png) }", readFile(t, css))
}

func TestRewrite_SecondRunIsNoop(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.html"), `<a href="https://yfy0109.github.io">访问主站</a> 主站点`)

	rw := New(ModeMirror, DefaultDomains(), DefaultLabels(), WithLogger(quietLogger()))
	first, err := rw.Rewrite(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Updated)

	second, err := rw.Rewrite(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 1, second.Unchanged)
}

func TestRewrite_RoundTripRestoresBytes(t *testing.T) {
	root := t.TempDir()
	original := "<html><a href=\"https://yfy0109.github.io/\">访问主站</a> - 本站为主站点。</html>\n"
	path := filepath.Join(root, "index.html")
	writeFile(t, path, original)

	ctx := context.Background()
	_, err := New(ModeMirror, DefaultDomains(), DefaultLabels(), WithLogger(quietLogger())).Rewrite(ctx, root)
	require.NoError(t, err)
	require.Equal(t, "<html><a href=\"https://yfy0109.top/\">访问备用站</a> - 本站为备用站点。</html>\n", readFile(t, path))

	_, err = New(ModePrimary, DefaultDomains(), DefaultLabels(), WithLogger(quietLogger())).Rewrite(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, original, readFile(t, path))
}

func TestRewrite_NoHTMLFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "style.css"), "yfy0109.github.io")

	res, err := New(ModeMirror, DefaultDomains(), DefaultLabels(), WithLogger(quietLogger())).Rewrite(context.Background(), root)
	require.NoError(t, err)
	assert.Zero(t, res.Scanned)
	assert.Zero(t, res.Updated)
	assert.Equal(t, "yfy0109.github.io", readFile(t, filepath.Join(root, "style.css")))
}

func TestRewrite_MissingRoot(t *testing.T) {
	_, err := New(ModeMirror, DefaultDomains(), DefaultLabels()).Rewrite(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrRootNotFound)
}

func TestRewrite_WriteFailureIsNonFatal(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "a.html")
	writeFile(t, locked, "yfy0109.github.io")
	writeFile(t, filepath.Join(root, "b.html"), "yfy0109.github.io")
	require.NoError(t, os.Chmod(locked, 0o444))

	res, err := New(ModeMirror, DefaultDomains(), DefaultLabels(), WithLogger(quietLogger())).Rewrite(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, locked, res.Failures[0].Path)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, "yfy0109.top", readFile(t, filepath.Join(root, "b.html")))
}

func TestRewrite_PreservesPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	path := filepath.Join(root, "index.html")
	writeFile(t, path, "yfy0109.github.io")
	require.NoError(t, os.Chmod(path, 0o640))

	changed, err := New(ModeMirror, DefaultDomains(), DefaultLabels()).RewriteFile(path)
	require.NoError(t, err)
	assert.True(t, changed)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestRewrite_Canceled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.html"), "yfy0109.github.io")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(ModeMirror, DefaultDomains(), DefaultLabels(), WithLogger(quietLogger())).Rewrite(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsHTML(t *testing.T) {
	rw := New(ModeMirror, DefaultDomains(), DefaultLabels())
	assert.True(t, rw.IsHTML("index.html"))
	assert.True(t, rw.IsHTML("INDEX.HTML"))
	assert.True(t, rw.IsHTML("old.htm"))
	assert.False(t, rw.IsHTML("style.css"))
	assert.False(t, rw.IsHTML("html"))

	custom := New(ModeMirror, DefaultDomains(), DefaultLabels(), WithExtensions([]string{".xhtml"}))
	assert.True(t, custom.IsHTML("a.xhtml"))
	assert.False(t, custom.IsHTML("a.html"))
}
