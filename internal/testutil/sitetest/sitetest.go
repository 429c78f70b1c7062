// Package sitetest builds site fixtures and checks published trees in tests.
package sitetest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// WriteTree creates files under root from a map of slash-separated paths to
// contents.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// Tree provides chained assertions about a directory tree.
type Tree struct {
	t    *testing.T
	root string
}

// NewTree returns assertions rooted at root.
func NewTree(t *testing.T, root string) *Tree {
	return &Tree{t: t, root: root}
}

func (tr *Tree) path(rel string) string {
	return filepath.Join(tr.root, filepath.FromSlash(rel))
}

// HasFile asserts that rel exists and is a regular file.
func (tr *Tree) HasFile(rel string) *Tree {
	tr.t.Helper()
	assert.FileExists(tr.t, tr.path(rel))
	return tr
}

// Lacks asserts that nothing exists at rel.
func (tr *Tree) Lacks(rel string) *Tree {
	tr.t.Helper()
	_, err := os.Lstat(tr.path(rel))
	assert.True(tr.t, os.IsNotExist(err), "expected %s to be absent", rel)
	return tr
}

// FileEquals asserts the exact content of rel.
func (tr *Tree) FileEquals(rel, want string) *Tree {
	tr.t.Helper()
	data, err := os.ReadFile(tr.path(rel))
	if assert.NoError(tr.t, err) {
		assert.Equal(tr.t, want, string(data), rel)
	}
	return tr
}

// FileContains asserts that rel contains substr.
func (tr *Tree) FileContains(rel, substr string) *Tree {
	tr.t.Helper()
	data, err := os.ReadFile(tr.path(rel))
	if assert.NoError(tr.t, err) {
		assert.Contains(tr.t, string(data), substr, rel)
	}
	return tr
}
