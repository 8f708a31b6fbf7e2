// Copyright © 2024 The pyscope authors

package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/pyscope/version"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.py"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "a.py"), "y = 2\n")
	writeFile(t, filepath.Join(dir, "pkg", "mod.py"), "z = 3\n")
	writeFile(t, filepath.Join(dir, "README.md"), "# readme\n")
	writeFile(t, filepath.Join(dir, ".git", "hook.py"), "pass\n")
	writeFile(t, filepath.Join(dir, "__pycache__", "a.py"), "pass\n")
	writeFile(t, filepath.Join(dir, "venv", "lib.py"), "pass\n")

	files, err := ListFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.py"),
		filepath.Join(dir, "b.py"),
		filepath.Join(dir, "pkg", "mod.py"),
	}, files)
}

func TestShouldSkipDir(t *testing.T) {
	assert.False(t, shouldSkipDir("."))
	assert.False(t, shouldSkipDir(".."))
	assert.False(t, shouldSkipDir("src"))
	assert.True(t, shouldSkipDir(".tox"))
	assert.True(t, shouldSkipDir("__pycache__"))
	assert.True(t, shouldSkipDir("node_modules"))
}

func TestBindWorkspace(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ok.py"), "def f():\n    x = 1\n    return lambda: x\n")
	writeFile(t, filepath.Join(dir, "bad.py"), "x = = 1\nnonlocal y\n")

	results, err := BindWorkspace(context.Background(), dir, Config{Version: version.Default}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	bad, ok := results[0], results[1]
	assert.Equal(t, filepath.Join(dir, "bad.py"), bad.Path)
	require.NoError(t, bad.Err)
	require.NotNil(t, bad.Snapshot)
	assert.NotEmpty(t, bad.Syntax)
	diags := bad.Diagnostics()
	require.Len(t, diags, len(bad.Syntax)+1)
	assert.Equal(t, CodeNonlocalModule, diags[len(diags)-1].Code)

	require.NoError(t, ok.Err)
	assert.Empty(t, ok.Diagnostics())
	lambda := scopeNamedNoT(ok.Snapshot, "<lambda>")
	require.NotNil(t, lambda)
	assert.Len(t, lambda.FreeVars, 1)
}

func TestBindFiles_Unreadable(t *testing.T) {
	dir := t.TempDir()
	results, err := BindFiles(context.Background(), []string{filepath.Join(dir, "missing.py")}, Config{}, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Nil(t, results[0].Snapshot)
}

func TestBindFiles_Cancelled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	writeFile(t, path, "x = 1\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BindFiles(ctx, []string{path, path}, Config{}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
