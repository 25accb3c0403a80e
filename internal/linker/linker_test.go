package linker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFindsLibraryInConfiguredDir(t *testing.T) {
	dir := t.TempDir()
	libPath := filepath.Join(dir, "libwidget.a")
	require.NoError(t, os.WriteFile(libPath, []byte("ar"), 0644))

	r := NewResolver([]string{dir})
	lib := r.Resolve("widget")
	assert.True(t, lib.Resolved)
	assert.Equal(t, libPath, lib.Path)
}

func TestNeedsRelinkWhenOutputMissing(t *testing.T) {
	dir := t.TempDir()
	needs, err := NeedsRelink(filepath.Join(dir, "missing.a"), nil, nil)
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestNeedsRelinkWhenObjectNewerThanOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "lib.a")
	obj := filepath.Join(dir, "a.o")
	past := time.Now().Add(-time.Hour)
	now := time.Now()

	require.NoError(t, os.WriteFile(out, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(out, past, past))
	require.NoError(t, os.WriteFile(obj, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(obj, now, now))

	needs, err := NeedsRelink(out, []string{obj}, nil)
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestNeedsRelinkFalseWhenObjectMtimeMatchesOutputExactly(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "lib.a")
	obj := filepath.Join(dir, "a.o")
	now := time.Now()

	require.NoError(t, os.WriteFile(obj, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(obj, now, now))
	require.NoError(t, os.WriteFile(out, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(out, now, now))

	needs, err := NeedsRelink(out, []string{obj}, []ResolvedLibrary{{Name: "m", MTime: time.Time{}}})
	require.NoError(t, err)
	assert.False(t, needs)
}

func TestNeedsRelinkWhenObjectOlderThanOutput(t *testing.T) {
	// An object strictly older than the output (not just not-newer) still
	// forces a relink: jmake treats any mtime mismatch, not just staleness,
	// as evidence of an interrupted prior link.
	dir := t.TempDir()
	out := filepath.Join(dir, "lib.a")
	obj := filepath.Join(dir, "a.o")
	past := time.Now().Add(-time.Hour)
	now := time.Now()

	require.NoError(t, os.WriteFile(obj, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(obj, past, past))
	require.NoError(t, os.WriteFile(out, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(out, now, now))

	needs, err := NeedsRelink(out, []string{obj}, nil)
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestNeedsRelinkWhenLibraryNewerThanOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "lib.a")
	past := time.Now().Add(-time.Hour)
	now := time.Now()
	require.NoError(t, os.WriteFile(out, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(out, past, past))

	needs, err := NeedsRelink(out, nil, []ResolvedLibrary{{Name: "m", MTime: now}})
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestNeedsRelinkIgnoresZeroMtimeLibraries(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "lib.a")
	require.NoError(t, os.WriteFile(out, []byte("x"), 0644))

	needs, err := NeedsRelink(out, nil, []ResolvedLibrary{{Name: "iberty", Resolved: true}})
	require.NoError(t, err)
	assert.False(t, needs)
}
