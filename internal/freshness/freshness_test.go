package freshness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vkbuild/ubuild/internal/common"
	"github.com/vkbuild/ubuild/internal/model"
)

func touch(t *testing.T, path string, contents string, when time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	require.NoError(t, os.Chtimes(path, when, when))
}

func newChunk(t *testing.T, dir string, srcName string) (*model.Chunk, string) {
	t.Helper()
	srcPath := filepath.Join(dir, srcName)
	objPath := filepath.Join(dir, srcName+".o")
	sf := model.NewSourceFile(srcPath)
	return &model.Chunk{Index: 0, Sources: []*model.SourceFile{sf}, ObjPath: objPath}, srcPath
}

func TestDecideRecompilesWhenObjMissing(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	chunk, srcPath := newChunk(t, dir, "a.cpp")
	touch(t, srcPath, "int a;", now)

	store, err := OpenDigestStore(dir)
	require.NoError(t, err)
	oracle := NewOracle(store)

	dirty, err := oracle.Decide(chunk, nil)
	require.NoError(t, err)
	require.True(t, dirty)
}

func TestDecideSkipsWhenObjectNewerThanSourceAndHeaders(t *testing.T) {
	dir := t.TempDir()
	past := time.Now().Add(-time.Hour)
	now := time.Now()
	chunk, srcPath := newChunk(t, dir, "a.cpp")
	touch(t, srcPath, "int a;", past)
	touch(t, chunk.ObjPath, "obj", now)

	store, err := OpenDigestStore(dir)
	require.NoError(t, err)
	oracle := NewOracle(store)

	dirty, err := oracle.Decide(chunk, nil)
	require.NoError(t, err)
	require.False(t, dirty)
}

func TestDecideSkipsTouchWithUnchangedDigest(t *testing.T) {
	dir := t.TempDir()
	past := time.Now().Add(-time.Hour)
	chunk, srcPath := newChunk(t, dir, "a.cpp")
	touch(t, srcPath, "int a;", past)
	touch(t, chunk.ObjPath, "obj", past.Add(time.Minute))

	store, err := OpenDigestStore(dir)
	require.NoError(t, err)
	oracle := NewOracle(store)

	// prime the digest store the way a prior successful build would have
	dirty, err := oracle.Decide(chunk, nil)
	require.NoError(t, err)
	require.False(t, dirty)

	// now touch the source (mtime newer than obj) without changing its
	// contents: the digest compare should suppress the rebuild
	now := time.Now()
	touch(t, srcPath, "int a;", now)

	dirty, err = oracle.Decide(chunk, nil)
	require.NoError(t, err)
	require.False(t, dirty)
}

func TestDecideRecompilesWhenDigestChanges(t *testing.T) {
	dir := t.TempDir()
	past := time.Now().Add(-time.Hour)
	chunk, srcPath := newChunk(t, dir, "a.cpp")
	touch(t, srcPath, "int a;", past)
	touch(t, chunk.ObjPath, "obj", past.Add(time.Minute))

	store, err := OpenDigestStore(dir)
	require.NoError(t, err)
	oracle := NewOracle(store)

	now := time.Now()
	touch(t, srcPath, "int a; int b;", now)

	dirty, err := oracle.Decide(chunk, nil)
	require.NoError(t, err)
	require.True(t, dirty)
}

func TestDecideRecompilesWhenHeaderNewer(t *testing.T) {
	dir := t.TempDir()
	past := time.Now().Add(-time.Hour)
	now := time.Now()
	chunk, srcPath := newChunk(t, dir, "a.cpp")
	touch(t, srcPath, "int a;", past)
	touch(t, chunk.ObjPath, "obj", past.Add(time.Minute))

	headerPath := filepath.Join(dir, "a.h")
	touch(t, headerPath, "#pragma once", now)

	store, err := OpenDigestStore(dir)
	require.NoError(t, err)
	oracle := NewOracle(store)

	dirty, err := oracle.Decide(chunk, []string{headerPath})
	require.NoError(t, err)
	require.True(t, dirty)
}

func TestDigestStoreFlushAndReopen(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "a.cpp")
	touch(t, srcPath, "int a;", time.Now())

	sha, err := common.GetFileSHA256(srcPath)
	require.NoError(t, err)

	store, err := OpenDigestStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Put(srcPath, sha))
	require.NoError(t, store.Flush())

	reopened, err := OpenDigestStore(dir)
	require.NoError(t, err)
	got, ok := reopened.Get(srcPath)
	require.True(t, ok)
	require.Equal(t, sha, got)
}
