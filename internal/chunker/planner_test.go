package chunker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkbuild/ubuild/internal/model"
)

func makeSources(paths ...string) []*model.SourceFile {
	out := make([]*model.SourceFile, len(paths))
	for i, p := range paths {
		out[i] = model.NewSourceFile(p)
	}
	return out
}

func TestPlanWithChunkingDisabledReturnsOneChunkPerSource(t *testing.T) {
	p := NewPlanner(0, 1, "/obj", "/unity")
	sources := makeSources("/src/a.cpp", "/src/b.cpp", "/src/c.cpp")

	chunks := p.Plan("proj", sources, map[string]bool{"/src/a.cpp": true}, nil)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.True(t, c.IsSingleton())
	}
}

func TestPlanMaterializesWindowAboveTolerance(t *testing.T) {
	p := NewPlanner(4, 1, "/obj", "/unity")
	sources := makeSources("/src/a.cpp", "/src/b.cpp", "/src/c.cpp", "/src/d.cpp")
	dirty := map[string]bool{"/src/a.cpp": true, "/src/b.cpp": true}

	chunks := p.Plan("proj", sources, dirty, nil)
	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0].Sources, 4)
	assert.True(t, chunks[0].Dirty)
}

func TestPlanSplitsWindowAtOrBelowTolerance(t *testing.T) {
	p := NewPlanner(4, 2, "/obj", "/unity")
	sources := makeSources("/src/a.cpp", "/src/b.cpp", "/src/c.cpp", "/src/d.cpp")
	dirty := map[string]bool{"/src/a.cpp": true}

	chunks := p.Plan("proj", sources, dirty, nil)
	require.Len(t, chunks, 4)
	for _, c := range chunks {
		assert.True(t, c.IsSingleton())
	}
}

func TestPlanDontSplitKeepsChunkMergedWhenTooManyWouldRebuild(t *testing.T) {
	// 8 windows of 2 sources each; a window with 1 dirty member would split
	// (tolerance 1), but with 3 previously-chunked windows going dirty
	// against a threshold of max(8/4,2)=2, dont_split kicks in and keeps
	// them merged.
	p := NewPlanner(2, 1, "/obj", "/unity")
	var paths []string
	for i := 0; i < 16; i++ {
		paths = append(paths, "/src/f"+string(rune('a'+i))+".cpp")
	}
	sources := makeSources(paths...)

	dirty := map[string]bool{paths[0]: true, paths[2]: true, paths[4]: true}
	previouslyChunked := map[string]bool{
		windowName("proj", window{sources: sources[0:2]}):  true,
		windowName("proj", window{sources: sources[2:4]}):  true,
		windowName("proj", window{sources: sources[4:6]}):  true,
	}

	chunks := p.Plan("proj", sources, dirty, previouslyChunked)

	var merged int
	for _, c := range chunks {
		if !c.IsSingleton() {
			merged++
		}
	}
	assert.GreaterOrEqual(t, merged, 1)
}

func TestPreviouslyChunkedReportsWindowsWithAnObjectOnDisk(t *testing.T) {
	objDir := t.TempDir()
	p := NewPlanner(2, 0, objDir, "/unity")
	sources := makeSources("/src/a.cpp", "/src/b.cpp", "/src/c.cpp", "/src/d.cpp")

	mergedName := windowName("proj", window{sources: sources[0:2]})
	require.NoError(t, os.WriteFile(filepath.Join(objDir, mergedName+".o"), []byte("x"), 0644))

	previouslyChunked := p.PreviouslyChunked("proj", sources)
	assert.True(t, previouslyChunked[mergedName])
	assert.False(t, previouslyChunked[windowName("proj", window{sources: sources[2:4]})])
}

func TestUnityFileContentsListsEverySourceInOrder(t *testing.T) {
	chunk := &model.Chunk{Sources: makeSources("/src/a.cpp", "/src/b.cpp")}
	contents := UnityFileContents(chunk)
	assert.Contains(t, contents, `#include "/src/a.cpp"`)
	assert.Contains(t, contents, `#include "/src/b.cpp"`)
}

func TestUnityFilePathSingletonIsOriginalSource(t *testing.T) {
	p := NewPlanner(4, 1, "/obj", "/unity")
	chunk := &model.Chunk{Index: 0, Sources: makeSources("/src/a.cpp")}
	assert.Equal(t, "/src/a.cpp", p.UnityFilePath("proj", chunk))
}

func TestUnityFilePathMergedChunkUsesGeneratedName(t *testing.T) {
	p := NewPlanner(4, 1, "/obj", "/unity")
	chunk := &model.Chunk{Index: 2, Sources: makeSources("/src/a.cpp", "/src/b.cpp")}
	assert.Equal(t, "/unity/proj_unity_2.cpp", p.UnityFilePath("proj", chunk))
}
