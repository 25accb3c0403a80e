package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, LanguageC, DetectLanguage("/a/b/foo.c"))
	assert.Equal(t, LanguageCpp, DetectLanguage("/a/b/foo.cpp"))
	assert.Equal(t, LanguageCpp, DetectLanguage("/a/b/foo.cc"))
	assert.Equal(t, LanguageUnknown, DetectLanguage("/a/b/foo.h"))
	assert.Equal(t, LanguageUnknown, DetectLanguage("/a/b/noext"))
}

func TestSourceFileBasename(t *testing.T) {
	sf := NewSourceFile("/root/src/widget.cpp")
	assert.Equal(t, "widget", sf.Basename())
}

func TestSourceFileHeaderClosureCaching(t *testing.T) {
	sf := NewSourceFile("/root/src/widget.cpp")
	_, valid := sf.HeaderClosure()
	assert.False(t, valid)

	sf.SetHeaderClosure([]string{"/root/include/widget.h"})
	closure, valid := sf.HeaderClosure()
	assert.True(t, valid)
	assert.Equal(t, []string{"/root/include/widget.h"}, closure)
}

func TestChunkGeneratedNameAndSingleton(t *testing.T) {
	c := &Chunk{Index: 3, Sources: []*SourceFile{NewSourceFile("/a.cpp")}}
	assert.Equal(t, "myproj_unity_3", c.GeneratedName("myproj"))
	assert.True(t, c.IsSingleton())

	c.Sources = append(c.Sources, NewSourceFile("/b.cpp"))
	assert.False(t, c.IsSingleton())
}

func TestProjectConcurrentProgressUpdates(t *testing.T) {
	p := NewProject("libcore")
	chunks := make([]*Chunk, 10)
	for i := range chunks {
		chunks[i] = &Chunk{Index: i}
	}
	p.SetChunks(chunks)
	assert.Equal(t, StatePlanned, p.State())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.MarkObjDone()
		}()
	}
	wg.Wait()

	done, total := p.Progress()
	assert.EqualValues(t, 10, done)
	assert.EqualValues(t, 10, total)
}

func TestProjectSetDependsOnCopiesSlice(t *testing.T) {
	p := NewProject("app")
	deps := []string{"libcore"}
	p.SetDependsOn(deps)
	deps[0] = "mutated"
	assert.Equal(t, []string{"libcore"}, p.DependsOn)
}

func TestBuildPlanDirtyChunks(t *testing.T) {
	bp := &BuildPlan{
		Chunks: []*Chunk{
			{Index: 0, Dirty: false},
			{Index: 1, Dirty: true},
			{Index: 2, Dirty: true},
		},
	}
	dirty := bp.DirtyChunks()
	assert.Len(t, dirty, 2)
	assert.Equal(t, 1, dirty[0].Index)
}
