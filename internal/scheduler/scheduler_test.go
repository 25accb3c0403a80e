package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkbuild/ubuild/internal/model"
	"github.com/vkbuild/ubuild/internal/toolchain"
)

// fakeToolchain lets tests drive scheduler concurrency/outcome propagation
// without shelling out to a real compiler.
type fakeToolchain struct {
	compileShouldFail bool
	linkShouldFail    bool
	inFlight          int32
	maxInFlight       int32
}

func (f *fakeToolchain) ObjectExtension() string { return ".o" }
func (f *fakeToolchain) ExpandCompileCommand(toolchain.CompileCommand) ([]string, error) {
	return nil, nil
}
func (f *fakeToolchain) ExpandLinkCommand(toolchain.LinkCommand) ([]string, error) { return nil, nil }

func (f *fakeToolchain) Compile(ctx context.Context, cc toolchain.CompileCommand) (model.BuildOutcome, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	for {
		old := atomic.LoadInt32(&f.maxInFlight)
		if n <= old || atomic.CompareAndSwapInt32(&f.maxInFlight, old, n) {
			break
		}
	}
	atomic.AddInt32(&f.inFlight, -1)
	return model.BuildOutcome{Target: cc.InputPath, Succeeded: !f.compileShouldFail}, nil
}

func (f *fakeToolchain) Link(ctx context.Context, lc toolchain.LinkCommand) (model.BuildOutcome, error) {
	return model.BuildOutcome{Target: lc.Output, Succeeded: !f.linkShouldFail}, nil
}

func (f *fakeToolchain) InterruptExitCode() int                { return 130 }
func (f *fakeToolchain) PCHArtifact(string) string             { return "" }
func (f *fakeToolchain) PreLinkExtraObjects(string) []string    { return nil }

var _ toolchain.Toolchain = (*fakeToolchain)(nil)

func dirtyChunks(n int) []*model.Chunk {
	chunks := make([]*model.Chunk, n)
	for i := range chunks {
		chunks[i] = &model.Chunk{
			Index:   i,
			Sources: []*model.SourceFile{model.NewSourceFile("/src/a.cpp")},
			ObjPath: "/obj/a.o",
			Dirty:   true,
		}
	}
	return chunks
}

func TestBuildProjectRespectsWorkerCap(t *testing.T) {
	s := New(2, nil)
	tc := &fakeToolchain{}
	project := model.NewProject("libcore")
	plan := &model.BuildPlan{Project: project, Chunks: dirtyChunks(10), LinkOutput: "/out/libcore.a"}
	project.SetChunks(plan.Chunks)

	outcomes, err := s.BuildProject(context.Background(), tc, project, plan)
	require.NoError(t, err)
	require.Len(t, outcomes, 11) // 10 chunks + 1 link
	assert.LessOrEqual(t, tc.maxInFlight, int32(2))
	assert.Equal(t, model.StateDone, project.State())
}

func TestBuildProjectMarksFailedOnCompileError(t *testing.T) {
	s := New(4, nil)
	tc := &fakeToolchain{compileShouldFail: true}
	project := model.NewProject("libcore")
	plan := &model.BuildPlan{Project: project, Chunks: dirtyChunks(3), LinkOutput: "/out/libcore.a"}
	project.SetChunks(plan.Chunks)

	outcomes, err := s.BuildProject(context.Background(), tc, project, plan)
	require.NoError(t, err)
	assert.Equal(t, model.StateFailed, project.State())
	// a failed compile phase must not attempt to link
	assert.Len(t, outcomes, 3)
}

func TestBuildProjectSkipsLinkWhenObjectMtimeMatchesOutput(t *testing.T) {
	dir := t.TempDir()
	objPath := filepath.Join(dir, "a.o")
	outPath := filepath.Join(dir, "libcore.a")
	require.NoError(t, os.WriteFile(objPath, []byte("obj"), 0644))
	require.NoError(t, os.WriteFile(outPath, []byte("out"), 0644))
	now := time.Now()
	require.NoError(t, os.Chtimes(objPath, now, now))
	require.NoError(t, os.Chtimes(outPath, now, now))

	s := New(1, nil)
	tc := &fakeToolchain{}
	project := model.NewProject("libcore")
	chunks := []*model.Chunk{{Index: 0, Sources: []*model.SourceFile{model.NewSourceFile("/src/a.cpp")}, ObjPath: objPath, Dirty: true}}
	plan := &model.BuildPlan{Project: project, Chunks: chunks, LinkOutput: outPath}
	project.SetChunks(chunks)

	outcomes, err := s.BuildProject(context.Background(), tc, project, plan)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	linkOutcome := outcomes[1]
	assert.Equal(t, outPath, linkOutcome.Target)
	assert.True(t, linkOutcome.Skipped)
	assert.True(t, linkOutcome.Succeeded)
	assert.Equal(t, model.StateDone, project.State())
}

func TestInterruptSkipsNotYetStartedChunks(t *testing.T) {
	s := New(1, nil)
	s.Interrupt()
	assert.True(t, s.IsInterrupted())

	tc := &fakeToolchain{}
	project := model.NewProject("libcore")
	plan := &model.BuildPlan{Project: project, Chunks: dirtyChunks(2), LinkOutput: "/out/libcore.a"}
	project.SetChunks(plan.Chunks)

	outcomes, err := s.BuildProject(context.Background(), tc, project, plan)
	require.NoError(t, err)
	for _, o := range outcomes {
		assert.True(t, o.Skipped)
	}
}
