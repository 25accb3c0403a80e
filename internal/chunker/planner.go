// Package chunker groups a project's source files into unity chunks: fixed
// size windows over the sorted source list, materialized into a single
// Chunk only when enough of the window's members are dirty to be worth
// amortizing compiler startup cost over, and split back apart into
// single-source chunks otherwise. The whole package is a direct, line-for-
// line port (in logic, not syntax) of original_source/jmake.py's
// _make_chunks/_get_chunk/_chunked_build.
package chunker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vkbuild/ubuild/internal/model"
)

// Planner partitions a project's sources into windows and decides, given
// which sources are currently dirty, which windows should build as a single
// merged translation unit versus as their individual members.
type Planner struct {
	chunkSize      int     // 0 disables chunking entirely
	chunkTolerance int     // a window materializes only if more than this many members are dirty
	objDir         string
	unityDir       string // where generated unity .cpp files are written
}

func NewPlanner(chunkSize int, chunkTolerance int, objDir string, unityDir string) *Planner {
	return &Planner{
		chunkSize:      chunkSize,
		chunkTolerance: chunkTolerance,
		objDir:         objDir,
		unityDir:       unityDir,
	}
}

// window is one fixed-size grouping of sources before the dirty/tolerance
// decision is applied; it always keeps all of its original members, even if
// only some end up dirty, so _get_chunk-style membership lookups stay
// stable across builds.
type window struct {
	sources []*model.SourceFile
}

// windows sorts sources by absolute path and partitions them into
// fixed-size groups. chunkSize <= 0 means chunking is off: every source is
// its own window.
func (p *Planner) windows(sources []*model.SourceFile) []window {
	sources = append([]*model.SourceFile(nil), sources...)
	sort.Slice(sources, func(i, j int) bool { return sources[i].AbsPath < sources[j].AbsPath })
	if p.chunkSize <= 0 {
		out := make([]window, len(sources))
		for i, sf := range sources {
			out[i] = window{sources: []*model.SourceFile{sf}}
		}
		return out
	}

	var out []window
	for i := 0; i < len(sources); i += p.chunkSize {
		end := i + p.chunkSize
		if end > len(sources) {
			end = len(sources)
		}
		out = append(out, window{sources: sources[i:end]})
	}
	return out
}

// windowName mirrors jmake's _get_chunk naming: derived from the first and
// last member's basenames, stable as long as window membership is stable.
func windowName(projectName string, w window) string {
	if len(w.sources) == 0 {
		return projectName
	}
	first := w.sources[0].Basename()
	last := w.sources[len(w.sources)-1].Basename()
	return fmt.Sprintf("%s_chunk_%s_to_%s", projectName, first, last)
}

// PreviouslyChunked stats every window's candidate merged-chunk object path
// and reports which window names already have one on disk, the equivalent
// of jmake's os.path.exists(file) check for "was this window built as a
// single merged chunk on a prior run". Callers pass the result straight into
// Plan's previouslyChunked parameter.
func (p *Planner) PreviouslyChunked(projectName string, sources []*model.SourceFile) map[string]bool {
	result := make(map[string]bool)
	for _, w := range p.windows(sources) {
		name := windowName(projectName, w)
		if _, err := os.Stat(filepath.Join(p.objDir, name+".o")); err == nil {
			result[name] = true
		}
	}
	return result
}

// Plan decides, for every window, whether to materialize it as one unity
// chunk or split it into per-source chunks, and returns the flattened chunk
// list in sorted source order. dirty reports which source files changed since the
// last build (by absolute path); previouslyChunked reports which window
// names currently have a chunk object file on disk, the equivalent of
// jmake's `os.path.exists(file)` checks.
func (p *Planner) Plan(projectName string, sources []*model.SourceFile, dirty map[string]bool, previouslyChunked map[string]bool) []*model.Chunk {
	windows := p.windows(sources)

	// dont_split: if splitting every currently-chunked-but-now-partially-
	// dirty window would force rebuilding too many chunks at once, keep
	// existing chunk objects merged rather than fragmenting the build.
	chunksToRebuild := 0
	for _, w := range windows {
		name := windowName(projectName, w)
		if previouslyChunked[name] && anyDirty(w, dirty) {
			chunksToRebuild++
		}
	}
	dontSplit := false
	threshold := len(windows) / 4
	if threshold < 2 {
		threshold = 2
	}
	if chunksToRebuild > threshold {
		dontSplit = true
	}

	var result []*model.Chunk
	index := 0
	for _, w := range windows {
		name := windowName(projectName, w)
		dirtyCount := dirtyCount(w, dirty)

		materialize := dirtyCount > p.chunkTolerance ||
			(dontSplit && previouslyChunked[name] && dirtyCount > 0)

		if materialize && len(w.sources) > 1 {
			chunk := &model.Chunk{
				Index:   index,
				Sources: append([]*model.SourceFile(nil), w.sources...),
				ObjPath: filepath.Join(p.objDir, name+".o"),
				Dirty:   dirtyCount > 0,
			}
			index++
			result = append(result, chunk)
			continue
		}

		// split apart: every member becomes its own singleton chunk
		for _, sf := range w.sources {
			chunk := &model.Chunk{
				Index:   index,
				Sources: []*model.SourceFile{sf},
				ObjPath: filepath.Join(p.objDir, sf.Basename()+".o"),
				Dirty:   dirty[sf.AbsPath],
			}
			index++
			result = append(result, chunk)
		}
	}

	return result
}

// UnityFileContents generates the synthetic translation unit for a
// materialized chunk: a sequence of #include "<abs path>" lines, exactly
// the format jmake writes to its generated chunk .cpp files.
func UnityFileContents(chunk *model.Chunk) string {
	var b strings.Builder
	b.WriteString("// Automatically generated file, do not edit.\n")
	for _, sf := range chunk.Sources {
		fmt.Fprintf(&b, "#include \"%s\"\n", sf.AbsPath)
	}
	return b.String()
}

func (p *Planner) UnityFilePath(projectName string, chunk *model.Chunk) string {
	if chunk.IsSingleton() {
		return chunk.Sources[0].AbsPath
	}
	name := fmt.Sprintf("%s_unity_%d", projectName, chunk.Index)
	return filepath.Join(p.unityDir, name+".cpp")
}

func anyDirty(w window, dirty map[string]bool) bool {
	for _, sf := range w.sources {
		if dirty[sf.AbsPath] {
			return true
		}
	}
	return false
}

func dirtyCount(w window, dirty map[string]bool) int {
	n := 0
	for _, sf := range w.sources {
		if dirty[sf.AbsPath] {
			n++
		}
	}
	return n
}
