// Package config defines the frozen configuration record the rest of ubuild
// is built against. Nothing here parses command-line flags or implements a
// project-definition DSL; it is the landing point an external tool (or the
// Builder below) fills in before handing a BuildConfig to the orchestrator.
package config

import "fmt"

// ProjectConfig describes one compilation target: a set of sources folded
// into unity chunks, compiled against a toolchain, and linked into Output.
type ProjectConfig struct {
	Name   string
	Output string

	Sources    []string
	IncludeDirs []string
	Defines     []string
	LibraryDirs []string
	Libraries   []string

	// Dependencies names other projects in the same BuildConfig whose
	// compile AND link steps must fully complete before this project is
	// started, matching jmake's project ordering.
	Dependencies []string

	// ChunkSize is the target number of source files per unity chunk. Zero
	// disables chunking (every source compiles as its own translation unit).
	ChunkSize int

	// ChunkTolerance mirrors jmake's ChunkTolerance: a chunk is rebuilt as
	// one merged unit only when more than this many of its sources are
	// dirty, otherwise it is split apart, see internal/chunker. It is a
	// count of sources; cmd/ubuild truncates it to an int.
	ChunkTolerance float64

	// HeaderRecursionDepth bounds #include closure recursion; 0 means
	// unlimited, matching jmake's HeaderRecursionLevel.
	HeaderRecursionDepth int

	// HeadersUnderRootOnly restricts header resolution to paths under
	// RootDir, matching jmake's IgnoreExternalHeaders.
	HeadersUnderRootOnly bool

	// IsStaticLib / IsSharedLib select the link step; neither set means
	// an executable.
	IsStaticLib bool
	IsSharedLib bool
}

func (pc *ProjectConfig) Validate() error {
	if pc.Name == "" {
		return fmt.Errorf("project config: Name is required")
	}
	if pc.Output == "" {
		return fmt.Errorf("project %s: Output is required", pc.Name)
	}
	if len(pc.Sources) == 0 {
		return fmt.Errorf("project %s: at least one source is required", pc.Name)
	}
	if pc.IsStaticLib && pc.IsSharedLib {
		return fmt.Errorf("project %s: cannot be both a static and a shared library", pc.Name)
	}
	if pc.ChunkSize < 0 {
		return fmt.Errorf("project %s: ChunkSize cannot be negative", pc.Name)
	}
	return nil
}

// BuildConfig is the top-level frozen configuration: one or more projects
// sharing a root directory, a cache directory, and a worker cap. Once
// produced by Load or Builder.Build, it is never mutated.
type BuildConfig struct {
	RootDir  string
	CacheDir string

	MaxWorkers int
	Toolchain  string // e.g. "gcc", "clang"

	Projects []*ProjectConfig
}

func (bc *BuildConfig) Validate() error {
	if bc.RootDir == "" {
		return fmt.Errorf("build config: RootDir is required")
	}
	if len(bc.Projects) == 0 {
		return fmt.Errorf("build config: at least one project is required")
	}
	seen := make(map[string]bool, len(bc.Projects))
	for _, p := range bc.Projects {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.Name] {
			return fmt.Errorf("build config: duplicate project name %q", p.Name)
		}
		seen[p.Name] = true
	}
	for _, p := range bc.Projects {
		for _, dep := range p.Dependencies {
			if dep == p.Name {
				return fmt.Errorf("project %s: cannot depend on itself", p.Name)
			}
			if !seen[dep] {
				return fmt.Errorf("project %s: depends on unknown project %q", p.Name, dep)
			}
		}
	}
	return nil
}

func (bc *BuildConfig) ProjectByName(name string) *ProjectConfig {
	for _, p := range bc.Projects {
		if p.Name == name {
			return p
		}
	}
	return nil
}
