// Package linker resolves a project's library dependencies and decides
// whether its link step can be skipped, grounded on
// original_source/jmake.py's _check_libraries (probe each configured lib
// dir, then fall back to the toolchain's default search via `ld -t`,
// recording the resolved path's mtime so a newer system library still
// triggers a relink even when every object file is already up to date).
package linker

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// ResolvedLibrary is one -lfoo resolved to an actual file, plus the mtime
// used to decide relink necessity. MTime is the zero Time for libraries
// that resolve successfully but whose backing file jmake's `ld -t` couldn't
// stat (treated as never-newer, exactly like jmake's mtime=0 fallback).
type ResolvedLibrary struct {
	Name     string
	Path     string // "" if never resolved to a concrete file
	MTime    time.Time
	Resolved bool // ld reported success, even if Path/MTime are unknown
}

// Resolver probes library names against explicit directories first, then
// the toolchain's own default search path via `ld -t`.
type Resolver struct {
	libDirs []string
}

func NewResolver(libDirs []string) *Resolver {
	return &Resolver{libDirs: libDirs}
}

var ldResolvedRE = func(name string) *regexp.Regexp {
	return regexp.MustCompile(`-l` + regexp.QuoteMeta(name) + ` \((.*?)\)`)
}

// Resolve looks up one library name (without the "-l" prefix or platform
// extension). It first tries each configured lib dir for a libNAME.a /
// libNAME.so, then falls back to asking the linker directly, mirroring
// jmake's ld -t -lNAME probe, which also covers system libraries that
// aren't under any project-configured directory at all.
func (r *Resolver) Resolve(name string) ResolvedLibrary {
	for _, dir := range r.libDirs {
		for _, candidate := range []string{"lib" + name + ".so", "lib" + name + ".a"} {
			path := dir + "/" + candidate
			if info, err := os.Stat(path); err == nil {
				return ResolvedLibrary{Name: name, Path: path, MTime: info.ModTime(), Resolved: true}
			}
		}
	}
	return r.resolveViaLinker(name)
}

func (r *Resolver) resolveViaLinker(name string) ResolvedLibrary {
	cmd := exec.Command("ld", "-t", "-l"+name)
	out, err := cmd.CombinedOutput()

	m := ldResolvedRE(name).FindStringSubmatch(string(out))
	if m != nil {
		path := m[1]
		if info, statErr := os.Stat(path); statErr == nil {
			return ResolvedLibrary{Name: name, Path: path, MTime: info.ModTime(), Resolved: true}
		}
		// resolved per ld, but stat failed (permissions, virtual/synthetic
		// entry): treated as never-newer, matching jmake's mtime=0 fallback
		return ResolvedLibrary{Name: name, Path: path, Resolved: true}
	}

	if err != nil {
		return ResolvedLibrary{Name: name, Resolved: false}
	}
	// ld exited zero but produced no "-lNAME (path)" match: some libraries
	// (e.g. -liberty) resolve internally to ld with no backing file at all
	return ResolvedLibrary{Name: name, Resolved: true}
}

func (r *Resolver) ResolveAll(names []string) ([]ResolvedLibrary, error) {
	resolved := make([]ResolvedLibrary, 0, len(names))
	var missing []string
	for _, name := range names {
		lib := r.Resolve(name)
		if !lib.Resolved {
			missing = append(missing, name)
			continue
		}
		resolved = append(resolved, lib)
	}
	if len(missing) > 0 {
		return resolved, fmt.Errorf("linker: could not locate %s", strings.Join(missing, ", "))
	}
	return resolved, nil
}

// NeedsRelink decides whether a link step can be skipped: the output
// artifact must exist and every object file's mtime must equal the
// output's mtime exactly, matching jmake's link(), which compares
// os.path.getmtime(obj) != mtime rather than just checking for staleness.
// An object mtime that differs from the output's in either direction,
// including being older, means a prior link was interrupted or the object
// was touched independently, and forces a relink; only an exact match
// proves the output was produced from that object as it stands now.
func NeedsRelink(outputPath string, objPaths []string, libs []ResolvedLibrary) (bool, error) {
	outInfo, err := os.Stat(outputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	outMTime := outInfo.ModTime()

	for _, obj := range objPaths {
		info, err := os.Stat(obj)
		if err != nil {
			return false, err
		}
		if !info.ModTime().Equal(outMTime) {
			return true, nil
		}
	}

	for _, lib := range libs {
		if lib.MTime.IsZero() {
			continue
		}
		if lib.MTime.After(outMTime) {
			return true, nil
		}
	}

	return false, nil
}
