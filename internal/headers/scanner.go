// Package headers implements the own-parser #include scanner: a fast,
// non-preprocessing substitute for `cxx -M` that statically resolves
// #include directives and walks them recursively, memoizing per-header
// results across sources in the same build (see Cache).
//
// It deliberately does nothing about #ifdef/#define: like the teacher's own
// parser, it can therefore report more includes than a real preprocessor
// would (some guarded out by #ifdef and never reached), but never fewer,
// except for macro-valued #include MACRO() which it cannot resolve
// statically at all.
package headers

import (
	"bytes"
	"path"
	"strings"
)

// IncludeDirs is the full set of search paths an invocation resolves
// #include directives against, mirroring the teacher's -I/-iquote/-isystem
// split exactly, since resolution order depends on which bucket a path is
// in.
type IncludeDirs struct {
	DirsIquote  []string // -iquote
	DirsI       []string // -I
	DirsIsystem []string // -isystem
}

type includedArg struct {
	insideStr string
	isQuote   bool // "arg" vs <arg>
}

// Scanner walks the #include closure of one source file. A Scanner is not
// safe for concurrent use; create one per goroutine. Resolved headers are
// looked up in and recorded to Cache, which is shared and safe for
// concurrent use across scanners.
type Scanner struct {
	dirs  IncludeDirs
	cache *Cache

	maxDepth int    // 0 = unlimited, n = headers at most n include levels below the source; matches ProjectConfig.HeaderRecursionDepth
	rootOnly string // non-empty: only resolve headers with this prefix

	seen   map[string]bool // resolved absolute paths already walked this scan
	result []string        // in order of first appearance
}

func NewScanner(dirs IncludeDirs, cache *Cache, maxDepth int, rootOnly string) *Scanner {
	return &Scanner{
		dirs:     dirs,
		cache:    cache,
		maxDepth: maxDepth,
		rootOnly: rootOnly,
		seen:     make(map[string]bool, 32),
		result:   make([]string, 0, 16),
	}
}

// Scan returns the transitive closure of headers reachable from sourcePath,
// in order of appearance, resolving against dirs and consulting/populating
// cache as it goes.
func (s *Scanner) Scan(sourcePath string, buf []byte) ([]string, error) {
	if err := s.walkBuffer(sourcePath, buf, 0); err != nil {
		return nil, err
	}
	return s.result, nil
}

func (s *Scanner) walkBuffer(currentFile string, buf []byte, depth int) error {
	if s.maxDepth > 0 && depth > s.maxDepth {
		return nil
	}
	for _, arg := range collectIncludeStatements(buf) {
		s.resolveAndWalk(currentFile, arg, depth)
	}
	return nil
}

// resolveAndWalk adds arg's resolved path to the closure and walks its own
// includes. It returns the resolved path ("" if arg did not resolve or was
// filtered out), which the caller records as one of its direct includes.
func (s *Scanner) resolveAndWalk(currentFile string, arg includedArg, depth int) string {
	resolved := s.resolve(currentFile, arg)
	if resolved == "" {
		return ""
	}
	if s.rootOnly != "" && !strings.HasPrefix(resolved, s.rootOnly) {
		return ""
	}
	if s.seen[resolved] {
		return resolved
	}
	s.seen[resolved] = true
	s.result = append(s.result, resolved)

	if s.maxDepth > 0 && depth+1 >= s.maxDepth {
		return resolved // depth bound reached: this header's own includes are not walked
	}

	if cached, ok := s.cache.Get(resolved); ok {
		for _, nested := range cached.NestedIncludes {
			s.resolveAndWalk(resolved, includedArg{insideStr: nested}, depth+1)
		}
		return resolved
	}

	buf, err := s.cache.readFile(resolved)
	if err != nil {
		return resolved // unreadable (likely guarded by #ifdef and never truly reachable)
	}
	nested := collectIncludeStatements(buf)
	nestedResolved := make([]string, 0, len(nested))
	for _, n := range nested {
		if r := s.resolveAndWalk(resolved, n, depth+1); r != "" {
			nestedResolved = append(nestedResolved, r)
		}
	}
	s.cache.Put(resolved, nestedResolved)
	return resolved
}

// resolve enumerates candidate absolute paths for arg in the teacher's
// search order (current dir -> -iquote -> -I -> -isystem for quoted
// includes; -I -> -isystem only for angle includes) and returns the first
// one that exists, or "" if none do.
func (s *Scanner) resolve(currentFile string, arg includedArg) string {
	if len(arg.insideStr) > 0 && arg.insideStr[0] == '/' {
		if s.cache.exists(arg.insideStr) {
			return arg.insideStr
		}
		return ""
	}

	isAngle := !arg.isQuote
	if isAngle {
		if resolved, ok := s.cache.GetAngleResolve(arg.insideStr); ok {
			return resolved
		}
	}

	try := func(candidate string) string {
		if s.cache.exists(candidate) {
			return candidate
		}
		return ""
	}

	if arg.isQuote {
		if r := try(path.Join(path.Dir(currentFile), arg.insideStr)); r != "" {
			return r
		}
		for _, dir := range s.dirs.DirsIquote {
			if r := try(path.Join(dir, arg.insideStr)); r != "" {
				return r
			}
		}
	}
	for _, dir := range s.dirs.DirsI {
		if r := try(path.Join(dir, arg.insideStr)); r != "" {
			if isAngle {
				s.cache.AddAngleResolve(arg.insideStr, r)
			}
			return r
		}
	}
	for _, dir := range s.dirs.DirsIsystem {
		if r := try(path.Join(dir, arg.insideStr)); r != "" {
			if isAngle {
				s.cache.AddAngleResolve(arg.insideStr, r)
			}
			return r
		}
	}

	if isAngle {
		s.cache.AddAngleResolve(arg.insideStr, "") // negative cache: don't re-walk all dirs next time
	}
	return ""
}

// collectIncludeStatements finds every #include "arg"/<arg> in buf, in
// order of appearance, respecting C/C++ comments. It is a direct
// generalization of the teacher's state-machine scanner (own-includes-
// parser.go), with #include_next dropped: this orchestrator never reaches
// into the toolchain's own standard-library headers that #include_next
// exists to chain through.
func collectIncludeStatements(buf []byte) []includedArg {
	const (
		stateNone = iota
		stateAfterHash
		stateAfterInclude
		stateInsideQuote
		stateInsideAngle
	)

	var result []includedArg
	state := stateNone
	start := 0
	size := len(buf)

	for offset := 0; offset < size; offset++ {
		switch state {
		case stateNone:
			switch buf[offset] {
			case '#':
				state = stateAfterHash
			case '/':
				if offset+1 < size && buf[offset+1] == '/' {
					if nl := bytes.IndexByte(buf[offset:], '\n'); nl == -1 {
						offset = size
					} else {
						offset += nl
					}
				} else if offset+1 < size && buf[offset+1] == '*' {
					if end := bytes.Index(buf[offset+2:], []byte("*/")); end == -1 {
						offset = size
					} else {
						offset += 2 + end + 1
					}
				}
			}

		case stateAfterHash:
			switch {
			case buf[offset] == ' ' || buf[offset] == '\t':
				// keep skipping whitespace between '#' and 'include'
			case matchesAt(buf, offset, "include"):
				offset += len("include") - 1
				state = stateAfterInclude
			default:
				state = stateNone
			}

		case stateAfterInclude:
			switch buf[offset] {
			case ' ', '\t':
			case '<':
				start = offset + 1
				state = stateInsideAngle
			case '"':
				start = offset + 1
				state = stateInsideQuote
			default:
				state = stateNone
			}

		case stateInsideAngle:
			switch buf[offset] {
			case '\n':
				state = stateNone
			case '>':
				result = append(result, includedArg{string(buf[start:offset]), false})
				state = stateNone
			}

		case stateInsideQuote:
			switch buf[offset] {
			case '\n':
				state = stateNone
			case '"':
				result = append(result, includedArg{string(buf[start:offset]), true})
				state = stateNone
			}
		}
	}

	return result
}

func matchesAt(buf []byte, offset int, word string) bool {
	if offset+len(word) > len(buf) {
		return false
	}
	return string(buf[offset:offset+len(word)]) == word
}
