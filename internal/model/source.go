package model

import (
	"github.com/vkbuild/ubuild/internal/common"
)

// Language is the source language of a SourceFile, recognized purely from
// its extension (see DetectLanguage).
type Language int

const (
	LanguageUnknown Language = iota
	LanguageC
	LanguageCpp
)

func (lang Language) String() string {
	switch lang {
	case LanguageC:
		return "C"
	case LanguageCpp:
		return "C++"
	default:
		return "unknown"
	}
}

var cExtensions = map[string]bool{
	".c": true,
}

var cppExtensions = map[string]bool{
	".cc":  true,
	".cpp": true,
	".cxx": true,
	".c++": true,
	".mm":  true,
}

// DetectLanguage classifies a source file by its extension. Headers do not
// have their own language: they are scanned the same regardless of whether
// they are pulled in from a .c or a .cpp translation unit.
func DetectLanguage(fileName string) Language {
	ext := extOf(fileName)
	if cExtensions[ext] {
		return LanguageC
	}
	if cppExtensions[ext] {
		return LanguageCpp
	}
	return LanguageUnknown
}

func extOf(fileName string) string {
	dot := -1
	for i := len(fileName) - 1; i >= 0; i-- {
		if fileName[i] == '/' {
			break
		}
		if fileName[i] == '.' {
			dot = i
			break
		}
	}
	if dot == -1 {
		return ""
	}
	return fileName[dot:]
}

// SourceFile is one .c/.cpp translation-unit input. LastDigest/LastMTime are
// not filled in by internal/freshness, which keeps per-source digests in its
// own DigestStore; HeaderClosure is computed lazily and cached on the
// SourceFile once resolved for this build.
type SourceFile struct {
	AbsPath string
	Lang    Language

	LastDigest common.SHA256
	LastMTime  int64 // unix nanoseconds

	headerClosure []string // absolute paths, resolved, in order of appearance
	closureValid  bool
}

func NewSourceFile(absPath string) *SourceFile {
	return &SourceFile{
		AbsPath: absPath,
		Lang:    DetectLanguage(absPath),
	}
}

func (sf *SourceFile) Basename() string {
	i := len(sf.AbsPath) - 1
	for i >= 0 && sf.AbsPath[i] != '/' {
		i--
	}
	name := sf.AbsPath[i+1:]
	if dot := extOf(name); dot != "" {
		return name[:len(name)-len(dot)]
	}
	return name
}

// SetHeaderClosure caches the result of a header scan for this source; it is
// recomputed at most once per build (headers.Scanner does not itself cache
// per-source results, only per-header ones, see headers.Cache).
func (sf *SourceFile) SetHeaderClosure(closure []string) {
	sf.headerClosure = closure
	sf.closureValid = true
}

func (sf *SourceFile) HeaderClosure() ([]string, bool) {
	return sf.headerClosure, sf.closureValid
}
