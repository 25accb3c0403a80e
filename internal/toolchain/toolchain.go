// Package toolchain defines the compiler/linker abstraction the scheduler
// and link driver program against. Concrete plugins (see gccplugin) turn a
// chunk or link step into an actual *exec.Cmd and parse what the compiler
// printed back into structured diagnostics.
package toolchain

import (
	"context"

	"github.com/vkbuild/ubuild/internal/model"
)

// CompileCommand is everything a Toolchain needs to build one exec.Cmd for
// compiling a single unity-chunk source into an object file.
type CompileCommand struct {
	InputPath  string
	OutputPath string

	IncludeDirs []string
	Defines     []string

	// ForceInclude names extra files to inject ahead of the translation
	// unit's own first token, the same role as the teacher's "-include
	// {pchFile}" handling for own precompiled headers.
	ForceInclude []string
}

// LinkCommand is everything a Toolchain needs to build one exec.Cmd for the
// final link step of a project.
type LinkCommand struct {
	ObjPaths  []string
	Libraries []string
	LibDirs   []string
	Output    string

	Static bool
	Shared bool
}

// Toolchain is implemented once per compiler family (gccplugin.GCC covers
// both gcc and clang, since both accept the same -M/-f... surface). MSVC
// templating is a documented non-goal: no plugin for it ships here.
type Toolchain interface {
	// ObjectExtension is the platform object-file suffix, e.g. ".o".
	ObjectExtension() string

	// ExpandCompileCommand turns a CompileCommand into an executable
	// command line (argv[0] plus args), ready for exec.CommandContext.
	ExpandCompileCommand(cc CompileCommand) (argv []string, err error)

	// ExpandLinkCommand is the link-step equivalent of
	// ExpandCompileCommand.
	ExpandLinkCommand(lc LinkCommand) (argv []string, err error)

	// Compile runs the compile step and returns a parsed outcome; ctx
	// cancellation must terminate the child process (see
	// internal/scheduler's interrupt handling).
	Compile(ctx context.Context, cc CompileCommand) (model.BuildOutcome, error)

	// Link runs the link step and returns a parsed outcome.
	Link(ctx context.Context, lc LinkCommand) (model.BuildOutcome, error)

	// InterruptExitCode is the process exit code this toolchain's compiler
	// reports when killed by SIGINT/SIGTERM. gccplugin's run uses it, together
	// with a cancelled ctx, to mark an outcome Skipped ("cancelled because we
	// asked it to stop") rather than a genuine compile failure; the
	// scheduler itself does not call it.
	InterruptExitCode() int

	// PCHArtifact reports the expected precompiled-header output path for
	// a given header, or "" if this toolchain has no PCH support.
	PCHArtifact(headerPath string) string

	// PreLinkExtraObjects returns any companion object files a concrete
	// plugin's PCH strategy requires at link time, beyond the chunk
	// objects already in LinkCommand.ObjPaths. GCC/Clang's .gch files have
	// no companion object, so gccplugin always returns nil; the hook
	// exists for plugins (not shipped here) whose PCH format does need one.
	PreLinkExtraObjects(pchPath string) []string
}
