// Package gccplugin implements toolchain.Toolchain for GCC/Clang-compatible
// compilers: both accept the same -I/-D/-M/-f... surface, so one plugin
// covers both. Grounded on the teacher's CollectDependentIncludesByCxxM
// (process invocation, stdout/stderr capture) and cxx-launcher.go (exit
// code and duration handling), adapted from a remote-compile RPC path to a
// direct local exec.CommandContext call.
package gccplugin

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/vkbuild/ubuild/internal/diagnostics"
	"github.com/vkbuild/ubuild/internal/model"
	"github.com/vkbuild/ubuild/internal/toolchain"
)

// GCC drives gcc/g++/clang/clang++ binaries. CxxName is typically "g++" or
// "clang++"; it is resolved via $PATH the way the teacher resolves cxxName
// per client invocation.
type GCC struct {
	CxxName string
}

func New(cxxName string) *GCC {
	if cxxName == "" {
		cxxName = "g++"
	}
	return &GCC{CxxName: cxxName}
}

func (g *GCC) ObjectExtension() string {
	return ".o"
}

func (g *GCC) ExpandCompileCommand(cc toolchain.CompileCommand) ([]string, error) {
	argv := []string{g.CxxName, "-c", "-o", cc.OutputPath}
	for _, dir := range cc.IncludeDirs {
		argv = append(argv, "-I", dir)
	}
	for _, def := range cc.Defines {
		argv = append(argv, "-D"+def)
	}
	for _, f := range cc.ForceInclude {
		argv = append(argv, "-include", f)
	}
	argv = append(argv, cc.InputPath)
	return argv, nil
}

func (g *GCC) ExpandLinkCommand(lc toolchain.LinkCommand) ([]string, error) {
	if lc.Output == "" {
		return nil, fmt.Errorf("gccplugin: link command has no Output")
	}
	if lc.Static {
		argv := []string{"ar", "rcs", lc.Output}
		argv = append(argv, lc.ObjPaths...)
		return argv, nil
	}

	argv := []string{g.CxxName, "-o", lc.Output}
	if lc.Shared {
		argv = append(argv, "-shared")
	}
	argv = append(argv, lc.ObjPaths...)
	for _, dir := range lc.LibDirs {
		argv = append(argv, "-L", dir)
	}
	for _, lib := range lc.Libraries {
		argv = append(argv, "-l"+lib)
	}
	return argv, nil
}

func (g *GCC) Compile(ctx context.Context, cc toolchain.CompileCommand) (model.BuildOutcome, error) {
	argv, err := g.ExpandCompileCommand(cc)
	if err != nil {
		return model.BuildOutcome{}, err
	}
	return g.run(ctx, cc.InputPath, argv)
}

func (g *GCC) Link(ctx context.Context, lc toolchain.LinkCommand) (model.BuildOutcome, error) {
	argv, err := g.ExpandLinkCommand(lc)
	if err != nil {
		return model.BuildOutcome{}, err
	}
	return g.run(ctx, lc.Output, argv)
}

func (g *GCC) run(ctx context.Context, target string, argv []string) (model.BuildOutcome, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	durationMs := time.Since(start).Milliseconds()
	diags := diagnostics.Parse(stderr.String())

	outcome := model.BuildOutcome{
		Target:      target,
		Diagnostics: diags,
		DurationMs:  durationMs,
	}

	if runErr == nil {
		outcome.Succeeded = !diagnostics.HasErrors(diags)
		return outcome, nil
	}

	var exitErr *exec.ExitError
	if ok := asExitError(runErr, &exitErr); ok {
		if exitErr.ExitCode() == g.InterruptExitCode() && ctx.Err() != nil {
			outcome.Succeeded = false
			outcome.Skipped = true // cancelled, not a genuine compile failure
			return outcome, nil
		}
		outcome.Succeeded = false
		return outcome, nil
	}

	return outcome, runErr
}

func asExitError(err error, target **exec.ExitError) bool {
	exitErr, ok := err.(*exec.ExitError)
	if ok {
		*target = exitErr
	}
	return ok
}

// InterruptExitCode is 128+SIGINT(2) = 130, the POSIX convention gcc/clang
// both follow when killed by SIGINT.
func (g *GCC) InterruptExitCode() int {
	return 130
}

// PCHArtifact reports GCC/Clang's .gch convention: a precompiled header for
// foo.h lives at foo.h.gch next to it (or in a directory of the same name
// for Clang's modules-style lookup; this plugin only needs the GCC form).
func (g *GCC) PCHArtifact(headerPath string) string {
	return headerPath + ".gch"
}

// PreLinkExtraObjects always returns nil: a .gch precompiled header has no
// companion object to link in, unlike PCH formats that embed generated
// code in a sidecar .obj (MSVC's /Yc, not implemented here).
func (g *GCC) PreLinkExtraObjects(pchPath string) []string {
	return nil
}

var _ toolchain.Toolchain = (*GCC)(nil)
