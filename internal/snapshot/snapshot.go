// Package snapshot exposes a read-only, value-copied view of in-progress
// build state, replacing the teacher's gRPC Status/DumpLogs RPCs with a
// plain Go accessor API: the graphical progress viewer this project
// supports is out-of-core scope, and the retrieval pack carries no
// generated `pb` bindings for the teacher's own transport to adapt (see
// DESIGN.md). Any external viewer is expected to poll these accessors
// itself and render them however it likes.
package snapshot

import (
	"os/exec"
	"strings"
	"time"

	"github.com/vkbuild/ubuild/internal/common"
	"github.com/vkbuild/ubuild/internal/model"
)

// ProjectSnapshot is a value-copied view of one Project, safe to read after
// the call returns even while the project keeps building concurrently.
type ProjectSnapshot struct {
	Name       string
	State      model.ProjectState
	Done       int64
	Total      int64
	Outcomes   []model.BuildOutcome
}

func SnapshotProject(p *model.Project) ProjectSnapshot {
	done, total := p.Progress()
	return ProjectSnapshot{
		Name:     p.Name,
		State:    p.State(),
		Done:     done,
		Total:    total,
		Outcomes: p.Outcomes(),
	}
}

// BuildSnapshot is the top-level status view: every project plus ambient
// process info, the local equivalent of the teacher's StatusReply.
type BuildSnapshot struct {
	StartedAt    time.Time
	Projects     []ProjectSnapshot
	GccVersion   string
	ClangVersion string
	LogFileSize  int64
}

func Snapshot(startedAt time.Time, projects []*model.Project, logger *common.LoggerWrapper) BuildSnapshot {
	snap := BuildSnapshot{
		StartedAt:    startedAt,
		GccVersion:   detectCompilerVersion("g++"),
		ClangVersion: detectCompilerVersion("clang"),
	}
	if logger != nil {
		snap.LogFileSize = logger.GetFileSize()
	}
	for _, p := range projects {
		snap.Projects = append(snap.Projects, SnapshotProject(p))
	}
	return snap
}

func detectCompilerVersion(bin string) string {
	out, err := exec.Command(bin, "-v").CombinedOutput()
	if err != nil && len(out) == 0 {
		return "not found"
	}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if strings.Contains(line, " version ") {
			return line
		}
	}
	return "not found"
}
