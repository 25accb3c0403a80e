// Command ubuild drives a chunked, incremental C/C++ build from a single
// project-config file: scan headers, decide freshness, plan unity chunks,
// compile them across a bounded worker pool, then link. Parsing a richer
// project DSL, rendering a GUI progress viewer, and packaging build
// artifacts are all out of scope here (see SPEC_FULL.md's non-goals);
// this binary collapses the teacher's client/daemon/server split into one
// local process, since there is no remote compile farm to dial into.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/vkbuild/ubuild/internal/chunker"
	"github.com/vkbuild/ubuild/internal/common"
	"github.com/vkbuild/ubuild/internal/config"
	"github.com/vkbuild/ubuild/internal/freshness"
	"github.com/vkbuild/ubuild/internal/headers"
	"github.com/vkbuild/ubuild/internal/model"
	"github.com/vkbuild/ubuild/internal/report"
	"github.com/vkbuild/ubuild/internal/scheduler"
	"github.com/vkbuild/ubuild/internal/snapshot"
	"github.com/vkbuild/ubuild/internal/toolchain/gccplugin"
)

func failedStart(err interface{}) {
	_, _ = fmt.Fprintln(os.Stderr, "[ubuild]", err)
	os.Exit(1)
}

func main() {
	showVersionAndExit := common.CmdEnvBool("Show version and exit.", false, "version", "")
	showVersionAndExitShort := common.CmdEnvBool("Show version and exit.", false, "v", "")
	configPath := common.CmdEnvString("Path to the project YAML config.", "ubuild.yaml", "config", "UBUILD_CONFIG")
	logFileName := common.CmdEnvString("A filename to log to, stderr by default.\nErrors are duplicated to stderr always.", "",
		"log-filename", "UBUILD_LOG_FILENAME")
	logVerbosity := common.CmdEnvInt("Logger verbosity level for INFO (-1 off, default 0, max 2).", 0,
		"log-verbosity", "UBUILD_LOG_VERBOSITY")
	maxWorkers := common.CmdEnvInt("Max parallel compiler processes. 0 auto-sizes from CPU count and RLIMIT_NOFILE.", 0,
		"workers", "UBUILD_WORKERS")
	extraIncludeDirs := common.CmdEnvStringSlice("Extra -I dirs applied to every project, beyond its own config.", nil,
		"I", "UBUILD_INCLUDE_DIRS")
	statusAddr := common.CmdEnvString("Serve a JSON build-status snapshot on this address while building, empty disables.", "",
		"status-addr", "UBUILD_STATUS_ADDR")

	common.ParseCmdFlagsCombiningWithEnv()

	if *showVersionAndExit || *showVersionAndExitShort {
		fmt.Println(common.GetVersion())
		os.Exit(0)
	}

	logger, err := common.MakeLogger(*logFileName, *logVerbosity, false, *logFileName != "" && *logFileName != "stderr")
	if err != nil {
		failedStart(err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		failedStart(err)
	}

	workers := int(*maxWorkers)
	if workers <= 0 {
		workers = cfg.MaxWorkers
	}
	if workers <= 0 {
		workers = scheduler.AutoSizeWorkers(runtime.NumCPU())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sched := scheduler.New(workers, logger)
	go func() {
		<-ctx.Done()
		sched.Interrupt()
	}()

	headerCache := headers.NewCache()
	digests, err := freshness.OpenDigestStore(cfg.CacheDir)
	if err != nil {
		failedStart(err)
	}
	oracle := freshness.NewOracle(digests)
	tc := gccplugin.New(cfg.Toolchain)

	orderedProjects, err := scheduler.TopologicalOrder(cfg.Projects)
	if err != nil {
		failedStart(err)
	}

	start := time.Now()
	var projectsMu sync.Mutex
	projects := make([]*model.Project, 0, len(orderedProjects))
	projectStates := make(map[string]model.ProjectState, len(orderedProjects))
	exitCode := 0

	if *statusAddr != "" {
		serveStatus(*statusAddr, start, &projectsMu, &projects, logger)
	}

	for _, pc := range orderedProjects {
		project := model.NewProject(pc.Name)
		project.SetDependsOn(pc.Dependencies)
		projectsMu.Lock()
		projects = append(projects, project)
		projectsMu.Unlock()

		depsReady := true
		for _, dep := range pc.Dependencies {
			if projectStates[dep] != model.StateDone {
				depsReady = false
				break
			}
		}
		if !depsReady {
			project.SetState(model.StateFailed)
			project.RecordOutcomes([]model.BuildOutcome{{Target: pc.Name, Skipped: true}})
			projectStates[pc.Name] = model.StateFailed
			exitCode = 1
			continue
		}

		for _, srcPath := range pc.Sources {
			project.AddSource(model.NewSourceFile(srcPath))
		}

		dirs := headers.IncludeDirs{DirsI: append(append([]string{}, pc.IncludeDirs...), *extraIncludeDirs...)}
		rootOnly := ""
		if pc.HeadersUnderRootOnly {
			rootOnly = cfg.RootDir
		}

		objDir := filepath.Join(cfg.CacheDir, "obj", pc.Name)
		unityDir := filepath.Join(cfg.CacheDir, "unity", pc.Name)
		planner := chunker.NewPlanner(pc.ChunkSize, int(pc.ChunkTolerance), objDir, unityDir)

		closures := make(map[string][]string, len(pc.Sources))
		for _, sf := range project.Sources() {
			buf, readErr := os.ReadFile(sf.AbsPath)
			if readErr != nil {
				failedStart(readErr)
			}
			scanner := headers.NewScanner(dirs, headerCache, pc.HeaderRecursionDepth, rootOnly)
			closure, scanErr := scanner.Scan(sf.AbsPath, buf)
			if scanErr != nil {
				failedStart(scanErr)
			}
			sf.SetHeaderClosure(closure)
			closures[sf.AbsPath] = closure
		}

		// Decide each source's own freshness against its would-be singleton
		// object path before chunking: the planner needs real dirty counts
		// per window to choose between materializing a merged chunk and
		// splitting apart, not just an always-empty placeholder.
		dirty := make(map[string]bool, len(pc.Sources))
		for _, sf := range project.Sources() {
			candidate := &model.Chunk{
				Sources: []*model.SourceFile{sf},
				ObjPath: filepath.Join(objDir, sf.Basename()+".o"),
			}
			isDirty, decideErr := oracle.Decide(candidate, closures[sf.AbsPath])
			if decideErr != nil {
				failedStart(decideErr)
			}
			dirty[sf.AbsPath] = isDirty
		}
		previouslyChunked := planner.PreviouslyChunked(pc.Name, project.Sources())

		chunks := planner.Plan(pc.Name, project.Sources(), dirty, previouslyChunked)
		project.SetChunks(chunks)

		plan := &model.BuildPlan{
			Project:     project,
			Chunks:      chunks,
			LinkOutput:  pc.Output,
			Libraries:   pc.Libraries,
			LibraryDirs: pc.LibraryDirs,
		}

		for _, chunk := range chunks {
			flattened := flattenClosures(chunk, closures)
			isDirty, decideErr := oracle.Decide(chunk, flattened)
			if decideErr != nil {
				failedStart(decideErr)
			}
			chunk.Dirty = isDirty
		}

		if _, buildErr := sched.BuildProject(ctx, tc, project, plan); buildErr != nil {
			failedStart(buildErr)
		}
		if project.State() == model.StateFailed {
			exitCode = 1
		}
		projectStates[pc.Name] = project.State()
	}

	if flushErr := digests.Flush(); flushErr != nil {
		logger.Error("failed to persist digest store", flushErr)
	}

	report.PrintProjectSummary(os.Stdout, projects, time.Since(start))
	for _, p := range projects {
		report.PrintDiagnostics(os.Stdout, p.Outcomes())
	}

	os.Exit(exitCode)
}

// serveStatus starts a background HTTP status endpoint, the local
// replacement for the teacher's gRPC Status RPC (nocc-server.go's Status
// handler): poll /status for a JSON internal/snapshot.BuildSnapshot instead
// of dialing a remote server.
func serveStatus(addr string, start time.Time, mu *sync.Mutex, projects *[]*model.Project, logger *common.LoggerWrapper) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		snap := snapshot.Snapshot(start, *projects, logger)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed && logger != nil {
			logger.Error("status server stopped", err)
		}
	}()
}

func flattenClosures(chunk *model.Chunk, closures map[string][]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, sf := range chunk.Sources {
		for _, h := range closures[sf.AbsPath] {
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
		}
	}
	return out
}
