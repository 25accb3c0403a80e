// Package scheduler runs a project's chunk compiles across a bounded worker
// pool, then its link step once every chunk has finished, matching
// original_source/jmake.py's _threaded_build (a semaphore-bounded thread per
// compile, a global interrupted flag checked before reporting new failures)
// translated into the teacher's own counting-semaphore idiom
// (internal/server/cxx-launcher.go's serverCxxThrottle channel) instead of
// Python's threading.BoundedSemaphore.
package scheduler

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"github.com/vkbuild/ubuild/internal/common"
	"github.com/vkbuild/ubuild/internal/diagnostics"
	"github.com/vkbuild/ubuild/internal/linker"
	"github.com/vkbuild/ubuild/internal/model"
	"github.com/vkbuild/ubuild/internal/toolchain"
)

// Scheduler bounds how many compiler child processes run at once across all
// projects submitted to it; MaxWorkers mirrors jmake's
// threading.BoundedSemaphore sizing against CPU count.
type Scheduler struct {
	throttle chan struct{}
	logger   *common.LoggerWrapper

	interruptedMu sync.Mutex
	interrupted   bool

	totalCalls      int64
	totalDurationMs int64
	failedCalls     int64
}

func New(maxWorkers int, logger *common.LoggerWrapper) *Scheduler {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Scheduler{
		throttle: make(chan struct{}, maxWorkers),
		logger:   logger,
	}
}

// Interrupt marks the scheduler as cancelled: in-flight builds finish
// (or are killed via ctx), but no further chunks are submitted and
// completed-but-failed chunks after this point are not reported as
// errors, mirroring jmake's "if not _interrupted: LOG_ERROR(...)" guard.
func (s *Scheduler) Interrupt() {
	s.interruptedMu.Lock()
	s.interrupted = true
	s.interruptedMu.Unlock()
}

func (s *Scheduler) IsInterrupted() bool {
	s.interruptedMu.Lock()
	defer s.interruptedMu.Unlock()
	return s.interrupted
}

// BuildProject compiles every chunk in plan.Chunks concurrently (bounded by
// the scheduler's worker cap), then links once all of them finish
// successfully. It waits for every chunk to finish even after a failure;
// if any chunk failed, no link step runs, just like jmake setting
// _build_success = False and letting already-dispatched threads complete.
func (s *Scheduler) BuildProject(ctx context.Context, tc toolchain.Toolchain, project *model.Project, plan *model.BuildPlan) ([]model.BuildOutcome, error) {
	project.SetState(model.StateBuilding)

	dirty := plan.DirtyChunks()
	outcomes := make([]model.BuildOutcome, len(dirty))
	var wg sync.WaitGroup
	var hadError int32

	for i, chunk := range dirty {
		i, chunk := i, chunk
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.acquire()
			defer s.release()

			if s.IsInterrupted() {
				outcomes[i] = model.BuildOutcome{Target: chunk.ObjPath, Skipped: true}
				return
			}

			outcome, err := tc.Compile(ctx, toolchain.CompileCommand{
				InputPath:  chunkInputPath(chunk),
				OutputPath: chunk.ObjPath,
			})
			atomic.AddInt64(&s.totalCalls, 1)
			atomic.AddInt64(&s.totalDurationMs, outcome.DurationMs)

			if err != nil || !outcome.Succeeded {
				atomic.AddInt64(&s.failedCalls, 1)
				atomic.StoreInt32(&hadError, 1)
				if !s.IsInterrupted() && s.logger != nil {
					s.logger.Error("compile failed", chunk.ObjPath)
				}
			}
			outcomes[i] = outcome
			project.MarkObjDone()
		}()
	}

	wg.Wait()
	project.RecordOutcomes(outcomes)

	if atomic.LoadInt32(&hadError) != 0 || diagnosticsHadError(outcomes) {
		project.SetState(model.StateFailed)
		return outcomes, nil
	}

	if s.IsInterrupted() {
		outcomes = append(outcomes, model.BuildOutcome{Target: plan.LinkOutput, Skipped: true})
		project.RecordOutcomes(outcomes)
		project.SetState(model.StateFailed)
		return outcomes, nil
	}

	linkOutcome, err := s.link(ctx, tc, plan)
	outcomes = append(outcomes, linkOutcome)
	project.RecordOutcomes(outcomes)

	if err != nil || !linkOutcome.Succeeded {
		project.SetState(model.StateFailed)
		return outcomes, err
	}

	project.SetState(model.StateDone)
	return outcomes, nil
}

// link resolves plan.Libraries against plan.LibraryDirs and skips the whole
// link step when linker.NeedsRelink says the existing artifact's mtime
// equals every object's and no library is newer, mirroring jmake's
// "skip_link" short-circuit instead of always re-invoking the linker. After
// a successful link it sets every object's mtime to the artifact's, so the
// next unchanged build meets that condition.
func (s *Scheduler) link(ctx context.Context, tc toolchain.Toolchain, plan *model.BuildPlan) (model.BuildOutcome, error) {
	var objPaths []string
	for _, c := range plan.Chunks {
		objPaths = append(objPaths, c.ObjPath)
	}
	objPaths = append(objPaths, plan.ExtraObjs...)

	resolver := linker.NewResolver(plan.LibraryDirs)
	resolvedLibs, err := resolver.ResolveAll(plan.Libraries)
	if err != nil {
		return model.BuildOutcome{Target: plan.LinkOutput}, err
	}

	needsRelink, err := linker.NeedsRelink(plan.LinkOutput, objPaths, resolvedLibs)
	if err != nil {
		return model.BuildOutcome{Target: plan.LinkOutput}, err
	}
	if !needsRelink {
		return model.BuildOutcome{Target: plan.LinkOutput, Succeeded: true, Skipped: true}, nil
	}

	s.acquire()
	defer s.release()

	outcome, err := tc.Link(ctx, toolchain.LinkCommand{
		ObjPaths:  objPaths,
		Libraries: plan.Libraries,
		LibDirs:   plan.LibraryDirs,
		Output:    plan.LinkOutput,
	})
	if err == nil && outcome.Succeeded {
		if outInfo, statErr := os.Stat(plan.LinkOutput); statErr == nil {
			for _, obj := range objPaths {
				_ = os.Chtimes(obj, outInfo.ModTime(), outInfo.ModTime())
			}
		}
	}
	return outcome, err
}

func (s *Scheduler) acquire() { s.throttle <- struct{}{} }
func (s *Scheduler) release() { <-s.throttle }

func (s *Scheduler) Stats() (totalCalls, totalDurationMs, failedCalls int64) {
	return atomic.LoadInt64(&s.totalCalls), atomic.LoadInt64(&s.totalDurationMs), atomic.LoadInt64(&s.failedCalls)
}

func chunkInputPath(chunk *model.Chunk) string {
	if chunk.IsSingleton() {
		return chunk.Sources[0].AbsPath
	}
	// merged chunks compile from their generated unity .cpp, named
	// identically to the chunk's own object file minus the extension
	return chunk.ObjPath[:len(chunk.ObjPath)-len(".o")] + ".cpp"
}

func diagnosticsHadError(outcomes []model.BuildOutcome) bool {
	for _, o := range outcomes {
		if diagnostics.HasErrors(o.Diagnostics) {
			return true
		}
	}
	return false
}
