package model

import (
	"sync"
	"sync/atomic"
)

// ProjectState tracks where a Project is in its build lifecycle. Transitions
// are one-directional: StateConfigured -> StatePlanned -> StateBuilding ->
// StateDone (or StateFailed, which is terminal just like StateDone).
type ProjectState int32

const (
	StateConfigured ProjectState = iota
	StatePlanned
	StateBuilding
	StateDone
	StateFailed
)

func (s ProjectState) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StatePlanned:
		return "planned"
	case StateBuilding:
		return "building"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Project is one named compilation target (a static lib, a shared lib, or an
// executable) plus its plan once computed. All mutable fields are guarded by
// mu; State is additionally exposed through atomic loads so a report/status
// reader never blocks on a project that is mid-build. Lock ordering, per
// SPEC_FULL.md section 5, is always headers.Cache -> Project.mu -> (no global lock held
// under Project.mu).
type Project struct {
	Name string

	// DependsOn names other projects that must reach StateDone before this
	// one may be built; set once at construction, never mutated afterward,
	// so it needs no lock of its own.
	DependsOn []string

	mu      sync.RWMutex
	sources []*SourceFile
	chunks  []*Chunk
	state   int32 // ProjectState, accessed via atomic

	objsDone    int64 // atomic count of finished object builds, for progress reporting
	objsTotal   int64
	lastOutcome []BuildOutcome
}

func NewProject(name string) *Project {
	return &Project{Name: name, state: int32(StateConfigured)}
}

// SetDependsOn records this project's dependency names. Must be called
// before the project is handed to the scheduler; it is not safe to call
// concurrently with a build in progress.
func (p *Project) SetDependsOn(deps []string) {
	p.DependsOn = append([]string(nil), deps...)
}

func (p *Project) AddSource(sf *SourceFile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sources = append(p.sources, sf)
}

func (p *Project) Sources() []*SourceFile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*SourceFile, len(p.sources))
	copy(out, p.sources)
	return out
}

func (p *Project) SetChunks(chunks []*Chunk) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chunks = chunks
	atomic.StoreInt64(&p.objsTotal, int64(len(chunks)))
	atomic.StoreInt64(&p.objsDone, 0)
	atomic.StoreInt32(&p.state, int32(StatePlanned))
}

func (p *Project) Chunks() []*Chunk {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Chunk, len(p.chunks))
	copy(out, p.chunks)
	return out
}

func (p *Project) State() ProjectState {
	return ProjectState(atomic.LoadInt32(&p.state))
}

func (p *Project) SetState(s ProjectState) {
	atomic.StoreInt32(&p.state, int32(s))
}

// MarkObjDone is invoked by the scheduler once per completed chunk build; it
// never needs Project.mu since both counters are atomic and independent of
// the slice fields.
func (p *Project) MarkObjDone() (done, total int64) {
	return atomic.AddInt64(&p.objsDone, 1), atomic.LoadInt64(&p.objsTotal)
}

func (p *Project) Progress() (done, total int64) {
	return atomic.LoadInt64(&p.objsDone), atomic.LoadInt64(&p.objsTotal)
}

func (p *Project) RecordOutcomes(outcomes []BuildOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastOutcome = outcomes
}

func (p *Project) Outcomes() []BuildOutcome {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]BuildOutcome, len(p.lastOutcome))
	copy(out, p.lastOutcome)
	return out
}
