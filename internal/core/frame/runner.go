// Package frame sequences the per-frame work of the runtime into fixed
// phases, so the harness declares what happens and the runner owns when.
package frame

import "sort"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseStart  Phase = iota // 0: drain pending script starts
	PhaseUpdate              // 1: flat script update pass
	PhaseCommit              // 2: apply deferred work (scene switch, input advance)
	PhaseRender              // 3: read-only observation of the frame result
)

// Func is one registered step. It receives the frame number, starting at 1.
type Func func(frame uint64)

type step struct {
	phase Phase
	name  string
	fn    Func
}

// Runner executes registered steps in phase order each frame. Registration
// order breaks ties within a phase.
type Runner struct {
	steps  []step
	sorted bool
	frames uint64
}

func NewRunner() *Runner {
	return &Runner{
		steps: make([]step, 0, 8),
	}
}

// Add registers a step. Steps may be added between frames; the next
// RunFrame picks them up in phase order.
func (r *Runner) Add(phase Phase, name string, fn Func) {
	if fn == nil {
		panic("frame: nil step " + name)
	}
	r.steps = append(r.steps, step{phase: phase, name: name, fn: fn})
	r.sorted = false
}

// RunFrame advances the frame counter and executes every step once. It
// returns the number of the frame just run.
func (r *Runner) RunFrame() uint64 {
	r.ensureSorted()
	r.frames++
	for _, s := range r.steps {
		s.fn(r.frames)
	}
	return r.frames
}

// Frames returns how many frames have run.
func (r *Runner) Frames() uint64 { return r.frames }

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.steps, func(i, j int) bool {
			return r.steps[i].phase < r.steps[j].phase
		})
		r.sorted = true
	}
}
