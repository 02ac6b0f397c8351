// Package report turns a finished run into human- and machine-readable
// artifacts: a trace of the run's frames, a summary table, terminal
// charts, PNG plots, and CSV/JSON exports. Everything here reads engine
// output; nothing mutates the simulation, and nothing outlives the
// process. The trace covers the current run only.
package report

import (
	"github.com/san-kum/fricsim/internal/engine"
	"github.com/san-kum/fricsim/internal/surface"
)

// Trace records every frame of the current run. It plugs into the driver
// as an observer; charts and exports are fed from it.
type Trace struct {
	frames []engine.Frame
}

func NewTrace() *Trace {
	return &Trace{}
}

// OnTick appends the frame to the trace.
func (t *Trace) OnTick(f engine.Frame) {
	t.frames = append(t.frames, f)
}

// Reset drops the recorded frames; recording a new run reuses the trace.
func (t *Trace) Reset() {
	t.frames = t.frames[:0]
}

// Len is the number of recorded ticks.
func (t *Trace) Len() int {
	return len(t.frames)
}

// Frames returns the recorded frames in tick order.
func (t *Trace) Frames() []engine.Frame {
	return t.frames
}

// Times returns the run clock of every recorded tick.
func (t *Trace) Times() []float64 {
	out := make([]float64, len(t.frames))
	for i, f := range t.frames {
		out[i] = f.Time
	}
	return out
}

// Kinds returns the surface kinds present in the trace, in frame order.
func (t *Trace) Kinds() []surface.Kind {
	if len(t.frames) == 0 {
		return nil
	}
	out := make([]surface.Kind, 0, len(t.frames[0].Bodies))
	for _, v := range t.frames[0].Bodies {
		out = append(out, v.Surface)
	}
	return out
}

// Positions extracts the position series for one surface.
func (t *Trace) Positions(kind surface.Kind) []float64 {
	return t.series(kind, func(v engine.View) float64 { return v.Position })
}

// Velocities extracts the velocity series for one surface.
func (t *Trace) Velocities(kind surface.Kind) []float64 {
	return t.series(kind, func(v engine.View) float64 { return v.Velocity })
}

func (t *Trace) series(kind surface.Kind, field func(engine.View) float64) []float64 {
	out := make([]float64, 0, len(t.frames))
	for _, f := range t.frames {
		for _, v := range f.Bodies {
			if v.Surface == kind {
				out = append(out, field(v))
				break
			}
		}
	}
	return out
}
