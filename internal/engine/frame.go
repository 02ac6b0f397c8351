package engine

// View pairs a body's state with the static-friction ceiling renderers
// display alongside it. The ceiling is derived from the live registry
// profile at snapshot time, never stored on the body.
type View struct {
	Body
	StaticCeiling float64 `json:"static_ceiling"`
}

// Frame is the read-only per-tick snapshot handed to renderers, traces,
// and stream consumers. Mutating a frame has no effect on the engine.
type Frame struct {
	Time     float64 `json:"time"`
	Bodies   []View  `json:"bodies"`
	Complete bool    `json:"complete"`
}

// Snapshot composes the frame for the current body states. The caller
// owns the run clock and passes it in; per-body elapsed time still
// counts only moving time and is carried inside each view.
func (e *Engine) Snapshot(t float64) Frame {
	f := Frame{Time: t, Complete: true}
	for _, prof := range e.reg.All() {
		b, ok := e.bodies[prof.Kind]
		if !ok {
			continue
		}
		if b.Status != Arrived {
			f.Complete = false
		}
		f.Bodies = append(f.Bodies, View{
			Body:          *b,
			StaticCeiling: StaticCeiling(prof, e.params.Mass),
		})
	}
	return f
}
