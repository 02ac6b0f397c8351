// Package engine advances rigid bodies sliding on friction surfaces
// through a discrete tick state machine until every body has either
// reached the target distance or been halted by friction.
//
// The engine owns one Body per registered surface and mutates nothing
// else. Friction coefficients are re-read from the surface registry on
// every tick, so a coefficient adjustment between runs takes effect
// without rebuilding the engine. The caller owns the clock: each TickAll
// call advances the whole field by one dt and no tick starts before the
// previous one finished.
package engine

import "github.com/san-kum/fricsim/internal/surface"

// Engine steps every body-surface pairing through the friction state
// machine.
type Engine struct {
	reg    *surface.Registry
	params Params
	bodies map[surface.Kind]*Body
	order  []surface.Kind
}

// New builds an engine with one fresh body per surface registered in reg,
// all starting stationary at position zero.
func New(reg *surface.Registry, p Params) *Engine {
	e := &Engine{
		reg:    reg,
		params: p,
		bodies: make(map[surface.Kind]*Body),
	}
	for _, k := range reg.Kinds() {
		e.bodies[k] = &Body{Surface: k}
		e.order = append(e.order, k)
	}
	return e
}

// TickAll advances every non-arrived body by dt. Bodies are mutually
// independent; iteration follows registry order but no caller may depend
// on it.
func (e *Engine) TickAll(dt float64) {
	for _, prof := range e.reg.All() {
		b, ok := e.bodies[prof.Kind]
		if !ok || b.Status == Arrived {
			continue
		}
		Advance(b, prof, e.params, dt)
	}
}

// IsComplete reports whether every body has arrived.
func (e *Engine) IsComplete() bool {
	for _, b := range e.bodies {
		if b.Status != Arrived {
			return false
		}
	}
	return true
}

// AnyMoving reports whether any body is currently in motion. Friction
// adjustments are only legal while this is false.
func (e *Engine) AnyMoving() bool {
	for _, b := range e.bodies {
		if b.Status == Moving {
			return true
		}
	}
	return false
}

// Reset returns every body to its initial stationary state, keeping the
// current params.
func (e *Engine) Reset() {
	for _, k := range e.order {
		e.bodies[k] = &Body{Surface: k}
	}
}

// Bodies returns value copies of every body in registry order.
func (e *Engine) Bodies() []Body {
	out := make([]Body, 0, len(e.order))
	for _, k := range e.order {
		out = append(out, *e.bodies[k])
	}
	return out
}

// Body returns a copy of the body for kind.
func (e *Engine) Body(kind surface.Kind) (Body, bool) {
	b, ok := e.bodies[kind]
	if !ok {
		return Body{}, false
	}
	return *b, true
}

// Params returns the run parameters the engine was built with.
func (e *Engine) Params() Params {
	return e.params
}

// Results derives the per-body run summary from current state. The static
// ceiling is recomputed from the live registry profile rather than stored,
// so it always reflects the latest coefficient adjustments.
func (e *Engine) Results() []Result {
	out := make([]Result, 0, len(e.order))
	for _, prof := range e.reg.All() {
		b, ok := e.bodies[prof.Kind]
		if !ok {
			continue
		}
		out = append(out, Result{
			Surface:       b.Surface,
			Finished:      b.Position >= e.params.TargetDistance,
			Elapsed:       b.Elapsed,
			Position:      b.Position,
			FinalVelocity: b.Velocity,
			EverMoved:     b.Status != Stationary,
			StaticCeiling: StaticCeiling(prof, e.params.Mass),
		})
	}
	return out
}
