// Package driver is the run-control surface in front of the simulation
// engine: configure, start, tick, reset, adjust friction, run to
// completion. It owns the run clock and the run identity; the engine
// underneath owns only the per-body physics.
//
// A Driver is NOT safe for concurrent use. Every caller (CLI, TUI,
// stream loop) drives it from a single goroutine; the stream server
// serializes commands through its own loop before they reach the driver.
package driver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/san-kum/fricsim/internal/config"
	"github.com/san-kum/fricsim/internal/engine"
	"github.com/san-kum/fricsim/internal/surface"
)

// ErrInvalidState indicates a run-control operation invoked in a state
// that forbids it, such as reconfiguring mid-run.
var ErrInvalidState = errors.New("driver: operation not allowed in current run state")

// MaxTicks caps RunToCompletion so a pathological parameter set (a target
// so far that position increments vanish below float precision) cannot
// spin forever. At the default dt this is several simulated hours.
const MaxTicks = 10_000_000

// Observer receives the frame produced by every tick. The trace recorder
// and the stream broadcaster hook in here.
type Observer interface {
	OnTick(f engine.Frame)
}

// Driver holds one engine, its frozen run parameters, and the run clock.
type Driver struct {
	log       *log.Logger
	reg       *surface.Registry
	params    *config.Params
	sched     engine.Params
	eng       *engine.Engine
	runID     uuid.UUID
	simTime   float64
	ticks     int
	started   bool
	arrived   map[surface.Kind]bool
	observers []Observer
}

// New returns a driver over the given registry. The logger must not be
// nil; pass log.New(io.Discard) for a silent driver.
func New(reg *surface.Registry, logger *log.Logger) *Driver {
	return &Driver{
		log:     logger,
		reg:     reg,
		arrived: make(map[surface.Kind]bool),
	}
}

// AddObserver registers o for every subsequent tick's frame.
func (d *Driver) AddObserver(o Observer) {
	d.observers = append(d.observers, o)
}

// InProgress reports whether a run has been started and not yet finished.
// A stalled run stays in progress until Reset; only completion or an
// explicit reset releases the configuration lock.
func (d *Driver) InProgress() bool {
	return d.started && !d.eng.IsComplete()
}

// Complete reports whether every body of the current run has arrived.
func (d *Driver) Complete() bool {
	return d.eng != nil && d.eng.IsComplete()
}

// Stalled reports whether the current run can never complete on its own:
// at least one tick has run, nothing is moving, and not every body has
// arrived. The remaining bodies are stationary under insufficient force.
func (d *Driver) Stalled() bool {
	return d.started && d.ticks > 0 && !d.eng.AnyMoving() && !d.eng.IsComplete()
}

// Configure validates p, freezes a copy as the run parameters, and builds
// a fresh engine with every body reset. Rejected with ErrInvalidState
// while a run is in progress.
func (d *Driver) Configure(p *config.Params) error {
	if d.eng != nil && d.InProgress() {
		return fmt.Errorf("%w: cannot reconfigure while a run is in progress", ErrInvalidState)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("configure: %w", err)
	}
	sched, err := p.Schedule()
	if err != nil {
		return fmt.Errorf("configure: %w", err)
	}

	cp := *p
	d.params = &cp
	d.sched = engine.Params{
		Mass:           cp.Mass,
		TargetDistance: cp.TargetDistance,
		AppliedForce:   cp.AppliedForce,
		Schedule:       sched,
	}
	d.eng = engine.New(d.reg, d.sched)
	d.started = false
	d.simTime = 0
	d.ticks = 0
	d.arrived = make(map[surface.Kind]bool)

	d.log.Info("configured",
		"mass", cp.Mass, "target", cp.TargetDistance,
		"force", cp.AppliedForce, "mode", cp.Mode, "dt", cp.Dt)
	return nil
}

// Start begins a run under the configured parameters, assigning a fresh
// run identity. All bodies start stationary at position zero.
func (d *Driver) Start() error {
	if d.eng == nil {
		return fmt.Errorf("%w: configure before starting", ErrInvalidState)
	}
	if d.InProgress() {
		return fmt.Errorf("%w: a run is already in progress", ErrInvalidState)
	}
	d.eng.Reset()
	d.started = true
	d.simTime = 0
	d.ticks = 0
	d.arrived = make(map[surface.Kind]bool)
	d.runID = uuid.New()
	d.log.Info("run started", "run_id", d.runID, "surfaces", len(d.reg.Kinds()))
	return nil
}

// Reset abandons the current run and returns every body to its initial
// state. The configured parameters survive; Start begins a new run.
func (d *Driver) Reset() {
	if d.eng != nil {
		d.eng.Reset()
	}
	d.started = false
	d.simTime = 0
	d.ticks = 0
	d.arrived = make(map[surface.Kind]bool)
	d.log.Info("run reset")
}

// Tick advances every non-arrived body by dt and returns the resulting
// frame. Ticking a completed run is a no-op that returns the final frame.
func (d *Driver) Tick(dt float64) (engine.Frame, error) {
	if !d.started {
		return engine.Frame{}, fmt.Errorf("%w: no run in progress", ErrInvalidState)
	}
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt <= 0 {
		return engine.Frame{}, fmt.Errorf("driver: dt must be positive and finite, got %g", dt)
	}
	if d.eng.IsComplete() {
		return d.eng.Snapshot(d.simTime), nil
	}

	d.eng.TickAll(dt)
	d.simTime += dt
	d.ticks++

	f := d.eng.Snapshot(d.simTime)
	d.logArrivals(f)
	for _, o := range d.observers {
		o.OnTick(f)
	}
	return f, nil
}

func (d *Driver) logArrivals(f engine.Frame) {
	for _, v := range f.Bodies {
		if v.Status != engine.Arrived || d.arrived[v.Surface] {
			continue
		}
		d.arrived[v.Surface] = true
		if v.Position >= d.sched.TargetDistance {
			d.log.Info("body finished", "surface", v.Surface,
				"elapsed", v.Elapsed, "velocity", v.Velocity)
		} else {
			d.log.Info("body halted short of target", "surface", v.Surface,
				"position", v.Position, "elapsed", v.Elapsed)
		}
	}
}

// RunToCompletion ticks at the configured dt until every body arrives,
// the run stalls permanently, ctx is canceled, or MaxTicks is exceeded.
// A permanent stall is a normal outcome: the remaining bodies are
// stationary under a push their static friction absorbs, so the method
// returns their did-not-finish results without error.
func (d *Driver) RunToCompletion(ctx context.Context) ([]engine.Result, error) {
	if !d.started {
		return nil, fmt.Errorf("%w: no run in progress", ErrInvalidState)
	}
	dt := d.params.Dt
	for !d.eng.IsComplete() {
		select {
		case <-ctx.Done():
			return d.eng.Results(), ctx.Err()
		default:
		}
		if _, err := d.Tick(dt); err != nil {
			return d.eng.Results(), err
		}
		if d.Stalled() {
			d.log.Warn("run stalled: remaining bodies held by static friction",
				"t", d.simTime)
			break
		}
		if d.ticks >= MaxTicks {
			return d.eng.Results(), fmt.Errorf("driver: run exceeded %d ticks at t=%.2f without completing", MaxTicks, d.simTime)
		}
	}
	return d.eng.Results(), nil
}

// AdjustFriction sets a surface's kinetic coefficient through the
// registry. Permitted only while no body is moving; the next run (or the
// next tick of a stationary field) sees the new coefficients.
func (d *Driver) AdjustFriction(kind surface.Kind, kinetic float64) error {
	if d.eng != nil && d.eng.AnyMoving() {
		return fmt.Errorf("%w: friction is locked while bodies are moving", ErrInvalidState)
	}
	if err := d.reg.AdjustKinetic(kind, kinetic); err != nil {
		return err
	}
	prof, err := d.reg.Get(kind)
	if err != nil {
		return err
	}
	d.log.Info("friction adjusted", "surface", kind,
		"kinetic", prof.Kinetic, "static", prof.Static)
	return nil
}

// Frame returns the current snapshot without advancing time.
func (d *Driver) Frame() engine.Frame {
	if d.eng == nil {
		return engine.Frame{}
	}
	return d.eng.Snapshot(d.simTime)
}

// Results derives the per-body summaries for the current state.
func (d *Driver) Results() []engine.Result {
	if d.eng == nil {
		return nil
	}
	return d.eng.Results()
}

// Params returns a copy of the configured run parameters, or nil before
// the first Configure.
func (d *Driver) Params() *config.Params {
	if d.params == nil {
		return nil
	}
	cp := *d.params
	return &cp
}

// Registry exposes the surface registry the driver runs against.
func (d *Driver) Registry() *surface.Registry {
	return d.reg
}

// RunID identifies the current (or most recent) run.
func (d *Driver) RunID() uuid.UUID {
	return d.runID
}

// SimTime is the accumulated run clock: every tick adds dt, whether or
// not any body moved. Per-body elapsed time is the moving-only clock.
func (d *Driver) SimTime() float64 {
	return d.simTime
}
