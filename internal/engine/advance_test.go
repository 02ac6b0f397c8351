package engine

import (
	"math"
	"testing"

	"github.com/san-kum/fricsim/internal/force"
	"github.com/san-kum/fricsim/internal/surface"
)

const dt = 0.01

func woodProfile(t *testing.T) surface.Profile {
	t.Helper()
	p, err := surface.NewRegistry().Get(surface.Wood)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func continuousParams(mass, target, applied float64) Params {
	return Params{
		Mass:           mass,
		TargetDistance: target,
		AppliedForce:   applied,
		Schedule:       force.Schedule{Mode: force.Continuous},
	}
}

func TestForceBalanceNumbers(t *testing.T) {
	prof := woodProfile(t)
	p := continuousParams(10, 500, 150)

	normal := p.Mass * Gravity
	if math.Abs(normal-98.1) > 1e-9 {
		t.Errorf("normal force = %g, want 98.1", normal)
	}
	if got := StaticCeiling(prof, p.Mass); math.Abs(got-39.24) > 1e-9 {
		t.Errorf("static ceiling = %g, want 39.24", got)
	}
	if got := KineticFriction(prof, p.Mass); math.Abs(got-29.43) > 1e-9 {
		t.Errorf("kinetic friction = %g, want 29.43", got)
	}
}

func TestBreakawayIsImmediate(t *testing.T) {
	prof := woodProfile(t)
	p := continuousParams(10, 500, 150)
	b := &Body{Surface: surface.Wood}

	Advance(b, prof, p, dt)

	if b.Status != Moving {
		t.Fatalf("status = %v, want moving", b.Status)
	}
	if math.Abs(b.Acceleration-12.057) > 1e-9 {
		t.Errorf("acceleration = %g, want 12.057", b.Acceleration)
	}
	if math.Abs(b.Velocity-12.057*dt) > 1e-9 {
		t.Errorf("velocity = %g, want %g", b.Velocity, 12.057*dt)
	}
	if b.Position <= 0 {
		t.Errorf("position = %g, want > 0 after the first moving tick", b.Position)
	}
	if math.Abs(b.Elapsed-dt) > 1e-12 {
		t.Errorf("elapsed = %g, want %g", b.Elapsed, dt)
	}
	if math.Abs(b.Friction-29.43) > 1e-9 {
		t.Errorf("friction = %g, want kinetic 29.43", b.Friction)
	}
	if b.Applied != 150 {
		t.Errorf("applied = %g, want 150", b.Applied)
	}
}

func TestExactThresholdDoesNotMove(t *testing.T) {
	prof := woodProfile(t)
	// Build the push from the same expression the breakaway test uses so
	// the comparison is bitwise equal, not merely close.
	applied := prof.Static * 10 * Gravity
	p := continuousParams(10, 500, applied)
	b := &Body{Surface: surface.Wood}

	for i := 0; i < 100; i++ {
		Advance(b, prof, p, dt)
	}

	if b.Status != Stationary {
		t.Fatalf("push equal to the static ceiling moved the body: status = %v", b.Status)
	}
	if b.Position != 0 || b.Velocity != 0 || b.Elapsed != 0 {
		t.Errorf("stationary body changed kinematics: %+v", b)
	}
	if math.Abs(b.Friction-applied) > 1e-12 {
		t.Errorf("static friction = %g, want %g (balances the push)", b.Friction, applied)
	}
}

func TestJustAboveThresholdMoves(t *testing.T) {
	prof := woodProfile(t)
	applied := prof.Static*10*Gravity + 1e-9
	p := continuousParams(10, 500, applied)
	b := &Body{Surface: surface.Wood}

	Advance(b, prof, p, dt)

	if b.Status != Moving {
		t.Errorf("push just above the static ceiling did not move the body: status = %v", b.Status)
	}
}

func TestInsufficientPushHoldsForever(t *testing.T) {
	prof := woodProfile(t)
	p := continuousParams(10, 500, 30)
	b := &Body{Surface: surface.Wood}

	for i := 0; i < 1000; i++ {
		Advance(b, prof, p, dt)
	}

	if b.Status != Stationary {
		t.Fatalf("status = %v, want stationary", b.Status)
	}
	if b.Friction != 30 {
		t.Errorf("friction = %g, want 30 (static friction balances the push)", b.Friction)
	}
	if b.Elapsed != 0 {
		t.Errorf("elapsed = %g, want 0 while stationary", b.Elapsed)
	}
}

func TestZeroPushReportsZeroFriction(t *testing.T) {
	prof := woodProfile(t)
	p := continuousParams(10, 500, 0)
	b := &Body{Surface: surface.Wood}

	for i := 0; i < 10; i++ {
		Advance(b, prof, p, dt)
	}

	if b.Status != Stationary || b.Friction != 0 || b.Applied != 0 {
		t.Errorf("zero push: %+v, want stationary with zero friction", b)
	}
}

func TestFrictionHaltsCoastingBody(t *testing.T) {
	prof := woodProfile(t)
	p := continuousParams(10, 500, 0)
	b := &Body{
		Surface:  surface.Wood,
		Status:   Moving,
		Velocity: 0.1,
		Position: 3,
		Elapsed:  2,
	}

	var lastPos, lastElapsed float64
	for i := 0; i < 1000 && b.Status != Arrived; i++ {
		lastPos, lastElapsed = b.Position, b.Elapsed
		Advance(b, prof, p, dt)
		if b.Velocity < 0 {
			t.Fatalf("velocity went negative: %g", b.Velocity)
		}
	}

	if b.Status != Arrived {
		t.Fatal("coasting body never halted")
	}
	if b.Velocity != 0 || b.Acceleration != 0 {
		t.Errorf("halted body: velocity = %g, acceleration = %g, want 0", b.Velocity, b.Acceleration)
	}
	if b.Friction != 0 || b.Applied != 0 {
		t.Errorf("halted body: friction = %g, applied = %g, want 0", b.Friction, b.Applied)
	}
	if b.Position != lastPos {
		t.Errorf("halting tick advanced position: %g -> %g", lastPos, b.Position)
	}
	if b.Elapsed != lastElapsed {
		t.Errorf("halting tick advanced elapsed: %g -> %g", lastElapsed, b.Elapsed)
	}
}

func TestArrivalClampsToTargetExactly(t *testing.T) {
	prof := woodProfile(t)
	p := continuousParams(10, 500, 150)
	b := &Body{
		Surface:  surface.Wood,
		Status:   Moving,
		Velocity: 80,
		Position: 499.9,
		Elapsed:  40,
	}

	Advance(b, prof, p, dt)

	if b.Status != Arrived {
		t.Fatalf("status = %v, want arrived", b.Status)
	}
	if b.Position != 500 {
		t.Errorf("position = %g, want exactly 500", b.Position)
	}
	if b.Velocity <= 0 {
		t.Errorf("velocity = %g, want the arrival speed preserved", b.Velocity)
	}
}

func TestArrivedIsTerminal(t *testing.T) {
	prof := woodProfile(t)
	p := continuousParams(10, 500, 150)
	b := &Body{
		Surface:  surface.Wood,
		Status:   Arrived,
		Position: 500,
		Velocity: 77.3,
		Elapsed:  12.5,
	}
	before := *b

	for i := 0; i < 100; i++ {
		Advance(b, prof, p, dt)
	}

	if *b != before {
		t.Errorf("arrived body mutated:\n before %+v\n after  %+v", before, *b)
	}
}

func TestPositionMonotonicAndBounded(t *testing.T) {
	prof := woodProfile(t)
	p := continuousParams(10, 50, 150)
	b := &Body{Surface: surface.Wood}

	prev := 0.0
	for i := 0; i < 100000 && b.Status != Arrived; i++ {
		Advance(b, prof, p, dt)
		if b.Position < prev {
			t.Fatalf("position decreased: %g -> %g", prev, b.Position)
		}
		if b.Position > p.TargetDistance {
			t.Fatalf("position %g exceeded target %g", b.Position, p.TargetDistance)
		}
		prev = b.Position
	}
	if b.Status != Arrived {
		t.Fatal("body never arrived")
	}
}

func TestTimedPushDeceleratesToHalt(t *testing.T) {
	prof := woodProfile(t)
	p := Params{
		Mass:           10,
		TargetDistance: 500,
		AppliedForce:   150,
		Schedule:       force.Schedule{Mode: force.Timed, Duration: 1.0},
	}
	b := &Body{Surface: surface.Wood}

	var peakVelocity, positionAtCutoff float64
	for i := 0; i < 100000 && b.Status != Arrived; i++ {
		Advance(b, prof, p, dt)
		if b.Velocity > peakVelocity {
			peakVelocity = b.Velocity
		}
		if b.Elapsed <= 1.0 {
			positionAtCutoff = b.Position
		}
	}

	if b.Status != Arrived {
		t.Fatal("body never halted")
	}
	if b.Velocity != 0 {
		t.Errorf("final velocity = %g, want 0", b.Velocity)
	}
	if b.Position <= positionAtCutoff {
		t.Errorf("body stopped at %g, want past the cutoff position %g", b.Position, positionAtCutoff)
	}
	if b.Position >= p.TargetDistance {
		t.Errorf("body reached the target at %g, want a mid-track halt", b.Position)
	}
	if peakVelocity <= 0 {
		t.Error("body never gained speed")
	}
	if b.Elapsed <= 1.0 {
		t.Errorf("elapsed = %g, want time accrued past the force cutoff", b.Elapsed)
	}
}
