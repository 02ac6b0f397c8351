package engine

import (
	"github.com/san-kum/fricsim/internal/force"
	"github.com/san-kum/fricsim/internal/surface"
)

// Gravity is the gravitational acceleration used for normal-force
// computation, in m/s².
const Gravity = 9.81

// Params are the frozen run parameters every body shares.
type Params struct {
	Mass           float64        `json:"mass"`
	TargetDistance float64        `json:"target_distance"`
	AppliedForce   float64        `json:"applied_force"`
	Schedule       force.Schedule `json:"-"`
}

// StaticCeiling is the maximum static-friction force for a mass resting
// on prof. A push must strictly exceed it to start motion.
func StaticCeiling(prof surface.Profile, mass float64) float64 {
	return prof.Static * mass * Gravity
}

// KineticFriction is the constant resisting force on a mass sliding
// over prof.
func KineticFriction(prof surface.Profile, mass float64) float64 {
	return prof.Kinetic * mass * Gravity
}

// Advance moves one body forward by dt against the given friction profile.
//
// A stationary body breaks away only when the effective push strictly
// exceeds the static ceiling; a push exactly at the ceiling holds the body
// in place. Breakaway is immediate: the same call integrates the first
// moving step, so elapsed time accrues from the first moving tick and
// never while stationary.
//
// A moving body whose velocity reaches zero while the push no longer beats
// kinetic friction halts for good: velocity and acceleration snap to zero
// and the body arrives wherever it stopped. Halted-short-of-target is
// deliberately terminal; the body is not re-evaluated for re-acceleration.
//
// Threshold comparisons use the raw float64 magnitudes with no epsilon.
func Advance(b *Body, prof surface.Profile, p Params, dt float64) {
	if b.Status == Arrived {
		return
	}

	normal := p.Mass * Gravity
	maxStatic := prof.Static * normal
	kinetic := prof.Kinetic * normal

	applied := 0.0
	if p.Schedule.Active(b.Elapsed, b.Position) {
		applied = p.AppliedForce
	}
	b.Applied = applied

	if b.Status == Stationary {
		if applied <= maxStatic {
			// Static friction balances the push exactly; nothing moves
			// and the mode clocks do not run.
			if applied > 0 {
				b.Friction = applied
			} else {
				b.Friction = 0
			}
			b.Acceleration = 0
			return
		}
		b.Status = Moving
	}

	net := applied - kinetic
	b.Acceleration = net / p.Mass
	b.Velocity += b.Acceleration * dt
	if b.Velocity < 0 {
		b.Velocity = 0
	}
	b.Friction = kinetic

	if b.Velocity <= 0 && applied <= kinetic {
		b.Velocity = 0
		b.Acceleration = 0
		b.Friction = 0
		b.Applied = 0
		b.Status = Arrived
		return
	}

	b.Position += b.Velocity * dt
	b.Elapsed += dt

	if b.Position >= p.TargetDistance {
		b.Position = p.TargetDistance
		b.Acceleration = 0
		b.Friction = 0
		b.Applied = 0
		b.Status = Arrived
	}
}
