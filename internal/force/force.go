// Package force implements the applied-force policy: for each tick it
// decides whether the configured push is acting on a body, based on the
// body's elapsed moving time and position.
package force

import (
	"errors"
	"fmt"
	"math"
)

// ImpulseWindow is how long an impulse push stays active, in seconds of
// moving time.
const ImpulseWindow = 0.5

// Mode selects how long or how far the applied force remains active.
type Mode string

const (
	// Continuous keeps the force active for the whole run.
	Continuous Mode = "continuous"
	// Impulse applies the force only for the first ImpulseWindow seconds
	// of moving time.
	Impulse Mode = "impulse"
	// Timed applies the force until the body has been moving for the
	// configured duration.
	Timed Mode = "timed"
	// DistanceLimited applies the force until the body has covered the
	// configured distance.
	DistanceLimited Mode = "distance-limited"
)

// ErrUnknownMode indicates an unrecognized force-mode name.
var ErrUnknownMode = errors.New("force: unknown mode")

// Modes lists all force modes in display order.
func Modes() []Mode {
	return []Mode{Continuous, Impulse, Timed, DistanceLimited}
}

// ParseMode converts a user-supplied string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Continuous, Impulse, Timed, DistanceLimited:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Schedule is a force mode together with its mode-specific parameter.
// The zero Duration/Distance fields are ignored by modes that do not use
// them.
type Schedule struct {
	Mode     Mode
	Duration float64 // seconds, Timed only
	Distance float64 // meters, DistanceLimited only
}

// Validate checks that the mode is known and its parameter is usable.
func (s Schedule) Validate() error {
	switch s.Mode {
	case Continuous, Impulse:
		return nil
	case Timed:
		if math.IsNaN(s.Duration) || math.IsInf(s.Duration, 0) || s.Duration <= 0 {
			return fmt.Errorf("force: timed mode needs a positive duration, got %g", s.Duration)
		}
		return nil
	case DistanceLimited:
		if math.IsNaN(s.Distance) || math.IsInf(s.Distance, 0) || s.Distance <= 0 {
			return fmt.Errorf("force: distance-limited mode needs a positive distance, got %g", s.Distance)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownMode, s.Mode)
}

// Active reports whether the applied force acts on the body this tick.
// elapsed is the body's accumulated moving time; position its current
// distance from the start. Active is pure and is re-evaluated every tick,
// never cached, because both inputs change while the body moves.
func (s Schedule) Active(elapsed, position float64) bool {
	switch s.Mode {
	case Continuous:
		return true
	case Impulse:
		return elapsed < ImpulseWindow
	case Timed:
		return elapsed < s.Duration
	case DistanceLimited:
		return position < s.Distance
	}
	return false
}

// Describe returns a short human-readable summary of the schedule for
// display surfaces.
func (s Schedule) Describe() string {
	switch s.Mode {
	case Continuous:
		return "continuous push"
	case Impulse:
		return fmt.Sprintf("impulse push (%.1fs window)", ImpulseWindow)
	case Timed:
		return fmt.Sprintf("timed push (%.2fs)", s.Duration)
	case DistanceLimited:
		return fmt.Sprintf("push until %.1fm", s.Distance)
	}
	return string(s.Mode)
}
