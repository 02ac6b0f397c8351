package engine

import (
	"encoding/json"
	"fmt"

	"github.com/san-kum/fricsim/internal/surface"
)

// Status is a body's place in the Stationary → Moving → Arrived machine.
// Arrived is terminal; there is no path back to Stationary once the body
// breaks away.
type Status int

const (
	Stationary Status = iota
	Moving
	Arrived
)

func (s Status) String() string {
	switch s {
	case Stationary:
		return "stationary"
	case Moving:
		return "moving"
	case Arrived:
		return "arrived"
	}
	return "unknown"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "stationary":
		*s = Stationary
	case "moving":
		*s = Moving
	case "arrived":
		*s = Arrived
	default:
		return fmt.Errorf("engine: unknown status %q", name)
	}
	return nil
}

// Body is the kinematic state of one mass on one surface. All fields are
// mutated exclusively by Advance; everything handed out by the engine is a
// value copy.
type Body struct {
	Surface      surface.Kind `json:"surface"`
	Position     float64      `json:"position"`     // m, non-decreasing, never past the target
	Velocity     float64      `json:"velocity"`     // m/s, never negative
	Acceleration float64      `json:"acceleration"` // m/s², signed
	Elapsed      float64      `json:"elapsed"`      // s, accrues only while Moving
	Status       Status       `json:"status"`
	Friction     float64      `json:"friction"` // N, resisting force this tick
	Applied      float64      `json:"applied"`  // N, push actually exerted this tick
}

// Result is the per-body summary derived once a run is over. Finished
// distinguishes reaching the target from halting short of it; consumers
// must treat an unfinished body's elapsed time as "did not finish" rather
// than a real finishing time.
type Result struct {
	Surface       surface.Kind `json:"surface"`
	Finished      bool         `json:"finished"`
	Elapsed       float64      `json:"elapsed"`
	Position      float64      `json:"position"`
	FinalVelocity float64      `json:"final_velocity"`
	EverMoved     bool         `json:"ever_moved"`
	StaticCeiling float64      `json:"static_ceiling"`
}
