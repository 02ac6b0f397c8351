package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fricsim/internal/force"
)

const (
	DefaultDt     = 0.01
	DefaultMass   = 10.0
	DefaultTarget = 100.0
	DefaultForce  = 150.0

	MinMass  = 1.0
	MaxMass  = 1000.0
	MinForce = 0.0
	MaxForce = 2000.0
)

// ErrOutOfRange indicates a run parameter outside its legal bounds.
var ErrOutOfRange = errors.New("config: parameter out of range")

// Params are the run parameters shared by every body. They are frozen for
// the duration of one run; starting a new run with different params resets
// all body states.
type Params struct {
	Mass           float64 `yaml:"mass" json:"mass"`
	TargetDistance float64 `yaml:"target_distance" json:"target_distance"`
	AppliedForce   float64 `yaml:"applied_force" json:"applied_force"`
	Mode           string  `yaml:"mode" json:"mode"`
	ModeDuration   float64 `yaml:"mode_duration" json:"mode_duration,omitempty"`
	ModeDistance   float64 `yaml:"mode_distance" json:"mode_distance,omitempty"`
	Dt             float64 `yaml:"dt" json:"dt"`
}

func DefaultParams() *Params {
	return &Params{
		Mass:           DefaultMass,
		TargetDistance: DefaultTarget,
		AppliedForce:   DefaultForce,
		Mode:           string(force.Continuous),
		Dt:             DefaultDt,
	}
}

func Load(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := DefaultParams()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, err
	}
	return p, nil
}

func Save(path string, p *Params) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects params that must never reach the tick loop: non-finite
// values, bounds violations, unknown modes, and unusable mode parameters.
func (p *Params) Validate() error {
	for name, v := range map[string]float64{
		"mass":            p.Mass,
		"target_distance": p.TargetDistance,
		"applied_force":   p.AppliedForce,
		"dt":              p.Dt,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrOutOfRange, name)
		}
	}
	if p.Mass < MinMass || p.Mass > MaxMass {
		return fmt.Errorf("%w: mass %g kg outside [%g, %g]", ErrOutOfRange, p.Mass, MinMass, MaxMass)
	}
	if p.TargetDistance <= 0 {
		return fmt.Errorf("%w: target distance must be positive, got %g", ErrOutOfRange, p.TargetDistance)
	}
	if p.AppliedForce < MinForce || p.AppliedForce > MaxForce {
		return fmt.Errorf("%w: applied force %g N outside [%g, %g]", ErrOutOfRange, p.AppliedForce, MinForce, MaxForce)
	}
	if p.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrOutOfRange, p.Dt)
	}
	sched, err := p.Schedule()
	if err != nil {
		return err
	}
	return sched.Validate()
}

// Schedule builds the force schedule described by Mode and its parameter.
func (p *Params) Schedule() (force.Schedule, error) {
	mode, err := force.ParseMode(p.Mode)
	if err != nil {
		return force.Schedule{}, err
	}
	return force.Schedule{
		Mode:     mode,
		Duration: p.ModeDuration,
		Distance: p.ModeDistance,
	}, nil
}

// Clamp returns a copy with every bounded field pulled to its nearest legal
// bound and every unusable field replaced by its default. Interactive entry
// surfaces clamp instead of rejecting so the edit loop always holds valid
// params; Validate stays the gate for everything else.
func (p *Params) Clamp() *Params {
	out := *p

	out.Mass = clampFinite(out.Mass, MinMass, MaxMass, DefaultMass)
	out.AppliedForce = clampFinite(out.AppliedForce, MinForce, MaxForce, DefaultForce)

	if math.IsNaN(out.TargetDistance) || math.IsInf(out.TargetDistance, 0) || out.TargetDistance <= 0 {
		out.TargetDistance = DefaultTarget
	}
	if math.IsNaN(out.Dt) || math.IsInf(out.Dt, 0) || out.Dt <= 0 {
		out.Dt = DefaultDt
	}
	if _, err := force.ParseMode(out.Mode); err != nil {
		out.Mode = string(force.Continuous)
	}
	if out.Mode == string(force.Timed) &&
		(math.IsNaN(out.ModeDuration) || math.IsInf(out.ModeDuration, 0) || out.ModeDuration <= 0) {
		out.ModeDuration = 1.0
	}
	if out.Mode == string(force.DistanceLimited) &&
		(math.IsNaN(out.ModeDistance) || math.IsInf(out.ModeDistance, 0) || out.ModeDistance <= 0) {
		out.ModeDistance = out.TargetDistance / 2
	}
	return &out
}

func clampFinite(v, min, max, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
