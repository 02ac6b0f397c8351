// Package surface holds the friction profiles the simulation runs against.
//
// A [Profile] carries the static and kinetic friction coefficients for one
// surface kind together with the legal adjustment range for the kinetic
// coefficient. The static coefficient is always derived from the kinetic one
// (μs = μk + 0.1, rounded to two decimals) and is never set directly.
package surface

import (
	"errors"
	"fmt"
	"math"
)

// Kind identifies a registered surface.
type Kind string

const (
	Ice     Kind = "ice"
	Wood    Kind = "wood"
	Asphalt Kind = "asphalt"
	Rubber  Kind = "rubber"
)

// Domain errors for registry operations.
var (
	// ErrNotFound indicates an unregistered surface kind.
	ErrNotFound = errors.New("surface: unknown surface")

	// ErrOutOfRange indicates a kinetic coefficient outside the profile's legal range.
	ErrOutOfRange = errors.New("surface: kinetic coefficient out of range")
)

// Profile describes the friction behavior of one surface kind.
type Profile struct {
	Kind       Kind    `json:"kind"`
	Static     float64 `json:"static"`      // μs, derived: Kinetic + 0.1 rounded to 2 decimals
	Kinetic    float64 `json:"kinetic"`     // μk
	MinKinetic float64 `json:"min_kinetic"` // inclusive lower bound for AdjustKinetic
	MaxKinetic float64 `json:"max_kinetic"` // inclusive upper bound for AdjustKinetic
}

// deriveStatic keeps μs a fixed 0.1 above μk, rounded to two decimals.
func deriveStatic(kinetic float64) float64 {
	return math.Round((kinetic+0.1)*100) / 100
}

// Registry is the single source of truth for friction coefficients.
// Callers must not cache coefficients across an AdjustKinetic call; the
// engine re-reads the registry on every tick.
type Registry struct {
	profiles map[Kind]*Profile
	order    []Kind
}

// NewRegistry returns a registry populated with the built-in surfaces.
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[Kind]*Profile)}
	r.register(Ice, 0.05, 0.01, 0.15)
	r.register(Wood, 0.30, 0.10, 0.50)
	r.register(Asphalt, 0.55, 0.30, 0.80)
	r.register(Rubber, 0.70, 0.50, 0.90)
	return r
}

func (r *Registry) register(kind Kind, kinetic, min, max float64) {
	r.profiles[kind] = &Profile{
		Kind:       kind,
		Static:     deriveStatic(kinetic),
		Kinetic:    kinetic,
		MinKinetic: min,
		MaxKinetic: max,
	}
	r.order = append(r.order, kind)
}

// Get returns a copy of the current profile for kind.
func (r *Registry) Get(kind Kind) (Profile, error) {
	p, ok := r.profiles[kind]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrNotFound, kind)
	}
	return *p, nil
}

// AdjustKinetic sets μk for kind and re-derives μs. The adjustment is
// atomic: a value outside [MinKinetic, MaxKinetic] fails with ErrOutOfRange
// and leaves the profile untouched.
func (r *Registry) AdjustKinetic(kind Kind, kinetic float64) error {
	p, ok := r.profiles[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, kind)
	}
	if math.IsNaN(kinetic) || kinetic < p.MinKinetic || kinetic > p.MaxKinetic {
		return fmt.Errorf("%w: %q μk=%g legal range [%g, %g]",
			ErrOutOfRange, kind, kinetic, p.MinKinetic, p.MaxKinetic)
	}
	p.Kinetic = kinetic
	p.Static = deriveStatic(kinetic)
	return nil
}

// Kinds returns the registered surface kinds in registration order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, len(r.order))
	copy(out, r.order)
	return out
}

// All returns copies of every profile in registration order.
func (r *Registry) All() []Profile {
	out := make([]Profile, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, *r.profiles[k])
	}
	return out
}

// Clone returns an independent registry with the same profiles.
// Sweeps run each variation against its own clone so concurrent runs
// never share mutable state.
func (r *Registry) Clone() *Registry {
	c := &Registry{profiles: make(map[Kind]*Profile, len(r.profiles))}
	for _, k := range r.order {
		p := *r.profiles[k]
		c.profiles[k] = &p
		c.order = append(c.order, k)
	}
	return c
}
