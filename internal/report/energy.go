package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/san-kum/fricsim/internal/engine"
	"github.com/san-kum/fricsim/internal/surface"
)

// Balance is one surface's work-energy tally in joules: what the push
// put in, what friction burned off, and what the body still carries as
// motion. Work covers lost plus kinetic up to integration error.
type Balance struct {
	Work    float64 `json:"work"`
	Lost    float64 `json:"lost"`
	Kinetic float64 `json:"kinetic"`
}

// Residual is the part of the input work the tally cannot place. It
// shrinks with dt; a large residual means frames were dropped.
func (b Balance) Residual() float64 {
	return b.Work - b.Lost - b.Kinetic
}

// EnergyAudit accumulates per-surface balances from the tick frames.
// The forces in a frame are the ones that acted over that frame's
// displacement, so each tick contributes force times distance moved.
// Implements the observer contract, same as Trace.
type EnergyAudit struct {
	mass  float64
	prev  map[surface.Kind]float64
	tally map[surface.Kind]*Balance
}

func NewEnergyAudit(mass float64) *EnergyAudit {
	return &EnergyAudit{
		mass:  mass,
		prev:  make(map[surface.Kind]float64),
		tally: make(map[surface.Kind]*Balance),
	}
}

func (e *EnergyAudit) OnTick(f engine.Frame) {
	for _, v := range f.Bodies {
		bal, ok := e.tally[v.Surface]
		if !ok {
			bal = &Balance{}
			e.tally[v.Surface] = bal
		}
		dx := v.Position - e.prev[v.Surface]
		if dx > 0 {
			bal.Work += v.Applied * dx
			bal.Lost += v.Friction * dx
		}
		bal.Kinetic = 0.5 * e.mass * v.Velocity * v.Velocity
		e.prev[v.Surface] = v.Position
	}
}

// Balance returns the tally for one surface; a body that never moved
// reports the zero balance.
func (e *EnergyAudit) Balance(kind surface.Kind) Balance {
	if bal, ok := e.tally[kind]; ok {
		return *bal
	}
	return Balance{}
}

func (e *EnergyAudit) Reset() {
	e.prev = make(map[surface.Kind]float64)
	e.tally = make(map[surface.Kind]*Balance)
}

// WriteEnergy prints the audit as a table, one row per surface.
func WriteEnergy(w io.Writer, audit *EnergyAudit, kinds []surface.Kind) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SURFACE\tPUSH WORK\tFRICTION LOSS\tKINETIC\tRESIDUAL")
	for _, k := range kinds {
		bal := audit.Balance(k)
		fmt.Fprintf(tw, "%s\t%.1fJ\t%.1fJ\t%.1fJ\t%.1fJ\n",
			k, bal.Work, bal.Lost, bal.Kinetic, bal.Residual())
	}
	return tw.Flush()
}
