package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/san-kum/fricsim/internal/config"
	"github.com/san-kum/fricsim/internal/engine"
)

// DNF marks a body that never reached the target distance. Consumers
// must treat it as a sentinel distinct from a zero finishing time.
const DNF = "dnf"

// Summary writes the per-surface result table. Finishing time shows the
// moving-only clock; bodies that halted short or never moved show the
// DNF sentinel in the time column with their outcome spelled out.
func Summary(w io.Writer, p *config.Params, results []engine.Result) error {
	fmt.Fprintf(w, "mass %.1f kg, push %.1f N (%s), target %.1f m\n\n",
		p.Mass, p.AppliedForce, p.Mode, p.TargetDistance)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SURFACE\tOUTCOME\tTIME\tDISTANCE\tFINAL SPEED\tSTATIC LIMIT")
	for _, r := range results {
		outcome, finish := describe(r)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2fm\t%.2fm/s\t%.2fN\n",
			r.Surface, outcome, finish, r.Position, r.FinalVelocity, r.StaticCeiling)
	}
	return tw.Flush()
}

func describe(r engine.Result) (outcome, finish string) {
	switch {
	case r.Finished:
		return "finished", fmt.Sprintf("%.2fs", r.Elapsed)
	case r.EverMoved:
		return "halted by friction", DNF
	default:
		return "never moved", DNF
	}
}
