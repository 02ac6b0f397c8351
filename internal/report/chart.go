package report

import (
	"fmt"
	"io"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/fricsim/internal/surface"
)

const (
	chartHeight = 8
	chartWidth  = 70
)

// Charts plots the recorded position and velocity series per surface as
// terminal graphs. Surfaces with no recorded motion are skipped; a flat
// zero line says nothing a summary row doesn't.
func Charts(w io.Writer, tr *Trace, kinds []surface.Kind) {
	for _, kind := range kinds {
		pos := tr.Positions(kind)
		if len(pos) < 2 || pos[len(pos)-1] == 0 {
			continue
		}
		fmt.Fprintln(w, asciigraph.Plot(pos,
			asciigraph.Height(chartHeight),
			asciigraph.Width(chartWidth),
			asciigraph.Caption(fmt.Sprintf("%s — position (m)", kind)),
		))
		fmt.Fprintln(w)
		fmt.Fprintln(w, asciigraph.Plot(tr.Velocities(kind),
			asciigraph.Height(chartHeight),
			asciigraph.Width(chartWidth),
			asciigraph.Caption(fmt.Sprintf("%s — velocity (m/s)", kind)),
		))
		fmt.Fprintln(w)
	}
}
