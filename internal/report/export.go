package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/fricsim/internal/config"
	"github.com/san-kum/fricsim/internal/engine"
	"github.com/san-kum/fricsim/internal/surface"
)

// WriteCSV streams the trace as one row per tick: the run clock followed
// by position, velocity, acceleration, friction, applied force, and
// status for every surface.
func WriteCSV(w io.Writer, tr *Trace) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	kinds := tr.Kinds()
	header := []string{"time"}
	for _, kind := range kinds {
		header = append(header,
			fmt.Sprintf("%s_position", kind),
			fmt.Sprintf("%s_velocity", kind),
			fmt.Sprintf("%s_acceleration", kind),
			fmt.Sprintf("%s_friction", kind),
			fmt.Sprintf("%s_applied", kind),
			fmt.Sprintf("%s_status", kind),
		)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, f := range tr.Frames() {
		row := []string{strconv.FormatFloat(f.Time, 'f', 6, 64)}
		for _, v := range f.Bodies {
			row = append(row,
				strconv.FormatFloat(v.Position, 'f', 6, 64),
				strconv.FormatFloat(v.Velocity, 'f', 6, 64),
				strconv.FormatFloat(v.Acceleration, 'f', 6, 64),
				strconv.FormatFloat(v.Friction, 'f', 6, 64),
				strconv.FormatFloat(v.Applied, 'f', 6, 64),
				v.Status.String(),
			)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Export bundles everything a downstream consumer needs from one
// finished run. Frames may be nil when only the summary matters.
type Export struct {
	RunID    string            `json:"run_id"`
	Params   config.Params     `json:"params"`
	Surfaces []surface.Profile `json:"surfaces"`
	Results  []engine.Result   `json:"results"`
	Ticks    int               `json:"ticks"`
	Frames   []engine.Frame    `json:"frames,omitempty"`
}

// WriteJSON writes the export document with indentation, ready for the
// chart layer or the explanation generator to consume.
func WriteJSON(w io.Writer, ex Export) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ex)
}
