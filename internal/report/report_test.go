package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/san-kum/fricsim/internal/config"
	"github.com/san-kum/fricsim/internal/engine"
	"github.com/san-kum/fricsim/internal/force"
	"github.com/san-kum/fricsim/internal/surface"
)

// recordRun drives a short run directly against the engine and records
// every snapshot, the way the driver's observer hook does.
func recordRun(t *testing.T, applied float64, ticks int) (*Trace, *surface.Registry, []engine.Result) {
	t.Helper()
	reg := surface.NewRegistry()
	e := engine.New(reg, engine.Params{
		Mass:           10,
		TargetDistance: 50,
		AppliedForce:   applied,
		Schedule:       force.Schedule{Mode: force.Continuous},
	})

	tr := NewTrace()
	clock := 0.0
	for i := 0; i < ticks && !e.IsComplete(); i++ {
		e.TickAll(0.01)
		clock += 0.01
		tr.OnTick(e.Snapshot(clock))
	}
	return tr, reg, e.Results()
}

func TestTraceSeries(t *testing.T) {
	tr, reg, _ := recordRun(t, 150, 100)

	if tr.Len() != 100 {
		t.Fatalf("trace holds %d frames, want 100", tr.Len())
	}
	if got := len(tr.Kinds()); got != len(reg.Kinds()) {
		t.Fatalf("trace sees %d surfaces, want %d", got, len(reg.Kinds()))
	}

	times := tr.Times()
	pos := tr.Positions(surface.Wood)
	vel := tr.Velocities(surface.Wood)
	if len(pos) != tr.Len() || len(vel) != tr.Len() {
		t.Fatalf("series lengths %d/%d, want %d", len(pos), len(vel), tr.Len())
	}
	for i := 1; i < len(pos); i++ {
		if times[i] <= times[i-1] {
			t.Fatalf("times not increasing at %d", i)
		}
		if pos[i] < pos[i-1] {
			t.Fatalf("wood position decreased at %d: %g -> %g", i, pos[i-1], pos[i])
		}
	}
	if pos[len(pos)-1] <= 0 {
		t.Error("wood never moved at 150 N")
	}
}

func TestTraceReset(t *testing.T) {
	tr, _, _ := recordRun(t, 150, 10)
	tr.Reset()
	if tr.Len() != 0 {
		t.Errorf("reset trace holds %d frames", tr.Len())
	}
	if tr.Kinds() != nil {
		t.Error("reset trace still reports surfaces")
	}
}

func TestSummary(t *testing.T) {
	_, _, results := recordRun(t, 35, 5000)

	p := config.DefaultParams()
	p.AppliedForce = 35
	p.TargetDistance = 50

	var buf bytes.Buffer
	if err := Summary(&buf, p, results); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	// 35 N moves only ice; the rest never leave the start.
	if !strings.Contains(out, "finished") {
		t.Errorf("summary missing a finished row:\n%s", out)
	}
	if !strings.Contains(out, "never moved") {
		t.Errorf("summary missing a never-moved row:\n%s", out)
	}
	if !strings.Contains(out, DNF) {
		t.Errorf("summary missing the DNF sentinel:\n%s", out)
	}
	for _, kind := range []surface.Kind{surface.Ice, surface.Wood, surface.Asphalt, surface.Rubber} {
		if !strings.Contains(out, string(kind)) {
			t.Errorf("summary missing surface %s:\n%s", kind, out)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	tr, reg, _ := recordRun(t, 150, 50)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, tr); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != tr.Len()+1 {
		t.Fatalf("csv holds %d rows, want %d", len(records), tr.Len()+1)
	}
	wantCols := 1 + len(reg.Kinds())*6
	if len(records[0]) != wantCols {
		t.Fatalf("csv header has %d columns, want %d", len(records[0]), wantCols)
	}
	if records[0][0] != "time" {
		t.Errorf("first column = %q, want time", records[0][0])
	}

	firstTime, err := strconv.ParseFloat(records[1][0], 64)
	if err != nil {
		t.Fatal(err)
	}
	if firstTime != 0.01 {
		t.Errorf("first row time = %g, want 0.01", firstTime)
	}
	if got := records[1][6]; got != "moving" {
		t.Errorf("first surface status = %q, want moving", got)
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	tr, reg, results := recordRun(t, 150, 50)

	p := config.DefaultParams()
	ex := Export{
		RunID:    "test-run",
		Params:   *p,
		Surfaces: reg.All(),
		Results:  results,
		Ticks:    tr.Len(),
		Frames:   tr.Frames(),
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, ex); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["run_id"] != "test-run" {
		t.Errorf("run_id = %v", decoded["run_id"])
	}
	if got := len(decoded["results"].([]any)); got != len(results) {
		t.Errorf("decoded %d results, want %d", got, len(results))
	}
	if got := len(decoded["frames"].([]any)); got != tr.Len() {
		t.Errorf("decoded %d frames, want %d", got, tr.Len())
	}
}

func TestCharts(t *testing.T) {
	tr, reg, _ := recordRun(t, 150, 100)

	var buf bytes.Buffer
	Charts(&buf, tr, reg.Kinds())
	out := buf.String()
	if !strings.Contains(out, "wood — position (m)") {
		t.Errorf("charts missing wood position caption:\n%s", out)
	}
	if !strings.Contains(out, "ice — velocity (m/s)") {
		t.Errorf("charts missing ice velocity caption:\n%s", out)
	}
}

func TestChartsSkipStalledSurfaces(t *testing.T) {
	// 35 N moves only ice; the other surfaces' flat zero series are
	// omitted.
	tr, reg, _ := recordRun(t, 35, 100)

	var buf bytes.Buffer
	Charts(&buf, tr, reg.Kinds())
	out := buf.String()
	if !strings.Contains(out, "ice — position (m)") {
		t.Error("charts skipped the moving surface")
	}
	if strings.Contains(out, "wood — position (m)") {
		t.Error("charts plotted a surface that never moved")
	}
}

func TestSavePlot(t *testing.T) {
	tr, reg, _ := recordRun(t, 150, 100)

	path := filepath.Join(t.TempDir(), "out", "positions.png")
	if err := SavePlot(path, tr, reg.Kinds()); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("plot file is empty")
	}
}

func TestSavePlotEmptyTrace(t *testing.T) {
	if err := SavePlot(filepath.Join(t.TempDir(), "x.png"), NewTrace(), nil); err == nil {
		t.Error("expected an error for an empty trace")
	}
}
