package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/fricsim/internal/config"
	"github.com/san-kum/fricsim/internal/driver"
	"github.com/san-kum/fricsim/internal/engine"
	"github.com/san-kum/fricsim/internal/explain"
	"github.com/san-kum/fricsim/internal/report"
	"github.com/san-kum/fricsim/internal/stream"
	"github.com/san-kum/fricsim/internal/surface"
	"github.com/san-kum/fricsim/internal/sweep"
	"github.com/san-kum/fricsim/internal/tui"
)

var (
	mass       float64
	pushForce  float64
	distance   float64
	mode       string
	pushTime   float64
	pushZone   float64
	dt         float64
	configFile string
	preset     string
	muFlags    []string
	showChart  bool
	showEnergy bool
	plotPath   string
	csvPath    string
	jsonPath   string
	doExplain  bool
	explainURL string
	live       bool
	frameRate  int
	verbose    bool
	// Sweep grid
	sweepMin  float64
	sweepMax  float64
	sweepStep float64
	// Stream server
	addr string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fricsim",
		Short: "friction surface race simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to the interactive racer when no command given
			return tui.RunInteractive()
		},
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "race all surfaces to completion",
		Args:  cobra.NoArgs,
		RunE:  runRace,
	}
	runCmd.Flags().Float64Var(&mass, "mass", config.DefaultMass, "body mass in kg")
	runCmd.Flags().Float64Var(&pushForce, "force", config.DefaultForce, "applied push in N")
	runCmd.Flags().Float64Var(&distance, "distance", config.DefaultTarget, "target distance in m")
	runCmd.Flags().StringVar(&mode, "mode", "continuous", "force mode (continuous|impulse|timed|distance-limited)")
	runCmd.Flags().Float64Var(&pushTime, "push-time", 1.0, "push duration in s (timed mode)")
	runCmd.Flags().Float64Var(&pushZone, "push-zone", 50.0, "push zone length in m (distance-limited mode)")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep in s")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().StringArrayVar(&muFlags, "mu", nil, "override kinetic coefficient, surface=value (repeatable)")
	runCmd.Flags().BoolVar(&showChart, "chart", false, "plot position and velocity charts in the terminal")
	runCmd.Flags().BoolVar(&showEnergy, "energy", false, "print the work-energy balance per surface")
	runCmd.Flags().StringVar(&plotPath, "plot", "", "write a position-vs-time PNG to this path")
	runCmd.Flags().StringVar(&csvPath, "csv", "", "write the tick trace as CSV to this path")
	runCmd.Flags().StringVar(&jsonPath, "json", "", "write the full run export as JSON to this path")
	runCmd.Flags().BoolVar(&doExplain, "explain", false, "narrate the results")
	runCmd.Flags().StringVar(&explainURL, "explain-url", "", "explanation service endpoint (empty uses local text)")
	runCmd.Flags().BoolVar(&live, "live", false, "render the race live at wall-clock pace")
	runCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate for the live view")
	runCmd.Flags().BoolVar(&verbose, "verbose", false, "log run events to stderr")

	surfacesCmd := &cobra.Command{
		Use:   "surfaces",
		Short: "list surfaces and their friction numbers",
		Args:  cobra.NoArgs,
		RunE:  listSurfaces,
	}
	surfacesCmd.Flags().Float64Var(&mass, "mass", config.DefaultMass, "mass used for the force columns")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "race the field across a grid of push forces",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 10, "lowest push in N")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 200, "highest push in N")
	sweepCmd.Flags().Float64Var(&sweepStep, "step", 10, "grid step in N")
	sweepCmd.Flags().Float64Var(&mass, "mass", config.DefaultMass, "body mass in kg")
	sweepCmd.Flags().Float64Var(&distance, "distance", config.DefaultTarget, "target distance in m")
	sweepCmd.Flags().StringVar(&mode, "mode", "continuous", "force mode")
	sweepCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep in s")
	sweepCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	sweepCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	sweepCmd.Flags().BoolVar(&showChart, "chart", false, "plot finish times across the grid")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream frames over websockets",
		Args:  cobra.NoArgs,
		RunE:  serveFrames,
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive terminal racer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunInteractive()
		},
	}

	rootCmd.AddCommand(runCmd, surfacesCmd, presetsCmd, sweepCmd, serveCmd, tuiCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildParams resolves the run parameters: preset first, then config
// file, then explicitly set flags on top.
func buildParams(cmd *cobra.Command) (*config.Params, error) {
	p := config.DefaultParams()

	if preset != "" {
		pp := config.GetPreset(preset)
		if pp == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		p = pp
	}

	if configFile != "" {
		pf, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		p = pf
	}

	if cmd.Flags().Changed("mass") {
		p.Mass = mass
	}
	if cmd.Flags().Changed("force") {
		p.AppliedForce = pushForce
	}
	if cmd.Flags().Changed("distance") {
		p.TargetDistance = distance
	}
	if cmd.Flags().Changed("mode") {
		p.Mode = mode
	}
	if cmd.Flags().Changed("push-time") {
		p.ModeDuration = pushTime
	}
	if cmd.Flags().Changed("push-zone") {
		p.ModeDistance = pushZone
	}
	if cmd.Flags().Changed("dt") {
		p.Dt = dt
	}
	return p, nil
}

func newLogger() *log.Logger {
	if verbose {
		return log.New(os.Stderr)
	}
	return log.New(io.Discard)
}

func applyMu(drv *driver.Driver) error {
	for _, arg := range muFlags {
		kv := strings.SplitN(arg, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("bad --mu %q, want surface=value", arg)
		}
		v, err := strconv.ParseFloat(kv[1], 64)
		if err != nil {
			return fmt.Errorf("bad --mu %q: %w", arg, err)
		}
		if err := drv.AdjustFriction(surface.Kind(kv[0]), v); err != nil {
			return err
		}
	}
	return nil
}

func runRace(cmd *cobra.Command, args []string) error {
	p, err := buildParams(cmd)
	if err != nil {
		return err
	}

	logger := newLogger()
	drv := driver.New(surface.NewRegistry(), logger)
	if err := applyMu(drv); err != nil {
		return err
	}
	if err := drv.Configure(p); err != nil {
		return err
	}

	trace := report.NewTrace()
	drv.AddObserver(trace)

	var audit *report.EnergyAudit
	if showEnergy {
		audit = report.NewEnergyAudit(p.Mass)
		drv.AddObserver(audit)
	}

	var renderer *tui.LiveRenderer
	if live {
		renderer = tui.NewLiveRenderer(frameRate, p.TargetDistance)
		drv.AddObserver(renderer)
	}

	if err := drv.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var results []engine.Result
	start := time.Now()
	if live {
		renderer.Start()
		results, err = tickRealTime(ctx, drv, p.Dt)
		renderer.Stop()
	} else {
		fmt.Printf("racing %d surfaces over %.0f m...\n", len(drv.Registry().Kinds()), p.TargetDistance)
		results, err = drv.RunToCompletion(ctx)
	}
	elapsed := time.Since(start)

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
		fmt.Println("interrupted")
	}

	if !live {
		fmt.Printf("completed in %v\n", elapsed)
	}
	fmt.Printf("run id: %s\n\n", drv.RunID())

	if err := report.Summary(os.Stdout, p, results); err != nil {
		return err
	}

	if showEnergy {
		fmt.Println()
		if err := report.WriteEnergy(os.Stdout, audit, drv.Registry().Kinds()); err != nil {
			return err
		}
	}
	if showChart {
		fmt.Println()
		report.Charts(os.Stdout, trace, drv.Registry().Kinds())
	}
	if plotPath != "" {
		if err := report.SavePlot(plotPath, trace, drv.Registry().Kinds()); err != nil {
			return err
		}
		fmt.Printf("plot written: %s\n", plotPath)
	}
	if csvPath != "" {
		if err := writeFile(csvPath, func(w io.Writer) error { return report.WriteCSV(w, trace) }); err != nil {
			return err
		}
		fmt.Printf("trace written: %s\n", csvPath)
	}
	if jsonPath != "" {
		ex := report.Export{
			RunID:    drv.RunID().String(),
			Params:   *p,
			Surfaces: drv.Registry().All(),
			Results:  results,
			Ticks:    trace.Len(),
			Frames:   trace.Frames(),
		}
		if err := writeFile(jsonPath, func(w io.Writer) error { return report.WriteJSON(w, ex) }); err != nil {
			return err
		}
		fmt.Printf("export written: %s\n", jsonPath)
	}
	if doExplain || explainURL != "" {
		client := explain.New(explainURL, logger)
		req := explain.Request{
			RunID:    drv.RunID().String(),
			Params:   *p,
			Surfaces: drv.Registry().All(),
			Results:  results,
		}
		fmt.Println()
		fmt.Println(client.ExplainOrFallback(ctx, req))
	}
	return nil
}

// tickRealTime paces the run at one dt of simulated time per dt of wall
// time, so the live renderer shows the race as it would actually unfold.
func tickRealTime(ctx context.Context, drv *driver.Driver, dt float64) ([]engine.Result, error) {
	ticker := time.NewTicker(time.Duration(dt * float64(time.Second)))
	defer ticker.Stop()
	for !drv.Complete() && !drv.Stalled() {
		select {
		case <-ctx.Done():
			return drv.Results(), ctx.Err()
		case <-ticker.C:
			if _, err := drv.Tick(dt); err != nil {
				return drv.Results(), err
			}
		}
	}
	return drv.Results(), nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func listSurfaces(cmd *cobra.Command, args []string) error {
	reg := surface.NewRegistry()

	fmt.Printf("at mass %.1f kg the normal force is %.2f N\n\n", mass, mass*engine.Gravity)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SURFACE\tμs\tμk\tμk RANGE\tHOLDS UP TO\tKINETIC DRAG")
	for _, prof := range reg.All() {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t[%.2f, %.2f]\t%.2fN\t%.2fN\n",
			prof.Kind, prof.Static, prof.Kinetic, prof.MinKinetic, prof.MaxKinetic,
			engine.StaticCeiling(prof, mass), engine.KineticFriction(prof, mass))
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tMASS\tPUSH\tTARGET\tSCHEDULE")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		sched, err := p.Schedule()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%.0fkg\t%.0fN\t%.0fm\t%s\n",
			name, p.Mass, p.AppliedForce, p.TargetDistance, sched.Describe())
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	p, err := buildParams(cmd)
	if err != nil {
		return err
	}
	forces, err := sweep.Forces(sweepMin, sweepMax, sweepStep)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("sweeping push %g to %g N in steps of %g (%d runs)\n\n", sweepMin, sweepMax, sweepStep, len(forces))
	start := time.Now()
	points, err := sweep.Run(ctx, surface.NewRegistry(), p, forces)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	kinds := surface.NewRegistry().Kinds()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "FORCE"
	for _, k := range kinds {
		header += "\t" + strings.ToUpper(string(k))
	}
	fmt.Fprintln(w, header)
	for _, pt := range points {
		row := fmt.Sprintf("%.0fN", pt.Force)
		for _, k := range kinds {
			row += "\t" + finishCell(pt.Results, k)
		}
		fmt.Fprintln(w, row)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d runs in %v\n", len(points), elapsed)

	if showChart {
		chartSweep(points, kinds)
	}
	return nil
}

func finishCell(results []engine.Result, kind surface.Kind) string {
	for _, r := range results {
		if r.Surface == kind {
			if r.Finished {
				return fmt.Sprintf("%.2fs", r.Elapsed)
			}
			return report.DNF
		}
	}
	return "-"
}

// chartSweep plots finish time against push force for every surface that
// finished at each grid point; a surface with any dnf in the grid is
// skipped since its series would have holes.
func chartSweep(points []sweep.Point, kinds []surface.Kind) {
	for _, k := range kinds {
		data := make([]float64, 0, len(points))
		for _, pt := range points {
			for _, r := range pt.Results {
				if r.Surface == k && r.Finished {
					data = append(data, r.Elapsed)
				}
			}
		}
		if len(data) < 2 || len(data) != len(points) {
			continue
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption(fmt.Sprintf("%s finish time (s) across the sweep", k)),
		))
	}
}

func serveFrames(cmd *cobra.Command, args []string) error {
	logger := log.New(os.Stderr)
	drv := driver.New(surface.NewRegistry(), logger)

	s := stream.NewServer(drv, logger)
	go s.Loop()
	defer s.Close()

	mux := http.NewServeMux()
	mux.Handle("/ws", s)

	logger.Info("serving frames", "addr", addr, "path", "/ws")
	return http.ListenAndServe(addr, mux)
}
