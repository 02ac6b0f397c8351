// Package sweep runs the whole surface field to completion across a grid
// of applied-force values and collects the per-force results for
// side-by-side comparison. Each grid point gets its own registry clone
// and driver, so the runs share nothing and execute concurrently.
package sweep

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/san-kum/fricsim/internal/config"
	"github.com/san-kum/fricsim/internal/driver"
	"github.com/san-kum/fricsim/internal/engine"
	"github.com/san-kum/fricsim/internal/surface"
)

// Point is the outcome of one full run at one applied-force value.
type Point struct {
	Force   float64
	Results []engine.Result
}

// Forces builds the inclusive [min, max] grid with the given step.
func Forces(min, max, step float64) ([]float64, error) {
	if step <= 0 {
		return nil, fmt.Errorf("sweep: step must be positive, got %g", step)
	}
	if max < min {
		return nil, fmt.Errorf("sweep: empty force range [%g, %g]", min, max)
	}
	var out []float64
	for i := 0; ; i++ {
		f := min + float64(i)*step
		if f > max+1e-9 {
			break
		}
		out = append(out, f)
	}
	return out, nil
}

// Run executes one run per force value, all concurrently, and returns the
// points in grid order. Stalled runs are normal outcomes and show up as
// did-not-finish results; only invalid parameters or a tick-cap overrun
// abort the sweep.
func Run(ctx context.Context, reg *surface.Registry, base *config.Params, forces []float64) ([]Point, error) {
	points := make([]Point, len(forces))
	errs := make([]error, len(forces))

	var wg sync.WaitGroup
	for i, f := range forces {
		wg.Add(1)
		go func(idx int, force float64) {
			defer wg.Done()

			p := *base
			p.AppliedForce = force

			d := driver.New(reg.Clone(), log.New(io.Discard))
			if err := d.Configure(&p); err != nil {
				errs[idx] = err
				return
			}
			if err := d.Start(); err != nil {
				errs[idx] = err
				return
			}
			results, err := d.RunToCompletion(ctx)
			if err != nil {
				errs[idx] = err
				return
			}
			points[idx] = Point{Force: force, Results: results}
		}(i, f)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return points, nil
}
