package report

import (
	"bufio"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/fricsim/internal/surface"
)

var linePalette = []color.RGBA{
	{R: 0x4c, G: 0xb3, B: 0xd4, A: 0xff},
	{R: 0xe3, G: 0x7b, B: 0x40, A: 0xff},
	{R: 0x6a, G: 0xb1, B: 0x87, A: 0xff},
	{R: 0xc9, G: 0x6e, B: 0xc4, A: 0xff},
}

// SavePlot renders the recorded position-vs-time series, one line per
// surface, to a PNG at path.
func SavePlot(path string, tr *Trace, kinds []surface.Kind) error {
	if tr.Len() == 0 {
		return fmt.Errorf("plot: trace is empty")
	}

	p := plot.New()
	p.Title.Text = "position vs time"
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "position (m)"
	p.Add(plotter.NewGrid())

	times := tr.Times()
	for i, kind := range kinds {
		series := tr.Positions(kind)
		if len(series) != len(times) {
			continue
		}
		pts := make(plotter.XYs, len(series))
		for j := range series {
			pts[j].X = times[j]
			pts[j].Y = series[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("plot %s: %w", kind, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = linePalette[i%len(linePalette)]
		p.Add(line)
		p.Legend.Add(string(kind), line)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	return savePNG(p, 8.0, 6.0, path)
}

func savePNG(p *plot.Plot, widthIn, heightIn float64, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(150),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	defer bw.Flush()

	png := vgimg.PngCanvas{Canvas: c}
	if _, err := png.WriteTo(bw); err != nil {
		return err
	}
	return nil
}
