package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/san-kum/fricsim/internal/engine"
)

const (
	liveWidth   = 70
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer draws the race as plain ANSI frames on stdout, one lane
// per surface. It hooks into the driver as an observer and drops frames
// to hold the requested rate; the completing frame is always drawn.
type LiveRenderer struct {
	frameRate int
	target    float64
	lastFrame time.Time
}

func NewLiveRenderer(frameRate int, target float64) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 30
	}
	return &LiveRenderer{frameRate: frameRate, target: target}
}

func (r *LiveRenderer) OnTick(f engine.Frame) {
	if !f.Complete && time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()
	r.render(f)
}

func (r *LiveRenderer) render(f engine.Frame) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  friction race  t=%.2fs\n", f.Time))
	b.WriteString("  " + strings.Repeat("-", liveWidth) + "\n")

	trackW := liveWidth - 24
	for _, v := range f.Bodies {
		head := 0
		if r.target > 0 {
			head = int(v.Position / r.target * float64(trackW))
		}
		if head > trackW {
			head = trackW
		}

		mark := byte('>')
		switch {
		case v.Status == engine.Arrived && v.Position >= r.target:
			mark = '*'
		case v.Status == engine.Arrived:
			mark = 'x'
		}

		lane := strings.Repeat("=", head) + string(mark) + strings.Repeat(".", trackW-head)
		b.WriteString(fmt.Sprintf("  %-8s |%s| %6.1fm %5.1fm/s\n", v.Surface, lane, v.Position, v.Velocity))
	}

	b.WriteString("  " + strings.Repeat("-", liveWidth) + "\n")
	fmt.Print(b.String())
}

func (r *LiveRenderer) Start() { fmt.Print(hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Print(showCursor) }
