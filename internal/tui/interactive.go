package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/san-kum/fricsim/internal/config"
	"github.com/san-kum/fricsim/internal/driver"
	"github.com/san-kum/fricsim/internal/engine"
	"github.com/san-kum/fricsim/internal/explain"
	"github.com/san-kum/fricsim/internal/force"
	"github.com/san-kum/fricsim/internal/surface"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

var presetInfo = map[string]string{
	"custom":     "edit every parameter",
	"drag-race":  "steady 150 N push over 500 m",
	"stalemate":  "30 N cannot break anything loose",
	"shove":      "one half-second impulse, then coasting",
	"timed-push": "one second of push, then friction wins",
	"push-zone":  "300 N active only for the first 50 m",
}

type state int

const (
	stateMenu state = iota
	stateConfig
	stateRace
)

type fieldKind int

const (
	fieldMass fieldKind = iota
	fieldForce
	fieldDistance
	fieldMode
	fieldDuration
	fieldZone
	fieldDt
	fieldMu
)

// field is one editable row of the config screen. Mu rows carry the
// surface they adjust.
type field struct {
	kind fieldKind
	surf surface.Kind
}

type model struct {
	state  state
	cursor int
	menu   []string

	drv    *driver.Driver
	params *config.Params

	fields      []field
	fieldCursor int
	editing     bool
	editBuf     string
	configErr   string

	running   bool
	paused    bool
	finished  bool
	frame     engine.Frame
	results   []engine.Result
	story     string
	history   []float64
	speed     float64
	lastFrame time.Time
	fps       float64

	width  int
	height int
}

func NewApp() *model {
	return &model{
		state:   stateMenu,
		menu:    append([]string{"custom"}, config.ListPresets()...),
		drv:     driver.New(surface.NewRegistry(), log.New(io.Discard)),
		params:  config.DefaultParams(),
		speed:   1.0,
		history: make([]float64, 0, 60),
		width:   80,
		height:  24,
	}
}

func (m model) Init() tea.Cmd { return nil }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateRace {
			return m, nil
		}
		if m.running && !m.paused {
			now := time.Now()
			if !m.lastFrame.IsZero() {
				dt := now.Sub(m.lastFrame).Seconds()
				if dt > 0 {
					m.fps = 1.0 / dt
				}
			}
			m.lastFrame = now
			steps := int(m.speed)
			if steps < 1 {
				steps = 1
			}
			for i := 0; i < steps; i++ {
				m.step()
			}
		}
		if m.running && m.state == stateRace {
			return m, tick()
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateRace:
		return m.raceKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.menu)-1 {
			m.cursor++
		}
	case "enter", " ":
		name := m.menu[m.cursor]
		if p := config.GetPreset(name); p != nil {
			m.params = p.Clamp()
		} else {
			m.params = config.DefaultParams()
		}
		m.configErr = ""
		m.fieldCursor = 0
		m.rebuildFields()
		m.state = stateConfig
	}
	return m, nil
}

func (m model) configKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			m.commit()
		case "escape":
			m.editing = false
			m.editBuf = ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "escape":
		m.state = stateMenu
	case "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.fieldCursor > 0 {
			m.fieldCursor--
		}
	case "down", "j":
		if m.fieldCursor < len(m.fields)-1 {
			m.fieldCursor++
		}
	case "enter", " ":
		f := m.fields[m.fieldCursor]
		if f.kind == fieldMode {
			m.cycleMode(1)
			break
		}
		m.editing = true
		m.editBuf = strings.TrimSpace(m.fieldValue(f))
	case "left", "h":
		m.adjust(m.fields[m.fieldCursor], -1)
	case "right", "l":
		m.adjust(m.fields[m.fieldCursor], 1)
	case "s":
		if err := m.start(); err != nil {
			m.configErr = err.Error()
			break
		}
		m.configErr = ""
		m.state = stateRace
		return m, tea.Batch(tea.ClearScreen, tick())
	}
	return m, nil
}

func (m model) raceKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "escape":
		m.drv.Reset()
		m.running = false
		m.state = stateMenu
		return m, tea.ClearScreen
	case "ctrl+c":
		return m, tea.Quit
	case " ", "p":
		if !m.finished {
			m.paused = !m.paused
		}
	case "r":
		m.drv.Reset()
		if err := m.start(); err != nil {
			return m, tea.ClearScreen
		}
		return m, tea.Batch(tea.ClearScreen, tick())
	case "c":
		m.drv.Reset()
		m.running = false
		m.state = stateConfig
		m.rebuildFields()
		return m, tea.ClearScreen
	case "+", "=":
		m.speed = math.Min(m.speed*2, 16)
	case "-", "_":
		m.speed = math.Max(m.speed/2, 0.25)
	case "0":
		m.speed = 1.0
	}
	return m, nil
}

// rebuildFields lays out the config rows for the current mode: the
// mode-specific parameter appears only while its mode is selected.
func (m *model) rebuildFields() {
	fs := []field{{kind: fieldMass}, {kind: fieldForce}, {kind: fieldDistance}, {kind: fieldMode}}
	switch force.Mode(m.params.Mode) {
	case force.Timed:
		fs = append(fs, field{kind: fieldDuration})
	case force.DistanceLimited:
		fs = append(fs, field{kind: fieldZone})
	}
	fs = append(fs, field{kind: fieldDt})
	for _, k := range m.drv.Registry().Kinds() {
		fs = append(fs, field{kind: fieldMu, surf: k})
	}
	m.fields = fs
	if m.fieldCursor >= len(fs) {
		m.fieldCursor = len(fs) - 1
	}
}

func (m *model) fieldLabel(f field) string {
	switch f.kind {
	case fieldMass:
		return "mass kg"
	case fieldForce:
		return "push N"
	case fieldDistance:
		return "target m"
	case fieldMode:
		return "mode"
	case fieldDuration:
		return "push s"
	case fieldZone:
		return "push zone m"
	case fieldDt:
		return "dt s"
	case fieldMu:
		return string(f.surf) + " μk"
	}
	return ""
}

func (m *model) fieldValue(f field) string {
	switch f.kind {
	case fieldMass:
		return fmt.Sprintf("%8.1f", m.params.Mass)
	case fieldForce:
		return fmt.Sprintf("%8.1f", m.params.AppliedForce)
	case fieldDistance:
		return fmt.Sprintf("%8.1f", m.params.TargetDistance)
	case fieldMode:
		return fmt.Sprintf("%8s", m.params.Mode)
	case fieldDuration:
		return fmt.Sprintf("%8.2f", m.params.ModeDuration)
	case fieldZone:
		return fmt.Sprintf("%8.1f", m.params.ModeDistance)
	case fieldDt:
		return fmt.Sprintf("%8.3f", m.params.Dt)
	case fieldMu:
		prof, err := m.drv.Registry().Get(f.surf)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%8.2f", prof.Kinetic)
	}
	return ""
}

func (m *model) adjust(f field, dir float64) {
	switch f.kind {
	case fieldMass:
		m.params.Mass += dir * 1
	case fieldForce:
		m.params.AppliedForce += dir * 10
	case fieldDistance:
		m.params.TargetDistance += dir * 10
	case fieldMode:
		m.cycleMode(int(dir))
		return
	case fieldDuration:
		m.params.ModeDuration += dir * 0.1
	case fieldZone:
		m.params.ModeDistance += dir * 10
	case fieldDt:
		m.params.Dt += dir * 0.005
	case fieldMu:
		prof, err := m.drv.Registry().Get(f.surf)
		if err != nil {
			return
		}
		m.setMu(f.surf, prof.Kinetic+dir*0.01)
		return
	}
	m.params = m.params.Clamp()
}

func (m *model) cycleMode(dir int) {
	modes := force.Modes()
	idx := 0
	for i, md := range modes {
		if string(md) == m.params.Mode {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(modes)) % len(modes)
	m.params.Mode = string(modes[idx])
	m.params = m.params.Clamp()
	m.rebuildFields()
}

// setMu clamps the entered coefficient to the surface's legal range
// before handing it to the registry, so an out-of-range entry lands on
// the boundary instead of being rejected.
func (m *model) setMu(kind surface.Kind, v float64) {
	prof, err := m.drv.Registry().Get(kind)
	if err != nil {
		return
	}
	v = math.Max(prof.MinKinetic, math.Min(prof.MaxKinetic, v))
	v = math.Round(v*100) / 100
	m.drv.AdjustFriction(kind, v)
}

func (m *model) commit() {
	f := m.fields[m.fieldCursor]
	var val float64
	fmt.Sscanf(m.editBuf, "%f", &val)
	switch f.kind {
	case fieldMass:
		m.params.Mass = val
	case fieldForce:
		m.params.AppliedForce = val
	case fieldDistance:
		m.params.TargetDistance = val
	case fieldDuration:
		m.params.ModeDuration = val
	case fieldZone:
		m.params.ModeDistance = val
	case fieldDt:
		m.params.Dt = val
	case fieldMu:
		m.setMu(f.surf, val)
	}
	m.params = m.params.Clamp()
	m.editing = false
	m.editBuf = ""
}

func (m *model) start() error {
	if err := m.drv.Configure(m.params); err != nil {
		return err
	}
	if err := m.drv.Start(); err != nil {
		return err
	}
	m.frame = m.drv.Frame()
	m.results = nil
	m.story = ""
	m.history = m.history[:0]
	m.finished = false
	m.running = true
	m.paused = false
	m.speed = 1.0
	m.lastFrame = time.Time{}
	return nil
}

func (m *model) step() {
	if m.finished {
		return
	}
	f, err := m.drv.Tick(m.params.Dt)
	if err != nil {
		return
	}
	m.frame = f
	m.history = append(m.history, m.leaderVelocity())
	if len(m.history) > 60 {
		m.history = m.history[1:]
	}
	if m.drv.Complete() || m.drv.Stalled() {
		m.finish()
	}
}

func (m *model) finish() {
	m.finished = true
	m.running = false
	m.paused = false
	m.results = m.drv.Results()
	m.story = explain.Fallback(m.drv.Params(), m.results)
}

func (m *model) leaderVelocity() float64 {
	v := 0.0
	for _, b := range m.frame.Bodies {
		if b.Velocity > v {
			v = b.Velocity
		}
	}
	return v
}

func (m *model) leaderPosition() float64 {
	p := 0.0
	for _, b := range m.frame.Bodies {
		if b.Position > p {
			p = b.Position
		}
	}
	return p
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateRace:
		return m.viewRace()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("f r i c s i m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.menu {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-14s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-14s", name)) + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter configure   q quit") + "\n")

	return b.String()
}

func (m model) viewConfig() string {
	var b strings.Builder

	sched, _ := m.params.Schedule()
	b.WriteString("\n")
	b.WriteString("      " + cyan.Render("race setup") + "  " + dim.Render(sched.Describe()) + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 34)) + "\n\n")

	for i, f := range m.fields {
		val := m.fieldValue(f)
		if m.editing && i == m.fieldCursor {
			val = fmt.Sprintf("%8s", m.editBuf+"▋")
		}
		if i == m.fieldCursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-14s", m.fieldLabel(f))) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-14s", m.fieldLabel(f))) + dim.Render(val) + "\n")
		}
	}

	// Breakaway forecast: which surfaces the configured push can move.
	b.WriteString("\n" + dimmer.Render("      "+strings.Repeat("─", 34)) + "\n")
	for _, prof := range m.drv.Registry().All() {
		ceiling := engine.StaticCeiling(prof, m.params.Mass)
		line := fmt.Sprintf("%-10s holds ≤ %7.2f N  ", prof.Kind, ceiling)
		if m.params.AppliedForce > ceiling {
			b.WriteString("      " + dim.Render(line) + green.Render("moves") + "\n")
		} else {
			b.WriteString("      " + dim.Render(line) + yellow.Render("holds") + "\n")
		}
	}

	if m.configErr != "" {
		b.WriteString("\n      " + magenta.Render(m.configErr) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select  ←→ adjust  enter edit  s start  esc back") + "\n")

	return b.String()
}

func (m model) viewRace() string {
	cw := m.width - 6
	if cw < 60 {
		cw = 60
	}
	ch := 3*len(m.frame.Bodies) + 2
	if ch < 5 {
		ch = 5
	}

	canvas := make([][]rune, ch)
	for i := range canvas {
		canvas[i] = make([]rune, cw)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}
	m.drawTracks(canvas, cw, ch)

	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	switch {
	case m.finished:
		statusIcon = cyan.Render("●")
		statusText = cyan.Render("done")
	case m.paused:
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s\n",
		statusIcon, cyan.Render("friction race"), statusText))

	target := m.params.TargetDistance
	progress := 0.0
	if target > 0 {
		progress = m.leaderPosition() / target
	}
	if progress > 1 {
		progress = 1
	}
	barWidth := 36
	filled := int(progress * float64(barWidth))
	timeStr := fmt.Sprintf("t=%.2fs ×%.2g", m.frame.Time, m.speed)
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	b.WriteString(fmt.Sprintf("   %s %s  %s\n\n", bar, dim.Render(timeStr), dim.Render(fmt.Sprintf("%.0ffps", m.fps))))

	for _, row := range canvas {
		b.WriteString("   " + string(row) + "\n")
	}

	b.WriteString("\n")
	for _, v := range m.frame.Bodies {
		name := dim.Render(fmt.Sprintf("%-8s", v.Surface))
		var st string
		switch v.Status {
		case engine.Moving:
			st = green.Render("moving ")
		case engine.Arrived:
			st = cyan.Render("arrived")
		default:
			st = yellow.Render("holding")
		}
		b.WriteString(fmt.Sprintf("   %s %s  %s  %s  %s\n",
			name, st,
			white.Render(fmt.Sprintf("x=%7.2fm", v.Position)),
			white.Render(fmt.Sprintf("v=%6.2fm/s", v.Velocity)),
			dim.Render(fmt.Sprintf("push %6.1fN  friction %6.1fN", v.Applied, v.Friction))))
	}

	if len(m.history) > 1 {
		b.WriteString(fmt.Sprintf("\n   %s %s\n", dim.Render("v"), cyan.Render(sparkline(m.history, 24))))
	}

	if m.finished {
		b.WriteString("\n   " + cyan.Render("results") + "\n")
		for _, r := range m.results {
			switch {
			case r.Finished:
				b.WriteString("   " + green.Render(fmt.Sprintf("%-8s finished in %6.2fs at %5.2f m/s", r.Surface, r.Elapsed, r.FinalVelocity)) + "\n")
			case r.EverMoved:
				b.WriteString("   " + yellow.Render(fmt.Sprintf("%-8s halted at %6.2fm", r.Surface, r.Position)) + "\n")
			default:
				b.WriteString("   " + dim.Render(fmt.Sprintf("%-8s never moved (needs > %.2f N)", r.Surface, r.StaticCeiling)) + "\n")
			}
		}
		if m.story != "" {
			b.WriteString("\n")
			for _, line := range wrap(m.story, cw) {
				b.WriteString("   " + dim.Render(line) + "\n")
			}
		}
	}

	b.WriteString("\n" + dim.Render("   space pause  ±speed  r restart  c config  q quit") + "\n")

	return b.String()
}

// drawTracks lays one horizontal lane per surface: traveled distance
// filled, the head block at the current position, and a shared finish
// line down the right edge.
func (m model) drawTracks(canvas [][]rune, w, h int) {
	x0 := 10
	x1 := w - 4
	if x1 <= x0 {
		return
	}
	target := m.params.TargetDistance

	drawLine(canvas, w, h, x1, 0, x1, h-1, '┃')

	for i, v := range m.frame.Bodies {
		y := 1 + i*3
		if y >= h {
			break
		}
		for j, c := range []rune(string(v.Surface)) {
			set(canvas, 2+j, y, c, w, h)
		}

		drawLine(canvas, w, h, x0, y, x1-1, y, '·')
		set(canvas, x0, y, '├', w, h)

		head := x0
		if target > 0 {
			head = x0 + int(v.Position/target*float64(x1-1-x0))
		}
		if head > x1-1 {
			head = x1 - 1
		}
		for x := x0 + 1; x < head; x++ {
			set(canvas, x, y, '═', w, h)
		}
		switch {
		case v.Status == engine.Arrived && v.Position >= target:
			set(canvas, x1, y, '⚑', w, h)
			set(canvas, head, y, '█', w, h)
		case v.Status == engine.Arrived:
			set(canvas, head, y, '×', w, h)
		default:
			set(canvas, head, y, '█', w, h)
		}
	}
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		v := data[i*step]
		idx := int((v - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

func wrap(s string, width int) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			if line == "" {
				line = word
				continue
			}
			if len(line)+1+len(word) > width {
				lines = append(lines, line)
				line = word
				continue
			}
			line += " " + word
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func set(canvas [][]rune, x, y int, c rune, w, h int) {
	if x >= 0 && x < w && y >= 0 && y < h {
		canvas[y][x] = c
	}
}

func drawLine(canvas [][]rune, w, h, x1, y1, x2, y2 int, c rune) {
	dx := intAbs(x2 - x1)
	dy := intAbs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		set(canvas, x1, y1, c, w, h)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func RunInteractive() error {
	p := tea.NewProgram(NewApp(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
