package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"drivesim/internal/game"
	"drivesim/internal/vehicle"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	rl "github.com/gen2brain/raylib-go/raylib"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	frame   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238"))
)

const (
	// metres per map cell; terminal cells are about twice as tall as wide
	cellW = 1.0
	cellH = 2.0

	steerStep  = 0.35
	steerDecay = 0.85
	trailLen   = 120
	historyLen = 60
)

var arrows = []rune{'↑', '↗', '→', '↘', '↓', '↙', '←', '↖'}

type tickMsg time.Time

type respawnMsg struct{ err error }

type model struct {
	sim *game.Simulation
	dt  float32

	paused     bool
	respawning bool
	status     string

	gas, brake, steer float32
	handbrake         bool

	tel     game.Telemetry
	trail   []rl.Vector3
	history []float64

	width  int
	height int
}

func New(s *game.Simulation) model {
	return model{
		sim:     s,
		dt:      s.World.Physics.StepSize(),
		trail:   make([]rl.Vector3, 0, trailLen),
		history: make([]float64, 0, historyLen),
		width:   80,
		height:  24,
		tel:     s.Snapshot(),
	}
}

func (m model) Init() tea.Cmd { return m.tick() }

func (m model) tick() tea.Cmd {
	return tea.Tick(time.Duration(float64(m.dt)*float64(time.Second)), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case respawnMsg:
		m.respawning = false
		m.status = "respawned"
		if msg.err != nil {
			m.status = "respawn: " + msg.err.Error()
		}
		m.trail = m.trail[:0]
		return m, nil
	case tickMsg:
		if !m.paused {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *model) step() {
	m.steer *= steerDecay
	gas, brake, steer, hb := m.gas, m.brake, m.steer, m.handbrake
	m.sim.Drive(func(c *vehicle.Car) {
		c.SetGasPedal(gas)
		c.SetBrakePedal(brake)
		c.SetSteeringWheel(steer)
		c.SetHandBrake(hb)
	})
	m.sim.Tick(m.dt)
	m.tel = m.sim.Snapshot()

	if len(m.trail) == trailLen {
		m.trail = m.trail[1:]
	}
	m.trail = append(m.trail, m.tel.Position)
	if len(m.history) == historyLen {
		m.history = m.history[1:]
	}
	m.history = append(m.history, float64(m.tel.SpeedKmh))
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "w", "up":
		m.gas, m.brake = 1, 0
	case "s", "down":
		m.gas, m.brake = 0, 1
	case "x", " ":
		m.gas, m.brake = 0, 0
	case "a", "left":
		m.steer = max(m.steer-steerStep, -1)
	case "d", "right":
		m.steer = min(m.steer+steerStep, 1)
	case "h":
		m.handbrake = !m.handbrake
	case "e":
		m.sim.Drive(func(c *vehicle.Car) { c.PressClutch(); c.ShiftUp() })
	case "q":
		m.sim.Drive(func(c *vehicle.Car) { c.PressClutch(); c.ShiftDown() })
	case "p":
		m.paused = !m.paused
	case "r", "backspace":
		if m.respawning {
			return m, nil
		}
		m.respawning = true
		m.gas, m.brake, m.steer = 0, 0, 0
		m.status = "respawning..."
		s := m.sim
		return m, func() tea.Msg {
			return respawnMsg{err: s.RespawnAtSpawn(context.Background())}
		}
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	t := m.tel

	b.WriteString(magenta.Render(" drivesim ") + dim.Render(m.sim.World.Scene.Name+" · "+m.sim.Car.Profile().Name))
	if m.paused {
		b.WriteString(yellow.Render("  paused"))
	}
	b.WriteString("\n")

	mapW := max(m.width-4, 20)
	mapH := max(m.height-12, 8)
	b.WriteString(frame.Render(m.renderMap(mapW, mapH)) + "\n")

	gear := white.Bold(true).Render(t.GearLabel())
	b.WriteString(fmt.Sprintf(" %s  %s %s  %s %s\n",
		gear,
		cyan.Render(fmt.Sprintf("%5.1f", t.SpeedKmh)), dim.Render("km/h"),
		cyan.Render(fmt.Sprintf("%5.0f", t.RPM)), dim.Render("rpm")))
	b.WriteString(" " + dim.Render("rev    ") + bar(t.RPMFraction(), 30, t.RPMFraction() > 0.9) + "\n")
	b.WriteString(" " + dim.Render("clutch ") + bar(1-t.Clutch, 30, false) + "\n")
	b.WriteString(" " + dim.Render("speed  ") + cyan.Render(sparkline(m.history, 30)) + "\n")

	var flags []string
	if t.AnySkidding() {
		flags = append(flags, red.Render("skid"))
	}
	if m.handbrake {
		flags = append(flags, yellow.Render("handbrake"))
	}
	if t.Impacts > 0 {
		flags = append(flags, dim.Render(fmt.Sprintf("impacts %d", t.Impacts)))
	}
	if m.status != "" {
		flags = append(flags, dim.Render(m.status))
	}
	b.WriteString(" " + strings.Join(flags, "  ") + "\n")
	b.WriteString(dim.Render(" w/s gas brake  a/d steer  x coast  e/q shift  h handbrake  r respawn  p pause  esc quit") + "\n")
	return b.String()
}

type marker struct {
	pos rl.Vector3
	ch  rune
}

func (m model) markers() []marker {
	s := m.sim.World.Scene
	s.RLock()
	defer s.RUnlock()

	var out []marker
	for _, g := range s.GameObjects {
		var ch rune
		switch {
		case g.HasTag("car"), g.HasTag("ground"):
			continue
		case g.HasTag("wall"):
			ch = '█'
		case g.HasTag("cone"):
			ch = '▲'
		case g.HasTag("ramp"):
			ch = '▒'
		case m.sim.World.PhysicsObject(g) != nil:
			ch = '●'
		default:
			continue
		}
		out = append(out, marker{g.WorldPosition(), ch})
	}
	return out
}

// renderMap draws a top-down view centered on the car with +Z up the screen.
func (m model) renderMap(w, h int) string {
	canvas := make([][]rune, h)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", w))
	}
	center := m.tel.Position
	cell := func(p rl.Vector3) (int, int) {
		// +X is the car's left, so it runs right to left
		x := w/2 + int(math.Round(float64(center.X-p.X)/cellW))
		y := h/2 - int(math.Round(float64(p.Z-center.Z)/cellH))
		return x, y
	}

	for _, p := range m.trail {
		x, y := cell(p)
		set(canvas, x, y, '·', w, h)
	}
	for _, mk := range m.markers() {
		x, y := cell(mk.pos)
		set(canvas, x, y, mk.ch, w, h)
	}
	set(canvas, w/2, h/2, heading(m.tel.Forward), w, h)

	lines := make([]string, h)
	for i, row := range canvas {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}

// heading picks the arrow closest to the car's direction on the map.
func heading(forward rl.Vector3) rune {
	angle := math.Atan2(float64(-forward.X), float64(forward.Z))
	i := int(math.Round(angle/(math.Pi/4))) % len(arrows)
	if i < 0 {
		i += len(arrows)
	}
	return arrows[i]
}

func bar(fill float32, width int, hot bool) string {
	n := int(math.Round(float64(min(max(fill, 0), 1)) * float64(width)))
	full := strings.Repeat("█", n)
	if hot {
		full = red.Render(full)
	} else {
		full = green.Render(full)
	}
	return full + dim.Render(strings.Repeat("░", width-n))
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := max(len(data)/width, 1)
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		idx := int((data[i*step] - minVal) / rang * 7)
		sb.WriteRune(chars[min(max(idx, 0), 7)])
	}
	return sb.String()
}

func set(canvas [][]rune, x, y int, c rune, w, h int) {
	if x >= 0 && x < w && y >= 0 && y < h {
		canvas[y][x] = c
	}
}

// Run drives s from the terminal until the user quits.
func Run(s *game.Simulation) error {
	p := tea.NewProgram(New(s), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
