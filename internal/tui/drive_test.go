package tui

import (
	"strings"
	"testing"
	"time"

	"drivesim/internal/config"
	"drivesim/internal/game"

	tea "github.com/charmbracelet/bubbletea"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Scene = ""
	s, err := game.NewSimulation(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return New(s)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m model, msg tea.Msg) (model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func TestTickStepsSimulation(t *testing.T) {
	m := newTestModel(t)
	m, cmd := update(m, tickMsg(time.Now()))
	assert.NotNil(t, cmd, "keeps ticking")
	assert.EqualValues(t, 1, m.sim.Steps())
	assert.Len(t, m.trail, 1)
	assert.Len(t, m.history, 1)

	m, _ = update(m, key("p"))
	m, _ = update(m, tickMsg(time.Now()))
	assert.EqualValues(t, 1, m.sim.Steps(), "paused")
}

func TestPedalKeys(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(m, key("up"))
	assert.Equal(t, float32(1), m.gas)

	m, _ = update(m, key("d"))
	m, _ = update(m, key("d"))
	assert.InDelta(t, 2*steerStep, m.steer, 1e-6)

	m, _ = update(m, tickMsg(time.Now()))
	assert.Equal(t, float32(1), m.tel.Gas)
	assert.InDelta(t, 2*steerStep*steerDecay, m.tel.Steering, 1e-6)

	m, _ = update(m, key("s"))
	assert.Zero(t, m.gas)
	assert.Equal(t, float32(1), m.brake)

	m, _ = update(m, key("x"))
	assert.Zero(t, m.brake)
}

func TestShiftKeys(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(m, key("e"))
	assert.Equal(t, 2, m.sim.Car.CurrentGear())
	m, _ = update(m, key("q"))
	m, _ = update(m, key("q"))
	assert.Equal(t, 0, m.sim.Car.CurrentGear())
}

func TestRespawnKey(t *testing.T) {
	m := newTestModel(t)
	m.sim.RespawnTimeout = 10 * time.Millisecond
	m, cmd := update(m, key("r"))
	require.NotNil(t, cmd)
	assert.True(t, m.respawning)

	_, again := update(m, key("r"))
	assert.Nil(t, again, "one respawn at a time")

	// nothing ticks while the command runs, so the handshake times out
	msg := cmd()
	m, _ = update(m, msg)
	assert.False(t, m.respawning)
	assert.Contains(t, m.status, "timed out")
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := update(m, key("esc"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestView(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(m, tickMsg(time.Now()))

	out := m.View()
	assert.Contains(t, out, "km/h")
	assert.Contains(t, out, "hatchback")
	assert.Contains(t, out, "▲", "cones ahead of the car")
	assert.Contains(t, out, "↑", "car faces up the map")
	assert.LessOrEqual(t, len(strings.Split(out, "\n")), 41)
}

func TestHeading(t *testing.T) {
	assert.Equal(t, '↑', heading(rl.Vector3{Z: 1}))
	assert.Equal(t, '↓', heading(rl.Vector3{Z: -1}))
	assert.Equal(t, '←', heading(rl.Vector3{X: 1}), "+X is the car's left")
	assert.Equal(t, '→', heading(rl.Vector3{X: -1}))
	assert.Equal(t, '↗', heading(rl.Vector3{X: -1, Z: 1}))
}

func TestSparkline(t *testing.T) {
	assert.Empty(t, sparkline(nil, 10))
	assert.Equal(t, "▁▁▁", sparkline([]float64{5, 5, 5}, 10))
	assert.Equal(t, "▁█", sparkline([]float64{0, 10}, 10))
}
