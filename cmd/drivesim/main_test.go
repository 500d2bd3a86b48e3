package main

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"drivesim/internal/config"
	"drivesim/internal/game"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := resolveConfig(parse(t))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultScene, cfg.Scene)
	assert.Equal(t, "hatchback", cfg.Car.Name)
	assert.InDelta(t, config.DefaultStepSize, cfg.World.StepSize, 1e-9)
	assert.InDelta(t, config.DefaultDuration, cfg.Duration, 1e-9)
}

func TestResolveConfigFlags(t *testing.T) {
	cfg, err := resolveConfig(parse(t, "--preset", "truck", "--dt", "0.01", "--time", "3", "--scene", ""))
	require.NoError(t, err)
	assert.Equal(t, "truck", cfg.Preset)
	assert.Equal(t, "truck", cfg.Car.Name)
	assert.Empty(t, cfg.Scene)
	assert.InDelta(t, 0.01, cfg.World.StepSize, 1e-6)
	assert.InDelta(t, 100, cfg.World.UpdateRate, 1e-3)
	assert.InDelta(t, 3, cfg.Duration, 1e-6)
}

func TestResolveConfigFileThenFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	file := config.DefaultConfig()
	file.Scene = "custom.yaml"
	file.Duration = 5
	require.NoError(t, config.Save(path, file))

	cfg, err := resolveConfig(parse(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "custom.yaml", cfg.Scene, "file scene wins over the flag default")
	assert.InDelta(t, 5, cfg.Duration, 1e-6)

	cfg, err = resolveConfig(parse(t, "--config", path, "--scene", "", "--time", "2"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Scene, "explicit flags win over the file")
	assert.InDelta(t, 2, cfg.Duration, 1e-6)
}

func TestResolveConfigProfileFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "car.toml")
	p, err := config.GetPreset("roadster")
	require.NoError(t, err)
	require.NoError(t, config.SaveProfile(path, p))

	cfg, err := resolveConfig(parse(t, "--profile", path))
	require.NoError(t, err)
	assert.Equal(t, "roadster", cfg.Car.Name)
	assert.Equal(t, path, cfg.Profile)
}

func TestResolveConfigErrors(t *testing.T) {
	_, err := resolveConfig(parse(t, "--preset", "tank"))
	assert.ErrorIs(t, err, config.ErrUnknownPreset)

	_, err = resolveConfig(parse(t, "--dt=-1"))
	assert.ErrorIs(t, err, config.ErrInvalidWorld)

	_, err = resolveConfig(parse(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestPresetsCommand(t *testing.T) {
	out := execute(t, "presets")
	for _, name := range config.ListPresets() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "fwd")
}

func TestSummary(t *testing.T) {
	s := summary("run", [][2]string{{"top speed", "88.0 km/h"}, {"gear", "3"}})
	assert.Contains(t, s, "run")
	assert.Contains(t, s, "top speed")
	assert.Contains(t, s, "88.0 km/h")
	assert.True(t, strings.HasSuffix(s, "\n"))
}

func TestRunCommand(t *testing.T) {
	csvFile := filepath.Join(t.TempDir(), "run.csv")
	out := execute(t, "run", "--scene", "", "--time", "2", "--csv", csvFile)
	assert.Contains(t, out, "speed (km/h)")
	assert.Contains(t, out, "top speed")
	assert.Contains(t, out, "telemetry written")
}

func TestDriveAccelerates(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scene = ""
	sim, err := game.NewSimulation(cfg)
	require.NoError(t, err)
	defer sim.Close()

	res := drive(sim, 3, 1, 0)
	require.Len(t, res.Samples, 150)
	assert.Greater(t, res.TopSpeed, float32(10))
	assert.Greater(t, res.Distance, float32(1))
	assert.Nil(t, sim.Autopilot(), "autopilot is removed after the run")

	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, res.Samples))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 151)
	assert.Equal(t, "speed_kmh", rows[0][1])
}

func TestDropBall(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scene = ""
	sim, err := game.NewSimulation(cfg)
	require.NoError(t, err)
	defer sim.Close()

	ball, err := dropBall(sim, 2, "rubber")
	require.NoError(t, err)
	assert.Equal(t, "rubber", sim.World.Surface(ball.Spatial()))

	res := observe(sim, ball, 4)
	assert.GreaterOrEqual(t, res.Bounces, 1)
	assert.Greater(t, res.Max, res.Final)
	assert.Less(t, res.Final, float32(1))

	_, err = dropBall(sim, 2, "lava")
	assert.Error(t, err)
}

func TestDropCarCommand(t *testing.T) {
	out := execute(t, "drop", "--scene", "", "--time", "2")
	assert.Contains(t, out, "height (m)")
	assert.Contains(t, out, "bounces")
}

func TestStressCommand(t *testing.T) {
	out := execute(t, "stress", "--counts", "10,20", "--steps", "3")
	assert.Contains(t, out, "physics stress")
	for _, mode := range []string{"simulation", "quick", "fast"} {
		assert.Contains(t, out, mode)
	}

	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"stress", "--steps", "0"})
	assert.Error(t, cmd.Execute())
}
