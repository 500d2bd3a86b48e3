package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"drivesim/internal/config"
	"drivesim/internal/game"
	"drivesim/internal/tui"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	configFile  string
	preset      string
	profileFile string
	scenePath   string
	dt          float32
	duration    float32
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
)

func main() {
	// Change working directory to executable location for deployed builds.
	// Skip this for "go run" which puts the binary in a temp directory.
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		if !strings.Contains(execDir, "go-build") {
			if _, err := os.Stat(filepath.Join(execDir, "assets")); err == nil {
				os.Chdir(execDir)
			}
		}
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "drivesim",
		Short: "vehicle physics sandbox",
		RunE:  runView,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (yaml or toml)")
	pf.StringVar(&preset, "preset", "", "car preset ("+strings.Join(config.ListPresets(), ", ")+")")
	pf.StringVar(&profileFile, "profile", "", "car profile file, watched for changes in the viewer")
	pf.StringVar(&scenePath, "scene", config.DefaultScene, "scene file, empty for the built-in track")
	pf.Float32Var(&dt, "dt", config.DefaultStepSize, "physics step size in seconds")
	pf.Float32Var(&duration, "time", config.DefaultDuration, "simulated seconds for headless runs")

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "drive the car in a window",
		RunE:  runView,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "drive the car from the terminal",
		RunE:  runLive,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list car presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), presetTable())
			return nil
		},
	}

	rootCmd.AddCommand(viewCmd, liveCmd, presetsCmd, newRunCmd(), newDropCmd(), newStressCmd())
	return rootCmd
}

// resolveConfig builds the run configuration: defaults, then the config
// file, then any flag the user set explicitly.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if cfg.Profile != "" && !filepath.IsAbs(cfg.Profile) {
			cfg.Profile = filepath.Join(filepath.Dir(configFile), cfg.Profile)
		}
		if !cmd.Flags().Changed("scene") {
			scenePath = cfg.Scene
		}
	}

	flags := cmd.Flags()
	if flags.Changed("preset") {
		p, err := config.GetPreset(preset)
		if err != nil {
			return nil, err
		}
		cfg.Preset, cfg.Car, cfg.Profile = preset, p, ""
	}
	if flags.Changed("profile") {
		p, err := config.LoadProfile(profileFile)
		if err != nil {
			return nil, err
		}
		cfg.Car, cfg.Profile = p, profileFile
	}
	cfg.Scene = scenePath
	if flags.Changed("dt") {
		cfg.World.StepSize = dt
		if dt > 0 {
			cfg.World.UpdateRate = 1 / dt
		}
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newSimulation(cmd *cobra.Command) (*game.Simulation, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	return game.NewSimulation(cfg)
}

func runView(cmd *cobra.Command, args []string) error {
	sim, err := newSimulation(cmd)
	if err != nil {
		return err
	}
	defer sim.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	v := game.NewViewer(sim)
	v.ProfilePath = sim.Config.Profile
	return v.Run(ctx)
}

func runLive(cmd *cobra.Command, args []string) error {
	sim, err := newSimulation(cmd)
	if err != nil {
		return err
	}
	defer sim.Close()
	return tui.Run(sim)
}

func presetTable() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("car presets") + "\n")
	for _, name := range config.ListPresets() {
		p, _ := config.GetPreset(name)
		forward := 0
		for _, r := range p.GearRatios {
			if r > 0 {
				forward++
			}
		}
		b.WriteString(fmt.Sprintf("  %-10s %s %s %s %s %s %s\n",
			valueStyle.Render(name),
			labelStyle.Render("drive"), valueStyle.Render(fmt.Sprintf("%-4s", p.Drivetrain)),
			labelStyle.Render("mass"), valueStyle.Render(fmt.Sprintf("%5.0f kg", p.ChassisMass+4*p.WheelMass)),
			labelStyle.Render("redline"), valueStyle.Render(fmt.Sprintf("%5.0f rpm, %d gears", p.MaxRPM, forward))))
	}
	return b.String()
}

// summary renders label/value rows in a box.
func summary(title string, rows [][2]string) string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	for _, r := range rows {
		b.WriteString("\n" + labelStyle.Render(fmt.Sprintf("%-*s", width, r[0])) + "  " + valueStyle.Render(r[1]))
	}
	return boxStyle.Render(b.String()) + "\n"
}
