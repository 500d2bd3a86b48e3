package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"drivesim/internal/game"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
)

var (
	throttle float32
	steering float32
	csvPath  string
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "drive headless on autopilot and plot the telemetry",
		RunE:  runHeadless,
	}
	runCmd.Flags().Float32Var(&throttle, "throttle", 1, "autopilot throttle 0..1")
	runCmd.Flags().Float32Var(&steering, "steer", 0, "fixed steering input -1..1, positive steers right")
	runCmd.Flags().StringVar(&csvPath, "csv", "", "write per-step telemetry to a CSV file")
	return runCmd
}

// runResult is the telemetry of a headless run, one sample per step.
type runResult struct {
	Samples  []game.Telemetry
	Shifts   int
	Distance float32
	TopSpeed float32
	// To100 is the time to reach 100 km/h, or -1.
	To100 float32
	Wall  time.Duration
}

func drive(sim *game.Simulation, seconds, throttle, steering float32) runResult {
	pilot := game.NewAutopilot(sim.Car, throttle)
	pilot.Steering = steering
	sim.SetAutopilot(pilot)
	defer sim.SetAutopilot(nil)

	step := sim.World.Physics.StepSize()
	n := int(seconds / step)
	res := runResult{Samples: make([]game.Telemetry, 0, n), To100: -1}
	start := time.Now()
	prev := sim.Snapshot()
	for range n {
		sim.Tick(step)
		t := sim.Snapshot()
		t.Contacts = nil
		res.Samples = append(res.Samples, t)
		res.Distance += rl.Vector3Distance(prev.Position, t.Position)
		res.TopSpeed = max(res.TopSpeed, t.SpeedKmh)
		if res.To100 < 0 && t.SpeedKmh >= 100 {
			res.To100 = t.Time
		}
		prev = t
	}
	res.Wall = time.Since(start)
	res.Shifts = pilot.Shifts
	return res
}

func runHeadless(cmd *cobra.Command, args []string) error {
	sim, err := newSimulation(cmd)
	if err != nil {
		return err
	}
	defer sim.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "driving %s for %.1fs...\n", sim.Config.Car.Name, sim.Config.Duration)
	res := drive(sim, sim.Config.Duration, throttle, steering)
	if len(res.Samples) == 0 {
		return fmt.Errorf("duration %.2fs is shorter than one step", sim.Config.Duration)
	}

	speed := make([]float64, len(res.Samples))
	rpm := make([]float64, len(res.Samples))
	for i, t := range res.Samples {
		speed[i] = float64(t.SpeedKmh)
		rpm[i] = float64(t.RPM)
	}
	fmt.Fprintln(out, asciigraph.Plot(speed,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("speed (km/h)")))
	fmt.Fprintln(out)
	fmt.Fprintln(out, asciigraph.Plot(rpm,
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption("engine (rpm)")))
	fmt.Fprintln(out)

	last := res.Samples[len(res.Samples)-1]
	to100 := "not reached"
	if res.To100 >= 0 {
		to100 = fmt.Sprintf("%.2f s", res.To100)
	}
	fmt.Fprint(out, summary("run", [][2]string{
		{"car", fmt.Sprintf("%s (%s)", sim.Config.Car.Name, sim.Config.Car.Drivetrain)},
		{"steps", strconv.FormatUint(last.Steps, 10)},
		{"top speed", fmt.Sprintf("%.1f km/h", res.TopSpeed)},
		{"0-100 km/h", to100},
		{"distance", fmt.Sprintf("%.1f m", res.Distance)},
		{"final gear", last.GearLabel()},
		{"shifts", strconv.Itoa(res.Shifts)},
		{"impacts", strconv.Itoa(last.Impacts)},
		{"wall time", res.Wall.Round(time.Millisecond).String()},
	}))

	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := writeCSV(f, res.Samples); err != nil {
			return err
		}
		fmt.Fprintf(out, "telemetry written to %s\n", csvPath)
	}
	return nil
}

func writeCSV(w io.Writer, samples []game.Telemetry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "speed_kmh", "rpm", "gear", "x", "y", "z", "drive_force", "skidding"}); err != nil {
		return err
	}
	f := func(v float32) string { return strconv.FormatFloat(float64(v), 'f', 4, 32) }
	for _, t := range samples {
		row := []string{
			f(t.Time), f(t.SpeedKmh), f(t.RPM), strconv.Itoa(t.Gear),
			f(t.Position.X), f(t.Position.Y), f(t.Position.Z),
			f(t.DriveForce), strconv.FormatBool(t.AnySkidding()),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
