package main

import (
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"text/tabwriter"
	"time"

	"drivesim/internal/components"
	"drivesim/internal/compute"
	"drivesim/internal/engine"
	"drivesim/internal/physics"
	"drivesim/internal/world"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/spf13/cobra"
)

var (
	stressCounts []int
	stressSteps  int
	stressGPU    bool
)

func newStressCmd() *cobra.Command {
	stressCmd := &cobra.Command{
		Use:   "stress",
		Short: "time physics steps over growing piles of spheres",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stressSteps <= 0 {
				return fmt.Errorf("--steps must be positive, got %d", stressSteps)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("physics stress"))
			var dev *compute.Device
			if stressGPU {
				d, err := compute.Open()
				if err != nil {
					return fmt.Errorf("gpu broad phase: %w", err)
				}
				defer d.Close()
				fmt.Fprintln(out, labelStyle.Render("gpu ")+valueStyle.Render(d.Info().String()))
				dev = d
			}
			return stress(out, stressCounts, stressSteps, dev)
		},
	}
	stressCmd.Flags().IntSliceVar(&stressCounts, "counts", []int{100, 500, 1000}, "sphere counts to test")
	stressCmd.Flags().IntVar(&stressSteps, "steps", 100, "steps to time per run")
	stressCmd.Flags().BoolVar(&stressGPU, "gpu", false, "also time the bounding sphere broad phase on the CPU and the GPU")
	return stressCmd
}

type stressResult struct {
	Count    int
	Mode     physics.StepFunction
	PerStep  time.Duration
	Contacts float64

	// Broad phase over the final bounding spheres, set when timed.
	Pairs   int
	CPUTime time.Duration
	GPUTime time.Duration
}

func stress(out io.Writer, counts []int, steps int, dev *compute.Device) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	if dev != nil {
		fmt.Fprintln(tw, "spheres\tsolver\tper step\tcollisions/step\tpairs\tcpu broad phase\tgpu broad phase\t")
	} else {
		fmt.Fprintln(tw, "spheres\tsolver\tper step\tcollisions/step\t")
	}
	for _, count := range counts {
		for _, mode := range []physics.StepFunction{physics.StepSimulation, physics.StepQuick, physics.StepFast} {
			r, err := stressRun(count, mode, steps, dev)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%d\t%s\t%v\t%.1f\t", r.Count, r.Mode, r.PerStep.Round(time.Microsecond), r.Contacts)
			if dev != nil {
				fmt.Fprintf(tw, "%d\t%v\t%v\t", r.Pairs, r.CPUTime.Round(time.Microsecond), r.GPUTime.Round(time.Microsecond))
			}
			fmt.Fprintln(tw)
		}
	}
	return tw.Flush()
}

// stressRun drops count random spheres onto a ground plane and times steps
// solver steps. With a device it also times the broad phase over the pile
// as it lies after the last step.
func stressRun(count int, mode physics.StepFunction, steps int, dev *compute.Device) (stressResult, error) {
	pw := physics.NewPhysicsWorld()
	defer pw.Cleanup()
	pw.SetStepFunction(mode)
	pw.SetUpdateRate(0)
	pw.SetPhysicsCallback(physics.MaterialCallback)
	w := world.New("stress", pw)
	defer w.Clear()

	ground := engine.NewGameObject("ground")
	ground.AddComponent(components.NewPlaneCollider(rl.Vector3{Y: 1}, 0))
	if err := w.AddObject(ground); err != nil {
		return stressResult{}, err
	}

	// Consistent results; the pile widens with the count to keep density reasonable
	rng := rand.New(rand.NewPCG(42, 42))
	spawnSize := float32(20) + float32(count)/50
	for i := range count {
		g := engine.NewGameObject(fmt.Sprintf("sphere_%d", i))
		radius := 0.25 + rng.Float32()*0.25
		g.Transform.Position = rl.Vector3{
			X: rng.Float32()*spawnSize - spawnSize/2,
			Y: 1 + rng.Float32()*spawnSize/2,
			Z: rng.Float32()*spawnSize - spawnSize/2,
		}
		g.AddComponent(components.NewSphereCollider(radius))
		g.AddComponent(components.NewRigidbody())
		if err := w.AddObject(g); err != nil {
			return stressResult{}, err
		}
	}

	// Warm up
	pw.Update(pw.StepSize())

	collisions := 0
	start := time.Now()
	for range steps {
		res := pw.Update(pw.StepSize())
		collisions += len(res.Collisions)
	}
	elapsed := time.Since(start)

	r := stressResult{
		Count:    count,
		Mode:     mode,
		PerStep:  elapsed / time.Duration(steps),
		Contacts: float64(collisions) / float64(steps),
	}
	if dev != nil {
		if err := timeBroadPhase(dev, w, &r); err != nil {
			return r, err
		}
	}
	return r, nil
}

func timeBroadPhase(dev *compute.Device, w *world.World, r *stressResult) error {
	_, spheres := w.BoundingSpheres()
	start := time.Now()
	cpu := compute.Overlaps(spheres)
	r.CPUTime = time.Since(start)
	r.Pairs = len(cpu)

	n := uint32(max(len(spheres), 1))
	bp, err := compute.NewBroadPhase(dev, n, n*20)
	if err != nil {
		return err
	}
	defer bp.Release()
	// Warm up
	if _, err := bp.Overlaps(spheres); err != nil {
		return err
	}
	start = time.Now()
	gpu, err := bp.Overlaps(spheres)
	r.GPUTime = time.Since(start)
	if err != nil {
		return err
	}
	if len(gpu) != len(cpu) {
		log.Printf("Compute: gpu found %d pairs, cpu %d", len(gpu), len(cpu))
	}
	return nil
}
