package main

import (
	"fmt"
	"strconv"

	"drivesim/internal/components"
	"drivesim/internal/engine"
	"drivesim/internal/game"
	"drivesim/internal/physics"
	"drivesim/internal/vehicle"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
)

var (
	dropHeight  float32
	dropSphere  bool
	dropSurface string
)

// settleSpeed is the vertical speed below which a body counts as resting.
const settleSpeed = 0.1

func newDropCmd() *cobra.Command {
	dropCmd := &cobra.Command{
		Use:   "drop",
		Short: "drop the car or a ball and plot its height",
		RunE:  runDrop,
	}
	dropCmd.Flags().Float32Var(&dropHeight, "height", 2, "drop height above the resting spawn pose in meters")
	dropCmd.Flags().BoolVar(&dropSphere, "sphere", false, "drop a ball next to the car instead of the car")
	dropCmd.Flags().StringVar(&dropSurface, "surface", "rubber", "surface of the dropped ball")
	return dropCmd
}

type dropResult struct {
	Heights []float64
	Max     float32
	Min     float32
	Final   float32
	// Settle is the simulated time after which the body stayed at rest, or
	// -1 if it never did.
	Settle  float32
	Bounces int
}

// dropBall adds a ball above the spawn point, offset sideways from the car.
func dropBall(sim *game.Simulation, height float32, surface string) (*physics.DynamicPhysicsObject, error) {
	pose := sim.SpawnPose()
	ball := engine.NewGameObject("ball")
	ball.Tags = []string{"ball"}
	ball.Transform.Position = rl.Vector3{X: pose.Position.X + 3, Y: pose.Position.Y + height, Z: pose.Position.Z}
	ball.AddComponent(components.NewSphereCollider(0.5))
	rb := components.NewRigidbody()
	rb.Mass = 5
	ball.AddComponent(rb)
	ball.AddComponent(components.NewMeshRenderer(components.MeshSphere, rl.Black, rl.Vector3{X: 0.5}))

	w := sim.World
	w.Scene.Lock()
	defer w.Scene.Unlock()
	if err := w.AddObject(ball); err != nil {
		return nil, err
	}
	if err := w.SetSurface(ball, surface); err != nil {
		w.RemoveObject(ball)
		return nil, err
	}
	po, ok := w.PhysicsObject(ball).(*physics.DynamicPhysicsObject)
	if !ok {
		w.RemoveObject(ball)
		return nil, fmt.Errorf("ball has no rigidbody")
	}
	return po, nil
}

func dropCar(sim *game.Simulation, height float32) *physics.DynamicPhysicsObject {
	pose := sim.SpawnPose()
	pose.Position.Y += height
	sim.Drive(func(c *vehicle.Car) {
		c.Teleport(pose.Position, pose.Rotation)
		c.Stop()
	})
	return sim.Car.Chassis
}

// observe ticks sim for the given time and samples the height of body.
func observe(sim *game.Simulation, body *physics.DynamicPhysicsObject, seconds float32) dropResult {
	step := sim.World.Physics.StepSize()
	n := int(seconds / step)
	res := dropResult{Heights: make([]float64, 0, n), Settle: -1}
	var lastVy float32
	for i := range n {
		sim.Tick(step)
		sim.World.Scene.RLock()
		y := body.Position().Y
		vy := body.LinearVelocity().Y
		sim.World.Scene.RUnlock()

		res.Heights = append(res.Heights, float64(y))
		if i == 0 {
			res.Max, res.Min = y, y
		}
		res.Max = max(res.Max, y)
		res.Min = min(res.Min, y)
		res.Final = y
		if lastVy < -settleSpeed && vy > settleSpeed {
			res.Bounces++
		}
		if vy > settleSpeed || vy < -settleSpeed {
			res.Settle = -1
		} else if res.Settle < 0 {
			res.Settle = float32(i+1) * step
		}
		lastVy = vy
	}
	return res
}

func runDrop(cmd *cobra.Command, args []string) error {
	sim, err := newSimulation(cmd)
	if err != nil {
		return err
	}
	defer sim.Close()

	what := sim.Config.Car.Name
	var body *physics.DynamicPhysicsObject
	if dropSphere {
		what = dropSurface + " ball"
		if body, err = dropBall(sim, dropHeight, dropSurface); err != nil {
			return err
		}
	} else {
		body = dropCar(sim, dropHeight)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "dropping %s from %.1fm...\n", what, dropHeight)
	res := observe(sim, body, sim.Config.Duration)
	if len(res.Heights) == 0 {
		return fmt.Errorf("duration %.2fs is shorter than one step", sim.Config.Duration)
	}

	fmt.Fprintln(out, asciigraph.Plot(res.Heights,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("height (m)")))
	fmt.Fprintln(out)

	settle := "never"
	if res.Settle >= 0 {
		settle = fmt.Sprintf("%.2f s", res.Settle)
	}
	fmt.Fprint(out, summary("drop", [][2]string{
		{"body", what},
		{"max height", fmt.Sprintf("%.3f m", res.Max)},
		{"min height", fmt.Sprintf("%.3f m", res.Min)},
		{"final height", fmt.Sprintf("%.3f m", res.Final)},
		{"bounces", strconv.Itoa(res.Bounces)},
		{"at rest after", settle},
	}))
	return nil
}
