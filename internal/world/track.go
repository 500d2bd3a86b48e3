package world

import (
	"fmt"
	"math/rand/v2"

	"drivesim/internal/components"
	"drivesim/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// TrackOptions controls the procedural test track.
type TrackOptions struct {
	Size  float32 // side length of the walled ground square
	Ramps int
	Cones int
	Seed  uint64
}

func DefaultTrackOptions() TrackOptions {
	return TrackOptions{Size: 200, Ramps: 4, Cones: 8, Seed: 1}
}

var (
	groundColor = rl.Color{R: 96, G: 104, B: 96, A: 255}
	wallColor   = rl.Gray
	rampColor   = rl.Brown
	coneColor   = rl.Orange
)

// BuildTrack fills the world with a walled ground square, a slalom of loose
// cones ahead of the spawn point and ramps scattered off the slalom lane.
func BuildTrack(w *World, opts TrackOptions) error {
	if !(opts.Size > 20) {
		return fmt.Errorf("track size %v must exceed 20", opts.Size)
	}
	w.Scene.Name = "track"
	w.Spawn = Pose{Rotation: rl.QuaternionIdentity()}

	ground := engine.NewGameObject("ground")
	ground.Tags = []string{"ground"}
	ground.AddComponent(components.NewPlaneCollider(rl.Vector3{Y: 1}, 0))
	ground.AddComponent(components.NewMeshRenderer(components.MeshPlane, groundColor, rl.Vector3{X: opts.Size, Z: opts.Size}))
	if err := w.AddObject(ground); err != nil {
		return err
	}
	if err := w.SetSurface(ground, "asphalt"); err != nil {
		return err
	}

	half := opts.Size / 2
	walls := []struct {
		pos  rl.Vector3
		size rl.Vector3
	}{
		{rl.Vector3{Y: 1, Z: half}, rl.Vector3{X: opts.Size, Y: 2, Z: 1}},
		{rl.Vector3{Y: 1, Z: -half}, rl.Vector3{X: opts.Size, Y: 2, Z: 1}},
		{rl.Vector3{X: half, Y: 1}, rl.Vector3{X: 1, Y: 2, Z: opts.Size}},
		{rl.Vector3{X: -half, Y: 1}, rl.Vector3{X: 1, Y: 2, Z: opts.Size}},
	}
	for i, wall := range walls {
		g := box(fmt.Sprintf("wall_%d", i), wall.pos, wall.size, wallColor)
		g.Tags = []string{"wall"}
		if err := w.AddObject(g); err != nil {
			return err
		}
	}

	for i := range opts.Cones {
		x := float32(2)
		if i%2 == 1 {
			x = -2
		}
		pos := rl.Vector3{X: x, Y: 0.4, Z: 15 + float32(i)*6}
		if pos.Z > half-5 {
			break
		}
		g := box(fmt.Sprintf("cone_%d", i), pos, rl.Vector3{X: 0.4, Y: 0.8, Z: 0.4}, coneColor)
		g.Tags = []string{"cone"}
		rb := components.NewRigidbody()
		rb.Mass = 5
		rb.Friction = 0.8
		g.AddComponent(rb)
		if err := w.AddObject(g); err != nil {
			return err
		}
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	for i := range opts.Ramps {
		// keep ramps off the slalom lane and away from the walls
		side := float32(1)
		if i%2 == 1 {
			side = -1
		}
		x := side * (12 + rng.Float32()*(half-25))
		z := (rng.Float32()*2 - 1) * (half - 15)
		g := box(fmt.Sprintf("ramp_%d", i), rl.Vector3{X: x, Y: 0.6, Z: z}, rl.Vector3{X: 6, Y: 0.4, Z: 10}, rampColor)
		g.Tags = []string{"ramp"}
		g.Transform.SetEulerDegrees(rl.Vector3{X: -8, Y: rng.Float32() * 360})
		if err := w.AddObject(g); err != nil {
			return err
		}
		if err := w.SetSurface(g, "concrete"); err != nil {
			return err
		}
	}
	return nil
}

func box(name string, pos, size rl.Vector3, color rl.Color) *engine.GameObject {
	g := engine.NewGameObject(name)
	g.Transform.Position = pos
	g.AddComponent(components.NewBoxCollider(size))
	g.AddComponent(components.NewMeshRenderer(components.MeshCube, color, size))
	return g
}
