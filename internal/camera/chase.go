package camera

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ChaseCamera trails a moving target, staying Distance behind and Height
// above it along the target's heading.
type ChaseCamera struct {
	Position rl.Vector3
	Target   rl.Vector3

	Distance float32
	Height   float32
	// Stiffness is how quickly the camera closes on its ideal spot, per second.
	Stiffness float32
	// Orbit turns the camera around the target, in degrees.
	Orbit     float32
	LookSpeed float32
	MinDist   float32
	MaxDist   float32
	Fovy      float32

	heading rl.Vector3
	placed  bool
}

func NewChase(distance, height float32) *ChaseCamera {
	return &ChaseCamera{
		Distance:  distance,
		Height:    height,
		Stiffness: 5,
		LookSpeed: 0.3,
		MinDist:   3,
		MaxDist:   40,
		Fovy:      60,
		heading:   rl.Vector3{Z: 1},
	}
}

// HandleInput orbits with the right mouse button held and zooms with the wheel.
func (c *ChaseCamera) HandleInput() {
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		c.Orbit += rl.GetMouseDelta().X * c.LookSpeed
	}
	if rl.IsKeyPressed(rl.KeyR) {
		c.Orbit = 0
	}
	c.Zoom(-rl.GetMouseWheelMove())
}

func (c *ChaseCamera) Zoom(d float32) {
	c.Distance = min(max(c.Distance+d, c.MinDist), c.MaxDist)
}

// desired returns where the camera wants to be for a target and heading.
func (c *ChaseCamera) desired(target rl.Vector3) rl.Vector3 {
	back := rl.Vector3RotateByAxisAngle(c.heading, rl.Vector3{Y: 1}, c.Orbit*rl.Deg2rad)
	pos := rl.Vector3Subtract(target, rl.Vector3Scale(back, c.Distance))
	pos.Y += c.Height
	return pos
}

// Follow eases the camera toward its spot behind target. Only the horizontal
// part of forward counts, so the view does not flip when the car rolls.
func (c *ChaseCamera) Follow(target, forward rl.Vector3, dt float32) {
	flat := rl.Vector3{X: forward.X, Z: forward.Z}
	if rl.Vector3Length(flat) > 1e-3 {
		c.heading = rl.Vector3Normalize(flat)
	}
	want := c.desired(target)
	c.Target = target
	if !c.placed {
		c.Position = want
		c.placed = true
		return
	}
	t := float32(1 - math.Exp(float64(-c.Stiffness*dt)))
	c.Position = rl.Vector3Lerp(c.Position, want, t)
}

// Snap jumps straight to the ideal spot, e.g. after a respawn.
func (c *ChaseCamera) Snap(target, forward rl.Vector3) {
	c.placed = false
	c.Follow(target, forward, 0)
}

func (c *ChaseCamera) GetRaylibCamera() rl.Camera3D {
	return rl.Camera3D{
		Position:   c.Position,
		Target:     c.Target,
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       c.Fovy,
		Projection: rl.CameraPerspective,
	}
}
