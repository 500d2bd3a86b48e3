package camera

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// FreeCamera flies around the scene with WASD, Q/E for height and the
// mouse for looking.
type FreeCamera struct {
	Position  rl.Vector3
	Yaw       float32
	Pitch     float32
	MoveSpeed float32
	LookSpeed float32
}

func NewFree(pos rl.Vector3) *FreeCamera {
	return &FreeCamera{
		Position:  pos,
		Yaw:       90.0,
		Pitch:     -20.0,
		MoveSpeed: 15.0, // Units per second
		LookSpeed: 0.1,
	}
}

func (c *FreeCamera) Update(deltaTime float32) {
	// Mouse look
	mouseDelta := rl.GetMouseDelta()
	c.Look(mouseDelta.X*c.LookSpeed, -mouseDelta.Y*c.LookSpeed)

	forward, right := c.getDirections()

	var moveDir rl.Vector3
	if rl.IsKeyDown(rl.KeyW) {
		moveDir = rl.Vector3Add(moveDir, forward)
	}
	if rl.IsKeyDown(rl.KeyS) {
		moveDir = rl.Vector3Subtract(moveDir, forward)
	}
	if rl.IsKeyDown(rl.KeyA) {
		moveDir = rl.Vector3Add(moveDir, right)
	}
	if rl.IsKeyDown(rl.KeyD) {
		moveDir = rl.Vector3Subtract(moveDir, right)
	}
	if rl.IsKeyDown(rl.KeyE) {
		moveDir.Y++
	}
	if rl.IsKeyDown(rl.KeyQ) {
		moveDir.Y--
	}
	c.Move(moveDir, deltaTime)
}

// Look turns the camera by the given degrees, clamping pitch short of
// straight up or down.
func (c *FreeCamera) Look(dYaw, dPitch float32) {
	c.Yaw += dYaw
	c.Pitch = min(max(c.Pitch+dPitch, -89), 89)
}

// Move travels along dir at MoveSpeed. Diagonals are normalized so they are
// no faster than straight moves.
func (c *FreeCamera) Move(dir rl.Vector3, deltaTime float32) {
	if rl.Vector3Length(dir) == 0 {
		return
	}
	step := rl.Vector3Scale(rl.Vector3Normalize(dir), c.MoveSpeed*deltaTime)
	c.Position = rl.Vector3Add(c.Position, step)
}

// getDirections returns the horizontal forward and left vectors.
func (c *FreeCamera) getDirections() (forward, right rl.Vector3) {
	yawRad := float64(c.Yaw) * math.Pi / 180
	forward = rl.Vector3{
		X: float32(math.Cos(yawRad)),
		Y: 0,
		Z: float32(math.Sin(yawRad)),
	}
	right = rl.Vector3{
		X: float32(math.Sin(yawRad)),
		Y: 0,
		Z: float32(-math.Cos(yawRad)),
	}
	return
}

func (c *FreeCamera) GetRaylibCamera() rl.Camera3D {
	yawRad := float64(c.Yaw) * math.Pi / 180
	pitchRad := float64(c.Pitch) * math.Pi / 180

	target := rl.Vector3{
		X: c.Position.X + float32(math.Cos(yawRad)*math.Cos(pitchRad)),
		Y: c.Position.Y + float32(math.Sin(pitchRad)),
		Z: c.Position.Z + float32(math.Sin(yawRad)*math.Cos(pitchRad)),
	}

	return rl.Camera3D{
		Position:   c.Position,
		Target:     target,
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
}
