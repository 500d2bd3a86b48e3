package camera

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
)

func assertVec(t *testing.T, want, got rl.Vector3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-4)
	assert.InDelta(t, want.Y, got.Y, 1e-4)
	assert.InDelta(t, want.Z, got.Z, 1e-4)
}

func TestChaseCameraSitsBehindTarget(t *testing.T) {
	c := NewChase(8, 3)
	target := rl.Vector3{X: 1, Y: 1, Z: 1}

	c.Follow(target, rl.Vector3{Z: 1}, 0.016)
	assertVec(t, rl.Vector3{X: 1, Y: 4, Z: -7}, c.Position)
	assert.Equal(t, target, c.GetRaylibCamera().Target)

	// rolled or pitched headings only use their horizontal part
	c.Snap(target, rl.Vector3{X: 1, Y: 5})
	assertVec(t, rl.Vector3{X: -7, Y: 4, Z: 1}, c.Position)
}

func TestChaseCameraEasesTowardTarget(t *testing.T) {
	c := NewChase(8, 3)
	c.Follow(rl.Vector3{}, rl.Vector3{Z: 1}, 0.016)
	start := c.Position

	c.Follow(rl.Vector3{Z: 10}, rl.Vector3{Z: 1}, 0.1)
	assert.Greater(t, c.Position.Z, start.Z)
	assert.Less(t, c.Position.Z, float32(2), "one frame does not catch up fully")

	for range 200 {
		c.Follow(rl.Vector3{Z: 10}, rl.Vector3{Z: 1}, 0.1)
	}
	assertVec(t, rl.Vector3{Y: 3, Z: 2}, c.Position)
}

func TestChaseCameraKeepsHeadingWhenVertical(t *testing.T) {
	c := NewChase(5, 2)
	c.Follow(rl.Vector3{}, rl.Vector3{X: -1}, 0.016)
	c.Follow(rl.Vector3{}, rl.Vector3{Y: 1}, 10)
	assertVec(t, rl.Vector3{X: 5, Y: 2}, c.Position)
}

func TestChaseCameraZoomAndOrbit(t *testing.T) {
	c := NewChase(8, 0)
	c.Zoom(100)
	assert.Equal(t, c.MaxDist, c.Distance)
	c.Zoom(-100)
	assert.Equal(t, c.MinDist, c.Distance)

	c.Orbit = 180
	c.Snap(rl.Vector3{}, rl.Vector3{Z: 1})
	assertVec(t, rl.Vector3{Z: c.MinDist}, c.Position)
}

func TestFreeCameraLookAndMove(t *testing.T) {
	c := NewFree(rl.Vector3{})
	c.Pitch = 0
	c.Look(0, 200)
	assert.Equal(t, float32(89), c.Pitch)
	c.Look(0, -400)
	assert.Equal(t, float32(-89), c.Pitch)

	c.Pitch = 0
	c.Yaw = 90
	forward, _ := c.getDirections()
	c.Move(rl.Vector3Add(forward, rl.Vector3{Y: 1}), 1)
	assert.InDelta(t, c.MoveSpeed, rl.Vector3Length(c.Position), 1e-4, "diagonals are normalized")

	cam := c.GetRaylibCamera()
	assertVec(t, rl.Vector3Add(cam.Position, rl.Vector3{Z: 1}), cam.Target)

	c.Move(rl.Vector3{}, 1)
	assert.InDelta(t, c.MoveSpeed, rl.Vector3Length(c.Position), 1e-4)
}
