package physics

import (
	"math"
	"testing"

	"drivesim/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGround(t *testing.T, p *PhysicsWorld) *StaticPhysicsObject {
	t.Helper()
	ground, err := NewStaticPhysicsObject(engine.NewGameObject("ground"), PlaneShape{Normal: rl.Vector3{Y: 1}})
	require.NoError(t, err)
	require.True(t, p.AddObject(ground))
	return ground
}

func newBall(t *testing.T, p *PhysicsWorld, name string, pos rl.Vector3, radius float32) *DynamicPhysicsObject {
	t.Helper()
	g := engine.NewGameObject(name)
	g.Transform.Position = pos
	ball, err := NewDynamicPhysicsObject(g, 1, SphereShape{Radius: radius})
	require.NoError(t, err)
	require.True(t, p.AddObject(ball))
	return ball
}

func TestSphereDropSettlesOnGround(t *testing.T) {
	p := NewPhysicsWorld()
	p.SetStepFunction(StepSimulation)
	p.SetStepSize(0.02)
	newGround(t, p)
	ball := newBall(t, p, "ball", rl.Vector3{Y: 10}, 0.5)

	heights := make([]float32, 0, 250)
	for range 250 {
		p.Update(0.02)
		heights = append(heights, ball.Position().Y)
	}

	// free fall reaches the ground after about 70 steps
	for i := 1; i < 60; i++ {
		require.Less(t, heights[i], heights[i-1], "step %d", i)
	}
	var early, late float32
	for i := range 125 {
		early += heights[i]
		late += heights[125+i]
	}
	assert.Less(t, late, early, "height trends down")

	assert.InDelta(t, 0.5, ball.Position().Y, 0.05)
	assert.InDelta(t, 0, ball.LinearVelocity().Y, 0.1)
	// synchronizer wrote the pose back
	assert.InDelta(t, ball.Position().Y, ball.Spatial().Transform.Position.Y, 1e-5)
	assert.Equal(t, uint64(250), p.Steps())
}

func TestAddRemoveObject(t *testing.T) {
	p := NewPhysicsWorld()
	ball := newBall(t, p, "ball", rl.Vector3{Y: 2}, 0.5)

	assert.False(t, p.AddObject(ball), "second add must be rejected")
	assert.True(t, p.ContainsObject(ball))
	assert.Equal(t, 1, p.NumberOfObjects())
	assert.Equal(t, 1, p.Synchronizer().Len())

	other := NewPhysicsWorld()
	assert.False(t, other.AddObject(ball), "object attached elsewhere")

	assert.True(t, p.RemoveObject(ball))
	assert.False(t, p.RemoveObject(ball))
	assert.False(t, p.ContainsObject(ball))
	assert.Equal(t, 0, p.NumberOfObjects())
	assert.Equal(t, 0, p.Synchronizer().Len())
	assert.Equal(t, 0, p.Space().NumGeoms())

	assert.True(t, other.AddObject(ball))
}

func TestAddObjectPushesGraphicalPose(t *testing.T) {
	p := NewPhysicsWorld()
	g := engine.NewGameObject("ball")
	ball, err := NewDynamicPhysicsObject(g, 1, SphereShape{Radius: 0.5})
	require.NoError(t, err)

	g.Transform.Position = rl.Vector3{X: 3, Y: 4, Z: 5}
	require.True(t, p.AddObject(ball))
	assert.Equal(t, rl.Vector3{X: 3, Y: 4, Z: 5}, ball.Position())
}

func TestUpdateRateThrottlesSteps(t *testing.T) {
	p := NewPhysicsWorld()
	p.SetGravity(rl.Vector3{})
	p.SetUpdateRate(10)

	res := p.Update(0.35)
	assert.True(t, res.Updated)
	assert.Equal(t, uint64(3), p.Steps())

	// 0.05 left over plus 0.04 is still short of one interval
	res = p.Update(0.04)
	assert.False(t, res.Updated)
	assert.Equal(t, uint64(3), p.Steps())

	res = p.Update(0.02)
	assert.True(t, res.Updated)
	assert.Equal(t, uint64(4), p.Steps())
}

func TestUnthrottledRunsOneStepPerUpdate(t *testing.T) {
	p := NewPhysicsWorld()
	for range 5 {
		res := p.Update(0.3)
		assert.True(t, res.Updated)
	}
	assert.Equal(t, uint64(5), p.Steps())
}

func TestInvalidDeltaIsClamped(t *testing.T) {
	p := NewPhysicsWorld()
	p.SetUpdateRate(4)

	assert.NotPanics(t, func() { p.Update(float32(math.NaN())) })
	assert.Equal(t, uint64(4), p.Steps(), "NaN counts as one second")

	p.Update(50)
	assert.Equal(t, uint64(8), p.Steps(), "large dt clamps to one second")

	res := p.Update(-3)
	assert.False(t, res.Updated)
	assert.Equal(t, uint64(8), p.Steps())
}

func TestWarmUpSkipsUserHooks(t *testing.T) {
	p := NewPhysicsWorld()
	rec := &recordingAction{}
	p.AddUpdateAction(rec)
	ball := newBall(t, p, "ball", rl.Vector3{Y: 10}, 0.5)

	p.WarmUp(10)

	assert.Equal(t, uint64(10), p.Steps())
	assert.Zero(t, rec.steps)
	assert.Less(t, ball.Spatial().Transform.Position.Y, float32(10), "synchronizer still runs")
}

type recordingAction struct {
	BaseUpdateAction
	order []string
	steps int
}

func (r *recordingAction) BeforeUpdate(*PhysicsWorld) { r.order = append(r.order, "beforeUpdate") }
func (r *recordingAction) BeforeStep(*PhysicsWorld)   { r.order = append(r.order, "beforeStep"); r.steps++ }
func (r *recordingAction) AfterStep(*PhysicsWorld)    { r.order = append(r.order, "afterStep") }
func (r *recordingAction) AfterUpdate(*PhysicsWorld)  { r.order = append(r.order, "afterUpdate") }

func TestUpdateActionOrder(t *testing.T) {
	p := NewPhysicsWorld()
	p.SetUpdateRate(50)
	rec := &recordingAction{}
	p.AddUpdateAction(rec)
	p.AddUpdateAction(rec)

	p.Update(0.04)

	assert.Equal(t, []string{
		"beforeUpdate",
		"beforeStep", "afterStep",
		"beforeStep", "afterStep",
		"afterUpdate",
	}, rec.order)

	assert.False(t, p.RemoveUpdateAction(p.Synchronizer()))
	assert.True(t, p.RemoveUpdateAction(rec))
	assert.False(t, p.RemoveUpdateAction(rec))
}

func TestSynchronizerInvertsParentTransform(t *testing.T) {
	p := NewPhysicsWorld()
	p.SetGravity(rl.Vector3{})

	parent := engine.NewGameObject("parent")
	parent.Transform.Position = rl.Vector3{X: 1, Y: 2, Z: 3}
	parent.Transform.SetEulerDegrees(rl.Vector3{Y: 90})
	parent.Transform.Scale = rl.Vector3{X: 2, Y: 2, Z: 2}

	child := engine.NewGameObject("child")
	child.Transform.Position = rl.Vector3{X: 1}
	parent.AddChild(child)

	obj, err := NewDynamicPhysicsObject(child, 1, SphereShape{Radius: 0.5})
	require.NoError(t, err)
	require.True(t, p.AddObject(obj))

	start := child.WorldPosition()
	assert.InDelta(t, start.X, obj.Position().X, 1e-4)
	assert.InDelta(t, start.Z, obj.Position().Z, 1e-4)

	obj.SetLinearVelocity(rl.Vector3{X: 1, Y: 0.5})
	for range 10 {
		p.Update(0.02)
	}

	world := child.WorldPosition()
	body := obj.Position()
	assert.InDelta(t, body.X, world.X, 1e-4)
	assert.InDelta(t, body.Y, world.Y, 1e-4)
	assert.InDelta(t, body.Z, world.Z, 1e-4)

	rot := child.WorldRotation()
	brot := obj.Rotation()
	dot := rot.X*brot.X + rot.Y*brot.Y + rot.Z*brot.Z + rot.W*brot.W
	assert.InDelta(t, 1, math.Abs(float64(dot)), 1e-4)
}

func TestSynchronizerSyncsParentsFirst(t *testing.T) {
	p := NewPhysicsWorld()
	p.SetGravity(rl.Vector3{})

	parent := engine.NewGameObject("parent")
	child := engine.NewGameObject("child")
	child.Transform.Position = rl.Vector3{Y: 2}
	parent.AddChild(child)

	// register the child first so ordering has to be fixed up
	childObj, err := NewDynamicPhysicsObject(child, 1, SphereShape{Radius: 0.25})
	require.NoError(t, err)
	parentObj, err := NewDynamicPhysicsObject(parent, 1, SphereShape{Radius: 0.25})
	require.NoError(t, err)
	require.True(t, p.AddObject(childObj))
	require.True(t, p.AddObject(parentObj))

	parentObj.SetLinearVelocity(rl.Vector3{X: 5})
	for range 5 {
		p.Update(0.02)
	}

	assert.InDelta(t, childObj.Position().X, child.WorldPosition().X, 1e-4)
	assert.InDelta(t, childObj.Position().Y, child.WorldPosition().Y, 1e-4)
	assert.InDelta(t, parentObj.Position().X, parent.WorldPosition().X, 1e-4)
}

func TestSynchronizerIsStableForRestingBody(t *testing.T) {
	p := NewPhysicsWorld()
	p.SetGravity(rl.Vector3{})

	parent := engine.NewGameObject("parent")
	parent.Transform.Position = rl.Vector3{X: -2, Y: 1, Z: 4}
	parent.Transform.SetEulerDegrees(rl.Vector3{X: 20, Y: 45})
	parent.Transform.Scale = rl.Vector3{X: 2, Y: 2, Z: 2}

	child := engine.NewGameObject("child")
	child.Transform.Position = rl.Vector3{X: 1, Y: 0.5}
	child.Transform.SetEulerDegrees(rl.Vector3{Z: 30})
	parent.AddChild(child)

	obj, err := NewDynamicPhysicsObject(child, 1, BoxShape{Size: rl.Vector3{X: 1, Y: 1, Z: 1}})
	require.NoError(t, err)
	require.True(t, p.AddObject(obj))

	p.Update(0.02)
	first := child.Transform
	p.Update(0.02)
	second := child.Transform

	assert.InDelta(t, first.Position.X, second.Position.X, 1e-6)
	assert.InDelta(t, first.Position.Y, second.Position.Y, 1e-6)
	assert.InDelta(t, first.Position.Z, second.Position.Z, 1e-6)
	assert.InDelta(t, first.Rotation.X, second.Rotation.X, 1e-6)
	assert.InDelta(t, first.Rotation.Y, second.Rotation.Y, 1e-6)
	assert.InDelta(t, first.Rotation.Z, second.Rotation.Z, 1e-6)
	assert.InDelta(t, first.Rotation.W, second.Rotation.W, 1e-6)
	assert.Equal(t, first.Scale, second.Scale)
}

func TestDisabledObjectDoesNotMove(t *testing.T) {
	p := NewPhysicsWorld()
	ball := newBall(t, p, "ball", rl.Vector3{Y: 3}, 0.5)
	ball.SetEnabled(false)

	for range 20 {
		p.Update(0.02)
	}
	assert.Equal(t, float32(3), ball.Position().Y)
	assert.False(t, ball.Enabled())
	for _, g := range ball.geoms {
		assert.False(t, g.Enabled())
	}
}

func TestNonFiniteInputsAreSkipped(t *testing.T) {
	p := NewPhysicsWorld()
	ball := newBall(t, p, "ball", rl.Vector3{Y: 3}, 0.5)
	nan := float32(math.NaN())

	ball.AddForce(rl.Vector3{X: nan})
	ball.AddTorque(rl.Vector3{Y: float32(math.Inf(1))})
	ball.SetLinearVelocity(rl.Vector3{Z: nan})
	assert.Equal(t, rl.Vector3{}, ball.Force())
	assert.Equal(t, rl.Vector3{}, ball.Torque())
	assert.Equal(t, rl.Vector3{}, ball.LinearVelocity())

	ball.AddForce(rl.Vector3{X: 2})
	assert.Equal(t, float32(2), ball.Force().X)
}

func TestScaleChangeRebuildsShapes(t *testing.T) {
	p := NewPhysicsWorld()
	ball := newBall(t, p, "ball", rl.Vector3{Y: 3}, 0.5)
	g := ball.geoms[0]

	ball.Spatial().Transform.Scale = rl.Vector3{X: 2, Y: 2, Z: 2}
	p.Update(0.02)
	assert.InDelta(t, 1.0, g.Radius(), 1e-6)

	// non-uniform scale on a sphere is rejected and the old size kept
	ball.Spatial().Transform.Scale = rl.Vector3{X: 1, Y: 3, Z: 1}
	p.Update(0.02)
	assert.InDelta(t, 1.0, g.Radius(), 1e-6)
	assert.True(t, ball.warnedScale)
}

func TestConstructorErrors(t *testing.T) {
	g := engine.NewGameObject("bad")

	_, err := NewDynamicPhysicsObject(g, 0, SphereShape{Radius: 1})
	assert.ErrorIs(t, err, ErrInvalidMass)

	_, err = NewDynamicPhysicsObject(g, 1, PlaneShape{Normal: rl.Vector3{Y: 1}})
	assert.ErrorIs(t, err, ErrStaticPlane)

	_, err = NewDynamicPhysicsObject(g, 1)
	assert.ErrorIs(t, err, ErrNoBoundingVolume)

	g.Transform.Scale = rl.Vector3{X: 1, Y: 2, Z: 1}
	_, err = NewDynamicPhysicsObject(g, 1, SphereShape{Radius: 1})
	assert.ErrorIs(t, err, ErrNonUniformScale)

	// axis-aligned boxes accept any positive scale
	_, err = NewDynamicPhysicsObject(g, 1, BoxShape{Size: rl.Vector3{X: 1, Y: 1, Z: 1}})
	assert.NoError(t, err)

	g.Transform.Scale = rl.Vector3{X: 0, Y: 1, Z: 1}
	_, err = NewStaticPhysicsObject(g, BoxShape{Size: rl.Vector3{X: 1, Y: 1, Z: 1}})
	assert.ErrorIs(t, err, ErrNoBoundingVolume)
}

func TestRaycastFindsGround(t *testing.T) {
	p := NewPhysicsWorld()
	ground := newGround(t, p)
	ball := newBall(t, p, "ball", rl.Vector3{Y: 3}, 0.5)

	hit, ok := p.Raycast(rl.Vector3{Y: 10}, rl.Vector3{Y: -1}, 100)
	require.True(t, ok)
	assert.Equal(t, PhysicsObject(ball), hit.Object)
	assert.InDelta(t, 3.5, hit.Point.Y, 1e-4)

	hit, ok = p.Raycast(rl.Vector3{Y: 10}, rl.Vector3{Y: -1}, 100, ball)
	require.True(t, ok)
	assert.Equal(t, PhysicsObject(ground), hit.Object)
	assert.InDelta(t, 10, hit.Distance, 1e-4)
	assert.Equal(t, ground.Spatial(), hit.GameObject)

	_, ok = p.Raycast(rl.Vector3{Y: 10}, rl.Vector3{Y: 1}, 100)
	assert.False(t, ok)
}

func TestCleanup(t *testing.T) {
	p := NewPhysicsWorld()
	newGround(t, p)
	a := newBall(t, p, "a", rl.Vector3{Y: 1}, 0.5)
	b := newBall(t, p, "b", rl.Vector3{Y: 3}, 0.5)
	_, err := p.NewJoint(Ball, a, b)
	require.NoError(t, err)
	p.AddUpdateAction(&recordingAction{})

	p.Cleanup()

	assert.Equal(t, 0, p.NumberOfObjects())
	assert.Empty(t, p.Joints())
	assert.Empty(t, p.Dynamics().Joints())
	assert.Empty(t, p.Dynamics().Bodies())
	assert.Equal(t, 0, p.Space().NumGeoms())
	assert.True(t, p.AddObject(a))
}
