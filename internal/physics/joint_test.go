package physics

import (
	"math"
	"testing"

	"drivesim/internal/components"
	"drivesim/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJointRejectsUnknownType(t *testing.T) {
	p := NewPhysicsWorld()
	a := newBall(t, p, "a", rl.Vector3{}, 0.5)

	_, err := p.NewJoint(JointType(42), a, nil)
	assert.ErrorIs(t, err, ErrUnsupportedJoint)
	assert.Empty(t, p.Dynamics().Joints())
}

func TestNewJointRequiresAttachedObjects(t *testing.T) {
	p := NewPhysicsWorld()
	a := newBall(t, p, "a", rl.Vector3{}, 0.5)
	loose, err := NewDynamicPhysicsObject(engine.NewGameObject("loose"), 1, SphereShape{Radius: 0.5})
	require.NoError(t, err)

	_, err = p.NewJoint(Ball, a, loose)
	assert.ErrorIs(t, err, ErrObjectNotAttached)
	assert.Empty(t, p.Joints())
}

func TestJointArmMismatch(t *testing.T) {
	p := NewPhysicsWorld()
	a := newBall(t, p, "a", rl.Vector3{}, 0.5)
	j, err := p.NewJoint(Hinge, a, nil)
	require.NoError(t, err)

	_, err = j.Hinge2()
	assert.ErrorIs(t, err, ErrJointArmMismatch)
	h, err := j.Hinge()
	require.NoError(t, err)
	assert.NotNil(t, h)

	j.Delete()
	assert.True(t, j.Deleted())
	assert.False(t, j.Attached())
	_, err = j.Hinge()
	assert.ErrorIs(t, err, ErrJointDeleted)
	assert.ErrorIs(t, j.Attach(a, nil), ErrJointDeleted)
	assert.NotPanics(t, j.Detach)
	assert.NotPanics(t, j.Delete)
}

func TestAttachWithWorldFirstSwapsSides(t *testing.T) {
	p := NewPhysicsWorld()
	a := newBall(t, p, "a", rl.Vector3{}, 0.5)
	j, err := p.NewJoint(Ball, nil, a)
	require.NoError(t, err)

	o1, o2 := j.Objects()
	assert.Equal(t, a, o1)
	assert.Nil(t, o2)

	j.Detach()
	assert.False(t, j.Attached())
	o1, _ = j.Objects()
	assert.Nil(t, o1)
}

func TestHingeMotorSpinsBody(t *testing.T) {
	p := NewPhysicsWorld()
	p.SetGravity(rl.Vector3{})
	wheel := newBall(t, p, "wheel", rl.Vector3{Y: 1}, 0.5)
	j, err := p.NewJoint(Hinge, wheel, nil)
	require.NoError(t, err)
	h, err := j.Hinge()
	require.NoError(t, err)
	h.SetAxis(rl.Vector3{X: 1})
	h.SetMotor(4, 100)

	for range 50 {
		p.Update(0.02)
	}
	assert.InDelta(t, 4, math.Abs(float64(h.AngleRate())), 0.2)
	assert.InDelta(t, 1, wheel.Position().Y, 1e-2)
}

func TestHinge2WheelSuspensionAndSpin(t *testing.T) {
	p := NewPhysicsWorld()
	chassis := newBall(t, p, "chassis", rl.Vector3{Y: 2}, 0.5)
	wheel := newBall(t, p, "wheel", rl.Vector3{X: 1.5, Y: 2}, 0.4)
	chassis.SetGravityEnabled(false)
	chassis.Body().Disable()

	j, err := p.NewJoint(Hinge2, chassis, wheel)
	require.NoError(t, err)
	j.SetAnchor(wheel.Position())
	arm, err := j.Hinge2()
	require.NoError(t, err)
	arm.SetAxes(rl.Vector3{Y: 1}, rl.Vector3{X: 1})
	arm.SetSteerLimits(0, 0)
	arm.SetWheelMotor(6, 50)
	arm.SetSuspension(0.4, 0.01)

	for range 100 {
		p.Update(0.02)
	}

	assert.InDelta(t, 6, math.Abs(float64(arm.WheelRate())), 0.5)
	assert.InDelta(t, 0, arm.SteerAngle(), 0.05)
	// soft suspension lets the wheel sag below its anchor
	assert.Less(t, wheel.Position().Y, float32(2))
	assert.Greater(t, wheel.Position().Y, float32(1))
}

func TestFrustumPolicyOnlyReenablesWhatItDisabled(t *testing.T) {
	p := NewPhysicsWorld()
	auto := newBall(t, p, "auto", rl.Vector3{}, 0.5)
	manual := newBall(t, p, "manual", rl.Vector3{X: 5}, 0.5)
	ground := newGround(t, p)
	manual.SetEnabled(false)

	f := NewFrustumPolicy()
	f.Observe(auto, false)
	f.Observe(manual, false)
	f.Observe(ground, false)
	assert.False(t, auto.Enabled())
	assert.True(t, ground.Enabled())
	assert.Equal(t, 1, f.Disabled())

	f.Observe(auto, true)
	f.Observe(manual, true)
	assert.True(t, auto.Enabled())
	assert.False(t, manual.Enabled())
	assert.Equal(t, 0, f.Disabled())

	f.Observe(auto, false)
	f.Forget(auto)
	assert.True(t, auto.Enabled())
}

func TestFromGameObject(t *testing.T) {
	g := engine.NewGameObject("crate")
	g.Transform.Position = rl.Vector3{Y: 2}
	rb := components.NewRigidbody()
	rb.Mass = 5
	rb.Friction = 0.3
	rb.UseGravity = false
	rb.Velocity = rl.Vector3{X: 1}
	g.AddComponent(rb)
	g.AddComponent(components.NewBoxCollider(rl.Vector3{X: 1, Y: 1, Z: 1}))

	obj, err := FromGameObject(g)
	require.NoError(t, err)
	d, ok := obj.(*DynamicPhysicsObject)
	require.True(t, ok)
	assert.Equal(t, float32(5), d.Mass())
	assert.False(t, d.GravityEnabled())
	assert.Equal(t, float32(1), d.LinearVelocity().X)
	assert.Equal(t, float32(0.3), d.Material().Friction)
	assert.Equal(t, float32(2), d.Position().Y)

	floor := engine.NewGameObject("floor")
	floor.AddComponent(components.NewPlaneCollider(rl.Vector3{Y: 1}, 0))
	obj, err = FromGameObject(floor)
	require.NoError(t, err)
	_, ok = obj.(*StaticPhysicsObject)
	assert.True(t, ok)

	empty := engine.NewGameObject("empty")
	obj, err = FromGameObject(empty)
	assert.ErrorIs(t, err, ErrNoBoundingVolume)
	assert.Nil(t, obj)
}
