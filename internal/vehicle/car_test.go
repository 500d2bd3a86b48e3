package vehicle

import (
	"math"
	"testing"

	"drivesim/internal/dynamics"
	"drivesim/internal/engine"
	"drivesim/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTrack(t *testing.T) *physics.PhysicsWorld {
	t.Helper()
	w := physics.NewPhysicsWorld()
	w.SetStepSize(0.02)
	ground, err := physics.NewStaticPhysicsObject(engine.NewGameObject("ground"), physics.PlaneShape{Normal: rl.Vector3{Y: 1}})
	require.NoError(t, err)
	require.True(t, w.AddObject(ground))
	return w
}

func newTestCar(t *testing.T, w *physics.PhysicsWorld, p Profile) *Car {
	t.Helper()
	c, err := NewCar(w, p, rl.Vector3{Y: p.WheelDrop + p.WheelRadius + 0.05})
	require.NoError(t, err)
	return c
}

func run(w *physics.PhysicsWorld, seconds float32) {
	steps := int(seconds / w.StepSize())
	for range steps {
		w.Update(w.StepSize())
	}
}

func TestCarAcceleratesInFirstGear(t *testing.T) {
	w := newTestTrack(t)
	c := newTestCar(t, w, DefaultProfile())
	w.WarmUp(10)

	require.Equal(t, 1, c.CurrentGear())
	c.SetGasPedal(1)
	run(w, 2)

	assert.Greater(t, c.Speed(), float32(1))
	assert.Greater(t, c.ForwardSpeed(), float32(0))
	assert.Greater(t, c.DriveForce(), float32(0))
	assert.InDelta(t, c.Speed()*3.6, c.SpeedKmh(), 1e-4)
}

func TestRPMStaysClamped(t *testing.T) {
	w := newTestTrack(t)
	p := DefaultProfile()
	c := newTestCar(t, w, p)
	c.SetGasPedal(1)

	for range 150 {
		w.Update(0.02)
		rpm := c.CurrentRPM()
		require.GreaterOrEqual(t, rpm, p.MinRPM)
		require.LessOrEqual(t, rpm, p.MaxRPM)
	}

	// neutral with the throttle floored sits on the limiter
	c.PressClutch()
	for c.CurrentGear() > NeutralGear {
		c.ShiftDown()
	}
	w.Update(0.02)
	assert.Equal(t, p.MaxRPM, c.CurrentRPM())
}

func TestShiftRequiresOpenClutch(t *testing.T) {
	w := newTestTrack(t)
	c := newTestCar(t, w, DefaultProfile())

	c.ShiftUp()
	assert.Equal(t, 1, c.CurrentGear(), "closed clutch blocks the shift")

	c.PressClutch()
	c.ShiftUp()
	assert.Equal(t, 2, c.CurrentGear())

	// the clutch releases during the next step and blocks shifting again
	w.Update(0.02)
	c.ShiftDown()
	assert.Equal(t, 2, c.CurrentGear())

	c.PressClutch()
	for range 10 {
		c.ShiftDown()
	}
	assert.Equal(t, ReverseGear, c.CurrentGear())
	for range 10 {
		c.ShiftUp()
	}
	assert.Equal(t, TopGear, c.CurrentGear())
}

func TestReverseGearBacksUp(t *testing.T) {
	w := newTestTrack(t)
	c := newTestCar(t, w, DefaultProfile())
	w.WarmUp(10)

	c.PressClutch()
	c.ShiftDown()
	c.ShiftDown()
	require.Equal(t, ReverseGear, c.CurrentGear())
	c.SetGasPedal(1)
	run(w, 3)

	assert.Less(t, c.ForwardSpeed(), float32(0))
}

func TestBrakesStopTheCar(t *testing.T) {
	w := newTestTrack(t)
	c := newTestCar(t, w, DefaultProfile())
	w.WarmUp(10)
	c.SetGasPedal(1)
	run(w, 3)
	moving := c.Speed()
	require.Greater(t, moving, float32(1))

	c.SetGasPedal(0)
	c.SetBrakePedal(1)
	run(w, 4)
	assert.Less(t, c.Speed(), moving/4)
}

func TestInputValidation(t *testing.T) {
	w := newTestTrack(t)
	c := newTestCar(t, w, DefaultProfile())

	c.SetGasPedal(0.5)
	c.SetGasPedal(float32(math.NaN()))
	assert.Equal(t, float32(0.5), c.GasPedal())

	c.AddGasPedal(2)
	assert.Equal(t, float32(1), c.GasPedal())
	c.SetSteeringWheel(-7)
	assert.Equal(t, float32(-1), c.SteeringWheel())
	c.AddBrakePedal(0.25)
	assert.Equal(t, float32(0.25), c.BrakePedal())

	assert.False(t, c.IsSkidding(4))
	assert.False(t, c.IsSkidding(-1))
}

func TestSteeringLockShrinksWithSpeed(t *testing.T) {
	w := newTestTrack(t)
	c := newTestCar(t, w, DefaultProfile())

	still := c.steerLock(0)
	fast := c.steerLock(30)
	assert.InDelta(t, 35*rl.Deg2rad, still, 1e-5)
	assert.Less(t, fast, still)
	assert.GreaterOrEqual(t, fast, still*c.Profile().MinSteerFactor)

	c.SetSteeringWheel(1)
	for range 50 {
		c.updateSteering(0.02, 0)
	}
	assert.InDelta(t, -still, c.SteerAngle(), 1e-5, "positive input steers right")

	// letting go snaps back to centre
	c.SetSteeringWheel(0)
	c.updateSteering(0.02, 0)
	assert.Zero(t, c.SteerAngle())
}

func TestSmallerSteeringRequestSnaps(t *testing.T) {
	w := newTestTrack(t)
	c := newTestCar(t, w, DefaultProfile())
	lock := c.steerLock(0)

	c.SetSteeringWheel(1)
	for range 50 {
		c.updateSteering(0.02, 0)
	}
	require.InDelta(t, -lock, c.SteerAngle(), 1e-5)

	c.SetSteeringWheel(0.3)
	c.updateSteering(0.02, 0)
	assert.InDelta(t, -0.3*lock, c.SteerAngle(), 1e-5)

	// growing again is rate limited
	step := c.Profile().SteerSpeed * rl.Deg2rad * 0.02
	c.SetSteeringWheel(1)
	c.updateSteering(0.02, 0)
	assert.InDelta(t, -0.3*lock-step, c.SteerAngle(), 1e-5)
}

func TestRevLimiterCutsDrive(t *testing.T) {
	w := newTestTrack(t)
	p := DefaultProfile()
	c := newTestCar(t, w, p)
	require.Equal(t, 1, c.CurrentGear())
	require.Equal(t, float32(1), c.clutch.Engagement())

	// spin the wheels past the rpm cap for first gear
	capRate := p.MaxRPM / rpmPerRadPerS / float32(math.Abs(float64(c.gearBox.Ratio(1)*p.DiffRatio)))
	for _, wheel := range c.Wheels {
		wheel.SetAngularVelocity(rl.Vector3{X: capRate * 1.2})
	}
	c.SetGasPedal(1)
	c.Update(0.02)

	assert.Equal(t, p.MaxRPM, c.CurrentRPM())
	assert.Zero(t, c.DriveForce())

	// below the cap the engine drives again
	for _, wheel := range c.Wheels {
		wheel.SetAngularVelocity(rl.Vector3{})
	}
	c.Update(0.02)
	assert.Greater(t, c.DriveForce(), float32(0))
}

func TestHandbrakeLocksRearWheels(t *testing.T) {
	w := newTestTrack(t)
	p := DefaultProfile()
	c := newTestCar(t, w, p)
	c.SetHandBrake(true)
	c.Update(0.02)

	assert.Equal(t, p.HandbrakePower, c.joints[RearLeft].Param(dynamics.ParamFMax2))
	assert.Equal(t, float32(0), c.joints[RearRight].Param(dynamics.ParamVel2))
	assert.True(t, c.HandBrake())
}

func TestNewCarFromObjectsNeedsFourWheels(t *testing.T) {
	w := newTestTrack(t)
	chassis, err := physics.NewDynamicPhysicsObject(engine.NewGameObject("c"), 100, physics.BoxShape{Size: rl.Vector3{X: 1, Y: 1, Z: 1}})
	require.NoError(t, err)

	_, err = NewCarFromObjects(w, chassis, nil, DefaultProfile())
	assert.ErrorIs(t, err, ErrWheelCount)

	p := DefaultProfile()
	p.Drivetrain = Drivetrain(5)
	_, err = NewCar(w, p, rl.Vector3{})
	assert.ErrorIs(t, err, ErrDrivetrain)
	assert.Equal(t, 1, w.NumberOfObjects(), "nothing but the ground was added")
}

func TestTeleportResetsPose(t *testing.T) {
	w := newTestTrack(t)
	c := newTestCar(t, w, DefaultProfile())
	c.SetGasPedal(1)
	run(w, 1)

	spawn := rl.Vector3{X: 10, Y: 3, Z: -4}
	c.Teleport(spawn, rl.QuaternionIdentity())

	assert.Equal(t, spawn, c.Chassis.Position())
	assert.Zero(t, c.Speed())
	for i, off := range c.Profile().WheelOffsets() {
		got := c.Wheels[i].Position()
		want := rl.Vector3Add(spawn, off)
		assert.InDelta(t, want.X, got.X, 1e-3)
		assert.InDelta(t, want.Y, got.Y, 1e-3)
		assert.InDelta(t, want.Z, got.Z, 1e-3)
	}
}

func TestDestroyDetachesCar(t *testing.T) {
	w := newTestTrack(t)
	c := newTestCar(t, w, DefaultProfile())
	require.Equal(t, 6, w.NumberOfObjects())
	require.Len(t, w.Joints(), 4)

	c.Destroy()
	assert.Equal(t, 1, w.NumberOfObjects())
	assert.Empty(t, w.Joints())
}

func TestRetuneKeepsGeometry(t *testing.T) {
	w := newTestTrack(t)
	c := newTestCar(t, w, DefaultProfile())

	p := DefaultProfile()
	p.Name = "tuned"
	p.MaxRPM = 6000
	p.ClutchRate = 4
	p.TireFriction = 0.7
	p.ChassisMass = 5000
	p.WheelRadius = 1
	require.NoError(t, c.Retune(p))

	got := c.Profile()
	assert.Equal(t, DefaultProfile().Name, got.Name)
	assert.Equal(t, float32(6000), got.MaxRPM)
	assert.Equal(t, float32(6000), c.GearBox().MaxRPM)
	assert.Equal(t, float32(4), c.Clutch().Rate)
	assert.Equal(t, DefaultProfile().ChassisMass, got.ChassisMass)
	assert.Equal(t, DefaultProfile().WheelRadius, got.WheelRadius)
	assert.Equal(t, float32(0.7), c.Wheels[0].Material().Friction)

	bad := DefaultProfile()
	bad.MinRPM = 9000
	assert.Error(t, c.Retune(bad))
	assert.Equal(t, float32(6000), c.Profile().MaxRPM, "failed retune keeps the old tuning")
}
