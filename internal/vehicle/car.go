package vehicle

import (
	"fmt"
	"log"
	"math"

	"drivesim/internal/engine"
	"drivesim/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Wheel indices.
const (
	FrontLeft = iota
	FrontRight
	RearLeft
	RearRight
)

const (
	// steerGain turns the steering angle error into a steer motor velocity.
	steerGain      = 12
	steerForce     = 800
	rollingTorque  = 4
	rpmPerRadPerS  = 60 / (2 * math.Pi)
	skidMinContact = 0.5
)

// Car is a chassis on four Hinge2 wheels. It registers itself as an update
// action and applies pedal and steering input before every solver step.
// Forward is the chassis +Z axis, up is +Y and left is +X.
type Car struct {
	physics.BaseUpdateAction

	world   *physics.PhysicsWorld
	profile Profile

	Chassis *physics.DynamicPhysicsObject
	Wheels  [4]*physics.DynamicPhysicsObject
	joints  [4]*physics.Joint
	arms    [4]*physics.Hinge2Arm
	offsets [4]rl.Vector3

	gearBox *GearBox
	clutch  *Clutch

	gear      int
	gas       float32
	brake     float32
	steering  float32
	handbrake bool

	// steering request seen by the last steering update
	lastSteering float32

	rpm        float32
	steerAngle float32 // commanded wheel angle, radians
	driveForce float32

	warnedInput bool
	warnedWheel bool
}

// WheelOffsets returns the wheel centers relative to the chassis center.
func (p Profile) WheelOffsets() [4]rl.Vector3 {
	x, y, z := p.WheelTrack/2, -p.WheelDrop, p.Wheelbase/2
	return [4]rl.Vector3{
		FrontLeft:  {X: x, Y: y, Z: z},
		FrontRight: {X: -x, Y: y, Z: z},
		RearLeft:   {X: x, Y: y, Z: -z},
		RearRight:  {X: -x, Y: y, Z: -z},
	}
}

// NewCar builds the chassis and wheel objects at pos, adds them to world and
// joins them into a car.
func NewCar(world *physics.PhysicsWorld, p Profile, pos rl.Vector3) (*Car, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	body := engine.NewGameObject("chassis")
	body.Tags = []string{"car"}
	body.Transform.Position = pos
	size := rl.Vector3{X: p.ChassisSize[0], Y: p.ChassisSize[1], Z: p.ChassisSize[2]}
	chassis, err := physics.NewDynamicPhysicsObject(body, p.ChassisMass, physics.BoxShape{Size: size})
	if err != nil {
		return nil, fmt.Errorf("chassis: %w", err)
	}
	chassis.SetMaterial(&physics.Material{Friction: 0.5, Bounce: 0.1})

	names := [4]string{"wheel_fl", "wheel_fr", "wheel_rl", "wheel_rr"}
	wheels := make([]*physics.DynamicPhysicsObject, 4)
	for i, off := range p.WheelOffsets() {
		g := engine.NewGameObject(names[i])
		g.Tags = []string{"car", "wheel"}
		g.Transform.Position = rl.Vector3Add(pos, off)
		w, err := physics.NewDynamicPhysicsObject(g, p.WheelMass, physics.SphereShape{Radius: p.WheelRadius})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", names[i], err)
		}
		w.SetMaterial(&physics.Material{Friction: p.TireFriction})
		wheels[i] = w
	}

	world.AddObject(chassis)
	for _, w := range wheels {
		world.AddObject(w)
	}
	c, err := NewCarFromObjects(world, chassis, wheels, p)
	if err != nil {
		world.RemoveObject(chassis)
		for _, w := range wheels {
			world.RemoveObject(w)
		}
		return nil, err
	}
	return c, nil
}

// NewCarFromObjects joins an existing chassis and wheels, already added to
// world, into a car. Wheels are ordered front-left, front-right, rear-left,
// rear-right.
func NewCarFromObjects(world *physics.PhysicsWorld, chassis *physics.DynamicPhysicsObject, wheels []*physics.DynamicPhysicsObject, p Profile) (*Car, error) {
	if len(wheels) != 4 {
		return nil, fmt.Errorf("got %d: %w", len(wheels), ErrWheelCount)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	gb, err := NewGearBox(p.GearRatios, p.TorqueCurve, p.MinRPM, p.MaxRPM)
	if err != nil {
		return nil, err
	}

	c := &Car{
		world:   world,
		profile: p,
		Chassis: chassis,
		gearBox: gb,
		clutch:  NewClutch(p.ClutchRate),
		gear:    1,
		rpm:     p.MinRPM,
	}
	copy(c.Wheels[:], wheels)

	erp, cfm := p.SuspensionParams(world.StepSize())
	for i, w := range c.Wheels {
		j, err := world.NewJoint(physics.Hinge2, chassis, w)
		if err != nil {
			c.deleteJoints()
			return nil, fmt.Errorf("wheel %d: %w", i, err)
		}
		c.joints[i] = j
		arm, _ := j.Hinge2()
		c.arms[i] = arm

		j.SetAnchor(w.Position())
		arm.SetAxes(chassis.VectorToWorld(rl.Vector3{Y: 1}), chassis.VectorToWorld(rl.Vector3{X: 1}))
		arm.SetSuspension(erp, cfm)
		arm.SetSteerLimits(0, 0)
		c.offsets[i] = rl.Vector3RotateByQuaternion(
			rl.Vector3Subtract(w.Position(), chassis.Position()),
			rl.QuaternionInvert(chassis.Rotation()),
		)
	}

	world.AddUpdateAction(c)
	log.Printf("Vehicle: %s ready (%s, %d kg)", p.Name, p.Drivetrain, int(p.ChassisMass+4*p.WheelMass))
	return c, nil
}

func (c *Car) deleteJoints() {
	for i, j := range c.joints {
		if j != nil {
			j.Delete()
			c.joints[i] = nil
		}
	}
}

// Destroy detaches the car from its world.
func (c *Car) Destroy() {
	c.world.RemoveUpdateAction(c)
	c.deleteJoints()
	c.world.RemoveObject(c.Chassis)
	for _, w := range c.Wheels {
		c.world.RemoveObject(w)
	}
}

func (c *Car) Profile() Profile { return c.profile }

// Retune swaps in the drivetrain, brake, steering, suspension and tyre
// settings of p. Masses and dimensions stay as built.
func (c *Car) Retune(p Profile) error {
	old := c.profile
	p.Name = old.Name
	p.ChassisMass, p.ChassisSize = old.ChassisMass, old.ChassisSize
	p.WheelMass, p.WheelRadius = old.WheelMass, old.WheelRadius
	p.WheelTrack, p.Wheelbase, p.WheelDrop = old.WheelTrack, old.Wheelbase, old.WheelDrop
	if err := p.Validate(); err != nil {
		return err
	}
	gb, err := NewGearBox(p.GearRatios, p.TorqueCurve, p.MinRPM, p.MaxRPM)
	if err != nil {
		return err
	}

	c.profile = p
	c.gearBox = gb
	c.clutch.Rate = p.ClutchRate
	c.rpm = gb.ClampRPM(c.rpm)
	erp, cfm := p.SuspensionParams(c.world.StepSize())
	for i, arm := range c.arms {
		arm.SetSuspension(erp, cfm)
		c.Wheels[i].SetMaterial(&physics.Material{Friction: p.TireFriction})
	}
	log.Printf("Vehicle: %s retuned", p.Name)
	return nil
}

func (c *Car) GearBox() *GearBox { return c.gearBox }

func (c *Car) Clutch() *Clutch { return c.clutch }

// GameObjects returns the chassis and wheel spatials for adding to a scene.
func (c *Car) GameObjects() []*engine.GameObject {
	out := []*engine.GameObject{c.Chassis.Spatial()}
	for _, w := range c.Wheels {
		out = append(out, w.Spatial())
	}
	return out
}

func (c *Car) BeforeStep(w *physics.PhysicsWorld) {
	c.Update(w.StepSize())
}

func (c *Car) input(name string, v float32) (float32, bool) {
	if math.IsNaN(float64(v)) {
		if !c.warnedInput {
			c.warnedInput = true
			log.Printf("Vehicle: ignoring NaN %s input", name)
		}
		return 0, false
	}
	return min(max(v, -1), 1), true
}

func (c *Car) SetGasPedal(v float32) {
	if v, ok := c.input("gas", v); ok {
		c.gas = v
	}
}

func (c *Car) SetBrakePedal(v float32) {
	if v, ok := c.input("brake", v); ok {
		c.brake = v
	}
}

// SetSteeringWheel sets steering in [-1, 1]; positive steers right.
func (c *Car) SetSteeringWheel(v float32) {
	if v, ok := c.input("steering", v); ok {
		c.steering = v
	}
}

func (c *Car) AddGasPedal(d float32)      { c.SetGasPedal(c.gas + d) }
func (c *Car) AddBrakePedal(d float32)    { c.SetBrakePedal(c.brake + d) }
func (c *Car) AddSteeringWheel(d float32) { c.SetSteeringWheel(c.steering + d) }

func (c *Car) GasPedal() float32      { return c.gas }
func (c *Car) BrakePedal() float32    { return c.brake }
func (c *Car) SteeringWheel() float32 { return c.steering }

func (c *Car) SetHandBrake(on bool) { c.handbrake = on }
func (c *Car) HandBrake() bool      { return c.handbrake }

// PressClutch opens the clutch so the next shift is accepted.
func (c *Car) PressClutch() { c.clutch.Press() }

// ShiftUp changes up one gear. It does nothing unless the clutch is open.
func (c *Car) ShiftUp() {
	if c.clutch.IsOpen() && c.gear < TopGear {
		c.gear++
	}
}

// ShiftDown changes down one gear. It does nothing unless the clutch is open.
func (c *Car) ShiftDown() {
	if c.clutch.IsOpen() && c.gear > ReverseGear {
		c.gear--
	}
}

func (c *Car) CurrentGear() int { return c.gear }

func (c *Car) CurrentRPM() float32 { return c.rpm }

// DriveForce is the traction force of the last update along the chassis
// forward axis, in newtons.
func (c *Car) DriveForce() float32 { return c.driveForce }

func (c *Car) Forward() rl.Vector3 { return c.Chassis.VectorToWorld(rl.Vector3{Z: 1}) }

func (c *Car) Speed() float32 { return rl.Vector3Length(c.Chassis.LinearVelocity()) }

func (c *Car) SpeedKmh() float32 { return c.Speed() * 3.6 }

// ForwardSpeed is the chassis velocity along its forward axis; negative when
// rolling backwards.
func (c *Car) ForwardSpeed() float32 {
	return rl.Vector3DotProduct(c.Chassis.LinearVelocity(), c.Forward())
}

// SteerAngle is the commanded front wheel angle in radians.
func (c *Car) SteerAngle() float32 { return c.steerAngle }

func (c *Car) driven(i int) bool {
	switch c.profile.Drivetrain {
	case FrontWheelDrive:
		return i == FrontLeft || i == FrontRight
	case RearWheelDrive:
		return i == RearLeft || i == RearRight
	}
	return true
}

func (c *Car) drivenCount() int {
	if c.profile.Drivetrain == FourWheelDrive {
		return 4
	}
	return 2
}

// wheelRate is the mean spin of the driven wheels in rad/s, positive when
// rolling forward.
func (c *Car) wheelRate() float32 {
	var sum float32
	for i, arm := range c.arms {
		if c.driven(i) {
			sum += arm.WheelRate()
		}
	}
	return sum / float32(c.drivenCount())
}

// updateRPM blends wheel-derived and throttle-derived rpm by clutch
// engagement and clamps the result. It reports whether the rev limiter is hit.
func (c *Car) updateRPM(ratio float32) bool {
	p := c.profile
	throttleRPM := p.MinRPM + float32(math.Abs(float64(c.gas)))*(p.MaxRPM-p.MinRPM)
	engage := c.clutch.Engagement()
	if ratio == 0 {
		engage = 0
	}
	wheelRPM := float32(math.Abs(float64(c.wheelRate()*ratio*p.DiffRatio))) * rpmPerRadPerS
	c.rpm = c.gearBox.ClampRPM(engage*wheelRPM + (1-engage)*throttleRPM)
	return c.rpm >= p.MaxRPM
}

// Update applies one step of drivetrain, brakes and steering.
func (c *Car) Update(dt float32) {
	if !(dt > 0) {
		return
	}
	p := c.profile
	c.clutch.Update(dt)

	ratio := c.gearBox.Ratio(c.gear)
	limiter := c.updateRPM(ratio)

	speed := c.ForwardSpeed()
	drag := p.DragConstant()
	resist := (drag*speed*float32(math.Abs(float64(speed))) + p.RollingFactor*drag*speed) * p.WheelRadius
	resist = float32(math.Abs(float64(resist)))

	brake := float32(math.Abs(float64(c.brake)))
	c.driveForce = 0
	switch {
	case brake > 0:
		total := p.BrakePower * brake
		front := total * p.BrakeBalance / 2
		rear := total * (1 - p.BrakeBalance) / 2
		for i, arm := range c.arms {
			if i == FrontLeft || i == FrontRight {
				arm.SetWheelMotor(0, front+rollingTorque)
			} else {
				arm.SetWheelMotor(0, rear+rollingTorque)
			}
		}

	case c.gas != 0 && ratio != 0:
		gas := float32(math.Abs(float64(c.gas)))
		engineTorque := c.gearBox.Torque(c.rpm) * gas * c.clutch.Engagement()
		axleTorque := engineTorque * float32(math.Abs(float64(ratio))) * p.DiffRatio * p.Efficiency
		net := max(axleTorque-resist, 0)

		throttleRPM := p.MinRPM + gas*(p.MaxRPM-p.MinRPM)
		target := throttleRPM / rpmPerRadPerS / (ratio * p.DiffRatio)
		if limiter {
			// fuel cut: the wheels may hold the capped speed but get no drive
			limit := p.MaxRPM / rpmPerRadPerS / float32(math.Abs(float64(ratio*p.DiffRatio)))
			target = float32(math.Copysign(float64(limit), float64(target)))
			net = 0
		}
		c.driveForce = net / p.WheelRadius
		perWheel := net / float32(c.drivenCount())
		for i, arm := range c.arms {
			if c.driven(i) {
				arm.SetWheelMotor(target, perWheel)
			} else {
				arm.SetWheelMotor(0, rollingTorque)
			}
		}

	default:
		for _, arm := range c.arms {
			arm.SetWheelMotor(0, resist/4+rollingTorque)
		}
	}

	if c.handbrake {
		c.arms[RearLeft].SetWheelMotor(0, p.HandbrakePower)
		c.arms[RearRight].SetWheelMotor(0, p.HandbrakePower)
	}

	c.updateSteering(dt, speed)
}

// steerLock is the largest wheel angle allowed at the given speed.
func (c *Car) steerLock(speed float32) float32 {
	p := c.profile
	lock := p.MaxSteerAngle * rl.Deg2rad
	scaled := lock / (1 + p.SteerFalloff*float32(math.Abs(float64(speed))))
	return max(scaled, lock*p.MinSteerFactor)
}

func (c *Car) updateSteering(dt, speed float32) {
	lock := c.steerLock(speed)
	target := -c.steering * lock
	// easing off snaps toward centre, turning in is rate limited
	if math.Abs(float64(c.steering)) < math.Abs(float64(c.lastSteering)) || c.steering == 0 {
		c.steerAngle = target
	} else {
		step := c.profile.SteerSpeed * rl.Deg2rad * dt
		c.steerAngle += min(max(target-c.steerAngle, -step), step)
	}
	c.lastSteering = c.steering
	c.steerAngle = min(max(c.steerAngle, -lock), lock)

	for _, i := range [2]int{FrontLeft, FrontRight} {
		arm := c.arms[i]
		arm.SetSteerLimits(-lock, lock)
		arm.SetSteerMotor((c.steerAngle-arm.SteerAngle())*steerGain, steerForce)
	}
}

// IsSkidding reports whether wheel i is touching something while slipping
// along or across its rolling direction. An invalid index returns false.
func (c *Car) IsSkidding(i int) bool {
	if i < 0 || i >= len(c.Wheels) {
		if !c.warnedWheel {
			c.warnedWheel = true
			log.Printf("Vehicle: invalid wheel index %d", i)
		}
		return false
	}
	w := c.Wheels[i]
	if !w.InContact() {
		return false
	}
	arm := c.arms[i]
	axis := arm.WheelAxis()
	forward := rl.Vector3Normalize(rl.Vector3CrossProduct(axis, arm.SteerAxis()))
	v := w.LinearVelocity()

	lateral := float32(math.Abs(float64(rl.Vector3DotProduct(v, axis))))
	rolling := arm.WheelRate() * c.profile.WheelRadius
	slip := float32(math.Abs(float64(rolling - rl.Vector3DotProduct(v, forward))))
	threshold := max(c.profile.SkidThreshold, skidMinContact)
	return lateral > threshold || slip > threshold
}

// Teleport places the car at pos with rotation rot and stops it.
func (c *Car) Teleport(pos rl.Vector3, rot rl.Quaternion) {
	c.Chassis.Teleport(pos, rot)
	for i, w := range c.Wheels {
		w.Teleport(rl.Vector3Add(pos, rl.Vector3RotateByQuaternion(c.offsets[i], rot)), rot)
	}
	c.steerAngle = 0
	c.rpm = c.profile.MinRPM
}

// Stop zeroes the velocities of the chassis and wheels.
func (c *Car) Stop() {
	c.Chassis.ClearVelocities()
	for _, w := range c.Wheels {
		w.ClearVelocities()
	}
}
