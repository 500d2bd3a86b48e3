package physics

import (
	"fmt"
	"slices"

	"drivesim/internal/dynamics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type JointType int

const (
	Hinge JointType = iota
	Hinge2
	Ball
	Slider
	Universal
	AMotor
	Fixed
)

func (t JointType) String() string {
	if k, ok := t.kind(); ok {
		return k.String()
	}
	return fmt.Sprintf("JointType(%d)", int(t))
}

func (t JointType) kind() (dynamics.JointKind, bool) {
	switch t {
	case Hinge:
		return dynamics.HingeJoint, true
	case Hinge2:
		return dynamics.Hinge2Joint, true
	case Ball:
		return dynamics.BallJoint, true
	case Slider:
		return dynamics.SliderJoint, true
	case Universal:
		return dynamics.UniversalJoint, true
	case AMotor:
		return dynamics.AMotorJoint, true
	case Fixed:
		return dynamics.FixedJoint, true
	}
	return 0, false
}

// paramGroup is the offset between the parameters of consecutive axes.
const paramGroup = dynamics.ParamVel2 - dynamics.ParamVel

func axisParam(p dynamics.Param, i int) dynamics.Param {
	return p + dynamics.Param(i)*paramGroup
}

// Joint constrains two dynamic objects, or one object and the world when
// the other side is nil. The type-specific settings live on the arm returned
// by Hinge, Hinge2, Ball, Slider, Universal, AMotor or Fixed.
type Joint struct {
	Type JointType

	world      *PhysicsWorld
	joint      *dynamics.Joint
	obj1, obj2 *DynamicPhysicsObject
	deleted    bool
}

// NewJoint creates a joint of type t and attaches it to obj1 and obj2.
// Both objects, when non-nil, must already be added to p.
func (p *PhysicsWorld) NewJoint(t JointType, obj1, obj2 *DynamicPhysicsObject) (*Joint, error) {
	kind, ok := t.kind()
	if !ok {
		return nil, fmt.Errorf("joint type %d: %w", int(t), ErrUnsupportedJoint)
	}
	j := &Joint{Type: t, world: p, joint: p.world.NewJoint(kind)}
	j.joint.Data = j
	if err := j.Attach(obj1, obj2); err != nil {
		j.joint.Destroy()
		return nil, err
	}
	p.joints = append(p.joints, j)
	return j, nil
}

// Joints returns the live joints of the world.
func (p *PhysicsWorld) Joints() []*Joint { return p.joints }

func (j *Joint) check(obj *DynamicPhysicsObject) error {
	if obj != nil && obj.world != j.world {
		return fmt.Errorf("%s: %w", obj.spatial.Name, ErrObjectNotAttached)
	}
	return nil
}

// Attach binds the joint to new objects, resetting anchor and axes to
// their defaults at obj1's position.
func (j *Joint) Attach(obj1, obj2 *DynamicPhysicsObject) error {
	if j.deleted {
		return ErrJointDeleted
	}
	if err := j.check(obj1); err != nil {
		return err
	}
	if err := j.check(obj2); err != nil {
		return err
	}
	if obj1 == nil {
		obj1, obj2 = obj2, nil
	}
	var b1, b2 *dynamics.Body
	if obj1 != nil {
		b1 = obj1.body
	}
	if obj2 != nil {
		b2 = obj2.body
	}
	j.joint.Attach(b1, b2)
	j.obj1, j.obj2 = obj1, obj2
	return nil
}

func (j *Joint) Detach() {
	if j.deleted {
		return
	}
	j.joint.Detach()
	j.obj1, j.obj2 = nil, nil
}

// Delete destroys the joint. Every later call on it is a no-op or returns
// ErrJointDeleted.
func (j *Joint) Delete() {
	if j.deleted {
		return
	}
	j.joint.Destroy()
	j.obj1, j.obj2 = nil, nil
	j.deleted = true
	if i := slices.Index(j.world.joints, j); i >= 0 {
		j.world.joints = slices.Delete(j.world.joints, i, i+1)
	}
}

func (j *Joint) Deleted() bool { return j.deleted }

func (j *Joint) Attached() bool { return !j.deleted && j.joint.Attached() }

// Objects returns the attached objects; nil stands for the world.
func (j *Joint) Objects() (*DynamicPhysicsObject, *DynamicPhysicsObject) { return j.obj1, j.obj2 }

func (j *Joint) SetAnchor(p rl.Vector3) {
	if !j.deleted {
		j.joint.SetAnchor(toVec64(p))
	}
}

// Anchor returns the anchor as seen from the first object.
func (j *Joint) Anchor() rl.Vector3 { return fromVec64(j.joint.Anchor()) }

// Anchor2 returns the anchor as seen from the second object. It drifts
// from Anchor when the constraint is violated.
func (j *Joint) Anchor2() rl.Vector3 { return fromVec64(j.joint.Anchor2()) }

// SetParam sets a raw solver parameter.
func (j *Joint) SetParam(p dynamics.Param, v float32) {
	if !j.deleted {
		j.joint.SetParam(p, float64(v))
	}
}

func (j *Joint) Param(p dynamics.Param) float32 { return float32(j.joint.Param(p)) }

func (j *Joint) arm(t JointType) error {
	if j.deleted {
		return ErrJointDeleted
	}
	if j.Type != t {
		return fmt.Errorf("%s joint used as %s: %w", j.Type, t, ErrJointArmMismatch)
	}
	return nil
}

// axis wraps the motor and stop parameters shared by every arm.
type axis struct{ j *dynamics.Joint }

func (a axis) setLimits(i int, lo, hi float32) {
	a.j.SetParam(axisParam(dynamics.ParamLoStop, i), float64(lo))
	a.j.SetParam(axisParam(dynamics.ParamHiStop, i), float64(hi))
}

func (a axis) setMotor(i int, vel, fmax float32) {
	a.j.SetParam(axisParam(dynamics.ParamVel, i), float64(vel))
	a.j.SetParam(axisParam(dynamics.ParamFMax, i), float64(fmax))
}

type HingeArm struct{ axis }

func (j *Joint) Hinge() (*HingeArm, error) {
	if err := j.arm(Hinge); err != nil {
		return nil, err
	}
	return &HingeArm{axis{j.joint}}, nil
}

func (h *HingeArm) SetAxis(a rl.Vector3)       { h.j.SetAxis1(toVec64(a)) }
func (h *HingeArm) Axis() rl.Vector3           { return fromVec64(h.j.Axis1()) }
func (h *HingeArm) SetLimits(lo, hi float32)   { h.setLimits(0, lo, hi) }
func (h *HingeArm) SetMotor(vel, fmax float32) { h.setMotor(0, vel, fmax) }
func (h *HingeArm) Angle() float32             { return float32(h.j.Angle(0)) }
func (h *HingeArm) AngleRate() float32         { return float32(h.j.AngleRate(0)) }

// Hinge2Arm drives a wheel: axis 1 steers, axis 2 spins, and the anchor is
// sprung along axis 1.
type Hinge2Arm struct{ axis }

func (j *Joint) Hinge2() (*Hinge2Arm, error) {
	if err := j.arm(Hinge2); err != nil {
		return nil, err
	}
	return &Hinge2Arm{axis{j.joint}}, nil
}

func (h *Hinge2Arm) SetAxes(steer, wheel rl.Vector3) {
	h.j.SetAxis1(toVec64(steer))
	h.j.SetAxis2(toVec64(wheel))
}

func (h *Hinge2Arm) SteerAxis() rl.Vector3 { return fromVec64(h.j.Axis1()) }
func (h *Hinge2Arm) WheelAxis() rl.Vector3 { return fromVec64(h.j.Axis2()) }

func (h *Hinge2Arm) SetSteerLimits(lo, hi float32)   { h.setLimits(0, lo, hi) }
func (h *Hinge2Arm) SetSteerMotor(vel, fmax float32) { h.setMotor(0, vel, fmax) }
func (h *Hinge2Arm) SetWheelMotor(vel, fmax float32) { h.setMotor(1, vel, fmax) }

func (h *Hinge2Arm) SetSuspension(erp, cfm float32) {
	h.j.SetParam(dynamics.ParamSuspensionERP, float64(erp))
	h.j.SetParam(dynamics.ParamSuspensionCFM, float64(cfm))
}

func (h *Hinge2Arm) SteerAngle() float32 { return float32(h.j.Angle(0)) }
func (h *Hinge2Arm) SteerRate() float32  { return float32(h.j.AngleRate(0)) }
func (h *Hinge2Arm) WheelRate() float32  { return float32(h.j.AngleRate(1)) }

type BallArm struct{ axis }

func (j *Joint) Ball() (*BallArm, error) {
	if err := j.arm(Ball); err != nil {
		return nil, err
	}
	return &BallArm{axis{j.joint}}, nil
}

// Separation is the distance between the two anchor points.
func (b *BallArm) Separation() float32 {
	return float32(b.j.Anchor().Sub(b.j.Anchor2()).Len())
}

type SliderArm struct{ axis }

func (j *Joint) Slider() (*SliderArm, error) {
	if err := j.arm(Slider); err != nil {
		return nil, err
	}
	return &SliderArm{axis{j.joint}}, nil
}

func (s *SliderArm) SetAxis(a rl.Vector3)       { s.j.SetAxis1(toVec64(a)) }
func (s *SliderArm) SetLimits(lo, hi float32)   { s.setLimits(0, lo, hi) }
func (s *SliderArm) SetMotor(vel, fmax float32) { s.setMotor(0, vel, fmax) }
func (s *SliderArm) Position() float32          { return float32(s.j.Angle(0)) }
func (s *SliderArm) Rate() float32              { return float32(s.j.AngleRate(0)) }

type UniversalArm struct{ axis }

func (j *Joint) Universal() (*UniversalArm, error) {
	if err := j.arm(Universal); err != nil {
		return nil, err
	}
	return &UniversalArm{axis{j.joint}}, nil
}

func (u *UniversalArm) SetAxes(a1, a2 rl.Vector3) {
	u.j.SetAxis1(toVec64(a1))
	u.j.SetAxis2(toVec64(a2))
}

// SetMotor drives axis i (0 or 1).
func (u *UniversalArm) SetMotor(i int, vel, fmax float32) { u.setMotor(i, vel, fmax) }
func (u *UniversalArm) Rate(i int) float32                { return float32(u.j.AngleRate(i)) }

// AMotorArm controls relative angular velocity about up to three axes.
type AMotorArm struct{ axis }

func (j *Joint) AMotor() (*AMotorArm, error) {
	if err := j.arm(AMotor); err != nil {
		return nil, err
	}
	return &AMotorArm{axis{j.joint}}, nil
}

func (m *AMotorArm) SetNumAxes(n int) { m.j.SetAMotorNumAxes(n) }

// SetAxis sets axis i in world coordinates, anchored to frame
// (dynamics.FrameGlobal, FrameBody1 or FrameBody2).
func (m *AMotorArm) SetAxis(i, frame int, a rl.Vector3) { m.j.SetAMotorAxis(i, frame, toVec64(a)) }

func (m *AMotorArm) SetMotor(i int, vel, fmax float32) { m.setMotor(i, vel, fmax) }
func (m *AMotorArm) Rate(i int) float32                { return float32(m.j.AngleRate(i)) }

type FixedArm struct{ axis }

func (j *Joint) Fixed() (*FixedArm, error) {
	if err := j.arm(Fixed); err != nil {
		return nil, err
	}
	return &FixedArm{axis{j.joint}}, nil
}

// Fix captures the current relative pose as the one to hold.
func (f *FixedArm) Fix() { f.j.SetFixed() }
