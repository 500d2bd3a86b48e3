package dynamics

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrInvalidMass = errors.New("dynamics: mass must be positive with a positive definite inertia")

// Mass is a body's total mass and its inertia tensor about the center of mass,
// expressed in body coordinates.
type Mass struct {
	Total   float64
	Inertia mgl64.Mat3
}

// SphereMass returns the mass of a solid sphere.
func SphereMass(total, radius float64) Mass {
	i := 0.4 * total * radius * radius
	return Mass{Total: total, Inertia: mgl64.Diag3(mgl64.Vec3{i, i, i})}
}

// BoxMass returns the mass of a solid box with the given full side lengths.
func BoxMass(total float64, size mgl64.Vec3) Mass {
	x2, y2, z2 := size[0]*size[0], size[1]*size[1], size[2]*size[2]
	return Mass{
		Total: total,
		Inertia: mgl64.Diag3(mgl64.Vec3{
			total * (y2 + z2) / 12,
			total * (x2 + z2) / 12,
			total * (x2 + y2) / 12,
		}),
	}
}

// CylinderMass returns the mass of a solid cylinder whose long axis is the
// body's local X (0), Y (1) or Z (2) axis.
func CylinderMass(total, radius, length float64, axis int) Mass {
	along := 0.5 * total * radius * radius
	across := total * (3*radius*radius + length*length) / 12
	d := mgl64.Vec3{across, across, across}
	d[axis] = along
	return Mass{Total: total, Inertia: mgl64.Diag3(d)}
}

// Adjust rescales the mass to a new total, keeping the mass distribution.
func (m Mass) Adjust(total float64) Mass {
	if m.Total <= 0 {
		return m
	}
	return Mass{Total: total, Inertia: m.Inertia.Mul(total / m.Total)}
}

// Translate moves the mass distribution by offset (parallel axis theorem).
func (m Mass) Translate(offset mgl64.Vec3) Mass {
	d2 := offset.Dot(offset)
	shift := mgl64.Diag3(mgl64.Vec3{d2, d2, d2}).Sub(outer(offset, offset))
	return Mass{Total: m.Total, Inertia: m.Inertia.Add(shift.Mul(m.Total))}
}

// Add combines two mass distributions sharing the same origin.
func (m Mass) Add(o Mass) Mass {
	return Mass{Total: m.Total + o.Total, Inertia: m.Inertia.Add(o.Inertia)}
}

func (m Mass) Valid() bool {
	if m.Total <= 0 || math.IsNaN(m.Total) || math.IsInf(m.Total, 0) {
		return false
	}
	return m.Inertia.At(0, 0) > 0 && m.Inertia.At(1, 1) > 0 && m.Inertia.At(2, 2) > 0 && m.Inertia.Det() > 0
}

func outer(a, b mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3{
		a[0] * b[0], a[1] * b[0], a[2] * b[0],
		a[0] * b[1], a[1] * b[1], a[2] * b[1],
		a[0] * b[2], a[1] * b[2], a[2] * b[2],
	}
}

// Body is a rigid body: pose, velocity, accumulated force and mass.
type Body struct {
	world   *World
	pos     mgl64.Vec3
	rot     mgl64.Quat
	linVel  mgl64.Vec3
	angVel  mgl64.Vec3
	force   mgl64.Vec3
	torque  mgl64.Vec3
	mass    Mass
	invMass float64

	invInertia      mgl64.Mat3 // body frame
	invInertiaWorld mgl64.Mat3

	enabled        bool
	gravity        bool
	linearDamping  float64
	angularDamping float64

	geoms  []*Geom
	joints []*Joint

	Data any
}

// NewBody creates an enabled, gravity-affected unit-mass body at the origin.
// The body is simulated once added to a World.
func NewBody() *Body {
	b := &Body{
		rot:     mgl64.QuatIdent(),
		enabled: true,
		gravity: true,
	}
	b.SetMass(SphereMass(1, 1))
	return b
}

func (b *Body) World() *World { return b.world }

func (b *Body) Position() mgl64.Vec3 { return b.pos }

func (b *Body) SetPosition(p mgl64.Vec3) { b.pos = p }

func (b *Body) Quaternion() mgl64.Quat { return b.rot }

func (b *Body) SetQuaternion(q mgl64.Quat) {
	if q.Len() == 0 {
		q = mgl64.QuatIdent()
	}
	b.rot = q.Normalize()
	b.updateInertia()
}

func (b *Body) LinearVel() mgl64.Vec3 { return b.linVel }

func (b *Body) SetLinearVel(v mgl64.Vec3) { b.linVel = v }

func (b *Body) AngularVel() mgl64.Vec3 { return b.angVel }

func (b *Body) SetAngularVel(v mgl64.Vec3) { b.angVel = v }

func (b *Body) Force() mgl64.Vec3 { return b.force }

func (b *Body) SetForce(f mgl64.Vec3) { b.force = f }

func (b *Body) AddForce(f mgl64.Vec3) { b.force = b.force.Add(f) }

// AddForceAtPos applies a world-space force at a world-space point, producing
// torque about the center of mass.
func (b *Body) AddForceAtPos(f, p mgl64.Vec3) {
	b.force = b.force.Add(f)
	b.torque = b.torque.Add(p.Sub(b.pos).Cross(f))
}

func (b *Body) Torque() mgl64.Vec3 { return b.torque }

func (b *Body) SetTorque(t mgl64.Vec3) { b.torque = t }

func (b *Body) AddTorque(t mgl64.Vec3) { b.torque = b.torque.Add(t) }

func (b *Body) Mass() Mass { return b.mass }

func (b *Body) SetMass(m Mass) error {
	if !m.Valid() {
		return ErrInvalidMass
	}
	b.mass = m
	b.invMass = 1 / m.Total
	b.invInertia = m.Inertia.Inv()
	b.updateInertia()
	return nil
}

func (b *Body) Enabled() bool { return b.enabled }

func (b *Body) Enable() { b.enabled = true }

// Disable freezes the body. A disabled body keeps its velocity but is neither
// integrated nor moved by constraints; it acts as static for bodies it touches.
func (b *Body) Disable() { b.enabled = false }

func (b *Body) GravityEnabled() bool { return b.gravity }

func (b *Body) SetGravityEnabled(on bool) { b.gravity = on }

// SetDamping sets per-second linear and angular velocity damping factors.
func (b *Body) SetDamping(linear, angular float64) {
	b.linearDamping = linear
	b.angularDamping = angular
}

func (b *Body) Geoms() []*Geom { return b.geoms }

// Joints returns the joints currently attached to the body.
func (b *Body) Joints() []*Joint { return b.joints }

// Connected reports whether an attached joint links b and other.
func (b *Body) Connected(other *Body) bool {
	if b == nil || other == nil {
		return false
	}
	for _, j := range b.joints {
		if (j.b1 == b && j.b2 == other) || (j.b1 == other && j.b2 == b) {
			return true
		}
	}
	return false
}

// PointVel returns the world velocity of a world-space point rigidly attached to the body.
func (b *Body) PointVel(p mgl64.Vec3) mgl64.Vec3 {
	return b.linVel.Add(b.angVel.Cross(p.Sub(b.pos)))
}

// VectorToWorld rotates a body-frame vector into world space.
func (b *Body) VectorToWorld(v mgl64.Vec3) mgl64.Vec3 { return b.rot.Rotate(v) }

// VectorFromWorld rotates a world-space vector into the body frame.
func (b *Body) VectorFromWorld(v mgl64.Vec3) mgl64.Vec3 { return b.rot.Conjugate().Rotate(v) }

// movable reports whether the solver may change the body's velocity.
func (b *Body) movable() bool {
	return b != nil && b.world != nil && b.enabled
}

func (b *Body) updateInertia() {
	r := b.rot.Mat4().Mat3()
	b.invInertiaWorld = r.Mul3(b.invInertia).Mul3(r.Transpose())
}

func (b *Body) integrateVelocity(gravity mgl64.Vec3, dt float64) {
	b.updateInertia()
	acc := b.force.Mul(b.invMass)
	if b.gravity {
		acc = acc.Add(gravity)
	}
	b.linVel = b.linVel.Add(acc.Mul(dt))
	b.angVel = b.angVel.Add(b.invInertiaWorld.Mul3x1(b.torque).Mul(dt))
	if b.linearDamping > 0 {
		b.linVel = b.linVel.Mul(math.Max(0, 1-b.linearDamping*dt))
	}
	if b.angularDamping > 0 {
		b.angVel = b.angVel.Mul(math.Max(0, 1-b.angularDamping*dt))
	}
}

func (b *Body) integratePosition(dt float64) {
	b.pos = b.pos.Add(b.linVel.Mul(dt))
	spin := mgl64.Quat{W: 0, V: b.angVel}.Mul(b.rot).Scale(0.5 * dt)
	b.rot = b.rot.Add(spin).Normalize()
}

func (b *Body) detachJoint(j *Joint) {
	for i, other := range b.joints {
		if other == j {
			b.joints = append(b.joints[:i], b.joints[i+1:]...)
			return
		}
	}
}

func (b *Body) detachGeom(g *Geom) {
	for i, other := range b.geoms {
		if other == g {
			b.geoms = append(b.geoms[:i], b.geoms[i+1:]...)
			return
		}
	}
}
