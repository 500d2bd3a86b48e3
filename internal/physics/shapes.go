package physics

import (
	"errors"
	"fmt"
	"math"

	"drivesim/internal/dynamics"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrNonUniformScale   = errors.New("physics: shape does not support non-uniform scale")
	ErrNoBoundingVolume  = errors.New("physics: object has no bounding volume")
	ErrStaticPlane       = errors.New("physics: planes can only belong to static objects")
	ErrUnsupportedJoint  = errors.New("physics: unsupported joint type")
	ErrInvalidMass       = errors.New("physics: mass must be positive")
	ErrJointDeleted      = errors.New("physics: joint was deleted")
	ErrJointArmMismatch  = errors.New("physics: joint parameters do not match joint type")
	ErrObjectNotAttached = errors.New("physics: object is not attached to this world")
)

const scaleEpsilon = 1e-4

// Shape describes one collision volume in the local frame of a game object,
// before the object's scale is applied.
type Shape interface {
	isShape()
}

type SphereShape struct {
	Radius   float32
	Offset   rl.Vector3
	Particle bool
}

type BoxShape struct {
	Size     rl.Vector3
	Offset   rl.Vector3
	Rotation rl.Quaternion // zero value means identity
	Particle bool
}

// PlaneShape is an infinite world-space plane Normal·p = Distance.
type PlaneShape struct {
	Normal   rl.Vector3
	Distance float32
}

func (SphereShape) isShape() {}
func (BoxShape) isShape()    {}
func (PlaneShape) isShape()  {}

func uniform(s rl.Vector3) bool {
	return math.Abs(float64(s.X-s.Y)) < scaleEpsilon && math.Abs(float64(s.Y-s.Z)) < scaleEpsilon
}

func validScale(s rl.Vector3) bool {
	return finite(s) && s.X > 0 && s.Y > 0 && s.Z > 0
}

func boxRotation(b BoxShape) rl.Quaternion {
	if b.Rotation == (rl.Quaternion{}) {
		return rl.QuaternionIdentity()
	}
	return rl.QuaternionNormalize(b.Rotation)
}

func isIdentity(q rl.Quaternion) bool {
	return math.Abs(math.Abs(float64(q.W))-1) < scaleEpsilon
}

// checkShape validates a shape against the scale it will be built with.
func checkShape(s Shape, scale rl.Vector3) error {
	if !validScale(scale) {
		return fmt.Errorf("scale %v: %w", scale, ErrNoBoundingVolume)
	}
	switch v := s.(type) {
	case SphereShape:
		if v.Radius <= 0 {
			return fmt.Errorf("sphere radius %v: %w", v.Radius, ErrNoBoundingVolume)
		}
		if !uniform(scale) {
			return fmt.Errorf("sphere with scale %v: %w", scale, ErrNonUniformScale)
		}
	case BoxShape:
		if v.Size.X <= 0 || v.Size.Y <= 0 || v.Size.Z <= 0 {
			return fmt.Errorf("box size %v: %w", v.Size, ErrNoBoundingVolume)
		}
		if !uniform(scale) && !isIdentity(boxRotation(v)) {
			return fmt.Errorf("oriented box with scale %v: %w", scale, ErrNonUniformScale)
		}
	case PlaneShape:
		if rl.Vector3Length(v.Normal) == 0 {
			return fmt.Errorf("plane normal: %w", ErrNoBoundingVolume)
		}
	default:
		return fmt.Errorf("shape %T: %w", s, ErrNoBoundingVolume)
	}
	return nil
}

// geomInfo is stored in Geom.Data so contacts can be traced to objects.
type geomInfo struct {
	object   PhysicsObject
	shape    Shape
	particle bool
}

func infoOf(g *dynamics.Geom) *geomInfo {
	if g == nil {
		return nil
	}
	info, _ := g.Data.(*geomInfo)
	return info
}

// buildGeom creates the geom for a shape with the scale baked in.
func buildGeom(s Shape, scale rl.Vector3) *dynamics.Geom {
	var g *dynamics.Geom
	switch v := s.(type) {
	case SphereShape:
		g = dynamics.NewSphere(float64(v.Radius * scale.X))
	case BoxShape:
		g = dynamics.NewBox(toVec64(rl.Vector3Multiply(v.Size, scale)))
	case PlaneShape:
		n := rl.Vector3Normalize(v.Normal)
		g = dynamics.NewPlane(toVec64(n), float64(v.Distance))
	}
	return g
}

// resizeGeom applies a new scale to an existing geom in place.
func resizeGeom(g *dynamics.Geom, s Shape, scale rl.Vector3) {
	switch v := s.(type) {
	case SphereShape:
		g.SetRadius(float64(v.Radius * scale.X))
	case BoxShape:
		g.SetSize(toVec64(rl.Vector3Multiply(v.Size, scale)))
	}
}

// shapeOffset returns the shape's scaled offset and rotation in the object frame.
func shapeOffset(s Shape, scale rl.Vector3) (mgl64.Vec3, mgl64.Quat) {
	switch v := s.(type) {
	case SphereShape:
		return toVec64(rl.Vector3Multiply(v.Offset, scale)), mgl64.QuatIdent()
	case BoxShape:
		return toVec64(rl.Vector3Multiply(v.Offset, scale)), toQuat64(boxRotation(v))
	}
	return mgl64.Vec3{}, mgl64.QuatIdent()
}

func shapeVolume(s Shape, scale rl.Vector3) float64 {
	switch v := s.(type) {
	case SphereShape:
		r := float64(v.Radius * scale.X)
		return 4.0 / 3.0 * math.Pi * r * r * r
	case BoxShape:
		sz := rl.Vector3Multiply(v.Size, scale)
		return float64(sz.X) * float64(sz.Y) * float64(sz.Z)
	}
	return 0
}

// massOf distributes total over the shapes by volume and sums their inertia
// about the object origin.
func massOf(total float32, shapes []Shape, scale rl.Vector3) dynamics.Mass {
	var vol float64
	for _, s := range shapes {
		vol += shapeVolume(s, scale)
	}
	var m dynamics.Mass
	for _, s := range shapes {
		v := shapeVolume(s, scale)
		if v == 0 {
			continue
		}
		part := float64(total) * v / vol
		var sm dynamics.Mass
		switch sh := s.(type) {
		case SphereShape:
			sm = dynamics.SphereMass(part, float64(sh.Radius*scale.X))
		case BoxShape:
			sm = dynamics.BoxMass(part, toVec64(rl.Vector3Multiply(sh.Size, scale)))
			r := toQuat64(boxRotation(sh)).Mat4().Mat3()
			sm.Inertia = r.Mul3(sm.Inertia).Mul3(r.Transpose())
		}
		off, _ := shapeOffset(s, scale)
		m = m.Add(sm.Translate(off))
	}
	return m
}
