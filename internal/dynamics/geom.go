package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type GeomClass int

const (
	SphereClass GeomClass = iota
	BoxClass
	PlaneClass
)

func (c GeomClass) String() string {
	switch c {
	case SphereClass:
		return "sphere"
	case BoxClass:
		return "box"
	case PlaneClass:
		return "plane"
	}
	return "unknown"
}

// Geom is a collision shape. A geom attached to a body follows it with a fixed
// local offset; a geom without a body is static and placed directly.
type Geom struct {
	class       GeomClass
	radius      float64
	halfExtents mgl64.Vec3
	normal      mgl64.Vec3 // plane: normal·p = distance
	distance    float64

	body      *Body
	offsetPos mgl64.Vec3
	offsetRot mgl64.Quat
	pos       mgl64.Vec3
	rot       mgl64.Quat

	enabled bool
	space   *Space

	Data any
}

func newGeom(class GeomClass) *Geom {
	return &Geom{
		class:     class,
		offsetRot: mgl64.QuatIdent(),
		rot:       mgl64.QuatIdent(),
		enabled:   true,
	}
}

func NewSphere(radius float64) *Geom {
	g := newGeom(SphereClass)
	g.radius = radius
	return g
}

// NewBox creates a box geom from full side lengths.
func NewBox(size mgl64.Vec3) *Geom {
	g := newGeom(BoxClass)
	g.halfExtents = size.Mul(0.5)
	return g
}

// NewPlane creates an infinite plane n·p = d. Planes are always static.
func NewPlane(normal mgl64.Vec3, d float64) *Geom {
	g := newGeom(PlaneClass)
	g.normal = normal.Normalize()
	g.distance = d
	return g
}

func (g *Geom) Class() GeomClass { return g.class }

func (g *Geom) Radius() float64 { return g.radius }

func (g *Geom) SetRadius(r float64) { g.radius = r }

// Size returns the full side lengths of a box geom.
func (g *Geom) Size() mgl64.Vec3 { return g.halfExtents.Mul(2) }

func (g *Geom) SetSize(size mgl64.Vec3) { g.halfExtents = size.Mul(0.5) }

func (g *Geom) Plane() (mgl64.Vec3, float64) { return g.normal, g.distance }

func (g *Geom) SetPlane(normal mgl64.Vec3, d float64) {
	g.normal = normal.Normalize()
	g.distance = d
}

func (g *Geom) Body() *Body { return g.body }

// SetBody attaches the geom to a body, or detaches it when b is nil.
// Planes cannot be attached to bodies.
func (g *Geom) SetBody(b *Body) {
	if g.class == PlaneClass {
		return
	}
	if g.body != nil {
		g.pos = g.Position()
		g.rot = g.Rotation()
		g.body.detachGeom(g)
	}
	g.body = b
	if b != nil {
		b.geoms = append(b.geoms, g)
	}
}

// SetOffset places the geom relative to its body.
func (g *Geom) SetOffset(pos mgl64.Vec3, rot mgl64.Quat) {
	g.offsetPos = pos
	g.offsetRot = rot.Normalize()
}

func (g *Geom) Offset() (mgl64.Vec3, mgl64.Quat) { return g.offsetPos, g.offsetRot }

func (g *Geom) Position() mgl64.Vec3 {
	if g.body != nil {
		return g.body.pos.Add(g.body.rot.Rotate(g.offsetPos))
	}
	return g.pos
}

func (g *Geom) Rotation() mgl64.Quat {
	if g.body != nil {
		return g.body.rot.Mul(g.offsetRot)
	}
	return g.rot
}

// SetPosition places a static geom, or moves the body of an attached geom so
// that the geom ends up at p.
func (g *Geom) SetPosition(p mgl64.Vec3) {
	if g.body != nil {
		g.body.pos = p.Sub(g.body.rot.Rotate(g.offsetPos))
		return
	}
	g.pos = p
}

func (g *Geom) SetRotation(q mgl64.Quat) {
	q = q.Normalize()
	if g.body != nil {
		g.body.SetQuaternion(q.Mul(g.offsetRot.Conjugate()))
		return
	}
	g.rot = q
}

func (g *Geom) Enabled() bool { return g.enabled }

func (g *Geom) Enable() { g.enabled = true }

func (g *Geom) Disable() { g.enabled = false }

func (g *Geom) Space() *Space { return g.space }

func (g *Geom) infinite() bool { return g.class == PlaneClass }

// AABB returns the world-space bounds of the geom. Planes report infinite bounds.
func (g *Geom) AABB() (lo, hi mgl64.Vec3) {
	switch g.class {
	case SphereClass:
		c := g.Position()
		r := mgl64.Vec3{g.radius, g.radius, g.radius}
		return c.Sub(r), c.Add(r)
	case BoxClass:
		c := g.Position()
		o := g.obb()
		var ext mgl64.Vec3
		for i := 0; i < 3; i++ {
			ext[i] = math.Abs(o.Axes[0][i])*o.HalfSize[0] +
				math.Abs(o.Axes[1][i])*o.HalfSize[1] +
				math.Abs(o.Axes[2][i])*o.HalfSize[2]
		}
		return c.Sub(ext), c.Add(ext)
	}
	inf := math.Inf(1)
	return mgl64.Vec3{-inf, -inf, -inf}, mgl64.Vec3{inf, inf, inf}
}

// BoundingRadius is the radius of a sphere around Position enclosing the geom.
func (g *Geom) BoundingRadius() float64 {
	switch g.class {
	case SphereClass:
		return g.radius
	case BoxClass:
		return g.halfExtents.Len()
	}
	return math.Inf(1)
}

func (g *Geom) obb() OBB {
	return NewOBB(g.Position(), g.halfExtents, g.Rotation())
}
