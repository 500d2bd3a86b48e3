package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Infinity is used for unbounded friction and joint stops.
var Infinity = math.Inf(1)

// SurfaceMode selects which optional Surface fields are honoured.
type SurfaceMode int

const (
	ModeMu2 SurfaceMode = 1 << iota
	ModeFDir1
	ModeBounce
	ModeSoftERP
	ModeSoftCFM
	ModeSlip1
	ModeSlip2
	// ModeApprox1 bounds friction by Mu times the normal impulse instead of
	// treating Mu as a fixed force limit.
	ModeApprox1
)

// Surface holds the friction and bounce parameters of one contact.
type Surface struct {
	Mode      SurfaceMode
	Mu        float64
	Mu2       float64
	Bounce    float64
	BounceVel float64
	SoftERP   float64
	SoftCFM   float64
	Slip1     float64
	Slip2     float64
}

// ContactGeom is the geometric part of a contact. Normal points from G2
// towards G1: moving G1 along Normal by Depth separates the shapes.
type ContactGeom struct {
	Position mgl64.Vec3
	Normal   mgl64.Vec3
	Depth    float64
	G1, G2   *Geom
}

func (c ContactGeom) flipped() ContactGeom {
	return ContactGeom{
		Position: c.Position,
		Normal:   c.Normal.Mul(-1),
		Depth:    c.Depth,
		G1:       c.G2,
		G2:       c.G1,
	}
}

// Contact is one contact point handed to World.AddContacts.
type Contact struct {
	Geom    ContactGeom
	Surface Surface
	FDir1   mgl64.Vec3
}

// Bodies returns the bodies of both geoms; either may be nil for static geoms.
func (c *Contact) Bodies() (*Body, *Body) {
	return c.Geom.G1.body, c.Geom.G2.body
}

// appendRows adds one normal row and, when friction is non-zero, two friction
// rows bounded by the normal row.
func (c *Contact) appendRows(rows []row, w *World, dt float64) []row {
	b1, b2 := c.Bodies()
	if !b1.movable() && !b2.movable() {
		return rows
	}
	s := c.Surface
	n := c.Geom.Normal
	p := c.Geom.Position

	var r1, r2 mgl64.Vec3
	if b1 != nil {
		r1 = p.Sub(b1.pos)
	}
	if b2 != nil {
		r2 = p.Sub(b2.pos)
	}

	erp := w.erp
	if s.Mode&ModeSoftERP != 0 {
		erp = s.SoftERP
	}
	cfm := w.cfm
	if s.Mode&ModeSoftCFM != 0 {
		cfm = s.SoftCFM
	}

	normal := row{
		b1: b1, b2: b2,
		j1l: n, j1a: r1.Cross(n),
		j2l: n.Mul(-1), j2a: r2.Cross(n).Mul(-1),
		cfm:      cfm / dt,
		lo:       0,
		hi:       Infinity,
		friction: -1,
	}
	depth := math.Max(c.Geom.Depth-w.contactSurfaceLayer, 0)
	target := math.Min(erp/dt*depth, w.contactMaxCorrectingVel)
	if s.Mode&ModeBounce != 0 && s.Bounce > 0 {
		approach := normal.velocity()
		if -approach > s.BounceVel {
			target = math.Max(target, -s.Bounce*approach)
		}
	}
	normal.rhs = target
	normalIndex := len(rows)
	rows = append(rows, normal)

	if s.Mu <= 0 {
		return rows
	}
	t1, t2 := planeSpace(n)
	if s.Mode&ModeFDir1 != 0 && c.FDir1.Len() > 0 {
		t1 = c.FDir1.Sub(n.Mul(c.FDir1.Dot(n)))
		if t1.Len() > 1e-9 {
			t1 = t1.Normalize()
			t2 = n.Cross(t1)
		} else {
			t1, t2 = planeSpace(n)
		}
	}
	mu2 := s.Mu
	if s.Mode&ModeMu2 != 0 {
		mu2 = s.Mu2
	}
	slip := [2]float64{w.cfm, w.cfm}
	if s.Mode&ModeSlip1 != 0 {
		slip[0] = s.Slip1
	}
	if s.Mode&ModeSlip2 != 0 {
		slip[1] = s.Slip2
	}
	for i, t := range [2]mgl64.Vec3{t1, t2} {
		mu := s.Mu
		if i == 1 {
			mu = mu2
		}
		if mu <= 0 {
			continue
		}
		fr := row{
			b1: b1, b2: b2,
			j1l: t, j1a: r1.Cross(t),
			j2l: t.Mul(-1), j2a: r2.Cross(t).Mul(-1),
			cfm:      slip[i] / dt,
			friction: -1,
		}
		if s.Mode&ModeApprox1 != 0 {
			fr.friction = normalIndex
			fr.mu = mu
		} else {
			fr.lo, fr.hi = -mu*dt, mu*dt
		}
		rows = append(rows, fr)
	}
	return rows
}

// planeSpace returns two unit vectors orthogonal to n and to each other.
func planeSpace(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var p mgl64.Vec3
	if math.Abs(n[2]) > 0.7071067811865476 {
		a := n[1]*n[1] + n[2]*n[2]
		k := 1 / math.Sqrt(a)
		p = mgl64.Vec3{0, -n[2] * k, n[1] * k}
	} else {
		a := n[0]*n[0] + n[1]*n[1]
		k := 1 / math.Sqrt(a)
		p = mgl64.Vec3{-n[1] * k, n[0] * k, 0}
	}
	return p, n.Cross(p)
}
