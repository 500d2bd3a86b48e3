package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RayHit describes the closest geom hit by a ray.
type RayHit struct {
	Geom     *Geom
	Position mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
}

// Raycast returns the closest enabled geom hit by the ray within maxDist.
// skip, when non-nil, filters geoms out of the test.
func (s *Space) Raycast(origin, dir mgl64.Vec3, maxDist float64, skip func(*Geom) bool) (RayHit, bool) {
	if dir.Len() < 1e-12 {
		return RayHit{}, false
	}
	dir = dir.Normalize()

	best := RayHit{Distance: maxDist}
	found := false
	for _, g := range s.geoms {
		if !g.enabled || (skip != nil && skip(g)) {
			continue
		}
		var t float64
		var n mgl64.Vec3
		var ok bool
		switch g.class {
		case SphereClass:
			t, n, ok = raySphere(origin, dir, g.Position(), g.radius)
		case BoxClass:
			t, n, ok = rayOBB(origin, dir, g.obb())
		case PlaneClass:
			t, n, ok = rayPlane(origin, dir, g.normal, g.distance)
		}
		if ok && t >= 0 && t < best.Distance {
			best = RayHit{Geom: g, Position: origin.Add(dir.Mul(t)), Normal: n, Distance: t}
			found = true
		}
	}
	return best, found
}

func raySphere(origin, dir, center mgl64.Vec3, radius float64) (float64, mgl64.Vec3, bool) {
	oc := origin.Sub(center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, mgl64.Vec3{}, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, mgl64.Vec3{}, false
	}
	n := origin.Add(dir.Mul(t)).Sub(center).Normalize()
	return t, n, true
}

// rayOBB runs the slab test in box space.
func rayOBB(origin, dir mgl64.Vec3, o OBB) (float64, mgl64.Vec3, bool) {
	lo := o.Local(origin)
	var ld mgl64.Vec3
	for i := 0; i < 3; i++ {
		ld[i] = dir.Dot(o.Axes[i])
	}

	tmin, tmax := -math.MaxFloat64, math.MaxFloat64
	axis, sign := -1, 1.0
	for i := 0; i < 3; i++ {
		if math.Abs(ld[i]) < 1e-12 {
			if lo[i] < -o.HalfSize[i] || lo[i] > o.HalfSize[i] {
				return 0, mgl64.Vec3{}, false
			}
			continue
		}
		inv := 1 / ld[i]
		t1 := (-o.HalfSize[i] - lo[i]) * inv
		t2 := (o.HalfSize[i] - lo[i]) * inv
		s := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1
		}
		if t1 > tmin {
			tmin, axis, sign = t1, i, s
		}
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, mgl64.Vec3{}, false
		}
	}
	if tmax < 0 {
		return 0, mgl64.Vec3{}, false
	}
	if tmin < 0 {
		// origin inside the box
		return 0, dir.Mul(-1), true
	}
	n := mgl64.Vec3{0, 1, 0}
	if axis >= 0 {
		n = o.Axes[axis].Mul(sign)
	}
	return tmin, n, true
}

func rayPlane(origin, dir, normal mgl64.Vec3, d float64) (float64, mgl64.Vec3, bool) {
	denom := normal.Dot(dir)
	if math.Abs(denom) < 1e-12 {
		return 0, mgl64.Vec3{}, false
	}
	t := (d - normal.Dot(origin)) / denom
	if t < 0 {
		return 0, mgl64.Vec3{}, false
	}
	if denom > 0 {
		return t, normal.Mul(-1), true
	}
	return t, normal, true
}
