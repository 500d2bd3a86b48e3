package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// maxContacts caps the contact points generated for one geom pair.
const maxContacts = 8

// Collide runs the narrow phase for one pair of geoms. Returned normals point
// from b towards a.
func Collide(a, b *Geom) []ContactGeom {
	switch {
	case a.class == SphereClass && b.class == SphereClass:
		return collideSphereSphere(a, b)
	case a.class == SphereClass && b.class == BoxClass:
		return collideSphereBox(a, b)
	case a.class == BoxClass && b.class == SphereClass:
		return flip(collideSphereBox(b, a))
	case a.class == SphereClass && b.class == PlaneClass:
		return collideSpherePlane(a, b)
	case a.class == PlaneClass && b.class == SphereClass:
		return flip(collideSpherePlane(b, a))
	case a.class == BoxClass && b.class == PlaneClass:
		return collideBoxPlane(a, b)
	case a.class == PlaneClass && b.class == BoxClass:
		return flip(collideBoxPlane(b, a))
	case a.class == BoxClass && b.class == BoxClass:
		return collideBoxBox(a, b)
	}
	// plane vs plane never touches
	return nil
}

func flip(cs []ContactGeom) []ContactGeom {
	for i := range cs {
		cs[i] = cs[i].flipped()
	}
	return cs
}

func collideSphereSphere(a, b *Geom) []ContactGeom {
	pa, pb := a.Position(), b.Position()
	diff := pa.Sub(pb)
	dist := diff.Len()
	minDist := a.radius + b.radius
	if dist > minDist {
		return nil
	}
	normal := mgl64.Vec3{0, 1, 0}
	if dist > 1e-9 {
		normal = diff.Mul(1 / dist)
	}
	depth := minDist - dist
	return []ContactGeom{{
		Position: pb.Add(normal.Mul(b.radius - depth*0.5)),
		Normal:   normal,
		Depth:    depth,
		G1:       a,
		G2:       b,
	}}
}

func collideSpherePlane(s, p *Geom) []ContactGeom {
	c := s.Position()
	dist := p.normal.Dot(c) - p.distance
	depth := s.radius - dist
	if depth < 0 {
		return nil
	}
	return []ContactGeom{{
		Position: c.Sub(p.normal.Mul(s.radius)),
		Normal:   p.normal,
		Depth:    depth,
		G1:       s,
		G2:       p,
	}}
}

func collideSphereBox(s, box *Geom) []ContactGeom {
	c := s.Position()
	o := box.obb()
	local := o.Local(c)

	inside := true
	for i := 0; i < 3; i++ {
		if math.Abs(local[i]) > o.HalfSize[i] {
			inside = false
			break
		}
	}

	if inside {
		// center inside the box: push out through the nearest face
		best, axis, sign := math.MaxFloat64, 0, 1.0
		for i := 0; i < 3; i++ {
			d := o.HalfSize[i] - math.Abs(local[i])
			if d < best {
				best, axis = d, i
				sign = 1
				if local[i] < 0 {
					sign = -1
				}
			}
		}
		normal := o.Axes[axis].Mul(sign)
		return []ContactGeom{{
			Position: c,
			Normal:   normal,
			Depth:    s.radius + best,
			G1:       s,
			G2:       box,
		}}
	}

	closest := o.ClosestPoint(c)
	diff := c.Sub(closest)
	dist := diff.Len()
	if dist > s.radius {
		return nil
	}
	return []ContactGeom{{
		Position: closest,
		Normal:   diff.Mul(1 / dist),
		Depth:    s.radius - dist,
		G1:       s,
		G2:       box,
	}}
}

func collideBoxPlane(box, p *Geom) []ContactGeom {
	var out []ContactGeom
	for _, corner := range box.obb().Corners() {
		depth := p.distance - p.normal.Dot(corner)
		if depth < 0 {
			continue
		}
		out = append(out, ContactGeom{
			Position: corner,
			Normal:   p.normal,
			Depth:    depth,
			G1:       box,
			G2:       p,
		})
	}
	return out
}

func collideBoxBox(a, b *Geom) []ContactGeom {
	oa, ob := a.obb(), b.obb()
	normal, depth, ok := oa.Penetration(ob)
	if !ok {
		return nil
	}

	var points []mgl64.Vec3
	const tolerance = 1e-4
	for _, corner := range oa.Corners() {
		if ob.Contains(corner, tolerance) {
			points = append(points, corner)
		}
	}
	for _, corner := range ob.Corners() {
		if oa.Contains(corner, tolerance) {
			points = append(points, corner)
		}
	}
	if len(points) == 0 {
		// edge-edge: midpoint between the closest features
		pa := oa.ClosestPoint(ob.Center)
		pb := ob.ClosestPoint(oa.Center)
		points = append(points, pa.Add(pb).Mul(0.5))
	}
	if len(points) > maxContacts {
		points = points[:maxContacts]
	}

	out := make([]ContactGeom, 0, len(points))
	for _, p := range points {
		out = append(out, ContactGeom{
			Position: p,
			Normal:   normal,
			Depth:    depth,
			G1:       a,
			G2:       b,
		})
	}
	return out
}
