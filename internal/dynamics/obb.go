package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// OBB represents an Oriented Bounding Box
type OBB struct {
	Center   mgl64.Vec3    // World-space center
	HalfSize mgl64.Vec3    // Half-extents along local axes
	Axes     [3]mgl64.Vec3 // Local X, Y, Z axes (rotated)
}

// NewOBB creates an OBB from center, half extents and orientation
func NewOBB(center, halfSize mgl64.Vec3, rot mgl64.Quat) OBB {
	return OBB{
		Center:   center,
		HalfSize: halfSize,
		Axes: [3]mgl64.Vec3{
			rot.Rotate(mgl64.Vec3{1, 0, 0}),
			rot.Rotate(mgl64.Vec3{0, 1, 0}),
			rot.Rotate(mgl64.Vec3{0, 0, 1}),
		},
	}
}

// project returns the OBB's half-length projected onto axis
func (o OBB) project(axis mgl64.Vec3) float64 {
	return o.HalfSize[0]*math.Abs(o.Axes[0].Dot(axis)) +
		o.HalfSize[1]*math.Abs(o.Axes[1].Dot(axis)) +
		o.HalfSize[2]*math.Abs(o.Axes[2].Dot(axis))
}

// IntersectsOBB tests if two OBBs intersect using the Separating Axis Theorem
func (a OBB) IntersectsOBB(b OBB) bool {
	_, _, ok := a.Penetration(b)
	return ok
}

// Penetration finds the axis of minimum overlap over the 15 SAT axes.
// The returned normal points from b towards a, so moving a along it by depth
// separates the boxes.
func (a OBB) Penetration(b OBB) (normal mgl64.Vec3, depth float64, ok bool) {
	t := b.Center.Sub(a.Center)
	depth = math.MaxFloat64

	testAxis := func(axis mgl64.Vec3) bool {
		l := axis.Len()
		if l < 1e-6 {
			return true
		}
		axis = axis.Mul(1 / l)
		dist := t.Dot(axis)
		pen := a.project(axis) + b.project(axis) - math.Abs(dist)
		if pen < 0 {
			return false
		}
		if pen < depth {
			depth = pen
			// Push in the direction away from B
			if dist < 0 {
				normal = axis
			} else {
				normal = axis.Mul(-1)
			}
		}
		return true
	}

	// A's face normals, B's face normals, then edge cross products
	for i := 0; i < 3; i++ {
		if !testAxis(a.Axes[i]) {
			return mgl64.Vec3{}, 0, false
		}
	}
	for i := 0; i < 3; i++ {
		if !testAxis(b.Axes[i]) {
			return mgl64.Vec3{}, 0, false
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !testAxis(a.Axes[i].Cross(b.Axes[j])) {
				return mgl64.Vec3{}, 0, false
			}
		}
	}
	return normal, depth, true
}

// Local transforms a world point into the OBB's frame
func (o OBB) Local(p mgl64.Vec3) mgl64.Vec3 {
	d := p.Sub(o.Center)
	return mgl64.Vec3{d.Dot(o.Axes[0]), d.Dot(o.Axes[1]), d.Dot(o.Axes[2])}
}

// World transforms a point in the OBB's frame back to world space
func (o OBB) World(l mgl64.Vec3) mgl64.Vec3 {
	return o.Center.
		Add(o.Axes[0].Mul(l[0])).
		Add(o.Axes[1].Mul(l[1])).
		Add(o.Axes[2].Mul(l[2]))
}

// Contains reports whether p lies inside the box, grown by tolerance
func (o OBB) Contains(p mgl64.Vec3, tolerance float64) bool {
	l := o.Local(p)
	for i := 0; i < 3; i++ {
		if math.Abs(l[i]) > o.HalfSize[i]+tolerance {
			return false
		}
	}
	return true
}

// ClosestPoint returns the closest point inside or on the OBB to the given point
func (o OBB) ClosestPoint(p mgl64.Vec3) mgl64.Vec3 {
	l := o.Local(p)
	for i := 0; i < 3; i++ {
		l[i] = mgl64.Clamp(l[i], -o.HalfSize[i], o.HalfSize[i])
	}
	return o.World(l)
}

// Corners returns the 8 world-space corners
func (o OBB) Corners() [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	for i := 0; i < 8; i++ {
		l := o.HalfSize
		if i&1 != 0 {
			l[0] = -l[0]
		}
		if i&2 != 0 {
			l[1] = -l[1]
		}
		if i&4 != 0 {
			l[2] = -l[2]
		}
		out[i] = o.World(l)
	}
	return out
}
