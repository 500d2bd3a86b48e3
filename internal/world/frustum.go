package world

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	NearPlane float32 = 0.1
	FarPlane  float32 = 1000.0
)

// Frustum represents the 6 planes of a view frustum for culling
type Frustum struct {
	planes [6]Plane // left, right, bottom, top, near, far
}

// Plane represents a plane in 3D space (ax + by + cz + d = 0)
type Plane struct {
	Normal   rl.Vector3
	Distance float32
}

// ExtractFrustum extracts frustum planes from the camera's view-projection
// matrix using the Gribb/Hartmann method. aspect is width over height.
func ExtractFrustum(camera rl.Camera3D, aspect float32) Frustum {
	view := rl.MatrixLookAt(camera.Position, camera.Target, camera.Up)

	var proj rl.Matrix
	if camera.Projection == rl.CameraPerspective {
		proj = rl.MatrixPerspective(camera.Fovy*rl.Deg2rad, aspect, NearPlane, FarPlane)
	} else {
		halfH := camera.Fovy / 2.0
		halfW := halfH * aspect
		proj = rl.MatrixOrtho(-halfW, halfW, -halfH, halfH, NearPlane, FarPlane)
	}

	// VP = P * V
	vp := rl.MatrixMultiply(view, proj)

	row := func(i int) [4]float32 {
		switch i {
		case 0:
			return [4]float32{vp.M0, vp.M4, vp.M8, vp.M12}
		case 1:
			return [4]float32{vp.M1, vp.M5, vp.M9, vp.M13}
		case 2:
			return [4]float32{vp.M2, vp.M6, vp.M10, vp.M14}
		}
		return [4]float32{vp.M3, vp.M7, vp.M11, vp.M15}
	}
	w := row(3)

	var f Frustum
	for i := range 3 {
		r := row(i)
		f.planes[2*i] = planeFrom(w, r, 1)
		f.planes[2*i+1] = planeFrom(w, r, -1)
	}
	return f
}

// planeFrom builds the plane row4 + sign·r.
func planeFrom(w, r [4]float32, sign float32) Plane {
	return normalizePlane(Plane{
		Normal: rl.Vector3{
			X: w[0] + sign*r[0],
			Y: w[1] + sign*r[1],
			Z: w[2] + sign*r[2],
		},
		Distance: w[3] + sign*r[3],
	})
}

func normalizePlane(p Plane) Plane {
	length := rl.Vector3Length(p.Normal)
	if length == 0 {
		return p
	}
	return Plane{
		Normal:   rl.Vector3Scale(p.Normal, 1.0/length),
		Distance: p.Distance / length,
	}
}

func (f *Frustum) Planes() [6]Plane { return f.planes }

// ContainsSphere tests if a sphere is inside or intersects the frustum
func (f *Frustum) ContainsSphere(center rl.Vector3, radius float32) bool {
	for i := range f.planes {
		dist := rl.Vector3DotProduct(f.planes[i].Normal, center) + f.planes[i].Distance
		// completely behind one plane
		if dist < -radius {
			return false
		}
	}
	return true
}

// ContainsPoint tests if a point is inside the frustum
func (f *Frustum) ContainsPoint(point rl.Vector3) bool {
	return f.ContainsSphere(point, 0)
}
