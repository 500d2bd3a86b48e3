package dynamics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollideSphereSphere(t *testing.T) {
	a := NewSphere(1)
	b := NewSphere(1)
	b.SetPosition(mgl64.Vec3{1.5, 0, 0})

	cs := Collide(a, b)
	require.Len(t, cs, 1)
	assert.InDelta(t, 0.5, cs[0].Depth, 1e-9)
	assert.InDelta(t, -1, cs[0].Normal[0], 1e-9)
	assert.Same(t, a, cs[0].G1)
	assert.Same(t, b, cs[0].G2)

	b.SetPosition(mgl64.Vec3{3, 0, 0})
	assert.Empty(t, Collide(a, b))
}

func TestCollideFlippedPairKeepsNormalConvention(t *testing.T) {
	plane := NewPlane(mgl64.Vec3{0, 1, 0}, 0)
	s := NewSphere(1)
	s.SetPosition(mgl64.Vec3{0, 0.5, 0})

	cs := Collide(plane, s)
	require.Len(t, cs, 1)
	assert.Same(t, plane, cs[0].G1)
	// normal points from the sphere (G2) towards the plane (G1)
	assert.InDelta(t, -1, cs[0].Normal[1], 1e-9)
	assert.InDelta(t, 0.5, cs[0].Depth, 1e-9)
}

func TestCollideBoxPlaneCorners(t *testing.T) {
	plane := NewPlane(mgl64.Vec3{0, 1, 0}, 0)
	box := NewBox(mgl64.Vec3{2, 2, 2})
	box.SetPosition(mgl64.Vec3{0, 0.9, 0})

	cs := Collide(box, plane)
	assert.Len(t, cs, 4)
	for _, c := range cs {
		assert.InDelta(t, 0.1, c.Depth, 1e-9)
	}
}

func TestCollideSphereBox(t *testing.T) {
	box := NewBox(mgl64.Vec3{2, 2, 2})
	s := NewSphere(0.5)
	s.SetPosition(mgl64.Vec3{0, 1.25, 0})

	cs := Collide(s, box)
	require.Len(t, cs, 1)
	assert.InDelta(t, 0.25, cs[0].Depth, 1e-9)
	assert.InDelta(t, 1, cs[0].Normal[1], 1e-9)
}

func TestCollideBoxBox(t *testing.T) {
	a := NewBox(mgl64.Vec3{1, 1, 1})
	b := NewBox(mgl64.Vec3{1, 1, 1})
	b.SetPosition(mgl64.Vec3{0, 0.9, 0})

	cs := Collide(a, b)
	require.NotEmpty(t, cs)
	assert.InDelta(t, 0.1, cs[0].Depth, 1e-6)
	assert.InDelta(t, -1, cs[0].Normal[1], 1e-6)

	b.SetPosition(mgl64.Vec3{0, 2, 0})
	assert.Empty(t, Collide(a, b))
}

func TestSpaceSkipsGeomsOnSameBody(t *testing.T) {
	s := NewSpace()
	b := NewBody()
	g1 := NewSphere(1)
	g2 := NewSphere(1)
	g1.SetBody(b)
	g2.SetBody(b)
	s.Add(g1)
	s.Add(g2)

	assert.Empty(t, s.Collide())
}

func TestSpaceSkipsDisabledGeoms(t *testing.T) {
	s := NewSpace()
	g1 := NewSphere(1)
	g2 := NewSphere(1)
	g2.SetPosition(mgl64.Vec3{0.5, 0, 0})
	s.Add(g1)
	s.Add(g2)
	assert.Len(t, s.Collide(), 1)

	g2.Disable()
	assert.Empty(t, s.Collide())
}

func TestSpaceMovesGeomBetweenSpaces(t *testing.T) {
	s1, s2 := NewSpace(), NewSpace()
	g := NewSphere(1)
	s1.Add(g)
	s2.Add(g)

	assert.Equal(t, 0, s1.NumGeoms())
	assert.True(t, s2.Contains(g))
	assert.True(t, s2.Remove(g))
	assert.Nil(t, g.Space())
}

func TestPlaneRefusesBody(t *testing.T) {
	p := NewPlane(mgl64.Vec3{0, 1, 0}, 0)
	p.SetBody(NewBody())
	assert.Nil(t, p.Body())
}

func TestRaycast(t *testing.T) {
	s := NewSpace()
	s.Add(NewPlane(mgl64.Vec3{0, 1, 0}, 0))
	sphere := NewSphere(0.5)
	sphere.SetPosition(mgl64.Vec3{0, 2, 0})
	s.Add(sphere)

	hit, ok := s.Raycast(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, -1, 0}, 100, nil)
	require.True(t, ok)
	assert.Same(t, sphere, hit.Geom)
	assert.InDelta(t, 2.5, hit.Distance, 1e-9)
	assert.InDelta(t, 1, hit.Normal[1], 1e-9)

	hit, ok = s.Raycast(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, -1, 0}, 100, func(g *Geom) bool { return g == sphere })
	require.True(t, ok)
	assert.Equal(t, PlaneClass, hit.Geom.Class())
	assert.InDelta(t, 5, hit.Distance, 1e-9)

	_, ok = s.Raycast(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, 1, 0}, 100, nil)
	assert.False(t, ok)
}

func TestRaycastBox(t *testing.T) {
	s := NewSpace()
	box := NewBox(mgl64.Vec3{2, 2, 2})
	s.Add(box)

	hit, ok := s.Raycast(mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{1, 0, 0}, 100, nil)
	require.True(t, ok)
	assert.InDelta(t, 4, hit.Distance, 1e-9)
	assert.InDelta(t, -1, hit.Normal[0], 1e-9)

	_, ok = s.Raycast(mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{1, 0, 0}, 3, nil)
	assert.False(t, ok)
}
