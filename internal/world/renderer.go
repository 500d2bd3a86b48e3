package world

import (
	"drivesim/internal/components"
	"drivesim/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var colliderColor = rl.Lime

// Renderer draws mesh renderers that survive frustum culling, optionally
// with collider outlines. All methods must be called between BeginMode3D
// and EndMode3D.
type Renderer struct {
	ShowColliders bool
	// Drawn and Culled count objects of the last Draw.
	Drawn  int
	Culled int
}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Draw(gameObjects []*engine.GameObject, f *Frustum) {
	r.Drawn, r.Culled = 0, 0
	for _, g := range gameObjects {
		renderer := engine.GetComponent[*components.MeshRenderer](g)
		if renderer == nil || !g.Active {
			continue
		}
		// planes are unbounded
		if renderer.MeshType != components.MeshPlane && !f.ContainsSphere(g.WorldPosition(), meshRadius(g, renderer)) {
			r.Culled++
			continue
		}
		renderer.Draw()
		r.Drawn++
		if r.ShowColliders {
			drawColliders(g)
		}
	}
}

func meshRadius(g *engine.GameObject, m *components.MeshRenderer) float32 {
	s := g.WorldScale()
	scale := max(s.X, s.Y, s.Z)
	if m.MeshType == components.MeshSphere {
		return m.Size.X * scale
	}
	return rl.Vector3Length(m.Size) / 2 * scale
}

func drawColliders(g *engine.GameObject) {
	pos := g.WorldPosition()
	scale := g.WorldScale()
	var axis rl.Vector3
	var angle float32
	rl.QuaternionToAxisAngle(g.WorldRotation(), &axis, &angle)

	rl.PushMatrix()
	rl.Translatef(pos.X, pos.Y, pos.Z)
	rl.Rotatef(angle*rl.Rad2deg, axis.X, axis.Y, axis.Z)
	rl.Scalef(scale.X, scale.Y, scale.Z)
	for _, c := range g.Components() {
		switch col := c.(type) {
		case *components.BoxCollider:
			rl.DrawCubeWiresV(col.Offset, col.Size, colliderColor)
		case *components.SphereCollider:
			rl.DrawSphereWires(col.Offset, col.Radius, 8, 8, colliderColor)
		}
	}
	rl.PopMatrix()
}

// DrawContacts marks the contact points of the last physics step.
func (r *Renderer) DrawContacts(points []rl.Vector3) {
	for _, p := range points {
		rl.DrawSphere(p, 0.08, rl.Red)
	}
}
