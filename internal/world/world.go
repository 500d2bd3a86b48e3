package world

import (
	"errors"
	"fmt"
	"log"

	"drivesim/internal/assets"
	"drivesim/internal/components"
	"drivesim/internal/engine"
	"drivesim/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var ErrUnknownSurface = errors.New("world: unknown surface")

// Pose is a world-space position and orientation.
type Pose struct {
	Position rl.Vector3
	Rotation rl.Quaternion
}

// World ties the scene graph to the physics world: every object added here
// that carries a collider gets a physics object.
type World struct {
	Scene   *engine.Scene
	Physics *physics.PhysicsWorld
	Spawn   Pose
	Frustum *physics.FrustumPolicy
	// Surfaces resolves the surface names used by scene files.
	Surfaces *assets.Library
	// SurfacesFile is where Surfaces was loaded from, empty for the defaults.
	SurfacesFile string

	bodies   map[*engine.GameObject]physics.PhysicsObject
	surfaces map[*engine.GameObject]string
}

func New(name string, pw *physics.PhysicsWorld) *World {
	return &World{
		Scene:    engine.NewScene(name),
		Physics:  pw,
		Spawn:    Pose{Position: rl.Vector3{Y: 1}, Rotation: rl.QuaternionIdentity()},
		Frustum:  physics.NewFrustumPolicy(),
		Surfaces: assets.DefaultLibrary(),
		bodies:   make(map[*engine.GameObject]physics.PhysicsObject),
		surfaces: make(map[*engine.GameObject]string),
	}
}

func hasCollider(g *engine.GameObject) bool {
	return engine.GetComponent[*components.BoxCollider](g) != nil ||
		engine.GetComponent[*components.SphereCollider](g) != nil ||
		engine.GetComponent[*components.PlaneCollider](g) != nil
}

// AddObject adds g and its descendants to the scene and the physics world.
// Nothing is added when any physics object fails to build.
func (w *World) AddObject(g *engine.GameObject) error {
	built := make(map[*engine.GameObject]physics.PhysicsObject)
	if err := w.build(g, built); err != nil {
		return err
	}
	for obj, po := range built {
		w.Physics.AddObject(po)
		w.bodies[obj] = po
	}
	w.addToScene(g)
	return nil
}

func (w *World) build(g *engine.GameObject, built map[*engine.GameObject]physics.PhysicsObject) error {
	if hasCollider(g) {
		po, err := physics.FromGameObject(g)
		if err != nil {
			return fmt.Errorf("%s: %w", g.Name, err)
		}
		built[g] = po
	}
	for _, c := range g.Children {
		if err := w.build(c, built); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) addToScene(g *engine.GameObject) {
	w.Scene.AddGameObject(g)
	for _, c := range g.Children {
		w.addToScene(c)
	}
}

// AttachPhysics registers an already built physics object, such as a car
// part, together with its game object.
func (w *World) AttachPhysics(po physics.PhysicsObject) {
	g := po.Spatial()
	if w.Physics.ContainsObject(po) || w.Physics.AddObject(po) {
		w.bodies[g] = po
	}
	if w.Scene.FindByUID(g.UID) == nil {
		w.Scene.AddGameObject(g)
	}
}

// RemoveObject takes g and its descendants out of the scene and physics.
func (w *World) RemoveObject(g *engine.GameObject) {
	w.detach(g)
	w.Scene.RemoveGameObject(g)
}

func (w *World) detach(g *engine.GameObject) {
	for _, c := range g.Children {
		w.detach(c)
	}
	if po, ok := w.bodies[g]; ok {
		w.Frustum.Forget(po)
		w.Physics.RemoveObject(po)
		delete(w.bodies, g)
	}
	delete(w.surfaces, g)
}

// SetSurface gives g the look and grip of the named surface. Objects
// without a physics object only change color.
func (w *World) SetSurface(g *engine.GameObject, name string) error {
	s, ok := w.Surfaces.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSurface, name)
	}
	if po, ok := w.bodies[g].(interface{ SetMaterial(*physics.Material) }); ok {
		po.SetMaterial(s.Material())
	}
	if mr := engine.GetComponent[*components.MeshRenderer](g); mr != nil {
		mr.Color = s.Color
	}
	w.surfaces[g] = name
	return nil
}

// Surface returns the surface name set on g, if any.
func (w *World) Surface(g *engine.GameObject) string { return w.surfaces[g] }

// PhysicsObject returns the physics object built for g, or nil.
func (w *World) PhysicsObject(g *engine.GameObject) physics.PhysicsObject {
	return w.bodies[g]
}

func (w *World) NumberOfBodies() int { return len(w.bodies) }

// GroundHeight casts a ray straight down from above pos and returns the
// height of the first surface hit.
func (w *World) GroundHeight(pos rl.Vector3, ignore ...physics.PhysicsObject) (float32, bool) {
	origin := rl.Vector3{X: pos.X, Y: pos.Y + 50, Z: pos.Z}
	hit, ok := w.Physics.Raycast(origin, rl.Vector3{Y: -1}, 500, ignore...)
	if !ok {
		return 0, false
	}
	return hit.Point.Y, true
}

// Cull reports the visibility of every dynamic body to the frustum policy
// and returns how many bodies are held disabled afterwards.
func (w *World) Cull(f *Frustum, exempt ...physics.PhysicsObject) int {
	for g, po := range w.bodies {
		if _, ok := po.(*physics.DynamicPhysicsObject); !ok {
			continue
		}
		visible := f.ContainsSphere(g.WorldPosition(), boundingRadius(g))
		for _, e := range exempt {
			if e == po {
				visible = true
			}
		}
		w.Frustum.Observe(po, visible)
	}
	return w.Frustum.Disabled()
}

// BoundingSpheres returns a world-space sphere around each body with a
// finite collider, in scene order. Planes are skipped.
func (w *World) BoundingSpheres() ([]*engine.GameObject, []rl.Vector4) {
	var objs []*engine.GameObject
	var spheres []rl.Vector4
	for _, g := range w.Scene.GameObjects {
		if _, ok := w.bodies[g]; !ok {
			continue
		}
		r := boundingRadius(g)
		if r <= 0 {
			continue
		}
		p := g.WorldPosition()
		objs = append(objs, g)
		spheres = append(spheres, rl.Vector4{X: p.X, Y: p.Y, Z: p.Z, W: r})
	}
	return objs, spheres
}

// boundingRadius is the radius of a sphere around every collider of g.
func boundingRadius(g *engine.GameObject) float32 {
	s := g.WorldScale()
	scale := max(s.X, s.Y, s.Z)
	var r float32
	for _, c := range g.Components() {
		switch col := c.(type) {
		case *components.SphereCollider:
			r = max(r, (col.Radius+rl.Vector3Length(col.Offset))*scale)
		case *components.BoxCollider:
			r = max(r, (rl.Vector3Length(col.Size)/2+rl.Vector3Length(col.Offset))*scale)
		}
	}
	return r
}

// Clear removes every object from the scene and the physics world.
func (w *World) Clear() {
	for len(w.Scene.GameObjects) > 0 {
		g := w.Scene.GameObjects[0]
		for g.Parent != nil {
			g = g.Parent
		}
		w.RemoveObject(g)
	}
	if len(w.bodies) > 0 {
		log.Printf("World: %d bodies without scene objects", len(w.bodies))
		for g := range w.bodies {
			w.detach(g)
		}
	}
}
