package physics

import (
	"drivesim/internal/dynamics"
	"drivesim/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type RaycastHit struct {
	Object     PhysicsObject
	GameObject *engine.GameObject
	Point      rl.Vector3
	Normal     rl.Vector3
	Distance   float32
}

// Raycast returns the closest enabled object hit within maxDistance.
// Objects listed in ignore are skipped.
func (p *PhysicsWorld) Raycast(origin, direction rl.Vector3, maxDistance float32, ignore ...PhysicsObject) (RaycastHit, bool) {
	if !finite(origin) || !finite(direction) {
		return RaycastHit{}, false
	}
	skip := func(g *dynamics.Geom) bool {
		info := infoOf(g)
		if info == nil {
			return true
		}
		for _, o := range ignore {
			if o == info.object {
				return true
			}
		}
		return false
	}
	hit, ok := p.space.Raycast(toVec64(origin), toVec64(direction), float64(maxDistance), skip)
	if !ok {
		return RaycastHit{}, false
	}
	obj := infoOf(hit.Geom).object
	return RaycastHit{
		Object:     obj,
		GameObject: obj.Spatial(),
		Point:      fromVec64(hit.Position),
		Normal:     fromVec64(hit.Normal),
		Distance:   float32(hit.Distance),
	}, true
}
