package components

import (
	"drivesim/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// PlaneCollider is an infinite static plane Normal·p = Distance in world
// space. Objects carrying one are always static.
type PlaneCollider struct {
	engine.BaseComponent
	Normal   rl.Vector3
	Distance float32
}

func NewPlaneCollider(normal rl.Vector3, distance float32) *PlaneCollider {
	return &PlaneCollider{Normal: normal, Distance: distance}
}

func planeColliderFromProps(props map[string]any) engine.Component {
	n := engine.PropVector3(props, "normal", [3]float32{0, 1, 0})
	return NewPlaneCollider(rl.Vector3{X: n[0], Y: n[1], Z: n[2]}, engine.PropFloat(props, "distance", 0))
}

func planeColliderToProps(c engine.Component) map[string]any {
	p, ok := c.(*PlaneCollider)
	if !ok {
		return nil
	}
	return map[string]any{
		"normal":   []float32{p.Normal.X, p.Normal.Y, p.Normal.Z},
		"distance": p.Distance,
	}
}
