package components

import (
	"drivesim/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// BoxCollider is an oriented box in the object's local frame. Size is the
// full side length before the object's scale is applied.
type BoxCollider struct {
	engine.BaseComponent
	Size     rl.Vector3
	Offset   rl.Vector3
	Particle bool
}

func NewBoxCollider(size rl.Vector3) *BoxCollider {
	return &BoxCollider{
		Size:   size,
		Offset: rl.Vector3{},
	}
}

func boxColliderFromProps(props map[string]any) engine.Component {
	s := engine.PropVector3(props, "size", [3]float32{1, 1, 1})
	o := engine.PropVector3(props, "offset", [3]float32{})
	b := NewBoxCollider(rl.Vector3{X: s[0], Y: s[1], Z: s[2]})
	b.Offset = rl.Vector3{X: o[0], Y: o[1], Z: o[2]}
	b.Particle = engine.PropBool(props, "particle", false)
	return b
}

func boxColliderToProps(c engine.Component) map[string]any {
	b, ok := c.(*BoxCollider)
	if !ok {
		return nil
	}
	return map[string]any{
		"size":     []float32{b.Size.X, b.Size.Y, b.Size.Z},
		"offset":   []float32{b.Offset.X, b.Offset.Y, b.Offset.Z},
		"particle": b.Particle,
	}
}
