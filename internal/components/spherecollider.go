package components

import (
	"drivesim/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type SphereCollider struct {
	engine.BaseComponent
	Radius   float32
	Offset   rl.Vector3
	Particle bool
}

func NewSphereCollider(radius float32) *SphereCollider {
	return &SphereCollider{
		Radius: radius,
		Offset: rl.Vector3{},
	}
}

// GetCenter returns the world-space center of this collider
func (s *SphereCollider) GetCenter() rl.Vector3 {
	g := s.GetGameObject()
	off := rl.Vector3RotateByQuaternion(rl.Vector3Multiply(s.Offset, g.WorldScale()), g.WorldRotation())
	return rl.Vector3Add(g.WorldPosition(), off)
}

func sphereColliderFromProps(props map[string]any) engine.Component {
	s := NewSphereCollider(engine.PropFloat(props, "radius", 0.5))
	o := engine.PropVector3(props, "offset", [3]float32{})
	s.Offset = rl.Vector3{X: o[0], Y: o[1], Z: o[2]}
	s.Particle = engine.PropBool(props, "particle", false)
	return s
}

func sphereColliderToProps(c engine.Component) map[string]any {
	s, ok := c.(*SphereCollider)
	if !ok {
		return nil
	}
	return map[string]any{
		"radius":   s.Radius,
		"offset":   []float32{s.Offset.X, s.Offset.Y, s.Offset.Z},
		"particle": s.Particle,
	}
}
