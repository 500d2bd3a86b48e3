package components

import (
	"drivesim/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Rigidbody marks a game object as dynamic. Its fields are read once when the
// physics object is built; afterwards the physics body owns the state.
type Rigidbody struct {
	engine.BaseComponent
	Mass           float32
	Velocity       rl.Vector3 // initial linear velocity
	Bounciness     float32    // 0 = no bounce, 1 = perfect bounce
	Friction       float32    // Coulomb friction coefficient, 0 = ice
	LinearDamping  float32
	AngularDamping float32
	UseGravity     bool
	Particle       bool // particles never collide with other particles
}

func NewRigidbody() *Rigidbody {
	return &Rigidbody{
		Mass:       1.0,
		Bounciness: 0.4,
		Friction:   1.0,
		UseGravity: true,
	}
}

func rigidbodyFromProps(props map[string]any) engine.Component {
	r := NewRigidbody()
	r.Mass = engine.PropFloat(props, "mass", r.Mass)
	r.Bounciness = engine.PropFloat(props, "bounciness", r.Bounciness)
	r.Friction = engine.PropFloat(props, "friction", r.Friction)
	r.LinearDamping = engine.PropFloat(props, "linearDamping", r.LinearDamping)
	r.AngularDamping = engine.PropFloat(props, "angularDamping", r.AngularDamping)
	r.UseGravity = engine.PropBool(props, "useGravity", r.UseGravity)
	r.Particle = engine.PropBool(props, "particle", r.Particle)
	v := engine.PropVector3(props, "velocity", [3]float32{})
	r.Velocity = rl.Vector3{X: v[0], Y: v[1], Z: v[2]}
	return r
}

func rigidbodyToProps(c engine.Component) map[string]any {
	r, ok := c.(*Rigidbody)
	if !ok {
		return nil
	}
	return map[string]any{
		"mass":           r.Mass,
		"bounciness":     r.Bounciness,
		"friction":       r.Friction,
		"linearDamping":  r.LinearDamping,
		"angularDamping": r.AngularDamping,
		"useGravity":     r.UseGravity,
		"particle":       r.Particle,
		"velocity":       []float32{r.Velocity.X, r.Velocity.Y, r.Velocity.Z},
	}
}
