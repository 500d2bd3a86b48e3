package physics

import (
	"math"

	"drivesim/internal/dynamics"
	"drivesim/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// UnsetFriction marks Mu as untouched by a ContactCallback. A contact that
// leaves it unset and is not ignored gets the default surface.
const UnsetFriction float32 = -1

const (
	DefaultBounce         float32 = 0.4
	DefaultBounceVelocity float32 = 1
	DefaultFriction       float32 = 100
)

// PendingContact is one generated contact offered to a ContactCallback.
// Normal points from B towards A.
type PendingContact struct {
	A, B     PhysicsObject
	Position rl.Vector3
	Normal   rl.Vector3
	Depth    float32

	Mu        float32
	Mu2       float32
	Bounce    float32
	BounceVel float32
	Slip1     float32
	Slip2     float32
	Ignore    bool
}

// ContactCallback customizes or drops a contact before the solver sees it.
type ContactCallback func(c *PendingContact)

// MaterialCallback mixes the two objects' materials: friction is the
// geometric mean and bounce the larger of both. Contacts where neither side
// has a material keep the default surface.
func MaterialCallback(c *PendingContact) {
	ma, mb := c.A.Material(), c.B.Material()
	if ma == nil && mb == nil {
		return
	}
	fa, fb := float32(1), float32(1)
	var ba, bb float32
	if ma != nil {
		fa, ba = ma.Friction, ma.Bounce
	}
	if mb != nil {
		fb, bb = mb.Friction, mb.Bounce
	}
	c.Mu = float32(math.Sqrt(float64(max(fa, 0) * max(fb, 0))))
	c.Bounce = max(ba, bb)
	c.BounceVel = DefaultBounceVelocity
}

// CollisionResult is one de-duplicated contact between two objects.
type CollisionResult struct {
	A, B     PhysicsObject
	SpatialA *engine.GameObject
	SpatialB *engine.GameObject
	// RelativeBounceVelocity is the closing speed along Normal.
	RelativeBounceVelocity float32
	Position               rl.Vector3
	Normal                 rl.Vector3
}

// CollisionResults is the output of one PhysicsWorld.Update call.
type CollisionResults struct {
	Collisions []CollisionResult
	// Updated reports whether at least one solver step ran.
	Updated bool
}

// CollisionPair identifies two touching spatials, ordered by UID.
type CollisionPair struct {
	A, B *engine.GameObject
}

func makePair(a, b *engine.GameObject) CollisionPair {
	if a.UID > b.UID {
		a, b = b, a
	}
	return CollisionPair{A: a, B: b}
}

func defaultSurface() dynamics.Surface {
	return dynamics.Surface{
		Mode:      dynamics.ModeBounce | dynamics.ModeApprox1,
		Mu:        float64(DefaultFriction),
		Bounce:    float64(DefaultBounce),
		BounceVel: float64(DefaultBounceVelocity),
	}
}

func surfaceOf(c *PendingContact) dynamics.Surface {
	s := dynamics.Surface{
		Mode:      dynamics.ModeApprox1,
		Mu:        float64(c.Mu),
		BounceVel: float64(c.BounceVel),
	}
	if c.Mu2 != UnsetFriction {
		s.Mode |= dynamics.ModeMu2
		s.Mu2 = float64(c.Mu2)
	}
	if c.Bounce > 0 {
		s.Mode |= dynamics.ModeBounce
		s.Bounce = float64(c.Bounce)
	}
	if c.Slip1 > 0 {
		s.Mode |= dynamics.ModeSlip1
		s.Slip1 = float64(c.Slip1)
	}
	if c.Slip2 > 0 {
		s.Mode |= dynamics.ModeSlip2
		s.Slip2 = float64(c.Slip2)
	}
	return s
}

func linearVelocityOf(o PhysicsObject) rl.Vector3 {
	if d, ok := o.(*DynamicPhysicsObject); ok {
		return d.LinearVelocity()
	}
	return rl.Vector3{}
}

func bodyOf(o PhysicsObject) *dynamics.Body {
	if d, ok := o.(*DynamicPhysicsObject); ok {
		return d.body
	}
	return nil
}

// resolveContacts applies the contact policy to one step's contacts and
// returns those the solver should see. Accepted contacts are recorded in the
// current results and collision pairs.
func (p *PhysicsWorld) resolveContacts(contacts []*dynamics.Contact) []*dynamics.Contact {
	accepted := contacts[:0]
	for _, c := range contacts {
		ia, ib := infoOf(c.Geom.G1), infoOf(c.Geom.G2)
		if ia == nil || ib == nil {
			continue
		}
		if ia.particle && ib.particle {
			continue
		}
		a, b := ia.object, ib.object
		if bodyOf(a).Connected(bodyOf(b)) {
			continue
		}
		a.base().contact = true
		b.base().contact = true

		pending := PendingContact{
			A:         a,
			B:         b,
			Position:  fromVec64(c.Geom.Position),
			Normal:    fromVec64(c.Geom.Normal),
			Depth:     float32(c.Geom.Depth),
			Mu:        UnsetFriction,
			Mu2:       UnsetFriction,
			BounceVel: DefaultBounceVelocity,
		}
		if p.callback != nil {
			p.callback(&pending)
			if pending.Ignore {
				continue
			}
		}
		if pending.Mu == UnsetFriction {
			c.Surface = defaultSurface()
		} else {
			c.Surface = surfaceOf(&pending)
		}
		accepted = append(accepted, c)
		p.recordResult(&pending)
	}
	return accepted
}

func (p *PhysicsWorld) recordResult(c *PendingContact) {
	sa, sb := c.A.Spatial(), c.B.Spatial()
	p.currentCollisions[makePair(sa, sb)] = true

	if n := len(p.results.Collisions); n > 0 {
		last := p.results.Collisions[n-1]
		if last.A == c.A && last.B == c.B {
			return
		}
	}
	rel := rl.Vector3Subtract(linearVelocityOf(c.B), linearVelocityOf(c.A))
	result := CollisionResult{
		A:                      c.A,
		B:                      c.B,
		SpatialA:               sa,
		SpatialB:               sb,
		RelativeBounceVelocity: rl.Vector3DotProduct(rel, c.Normal),
		Position:               c.Position,
		Normal:                 c.Normal,
	}
	p.results.Collisions = append(p.results.Collisions, result)
	p.OnCollision.Invoke(result)
}

// dispatchCollisionCallbacks sends OnCollisionEnter/Exit to handlers
func (p *PhysicsWorld) dispatchCollisionCallbacks() {
	for pair := range p.currentCollisions {
		if !p.activeCollisions[pair] {
			notifyCollisionEnter(pair.A, pair.B)
			notifyCollisionEnter(pair.B, pair.A)
		}
	}
	for pair := range p.activeCollisions {
		if !p.currentCollisions[pair] {
			notifyCollisionExit(pair.A, pair.B)
			notifyCollisionExit(pair.B, pair.A)
		}
	}
	p.activeCollisions = p.currentCollisions
	p.currentCollisions = make(map[CollisionPair]bool)
}

func notifyCollisionEnter(obj, other *engine.GameObject) {
	for _, comp := range obj.Components() {
		if handler, ok := comp.(engine.CollisionHandler); ok {
			handler.OnCollisionEnter(other)
		}
	}
}

func notifyCollisionExit(obj, other *engine.GameObject) {
	for _, comp := range obj.Components() {
		if handler, ok := comp.(engine.CollisionHandler); ok {
			handler.OnCollisionExit(other)
		}
	}
}
