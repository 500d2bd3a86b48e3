package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// row is one velocity constraint J·v + cfm·λ = rhs, with the accumulated
// impulse λ clamped to [lo, hi]. Friction rows take their bounds from the
// normal row they reference.
type row struct {
	b1, b2             *Body
	j1l, j1a, j2l, j2a mgl64.Vec3
	ia1, ia2           mgl64.Vec3 // inverse inertia times the angular jacobians

	rhs, cfm float64
	lo, hi   float64
	friction int
	mu       float64

	lambda float64
	invK   float64
	skip   bool
}

func (r *row) velocity() float64 {
	jv := 0.0
	if r.b1.movable() {
		jv += r.j1l.Dot(r.b1.linVel) + r.j1a.Dot(r.b1.angVel)
	}
	if r.b2.movable() {
		jv += r.j2l.Dot(r.b2.linVel) + r.j2a.Dot(r.b2.angVel)
	}
	return jv
}

func (r *row) prepare() {
	k := 0.0
	if r.b1.movable() {
		r.ia1 = r.b1.invInertiaWorld.Mul3x1(r.j1a)
		k += r.b1.invMass*r.j1l.Dot(r.j1l) + r.j1a.Dot(r.ia1)
	}
	if r.b2.movable() {
		r.ia2 = r.b2.invInertiaWorld.Mul3x1(r.j2a)
		k += r.b2.invMass*r.j2l.Dot(r.j2l) + r.j2a.Dot(r.ia2)
	}
	d := k + r.cfm
	if d < 1e-12 || math.IsNaN(d) {
		r.skip = true
		return
	}
	r.invK = 1 / d
}

func (r *row) apply(impulse float64) {
	if r.b1.movable() {
		r.b1.linVel = r.b1.linVel.Add(r.j1l.Mul(r.b1.invMass * impulse))
		r.b1.angVel = r.b1.angVel.Add(r.ia1.Mul(impulse))
	}
	if r.b2.movable() {
		r.b2.linVel = r.b2.linVel.Add(r.j2l.Mul(r.b2.invMass * impulse))
		r.b2.angVel = r.b2.angVel.Add(r.ia2.Mul(impulse))
	}
}

// solve runs projected Gauss-Seidel over the rows.
func solve(rows []row, iterations int) {
	for i := range rows {
		rows[i].prepare()
	}
	for it := 0; it < iterations; it++ {
		for i := range rows {
			r := &rows[i]
			if r.skip {
				continue
			}
			lo, hi := r.lo, r.hi
			if r.friction >= 0 {
				limit := r.mu * rows[r.friction].lambda
				lo, hi = -limit, limit
			}
			delta := (r.rhs - r.velocity() - r.cfm*r.lambda) * r.invK
			next := mgl64.Clamp(r.lambda+delta, lo, hi)
			delta = next - r.lambda
			r.lambda = next
			if delta != 0 {
				r.apply(delta)
			}
		}
	}
}
