package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// StepMode selects how much solver work a step does.
type StepMode int

const (
	// StepSimulation is the most accurate mode.
	StepSimulation StepMode = iota
	// StepQuick runs the configured number of quick-step iterations.
	StepQuick
	// StepFast trades accuracy for speed with very few iterations.
	StepFast
)

func (m StepMode) String() string {
	switch m {
	case StepSimulation:
		return "simulation"
	case StepQuick:
		return "quick"
	case StepFast:
		return "fast"
	}
	return "unknown"
}

const (
	DefaultERP             = 0.2
	DefaultCFM             = 1e-5
	DefaultQuickIterations = 20

	simulationIterations = 60
	fastIterations       = 6
)

// World owns the bodies and joints that are stepped together.
type World struct {
	gravity         mgl64.Vec3
	erp             float64
	cfm             float64
	quickIterations int

	contactMaxCorrectingVel float64
	contactSurfaceLayer     float64

	bodies   []*Body
	joints   []*Joint
	contacts []*Contact

	steps uint64
}

func NewWorld() *World {
	return &World{
		erp:                     DefaultERP,
		cfm:                     DefaultCFM,
		quickIterations:         DefaultQuickIterations,
		contactMaxCorrectingVel: Infinity,
		contactSurfaceLayer:     0.001,
	}
}

func (w *World) Gravity() mgl64.Vec3 { return w.gravity }

func (w *World) SetGravity(g mgl64.Vec3) { w.gravity = g }

func (w *World) ERP() float64 { return w.erp }

func (w *World) SetERP(erp float64) { w.erp = erp }

func (w *World) CFM() float64 { return w.cfm }

func (w *World) SetCFM(cfm float64) { w.cfm = cfm }

func (w *World) QuickStepIterations() int { return w.quickIterations }

func (w *World) SetQuickStepIterations(n int) {
	if n < 1 {
		n = 1
	}
	w.quickIterations = n
}

// SetContactMaxCorrectingVel caps the velocity used to push penetrating shapes apart.
func (w *World) SetContactMaxCorrectingVel(v float64) { w.contactMaxCorrectingVel = v }

// SetContactSurfaceLayer sets the penetration depth tolerated without correction.
func (w *World) SetContactSurfaceLayer(depth float64) { w.contactSurfaceLayer = depth }

// Steps returns how many steps the world has taken.
func (w *World) Steps() uint64 { return w.steps }

func (w *World) AddBody(b *Body) {
	if b.world == w {
		return
	}
	if b.world != nil {
		b.world.RemoveBody(b)
	}
	b.world = w
	w.bodies = append(w.bodies, b)
}

func (w *World) RemoveBody(b *Body) bool {
	for i, other := range w.bodies {
		if other == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			b.world = nil
			return true
		}
	}
	return false
}

func (w *World) Bodies() []*Body { return w.bodies }

// NewJoint creates a joint owned by the world. It has no effect until attached.
func (w *World) NewJoint(kind JointKind) *Joint {
	j := newJoint(w, kind)
	w.joints = append(w.joints, j)
	return j
}

func (w *World) removeJoint(j *Joint) {
	for i, other := range w.joints {
		if other == j {
			w.joints = append(w.joints[:i], w.joints[i+1:]...)
			return
		}
	}
}

func (w *World) Joints() []*Joint { return w.joints }

// AddContacts queues contacts for the next step only.
func (w *World) AddContacts(contacts ...*Contact) {
	w.contacts = append(w.contacts, contacts...)
}

func (w *World) iterations(mode StepMode) int {
	switch mode {
	case StepSimulation:
		return simulationIterations
	case StepFast:
		return fastIterations
	}
	return w.quickIterations
}

// Step advances the world by dt seconds, consuming queued contacts. Forces and
// torques of every body are cleared afterwards.
func (w *World) Step(dt float64, mode StepMode) {
	defer func() { w.contacts = w.contacts[:0] }()
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return
	}

	for _, b := range w.bodies {
		if b.enabled {
			b.integrateVelocity(w.gravity, dt)
		}
	}

	var rows []row
	for _, j := range w.joints {
		rows = j.appendRows(rows, dt)
	}
	for _, c := range w.contacts {
		rows = c.appendRows(rows, w, dt)
	}
	solve(rows, w.iterations(mode))

	for _, b := range w.bodies {
		if b.enabled {
			b.integratePosition(dt)
		}
		b.force = mgl64.Vec3{}
		b.torque = mgl64.Vec3{}
	}
	w.steps++
}
