package physics

import (
	"log"
	"math"
	"slices"

	"drivesim/internal/dynamics"
	"drivesim/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// StepFunction selects the solver accuracy of each step.
type StepFunction = dynamics.StepMode

const (
	StepSimulation = dynamics.StepSimulation
	StepQuick      = dynamics.StepQuick
	StepFast       = dynamics.StepFast
)

const (
	DefaultStepSize   float32 = 0.02
	DefaultIterations         = dynamics.DefaultQuickIterations

	elapsedEpsilon = 1e-6
)

// PhysicsWorld owns the dynamics world and collision space and drives them
// from the game loop. Objects, joints and actions must be added or removed
// between Update calls.
type PhysicsWorld struct {
	world *dynamics.World
	space *dynamics.Space

	stepSize     float32
	stepFunction StepFunction
	updateRate   float32
	elapsed      float32

	objects []PhysicsObject
	joints  []*Joint

	sync     *Synchronizer
	actions  []UpdateAction
	callback ContactCallback

	results CollisionResults

	// OnCollision fires once per emitted CollisionResult.
	OnCollision engine.EventWithArg[CollisionResult]

	activeCollisions  map[CollisionPair]bool
	currentCollisions map[CollisionPair]bool

	warnedDelta   bool
	warnedGravity bool
}

func NewPhysicsWorld() *PhysicsWorld {
	p := &PhysicsWorld{
		world:             dynamics.NewWorld(),
		space:             dynamics.NewSpace(),
		stepSize:          DefaultStepSize,
		stepFunction:      StepQuick,
		sync:              NewSynchronizer(),
		activeCollisions:  make(map[CollisionPair]bool),
		currentCollisions: make(map[CollisionPair]bool),
	}
	p.world.SetGravity(toVec64(rl.Vector3{X: 0, Y: -9.81, Z: 0}))
	p.world.SetQuickStepIterations(DefaultIterations)
	p.actions = []UpdateAction{p.sync}
	return p
}

// Dynamics exposes the underlying solver world.
func (p *PhysicsWorld) Dynamics() *dynamics.World { return p.world }

// Space exposes the collision space.
func (p *PhysicsWorld) Space() *dynamics.Space { return p.space }

func (p *PhysicsWorld) Synchronizer() *Synchronizer { return p.sync }

func (p *PhysicsWorld) Gravity() rl.Vector3 { return fromVec64(p.world.Gravity()) }

func (p *PhysicsWorld) SetGravity(g rl.Vector3) {
	if !finite(g) {
		warnOnce(&p.warnedGravity, "ignoring non-finite gravity %v", g)
		return
	}
	p.world.SetGravity(toVec64(g))
}

func (p *PhysicsWorld) StepSize() float32 { return p.stepSize }

// SetStepSize sets the simulated time of one solver step. Non-positive
// values are ignored.
func (p *PhysicsWorld) SetStepSize(s float32) {
	if !(s > 0) || math.IsInf(float64(s), 0) {
		return
	}
	p.stepSize = s
}

func (p *PhysicsWorld) UpdateRate() float32 { return p.updateRate }

// SetUpdateRate sets the number of steps per second of elapsed time. Zero
// runs exactly one step per Update.
func (p *PhysicsWorld) SetUpdateRate(rate float32) {
	if !(rate >= 0) || math.IsInf(float64(rate), 0) {
		rate = 0
	}
	p.updateRate = rate
	p.elapsed = 0
}

func (p *PhysicsWorld) StepFunction() StepFunction { return p.stepFunction }

func (p *PhysicsWorld) SetStepFunction(f StepFunction) { p.stepFunction = f }

// Iterations is the solver iteration count used in StepQuick mode.
func (p *PhysicsWorld) Iterations() int { return p.world.QuickStepIterations() }

func (p *PhysicsWorld) SetIterations(n int) { p.world.SetQuickStepIterations(n) }

// Steps returns the number of solver steps taken so far.
func (p *PhysicsWorld) Steps() uint64 { return p.world.Steps() }

// SetPhysicsCallback installs the contact callback; nil restores defaults.
func (p *PhysicsWorld) SetPhysicsCallback(cb ContactCallback) { p.callback = cb }

// AddUpdateAction appends an action after the synchronizer.
func (p *PhysicsWorld) AddUpdateAction(a UpdateAction) {
	if a == nil || slices.Contains(p.actions, a) {
		return
	}
	p.actions = append(p.actions, a)
}

// RemoveUpdateAction removes an action. The synchronizer cannot be removed.
func (p *PhysicsWorld) RemoveUpdateAction(a UpdateAction) bool {
	if a == UpdateAction(p.sync) {
		return false
	}
	i := slices.Index(p.actions, a)
	if i < 0 {
		return false
	}
	p.actions = slices.Delete(p.actions, i, i+1)
	return true
}

// AddObject attaches obj to the world and pushes its graphical pose into
// the physics state. It returns false if obj is already attached here or to
// another world.
func (p *PhysicsWorld) AddObject(obj PhysicsObject) bool {
	if obj == nil {
		return false
	}
	b := obj.base()
	if b.world != nil {
		return false
	}
	for _, g := range b.geoms {
		p.space.Add(g)
	}
	if d, ok := obj.(*DynamicPhysicsObject); ok {
		p.world.AddBody(d.body)
		p.sync.Register(d)
	}
	b.world = p
	p.objects = append(p.objects, obj)
	obj.SyncWithGraphical()
	return true
}

// RemoveObject detaches obj. Joints touching its body stay attached but no
// longer move it.
func (p *PhysicsWorld) RemoveObject(obj PhysicsObject) bool {
	if obj == nil {
		return false
	}
	i := slices.Index(p.objects, obj)
	if i < 0 {
		return false
	}
	b := obj.base()
	for _, g := range b.geoms {
		p.space.Remove(g)
	}
	if d, ok := obj.(*DynamicPhysicsObject); ok {
		p.world.RemoveBody(d.body)
		p.sync.Unregister(d)
	}
	b.world = nil
	b.contact = false
	p.objects = slices.Delete(p.objects, i, i+1)
	return true
}

func (p *PhysicsWorld) ContainsObject(obj PhysicsObject) bool {
	return obj != nil && obj.base().world == p
}

func (p *PhysicsWorld) NumberOfObjects() int { return len(p.objects) }

func (p *PhysicsWorld) Objects() []PhysicsObject { return p.objects }

// clampDelta maps dt into [0, 1]. The first anomaly is logged once.
func (p *PhysicsWorld) clampDelta(dt float32) float32 {
	f := float64(dt)
	switch {
	case math.IsNaN(f) || f > 1:
		warnOnce(&p.warnedDelta, "clamping frame time %v to 1s", dt)
		return 1
	case f < 0:
		warnOnce(&p.warnedDelta, "clamping negative frame time %v to 0", dt)
		return 0
	}
	return dt
}

// Update advances the simulation by deltaTime seconds of wall time. With an
// update rate of 0 it runs exactly one step; otherwise it runs one step per
// elapsed 1/rate interval and carries the remainder over.
func (p *PhysicsWorld) Update(deltaTime float32) CollisionResults {
	p.results = CollisionResults{}
	p.elapsed += p.clampDelta(deltaTime)

	for _, a := range p.actions {
		a.BeforeUpdate(p)
	}

	if p.updateRate <= 0 {
		p.step(true)
		p.elapsed = 0
	} else {
		interval := 1 / p.updateRate
		for p.elapsed+elapsedEpsilon >= interval {
			p.step(true)
			p.elapsed -= interval
		}
		if p.elapsed < 0 {
			p.elapsed = 0
		}
	}

	for _, a := range p.actions {
		a.AfterUpdate(p)
	}
	return p.results
}

// WarmUp runs n steps to let a new scene settle. Only the synchronizer runs
// and the elapsed time is untouched.
func (p *PhysicsWorld) WarmUp(n int) {
	for range n {
		p.step(false)
	}
	p.results = CollisionResults{}
}

func (p *PhysicsWorld) step(hooks bool) {
	if hooks {
		for _, a := range p.actions {
			a.BeforeStep(p)
		}
	}

	for _, o := range p.objects {
		o.base().contact = false
	}
	accepted := p.resolveContacts(p.space.Collide())
	p.world.AddContacts(accepted...)
	p.world.Step(float64(p.stepSize), p.stepFunction)

	if hooks {
		for _, a := range p.actions {
			a.AfterStep(p)
		}
	} else {
		p.sync.AfterStep(p)
	}
	p.dispatchCollisionCallbacks()
	p.results.Updated = true
}

// Cleanup destroys every joint and detaches every object. The world can be
// reused afterwards.
func (p *PhysicsWorld) Cleanup() {
	for _, j := range slices.Clone(p.joints) {
		j.Delete()
	}
	for _, o := range slices.Clone(p.objects) {
		p.RemoveObject(o)
	}
	p.actions = []UpdateAction{p.sync}
	p.callback = nil
	p.OnCollision.RemoveAllListeners()
	p.activeCollisions = make(map[CollisionPair]bool)
	p.currentCollisions = make(map[CollisionPair]bool)
	p.elapsed = 0
	log.Printf("Physics: world cleaned up")
}
