package dynamics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDT = 0.01

func newTestWorld() (*World, *Space) {
	w := NewWorld()
	w.SetGravity(mgl64.Vec3{0, -9.81, 0})
	return w, NewSpace()
}

func stepWithContacts(w *World, s *Space, steps int) {
	for i := 0; i < steps; i++ {
		for _, c := range s.Collide() {
			c.Surface = Surface{Mode: ModeApprox1, Mu: 1}
			w.AddContacts(c)
		}
		w.Step(testDT, StepQuick)
	}
}

func newSphereBody(w *World, s *Space, radius, mass float64, pos mgl64.Vec3) *Body {
	b := NewBody()
	if err := b.SetMass(SphereMass(mass, radius)); err != nil {
		panic(err)
	}
	b.SetPosition(pos)
	w.AddBody(b)
	g := NewSphere(radius)
	g.SetBody(b)
	s.Add(g)
	return b
}

func TestSphereSettlesOnPlane(t *testing.T) {
	w, s := newTestWorld()
	s.Add(NewPlane(mgl64.Vec3{0, 1, 0}, 0))
	b := newSphereBody(w, s, 0.5, 1, mgl64.Vec3{0, 2, 0})

	stepWithContacts(w, s, 300)

	assert.InDelta(t, 0.5, b.Position()[1], 0.02)
	assert.Less(t, b.LinearVel().Len(), 0.05)
	assert.Equal(t, uint64(300), w.Steps())
}

func TestBoxRestsOnPlane(t *testing.T) {
	w, s := newTestWorld()
	s.Add(NewPlane(mgl64.Vec3{0, 1, 0}, 0))

	b := NewBody()
	require.NoError(t, b.SetMass(BoxMass(10, mgl64.Vec3{1, 1, 1})))
	b.SetPosition(mgl64.Vec3{0, 1, 0})
	w.AddBody(b)
	g := NewBox(mgl64.Vec3{1, 1, 1})
	g.SetBody(b)
	s.Add(g)

	stepWithContacts(w, s, 300)

	assert.InDelta(t, 0.5, b.Position()[1], 0.03)
	assert.Less(t, b.AngularVel().Len(), 0.1)
}

func TestDisabledBodyDoesNotMove(t *testing.T) {
	w, s := newTestWorld()
	b := newSphereBody(w, s, 0.5, 1, mgl64.Vec3{0, 2, 0})
	b.Disable()

	stepWithContacts(w, s, 10)

	assert.Equal(t, mgl64.Vec3{0, 2, 0}, b.Position())
}

func TestStepIgnoresInvalidTimestep(t *testing.T) {
	w, s := newTestWorld()
	b := newSphereBody(w, s, 0.5, 1, mgl64.Vec3{0, 2, 0})

	w.Step(math.NaN(), StepQuick)
	w.Step(0, StepQuick)

	assert.Equal(t, mgl64.Vec3{0, 2, 0}, b.Position())
	assert.Equal(t, uint64(0), w.Steps())
}

func TestForcesClearedAfterStep(t *testing.T) {
	w, _ := newTestWorld()
	b := NewBody()
	w.AddBody(b)
	b.AddForce(mgl64.Vec3{10, 0, 0})
	b.AddTorque(mgl64.Vec3{0, 1, 0})

	w.Step(testDT, StepFast)

	assert.Equal(t, mgl64.Vec3{}, b.Force())
	assert.Equal(t, mgl64.Vec3{}, b.Torque())
	assert.Greater(t, b.LinearVel()[0], 0.0)
}

func TestSetMassRejectsInvalid(t *testing.T) {
	b := NewBody()
	assert.ErrorIs(t, b.SetMass(SphereMass(0, 1)), ErrInvalidMass)
	assert.ErrorIs(t, b.SetMass(SphereMass(-2, 1)), ErrInvalidMass)
	assert.NoError(t, b.SetMass(BoxMass(3, mgl64.Vec3{1, 2, 3})))
	assert.Equal(t, 3.0, b.Mass().Total)
}

func TestStepModeIterations(t *testing.T) {
	w := NewWorld()
	w.SetQuickStepIterations(12)
	assert.Equal(t, 12, w.iterations(StepQuick))
	assert.Equal(t, simulationIterations, w.iterations(StepSimulation))
	assert.Equal(t, fastIterations, w.iterations(StepFast))

	w.SetQuickStepIterations(0)
	assert.Equal(t, 1, w.QuickStepIterations())
}
