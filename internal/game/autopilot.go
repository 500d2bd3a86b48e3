package game

import (
	"drivesim/internal/physics"
	"drivesim/internal/vehicle"
)

// Autopilot holds the pedals and shifts up near the red line. It runs once
// per physics step once registered with AddUpdateAction.
type Autopilot struct {
	physics.BaseUpdateAction

	Car      *vehicle.Car
	Throttle float32
	Steering float32
	// ShiftUp and ShiftDown are fractions of the profile's MaxRPM.
	ShiftUp   float32
	ShiftDown float32

	Shifts int
}

func NewAutopilot(c *vehicle.Car, throttle float32) *Autopilot {
	return &Autopilot{Car: c, Throttle: throttle, ShiftUp: 0.9, ShiftDown: 0.3}
}

func (a *Autopilot) BeforeStep(*physics.PhysicsWorld) {
	c := a.Car
	c.SetGasPedal(a.Throttle)
	c.SetSteeringWheel(a.Steering)

	// wait for the last shift to finish engaging
	if c.Clutch().Percent() > 0 {
		return
	}
	p := c.Profile()
	rpm := c.CurrentRPM()
	gear := c.CurrentGear()
	switch {
	case gear >= 1 && gear < vehicle.TopGear && rpm > a.ShiftUp*p.MaxRPM:
		c.PressClutch()
		c.ShiftUp()
		a.Shifts++
	case gear > 1 && rpm < a.ShiftDown*p.MaxRPM:
		c.PressClutch()
		c.ShiftDown()
		a.Shifts++
	}
}
