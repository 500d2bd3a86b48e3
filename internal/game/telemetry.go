package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Telemetry is a copy of the car state taken between physics steps.
type Telemetry struct {
	Time       float32
	Steps      uint64
	SpeedKmh   float32
	RPM        float32
	MinRPM     float32
	MaxRPM     float32
	Gear       int
	Clutch     float32
	Gas        float32
	Brake      float32
	Steering   float32
	Position   rl.Vector3
	Forward    rl.Vector3
	Skidding   [4]bool
	DriveForce float32
	Impacts    int
	Contacts   []rl.Vector3
}

// GearLabel formats the gear the way a dashboard shows it.
func (t Telemetry) GearLabel() string {
	switch {
	case t.Gear < 0:
		return "R"
	case t.Gear == 0:
		return "N"
	}
	return fmt.Sprint(t.Gear)
}

// RPMFraction places RPM between idle (0) and the red line (1).
func (t Telemetry) RPMFraction() float32 {
	if t.MaxRPM <= t.MinRPM {
		return 0
	}
	return (t.RPM - t.MinRPM) / (t.MaxRPM - t.MinRPM)
}

func (t Telemetry) AnySkidding() bool {
	for _, s := range t.Skidding {
		if s {
			return true
		}
	}
	return false
}

// Snapshot reads the car state under the read lock.
func (s *Simulation) Snapshot() Telemetry {
	s.World.Scene.RLock()
	defer s.World.Scene.RUnlock()

	c := s.Car
	t := Telemetry{
		Time:       s.elapsed,
		Steps:      s.steps.Load(),
		SpeedKmh:   c.SpeedKmh(),
		RPM:        c.CurrentRPM(),
		MinRPM:     c.Profile().MinRPM,
		MaxRPM:     c.Profile().MaxRPM,
		Gear:       c.CurrentGear(),
		Clutch:     c.Clutch().Percent(),
		Gas:        c.GasPedal(),
		Brake:      c.BrakePedal(),
		Steering:   c.SteeringWheel(),
		Position:   c.Chassis.Position(),
		Forward:    c.Forward(),
		DriveForce: c.DriveForce(),
		Impacts:    s.impacts,
		Contacts:   append([]rl.Vector3(nil), s.contact...),
	}
	for i := range t.Skidding {
		t.Skidding[i] = c.IsSkidding(i)
	}
	return t
}
