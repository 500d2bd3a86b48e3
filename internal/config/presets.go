package config

import (
	"fmt"
	"maps"
	"slices"

	"drivesim/internal/vehicle"
)

var presets = map[string]func() vehicle.Profile{
	"hatchback": vehicle.DefaultProfile,
	"roadster":  roadster,
	"truck":     truck,
}

func roadster() vehicle.Profile {
	p := vehicle.DefaultProfile()
	p.Name = "roadster"
	p.ChassisMass = 650
	p.ChassisSize = [3]float32{1.8, 0.4, 3.8}
	p.WheelMass = 18
	p.WheelRadius = 0.33
	p.WheelTrack = 2.0
	p.Wheelbase = 2.5
	p.WheelDrop = 0.25
	p.Drivetrain = vehicle.RearWheelDrive
	p.GearRatios = []float32{-3.20, 0, 3.10, 2.00, 1.45, 1.10, 0.90, 0.75}
	p.DiffRatio = 4.1
	p.Efficiency = 0.75
	p.TorqueCurve = [][2]float32{
		{0, 0},
		{1000, 150},
		{2000, 180},
		{4500, 250},
		{7000, 260},
		{8000, 230},
	}
	p.MinRPM = 900
	p.MaxRPM = 8000
	p.ClutchRate = 3
	p.DragCoefficient = 0.33
	p.FrontalArea = 1.8
	p.BrakePower = 2000
	p.BrakeBalance = 0.65
	p.MaxSteerAngle = 32
	p.SteerSpeed = 150
	p.SuspensionStiffness = 50000
	p.SuspensionDamping = 2500
	p.TireFriction = 1.4
	p.SkidThreshold = 2
	return p
}

func truck() vehicle.Profile {
	p := vehicle.DefaultProfile()
	p.Name = "truck"
	p.ChassisMass = 2500
	p.ChassisSize = [3]float32{2.4, 1.0, 5.5}
	p.WheelMass = 60
	p.WheelRadius = 0.55
	p.WheelTrack = 2.6
	p.Wheelbase = 3.6
	p.WheelDrop = 0.5
	p.Drivetrain = vehicle.FourWheelDrive
	p.GearRatios = []float32{-4.20, 0, 4.80, 2.90, 1.90, 1.35, 1.00, 0.80}
	p.DiffRatio = 4.1
	p.Efficiency = 0.65
	p.TorqueCurve = [][2]float32{
		{0, 0},
		{600, 300},
		{1200, 520},
		{2500, 600},
		{4000, 480},
		{4500, 400},
	}
	p.MinRPM = 600
	p.MaxRPM = 4500
	p.ClutchRate = 1.5
	p.DragCoefficient = 0.6
	p.FrontalArea = 5
	p.BrakePower = 4000
	p.HandbrakePower = 5000
	p.MaxSteerAngle = 30
	p.SteerSpeed = 80
	p.SuspensionStiffness = 90000
	p.SuspensionDamping = 6000
	p.TireFriction = 1.4
	p.SkidThreshold = 3
	return p
}

// GetPreset returns a fresh copy of the named car profile.
func GetPreset(name string) (vehicle.Profile, error) {
	f, ok := presets[name]
	if !ok {
		return vehicle.Profile{}, fmt.Errorf("%q (available: %v): %w", name, ListPresets(), ErrUnknownPreset)
	}
	return f(), nil
}

func ListPresets() []string {
	return slices.Sorted(maps.Keys(presets))
}
