package vehicle

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrWheelCount     = errors.New("vehicle: a car needs exactly four wheels")
	ErrDrivetrain     = errors.New("vehicle: unknown drivetrain layout")
	ErrGearRatios     = errors.New("vehicle: invalid gear ratios")
	ErrTorqueCurve    = errors.New("vehicle: torque curve needs ascending rpm points")
	ErrInvalidProfile = errors.New("vehicle: invalid profile")
)

// Drivetrain selects which axle receives engine torque.
type Drivetrain int

const (
	FrontWheelDrive Drivetrain = iota
	RearWheelDrive
	FourWheelDrive
)

func (d Drivetrain) String() string {
	switch d {
	case FrontWheelDrive:
		return "fwd"
	case RearWheelDrive:
		return "rwd"
	case FourWheelDrive:
		return "4wd"
	}
	return fmt.Sprintf("Drivetrain(%d)", int(d))
}

func ParseDrivetrain(s string) (Drivetrain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fwd", "front":
		return FrontWheelDrive, nil
	case "rwd", "rear":
		return RearWheelDrive, nil
	case "4wd", "awd", "four":
		return FourWheelDrive, nil
	}
	return 0, fmt.Errorf("%q: %w", s, ErrDrivetrain)
}

func (d Drivetrain) MarshalText() ([]byte, error) {
	if d < FrontWheelDrive || d > FourWheelDrive {
		return nil, fmt.Errorf("%d: %w", int(d), ErrDrivetrain)
	}
	return []byte(d.String()), nil
}

func (d *Drivetrain) UnmarshalText(b []byte) error {
	v, err := ParseDrivetrain(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Profile is the full tuning of a car. Lengths are meters, masses kg,
// torques Nm and angles degrees.
type Profile struct {
	Name string `yaml:"name" toml:"name"`

	ChassisMass float32    `yaml:"chassisMass" toml:"chassisMass"`
	ChassisSize [3]float32 `yaml:"chassisSize" toml:"chassisSize"`
	WheelMass   float32    `yaml:"wheelMass" toml:"wheelMass"`
	WheelRadius float32    `yaml:"wheelRadius" toml:"wheelRadius"`
	// WheelTrack is the distance between left and right wheel centers.
	WheelTrack float32 `yaml:"wheelTrack" toml:"wheelTrack"`
	// Wheelbase is the distance between front and rear wheel centers.
	Wheelbase float32 `yaml:"wheelbase" toml:"wheelbase"`
	// WheelDrop is how far wheel centers sit below the chassis center.
	WheelDrop float32 `yaml:"wheelDrop" toml:"wheelDrop"`

	Drivetrain Drivetrain `yaml:"drivetrain" toml:"drivetrain"`
	// GearRatios holds reverse, neutral and gears 1..6 in that order.
	GearRatios  []float32    `yaml:"gearRatios" toml:"gearRatios"`
	DiffRatio   float32      `yaml:"diffRatio" toml:"diffRatio"`
	Efficiency  float32      `yaml:"efficiency" toml:"efficiency"`
	TorqueCurve [][2]float32 `yaml:"torqueCurve" toml:"torqueCurve"`
	MinRPM      float32      `yaml:"minRPM" toml:"minRPM"`
	MaxRPM      float32      `yaml:"maxRPM" toml:"maxRPM"`
	// ClutchRate is the fraction of travel the clutch closes per second.
	ClutchRate float32 `yaml:"clutchRate" toml:"clutchRate"`

	DragCoefficient float32 `yaml:"dragCoefficient" toml:"dragCoefficient"`
	FrontalArea     float32 `yaml:"frontalArea" toml:"frontalArea"`
	// RollingFactor scales the drag constant into rolling resistance.
	RollingFactor float32 `yaml:"rollingFactor" toml:"rollingFactor"`

	BrakePower float32 `yaml:"brakePower" toml:"brakePower"`
	// BrakeBalance is the share of brake torque sent to the front axle.
	BrakeBalance   float32 `yaml:"brakeBalance" toml:"brakeBalance"`
	HandbrakePower float32 `yaml:"handbrakePower" toml:"handbrakePower"`

	MaxSteerAngle float32 `yaml:"maxSteerAngle" toml:"maxSteerAngle"`
	// SteerSpeed is how fast the wheels turn towards the requested angle, deg/s.
	SteerSpeed float32 `yaml:"steerSpeed" toml:"steerSpeed"`
	// SteerFalloff shrinks the steering lock with speed: lock/(1+falloff·v).
	SteerFalloff   float32 `yaml:"steerFalloff" toml:"steerFalloff"`
	MinSteerFactor float32 `yaml:"minSteerFactor" toml:"minSteerFactor"`

	SuspensionStiffness float32 `yaml:"suspensionStiffness" toml:"suspensionStiffness"`
	SuspensionDamping   float32 `yaml:"suspensionDamping" toml:"suspensionDamping"`

	TireFriction float32 `yaml:"tireFriction" toml:"tireFriction"`
	// SkidThreshold is the slip speed in m/s above which a wheel skids.
	SkidThreshold float32 `yaml:"skidThreshold" toml:"skidThreshold"`
}

// DefaultProfile is a front-driven hatchback.
func DefaultProfile() Profile {
	return Profile{
		Name:        "hatchback",
		ChassisMass: 800,
		ChassisSize: [3]float32{2, 0.5, 4},
		WheelMass:   20,
		WheelRadius: 0.4,
		WheelTrack:  2.2,
		Wheelbase:   2.8,
		WheelDrop:   0.3,

		Drivetrain: FrontWheelDrive,
		GearRatios: []float32{-2.90, 0, 2.66, 1.78, 1.30, 1.0, 0.74, 0.50},
		DiffRatio:  3.42,
		Efficiency: 0.7,
		TorqueCurve: [][2]float32{
			{0, 0},
			{800, 100},
			{1000, 140},
			{3000, 205},
			{6000, 210},
			{7000, 180},
		},
		MinRPM:     800,
		MaxRPM:     7000,
		ClutchRate: 2,

		DragCoefficient: 0.3,
		FrontalArea:     2.0,
		RollingFactor:   30,

		BrakePower:     1500,
		BrakeBalance:   0.6,
		HandbrakePower: 2000,

		MaxSteerAngle:  35,
		SteerSpeed:     120,
		SteerFalloff:   0.08,
		MinSteerFactor: 0.2,

		SuspensionStiffness: 40000,
		SuspensionDamping:   2000,

		TireFriction:  1.2,
		SkidThreshold: 2.5,
	}
}

const airDensity = 1.29

// DragConstant is 0.5·Cd·A·ρ; drag force is DragConstant·v².
func (p Profile) DragConstant() float32 {
	return 0.5 * p.DragCoefficient * p.FrontalArea * airDensity
}

// SuspensionParams converts spring stiffness and damping into the joint's
// error reduction and constraint force mixing for the given step size.
func (p Profile) SuspensionParams(step float32) (erp, cfm float32) {
	hk := step * p.SuspensionStiffness
	d := hk + p.SuspensionDamping
	if d <= 0 {
		return 0.2, 1e-5
	}
	return hk / d, 1 / d
}

func positive(vs ...float32) bool {
	for _, v := range vs {
		if !(v > 0) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}

// Validate checks the profile before a car is built from it.
func (p Profile) Validate() error {
	if p.Drivetrain < FrontWheelDrive || p.Drivetrain > FourWheelDrive {
		return fmt.Errorf("%d: %w", int(p.Drivetrain), ErrDrivetrain)
	}
	if err := checkRatios(p.GearRatios); err != nil {
		return err
	}
	if err := checkCurve(p.TorqueCurve); err != nil {
		return err
	}
	if !positive(p.ChassisMass, p.ChassisSize[0], p.ChassisSize[1], p.ChassisSize[2],
		p.WheelMass, p.WheelRadius, p.DiffRatio, p.Efficiency, p.MinRPM, p.MaxRPM) {
		return fmt.Errorf("%s: masses, sizes, ratios and rpm must be positive: %w", p.Name, ErrInvalidProfile)
	}
	if p.MinRPM >= p.MaxRPM {
		return fmt.Errorf("%s: min rpm %v >= max rpm %v: %w", p.Name, p.MinRPM, p.MaxRPM, ErrInvalidProfile)
	}
	if p.BrakeBalance < 0 || p.BrakeBalance > 1 {
		return fmt.Errorf("%s: brake balance %v: %w", p.Name, p.BrakeBalance, ErrInvalidProfile)
	}
	if p.ClutchRate < 0 || p.SuspensionStiffness < 0 || p.SuspensionDamping < 0 {
		return fmt.Errorf("%s: negative clutch or suspension setting: %w", p.Name, ErrInvalidProfile)
	}
	return nil
}

func checkRatios(r []float32) error {
	if len(r) != gearCount {
		return fmt.Errorf("want %d ratios (R, N, 1-6), got %d: %w", gearCount, len(r), ErrGearRatios)
	}
	if r[0] >= 0 {
		return fmt.Errorf("reverse ratio %v must be negative: %w", r[0], ErrGearRatios)
	}
	if r[1] != 0 {
		return fmt.Errorf("neutral ratio %v must be zero: %w", r[1], ErrGearRatios)
	}
	for i, v := range r[2:] {
		if !(v > 0) {
			return fmt.Errorf("gear %d ratio %v must be positive: %w", i+1, v, ErrGearRatios)
		}
	}
	return nil
}

func checkCurve(c [][2]float32) error {
	if len(c) < 2 {
		return ErrTorqueCurve
	}
	for i := 1; i < len(c); i++ {
		if !(c[i][0] > c[i-1][0]) {
			return fmt.Errorf("point %d at %v rpm: %w", i, c[i][0], ErrTorqueCurve)
		}
	}
	return nil
}
