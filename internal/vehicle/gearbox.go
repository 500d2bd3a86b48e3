package vehicle

import "math"

const (
	ReverseGear = -1
	NeutralGear = 0
	TopGear     = 6

	gearCount = TopGear + 2

	// tableStep is the rpm spacing of the precomputed torque table.
	tableStep = 50
)

// GearBox holds the gear ratios and an RPM to torque table sampled from the
// engine's calibration curve.
type GearBox struct {
	ratios [gearCount]float32
	table  []float32
	MinRPM float32
	MaxRPM float32
}

func NewGearBox(ratios []float32, curve [][2]float32, minRPM, maxRPM float32) (*GearBox, error) {
	if err := checkRatios(ratios); err != nil {
		return nil, err
	}
	if err := checkCurve(curve); err != nil {
		return nil, err
	}
	g := &GearBox{MinRPM: minRPM, MaxRPM: maxRPM}
	copy(g.ratios[:], ratios)

	n := int(math.Ceil(float64(maxRPM)/tableStep)) + 1
	g.table = make([]float32, n)
	for i := range g.table {
		g.table[i] = lookupAndInterpolate(curve, float32(i*tableStep))
	}
	return g, nil
}

// lookupAndInterpolate reads a piecewise linear curve, holding the end
// values outside its range.
func lookupAndInterpolate(curve [][2]float32, x float32) float32 {
	if x <= curve[0][0] {
		return curve[0][1]
	}
	for i := 0; i < len(curve)-1; i++ {
		lo, hi := curve[i], curve[i+1]
		if x >= lo[0] && x <= hi[0] {
			return lo[1] + (hi[1]-lo[1])*(x-lo[0])/(hi[0]-lo[0])
		}
	}
	return curve[len(curve)-1][1]
}

// Ratio returns the ratio of gear (-1..6); out of range gears act as neutral.
func (g *GearBox) Ratio(gear int) float32 {
	if gear < ReverseGear || gear > TopGear {
		return 0
	}
	return g.ratios[gear+1]
}

func (g *GearBox) ClampRPM(rpm float32) float32 {
	if math.IsNaN(float64(rpm)) {
		return g.MinRPM
	}
	return min(max(rpm, g.MinRPM), g.MaxRPM)
}

// Torque returns the engine torque at rpm, clamped into the engine's range.
func (g *GearBox) Torque(rpm float32) float32 {
	rpm = g.ClampRPM(rpm)
	f := rpm / tableStep
	i := int(f)
	if i >= len(g.table)-1 {
		return g.table[len(g.table)-1]
	}
	t := f - float32(i)
	return g.table[i] + (g.table[i+1]-g.table[i])*t
}
