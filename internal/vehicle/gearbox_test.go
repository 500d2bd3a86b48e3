package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGearBox(t *testing.T) *GearBox {
	t.Helper()
	p := DefaultProfile()
	gb, err := NewGearBox(p.GearRatios, p.TorqueCurve, p.MinRPM, p.MaxRPM)
	require.NoError(t, err)
	return gb
}

func TestGearBoxRatios(t *testing.T) {
	gb := newTestGearBox(t)

	assert.Equal(t, float32(-2.90), gb.Ratio(ReverseGear))
	assert.Equal(t, float32(0), gb.Ratio(NeutralGear))
	assert.Equal(t, float32(2.66), gb.Ratio(1))
	assert.Equal(t, float32(0.50), gb.Ratio(TopGear))
	assert.Equal(t, float32(0), gb.Ratio(7))
	assert.Equal(t, float32(0), gb.Ratio(-2))
}

func TestGearBoxTorqueTable(t *testing.T) {
	gb := newTestGearBox(t)

	// sampled points match the curve exactly
	assert.InDelta(t, 100, gb.Torque(800), 1e-3)
	assert.InDelta(t, 205, gb.Torque(3000), 1e-3)
	assert.InDelta(t, 180, gb.Torque(7000), 1e-3)
	// between samples the table interpolates the curve
	assert.InDelta(t, 207.5, gb.Torque(4500), 1e-2)
	assert.InDelta(t, 120, gb.Torque(900), 1e-2)
	// rpm outside the engine range is clamped first
	assert.InDelta(t, 100, gb.Torque(0), 1e-3)
	assert.InDelta(t, 180, gb.Torque(12000), 1e-3)
}

func TestGearBoxClampRPM(t *testing.T) {
	gb := newTestGearBox(t)
	assert.Equal(t, float32(800), gb.ClampRPM(-5))
	assert.Equal(t, float32(7000), gb.ClampRPM(9000))
	assert.Equal(t, float32(2500), gb.ClampRPM(2500))
}

func TestGearBoxRejectsBadInput(t *testing.T) {
	p := DefaultProfile()

	_, err := NewGearBox([]float32{-1, 0, 3}, p.TorqueCurve, 800, 7000)
	assert.ErrorIs(t, err, ErrGearRatios)

	bad := append([]float32(nil), p.GearRatios...)
	bad[1] = 0.5
	_, err = NewGearBox(bad, p.TorqueCurve, 800, 7000)
	assert.ErrorIs(t, err, ErrGearRatios)

	_, err = NewGearBox(p.GearRatios, [][2]float32{{1000, 100}, {900, 120}}, 800, 7000)
	assert.ErrorIs(t, err, ErrTorqueCurve)
}

func TestClutch(t *testing.T) {
	c := NewClutch(2)
	assert.False(t, c.IsOpen())
	assert.Equal(t, float32(1), c.Engagement())

	c.Press()
	assert.True(t, c.IsOpen())
	assert.Equal(t, float32(0), c.Engagement())

	c.Update(0.25)
	assert.InDelta(t, 0.5, c.Percent(), 1e-6)
	assert.False(t, c.IsOpen())

	c.Update(1)
	assert.Equal(t, float32(0), c.Percent())

	c.SetPercent(3)
	assert.Equal(t, float32(1), c.Percent())
	c.Update(-1)
	assert.Equal(t, float32(1), c.Percent())
}

func TestProfileValidation(t *testing.T) {
	assert.NoError(t, DefaultProfile().Validate())

	p := DefaultProfile()
	p.Drivetrain = Drivetrain(9)
	assert.ErrorIs(t, p.Validate(), ErrDrivetrain)

	p = DefaultProfile()
	p.GearRatios = p.GearRatios[:5]
	assert.ErrorIs(t, p.Validate(), ErrGearRatios)

	p = DefaultProfile()
	p.MinRPM = 8000
	assert.ErrorIs(t, p.Validate(), ErrInvalidProfile)

	p = DefaultProfile()
	p.WheelRadius = 0
	assert.ErrorIs(t, p.Validate(), ErrInvalidProfile)
}

func TestParseDrivetrain(t *testing.T) {
	d, err := ParseDrivetrain("RWD")
	require.NoError(t, err)
	assert.Equal(t, RearWheelDrive, d)

	var out Drivetrain
	require.NoError(t, out.UnmarshalText([]byte("awd")))
	assert.Equal(t, FourWheelDrive, out)

	text, err := FrontWheelDrive.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "fwd", string(text))

	_, err = ParseDrivetrain("sideways")
	assert.ErrorIs(t, err, ErrDrivetrain)
}

func TestSuspensionParams(t *testing.T) {
	p := DefaultProfile()
	erp, cfm := p.SuspensionParams(0.02)
	// erp = h·kp/(h·kp+kd), cfm = 1/(h·kp+kd)
	assert.InDelta(t, 800.0/2800.0, erp, 1e-6)
	assert.InDelta(t, 1.0/2800.0, cfm, 1e-9)
}
