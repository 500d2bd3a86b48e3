package vehicle

// Clutch tracks pedal travel: Percent 1 is fully pressed (open, no torque
// transfer) and 0 fully released (closed).
type Clutch struct {
	percent float32
	// Rate is the travel released per second.
	Rate float32
}

func NewClutch(rate float32) *Clutch {
	return &Clutch{Rate: rate}
}

func (c *Clutch) Percent() float32 { return c.percent }

func (c *Clutch) SetPercent(p float32) {
	c.percent = min(max(p, 0), 1)
}

// Press opens the clutch fully.
func (c *Clutch) Press() { c.percent = 1 }

func (c *Clutch) IsOpen() bool { return c.percent >= 1 }

// Engagement is the share of engine torque reaching the wheels.
func (c *Clutch) Engagement() float32 { return 1 - c.percent }

// Update releases the clutch towards closed at Rate.
func (c *Clutch) Update(dt float32) {
	if dt <= 0 {
		return
	}
	c.percent = max(c.percent-c.Rate*dt, 0)
}
