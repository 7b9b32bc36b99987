package core

import "time"

// Clock measures wall time between Start and Update. The zero value is a
// stopped clock.
type Clock struct {
	startTime time.Time
	lastTick  time.Time
	elapsed   time.Duration
	now       func() time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if !c.startTime.IsZero() {
		c.elapsed = c.now().Sub(c.startTime)
	}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	if c.now == nil {
		c.now = time.Now
	}
	c.startTime = c.now()
	c.lastTick = c.startTime
	c.elapsed = 0
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.startTime = time.Time{}
}

func (c *Clock) Elapsed() time.Duration {
	return c.elapsed
}

// Tick returns the seconds passed since the previous Tick (or Start).
func (c *Clock) Tick() float64 {
	if c.startTime.IsZero() {
		return 0
	}
	t := c.now()
	dt := t.Sub(c.lastTick).Seconds()
	c.lastTick = t
	return dt
}
