package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsAverage(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.010)
	}
	assert.InDelta(t, 10.0, m.FrameTime(), 1e-9)

	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.020)
	}
	assert.InDelta(t, 20.0, m.FrameTime(), 1e-9)
}

func TestMetricsFPS(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < 101; i++ {
		m.Update(0.010)
	}
	fps, _ := m.Frame()
	assert.Equal(t, float64(101), fps)
}

func TestClockTick(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	c := &Clock{now: func() time.Time { return now }}

	assert.Zero(t, c.Tick())
	c.Start()
	now = base.Add(250 * time.Millisecond)
	assert.InDelta(t, 0.25, c.Tick(), 1e-9)
	now = base.Add(time.Second)
	c.Update()
	assert.Equal(t, time.Second, c.Elapsed())

	c.Stop()
	now = base.Add(2 * time.Second)
	c.Update()
	assert.Equal(t, time.Second, c.Elapsed())
}
