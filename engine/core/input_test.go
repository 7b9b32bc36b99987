package core

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputStateAdvance(t *testing.T) {
	s := NewInputState()
	s.ProcessKey(KEY_DOWN, true, time.Time{})
	s.ProcessKey(KEY_RIGHT, true, time.Time{})
	s.ProcessKey(KEY_RIGHT, true, time.Time{})

	s.Advance(2)
	assert.InDelta(t, 1.0, s.Rotation.X(), 1e-6)
	assert.InDelta(t, 2.0, s.Rotation.Y(), 1e-6)
	assert.InDelta(t, 0.0, s.Rotation.Z(), 1e-6)

	// key releases change nothing
	s.ProcessKey(KEY_DOWN, false, time.Time{})
	s.Advance(1)
	assert.InDelta(t, 1.5, s.Rotation.X(), 1e-6)
}

func TestInputStateMoveAndZoom(t *testing.T) {
	s := NewInputState()
	s.ProcessKey(KEY_W, true, time.Time{})
	s.ProcessKey(KEY_D, true, time.Time{})
	s.ProcessKey(KEY_E, true, time.Time{})
	assert.True(t, s.Position.ApproxEqual(mgl32.Vec3{0.1, 0.1, 0.1}))

	for i := 0; i < 100; i++ {
		s.ProcessKey(KEY_MINUS, true, time.Time{})
	}
	assert.Equal(t, maxZoom, s.Zoom)
	for i := 0; i < 100; i++ {
		s.ProcessKey(KEY_PLUS, true, time.Time{})
	}
	assert.Equal(t, minZoom, s.Zoom)
}

func TestInputStateCycles(t *testing.T) {
	s := NewInputState()
	require.Equal(t, UP_AXIS_Y, s.Up)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, s.Up.Vector())

	s.ProcessKey(KEY_U, true, time.Time{})
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, s.Up.Vector())
	s.ProcessKey(KEY_U, true, time.Time{})
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, s.Up.Vector())
	s.ProcessKey(KEY_U, true, time.Time{})
	assert.Equal(t, UP_AXIS_Y, s.Up)

	for i := 0; i < LIGHT_PALETTE_SIZE; i++ {
		assert.Equal(t, i, s.LightIndex)
		s.ProcessKey(KEY_L, true, time.Time{})
	}
	assert.Equal(t, 0, s.LightIndex)
}

func TestInputStateToggleTexture(t *testing.T) {
	s := NewInputState()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.ProcessKey(KEY_T, true, now)
	assert.Equal(t, TEXTURE_MODE_IMAGE, s.TextureMode)
	assert.Equal(t, uint64(1), s.TextureGeneration)
	assert.Equal(t, now, s.TextureToggledAt)

	s.ProcessKey(KEY_T, true, now.Add(time.Second))
	assert.Equal(t, TEXTURE_MODE_COLOR, s.TextureMode)
	assert.Equal(t, uint64(2), s.TextureGeneration)
}

func TestInputStateResetAndQuit(t *testing.T) {
	s := NewInputState()
	s.ProcessKey(KEY_UP, true, time.Time{})
	s.ProcessKey(KEY_A, true, time.Time{})
	s.ProcessKey(KEY_T, true, time.Time{})
	s.ProcessKey(KEY_R, true, time.Time{})

	assert.Equal(t, mgl32.Vec3{}, s.AngularVelocity)
	assert.Equal(t, mgl32.Vec3{}, s.Position)
	assert.Equal(t, float32(1), s.Zoom)
	assert.Equal(t, TEXTURE_MODE_IMAGE, s.TextureMode)

	assert.False(t, s.Quit)
	s.ProcessKey(KEY_ESCAPE, true, time.Time{})
	assert.True(t, s.Quit)
}
