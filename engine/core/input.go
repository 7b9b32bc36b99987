package core

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/meshview/engine/math"
)

// Key code definitions
type KeyCode uint16

const (
	KEY_ESCAPE   KeyCode = 0x1B
	KEY_PRIOR    KeyCode = 0x21
	KEY_NEXT     KeyCode = 0x22
	KEY_LEFT     KeyCode = 0x25
	KEY_UP       KeyCode = 0x26
	KEY_RIGHT    KeyCode = 0x27
	KEY_DOWN     KeyCode = 0x28
	KEY_A        KeyCode = 0x41
	KEY_D        KeyCode = 0x44
	KEY_E        KeyCode = 0x45
	KEY_L        KeyCode = 0x4C
	KEY_Q        KeyCode = 0x51
	KEY_R        KeyCode = 0x52
	KEY_S        KeyCode = 0x53
	KEY_T        KeyCode = 0x54
	KEY_U        KeyCode = 0x55
	KEY_W        KeyCode = 0x57
	KEY_ADD      KeyCode = 0x6B
	KEY_SUBTRACT KeyCode = 0x6D
	KEY_PLUS     KeyCode = 0xBB
	KEY_MINUS    KeyCode = 0xBD
)

// UpAxis selects the world axis the camera treats as "up".
type UpAxis uint8

const (
	UP_AXIS_Y UpAxis = iota
	UP_AXIS_Z
	UP_AXIS_X
	UP_AXIS_MAX
)

// Vector returns the unit vector of the axis.
func (a UpAxis) Vector() mgl32.Vec3 {
	switch a {
	case UP_AXIS_X:
		return mgl32.Vec3{1, 0, 0}
	case UP_AXIS_Z:
		return mgl32.Vec3{0, 0, 1}
	default:
		return mgl32.Vec3{0, 1, 0}
	}
}

type TextureMode int32

const (
	TEXTURE_MODE_COLOR TextureMode = iota
	TEXTURE_MODE_IMAGE
)

const (
	LIGHT_PALETTE_SIZE = 4

	angularStep  float32 = 0.5 // rad/s per key press
	positionStep float32 = 0.1
	zoomStep     float32 = 1.1
	minZoom      float32 = 0.2
	maxZoom      float32 = 10
)

// InputState is the interactive camera, light and texture state. It is owned
// by the application and handed to the renderer every frame.
type InputState struct {
	AngularVelocity mgl32.Vec3 // radians per second around X, Y, Z
	Rotation        mgl32.Vec3 // accumulated radians around X, Y, Z
	Position        mgl32.Vec3
	Zoom            float32
	Up              UpAxis
	LightIndex      int

	TextureMode TextureMode
	// TextureGeneration increases on every texture toggle; renderers compare
	// it against what they last wrote to know a cross-fade is pending.
	TextureGeneration uint64
	TextureToggledAt  time.Time

	Quit bool
}

func NewInputState() *InputState {
	s := &InputState{}
	s.Reset()
	return s
}

// Reset restores the camera and light without touching the texture mode.
func (s *InputState) Reset() {
	s.AngularVelocity = mgl32.Vec3{}
	s.Rotation = mgl32.Vec3{}
	s.Position = mgl32.Vec3{}
	s.Zoom = 1
	s.Up = UP_AXIS_Y
	s.LightIndex = 0
}

// Advance integrates the angular velocity over dt seconds.
func (s *InputState) Advance(dt float64) {
	s.Rotation = s.Rotation.Add(s.AngularVelocity.Mul(float32(dt)))
}

func (s *InputState) ToggleTexture(now time.Time) {
	if s.TextureMode == TEXTURE_MODE_COLOR {
		s.TextureMode = TEXTURE_MODE_IMAGE
	} else {
		s.TextureMode = TEXTURE_MODE_COLOR
	}
	s.TextureGeneration++
	s.TextureToggledAt = now
}

// ProcessKey applies a key press. Releases are ignored.
func (s *InputState) ProcessKey(key KeyCode, pressed bool, now time.Time) {
	if !pressed {
		return
	}
	switch key {
	case KEY_UP:
		s.AngularVelocity[0] -= angularStep
	case KEY_DOWN:
		s.AngularVelocity[0] += angularStep
	case KEY_LEFT:
		s.AngularVelocity[1] -= angularStep
	case KEY_RIGHT:
		s.AngularVelocity[1] += angularStep
	case KEY_PRIOR:
		s.AngularVelocity[2] += angularStep
	case KEY_NEXT:
		s.AngularVelocity[2] -= angularStep
	case KEY_W:
		s.Position[1] += positionStep
	case KEY_S:
		s.Position[1] -= positionStep
	case KEY_A:
		s.Position[0] -= positionStep
	case KEY_D:
		s.Position[0] += positionStep
	case KEY_Q:
		s.Position[2] -= positionStep
	case KEY_E:
		s.Position[2] += positionStep
	case KEY_PLUS, KEY_ADD:
		s.Zoom = clampZoom(s.Zoom / zoomStep)
	case KEY_MINUS, KEY_SUBTRACT:
		s.Zoom = clampZoom(s.Zoom * zoomStep)
	case KEY_U:
		s.Up = (s.Up + 1) % UP_AXIS_MAX
	case KEY_L:
		s.LightIndex = (s.LightIndex + 1) % LIGHT_PALETTE_SIZE
	case KEY_T:
		s.ToggleTexture(now)
	case KEY_R:
		s.Reset()
	case KEY_ESCAPE:
		s.Quit = true
	}
}

func clampZoom(z float32) float32 {
	return math.Clamp(z, minZoom, maxZoom)
}
