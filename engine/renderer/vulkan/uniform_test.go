package vulkan

import (
	"bytes"
	"testing"
	"time"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
	"github.com/spaghettifunk/meshview/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformRecordSizes(t *testing.T) {
	assert.Equal(t, uint64(192), cameraUniformSize)
	assert.Equal(t, uint64(16), blendUniformSize)
	assert.Equal(t, uint64(112), lightUniformSize)
}

func TestNewUniformLayout(t *testing.T) {
	layout := newUniformLayout(16)
	assert.Equal(t, uniformLayout{CameraOffset: 0, BlendOffset: 192, LightOffset: 208, Size: 320}, layout)

	layout = newUniformLayout(256)
	assert.Equal(t, uniformLayout{CameraOffset: 0, BlendOffset: 256, LightOffset: 512, Size: 624}, layout)

	// Devices reporting less than 16 still get std140 friendly offsets.
	layout = newUniformLayout(4)
	assert.Zero(t, layout.BlendOffset%16)
	assert.Zero(t, layout.LightOffset%16)
}

func TestCameraMatricesFlipY(t *testing.T) {
	input := core.NewInputState()
	camera := cameraMatrices(input, vk.Extent2D{Width: 800, Height: 600})

	assert.True(t, camera.Model.ApproxEqual(mgl32.Ident4()))
	assert.Less(t, camera.Projection[5], float32(0))

	reference := mgl32.Perspective(mgl32.DegToRad(45), 800.0/600.0, 0.1, 100)
	assert.InDelta(t, reference[0], camera.Projection[0], 1e-6)
	assert.InDelta(t, -reference[5], camera.Projection[5], 1e-6)
}

func TestCameraMatricesZeroHeight(t *testing.T) {
	input := core.NewInputState()
	camera := cameraMatrices(input, vk.Extent2D{Width: 800, Height: 0})

	square := cameraMatrices(input, vk.Extent2D{Width: 600, Height: 600})
	assert.Equal(t, square.Projection, camera.Projection)
}

func TestCameraMatricesFollowInput(t *testing.T) {
	input := core.NewInputState()
	input.Position = mgl32.Vec3{1, 2, 3}
	camera := cameraMatrices(input, vk.Extent2D{Width: 1, Height: 1})
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, camera.Model.Col(3).Vec3())

	input.Zoom = 2
	assert.Equal(t, mgl32.Vec3{4, 4, 4}, eyePosition(input))
}

func TestSelectedLightWraps(t *testing.T) {
	assert.Equal(t, lightPalette[0], selectedLight(0))
	assert.Equal(t, lightPalette[1], selectedLight(core.LIGHT_PALETTE_SIZE+1))
	assert.Equal(t, lightPalette[core.LIGHT_PALETTE_SIZE-1], selectedLight(-1))
}

func TestLightRecord(t *testing.T) {
	input := core.NewInputState()
	input.LightIndex = 2
	params := metadata.DefaultLightParams()

	record := lightRecord(params, input)
	assert.Equal(t, lightPalette[2].Position.Vec4(1), record.Position)
	assert.Equal(t, params.Ambient.Vec4(1), record.Ambient)
	assert.Equal(t, params.Shininess, record.Shininess)
	assert.Equal(t, eyePosition(input).Vec4(1), record.EyePosition)
}

func blendBytes(mapped []byte, layout uniformLayout) []byte {
	return mapped[layout.BlendOffset : layout.BlendOffset+blendUniformSize]
}

func readBlend(mapped []byte, layout uniformLayout) blendUniform {
	return *(*blendUniform)(unsafe.Pointer(&mapped[layout.BlendOffset]))
}

func TestWriteUniformsFirstFrameWritesBlend(t *testing.T) {
	layout := newUniformLayout(16)
	mapped := bytes.Repeat([]byte{0xAB}, int(layout.Size))
	input := core.NewInputState()

	writeUniforms(mapped, layout, newBlendTracker(1), 0, vk.Extent2D{Width: 4, Height: 3}, metadata.DefaultLightParams(), input, time.Now())

	blend := readBlend(mapped, layout)
	assert.Equal(t, int32(core.TEXTURE_MODE_COLOR), blend.Mode)
	assert.Equal(t, float32(1), blend.Factor)
}

func TestWriteUniformsBlendIsIdempotent(t *testing.T) {
	layout := newUniformLayout(16)
	mapped := make([]byte, layout.Size)
	tracker := newBlendTracker(2)
	input := core.NewInputState()
	light := metadata.DefaultLightParams()
	extent := vk.Extent2D{Width: 4, Height: 3}
	start := time.Now()

	writeUniforms(mapped, layout, tracker, 0, extent, light, input, start)

	// Nothing pending: the blend record must not be rewritten.
	sentinel := bytes.Repeat([]byte{0x5A}, int(blendUniformSize))
	copy(blendBytes(mapped, layout), sentinel)
	writeUniforms(mapped, layout, tracker, 0, extent, light, input, start.Add(time.Second))
	assert.Equal(t, sentinel, blendBytes(mapped, layout))

	input.ToggleTexture(start)
	writeUniforms(mapped, layout, tracker, 0, extent, light, input, start.Add(TEXTURE_BLEND_DURATION/2))
	blend := readBlend(mapped, layout)
	assert.Equal(t, int32(core.TEXTURE_MODE_IMAGE), blend.Mode)
	assert.InDelta(t, 0.5, blend.Factor, 1e-3)

	writeUniforms(mapped, layout, tracker, 0, extent, light, input, start.Add(TEXTURE_BLEND_DURATION))
	require.Equal(t, float32(1), readBlend(mapped, layout).Factor)

	copy(blendBytes(mapped, layout), sentinel)
	writeUniforms(mapped, layout, tracker, 0, extent, light, input, start.Add(2*TEXTURE_BLEND_DURATION))
	assert.Equal(t, sentinel, blendBytes(mapped, layout))
}

func TestBlendTrackerSlotsAreIndependent(t *testing.T) {
	tracker := newBlendTracker(2)
	input := core.NewInputState()
	now := time.Now()

	_, pending := tracker.next(0, input, now)
	require.True(t, pending)
	_, pending = tracker.next(0, input, now)
	assert.False(t, pending)

	// Slot 1 has not written the current generation yet.
	_, pending = tracker.next(1, input, now)
	assert.True(t, pending)
}
