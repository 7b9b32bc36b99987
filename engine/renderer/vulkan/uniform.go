package vulkan

import (
	"time"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
	"github.com/spaghettifunk/meshview/engine/math"
	"github.com/spaghettifunk/meshview/engine/renderer/metadata"
)

// Layouts follow std140 and must match the shader uniform blocks.
type cameraUniform struct {
	Model      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

type blendUniform struct {
	Mode   int32
	Factor float32
	_      [2]float32
}

type lightUniform struct {
	Position    mgl32.Vec4
	Ambient     mgl32.Vec4
	Diffuse     mgl32.Vec4
	Specular    mgl32.Vec4
	Color       mgl32.Vec4
	EyePosition mgl32.Vec4
	Shininess   float32
	_           [3]float32
}

const (
	cameraUniformSize = uint64(unsafe.Sizeof(cameraUniform{}))
	blendUniformSize  = uint64(unsafe.Sizeof(blendUniform{}))
	lightUniformSize  = uint64(unsafe.Sizeof(lightUniform{}))

	minUniformAlignment uint64 = 16
)

/** @brief Byte offsets of the three records inside one uniform buffer. */
type uniformLayout struct {
	CameraOffset uint64
	BlendOffset  uint64
	LightOffset  uint64
	Size         uint64
}

// newUniformLayout packs camera, blend and light records, starting each on
// a multiple of max(16, deviceAlignment).
func newUniformLayout(deviceAlignment uint64) uniformLayout {
	alignment := max(minUniformAlignment, deviceAlignment)
	layout := uniformLayout{CameraOffset: 0}
	layout.BlendOffset = math.AlignUp(layout.CameraOffset+cameraUniformSize, alignment)
	layout.LightOffset = math.AlignUp(layout.BlendOffset+blendUniformSize, alignment)
	layout.Size = layout.LightOffset + lightUniformSize
	return layout
}

var baseEyePosition = mgl32.Vec3{2, 2, 2}

// vulkanClipCorrection maps OpenGL clip depth [-1,1] to [0,1].
var vulkanClipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

func eyePosition(input *core.InputState) mgl32.Vec3 {
	return baseEyePosition.Mul(input.Zoom)
}

// cameraMatrices derives model, view and projection from the input state.
// The model rotates around X, then Y, then Z after translating.
func cameraMatrices(input *core.InputState, extent vk.Extent2D) cameraUniform {
	aspect := float32(1)
	if extent.Height != 0 {
		aspect = float32(extent.Width) / float32(extent.Height)
	}

	model := mgl32.Translate3D(input.Position.X(), input.Position.Y(), input.Position.Z()).
		Mul4(mgl32.HomogRotate3DX(input.Rotation.X())).
		Mul4(mgl32.HomogRotate3DY(input.Rotation.Y())).
		Mul4(mgl32.HomogRotate3DZ(input.Rotation.Z()))

	view := mgl32.LookAtV(eyePosition(input), mgl32.Vec3{0, 0, 0}, input.Up.Vector())

	projection := mgl32.Perspective(mgl32.DegToRad(45), aspect, 0.1, 100)
	projection[5] *= -1
	projection = vulkanClipCorrection.Mul4(projection)

	return cameraUniform{
		Model:      model,
		View:       view,
		Projection: projection,
	}
}

type paletteLight struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
}

var lightPalette = [core.LIGHT_PALETTE_SIZE]paletteLight{
	{Position: mgl32.Vec3{2, 2, 2}, Color: mgl32.Vec3{1, 1, 1}},
	{Position: mgl32.Vec3{-2, 2, 2}, Color: mgl32.Vec3{1, 0.6, 0.6}},
	{Position: mgl32.Vec3{2, -2, 2}, Color: mgl32.Vec3{0.6, 1, 0.6}},
	{Position: mgl32.Vec3{0, 3, -2}, Color: mgl32.Vec3{0.6, 0.6, 1}},
}

func selectedLight(index int) paletteLight {
	n := len(lightPalette)
	return lightPalette[((index%n)+n)%n]
}

func lightRecord(params metadata.LightParams, input *core.InputState) lightUniform {
	light := selectedLight(input.LightIndex)
	return lightUniform{
		Position:    light.Position.Vec4(1),
		Ambient:     params.Ambient.Vec4(1),
		Diffuse:     params.Diffuse.Vec4(1),
		Specular:    params.Specular.Vec4(1),
		Color:       light.Color.Vec4(1),
		EyePosition: eyePosition(input).Vec4(1),
		Shininess:   params.Shininess,
	}
}

/**
 * @brief Tracks, per frame slot, the texture toggle generation whose
 * cross-fade has finished. A slot is pending while the input generation
 * differs from it.
 */
type blendTracker struct {
	completed []uint64
}

const noGeneration = ^uint64(0)

func newBlendTracker(slots uint32) *blendTracker {
	t := &blendTracker{completed: make([]uint64, slots)}
	// Every slot starts pending so the first frame writes a valid record.
	for i := range t.completed {
		t.completed[i] = noGeneration
	}
	return t
}

// next returns the record to write for slot, or false when nothing is pending.
func (t *blendTracker) next(slot uint32, input *core.InputState, now time.Time) (blendUniform, bool) {
	if t.completed[slot] == input.TextureGeneration {
		return blendUniform{}, false
	}
	elapsed := now.Sub(input.TextureToggledAt)
	factor := math.Clamp(float32(elapsed.Seconds()/TEXTURE_BLEND_DURATION.Seconds()), 0, 1)
	if elapsed >= TEXTURE_BLEND_DURATION {
		t.completed[slot] = input.TextureGeneration
	}
	return blendUniform{
		Mode:   int32(input.TextureMode),
		Factor: factor,
	}, true
}

func structBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}
