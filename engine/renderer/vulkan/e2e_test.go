package vulkan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/assets/loaders"
	"github.com/spaghettifunk/meshview/engine/core"
	"github.com/spaghettifunk/meshview/engine/platform"
	"github.com/spaghettifunk/meshview/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cube = `v -0.5 -0.5  0.5
v  0.5 -0.5  0.5
v  0.5  0.5  0.5
v -0.5  0.5  0.5
v -0.5 -0.5 -0.5
v  0.5 -0.5 -0.5
v  0.5  0.5 -0.5
v -0.5  0.5 -0.5
f 1 2 3 4
f 6 5 8 7
f 5 1 4 8
f 2 6 7 3
f 4 3 7 8
f 5 6 2 1
`

// minimizedWindow reports a 0x0 drawable until the first WaitEvents, which
// restores the real window at the given size.
type minimizedWindow struct {
	*platform.Platform
	width, height int
	restored      bool
	waits         int
}

func (w *minimizedWindow) FramebufferSize() (int, int) {
	if !w.restored {
		return 0, 0
	}
	return w.Platform.FramebufferSize()
}

func (w *minimizedWindow) WaitEvents() {
	w.waits++
	w.Window.SetSize(w.width, w.height)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		glfw.WaitEventsTimeout(0.05)
		if width, height := w.Window.GetSize(); width == w.width && height == w.height {
			break
		}
	}
	w.restored = true
}

// Needs a display, a Vulkan driver and compiled shaders.
func TestRenderCubeOnDevice(t *testing.T) {
	if os.Getenv("MESHVIEW_GPU_TESTS") == "" {
		t.Skip("set MESHVIEW_GPU_TESTS=1 to run against a real device")
	}
	shaderDir := filepath.Join("..", "..", "..", "assets", "shaders")
	vertex, err := os.ReadFile(filepath.Join(shaderDir, "vert.spv"))
	if err != nil {
		t.Skipf("compiled shaders not found: %s", err)
	}
	fragment, err := os.ReadFile(filepath.Join(shaderDir, "frag.spv"))
	require.NoError(t, err)

	obj, err := loaders.ParseOBJ(strings.NewReader(cube))
	require.NoError(t, err)
	vertices, indices, err := obj.Build(nil)
	require.NoError(t, err)
	require.Len(t, indices, 36)

	input := core.NewInputState()
	window := platform.New(input)
	require.NoError(t, window.Startup("meshview-test", 320, 240))
	defer window.Shutdown()

	const framesInFlight = 2
	renderer := New(RendererConfig{ApplicationName: "meshview-test", FramesInFlight: framesInFlight})
	err = renderer.Initialize(window, loaders.Checkerboard(64, 8), metadata.DefaultLightParams(), vertices, indices,
		ShaderCode{Vertex: vertex, Fragment: fragment})
	require.NoError(t, err)
	defer renderer.Destroy()

	require.NotNil(t, renderer.target.Swapchain())
	assert.True(t, renderer.target.Swapchain().Handle != vk.NullSwapchain)
	assert.Equal(t, framesInFlight, renderer.sync.Len())
	assert.Len(t, renderer.sync.ImageAvailable, framesInFlight)
	assert.Len(t, renderer.sync.RenderFinished, framesInFlight)

	for i := 0; i < 6; i++ {
		window.PumpMessages()
		input.Advance(1.0 / 60)
		require.NoError(t, renderer.Render(window, uint32(len(indices)), input))
	}
	assert.NotZero(t, renderer.FrameNumber)
	assert.Error(t, renderer.Render(window, uint32(len(indices))+1, input))
	require.NoError(t, renderer.Idle())

	// A minimized window is waited out and the target comes back at the
	// restored size after a single Update.
	minimized := &minimizedWindow{Platform: window, width: 800, height: 600}
	require.NoError(t, renderer.target.Update(renderer.context, minimized))
	assert.Equal(t, 1, minimized.waits)
	width, height := minimized.FramebufferSize()
	extent := renderer.target.Extent()
	assert.Equal(t, uint32(width), extent.Width)
	assert.Equal(t, uint32(height), extent.Height)
	assert.True(t, renderer.target.Swapchain().Handle != vk.NullSwapchain)
}
