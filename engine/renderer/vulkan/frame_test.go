package vulkan

import (
	"errors"
	"fmt"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDriver logs every frame step and returns scripted results.
type recordingDriver struct {
	calls         []string
	acquireResult vk.Result
	presentResult vk.Result
	imageIndex    uint32
	rebuildErr    error
	rebuilds      int
}

func newRecordingDriver() *recordingDriver {
	return &recordingDriver{acquireResult: vk.Success, presentResult: vk.Success}
}

func (d *recordingDriver) log(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *recordingDriver) waitForFence(slot uint32) error {
	d.log("wait %d", slot)
	return nil
}

func (d *recordingDriver) acquireImage(slot uint32) (uint32, vk.Result) {
	d.log("acquire %d", slot)
	return d.imageIndex, d.acquireResult
}

func (d *recordingDriver) resetFence(slot uint32) error {
	d.log("reset %d", slot)
	return nil
}

func (d *recordingDriver) recordCommands(slot, imageIndex, indexCount uint32) error {
	d.log("record %d %d %d", slot, imageIndex, indexCount)
	return nil
}

func (d *recordingDriver) updateUniforms(slot uint32, input *core.InputState) {
	d.log("uniforms %d", slot)
}

func (d *recordingDriver) submit(slot, imageIndex uint32) error {
	d.log("submit %d %d", slot, imageIndex)
	return nil
}

func (d *recordingDriver) present(slot, imageIndex uint32) vk.Result {
	d.log("present %d %d", slot, imageIndex)
	return d.presentResult
}

func (d *recordingDriver) rebuildSwapchain() error {
	d.log("rebuild")
	d.rebuilds++
	return d.rebuildErr
}

func TestRenderFrameOrder(t *testing.T) {
	driver := newRecordingDriver()
	driver.imageIndex = 2
	window := &fakeWindow{sizes: [][2]int{{800, 600}}}

	submitted, err := renderFrame(driver, window, 1, 36, core.NewInputState())
	require.NoError(t, err)
	assert.True(t, submitted)
	assert.Equal(t, []string{
		"wait 1",
		"acquire 1",
		"reset 1",
		"record 1 2 36",
		"uniforms 1",
		"submit 1 2",
		"present 1 2",
	}, driver.calls)
}

func TestRenderFrameWaitsBeforeReusingSlot(t *testing.T) {
	const framesInFlight = 2
	driver := newRecordingDriver()
	window := &fakeWindow{sizes: [][2]int{{800, 600}}}
	input := core.NewInputState()

	slot := uint32(0)
	for frame := 0; frame < 5; frame++ {
		driver.calls = nil
		submitted, err := renderFrame(driver, window, slot, 3, input)
		require.NoError(t, err)
		require.True(t, submitted)
		assert.Equal(t, fmt.Sprintf("wait %d", slot), driver.calls[0])
		assert.Equal(t, fmt.Sprintf("reset %d", slot), driver.calls[2])
		slot = (slot + 1) % framesInFlight
	}
}

func TestRenderFrameAcquireOutOfDate(t *testing.T) {
	driver := newRecordingDriver()
	driver.acquireResult = vk.ErrorOutOfDate
	window := &fakeWindow{sizes: [][2]int{{800, 600}}}

	submitted, err := renderFrame(driver, window, 0, 3, core.NewInputState())
	require.NoError(t, err)
	assert.False(t, submitted)
	assert.Equal(t, []string{"wait 0", "acquire 0", "rebuild"}, driver.calls)
}

func TestRenderFrameAcquireSuboptimalProceeds(t *testing.T) {
	driver := newRecordingDriver()
	driver.acquireResult = vk.Suboptimal
	window := &fakeWindow{sizes: [][2]int{{800, 600}}}

	submitted, err := renderFrame(driver, window, 0, 3, core.NewInputState())
	require.NoError(t, err)
	assert.True(t, submitted)
	assert.Contains(t, driver.calls, "submit 0 0")
}

func TestRenderFrameAcquireFailure(t *testing.T) {
	driver := newRecordingDriver()
	driver.acquireResult = vk.ErrorDeviceLost
	window := &fakeWindow{sizes: [][2]int{{800, 600}}}

	submitted, err := renderFrame(driver, window, 0, 3, core.NewInputState())
	assert.ErrorIs(t, err, core.ErrAcquireFailed)
	assert.False(t, submitted)
	assert.NotContains(t, driver.calls, "reset 0")
	assert.Zero(t, driver.rebuilds)
}

func TestRenderFramePresentRebuilds(t *testing.T) {
	for _, result := range []vk.Result{vk.ErrorOutOfDate, vk.Suboptimal} {
		driver := newRecordingDriver()
		driver.presentResult = result
		window := &fakeWindow{sizes: [][2]int{{800, 600}}}

		submitted, err := renderFrame(driver, window, 0, 3, core.NewInputState())
		require.NoError(t, err)
		assert.True(t, submitted)
		assert.Equal(t, 1, driver.rebuilds)
		assert.Equal(t, "rebuild", driver.calls[len(driver.calls)-1])
	}
}

func TestRenderFrameResizeFlagRebuilds(t *testing.T) {
	driver := newRecordingDriver()
	window := &fakeWindow{sizes: [][2]int{{800, 600}}, resized: true}

	submitted, err := renderFrame(driver, window, 0, 3, core.NewInputState())
	require.NoError(t, err)
	assert.True(t, submitted)
	assert.Equal(t, 1, driver.rebuilds)
	assert.False(t, window.resized)
	assert.Equal(t, 1, window.clearCalls)
}

func TestRenderFramePresentFailure(t *testing.T) {
	driver := newRecordingDriver()
	driver.presentResult = vk.ErrorSurfaceLost
	window := &fakeWindow{sizes: [][2]int{{800, 600}}}

	submitted, err := renderFrame(driver, window, 0, 3, core.NewInputState())
	assert.ErrorIs(t, err, core.ErrPresentFailed)
	assert.True(t, submitted)
	assert.Zero(t, driver.rebuilds)
}

func TestRenderFrameRebuildError(t *testing.T) {
	boom := errors.New("boom")
	driver := newRecordingDriver()
	driver.presentResult = vk.ErrorOutOfDate
	driver.rebuildErr = boom
	window := &fakeWindow{sizes: [][2]int{{800, 600}}}

	submitted, err := renderFrame(driver, window, 0, 3, core.NewInputState())
	assert.ErrorIs(t, err, boom)
	assert.True(t, submitted)
}
