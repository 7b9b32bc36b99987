package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
)

// frameDriver is the sequence of GPU steps one frame is made of.
type frameDriver interface {
	waitForFence(slot uint32) error
	acquireImage(slot uint32) (uint32, vk.Result)
	resetFence(slot uint32) error
	recordCommands(slot, imageIndex, indexCount uint32) error
	updateUniforms(slot uint32, input *core.InputState)
	submit(slot, imageIndex uint32) error
	present(slot, imageIndex uint32) vk.Result
	rebuildSwapchain() error
}

// renderFrame drives one frame through wait, acquire, record, submit and
// present. It reports whether work was submitted for the slot, in which case
// the caller moves on to the next slot. A stale surface during acquire
// abandons the frame before anything is submitted.
func renderFrame(d frameDriver, window Window, slot, indexCount uint32, input *core.InputState) (bool, error) {
	if err := d.waitForFence(slot); err != nil {
		return false, err
	}

	imageIndex, result := d.acquireImage(slot)
	switch result {
	case vk.Success, vk.Suboptimal:
	case vk.ErrorOutOfDate:
		core.LogDebug("Swapchain out of date on acquire, rebuilding.")
		return false, d.rebuildSwapchain()
	default:
		err := fmt.Errorf("%w: %s", core.ErrAcquireFailed, VulkanResultString(result, false))
		core.LogError("%s", err)
		return false, err
	}

	if err := d.resetFence(slot); err != nil {
		return false, err
	}
	if err := d.recordCommands(slot, imageIndex, indexCount); err != nil {
		return false, err
	}
	d.updateUniforms(slot, input)
	if err := d.submit(slot, imageIndex); err != nil {
		return false, err
	}

	result = d.present(slot, imageIndex)
	resized := window.Resized()
	switch {
	case result == vk.ErrorOutOfDate || result == vk.Suboptimal || resized:
		window.ClearResized()
		core.LogDebug("Swapchain stale on present (%s, resized=%t), rebuilding.", VulkanResultString(result, false), resized)
		if err := d.rebuildSwapchain(); err != nil {
			return true, err
		}
	case result != vk.Success:
		err := fmt.Errorf("%w: %s", core.ErrPresentFailed, VulkanResultString(result, false))
		core.LogError("%s", err)
		return true, err
	}
	return true, nil
}
