package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
)

/**
 * @brief Per frame slot synchronisation: an image-available semaphore, a
 * render-finished semaphore and an in-flight fence created signaled so the
 * first wait on every slot returns at once.
 */
type FrameSync struct {
	ImageAvailable []vk.Semaphore
	RenderFinished []vk.Semaphore
	InFlight       []*VulkanFence
}

func NewFrameSync(context *VulkanContext, framesInFlight uint32) (*FrameSync, error) {
	fs := &FrameSync{
		ImageAvailable: make([]vk.Semaphore, 0, framesInFlight),
		RenderFinished: make([]vk.Semaphore, 0, framesInFlight),
		InFlight:       make([]*VulkanFence, 0, framesInFlight),
	}
	for i := uint32(0); i < framesInFlight; i++ {
		available, err := newSemaphore(context)
		if err != nil {
			fs.Destroy(context)
			return nil, err
		}
		fs.ImageAvailable = append(fs.ImageAvailable, available)

		finished, err := newSemaphore(context)
		if err != nil {
			fs.Destroy(context)
			return nil, err
		}
		fs.RenderFinished = append(fs.RenderFinished, finished)

		fence, err := NewFence(context, true)
		if err != nil {
			fs.Destroy(context)
			return nil, err
		}
		fs.InFlight = append(fs.InFlight, fence)
	}
	core.LogDebug("Created %d frame sync sets.", framesInFlight)
	return fs, nil
}

func (fs *FrameSync) Len() int {
	return len(fs.InFlight)
}

func newSemaphore(context *VulkanContext) (vk.Semaphore, error) {
	createInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := checkResult("vkCreateSemaphore", vk.CreateSemaphore(context.Device.LogicalDevice, &createInfo, context.Allocator, &semaphore)); err != nil {
		return vk.NullSemaphore, err
	}
	return semaphore, nil
}

func (fs *FrameSync) Destroy(context *VulkanContext) {
	for _, s := range fs.ImageAvailable {
		vk.DestroySemaphore(context.Device.LogicalDevice, s, context.Allocator)
	}
	for _, s := range fs.RenderFinished {
		vk.DestroySemaphore(context.Device.LogicalDevice, s, context.Allocator)
	}
	for _, f := range fs.InFlight {
		f.Destroy(context)
	}
	fs.ImageAvailable = nil
	fs.RenderFinished = nil
	fs.InFlight = nil
}
