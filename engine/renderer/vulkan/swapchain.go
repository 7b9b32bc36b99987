package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
	"github.com/spaghettifunk/meshview/engine/math"
)

type VulkanSwapchain struct {
	ImageFormat vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	Handle      vk.Swapchain
	ImageCount  uint32
	Images      []vk.Image
	Views       []vk.ImageView
}

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// chooseSurfaceFormat prefers 8-bit BGRA with sRGB encoding and falls back to
// the first format the surface offers.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range formats {
		if format.Format == vk.FormatB8g8r8a8Srgb && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	if len(formats) == 0 {
		return vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	}
	return formats[0]
}

// choosePresentMode prefers mailbox; FIFO is always available.
func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

// chooseExtent returns the surface's current extent unless it is the
// undefined sentinel, in which case the framebuffer size is clamped to the
// surface limits.
func chooseExtent(capabilities vk.SurfaceCapabilities, framebufferWidth, framebufferHeight int) vk.Extent2D {
	if capabilities.CurrentExtent.Width != vk.MaxUint32 {
		return capabilities.CurrentExtent
	}
	min := capabilities.MinImageExtent
	max := capabilities.MaxImageExtent
	return vk.Extent2D{
		Width:  math.Clamp(uint32(framebufferWidth), min.Width, max.Width),
		Height: math.Clamp(uint32(framebufferHeight), min.Height, max.Height),
	}
}

// chooseImageCount asks for one image above the minimum, within the maximum
// when the surface reports one.
func chooseImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	count := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}

func NewSwapchain(context *VulkanContext, framebufferWidth, framebufferHeight int) (*VulkanSwapchain, error) {
	support, err := context.Device.QuerySwapchainSupport(context.Surface)
	if err != nil {
		return nil, err
	}

	swapchain := &VulkanSwapchain{
		ImageFormat: chooseSurfaceFormat(support.Formats),
		PresentMode: choosePresentMode(support.PresentModes),
		Extent:      chooseExtent(support.Capabilities, framebufferWidth, framebufferHeight),
	}
	imageCount := chooseImageCount(support.Capabilities)

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchain.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      swapchain.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	// Setup the queue family indices
	if context.Device.GraphicsQueueIndex != context.Device.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{
			context.Device.GraphicsQueueIndex,
			context.Device.PresentQueueIndex,
		}
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var handle vk.Swapchain
	if err := checkResult("vkCreateSwapchain", vk.CreateSwapchain(context.Device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &handle)); err != nil {
		return nil, err
	}
	swapchain.Handle = handle

	if err := checkResult("vkGetSwapchainImages", vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, nil)); err != nil {
		swapchain.Destroy(context)
		return nil, err
	}
	swapchain.Images = make([]vk.Image, swapchain.ImageCount)
	if err := checkResult("vkGetSwapchainImages", vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, swapchain.Images)); err != nil {
		swapchain.Destroy(context)
		return nil, err
	}

	core.LogInfo("Swapchain created: %dx%d, %d images, format %d, present mode %d.",
		swapchain.Extent.Width, swapchain.Extent.Height, swapchain.ImageCount, swapchain.ImageFormat.Format, swapchain.PresentMode)
	return swapchain, nil
}

// CreateViews creates one colour view per swapchain image.
func (vs *VulkanSwapchain) CreateViews(context *VulkanContext) error {
	vs.Views = make([]vk.ImageView, 0, vs.ImageCount)
	for _, image := range vs.Images {
		view, err := createImageView(context, image, vs.ImageFormat.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit), 1)
		if err != nil {
			return err
		}
		vs.Views = append(vs.Views, view)
	}
	return nil
}

// DestroyViews destroys the views only; the images belong to the swapchain.
func (vs *VulkanSwapchain) DestroyViews(context *VulkanContext) {
	for _, view := range vs.Views {
		vk.DestroyImageView(context.Device.LogicalDevice, view, context.Allocator)
	}
	vs.Views = nil
}

// AcquireNextImage returns the next image index along with the raw result so
// the caller can tell staleness from failure.
func (vs *VulkanSwapchain) AcquireNextImage(context *VulkanContext, timeoutNs uint64, imageAvailable vk.Semaphore) (uint32, vk.Result) {
	var index uint32
	result := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, timeoutNs, imageAvailable, vk.NullFence, &index)
	return index, result
}

// Present queues imageIndex for presentation once renderFinished is signaled.
func (vs *VulkanSwapchain) Present(context *VulkanContext, renderFinished vk.Semaphore, imageIndex uint32) vk.Result {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{imageIndex},
	}
	return vk.QueuePresent(context.Device.PresentQueue, &presentInfo)
}

func (vs *VulkanSwapchain) Destroy(context *VulkanContext) {
	vs.DestroyViews(context)
	if vs.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
		vs.Handle = vk.NullSwapchain
	}
	vs.Images = nil
	vs.ImageCount = 0
}
