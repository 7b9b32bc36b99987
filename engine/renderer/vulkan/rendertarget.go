package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
)

/**
 * @brief Images that follow the swapchain extent: the multisampled colour
 * target (nil without MSAA) and the depth buffer.
 */
type RenderTargetResources struct {
	Color *VulkanImage
	Depth *VulkanImage
}

func NewRenderTargetResources(context *VulkanContext, extent vk.Extent2D, colorFormat vk.Format, samples vk.SampleCountFlagBits) (*RenderTargetResources, error) {
	resources := &RenderTargetResources{}

	if samples != vk.SampleCount1Bit {
		color, err := NewImage(context, VulkanImageConfig{
			Width:      extent.Width,
			Height:     extent.Height,
			MipLevels:  1,
			Samples:    samples,
			Format:     colorFormat,
			Tiling:     vk.ImageTilingOptimal,
			Usage:      vk.ImageUsageFlags(vk.ImageUsageTransientAttachmentBit | vk.ImageUsageColorAttachmentBit),
			Properties: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
			CreateView: true,
			ViewAspect: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		})
		if err != nil {
			return nil, err
		}
		resources.Color = color
	}

	depth, err := NewImage(context, VulkanImageConfig{
		Width:      extent.Width,
		Height:     extent.Height,
		MipLevels:  1,
		Samples:    samples,
		Format:     context.Device.DepthFormat,
		Tiling:     vk.ImageTilingOptimal,
		Usage:      vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		Properties: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		CreateView: true,
		ViewAspect: vk.ImageAspectFlags(vk.ImageAspectDepthBit),
	})
	if err != nil {
		resources.Destroy(context)
		return nil, err
	}
	resources.Depth = depth
	return resources, nil
}

func (r *RenderTargetResources) colorView() vk.ImageView {
	if r.Color == nil {
		return vk.NullImageView
	}
	return r.Color.View
}

// Destroy releases the colour image then the depth image.
func (r *RenderTargetResources) Destroy(context *VulkanContext) {
	r.Color.Destroy(context)
	r.Color = nil
	r.Depth.Destroy(context)
	r.Depth = nil
}

/**
 * @brief Everything the frame draws into: swapchain with its views, the
 * render pass, the per-extent attachments and one framebuffer per image.
 */
type RenderTarget struct {
	swapchain    *VulkanSwapchain
	renderpass   *VulkanRenderpass
	resources    *RenderTargetResources
	framebuffers []*VulkanFramebuffer
	samples      vk.SampleCountFlagBits
}

// waitForDrawableSize blocks on window events while the window is minimized
// and returns the first non-empty framebuffer size.
func waitForDrawableSize(window Window) (int, int) {
	width, height := window.FramebufferSize()
	for width == 0 || height == 0 {
		window.WaitEvents()
		width, height = window.FramebufferSize()
	}
	return width, height
}

func (rt *RenderTarget) Initialize(context *VulkanContext, window Window) error {
	rt.samples = context.Device.MsaaSamples

	width, height := waitForDrawableSize(window)
	swapchain, err := NewSwapchain(context, width, height)
	if err != nil {
		return err
	}
	rt.swapchain = swapchain

	renderpass, err := NewRenderpass(context, rt.swapchain.ImageFormat.Format, rt.samples)
	if err != nil {
		return err
	}
	rt.renderpass = renderpass

	return rt.createExtentDependents(context)
}

// createExtentDependents builds the swapchain views, attachments and
// framebuffers for the current swapchain.
func (rt *RenderTarget) createExtentDependents(context *VulkanContext) error {
	if err := rt.swapchain.CreateViews(context); err != nil {
		return err
	}

	resources, err := NewRenderTargetResources(context, rt.swapchain.Extent, rt.swapchain.ImageFormat.Format, rt.samples)
	if err != nil {
		return err
	}
	rt.resources = resources

	multisampled := rt.samples != vk.SampleCount1Bit
	rt.framebuffers = make([]*VulkanFramebuffer, 0, len(rt.swapchain.Views))
	for _, view := range rt.swapchain.Views {
		attachments := framebufferAttachments(view, rt.resources.colorView(), rt.resources.Depth.View, multisampled)
		framebuffer, err := NewFramebuffer(context, rt.renderpass, rt.swapchain.Extent.Width, rt.swapchain.Extent.Height, attachments)
		if err != nil {
			return err
		}
		rt.framebuffers = append(rt.framebuffers, framebuffer)
	}
	return nil
}

// destroyExtentDependents tears down framebuffers, views, attachments and
// the swapchain, in that order.
func (rt *RenderTarget) destroyExtentDependents(context *VulkanContext) {
	for _, framebuffer := range rt.framebuffers {
		framebuffer.Destroy(context)
	}
	rt.framebuffers = nil

	if rt.swapchain != nil {
		rt.swapchain.DestroyViews(context)
	}
	if rt.resources != nil {
		rt.resources.Destroy(context)
		rt.resources = nil
	}
	if rt.swapchain != nil {
		rt.swapchain.Destroy(context)
		rt.swapchain = nil
	}
}

// Update rebuilds every extent dependent object at the window's current
// size. The render pass is kept.
func (rt *RenderTarget) Update(context *VulkanContext, window Window) error {
	width, height := waitForDrawableSize(window)
	if err := context.WaitIdle(); err != nil {
		return err
	}

	rt.destroyExtentDependents(context)

	swapchain, err := NewSwapchain(context, width, height)
	if err != nil {
		return err
	}
	rt.swapchain = swapchain
	if err := rt.createExtentDependents(context); err != nil {
		return err
	}
	core.LogInfo("Render target rebuilt at %dx%d.", rt.swapchain.Extent.Width, rt.swapchain.Extent.Height)
	return nil
}

func (rt *RenderTarget) Extent() vk.Extent2D {
	return rt.swapchain.Extent
}

func (rt *RenderTarget) RenderPass() *VulkanRenderpass {
	return rt.renderpass
}

func (rt *RenderTarget) Framebuffer(imageIndex uint32) *VulkanFramebuffer {
	return rt.framebuffers[imageIndex]
}

func (rt *RenderTarget) Swapchain() *VulkanSwapchain {
	return rt.swapchain
}

func (rt *RenderTarget) ImageCount() uint32 {
	if rt.swapchain == nil {
		return 0
	}
	return rt.swapchain.ImageCount
}

func (rt *RenderTarget) Samples() vk.SampleCountFlagBits {
	return rt.samples
}

func (rt *RenderTarget) Destroy(context *VulkanContext) {
	rt.destroyExtentDependents(context)
	if rt.renderpass != nil {
		rt.renderpass.Destroy(context)
		rt.renderpass = nil
	}
}
