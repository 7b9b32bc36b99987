package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
)

/**
 * @brief The single render pass: colour and depth, plus a resolve target when
 * multisampling. It does not depend on the swapchain extent and survives
 * swapchain rebuilds.
 */
type VulkanRenderpass struct {
	Handle  vk.RenderPass
	Samples vk.SampleCountFlagBits

	R, G, B, A float32
	Depth      float32
	Stencil    uint32
}

// attachmentDescriptions lays out the attachments in framebuffer order:
// colour, depth and, when samples > 1, the single-sample resolve target
// that gets presented.
func attachmentDescriptions(colorFormat, depthFormat vk.Format, samples vk.SampleCountFlagBits) []vk.AttachmentDescription {
	multisampled := samples != vk.SampleCount1Bit

	colorFinal := vk.ImageLayoutPresentSrc
	if multisampled {
		colorFinal = vk.ImageLayoutColorAttachmentOptimal
	}

	attachments := []vk.AttachmentDescription{
		{
			Format:         colorFormat,
			Samples:        samples,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    colorFinal,
		},
		{
			Format:         depthFormat,
			Samples:        samples,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}
	if multisampled {
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         colorFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpDontCare,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		})
	}
	return attachments
}

// externalDependency orders this frame's colour and depth writes after the
// previous frame's writes to the same attachments. The depth and MSAA colour
// images are shared by every frame in flight.
func externalDependency() vk.SubpassDependency {
	dstStages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit)
	srcStages := dstStages | vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit)
	writes := vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit)
	return vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  srcStages,
		SrcAccessMask: writes,
		DstStageMask:  dstStages,
		DstAccessMask: writes,
	}
}

func NewRenderpass(context *VulkanContext, colorFormat vk.Format, samples vk.SampleCountFlagBits) (*VulkanRenderpass, error) {
	renderpass := &VulkanRenderpass{
		Samples: samples,
		R:       0,
		G:       0,
		B:       0,
		A:       1,
		Depth:   1,
		Stencil: 0,
	}

	attachments := attachmentDescriptions(colorFormat, context.Device.DepthFormat, samples)

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
		PDepthStencilAttachment: &vk.AttachmentReference{
			Attachment: 1,
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}
	if len(attachments) == 3 {
		subpass.PResolveAttachments = []vk.AttachmentReference{{
			Attachment: 2,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}}
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{externalDependency()},
	}

	var handle vk.RenderPass
	if err := checkResult("vkCreateRenderPass", vk.CreateRenderPass(context.Device.LogicalDevice, &renderpassCreateInfo, context.Allocator, &handle)); err != nil {
		return nil, err
	}
	renderpass.Handle = handle
	core.LogDebug("Render pass created with %d attachments.", len(attachments))
	return renderpass, nil
}

func (vr *VulkanRenderpass) Destroy(context *VulkanContext) {
	if vr.Handle != vk.NullRenderPass {
		vk.DestroyRenderPass(context.Device.LogicalDevice, vr.Handle, context.Allocator)
		vr.Handle = vk.NullRenderPass
	}
}

func (vr *VulkanRenderpass) Begin(commandBuffer *VulkanCommandBuffer, framebuffer *VulkanFramebuffer, extent vk.Extent2D) {
	clearValues := []vk.ClearValue{
		vk.NewClearValue([]float32{vr.R, vr.G, vr.B, vr.A}),
		vk.NewClearDepthStencil(vr.Depth, vr.Stencil),
	}

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  vr.Handle,
		Framebuffer: framebuffer.Handle,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}

	vk.CmdBeginRenderPass(commandBuffer.Handle, &beginInfo, vk.SubpassContentsInline)
	commandBuffer.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (vr *VulkanRenderpass) End(commandBuffer *VulkanCommandBuffer) {
	vk.CmdEndRenderPass(commandBuffer.Handle)
	commandBuffer.State = COMMAND_BUFFER_STATE_RECORDING
}
