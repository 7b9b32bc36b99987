package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

func (s VulkanCommandBufferState) String() string {
	switch s {
	case COMMAND_BUFFER_STATE_READY:
		return "ready"
	case COMMAND_BUFFER_STATE_RECORDING:
		return "recording"
	case COMMAND_BUFFER_STATE_IN_RENDER_PASS:
		return "in render pass"
	case COMMAND_BUFFER_STATE_RECORDING_ENDED:
		return "recording ended"
	case COMMAND_BUFFER_STATE_SUBMITTED:
		return "submitted"
	default:
		return "not allocated"
	}
}

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	// Command buffer state.
	State VulkanCommandBufferState
}

func NewVulkanCommandBuffer(context *VulkanContext, pool vk.CommandPool, isPrimary bool) (*VulkanCommandBuffer, error) {
	commandBuffer := &VulkanCommandBuffer{
		State: COMMAND_BUFFER_STATE_NOT_ALLOCATED,
	}

	level := vk.CommandBufferLevelPrimary
	if !isPrimary {
		level = vk.CommandBufferLevelSecondary
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: 1,
		Level:              level,
	}
	handles := make([]vk.CommandBuffer, 1)
	if err := checkResult("vkAllocateCommandBuffers", vk.AllocateCommandBuffers(context.Device.LogicalDevice, &allocateInfo, handles)); err != nil {
		return nil, err
	}
	commandBuffer.Handle = handles[0]
	commandBuffer.State = COMMAND_BUFFER_STATE_READY
	return commandBuffer, nil
}

func (v *VulkanCommandBuffer) Free(context *VulkanContext, pool vk.CommandPool) {
	if v.Handle != nil {
		vk.FreeCommandBuffers(context.Device.LogicalDevice, pool, 1, []vk.CommandBuffer{v.Handle})
	}
	v.Handle = nil
	v.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}

func (v *VulkanCommandBuffer) Begin(isSingleUse, isRenderpassContinue, isSimultaneousUse bool) error {
	if v.State != COMMAND_BUFFER_STATE_READY {
		return fmt.Errorf("cannot begin a command buffer that is %s", v.State)
	}
	beginInfo := &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if isSingleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if isRenderpassContinue {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if isSimultaneousUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}
	if err := checkResult("vkBeginCommandBuffer", vk.BeginCommandBuffer(v.Handle, beginInfo)); err != nil {
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *VulkanCommandBuffer) End() error {
	if err := checkResult("vkEndCommandBuffer", vk.EndCommandBuffer(v.Handle)); err != nil {
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (v *VulkanCommandBuffer) UpdateSubmitted() {
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
}

// Reset returns the buffer to the ready state. The pool must have been
// created with the reset-command-buffer flag.
func (v *VulkanCommandBuffer) Reset() error {
	if err := checkResult("vkResetCommandBuffer", vk.ResetCommandBuffer(v.Handle, 0)); err != nil {
		return err
	}
	v.State = COMMAND_BUFFER_STATE_READY
	return nil
}

/** @brief Everything one frame's draw needs. */
type DrawCall struct {
	RenderPass    *VulkanRenderpass
	Framebuffer   *VulkanFramebuffer
	Extent        vk.Extent2D
	Pipeline      *VulkanPipeline
	Geometry      *VertexInput
	DescriptorSet vk.DescriptorSet
	IndexCount    uint32
}

/**
 * @brief Owns the graphics command pool and one primary command buffer per
 * frame slot. Also runs one-shot transfer work.
 */
type CommandRecorder struct {
	pool    vk.CommandPool
	buffers []*VulkanCommandBuffer
}

// InitializePool creates the graphics command pool. Buffers are allocated
// separately once the frame count is known.
func (r *CommandRecorder) InitializePool(context *VulkanContext) error {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: context.Device.GraphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if err := checkResult("vkCreateCommandPool", vk.CreateCommandPool(context.Device.LogicalDevice, &poolCreateInfo, context.Allocator, &pool)); err != nil {
		return err
	}
	r.pool = pool
	core.LogDebug("Graphics command pool created.")
	return nil
}

// InitializeBuffers allocates one primary command buffer per frame slot.
func (r *CommandRecorder) InitializeBuffers(context *VulkanContext, framesInFlight uint32) error {
	r.buffers = make([]*VulkanCommandBuffer, 0, framesInFlight)
	for i := uint32(0); i < framesInFlight; i++ {
		cb, err := NewVulkanCommandBuffer(context, r.pool, true)
		if err != nil {
			return err
		}
		r.buffers = append(r.buffers, cb)
	}
	core.LogDebug("Allocated %d graphics command buffers.", framesInFlight)
	return nil
}

func (r *CommandRecorder) Buffer(slot uint32) *VulkanCommandBuffer {
	return r.buffers[slot]
}

// SingleUse records fn into a temporary command buffer, submits it to queue
// and waits for the queue to go idle before freeing the buffer.
func (r *CommandRecorder) SingleUse(context *VulkanContext, queue vk.Queue, fn func(cmd vk.CommandBuffer)) error {
	cb, err := NewVulkanCommandBuffer(context, r.pool, true)
	if err != nil {
		return err
	}
	defer cb.Free(context, r.pool)

	if err := cb.Begin(true, false, false); err != nil {
		return err
	}
	fn(cb.Handle)
	if err := cb.End(); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.Handle},
	}
	if err := checkResult("vkQueueSubmit", vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence)); err != nil {
		return err
	}
	cb.UpdateSubmitted()
	return checkResult("vkQueueWaitIdle", vk.QueueWaitIdle(queue))
}

// Record resets the slot's command buffer and records the single indexed draw.
func (r *CommandRecorder) Record(slot uint32, call DrawCall) error {
	cb := r.buffers[slot]
	if err := cb.Reset(); err != nil {
		return err
	}
	if err := cb.Begin(false, false, false); err != nil {
		return err
	}

	call.RenderPass.Begin(cb, call.Framebuffer, call.Extent)

	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(call.Extent.Width),
		Height:   float32(call.Extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: call.Extent,
	}
	vk.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{scissor})

	call.Pipeline.Bind(cb, vk.PipelineBindPointGraphics)
	call.Geometry.Bind(cb)
	vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, call.Pipeline.PipelineLayout, 0, 1, []vk.DescriptorSet{call.DescriptorSet}, 0, nil)
	vk.CmdDrawIndexed(cb.Handle, call.IndexCount, 1, 0, 0, 0)

	call.RenderPass.End(cb)
	return cb.End()
}

func (r *CommandRecorder) FreeBuffers(context *VulkanContext) {
	for _, cb := range r.buffers {
		cb.Free(context, r.pool)
	}
	r.buffers = nil
}

// DestroyPool releases the pool. Buffers still allocated from it are freed
// with it.
func (r *CommandRecorder) DestroyPool(context *VulkanContext) {
	r.buffers = nil
	if r.pool != nil {
		core.LogDebug("Destroying command pool...")
		vk.DestroyCommandPool(context.Device.LogicalDevice, r.pool, context.Allocator)
		r.pool = nil
	}
}
