package vulkan

import (
	"fmt"
	"time"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
	"github.com/spaghettifunk/meshview/engine/renderer/metadata"
)

type RendererConfig struct {
	ApplicationName string
	// FramesInFlight bounds how many frames the CPU records ahead of the GPU.
	FramesInFlight uint32
	MaxSamples     int
	Validation     bool
}

/**
 * @brief The mesh renderer: owns every GPU object and drives the frame loop.
 * Objects are created in dependency order and destroyed in reverse.
 */
type VulkanRenderer struct {
	config RendererConfig

	context     *VulkanContext
	target      RenderTarget
	descriptors DescriptorSet
	pipeline    *VulkanPipeline
	recorder    CommandRecorder
	texture     TextureSampler
	geometry    VertexInput
	sync        *FrameSync

	// fence of the frame last submitted for each swapchain image, owned by sync
	imagesInFlight []*VulkanFence

	window      Window
	slot        uint32
	FrameNumber uint64
}

func New(config RendererConfig) *VulkanRenderer {
	if config.FramesInFlight == 0 {
		config.FramesInFlight = 1
	}
	if config.FramesInFlight > VULKAN_MAX_FRAMES_IN_FLIGHT {
		config.FramesInFlight = VULKAN_MAX_FRAMES_IN_FLIGHT
	}
	return &VulkanRenderer{config: config}
}

func (vr *VulkanRenderer) Initialize(window Window, image *metadata.Image, light metadata.LightParams, vertices []metadata.Vertex, indices []uint32, shaders ShaderCode) error {
	vr.window = window

	context, err := NewVulkanContext(window, DeviceConfig{
		ApplicationName: vr.config.ApplicationName,
		Validation:      vr.config.Validation,
		MaxSamples:      vr.config.MaxSamples,
	})
	if err != nil {
		return fmt.Errorf("graphics device: %w", err)
	}
	vr.context = context

	for _, step := range vr.initSteps(window, image, light, vertices, indices, shaders) {
		if err := step.run(); err != nil {
			vr.Destroy()
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	vr.imagesInFlight = make([]*VulkanFence, vr.target.ImageCount())
	vr.slot = 0
	core.LogInfo("Vulkan renderer initialized with %d frame(s) in flight.", vr.sync.Len())
	return nil
}

type initStep struct {
	name string
	run  func() error
}

type teardownStep struct {
	name string
	run  func()
}

// initSteps lists what Initialize creates after the device, in order.
func (vr *VulkanRenderer) initSteps(window Window, image *metadata.Image, light metadata.LightParams, vertices []metadata.Vertex, indices []uint32, shaders ShaderCode) []initStep {
	return []initStep{
		{"render target", func() error { return vr.target.Initialize(vr.context, window) }},
		{"descriptor layout", func() error { return vr.descriptors.InitializeLayout(vr.context) }},
		{"pipeline", func() error {
			pipeline, err := newMeshPipeline(vr.context, shaders, &vr.target, vr.descriptors.Layout)
			vr.pipeline = pipeline
			return err
		}},
		{"command pool", func() error { return vr.recorder.InitializePool(vr.context) }},
		{"texture", func() error { return vr.texture.Initialize(vr.context, &vr.recorder, image) }},
		{"vertex input", func() error { return vr.geometry.Initialize(vr.context, &vr.recorder, vertices, indices) }},
		{"descriptor sets", func() error {
			return vr.descriptors.InitializeSets(vr.context, &vr.texture, vr.config.FramesInFlight, light)
		}},
		{"command buffers", func() error { return vr.recorder.InitializeBuffers(vr.context, vr.config.FramesInFlight) }},
		{"sync objects", func() error {
			sync, err := NewFrameSync(vr.context, vr.config.FramesInFlight)
			vr.sync = sync
			return err
		}},
	}
}

// teardownSteps mirrors initSteps in reverse. Every step tolerates objects
// that were never created.
func (vr *VulkanRenderer) teardownSteps() []teardownStep {
	return []teardownStep{
		{"sync objects", func() {
			if vr.sync != nil {
				vr.sync.Destroy(vr.context)
				vr.sync = nil
			}
			vr.imagesInFlight = nil
		}},
		{"command buffers", func() { vr.recorder.FreeBuffers(vr.context) }},
		{"descriptor sets", func() { vr.descriptors.DestroySets(vr.context) }},
		{"vertex input", func() { vr.geometry.Destroy(vr.context) }},
		{"texture", func() { vr.texture.Destroy(vr.context) }},
		{"command pool", func() { vr.recorder.DestroyPool(vr.context) }},
		{"pipeline", func() {
			if vr.pipeline != nil {
				vr.pipeline.Destroy(vr.context)
				vr.pipeline = nil
			}
		}},
		{"descriptor layout", func() { vr.descriptors.DestroyLayout(vr.context) }},
		{"render target", func() { vr.target.Destroy(vr.context) }},
	}
}

// Render draws and presents one frame using the first indexCount indices.
func (vr *VulkanRenderer) Render(window Window, indexCount uint32, input *core.InputState) error {
	if indexCount > vr.geometry.IndexCount() {
		return fmt.Errorf("index count %d exceeds the %d uploaded indices", indexCount, vr.geometry.IndexCount())
	}
	vr.window = window

	submitted, err := renderFrame(vr, window, vr.slot, indexCount, input)
	if submitted {
		vr.slot = (vr.slot + 1) % vr.config.FramesInFlight
		vr.FrameNumber++
	}
	return err
}

// Idle blocks until the device has finished all submitted work.
func (vr *VulkanRenderer) Idle() error {
	if vr.context == nil {
		return nil
	}
	return vr.context.WaitIdle()
}

// ReloadShaders swaps the graphics pipeline for one built from shaders.
// On failure the current pipeline stays in use.
func (vr *VulkanRenderer) ReloadShaders(shaders ShaderCode) error {
	if vr.context == nil {
		return core.ErrRendererNotInitialized
	}
	if err := vr.Idle(); err != nil {
		return err
	}
	pipeline, err := newMeshPipeline(vr.context, shaders, &vr.target, vr.descriptors.Layout)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	vr.pipeline.Destroy(vr.context)
	vr.pipeline = pipeline
	core.LogInfo("Shaders reloaded.")
	return nil
}

func (vr *VulkanRenderer) FramesInFlight() uint32 {
	return vr.config.FramesInFlight
}

func (vr *VulkanRenderer) Extent() vk.Extent2D {
	return vr.target.Extent()
}

// Destroy waits for the device and releases everything in reverse creation
// order. It is safe after a partial Initialize.
func (vr *VulkanRenderer) Destroy() {
	if vr.context == nil {
		return
	}
	if err := vr.context.WaitIdle(); err != nil {
		core.LogWarn("device wait idle failed during shutdown: %s", err)
	}

	for _, step := range vr.teardownSteps() {
		step.run()
	}

	core.LogDebug("Destroying Vulkan device...")
	vr.context.Destroy()
	vr.context = nil
}

func (vr *VulkanRenderer) waitForFence(slot uint32) error {
	return vr.sync.InFlight[slot].Wait(vr.context, vk.MaxUint64)
}

func (vr *VulkanRenderer) acquireImage(slot uint32) (uint32, vk.Result) {
	return vr.target.Swapchain().AcquireNextImage(vr.context, vk.MaxUint64, vr.sync.ImageAvailable[slot])
}

func (vr *VulkanRenderer) resetFence(slot uint32) error {
	return vr.sync.InFlight[slot].Reset(vr.context)
}

func (vr *VulkanRenderer) recordCommands(slot, imageIndex, indexCount uint32) error {
	return vr.recorder.Record(slot, DrawCall{
		RenderPass:    vr.target.RenderPass(),
		Framebuffer:   vr.target.Framebuffer(imageIndex),
		Extent:        vr.target.Extent(),
		Pipeline:      vr.pipeline,
		Geometry:      &vr.geometry,
		DescriptorSet: vr.descriptors.Set(slot),
		IndexCount:    indexCount,
	})
}

func (vr *VulkanRenderer) updateUniforms(slot uint32, input *core.InputState) {
	vr.descriptors.UpdateUniformBuffer(slot, vr.target.Extent(), input, time.Now())
}

func (vr *VulkanRenderer) submit(slot, imageIndex uint32) error {
	fence := vr.sync.InFlight[slot]

	// Make sure a previous frame is not still using this image.
	if previous := vr.imagesInFlight[imageIndex]; previous != nil && previous != fence {
		if err := previous.Wait(vr.context, vk.MaxUint64); err != nil {
			return err
		}
	}
	vr.imagesInFlight[imageIndex] = fence

	commandBuffer := vr.recorder.Buffer(slot)
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{vr.sync.ImageAvailable[slot]},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{vr.sync.RenderFinished[slot]},
	}
	if err := checkResult("vkQueueSubmit", vk.QueueSubmit(vr.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, fence.Handle)); err != nil {
		return err
	}
	commandBuffer.UpdateSubmitted()
	return nil
}

func (vr *VulkanRenderer) present(slot, imageIndex uint32) vk.Result {
	return vr.target.Swapchain().Present(vr.context, vr.sync.RenderFinished[slot], imageIndex)
}

func (vr *VulkanRenderer) rebuildSwapchain() error {
	if err := vr.target.Update(vr.context, vr.window); err != nil {
		return err
	}
	vr.imagesInFlight = make([]*VulkanFence, vr.target.ImageCount())
	return nil
}
