package vulkan

import (
	"fmt"
	"time"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
	"github.com/spaghettifunk/meshview/engine/renderer/metadata"
)

/**
 * @brief The descriptor layout, pool and sets of the mesh shaders, plus the
 * persistently mapped uniform buffer of every frame slot.
 */
type DescriptorSet struct {
	Layout vk.DescriptorSetLayout
	pool   vk.DescriptorPool
	sets   []vk.DescriptorSet

	uniformBuffers []*VulkanBuffer
	layout         uniformLayout
	light          metadata.LightParams
	blend          *blendTracker
}

// layoutBindings declares camera (vertex), texture, blend and light (fragment).
func layoutBindings() []vk.DescriptorSetLayoutBinding {
	return []vk.DescriptorSetLayoutBinding{
		{
			Binding:         BINDING_CAMERA,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		},
		{
			Binding:         BINDING_TEXTURE,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
		{
			Binding:         BINDING_BLEND,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
		{
			Binding:         BINDING_LIGHT,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
}

// poolSizes sizes the pool for framesInFlight sets of three uniform buffers
// and one combined image sampler.
func poolSizes(framesInFlight uint32) []vk.DescriptorPoolSize {
	return []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: 3 * framesInFlight},
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: framesInFlight},
	}
}

func (ds *DescriptorSet) InitializeLayout(context *VulkanContext) error {
	bindings := layoutBindings()
	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if err := checkResult("vkCreateDescriptorSetLayout", vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &createInfo, context.Allocator, &layout)); err != nil {
		return err
	}
	ds.Layout = layout
	return nil
}

// InitializeSets creates the uniform buffers, the pool and one set per frame
// slot pointing at that slot's buffer and the texture.
func (ds *DescriptorSet) InitializeSets(context *VulkanContext, texture *TextureSampler, framesInFlight uint32, light metadata.LightParams) error {
	if framesInFlight == 0 {
		return fmt.Errorf("frames in flight must be positive")
	}
	ds.light = light
	ds.layout = newUniformLayout(uint64(context.Device.Properties.Limits.MinUniformBufferOffsetAlignment))
	ds.blend = newBlendTracker(framesInFlight)

	ds.uniformBuffers = make([]*VulkanBuffer, 0, framesInFlight)
	for i := uint32(0); i < framesInFlight; i++ {
		buffer, err := NewBuffer(
			context,
			ds.layout.Size,
			vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
		if err != nil {
			return err
		}
		ds.uniformBuffers = append(ds.uniformBuffers, buffer)
		if _, err := buffer.Map(context); err != nil {
			return err
		}
	}

	sizes := poolSizes(framesInFlight)
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
		MaxSets:       framesInFlight,
	}
	var pool vk.DescriptorPool
	if err := checkResult("vkCreateDescriptorPool", vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &pool)); err != nil {
		return err
	}
	ds.pool = pool

	layouts := make([]vk.DescriptorSetLayout, framesInFlight)
	for i := range layouts {
		layouts[i] = ds.Layout
	}
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     ds.pool,
		DescriptorSetCount: framesInFlight,
		PSetLayouts:        layouts,
	}
	ds.sets = make([]vk.DescriptorSet, framesInFlight)
	if err := checkResult("vkAllocateDescriptorSets", vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocInfo, &ds.sets[0])); err != nil {
		return err
	}

	for i, set := range ds.sets {
		writes := ds.descriptorWrites(set, ds.uniformBuffers[i], texture)
		vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
	}
	core.LogDebug("Created %d descriptor sets, uniform buffer of %d bytes each.", framesInFlight, ds.layout.Size)
	return nil
}

func (ds *DescriptorSet) descriptorWrites(set vk.DescriptorSet, buffer *VulkanBuffer, texture *TextureSampler) []vk.WriteDescriptorSet {
	bufferWrite := func(binding uint32, offset, size uint64) vk.WriteDescriptorSet {
		return vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      binding,
			DstArrayElement: 0,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo: []vk.DescriptorBufferInfo{{
				Buffer: buffer.Handle,
				Offset: vk.DeviceSize(offset),
				Range:  vk.DeviceSize(size),
			}},
		}
	}
	return []vk.WriteDescriptorSet{
		bufferWrite(BINDING_CAMERA, ds.layout.CameraOffset, cameraUniformSize),
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      BINDING_TEXTURE,
			DstArrayElement: 0,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo: []vk.DescriptorImageInfo{{
				ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
				ImageView:   texture.Image.View,
				Sampler:     texture.Sampler,
			}},
		},
		bufferWrite(BINDING_BLEND, ds.layout.BlendOffset, blendUniformSize),
		bufferWrite(BINDING_LIGHT, ds.layout.LightOffset, lightUniformSize),
	}
}

func (ds *DescriptorSet) Set(slot uint32) vk.DescriptorSet {
	return ds.sets[slot]
}

// UpdateUniformBuffer writes the camera, the pending texture blend and the
// light into the slot's mapped buffer.
func (ds *DescriptorSet) UpdateUniformBuffer(slot uint32, extent vk.Extent2D, input *core.InputState, now time.Time) {
	writeUniforms(ds.uniformBuffers[slot].Bytes(), ds.layout, ds.blend, slot, extent, ds.light, input, now)
}

// writeUniforms does three partial writes into mapped. The blend record is
// left untouched when no cross-fade is pending for the slot.
func writeUniforms(mapped []byte, layout uniformLayout, blend *blendTracker, slot uint32, extent vk.Extent2D, light metadata.LightParams, input *core.InputState, now time.Time) {
	camera := cameraMatrices(input, extent)
	copy(mapped[layout.CameraOffset:], structBytes(&camera))

	if record, ok := blend.next(slot, input, now); ok {
		copy(mapped[layout.BlendOffset:], structBytes(&record))
	}

	lightData := lightRecord(light, input)
	copy(mapped[layout.LightOffset:], structBytes(&lightData))
}

// DestroySets releases the uniform buffers and the pool the sets came from.
func (ds *DescriptorSet) DestroySets(context *VulkanContext) {
	for _, buffer := range ds.uniformBuffers {
		buffer.Destroy(context)
	}
	ds.uniformBuffers = nil

	// Sets are freed with their pool.
	ds.sets = nil
	if ds.pool != nil {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, ds.pool, context.Allocator)
		ds.pool = nil
	}
}

func (ds *DescriptorSet) DestroyLayout(context *VulkanContext) {
	if ds.Layout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, ds.Layout, context.Allocator)
		ds.Layout = vk.NullDescriptorSetLayout
	}
}
