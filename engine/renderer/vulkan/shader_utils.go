package vulkan

import (
	"encoding/binary"
	"fmt"

	vk "github.com/goki/vulkan"
)

/** @brief SPIR-V bytecode of the vertex and fragment stages. */
type ShaderCode struct {
	Vertex   []byte
	Fragment []byte
}

/**
 * @brief Represents a single shader stage.
 */
type VulkanShaderStage struct {
	/** @brief The internal shader module Handle. */
	Handle vk.ShaderModule
	/** @brief The pipeline shader stage creation info. */
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

// bytesToCode reinterprets SPIR-V bytes as little endian words.
func bytesToCode(code []byte) ([]uint32, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, fmt.Errorf("shader bytecode of %d bytes is not a whole number of words", len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return words, nil
}

// shaderModuleCreateInfo describes a module over code. CodeSize is in bytes.
func shaderModuleCreateInfo(code []byte) (vk.ShaderModuleCreateInfo, error) {
	words, err := bytesToCode(code)
	if err != nil {
		return vk.ShaderModuleCreateInfo{}, err
	}
	return vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    words,
	}, nil
}

func NewShaderStage(context *VulkanContext, code []byte, stage vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	createInfo, err := shaderModuleCreateInfo(code)
	if err != nil {
		return nil, err
	}

	var module vk.ShaderModule
	if err := checkResult("vkCreateShaderModule", vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &module)); err != nil {
		return nil, err
	}

	return &VulkanShaderStage{
		Handle: module,
		ShaderStageCreateInfo: vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  stage,
			Module: module,
			PName:  VulkanSafeString("main"),
		},
	}, nil
}

func (s *VulkanShaderStage) Destroy(context *VulkanContext) {
	if s.Handle != vk.NullShaderModule {
		vk.DestroyShaderModule(context.Device.LogicalDevice, s.Handle, context.Allocator)
		s.Handle = vk.NullShaderModule
	}
}

// newMeshPipeline compiles the two stages into a pipeline for the render
// target. The shader modules are released before returning.
func newMeshPipeline(context *VulkanContext, shaders ShaderCode, target *RenderTarget, layout vk.DescriptorSetLayout) (*VulkanPipeline, error) {
	vertex, err := NewShaderStage(context, shaders.Vertex, vk.ShaderStageVertexBit)
	if err != nil {
		return nil, fmt.Errorf("vertex shader: %w", err)
	}
	defer vertex.Destroy(context)

	fragment, err := NewShaderStage(context, shaders.Fragment, vk.ShaderStageFragmentBit)
	if err != nil {
		return nil, fmt.Errorf("fragment shader: %w", err)
	}
	defer fragment.Destroy(context)

	return NewGraphicsPipeline(context, &VulkanPipelineConfig{
		Renderpass:           target.RenderPass(),
		Binding:              vertexBindingDescription(),
		Attributes:           vertexAttributeDescriptions(),
		DescriptorSetLayouts: []vk.DescriptorSetLayout{layout},
		Stages:               []vk.PipelineShaderStageCreateInfo{vertex.ShaderStageCreateInfo, fragment.ShaderStageCreateInfo},
		Samples:              target.Samples(),
	})
}
