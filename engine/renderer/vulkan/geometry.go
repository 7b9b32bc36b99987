package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
	"github.com/spaghettifunk/meshview/engine/renderer/metadata"
)

/**
 * @brief The mesh on the GPU: device local vertex and index buffers filled
 * once through staging uploads.
 */
type VertexInput struct {
	VertexBuffer *VulkanBuffer
	IndexBuffer  *VulkanBuffer
	VertexCount  uint32
	indexCount   uint32
}

const vertexStride = uint32(unsafe.Sizeof(metadata.Vertex{}))

// vertexBindingDescription describes the single interleaved vertex binding.
func vertexBindingDescription() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    vertexStride,
		InputRate: vk.VertexInputRateVertex,
	}
}

// vertexAttributeDescriptions maps the Vertex fields to shader locations 0-4:
// position, colour, texture coordinate, normal, shininess.
func vertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	var v metadata.Vertex
	return []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(v.Position))},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(v.Color))},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(unsafe.Offsetof(v.TexCoord))},
		{Location: 3, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(v.Normal))},
		{Location: 4, Binding: 0, Format: vk.FormatR32Sfloat, Offset: uint32(unsafe.Offsetof(v.Shininess))},
	}
}

func vertexBytes(vertices []metadata.Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), len(vertices)*int(vertexStride))
}

func indexBytes(indices []uint32) []byte {
	if len(indices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&indices[0])), len(indices)*4)
}

func (vi *VertexInput) Initialize(context *VulkanContext, recorder *CommandRecorder, vertices []metadata.Vertex, indices []uint32) error {
	if len(vertices) == 0 || len(indices) == 0 {
		return fmt.Errorf("%w: %d vertices, %d indices", core.ErrInvalidModel, len(vertices), len(indices))
	}

	vertexBuffer, err := uploadDeviceLocal(context, recorder, vertexBytes(vertices), vk.BufferUsageVertexBufferBit)
	if err != nil {
		return fmt.Errorf("vertex upload: %w", err)
	}
	vi.VertexBuffer = vertexBuffer
	vi.VertexCount = uint32(len(vertices))

	indexBuffer, err := uploadDeviceLocal(context, recorder, indexBytes(indices), vk.BufferUsageIndexBufferBit)
	if err != nil {
		vi.Destroy(context)
		return fmt.Errorf("index upload: %w", err)
	}
	vi.IndexBuffer = indexBuffer
	vi.indexCount = uint32(len(indices))

	core.LogInfo("Uploaded mesh: %d vertices, %d indices.", vi.VertexCount, vi.indexCount)
	return nil
}

func (vi *VertexInput) IndexCount() uint32 {
	return vi.indexCount
}

// Bind binds the vertex buffer at binding 0 and the 32-bit index buffer.
func (vi *VertexInput) Bind(commandBuffer *VulkanCommandBuffer) {
	vk.CmdBindVertexBuffers(commandBuffer.Handle, 0, 1, []vk.Buffer{vi.VertexBuffer.Handle}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(commandBuffer.Handle, vi.IndexBuffer.Handle, 0, vk.IndexTypeUint32)
}

func (vi *VertexInput) Destroy(context *VulkanContext) {
	vi.IndexBuffer.Destroy(context)
	vi.IndexBuffer = nil
	vi.VertexBuffer.Destroy(context)
	vi.VertexBuffer = nil
	vi.indexCount = 0
	vi.VertexCount = 0
}
