package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
)

/**
 * @brief A buffer together with the memory bound to it. Destroy releases
 * the buffer before its memory, once.
 */
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   uint64
	Usage  vk.BufferUsageFlags

	mapped unsafe.Pointer
}

func NewBuffer(context *VulkanContext, size uint64, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("cannot create an empty buffer")
	}
	buffer := &VulkanBuffer{
		Size:  size,
		Usage: usage,
	}

	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	if err := checkResult("vkCreateBuffer", vk.CreateBuffer(context.Device.LogicalDevice, &createInfo, context.Allocator, &buffer.Handle)); err != nil {
		return nil, err
	}

	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &reqs)
	memory, err := allocateMemory(context, reqs, properties)
	if err != nil {
		buffer.Destroy(context)
		return nil, err
	}
	buffer.Memory = memory

	if err := checkResult("vkBindBufferMemory", vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0)); err != nil {
		buffer.Destroy(context)
		return nil, err
	}
	return buffer, nil
}

// Map maps the whole buffer and keeps it mapped until Unmap or Destroy.
func (b *VulkanBuffer) Map(context *VulkanContext) ([]byte, error) {
	if b.mapped == nil {
		var ptr unsafe.Pointer
		if err := checkResult("vkMapMemory", vk.MapMemory(context.Device.LogicalDevice, b.Memory, 0, vk.DeviceSize(b.Size), 0, &ptr)); err != nil {
			return nil, err
		}
		b.mapped = ptr
	}
	return b.Bytes(), nil
}

// Bytes returns the mapped memory, nil when the buffer is not mapped.
func (b *VulkanBuffer) Bytes() []byte {
	if b.mapped == nil {
		return nil
	}
	return unsafe.Slice((*byte)(b.mapped), b.Size)
}

func (b *VulkanBuffer) Unmap(context *VulkanContext) {
	if b.mapped != nil {
		vk.UnmapMemory(context.Device.LogicalDevice, b.Memory)
		b.mapped = nil
	}
}

// LoadData copies data to the start of a host visible buffer.
func (b *VulkanBuffer) LoadData(context *VulkanContext, data []byte) error {
	if uint64(len(data)) > b.Size {
		return fmt.Errorf("data of %d bytes does not fit a buffer of %d bytes", len(data), b.Size)
	}
	wasMapped := b.mapped != nil
	dst, err := b.Map(context)
	if err != nil {
		return err
	}
	copy(dst, data)
	if !wasMapped {
		b.Unmap(context)
	}
	return nil
}

func (b *VulkanBuffer) CopyTo(cmd vk.CommandBuffer, dst *VulkanBuffer, size uint64) {
	region := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(size),
	}
	vk.CmdCopyBuffer(cmd, b.Handle, dst.Handle, 1, []vk.BufferCopy{region})
}

func (b *VulkanBuffer) Destroy(context *VulkanContext) {
	if b == nil {
		return
	}
	b.Unmap(context)
	if b.Handle != vk.NullBuffer {
		vk.DestroyBuffer(context.Device.LogicalDevice, b.Handle, context.Allocator)
		b.Handle = vk.NullBuffer
	}
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, b.Memory, context.Allocator)
		b.Memory = vk.NullDeviceMemory
	}
}

// newStagingBuffer creates a host visible transfer source holding data.
func newStagingBuffer(context *VulkanContext, data []byte) (*VulkanBuffer, error) {
	staging, err := NewBuffer(
		context,
		uint64(len(data)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	if err := staging.LoadData(context, data); err != nil {
		staging.Destroy(context)
		return nil, err
	}
	return staging, nil
}

// uploadDeviceLocal copies data into a new device local buffer through a
// staging buffer. The staging buffer is gone when this returns.
func uploadDeviceLocal(context *VulkanContext, recorder *CommandRecorder, data []byte, usage vk.BufferUsageFlagBits) (*VulkanBuffer, error) {
	staging, err := newStagingBuffer(context, data)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	target, err := NewBuffer(
		context,
		uint64(len(data)),
		vk.BufferUsageFlags(usage|vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}

	err = recorder.SingleUse(context, context.Device.GraphicsQueue, func(cmd vk.CommandBuffer) {
		staging.CopyTo(cmd, target, uint64(len(data)))
	})
	if err != nil {
		target.Destroy(context)
		return nil, err
	}
	core.LogDebug("uploaded %d bytes to a device local buffer", len(data))
	return target, nil
}
