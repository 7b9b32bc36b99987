package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
)

// memoryTypeFlags flattens the device memory types into their property flags,
// indexed like the memory type bits of a requirements query.
func memoryTypeFlags(props vk.PhysicalDeviceMemoryProperties) []vk.MemoryPropertyFlags {
	props.Deref()
	out := make([]vk.MemoryPropertyFlags, props.MemoryTypeCount)
	for i := uint32(0); i < props.MemoryTypeCount; i++ {
		props.MemoryTypes[i].Deref()
		out[i] = props.MemoryTypes[i].PropertyFlags
	}
	return out
}

// findMemoryIndex returns the first memory type allowed by typeFilter that has
// every flag in required. There is no fallback to a weaker match.
func findMemoryIndex(types []vk.MemoryPropertyFlags, typeFilter uint32, required vk.MemoryPropertyFlags) (uint32, error) {
	for i, flags := range types {
		if i >= 32 {
			break
		}
		if typeFilter&(1<<uint(i)) != 0 && flags&required == required {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("%w: filter 0x%x, properties 0x%x", core.ErrNoMemoryType, typeFilter, uint32(required))
}

// allocateMemory allocates device memory satisfying reqs with the given properties.
func allocateMemory(context *VulkanContext, reqs vk.MemoryRequirements, properties vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	reqs.Deref()
	index, err := context.FindMemoryIndex(reqs.MemoryTypeBits, properties)
	if err != nil {
		core.LogError("%s", err)
		return vk.NullDeviceMemory, err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: index,
	}
	var memory vk.DeviceMemory
	if err := checkResult("vkAllocateMemory", vk.AllocateMemory(context.Device.LogicalDevice, &allocInfo, context.Allocator, &memory)); err != nil {
		return vk.NullDeviceMemory, err
	}
	return memory, nil
}
