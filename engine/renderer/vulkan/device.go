package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
)

const portabilitySubsetExtensionName = "VK_KHR_portability_subset"

type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	GraphicsQueueIndex uint32
	PresentQueueIndex  uint32

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures

	// property flags of every memory type, by memory type index
	memoryTypes []vk.MemoryPropertyFlags

	DepthFormat vk.Format
	MsaaSamples vk.SampleCountFlagBits
}

type queueFamilyInfo struct {
	Graphics bool
	Present  bool
}

/**
 * @brief What device selection needs to know about one physical device,
 * detached from the driver so it can be evaluated without a GPU.
 */
type physicalDeviceInfo struct {
	Name               string
	QueueFamilies      []queueFamilyInfo
	Extensions         []string
	SurfaceFormatCount int
	PresentModeCount   int
	SamplerAnisotropy  bool
}

type deviceRequirements struct {
	DeviceExtensionNames []string
	SamplerAnisotropy    bool
}

type queueSelection struct {
	Graphics uint32
	Present  uint32
}

func defaultDeviceRequirements() deviceRequirements {
	return deviceRequirements{
		DeviceExtensionNames: []string{vk.KhrSwapchainExtensionName},
		SamplerAnisotropy:    true,
	}
}

// evaluate reports whether info has a graphics family, a present family, every
// required extension, surface formats and present modes, and anisotropy.
// A family that does both graphics and present is preferred.
func (r deviceRequirements) evaluate(info physicalDeviceInfo) (queueSelection, bool) {
	graphics, present := -1, -1
	for i, family := range info.QueueFamilies {
		if family.Graphics && family.Present {
			graphics, present = i, i
			break
		}
		if family.Graphics && graphics < 0 {
			graphics = i
		}
		if family.Present && present < 0 {
			present = i
		}
	}
	if graphics < 0 {
		core.LogInfo("Device '%s' has no graphics queue, skipping.", info.Name)
		return queueSelection{}, false
	}
	if present < 0 {
		core.LogInfo("Device '%s' cannot present to the surface, skipping.", info.Name)
		return queueSelection{}, false
	}
	for _, required := range r.DeviceExtensionNames {
		if !containsName(info.Extensions, required) {
			core.LogInfo("Required extension not found: '%s', skipping device '%s'.", required, info.Name)
			return queueSelection{}, false
		}
	}
	if info.SurfaceFormatCount < 1 || info.PresentModeCount < 1 {
		core.LogInfo("Required swapchain support not present, skipping device '%s'.", info.Name)
		return queueSelection{}, false
	}
	if r.SamplerAnisotropy && !info.SamplerAnisotropy {
		core.LogInfo("Device '%s' does not support samplerAnisotropy, skipping.", info.Name)
		return queueSelection{}, false
	}
	return queueSelection{Graphics: uint32(graphics), Present: uint32(present)}, true
}

// selectPhysicalDevice returns the index of the first device meeting every
// requirement, or core.ErrNoSuitableDevice.
func selectPhysicalDevice(devices []physicalDeviceInfo, requirements deviceRequirements) (int, queueSelection, error) {
	for i, info := range devices {
		if queues, ok := requirements.evaluate(info); ok {
			return i, queues, nil
		}
	}
	return -1, queueSelection{}, fmt.Errorf("%w: %d candidate(s) enumerated", core.ErrNoSuitableDevice, len(devices))
}

// maxUsableSampleCount returns the highest sample count supported by both
// colour and depth framebuffers, not above limit when limit is positive.
func maxUsableSampleCount(color, depth vk.SampleCountFlags, limit int) vk.SampleCountFlagBits {
	counts := color & depth
	candidates := []vk.SampleCountFlagBits{
		vk.SampleCount64Bit,
		vk.SampleCount32Bit,
		vk.SampleCount16Bit,
		vk.SampleCount8Bit,
		vk.SampleCount4Bit,
		vk.SampleCount2Bit,
	}
	for _, c := range candidates {
		if limit > 0 && int(c) > limit {
			continue
		}
		if counts&vk.SampleCountFlags(c) != 0 {
			return c
		}
	}
	return vk.SampleCount1Bit
}

// detectDepthFormat returns the first depth format usable as an optimally
// tiled depth-stencil attachment.
func detectDepthFormat(formatProperties func(vk.Format) vk.FormatProperties) (vk.Format, error) {
	candidates := []vk.Format{
		vk.FormatD32Sfloat,
		vk.FormatD32SfloatS8Uint,
		vk.FormatD24UnormS8Uint,
	}
	flags := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	for _, candidate := range candidates {
		properties := formatProperties(candidate)
		if properties.OptimalTilingFeatures&flags == flags {
			return candidate, nil
		}
	}
	return vk.FormatUndefined, fmt.Errorf("%w: no depth attachment format", core.ErrUnsupportedFormat)
}

func NewVulkanDevice(instance vk.Instance, surface vk.Surface, allocator *vk.AllocationCallbacks, maxSamples int) (*VulkanDevice, error) {
	var count uint32
	if err := checkResult("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(instance, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		err := fmt.Errorf("%w: no devices which support Vulkan were found", core.ErrNoSuitableDevice)
		core.LogError("%s", err)
		return nil, err
	}
	physicalDevices := make([]vk.PhysicalDevice, count)
	if err := checkResult("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(instance, &count, physicalDevices)); err != nil {
		return nil, err
	}

	infos := make([]physicalDeviceInfo, len(physicalDevices))
	for i, pd := range physicalDevices {
		info, err := queryPhysicalDevice(pd, surface)
		if err != nil {
			return nil, err
		}
		infos[i] = info
	}

	index, queues, err := selectPhysicalDevice(infos, defaultDeviceRequirements())
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	device := &VulkanDevice{
		PhysicalDevice:     physicalDevices[index],
		GraphicsQueueIndex: queues.Graphics,
		PresentQueueIndex:  queues.Present,
	}
	vk.GetPhysicalDeviceProperties(device.PhysicalDevice, &device.Properties)
	device.Properties.Deref()
	device.Properties.Limits.Deref()
	vk.GetPhysicalDeviceFeatures(device.PhysicalDevice, &device.Features)
	device.Features.Deref()

	var memory vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(device.PhysicalDevice, &memory)
	device.memoryTypes = memoryTypeFlags(memory)

	logDeviceInfo(device.Properties, memory)

	device.DepthFormat, err = detectDepthFormat(device.FormatProperties)
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	device.MsaaSamples = maxUsableSampleCount(
		device.Properties.Limits.FramebufferColorSampleCounts,
		device.Properties.Limits.FramebufferDepthSampleCounts,
		maxSamples)
	core.LogInfo("MSAA samples: %d", device.MsaaSamples)

	if err := device.createLogicalDevice(allocator, containsName(infos[index].Extensions, portabilitySubsetExtensionName)); err != nil {
		return nil, err
	}
	return device, nil
}

func queryPhysicalDevice(pd vk.PhysicalDevice, surface vk.Surface) (physicalDeviceInfo, error) {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &properties)
	properties.Deref()

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(pd, &features)
	features.Deref()

	info := physicalDeviceInfo{
		Name:              vk.ToString(properties.DeviceName[:]),
		SamplerAnisotropy: features.SamplerAnisotropy == vk.True,
	}

	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, families)
	for i := range families {
		families[i].Deref()
		var supportsPresent vk.Bool32
		if err := checkResult("vkGetPhysicalDeviceSurfaceSupport", vk.GetPhysicalDeviceSurfaceSupport(pd, uint32(i), surface, &supportsPresent)); err != nil {
			return info, err
		}
		info.QueueFamilies = append(info.QueueFamilies, queueFamilyInfo{
			Graphics: families[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
			Present:  supportsPresent.B(),
		})
	}

	var extensionCount uint32
	if err := checkResult("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(pd, "", &extensionCount, nil)); err != nil {
		return info, err
	}
	extensions := make([]vk.ExtensionProperties, extensionCount)
	if err := checkResult("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(pd, "", &extensionCount, extensions)); err != nil {
		return info, err
	}
	for i := range extensions {
		extensions[i].Deref()
		info.Extensions = append(info.Extensions, vk.ToString(extensions[i].ExtensionName[:]))
	}

	support, err := querySwapchainSupport(pd, surface)
	if err != nil {
		return info, err
	}
	info.SurfaceFormatCount = len(support.Formats)
	info.PresentModeCount = len(support.PresentModes)
	return info, nil
}

func logDeviceInfo(properties vk.PhysicalDeviceProperties, memory vk.PhysicalDeviceMemoryProperties) {
	core.LogInfo("Selected device: '%s'.", vk.ToString(properties.DeviceName[:]))
	switch properties.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	default:
		core.LogInfo("GPU type is Unknown.")
	}
	core.LogInfo(
		"Vulkan API version: %d.%d.%d",
		vk.Version(properties.ApiVersion).Major(),
		vk.Version(properties.ApiVersion).Minor(),
		vk.Version(properties.ApiVersion).Patch(),
	)

	memory.Deref()
	for j := uint32(0); j < memory.MemoryHeapCount; j++ {
		memory.MemoryHeaps[j].Deref()
		sizeMiB := uint64(memory.MemoryHeaps[j].Size) / 1024 / 1024
		if memory.MemoryHeaps[j].Flags&vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit) != 0 {
			core.LogInfo("Local GPU memory: %d MiB", sizeMiB)
		} else {
			core.LogInfo("Shared System memory: %d MiB", sizeMiB)
		}
	}
}

func (d *VulkanDevice) createLogicalDevice(allocator *vk.AllocationCallbacks, portability bool) error {
	core.LogInfo("Creating logical device...")

	// NOTE: Do not create additional queues for shared indices.
	indices := []uint32{d.GraphicsQueueIndex}
	if d.PresentQueueIndex != d.GraphicsQueueIndex {
		indices = append(indices, d.PresentQueueIndex)
	}
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i, index := range indices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: index,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	deviceFeatures := vk.PhysicalDeviceFeatures{
		SamplerAnisotropy: vk.True,
	}

	extensionNames := []string{vk.KhrSwapchainExtensionName}
	if portability {
		core.LogInfo("Adding required extension '%s'.", portabilitySubsetExtensionName)
		extensionNames = append(extensionNames, portabilitySubsetExtensionName)
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{deviceFeatures},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}
	var logical vk.Device
	if err := checkResult("vkCreateDevice", vk.CreateDevice(d.PhysicalDevice, &deviceCreateInfo, allocator, &logical)); err != nil {
		return err
	}
	d.LogicalDevice = logical
	core.LogInfo("Logical device created.")

	var graphics, present vk.Queue
	vk.GetDeviceQueue(d.LogicalDevice, d.GraphicsQueueIndex, 0, &graphics)
	vk.GetDeviceQueue(d.LogicalDevice, d.PresentQueueIndex, 0, &present)
	d.GraphicsQueue = graphics
	d.PresentQueue = present
	core.LogInfo("Queues obtained.")
	return nil
}

// FormatProperties queries the device features of format.
func (d *VulkanDevice) FormatProperties(format vk.Format) vk.FormatProperties {
	var properties vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(d.PhysicalDevice, format, &properties)
	properties.Deref()
	return properties
}

// QuerySwapchainSupport returns the current surface capabilities, formats and present modes.
func (d *VulkanDevice) QuerySwapchainSupport(surface vk.Surface) (VulkanSwapchainSupportInfo, error) {
	return querySwapchainSupport(d.PhysicalDevice, surface)
}

func (d *VulkanDevice) Destroy(allocator *vk.AllocationCallbacks) {
	d.GraphicsQueue = nil
	d.PresentQueue = nil

	if d.LogicalDevice != nil {
		core.LogInfo("Destroying logical device...")
		vk.DestroyDevice(d.LogicalDevice, allocator)
		d.LogicalDevice = nil
	}
	// Physical devices are not destroyed.
	d.PhysicalDevice = nil
}

func querySwapchainSupport(pd vk.PhysicalDevice, surface vk.Surface) (VulkanSwapchainSupportInfo, error) {
	var support VulkanSwapchainSupportInfo
	if err := checkResult("vkGetPhysicalDeviceSurfaceCapabilities", vk.GetPhysicalDeviceSurfaceCapabilities(pd, surface, &support.Capabilities)); err != nil {
		return support, err
	}
	support.Capabilities.Deref()
	support.Capabilities.CurrentExtent.Deref()
	support.Capabilities.MinImageExtent.Deref()
	support.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if err := checkResult("vkGetPhysicalDeviceSurfaceFormats", vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &formatCount, nil)); err != nil {
		return support, err
	}
	if formatCount != 0 {
		support.Formats = make([]vk.SurfaceFormat, formatCount)
		if err := checkResult("vkGetPhysicalDeviceSurfaceFormats", vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &formatCount, support.Formats)); err != nil {
			return support, err
		}
		for i := range support.Formats {
			support.Formats[i].Deref()
		}
	}

	var presentModeCount uint32
	if err := checkResult("vkGetPhysicalDeviceSurfacePresentModes", vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &presentModeCount, nil)); err != nil {
		return support, err
	}
	if presentModeCount != 0 {
		support.PresentModes = make([]vk.PresentMode, presentModeCount)
		if err := checkResult("vkGetPhysicalDeviceSurfacePresentModes", vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &presentModeCount, support.PresentModes)); err != nil {
			return support, err
		}
	}
	return support, nil
}
