package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
)

/** @brief Device level settings taken from the render configuration. */
type DeviceConfig struct {
	ApplicationName string
	// Validation enables the Khronos validation layer and the debug-report callback.
	Validation bool
	// MaxSamples caps the MSAA sample count; 0 means no cap.
	MaxSamples int
}

/**
 * @brief The graphics device: instance, surface, debug callback and the
 * selected physical/logical device. Everything else in the renderer is
 * created from it and must be destroyed before it.
 */
type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugMessenger vk.DebugReportCallback

	Device *VulkanDevice
}

func NewVulkanContext(window Window, config DeviceConfig) (*VulkanContext, error) {
	procAddr := window.GetInstanceProcAddress()
	if procAddr == nil {
		err := fmt.Errorf("GetInstanceProcAddress is nil")
		core.LogError("%s", err)
		return nil, err
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize vk: %s", err)
		return nil, err
	}

	// TODO: custom allocator.
	context := &VulkanContext{Allocator: nil}

	instance, err := createInstance(context.Allocator, config.ApplicationName, window.RequiredInstanceExtensions(), config.Validation)
	if err != nil {
		return nil, err
	}
	context.Instance = instance
	core.LogInfo("Vulkan Instance created.")

	if config.Validation {
		core.LogDebug("Creating Vulkan debugger...")
		dbg, err := createDebugCallback(context.Instance, context.Allocator)
		if err != nil {
			context.Destroy()
			return nil, err
		}
		context.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := window.CreateSurface(context.Instance)
	if err != nil {
		core.LogError("Vulkan surface creation failed: %s", err)
		context.Destroy()
		return nil, err
	}
	context.Surface = surface
	core.LogDebug("Vulkan surface created.")

	device, err := NewVulkanDevice(context.Instance, context.Surface, context.Allocator, config.MaxSamples)
	if err != nil {
		context.Destroy()
		return nil, err
	}
	context.Device = device
	return context, nil
}

// FindMemoryIndex returns the memory type matching typeFilter with all the given properties.
func (vc *VulkanContext) FindMemoryIndex(typeFilter uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	return findMemoryIndex(vc.Device.memoryTypes, typeFilter, properties)
}

// WaitIdle blocks until every queue of the logical device is idle.
func (vc *VulkanContext) WaitIdle() error {
	if vc.Device == nil || vc.Device.LogicalDevice == nil {
		return nil
	}
	return checkResult("vkDeviceWaitIdle", vk.DeviceWaitIdle(vc.Device.LogicalDevice))
}

func (vc *VulkanContext) Destroy() {
	if vc.Device != nil {
		vc.Device.Destroy(vc.Allocator)
		vc.Device = nil
	}

	if vc.Surface != vk.NullSurface {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(vc.Instance, vc.Surface, vc.Allocator)
		vc.Surface = vk.NullSurface
	}

	if vc.debugMessenger != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vc.Instance, vc.debugMessenger, vc.Allocator)
		vc.debugMessenger = vk.NullDebugReportCallback
	}

	if vc.Instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(vc.Instance, vc.Allocator)
		vc.Instance = nil
	}
}
