package vulkan

import "time"

/** @brief Upper bound of frames the CPU may record ahead of the GPU. */
const VULKAN_MAX_FRAMES_IN_FLIGHT uint32 = 3

/** @brief Descriptor bindings used by the mesh shaders. */
const (
	BINDING_CAMERA  uint32 = 0
	BINDING_TEXTURE uint32 = 1
	BINDING_BLEND   uint32 = 2
	BINDING_LIGHT   uint32 = 3

	VULKAN_SHADER_MAX_BINDINGS = 4
)

/** @brief Duration of the cross-fade between vertex colour and texture. */
const TEXTURE_BLEND_DURATION = 300 * time.Millisecond

/** @brief Requested validation layer when validation is enabled. */
const VALIDATION_LAYER_NAME = "VK_LAYER_KHRONOS_validation"
