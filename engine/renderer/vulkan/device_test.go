package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capableDevice(name string) physicalDeviceInfo {
	return physicalDeviceInfo{
		Name:               name,
		QueueFamilies:      []queueFamilyInfo{{Graphics: true, Present: true}},
		Extensions:         []string{vk.KhrSwapchainExtensionName},
		SurfaceFormatCount: 1,
		PresentModeCount:   1,
		SamplerAnisotropy:  true,
	}
}

func TestEvaluatePrefersCombinedFamily(t *testing.T) {
	info := capableDevice("split")
	info.QueueFamilies = []queueFamilyInfo{
		{Graphics: true},
		{Present: true},
		{Graphics: true, Present: true},
	}

	queues, ok := defaultDeviceRequirements().evaluate(info)
	require.True(t, ok)
	assert.Equal(t, queueSelection{Graphics: 2, Present: 2}, queues)
}

func TestEvaluateSeparateFamilies(t *testing.T) {
	info := capableDevice("split")
	info.QueueFamilies = []queueFamilyInfo{{Present: true}, {Graphics: true}}

	queues, ok := defaultDeviceRequirements().evaluate(info)
	require.True(t, ok)
	assert.Equal(t, queueSelection{Graphics: 1, Present: 0}, queues)
}

func TestEvaluateRejections(t *testing.T) {
	tests := map[string]func(*physicalDeviceInfo){
		"no graphics":      func(i *physicalDeviceInfo) { i.QueueFamilies = []queueFamilyInfo{{Present: true}} },
		"no present":       func(i *physicalDeviceInfo) { i.QueueFamilies = []queueFamilyInfo{{Graphics: true}} },
		"no swapchain ext": func(i *physicalDeviceInfo) { i.Extensions = nil },
		"no formats":       func(i *physicalDeviceInfo) { i.SurfaceFormatCount = 0 },
		"no present modes": func(i *physicalDeviceInfo) { i.PresentModeCount = 0 },
		"no anisotropy":    func(i *physicalDeviceInfo) { i.SamplerAnisotropy = false },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			info := capableDevice(name)
			mutate(&info)
			_, ok := defaultDeviceRequirements().evaluate(info)
			assert.False(t, ok)
		})
	}
}

func TestSelectPhysicalDeviceFirstMatchWins(t *testing.T) {
	weak := capableDevice("weak")
	weak.SamplerAnisotropy = false

	index, _, err := selectPhysicalDevice([]physicalDeviceInfo{weak, capableDevice("a"), capableDevice("b")}, defaultDeviceRequirements())
	require.NoError(t, err)
	assert.Equal(t, 1, index)
}

func TestSelectPhysicalDeviceNone(t *testing.T) {
	weak := capableDevice("weak")
	weak.Extensions = nil

	_, _, err := selectPhysicalDevice([]physicalDeviceInfo{weak}, defaultDeviceRequirements())
	assert.ErrorIs(t, err, core.ErrNoSuitableDevice)

	_, _, err = selectPhysicalDevice(nil, defaultDeviceRequirements())
	assert.ErrorIs(t, err, core.ErrNoSuitableDevice)
}

func TestMaxUsableSampleCount(t *testing.T) {
	all := vk.SampleCountFlags(vk.SampleCount1Bit | vk.SampleCount2Bit | vk.SampleCount4Bit | vk.SampleCount8Bit)
	upTo4 := vk.SampleCountFlags(vk.SampleCount1Bit | vk.SampleCount2Bit | vk.SampleCount4Bit)

	assert.Equal(t, vk.SampleCount4Bit, maxUsableSampleCount(all, upTo4, 0))
	assert.Equal(t, vk.SampleCount8Bit, maxUsableSampleCount(all, all, 0))
	assert.Equal(t, vk.SampleCount2Bit, maxUsableSampleCount(all, all, 2))
	assert.Equal(t, vk.SampleCount1Bit, maxUsableSampleCount(all, all, 1))
	assert.Equal(t, vk.SampleCount1Bit, maxUsableSampleCount(vk.SampleCountFlags(vk.SampleCount1Bit), all, 0))
}

func TestDetectDepthFormat(t *testing.T) {
	depth := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)

	format, err := detectDepthFormat(func(f vk.Format) vk.FormatProperties {
		if f == vk.FormatD24UnormS8Uint {
			return vk.FormatProperties{OptimalTilingFeatures: depth}
		}
		// Linear tiling support alone does not count.
		return vk.FormatProperties{LinearTilingFeatures: depth}
	})
	require.NoError(t, err)
	assert.Equal(t, vk.FormatD24UnormS8Uint, format)

	format, err = detectDepthFormat(func(vk.Format) vk.FormatProperties {
		return vk.FormatProperties{OptimalTilingFeatures: depth}
	})
	require.NoError(t, err)
	assert.Equal(t, vk.FormatD32Sfloat, format)

	_, err = detectDepthFormat(func(vk.Format) vk.FormatProperties { return vk.FormatProperties{} })
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}
