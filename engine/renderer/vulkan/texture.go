package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
	"github.com/spaghettifunk/meshview/engine/math"
	"github.com/spaghettifunk/meshview/engine/renderer/metadata"
)

const textureFormat = vk.FormatR8g8b8a8Srgb

/**
 * @brief The mesh texture: a mipmapped sampled image, one view over every
 * mip level and an anisotropic sampler.
 */
type TextureSampler struct {
	Image     *VulkanImage
	Sampler   vk.Sampler
	MipLevels uint32
}

// mipLevels returns floor(log2(max(width, height))) + 1.
func mipLevels(width, height uint32) uint32 {
	return math.FloorLog2(max(width, height)) + 1
}

// blitSupported checks the format can be the source of a linear filtered blit
// from optimally tiled images.
func blitSupported(properties vk.FormatProperties) error {
	required := vk.FormatFeatureFlags(vk.FormatFeatureSampledImageFilterLinearBit)
	if properties.OptimalTilingFeatures&required != required {
		return fmt.Errorf("%w: format lacks linear filtered sampling", core.ErrBlitUnsupported)
	}
	return nil
}

// mipBlit describes the blit from level-1 of size width x height into level,
// halving each axis down to one pixel.
func mipBlit(level uint32, width, height int32) vk.ImageBlit {
	dstWidth, dstHeight := max(width/2, 1), max(height/2, 1)
	return vk.ImageBlit{
		SrcSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       level - 1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		SrcOffsets: [2]vk.Offset3D{
			{X: 0, Y: 0, Z: 0},
			{X: width, Y: height, Z: 1},
		},
		DstSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       level,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		DstOffsets: [2]vk.Offset3D{
			{X: 0, Y: 0, Z: 0},
			{X: dstWidth, Y: dstHeight, Z: 1},
		},
	}
}

// generateMipChain fills levels 1..MipLevels-1 by successive blits.
// On entry every level is in TRANSFER_DST_OPTIMAL and level 0 holds the
// pixels; on return every level is in SHADER_READ_ONLY_OPTIMAL.
func generateMipChain(cmd vk.CommandBuffer, image *VulkanImage) error {
	width, height := int32(image.Width), int32(image.Height)

	for level := uint32(1); level < image.MipLevels; level++ {
		if err := image.transitionLayout(cmd, level-1, 1, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutTransferSrcOptimal); err != nil {
			return err
		}

		blit := mipBlit(level, width, height)
		vk.CmdBlitImage(
			cmd,
			image.Handle, vk.ImageLayoutTransferSrcOptimal,
			image.Handle, vk.ImageLayoutTransferDstOptimal,
			1, []vk.ImageBlit{blit},
			vk.FilterLinear)

		if err := image.transitionLayout(cmd, level-1, 1, vk.ImageLayoutTransferSrcOptimal, vk.ImageLayoutShaderReadOnlyOptimal); err != nil {
			return err
		}
		width, height = max(width/2, 1), max(height/2, 1)
	}

	return image.transitionLayout(cmd, image.MipLevels-1, 1, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
}

func (ts *TextureSampler) Initialize(context *VulkanContext, recorder *CommandRecorder, pixels *metadata.Image) error {
	if pixels == nil || !pixels.Valid() {
		return fmt.Errorf("%w: texture pixels do not match their size", core.ErrInvalidModel)
	}
	if err := blitSupported(context.Device.FormatProperties(textureFormat)); err != nil {
		core.LogError("%s", err)
		return err
	}
	ts.MipLevels = mipLevels(pixels.Width, pixels.Height)

	staging, err := newStagingBuffer(context, pixels.Pixels)
	if err != nil {
		return err
	}
	defer staging.Destroy(context)

	image, err := NewImage(context, VulkanImageConfig{
		Width:      pixels.Width,
		Height:     pixels.Height,
		MipLevels:  ts.MipLevels,
		Samples:    vk.SampleCount1Bit,
		Format:     textureFormat,
		Tiling:     vk.ImageTilingOptimal,
		Usage:      vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		Properties: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		CreateView: true,
		ViewAspect: vk.ImageAspectFlags(vk.ImageAspectColorBit),
	})
	if err != nil {
		return err
	}
	ts.Image = image

	var recordErr error
	err = recorder.SingleUse(context, context.Device.GraphicsQueue, func(cmd vk.CommandBuffer) {
		if recordErr = image.transitionLayout(cmd, 0, ts.MipLevels, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); recordErr != nil {
			return
		}
		image.copyFromBuffer(cmd, staging)
		recordErr = generateMipChain(cmd, image)
	})
	if recordErr != nil {
		err = recordErr
	}
	if err != nil {
		ts.Destroy(context)
		return err
	}

	if err := ts.createSampler(context); err != nil {
		ts.Destroy(context)
		return err
	}
	core.LogInfo("Uploaded texture %dx%d with %d mip levels.", pixels.Width, pixels.Height, ts.MipLevels)
	return nil
}

func (ts *TextureSampler) createSampler(context *VulkanContext) error {
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.True,
		MaxAnisotropy:           context.Device.Properties.Limits.MaxSamplerAnisotropy,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		MipLodBias:              0,
		MinLod:                  0,
		MaxLod:                  float32(ts.MipLevels),
	}
	var sampler vk.Sampler
	if err := checkResult("vkCreateSampler", vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &sampler)); err != nil {
		return err
	}
	ts.Sampler = sampler
	return nil
}

func (ts *TextureSampler) Destroy(context *VulkanContext) {
	if ts.Sampler != vk.NullSampler {
		vk.DestroySampler(context.Device.LogicalDevice, ts.Sampler, context.Allocator)
		ts.Sampler = vk.NullSampler
	}
	ts.Image.Destroy(context)
	ts.Image = nil
}
