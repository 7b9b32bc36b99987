package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
	"github.com/stretchr/testify/assert"
)

func TestMipLevels(t *testing.T) {
	tests := []struct {
		width, height uint32
		expected      uint32
	}{
		{1, 1, 1},
		{2, 1, 2},
		{257, 100, 9},
		{512, 512, 10},
		{100, 1024, 11},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, mipLevels(tt.width, tt.height), "%dx%d", tt.width, tt.height)
	}
}

func TestBlitSupported(t *testing.T) {
	linear := vk.FormatFeatureFlags(vk.FormatFeatureSampledImageFilterLinearBit)

	assert.NoError(t, blitSupported(vk.FormatProperties{OptimalTilingFeatures: linear}))
	assert.ErrorIs(t, blitSupported(vk.FormatProperties{LinearTilingFeatures: linear}), core.ErrBlitUnsupported)
	assert.ErrorIs(t, blitSupported(vk.FormatProperties{}), core.ErrBlitUnsupported)
}

func TestMipBlitHalvesDownToOne(t *testing.T) {
	blit := mipBlit(1, 257, 100)
	assert.Equal(t, uint32(0), blit.SrcSubresource.MipLevel)
	assert.Equal(t, uint32(1), blit.DstSubresource.MipLevel)
	assert.Equal(t, vk.Offset3D{X: 257, Y: 100, Z: 1}, blit.SrcOffsets[1])
	assert.Equal(t, vk.Offset3D{X: 128, Y: 50, Z: 1}, blit.DstOffsets[1])

	blit = mipBlit(8, 2, 1)
	assert.Equal(t, vk.Offset3D{X: 1, Y: 1, Z: 1}, blit.DstOffsets[1])

	blit = mipBlit(9, 1, 1)
	assert.Equal(t, vk.Offset3D{X: 1, Y: 1, Z: 1}, blit.DstOffsets[1])
}

func TestMipChainReachesOnePixel(t *testing.T) {
	width, height := int32(257), int32(100)
	levels := mipLevels(uint32(width), uint32(height))
	for level := uint32(1); level < levels; level++ {
		blit := mipBlit(level, width, height)
		width, height = blit.DstOffsets[1].X, blit.DstOffsets[1].Y
	}
	assert.Equal(t, int32(1), width)
	assert.Equal(t, int32(1), height)
}
