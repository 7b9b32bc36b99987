package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionMasks(t *testing.T) {
	masks, err := transitionMasks(vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	require.NoError(t, err)
	assert.Zero(t, masks.srcAccess)
	assert.Equal(t, vk.AccessFlags(vk.AccessTransferWriteBit), masks.dstAccess)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), masks.srcStage)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTransferBit), masks.dstStage)

	masks, err = transitionMasks(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutTransferSrcOptimal)
	require.NoError(t, err)
	assert.Equal(t, vk.AccessFlags(vk.AccessTransferReadBit), masks.dstAccess)

	masks, err = transitionMasks(vk.ImageLayoutTransferSrcOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	require.NoError(t, err)
	assert.Equal(t, vk.AccessFlags(vk.AccessShaderReadBit), masks.dstAccess)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit), masks.dstStage)

	masks, err = transitionMasks(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	require.NoError(t, err)
	assert.Equal(t, vk.AccessFlags(vk.AccessTransferWriteBit), masks.srcAccess)
}

func TestTransitionMasksUnsupported(t *testing.T) {
	_, err := transitionMasks(vk.ImageLayoutUndefined, vk.ImageLayoutPresentSrc)
	assert.Error(t, err)

	_, err = transitionMasks(vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutTransferDstOptimal)
	assert.Error(t, err)
}
