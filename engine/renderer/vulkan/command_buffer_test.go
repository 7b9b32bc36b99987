package vulkan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandBufferStateString(t *testing.T) {
	assert.Equal(t, "ready", COMMAND_BUFFER_STATE_READY.String())
	assert.Equal(t, "submitted", COMMAND_BUFFER_STATE_SUBMITTED.String())
	assert.Equal(t, "not allocated", COMMAND_BUFFER_STATE_NOT_ALLOCATED.String())
}

func TestBeginRequiresReadyBuffer(t *testing.T) {
	buffer := &VulkanCommandBuffer{State: COMMAND_BUFFER_STATE_SUBMITTED}
	assert.Error(t, buffer.Begin(false, false, false))
}
