package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesToCode(t *testing.T) {
	words, err := bytesToCode([]byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x07230203, 0x00010000}, words)
}

func TestBytesToCodeRejectsPartialWords(t *testing.T) {
	_, err := bytesToCode(nil)
	assert.Error(t, err)

	_, err = bytesToCode([]byte{1, 2, 3, 4, 5})
	assert.Error(t, err)
}

func TestShaderModuleCreateInfo(t *testing.T) {
	code := []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}
	info, err := shaderModuleCreateInfo(code)
	require.NoError(t, err)
	assert.Equal(t, vk.StructureTypeShaderModuleCreateInfo, info.SType)
	assert.Equal(t, uint64(len(code)), info.CodeSize)
	assert.Len(t, info.PCode, 2)

	_, err = shaderModuleCreateInfo([]byte{1, 2})
	assert.Error(t, err)
}
