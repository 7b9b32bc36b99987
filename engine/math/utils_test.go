package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, uint32(5), Clamp(uint32(2), 5, 10))
	assert.Equal(t, uint32(10), Clamp(uint32(20), 5, 10))
	assert.Equal(t, uint32(7), Clamp(uint32(7), 5, 10))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
	assert.Equal(t, float32(1), Clamp(float32(1.7), 0, 1))
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint64(256), AlignUp(uint64(200), 256))
	assert.Equal(t, uint64(256), AlignUp(uint64(256), 256))
	assert.Equal(t, uint64(272), AlignUp(uint64(260), 16))
	assert.Equal(t, uint64(13), AlignUp(uint64(13), 0))
}

func TestFloorLog2(t *testing.T) {
	assert.Equal(t, uint32(0), FloorLog2(uint32(0)))
	assert.Equal(t, uint32(0), FloorLog2(uint32(1)))
	assert.Equal(t, uint32(8), FloorLog2(uint32(257)))
	assert.Equal(t, uint32(10), FloorLog2(uint32(1024)))
}
