package loaders

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spirvHeader() []byte {
	data := make([]byte, 20)
	binary.LittleEndian.PutUint32(data, spirvMagic)
	binary.LittleEndian.PutUint32(data[4:], 0x00010000)
	return data
}

func TestValidateSPIRV(t *testing.T) {
	assert.NoError(t, validateSPIRV(spirvHeader()))
	assert.Error(t, validateSPIRV(nil))
	assert.Error(t, validateSPIRV(spirvHeader()[:7]))
	assert.Error(t, validateSPIRV([]byte{1, 2, 3, 4}))
}

func TestShaderLoader(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "vert.spv")
	bad := filepath.Join(dir, "frag.spv")
	require.NoError(t, os.WriteFile(good, spirvHeader(), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("#version 450\n"), 0o644))

	res, err := (&ShaderLoader{}).Load(good, nil)
	require.NoError(t, err)
	assert.Equal(t, spirvHeader(), res.Data)

	_, err = (&ShaderLoader{}).Load(bad, nil)
	assert.Error(t, err)

	_, err = (&ShaderLoader{}).Load(filepath.Join(dir, "missing.spv"), nil)
	assert.Error(t, err)
}
