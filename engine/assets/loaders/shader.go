package loaders

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/meshview/engine/renderer/metadata"
)

// SPIR-V magic number, first word of every module.
const spirvMagic uint32 = 0x07230203

type ShaderLoader struct{}

// Load reads a SPIR-V binary. The payload is kept as raw bytes; only the
// header word and the alignment are checked.
func (sl *ShaderLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validateSPIRV(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return metadata.NewResource(metadata.ResourceTypeShader, filepath.Base(path), path, uint64(len(data)), data), nil
}

func (sl *ShaderLoader) Unload(*metadata.Resource) error {
	return nil
}

func validateSPIRV(data []byte) error {
	if len(data) < 4 || len(data)%4 != 0 {
		return fmt.Errorf("invalid SPIR-V size %d", len(data))
	}
	if magic := binary.LittleEndian.Uint32(data); magic != spirvMagic {
		return fmt.Errorf("invalid SPIR-V magic 0x%08x", magic)
	}
	return nil
}
