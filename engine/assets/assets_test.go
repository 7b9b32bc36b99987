package assets

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spaghettifunk/meshview/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const triangleOBJ = "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"

func writeSPIRV(t *testing.T, path string) {
	t.Helper()
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data, 0x07230203)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestDetermineAssetType(t *testing.T) {
	cases := map[string]metadata.ResourceType{
		"shaders/vert.spv":  metadata.ResourceTypeShader,
		"textures/a.PNG":    metadata.ResourceTypeImage,
		"textures/a.jpeg":   metadata.ResourceTypeImage,
		"textures/a.webp":   metadata.ResourceTypeImage,
		"models/cube.mtl":   metadata.ResourceTypeMaterial,
		"models/cube.obj":   metadata.ResourceTypeModel,
		"shaders/vert.glsl": metadata.ResourceTypeNone,
		"README":            metadata.ResourceTypeNone,
	}
	for path, want := range cases {
		assert.Equal(t, want, determineAssetType(path), path)
	}
}

func TestAssetManagerIndexAndLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models", "tri.obj"), []byte(triangleOBJ), 0o644))
	writeSPIRV(t, filepath.Join(dir, "vert.spv"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	am := NewAssetManager()
	require.NoError(t, am.Initialize(dir, false))
	defer am.Shutdown()

	assert.Len(t, am.Assets(metadata.ResourceTypeModel), 1)
	assert.Len(t, am.Assets(metadata.ResourceTypeShader), 1)

	model, err := am.LoadModel(filepath.Join(dir, "models", "tri.obj"))
	require.NoError(t, err)
	assert.Equal(t, uint32(3), model.IndexCount())
	require.NotNil(t, model.Texture)

	code, err := am.LoadShader(filepath.Join(dir, "vert.spv"))
	require.NoError(t, err)
	assert.Len(t, code, 8)

	_, err = am.LoadShader(filepath.Join(dir, "models", "tri.obj"))
	assert.Error(t, err)
	_, err = am.LoadAsset(filepath.Join(dir, "notes.txt"), nil)
	assert.Error(t, err)
}

func TestAssetManagerReportsShaderChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frag.spv")
	writeSPIRV(t, path)

	am := NewAssetManager()
	require.NoError(t, am.Initialize(dir, true))

	writeSPIRV(t, path)

	select {
	case changed := <-am.ShaderChanges():
		assert.Equal(t, path, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("no shader change reported")
	}

	require.NoError(t, am.Shutdown())
	require.NoError(t, am.Shutdown())
}

func TestAssetManagerRecordsLoadedResourceID(t *testing.T) {
	dir := t.TempDir()
	shader := filepath.Join(dir, "frag.spv")
	writeSPIRV(t, shader)

	am := NewAssetManager()
	require.NoError(t, am.Initialize(dir, false))
	defer am.Shutdown()

	indexed := am.Assets(metadata.ResourceTypeShader)
	require.Len(t, indexed, 1)
	assert.Equal(t, uuid.Nil, indexed[0].ID)

	first, err := am.LoadAsset(shader, nil)
	require.NoError(t, err)
	loaded := am.Assets(metadata.ResourceTypeShader)
	require.Len(t, loaded, 1)
	assert.Equal(t, first.ID, loaded[0].ID)
	assert.False(t, loaded[0].LastLoaded.IsZero())

	second, err := am.LoadAsset(shader, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, second.ID, am.Assets(metadata.ResourceTypeShader)[0].ID)
}
