package loaders

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/meshview/engine/core"
	"github.com/spaghettifunk/meshview/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cubeOBJ = `# unit cube
mtllib cube.mtl
v -0.5 -0.5  0.5
v  0.5 -0.5  0.5
v  0.5  0.5  0.5
v -0.5  0.5  0.5
v -0.5 -0.5 -0.5
v  0.5 -0.5 -0.5
v  0.5  0.5 -0.5
v -0.5  0.5 -0.5
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
usemtl crate
f 1/1 2/2 3/3 4/4
f 6/6 5/5 8/8 7/7
f 5/5 1/1 4/4 8/8
f 2/2 6/6 7/7 3/3
f 4/4 3/3 7/7 8/8
f 5/5 6/6 2/2 1/1
`

const cubeMTL = `newmtl crate
Ka 0.1 0.1 0.1
Kd 0.9 0.5 0.2
Ks 0.4 0.4 0.4
Ns 16
`

func TestParseOBJCube(t *testing.T) {
	obj, err := ParseOBJ(strings.NewReader(cubeOBJ))
	require.NoError(t, err)
	assert.Len(t, obj.Positions, 8)
	assert.Equal(t, 12, obj.TriangleCount())
	assert.Equal(t, []string{"cube.mtl"}, obj.MaterialLibs)
	assert.Equal(t, "crate", obj.FirstMaterial())

	vertices, indices, err := obj.Build(nil)
	require.NoError(t, err)
	assert.Len(t, vertices, 8)
	assert.Len(t, indices, 36)
	for _, idx := range indices {
		assert.Less(t, int(idx), len(vertices))
	}
	// no material in the map: white
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, vertices[0].Color)
}

func TestParseOBJFlipsTexCoordV(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0.25\nvt 1 0.25\nvt 0 1\nf 1/1 2/2 3/3\n"
	obj, err := ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)

	vertices, _, err := obj.Build(nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, vertices[0].TexCoord[1], 1e-6)
	assert.InDelta(t, 0.0, vertices[2].TexCoord[1], 1e-6)
}

func TestParseOBJCornerForms(t *testing.T) {
	src := strings.Join([]string{
		"v 0 0 0", "v 1 0 0", "v 0 1 0", "v 1 1 0",
		"vt 0 0",
		"vn 0 0 1",
		"f 1 2 3",
		"f 2/1 4/1 3/1",
		"f 1//1 2//1 3//1",
		"f -4/-1/-1 -3/-1/-1 -2/-1/-1",
	}, "\n")
	obj, err := ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 4, obj.TriangleCount())

	vertices, indices, err := obj.Build(nil)
	require.NoError(t, err)
	assert.Len(t, indices, 12)
	// every face uses a different v/vt/vn combination
	assert.Len(t, vertices, 12)
	assert.Equal(t, []uint32{6, 7, 8}, indices[6:9])
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, vertices[6].Normal)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, vertices[9].Position)
}

func TestParseOBJGeneratesNormals(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	obj, err := ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)

	vertices, _, err := obj.Build(nil)
	require.NoError(t, err)
	for _, v := range vertices {
		assert.InDelta(t, 1.0, v.Normal[2], 1e-6)
	}
}

func TestParseOBJFanTriangulation(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0.5 1.5 0\nv 0 1 0\nf 1 2 3 4 5\n"
	obj, err := ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 3, obj.TriangleCount())

	_, indices, err := obj.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3, 0, 3, 4}, indices)
}

func TestParseOBJErrors(t *testing.T) {
	cases := map[string]string{
		"out of range": "v 0 0 0\nv 1 0 0\nf 1 2 3\n",
		"bad number":   "v 0 zero 0\n",
		"short face":   "v 0 0 0\nv 1 0 0\nf 1 2\n",
		"no faces":     "v 0 0 0\n",
		"bad corner":   "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/2/3/4 2 3\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseOBJ(strings.NewReader(src))
			assert.ErrorIs(t, err, core.ErrInvalidModel)
		})
	}
}

func TestModelLoaderUsesMaterialAndCheckerboard(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cube.obj"), []byte(cubeOBJ), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cube.mtl"), []byte(cubeMTL), 0o644))

	res, err := (&ModelLoader{}).Load(filepath.Join(dir, "cube.obj"), nil)
	require.NoError(t, err)

	model, ok := res.Data.(*metadata.Model)
	require.True(t, ok)
	assert.Equal(t, "cube.obj", model.Name)
	assert.Equal(t, uint32(36), model.IndexCount())
	assert.Equal(t, mgl32.Vec3{0.9, 0.5, 0.2}, model.Light.Diffuse)
	assert.Equal(t, float32(16), model.Light.Shininess)
	assert.Equal(t, mgl32.Vec3{0.9, 0.5, 0.2}, model.Vertices[0].Color)

	require.NotNil(t, model.Texture)
	assert.Equal(t, uint32(CheckerboardSize), model.Texture.Width)
	assert.True(t, model.Texture.Valid())
}

func TestModelLoaderMissingLibrary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cube.obj"), []byte(cubeOBJ), 0o644))

	_, err := (&ModelLoader{}).Load(filepath.Join(dir, "cube.obj"), nil)
	assert.Error(t, err)
}
