package loaders

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/meshview/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(w-1, h-1, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeImagePNG(t *testing.T) {
	img, err := DecodeImage(bytes.NewReader(encodePNG(t, 5, 3)))
	require.NoError(t, err)
	assert.Equal(t, uint32(5), img.Width)
	assert.Equal(t, uint32(3), img.Height)
	assert.True(t, img.Valid())
	assert.Equal(t, []byte{255, 0, 0, 255}, img.Pixels[:4])
	assert.Equal(t, []byte{0, 0, 255, 255}, img.Pixels[len(img.Pixels)-4:])
}

func TestDecodeImageGarbage(t *testing.T) {
	_, err := DecodeImage(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestTextureLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tex.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 4, 4), 0o644))

	res, err := (&TextureLoader{}).Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, metadata.ResourceTypeImage, res.Type)
	assert.Equal(t, uint64(64), res.DataSize)
}

func TestCheckerboard(t *testing.T) {
	img := Checkerboard(16, 4)
	require.True(t, img.Valid())

	at := func(x, y int) byte { return img.Pixels[(y*16+x)*4] }
	assert.Equal(t, byte(224), at(0, 0))
	assert.Equal(t, byte(64), at(4, 0))
	assert.Equal(t, byte(64), at(0, 4))
	assert.Equal(t, byte(224), at(4, 4))
	assert.Equal(t, byte(255), img.Pixels[3])
}
