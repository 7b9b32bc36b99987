package loaders

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/meshview/engine/renderer/metadata"
)

const CheckerboardSize = 64

type TextureLoader struct{}

func (tl *TextureLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := DecodeImage(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return metadata.NewResource(metadata.ResourceTypeImage, filepath.Base(path), path, img.Size(), img), nil
}

func (tl *TextureLoader) Unload(*metadata.Resource) error {
	return nil
}

// DecodeImage decodes any registered format into tightly packed RGBA8.
func DecodeImage(r io.Reader) (*metadata.Image, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("empty image")
	}

	// NRGBA keeps straight alpha, which is what the sampler expects.
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	return &metadata.Image{
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
		Pixels: dst.Pix,
	}, nil
}

// Checkerboard generates the fallback texture used when a material has no
// diffuse map.
func Checkerboard(size int, cell int) *metadata.Image {
	dark := color.NRGBA{R: 64, G: 64, B: 64, A: 255}
	light := color.NRGBA{R: 224, G: 224, B: 224, A: 255}

	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := dark
			if ((x/cell)+(y/cell))%2 == 0 {
				c = light
			}
			dst.SetNRGBA(x, y, c)
		}
	}
	return &metadata.Image{
		Width:  uint32(size),
		Height: uint32(size),
		Pixels: dst.Pix,
	}
}
