// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	xdraw "golang.org/x/image/draw"
)

// TextureStagingData holds RGBA pixel data for a texture binding pending GPU upload.
// This is primarily used in the BindGroupProvider to stage texture data before creating the GPU texture and bind group.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Width uint32
	// Height is the height of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Height uint32
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// This is primarily used in the BindGroupProvider to stage sampler data before creating the GPU sampler and bind group.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering, which can improve texture quality at oblique viewing angles.
	MaxAnisotropy uint16
}

// ImageSource describes where texture pixel data comes from.
// For in-memory images the Data field contains raw encoded bytes; otherwise
// the Path field names a PNG or JPEG file on disk.
type ImageSource struct {
	// Name is an identifier for this image, used in error messages and labels.
	Name string

	// Path is the file path for on-disk images (empty when Data is set).
	Path string

	// Data contains raw encoded image bytes (PNG/JPEG) for in-memory images.
	Data []byte

	// Width is the image width in pixels (populated after Decode).
	Width int

	// Height is the image height in pixels (populated after Decode).
	Height int
}

// Decode decodes the image to raw RGBA pixel data.
// Uses either embedded Data bytes or loads from Path on disk.
// Supports PNG and JPEG formats.
// Reference: https://pkg.go.dev/image
//
// Returns:
//   - TextureStagingData: raw RGBA pixel data (4 bytes per pixel, row-major order) with dimensions
//   - error: error if decoding fails
func (s *ImageSource) Decode() (TextureStagingData, error) {
	if s == nil {
		return TextureStagingData{}, fmt.Errorf("image source is nil")
	}

	var img image.Image
	var err error

	if len(s.Data) > 0 {
		img, _, err = image.Decode(bytes.NewReader(s.Data))
		if err != nil {
			return TextureStagingData{}, fmt.Errorf("failed to decode embedded image %s: %w", s.Name, err)
		}
	} else if s.Path != "" {
		file, fileErr := os.Open(s.Path)
		if fileErr != nil {
			return TextureStagingData{}, fmt.Errorf("failed to open image file %s: %w", s.Path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return TextureStagingData{}, fmt.Errorf("failed to decode image file %s: %w", s.Path, err)
		}
	} else {
		return TextureStagingData{}, fmt.Errorf("image source %s has neither data nor path", s.Name)
	}

	bounds := img.Bounds()
	s.Width = bounds.Dx()
	s.Height = bounds.Dy()

	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(s.Width),
		Height: uint32(s.Height),
	}, nil
}

// BuildMipChain generates a full mip chain from a base level, halving each
// dimension per level down to 1x1. Levels are downsampled with Catmull-Rom
// interpolation. The base level is level 0 of the returned chain.
//
// Parameters:
//   - base: the full-resolution RGBA staging data
//
// Returns:
//   - []TextureStagingData: the mip chain, base level first
func BuildMipChain(base TextureStagingData) []TextureStagingData {
	chain := []TextureStagingData{base}

	src := &image.RGBA{
		Pix:    base.Pixels,
		Stride: int(base.Width) * 4,
		Rect:   image.Rect(0, 0, int(base.Width), int(base.Height)),
	}

	w, h := int(base.Width), int(base.Height)
	for w > 1 || h > 1 {
		w = max(w/2, 1)
		h = max(h/2, 1)

		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(dst, dst.Rect, src, src.Rect, xdraw.Src, nil)

		chain = append(chain, TextureStagingData{
			Pixels: dst.Pix,
			Width:  uint32(w),
			Height: uint32(h),
		})
		src = dst
	}
	return chain
}
