package material

import (
	"github.com/quill2d/quill/common"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithTint is an option builder that sets the RGBA tint color of the material.
//
// Parameters:
//   - tint: the tint color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the tint option to a material
func WithTint(tint [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.tint = tint
	}
}

// WithTexture is an option builder that attaches an image source to the
// material. The image is not decoded until Load is called.
//
// Parameters:
//   - texture: the image source for the material's texture
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture option to a material
func WithTexture(texture *common.ImageSource) MaterialBuilderOption {
	return func(m *material) {
		m.texture = texture
	}
}

// WithTexturePath is an option builder that attaches an on-disk image to the
// material, a shorthand for WithTexture with a path-backed source.
//
// Parameters:
//   - path: the path to a PNG or JPEG file
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture option to a material
func WithTexturePath(path string) MaterialBuilderOption {
	return func(m *material) {
		m.texture = &common.ImageSource{Name: m.name, Path: path}
	}
}

// WithMipmaps is an option builder that enables mip chain generation for the
// material's texture during the async load.
//
// Returns:
//   - MaterialBuilderOption: a function that enables mipmaps on a material
func WithMipmaps() MaterialBuilderOption {
	return func(m *material) {
		m.mipmapped = true
	}
}

// WithSampler is an option builder that overrides the default linear
// clamp-to-edge sampler configuration.
//
// Parameters:
//   - sampler: the sampler parameters staged for GPU creation
//
// Returns:
//   - MaterialBuilderOption: a function that applies the sampler option to a material
func WithSampler(sampler common.SamplerStagingData) MaterialBuilderOption {
	return func(m *material) {
		m.sampler = sampler
	}
}

// WithPipelineKey is an option builder that sets the render pipeline key for the material.
//
// Parameters:
//   - key: the pipeline key to associate with the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the pipeline key option to a material
func WithPipelineKey(key string) MaterialBuilderOption {
	return func(m *material) {
		m.pipelineKey = key
	}
}
