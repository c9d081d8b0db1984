package drawable

import (
	"github.com/quill2d/quill/engine/mesh"
	"github.com/quill2d/quill/engine/renderer/material"
)

// DrawableBuilderOption is a functional option for configuring a Drawable during construction.
type DrawableBuilderOption func(*drawable)

// WithMesh sets the Mesh for this Drawable. Required.
//
// Parameters:
//   - m: the Mesh to associate
//
// Returns:
//   - DrawableBuilderOption: functional option to set the mesh
func WithMesh(m mesh.Mesh) DrawableBuilderOption {
	return func(d *drawable) {
		d.msh = m
	}
}

// WithMaterial sets the Material for this Drawable. When set, the scene binds
// the material's bind group (tint, texture, sampler) on group 1 and skips the
// draw until the material reports ready.
//
// Parameters:
//   - m: the Material to associate
//
// Returns:
//   - DrawableBuilderOption: functional option to set the material
func WithMaterial(m material.Material) DrawableBuilderOption {
	return func(d *drawable) {
		d.mat = m
	}
}

// WithPipelineKey sets the key of the render pipeline this Drawable is drawn with.
// Required.
//
// Parameters:
//   - key: the pipeline key
//
// Returns:
//   - DrawableBuilderOption: functional option to set the pipeline key
func WithPipelineKey(key string) DrawableBuilderOption {
	return func(d *drawable) {
		d.pipelineKey = key
	}
}

// WithUpdate sets the per-tick update callback invoked during the scene's
// frame-prep phase.
//
// Parameters:
//   - fn: the callback to invoke each tick
//
// Returns:
//   - DrawableBuilderOption: functional option to set the update callback
func WithUpdate(fn UpdateFunc) DrawableBuilderOption {
	return func(d *drawable) {
		d.update = fn
	}
}

// WithEnabled sets whether the Drawable is enabled for rendering.
// Drawables are enabled by default.
//
// Parameters:
//   - enabled: true to render the drawable, false to skip it
//
// Returns:
//   - DrawableBuilderOption: functional option to set the enabled state
func WithEnabled(enabled bool) DrawableBuilderOption {
	return func(d *drawable) {
		d.enabled.Store(enabled)
	}
}
