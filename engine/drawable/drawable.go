package drawable

import (
	"sync/atomic"

	"github.com/quill2d/quill/engine/mesh"
	"github.com/quill2d/quill/engine/renderer/material"
)

// UpdateFunc is a per-tick callback invoked by the scene's frame-prep phase.
// It receives the drawable itself and the elapsed time since the last tick in
// seconds, and typically mutates the drawable's mesh instance data.
type UpdateFunc func(d Drawable, deltaTime float64)

type drawable struct {
	id      uint64
	name    string
	enabled atomic.Bool

	msh         mesh.Mesh
	mat         material.Material
	pipelineKey string
	update      UpdateFunc
}

// Drawable defines the interface for a scene entity: a mesh drawn with a
// pipeline, optionally textured and tinted through a Material, optionally
// animated through a per-tick update callback.
type Drawable interface {
	// ID returns the drawable's unique identifier, assigned by the scene on Add.
	//
	// Returns:
	//   - uint64: the drawable ID
	ID() uint64

	// SetID sets the drawable's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// Name returns the drawable's display name, used for GPU resource labels.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Enabled returns whether this drawable is enabled for rendering.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled sets whether the drawable is enabled for rendering.
	// Disabled drawables are skipped by both the frame-prep phase and the
	// draw pass, but remain registered in the scene.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// Mesh returns the Mesh associated with this drawable.
	//
	// Returns:
	//   - mesh.Mesh: the associated mesh
	Mesh() mesh.Mesh

	// Material returns the Material associated with this drawable, or nil
	// for untextured, untinted geometry.
	//
	// Returns:
	//   - material.Material: the associated material or nil
	Material() material.Material

	// PipelineKey returns the key of the render pipeline this drawable is
	// drawn with.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// Update invokes the drawable's per-tick callback, if one is set.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last tick in seconds
	Update(deltaTime float64)
}

var _ Drawable = &drawable{}

// NewDrawable creates a new Drawable configured with the given options.
// The mesh and pipeline key are required; everything else is optional.
// Drawables are enabled by default.
//
// Parameters:
//   - name: display name used for GPU resource labels
//   - options: functional options to configure the drawable
//
// Returns:
//   - Drawable: the newly created drawable
func NewDrawable(name string, options ...DrawableBuilderOption) Drawable {
	d := &drawable{
		name: name,
	}
	d.enabled.Store(true)
	for _, option := range options {
		option(d)
	}
	if d.msh == nil {
		panic("drawable " + name + ": no mesh provided")
	}
	if d.pipelineKey == "" {
		panic("drawable " + name + ": no pipeline key provided")
	}
	return d
}

func (d *drawable) ID() uint64 {
	return d.id
}

func (d *drawable) SetID(id uint64) {
	d.id = id
}

func (d *drawable) Name() string {
	return d.name
}

func (d *drawable) Enabled() bool {
	return d.enabled.Load()
}

func (d *drawable) SetEnabled(enabled bool) {
	d.enabled.Store(enabled)
}

func (d *drawable) Mesh() mesh.Mesh {
	return d.msh
}

func (d *drawable) Material() material.Material {
	return d.mat
}

func (d *drawable) PipelineKey() string {
	return d.pipelineKey
}

func (d *drawable) Update(deltaTime float64) {
	if d.update == nil {
		return
	}
	d.update(d, deltaTime)
}
