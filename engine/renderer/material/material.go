package material

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/quill2d/quill/common"
	bgp "github.com/quill2d/quill/engine/renderer/bind_group_provider"
)

// Load states for a material's texture.
const (
	loadStateUnloaded int32 = iota
	loadStateLoading
	loadStateReady
	loadStateFailed
)

// material is the implementation of the Material interface.
type material struct {
	name        string
	tint        [4]float32
	texture     *common.ImageSource
	sampler     common.SamplerStagingData
	mipmapped   bool
	pipelineKey string
	provider    bgp.BindGroupProvider

	// loadState tracks the async texture decode. Untextured materials are
	// ready from construction.
	loadState atomic.Int32

	mu      sync.Mutex
	staging []common.TextureStagingData
	loadErr error
}

// Material describes how a mesh is shaded: a tint color and an optional
// texture. Textured materials decode their image asynchronously; the scene
// skips their draw calls until the decode completes and the GPU resources are
// initialized, so a slow or missing image never blocks the frame loop.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Tint retrieves the RGBA tint color applied in the fragment shader.
	//
	// Returns:
	//   - [4]float32: the tint color
	Tint() [4]float32

	// SetTint updates the RGBA tint color. The new value reaches the GPU on
	// the next frame's uniform write.
	//
	// Parameters:
	//   - tint: the RGBA tint color
	SetTint(tint [4]float32)

	// Textured reports whether this material samples a texture.
	//
	// Returns:
	//   - bool: true when an image source is attached
	Textured() bool

	// Mipmapped reports whether a full mip chain is generated for the texture.
	//
	// Returns:
	//   - bool: true when mip generation is enabled
	Mipmapped() bool

	// Load starts the asynchronous texture decode and returns immediately.
	// Calling Load again while a decode is running or finished is a no-op, as
	// is calling it on an untextured material. Failures are logged and leave
	// the material permanently unready.
	Load()

	// Ready reports whether the material can be drawn: untextured materials
	// are always ready, textured ones only after their decode completes.
	//
	// Returns:
	//   - bool: true when drawable
	Ready() bool

	// LoadError retrieves the decode failure, or nil.
	//
	// Returns:
	//   - error: the decode error, or nil when none occurred
	LoadError() error

	// TakeStagingData hands the decoded mip chain to the caller for GPU upload
	// and drops the CPU-side copy. Returns nil before the decode completes or
	// on a second call.
	//
	// Returns:
	//   - []common.TextureStagingData: the mip chain (base level first), or nil
	TakeStagingData() []common.TextureStagingData

	// SamplerData retrieves the sampler configuration for GPU creation.
	//
	// Returns:
	//   - common.SamplerStagingData: the staged sampler parameters
	SamplerData() common.SamplerStagingData

	// PipelineKey retrieves the key identifying the render pipeline this material uses.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// SetPipelineKey sets the render pipeline key for this material.
	//
	// Parameters:
	//   - key: the pipeline key to associate with this material
	SetPipelineKey(key string)

	// BindGroupProvider retrieves the bind group provider holding GPU-side resources for this material.
	//
	// Returns:
	//   - bgp.BindGroupProvider: the material's provider
	BindGroupProvider() bgp.BindGroupProvider
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
// Untextured materials default to an opaque white tint and are immediately ready.
//
// Parameters:
//   - name: identifier used for GPU labels and error messages
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(name string, options ...MaterialBuilderOption) Material {
	m := &material{
		name: name,
		tint: [4]float32{1, 1, 1, 1},
		sampler: common.SamplerStagingData{
			AddressModeU: wgpu.AddressModeClampToEdge,
			AddressModeV: wgpu.AddressModeClampToEdge,
			AddressModeW: wgpu.AddressModeClampToEdge,
			MagFilter:    wgpu.FilterModeLinear,
			MinFilter:    wgpu.FilterModeLinear,
			MipmapFilter: wgpu.MipmapFilterModeLinear,
			LodMaxClamp:  32,
		},
		provider: bgp.NewBindGroupProvider(name),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.texture == nil {
		m.loadState.Store(loadStateReady)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Tint() [4]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tint
}

func (m *material) SetTint(tint [4]float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tint = tint
}

func (m *material) Textured() bool {
	return m.texture != nil
}

func (m *material) Mipmapped() bool {
	return m.mipmapped
}

func (m *material) Load() {
	if m.texture == nil {
		return
	}
	if !m.loadState.CompareAndSwap(loadStateUnloaded, loadStateLoading) {
		return
	}

	go func() {
		base, err := m.texture.Decode()
		if err != nil {
			log.Printf("material %s: texture load failed: %v", m.name, err)
			m.mu.Lock()
			m.loadErr = err
			m.mu.Unlock()
			m.loadState.Store(loadStateFailed)
			return
		}

		chain := []common.TextureStagingData{base}
		if m.mipmapped {
			chain = common.BuildMipChain(base)
		}

		m.mu.Lock()
		m.staging = chain
		m.mu.Unlock()
		m.loadState.Store(loadStateReady)
	}()
}

func (m *material) Ready() bool {
	return m.loadState.Load() == loadStateReady
}

func (m *material) LoadError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr == nil {
		return nil
	}
	return fmt.Errorf("material %s: %w", m.name, m.loadErr)
}

func (m *material) TakeStagingData() []common.TextureStagingData {
	m.mu.Lock()
	defer m.mu.Unlock()
	staging := m.staging
	m.staging = nil
	return staging
}

func (m *material) SamplerData() common.SamplerStagingData {
	return m.sampler
}

func (m *material) PipelineKey() string {
	return m.pipelineKey
}

func (m *material) SetPipelineKey(key string) {
	m.pipelineKey = key
}

func (m *material) BindGroupProvider() bgp.BindGroupProvider {
	return m.provider
}

// TintBindGroupLayoutDescriptor is the layout for untextured materials: the
// tint uniform alone at binding 0.
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the flat-color material layout
func TintBindGroupLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "material-tint",
		Entries: []wgpu.BindGroupLayoutEntry{
			tintEntry(),
		},
	}
}

// TexturedBindGroupLayoutDescriptor is the layout for textured materials: the
// tint uniform at binding 0, the texture at binding 1, and its sampler at
// binding 2, all visible to the fragment stage.
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the textured material layout
func TexturedBindGroupLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "material-textured",
		Entries: []wgpu.BindGroupLayoutEntry{
			tintEntry(),
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	}
}

func tintEntry() wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: wgpu.ShaderStageFragment,
		Buffer: wgpu.BufferBindingLayout{
			Type: wgpu.BufferBindingTypeUniform,
		},
	}
}
