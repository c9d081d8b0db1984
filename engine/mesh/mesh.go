// package mesh provides CPU-side geometry for 2D rendering: interleaved vertex
// data, optional indices, and a declared per-instance attribute layout whose
// stride and offsets are computed once at construction.
package mesh

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/quill2d/quill/common"
	bgp "github.com/quill2d/quill/engine/renderer/bind_group_provider"
)

// Vertex is a single mesh vertex. Position is always present; UV is only
// packed into the vertex buffer when the mesh is built with WithTexCoords.
type Vertex struct {
	// Position is the vertex position in model space.
	Position [3]float32
	// UV is the texture coordinate, with (0,0) at the top-left of the image.
	UV [2]float32
}

// positionFloats and uvFloats are the per-vertex float counts of each component.
const (
	positionFloats = 3
	uvFloats       = 2
)

// instanceAttribute is one declared per-instance attribute. Offsets are in
// floats from the start of an instance's block and are assigned additively in
// declaration order, so the layout is stable for the life of the mesh.
type instanceAttribute struct {
	name   string
	size   int
	offset int
}

// mesh is the implementation of the Mesh interface.
type mesh struct {
	mu sync.Mutex

	name       string
	vertices   []Vertex
	hasUV      bool
	indices    []uint32
	attributes []instanceAttribute
	attrIndex  map[string]int
	// instanceStride is the per-instance float count, the sum of all declared attribute sizes.
	instanceStride int

	instanceCount int
	instanceData  []float32
	// dataDirty marks CPU instance data that has not been flushed to the GPU yet.
	dataDirty bool
	// bufferStale marks that the GPU instance buffer no longer matches the
	// instance count and must be reallocated before the next draw.
	bufferStale bool

	provider bgp.BindGroupProvider
}

// Mesh is interleaved 2D geometry with an optional per-instance attribute
// layout. The vertex format and the instance layout are fixed at construction;
// only the instance count and instance attribute values change afterwards.
type Mesh interface {
	// Name retrieves the mesh's identifier, used for buffer labels and error messages.
	//
	// Returns:
	//   - string: the mesh name
	Name() string

	// VertexCount retrieves the number of vertices in the mesh.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// HasTexCoords reports whether UV coordinates are packed into the vertex buffer.
	//
	// Returns:
	//   - bool: true when each vertex carries a UV pair after its position
	HasTexCoords() bool

	// VertexData packs the vertices into interleaved bytes ready for GPU upload.
	// Each vertex occupies 3 floats for position, followed by 2 floats for UV
	// when texture coordinates are enabled.
	//
	// Returns:
	//   - []byte: the interleaved vertex data
	VertexData() []byte

	// Indexed reports whether the mesh draws through an index buffer.
	//
	// Returns:
	//   - bool: true when indices were provided at construction
	Indexed() bool

	// IndexData retrieves the index buffer bytes, or nil for non-indexed meshes.
	//
	// Returns:
	//   - []byte: the uint32 index data
	IndexData() []byte

	// IndexCount retrieves the number of indices, or 0 for non-indexed meshes.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// Instanced reports whether the mesh declared any per-instance attributes.
	//
	// Returns:
	//   - bool: true when at least one instance attribute exists
	Instanced() bool

	// InstanceStride retrieves the per-instance float count (the sum of all
	// declared attribute sizes).
	//
	// Returns:
	//   - int: floats per instance
	InstanceStride() int

	// InstanceAttributeOffset retrieves the float offset of a declared instance
	// attribute within an instance's block.
	//
	// Parameters:
	//   - name: the attribute name
	//
	// Returns:
	//   - int: the offset in floats from the start of the instance block
	//   - bool: false when no attribute with that name was declared
	InstanceAttributeOffset(name string) (int, bool)

	// InstanceCount retrieves the current number of instances.
	//
	// Returns:
	//   - int: the instance count
	InstanceCount() int

	// SetInstanceCount resizes the instance data store to hold count instances.
	// All previously written instance attribute values are discarded; callers
	// must rewrite every property after resizing. The GPU instance buffer is
	// marked stale and reallocated on the next frame.
	//
	// Parameters:
	//   - count: the new instance count (negative counts are treated as 0)
	SetInstanceCount(count int)

	// SetInstanceProperty writes the value of one declared attribute for one instance.
	//
	// Parameters:
	//   - index: the instance index, in [0, InstanceCount())
	//   - name: the declared attribute name
	//   - data: the attribute value; len(data) must equal the declared size
	//
	// Returns:
	//   - error: when the name is undeclared, the value length does not match
	//     the declared size, or the index is out of range
	SetInstanceProperty(index int, name string, data []float32) error

	// InstanceData retrieves the packed per-instance attribute bytes for GPU upload.
	//
	// Returns:
	//   - []byte: the instance data, laid out per the declared attribute order
	InstanceData() []byte

	// FlushInstanceData collects the pending GPU work for the instance buffer
	// and clears the dirty flags. The stale result means the GPU buffer must be
	// reallocated (the instance count changed); the write result carries data
	// that fits the existing buffer.
	//
	// Returns:
	//   - []byte: instance bytes to upload, or nil when nothing changed
	//   - bool: true when the instance buffer must be reallocated first
	FlushInstanceData() ([]byte, bool)

	// VertexLayouts retrieves the GPU vertex buffer layouts for pipeline
	// creation: slot 0 steps per-vertex (location 0 position, location 1 UV
	// when present), slot 1 steps per-instance with the declared attributes at
	// locations 2 and up.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts, one per vertex buffer slot
	VertexLayouts() []wgpu.VertexBufferLayout

	// Provider retrieves the bind group provider holding this mesh's GPU buffers.
	//
	// Returns:
	//   - bgp.BindGroupProvider: the mesh's provider
	Provider() bgp.BindGroupProvider
}

var _ Mesh = &mesh{}

// NewMesh builds a mesh from vertices and the provided options. The vertex
// format and instance attribute layout are fixed here: attribute offsets are
// assigned additively in declaration order and never change afterwards.
// Panics when no vertices are provided or an instance attribute declaration is
// invalid, since mesh construction errors are unrecoverable programmer errors.
//
// Parameters:
//   - name: identifier used for buffer labels and error messages
//   - vertices: the mesh vertices (must be non-empty)
//   - options: a variadic list of options to configure the mesh
//
// Returns:
//   - Mesh: the constructed mesh
func NewMesh(name string, vertices []Vertex, options ...MeshBuilderOption) Mesh {
	if len(vertices) == 0 {
		panic(fmt.Sprintf("mesh %s: no vertices provided", name))
	}
	m := &mesh{
		name:      name,
		vertices:  vertices,
		attrIndex: make(map[string]int),
		provider:  bgp.NewBindGroupProvider(name),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *mesh) Name() string {
	return m.name
}

func (m *mesh) VertexCount() int {
	return len(m.vertices)
}

func (m *mesh) HasTexCoords() bool {
	return m.hasUV
}

func (m *mesh) VertexData() []byte {
	stride := m.vertexStride()
	packed := make([]float32, 0, len(m.vertices)*stride)
	for _, v := range m.vertices {
		packed = append(packed, v.Position[0], v.Position[1], v.Position[2])
		if m.hasUV {
			packed = append(packed, v.UV[0], v.UV[1])
		}
	}
	return common.SliceToBytes(packed)
}

func (m *mesh) Indexed() bool {
	return len(m.indices) > 0
}

func (m *mesh) IndexData() []byte {
	return common.SliceToBytes(m.indices)
}

func (m *mesh) IndexCount() int {
	return len(m.indices)
}

func (m *mesh) Instanced() bool {
	return len(m.attributes) > 0
}

func (m *mesh) InstanceStride() int {
	return m.instanceStride
}

func (m *mesh) InstanceAttributeOffset(name string) (int, bool) {
	i, ok := m.attrIndex[name]
	if !ok {
		return 0, false
	}
	return m.attributes[i].offset, true
}

func (m *mesh) InstanceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.instanceCount
}

func (m *mesh) SetInstanceCount(count int) {
	if count < 0 {
		count = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if count == m.instanceCount {
		return
	}
	m.instanceCount = count
	m.instanceData = make([]float32, count*m.instanceStride)
	m.dataDirty = true
	m.bufferStale = true
}

func (m *mesh) SetInstanceProperty(index int, name string, data []float32) error {
	i, ok := m.attrIndex[name]
	if !ok {
		return fmt.Errorf("mesh %s: unknown instance attribute %q", m.name, name)
	}
	attr := m.attributes[i]
	if len(data) != attr.size {
		return fmt.Errorf("mesh %s: instance attribute %q expects %d floats, got %d", m.name, name, attr.size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= m.instanceCount {
		return fmt.Errorf("mesh %s: instance index %d out of range [0, %d)", m.name, index, m.instanceCount)
	}

	start := index*m.instanceStride + attr.offset
	copy(m.instanceData[start:start+attr.size], data)
	m.dataDirty = true
	return nil
}

func (m *mesh) InstanceData() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return common.SliceToBytes(m.instanceData)
}

func (m *mesh) FlushInstanceData() ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stale := m.bufferStale
	if !m.dataDirty && !stale {
		return nil, false
	}
	m.dataDirty = false
	m.bufferStale = false
	return common.SliceToBytes(m.instanceData), stale
}

func (m *mesh) VertexLayouts() []wgpu.VertexBufferLayout {
	vertexAttrs := []wgpu.VertexAttribute{{
		Format:         wgpu.VertexFormatFloat32x3,
		Offset:         0,
		ShaderLocation: 0,
	}}
	if m.hasUV {
		vertexAttrs = append(vertexAttrs, wgpu.VertexAttribute{
			Format:         wgpu.VertexFormatFloat32x2,
			Offset:         positionFloats * 4,
			ShaderLocation: 1,
		})
	}

	layouts := []wgpu.VertexBufferLayout{{
		ArrayStride: uint64(m.vertexStride() * 4),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  vertexAttrs,
	}}

	if len(m.attributes) > 0 {
		instAttrs := make([]wgpu.VertexAttribute, 0, len(m.attributes))
		for i, attr := range m.attributes {
			instAttrs = append(instAttrs, wgpu.VertexAttribute{
				Format: formatForSize(attr.size),
				Offset: uint64(attr.offset * 4),
				// Instance attributes start at location 2 so shaders can keep
				// fixed slots for position and UV.
				ShaderLocation: uint32(2 + i),
			})
		}
		layouts = append(layouts, wgpu.VertexBufferLayout{
			ArrayStride: uint64(m.instanceStride * 4),
			StepMode:    wgpu.VertexStepModeInstance,
			Attributes:  instAttrs,
		})
	}
	return layouts
}

func (m *mesh) Provider() bgp.BindGroupProvider {
	return m.provider
}

// vertexStride returns the per-vertex float count.
func (m *mesh) vertexStride() int {
	if m.hasUV {
		return positionFloats + uvFloats
	}
	return positionFloats
}

// formatForSize maps a declared attribute float count to a GPU vertex format.
func formatForSize(size int) wgpu.VertexFormat {
	switch size {
	case 1:
		return wgpu.VertexFormatFloat32
	case 2:
		return wgpu.VertexFormatFloat32x2
	case 3:
		return wgpu.VertexFormatFloat32x3
	default:
		return wgpu.VertexFormatFloat32x4
	}
}
