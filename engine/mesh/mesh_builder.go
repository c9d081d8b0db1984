package mesh

import "fmt"

// MeshBuilderOption is a functional option for configuring a Mesh.
// Use the With* functions to create options.
type MeshBuilderOption func(m *mesh)

// WithTexCoords enables texture coordinates: each vertex's UV pair is packed
// into the vertex buffer after its position.
//
// Returns:
//   - MeshBuilderOption: option function to apply
func WithTexCoords() MeshBuilderOption {
	return func(m *mesh) {
		m.hasUV = true
	}
}

// WithIndices provides an index buffer for the mesh. Indexed meshes draw one
// triangle per three indices instead of per three vertices.
//
// Parameters:
//   - indices: the triangle list indices
//
// Returns:
//   - MeshBuilderOption: option function to apply
func WithIndices(indices []uint32) MeshBuilderOption {
	return func(m *mesh) {
		m.indices = indices
	}
}

// WithInstanceAttribute declares one per-instance attribute. Attributes are
// laid out in declaration order; each one's offset is the sum of the sizes
// declared before it, and the layout never changes after construction.
// Panics on a duplicate name or a size outside [1, 4], since the instance
// layout is part of the mesh's construction contract.
//
// Parameters:
//   - name: the attribute name used with SetInstanceProperty
//   - size: the attribute's float count (1 to 4)
//
// Returns:
//   - MeshBuilderOption: option function to apply
func WithInstanceAttribute(name string, size int) MeshBuilderOption {
	return func(m *mesh) {
		if size < 1 || size > 4 {
			panic(fmt.Sprintf("mesh %s: instance attribute %q size %d outside [1, 4]", m.name, name, size))
		}
		if _, exists := m.attrIndex[name]; exists {
			panic(fmt.Sprintf("mesh %s: duplicate instance attribute %q", m.name, name))
		}
		m.attrIndex[name] = len(m.attributes)
		m.attributes = append(m.attributes, instanceAttribute{
			name:   name,
			size:   size,
			offset: m.instanceStride,
		})
		m.instanceStride += size
	}
}

// WithInstanceCount sets the initial instance count. Equivalent to calling
// SetInstanceCount immediately after construction. Pass it after all
// WithInstanceAttribute options so the layout's stride is complete.
//
// Parameters:
//   - count: the initial instance count
//
// Returns:
//   - MeshBuilderOption: option function to apply
func WithInstanceCount(count int) MeshBuilderOption {
	return func(m *mesh) {
		if count < 0 {
			count = 0
		}
		m.instanceCount = count
		m.instanceData = make([]float32, count*m.instanceStride)
		m.dataDirty = true
		m.bufferStale = true
	}
}
