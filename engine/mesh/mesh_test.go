package mesh

import (
	"testing"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangleVertices() []Vertex {
	return []Vertex{
		{Position: [3]float32{-0.5, -0.5, 0}, UV: [2]float32{0, 1}},
		{Position: [3]float32{0.5, -0.5, 0}, UV: [2]float32{1, 1}},
		{Position: [3]float32{0, 0.5, 0}, UV: [2]float32{0.5, 0}},
	}
}

func floatsOf(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), len(data)/4)
}

func TestVertexDataInterleaving(t *testing.T) {
	t.Run("three vertices with tex coords pack to 15 floats", func(t *testing.T) {
		m := NewMesh("tri", triangleVertices(), WithTexCoords())

		floats := floatsOf(m.VertexData())
		require.Len(t, floats, 15)

		// First vertex: position then UV.
		assert.Equal(t, []float32{-0.5, -0.5, 0, 0, 1}, floats[0:5])
		// Second vertex starts at float 5.
		assert.Equal(t, []float32{0.5, -0.5, 0, 1, 1}, floats[5:10])
		assert.Equal(t, []float32{0, 0.5, 0, 0.5, 0}, floats[10:15])
	})

	t.Run("without tex coords packs positions only", func(t *testing.T) {
		m := NewMesh("tri", triangleVertices())

		floats := floatsOf(m.VertexData())
		require.Len(t, floats, 9)
		assert.Equal(t, []float32{-0.5, -0.5, 0}, floats[0:3])
		assert.Equal(t, []float32{0.5, -0.5, 0}, floats[3:6])
	})
}

func TestInstanceAttributeLayout(t *testing.T) {
	m := NewMesh("quads", triangleVertices(),
		WithInstanceAttribute("offset", 2),
		WithInstanceAttribute("scale", 1),
		WithInstanceAttribute("tint", 4),
	)

	t.Run("offsets are additive in declaration order", func(t *testing.T) {
		off, ok := m.InstanceAttributeOffset("offset")
		require.True(t, ok)
		assert.Equal(t, 0, off)

		off, ok = m.InstanceAttributeOffset("scale")
		require.True(t, ok)
		assert.Equal(t, 2, off)

		off, ok = m.InstanceAttributeOffset("tint")
		require.True(t, ok)
		assert.Equal(t, 3, off)

		assert.Equal(t, 7, m.InstanceStride())
	})

	t.Run("layout is stable across count changes", func(t *testing.T) {
		m.SetInstanceCount(16)
		m.SetInstanceCount(3)

		off, ok := m.InstanceAttributeOffset("tint")
		require.True(t, ok)
		assert.Equal(t, 3, off)
		assert.Equal(t, 7, m.InstanceStride())
	})

	t.Run("unknown attribute reports not found", func(t *testing.T) {
		_, ok := m.InstanceAttributeOffset("rotation")
		assert.False(t, ok)
	})
}

func TestSetInstanceProperty(t *testing.T) {
	newQuads := func() Mesh {
		return NewMesh("quads", triangleVertices(),
			WithInstanceAttribute("offset", 2),
			WithInstanceAttribute("tint", 4),
			WithInstanceCount(3),
		)
	}

	t.Run("writes land at the instance block offset", func(t *testing.T) {
		m := newQuads()
		require.NoError(t, m.SetInstanceProperty(0, "offset", []float32{1, 2}))
		require.NoError(t, m.SetInstanceProperty(2, "tint", []float32{0.1, 0.2, 0.3, 1}))

		floats := floatsOf(m.InstanceData())
		require.Len(t, floats, 18) // 3 instances * 6 floats
		assert.Equal(t, []float32{1, 2}, floats[0:2])
		// Instance 2 starts at float 12; tint sits 2 floats in.
		assert.Equal(t, []float32{0.1, 0.2, 0.3, 1}, floats[14:18])
	})

	t.Run("unknown attribute name errors", func(t *testing.T) {
		m := newQuads()
		err := m.SetInstanceProperty(0, "rotation", []float32{0})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown instance attribute "rotation"`)
	})

	t.Run("size mismatch errors", func(t *testing.T) {
		m := newQuads()
		err := m.SetInstanceProperty(0, "offset", []float32{1, 2, 3})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expects 2 floats, got 3")
	})

	t.Run("index out of range errors", func(t *testing.T) {
		m := newQuads()
		assert.Error(t, m.SetInstanceProperty(3, "offset", []float32{1, 2}))
		assert.Error(t, m.SetInstanceProperty(-1, "offset", []float32{1, 2}))
	})
}

func TestSetInstanceCountDiscardsData(t *testing.T) {
	m := NewMesh("quads", triangleVertices(),
		WithInstanceAttribute("offset", 2),
		WithInstanceCount(2),
	)
	require.NoError(t, m.SetInstanceProperty(0, "offset", []float32{9, 9}))

	m.SetInstanceCount(4)

	floats := floatsOf(m.InstanceData())
	require.Len(t, floats, 8)
	for i, f := range floats {
		assert.Zero(t, f, "float %d should be discarded", i)
	}
	assert.Equal(t, 4, m.InstanceCount())
}

func TestFlushInstanceData(t *testing.T) {
	m := NewMesh("quads", triangleVertices(),
		WithInstanceAttribute("offset", 2),
	)

	t.Run("nothing pending initially", func(t *testing.T) {
		data, stale := m.FlushInstanceData()
		assert.Nil(t, data)
		assert.False(t, stale)
	})

	t.Run("count change marks the buffer stale", func(t *testing.T) {
		m.SetInstanceCount(2)
		data, stale := m.FlushInstanceData()
		assert.Len(t, data, 16)
		assert.True(t, stale)
	})

	t.Run("property write alone is not stale", func(t *testing.T) {
		require.NoError(t, m.SetInstanceProperty(1, "offset", []float32{3, 4}))
		data, stale := m.FlushInstanceData()
		assert.Len(t, data, 16)
		assert.False(t, stale)

		data, stale = m.FlushInstanceData()
		assert.Nil(t, data)
		assert.False(t, stale)
	})
}

func TestVertexLayouts(t *testing.T) {
	t.Run("per-vertex slot only for plain meshes", func(t *testing.T) {
		m := NewMesh("tri", triangleVertices())

		layouts := m.VertexLayouts()
		require.Len(t, layouts, 1)
		assert.Equal(t, uint64(12), layouts[0].ArrayStride)
		assert.Equal(t, wgpu.VertexStepModeVertex, layouts[0].StepMode)
		require.Len(t, layouts[0].Attributes, 1)
		assert.Equal(t, wgpu.VertexFormatFloat32x3, layouts[0].Attributes[0].Format)
	})

	t.Run("uv adds location 1", func(t *testing.T) {
		m := NewMesh("tri", triangleVertices(), WithTexCoords())

		layouts := m.VertexLayouts()
		require.Len(t, layouts, 1)
		assert.Equal(t, uint64(20), layouts[0].ArrayStride)
		require.Len(t, layouts[0].Attributes, 2)
		assert.Equal(t, wgpu.VertexFormatFloat32x2, layouts[0].Attributes[1].Format)
		assert.Equal(t, uint64(12), layouts[0].Attributes[1].Offset)
		assert.Equal(t, uint32(1), layouts[0].Attributes[1].ShaderLocation)
	})

	t.Run("instance slot steps per instance from location 2", func(t *testing.T) {
		m := NewMesh("quads", triangleVertices(),
			WithInstanceAttribute("offset", 2),
			WithInstanceAttribute("tint", 4),
		)

		layouts := m.VertexLayouts()
		require.Len(t, layouts, 2)

		inst := layouts[1]
		assert.Equal(t, wgpu.VertexStepModeInstance, inst.StepMode)
		assert.Equal(t, uint64(24), inst.ArrayStride)
		require.Len(t, inst.Attributes, 2)

		assert.Equal(t, wgpu.VertexFormatFloat32x2, inst.Attributes[0].Format)
		assert.Equal(t, uint64(0), inst.Attributes[0].Offset)
		assert.Equal(t, uint32(2), inst.Attributes[0].ShaderLocation)

		assert.Equal(t, wgpu.VertexFormatFloat32x4, inst.Attributes[1].Format)
		assert.Equal(t, uint64(8), inst.Attributes[1].Offset)
		assert.Equal(t, uint32(3), inst.Attributes[1].ShaderLocation)
	})
}

func TestIndexedMesh(t *testing.T) {
	quad := []Vertex{
		{Position: [3]float32{-1, -1, 0}},
		{Position: [3]float32{1, -1, 0}},
		{Position: [3]float32{1, 1, 0}},
		{Position: [3]float32{-1, 1, 0}},
	}
	m := NewMesh("quad", quad, WithIndices([]uint32{0, 1, 2, 0, 2, 3}))

	assert.True(t, m.Indexed())
	assert.Equal(t, 6, m.IndexCount())
	assert.Len(t, m.IndexData(), 24)

	plain := NewMesh("tri", triangleVertices())
	assert.False(t, plain.Indexed())
	assert.Zero(t, plain.IndexCount())
	assert.Nil(t, plain.IndexData())
}

func TestNewMeshPanics(t *testing.T) {
	assert.Panics(t, func() { NewMesh("empty", nil) })
	assert.Panics(t, func() {
		NewMesh("dup", triangleVertices(),
			WithInstanceAttribute("offset", 2),
			WithInstanceAttribute("offset", 2),
		)
	})
	assert.Panics(t, func() {
		NewMesh("oversized", triangleVertices(), WithInstanceAttribute("big", 5))
	})
	assert.Panics(t, func() {
		NewMesh("zero", triangleVertices(), WithInstanceAttribute("none", 0))
	})
}

func TestProviderLabel(t *testing.T) {
	m := NewMesh("tri", triangleVertices())
	require.NotNil(t, m.Provider())
	assert.Equal(t, "tri", m.Provider().Label())
}
