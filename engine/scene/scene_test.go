package scene

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill2d/quill/common"
	"github.com/quill2d/quill/engine/camera"
	"github.com/quill2d/quill/engine/drawable"
	"github.com/quill2d/quill/engine/mesh"
	"github.com/quill2d/quill/engine/renderer"
	bgp "github.com/quill2d/quill/engine/renderer/bind_group_provider"
	"github.com/quill2d/quill/engine/renderer/material"
	"github.com/quill2d/quill/engine/renderer/pipeline"
)

// recordedDraw captures one DrawCall as seen by the fake renderer.
type recordedDraw struct {
	pipelineKey   string
	meshLabel     string
	instanceCount uint32
	bindGroups    int
}

// fakeRenderer is a recording stand-in for the GPU-backed renderer. It tracks
// every resource-init and submission call so tests can assert on the scene's
// frame protocol without a device.
type fakeRenderer struct {
	mu        sync.Mutex
	pipelines map[string]pipeline.Pipeline

	bindGroupInits []string
	textureInits   []string
	samplerInits   []string
	instanceInits  map[string]int
	instanceCaps   map[string]uint64
	writeBatches   [][]bgp.BufferWrite
	draws          []recordedDraw

	drawErr error
}

var _ renderer.Renderer = &fakeRenderer{}

func newFakeRenderer(pipelineKeys ...string) *fakeRenderer {
	f := &fakeRenderer{
		pipelines:     make(map[string]pipeline.Pipeline),
		instanceInits: make(map[string]int),
		instanceCaps:  make(map[string]uint64),
	}
	for _, key := range pipelineKeys {
		f.pipelines[key] = pipeline.NewPipeline(key)
	}
	return f
}

func (f *fakeRenderer) Pipeline(key string) pipeline.Pipeline {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pipelines[key]
}

func (f *fakeRenderer) Pipelines() map[string]pipeline.Pipeline {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pipelines
}

func (f *fakeRenderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range pipelines {
		f.pipelines[p.PipelineKey()] = p
	}
	return nil
}

func (f *fakeRenderer) SetPipeline(key string, p pipeline.Pipeline) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pipelines[key] = p
}

func (f *fakeRenderer) Resize(width, height int) {}

func (f *fakeRenderer) InitMeshBuffers(provider bgp.BindGroupProvider, vertexData []byte, vertexCount int, indexData []byte, indexCount int) error {
	return nil
}

func (f *fakeRenderer) InitInstanceBuffer(provider bgp.BindGroupProvider, data []byte, capacity uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instanceInits[provider.Label()]++
	f.instanceCaps[provider.Label()] = capacity
	return nil
}

func (f *fakeRenderer) InitBindGroup(provider bgp.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	provider.SetBindGroup(new(wgpu.BindGroup))
	f.bindGroupInits = append(f.bindGroupInits, provider.Label())
	return nil
}

func (f *fakeRenderer) InitTextureView(provider bgp.BindGroupProvider, bindingKey int, mipChain []common.TextureStagingData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textureInits = append(f.textureInits, provider.Label())
	return nil
}

func (f *fakeRenderer) InitSampler(provider bgp.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samplerInits = append(f.samplerInits, provider.Label())
	return nil
}

func (f *fakeRenderer) WriteBuffers(writes []bgp.BufferWrite) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// The scene reuses its write slice across frames; keep a copy.
	f.writeBatches = append(f.writeBatches, append([]bgp.BufferWrite(nil), writes...))
}

func (f *fakeRenderer) BeginFrame() error { return nil }

func (f *fakeRenderer) DrawCall(pipelineKey string, meshProvider bgp.BindGroupProvider, instanceCount uint32, bindGroups []bgp.BindGroupProvider) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.drawErr != nil {
		return f.drawErr
	}
	f.draws = append(f.draws, recordedDraw{
		pipelineKey:   pipelineKey,
		meshLabel:     meshProvider.Label(),
		instanceCount: instanceCount,
		bindGroups:    len(bindGroups),
	})
	return nil
}

func (f *fakeRenderer) EndFrame() {}

func (f *fakeRenderer) Present() {}

func (f *fakeRenderer) SetPresentMode(mode renderer.PresentMode) {}

// lastBatch returns the most recent WriteBuffers submission.
func (f *fakeRenderer) lastBatch(t *testing.T) []bgp.BufferWrite {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.writeBatches, "no WriteBuffers submission recorded")
	return f.writeBatches[len(f.writeBatches)-1]
}

func (f *fakeRenderer) drawOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	labels := make([]string, len(f.draws))
	for i, d := range f.draws {
		labels[i] = d.meshLabel
	}
	return labels
}

func triangleMesh(t *testing.T, name string) mesh.Mesh {
	t.Helper()
	return mesh.NewMesh(name, []mesh.Vertex{
		{Position: [3]float32{0, 0.5, 0}},
		{Position: [3]float32{-0.5, -0.5, 0}},
		{Position: [3]float32{0.5, -0.5, 0}},
	})
}

func instancedTriangleMesh(t *testing.T, name string, count int) mesh.Mesh {
	t.Helper()
	return mesh.NewMesh(name, []mesh.Vertex{
		{Position: [3]float32{0, 0.5, 0}},
		{Position: [3]float32{-0.5, -0.5, 0}},
		{Position: [3]float32{0.5, -0.5, 0}},
	},
		mesh.WithInstanceAttribute("offset", 2),
		mesh.WithInstanceCount(count),
	)
}

func flatDrawable(t *testing.T, name string, m mesh.Mesh, options ...drawable.DrawableBuilderOption) drawable.Drawable {
	t.Helper()
	options = append([]drawable.DrawableBuilderOption{
		drawable.WithMesh(m),
		drawable.WithPipelineKey("flat"),
	}, options...)
	return drawable.NewDrawable(name, options...)
}

func writeTestPNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := t.TempDir() + "/red.png"
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestNewSceneInitializesCameraBindGroup(t *testing.T) {
	f := newFakeRenderer("flat")
	cam := camera.NewCamera()

	NewScene("test", cam, f)

	assert.Equal(t, []string{"camera"}, f.bindGroupInits)
	assert.NotNil(t, cam.BindGroupProvider().BindGroup())
}

func TestNewSceneRequiresCameraAndRenderer(t *testing.T) {
	assert.PanicsWithValue(t, "scene: NewScene requires a non-nil Camera", func() {
		NewScene("broken", nil, newFakeRenderer())
	})
	assert.PanicsWithValue(t, "scene: NewScene requires a non-nil Renderer", func() {
		NewScene("broken", camera.NewCamera(), nil)
	})
}

func TestAddPanicsOnUnregisteredPipeline(t *testing.T) {
	s := NewScene("test", camera.NewCamera(), newFakeRenderer("flat"))

	assert.PanicsWithValue(t,
		`scene: drawable "ghost" references unregistered pipeline "missing"`,
		func() {
			s.Add(drawable.NewDrawable("ghost",
				drawable.WithMesh(triangleMesh(t, "ghost-mesh")),
				drawable.WithPipelineKey("missing"),
			))
		},
	)
}

func TestDrawCallsInsertionOrder(t *testing.T) {
	f := newFakeRenderer("flat")
	s := NewScene("test", camera.NewCamera(), f)

	s.Add(flatDrawable(t, "a", triangleMesh(t, "mesh-a")))
	bID := s.Add(flatDrawable(t, "b", triangleMesh(t, "mesh-b")))
	s.Add(flatDrawable(t, "c", triangleMesh(t, "mesh-c")))

	require.NoError(t, s.DrawCalls())
	assert.Equal(t, []string{"mesh-a", "mesh-b", "mesh-c"}, f.drawOrder())

	// Removal keeps the remaining drawables in their original order.
	s.Remove(bID)
	f.draws = nil
	require.NoError(t, s.DrawCalls())
	assert.Equal(t, []string{"mesh-a", "mesh-c"}, f.drawOrder())
}

func TestDrawCallsSkipsUnreadyMaterial(t *testing.T) {
	f := newFakeRenderer("flat")
	s := NewScene("test", camera.NewCamera(), f)

	tinted := material.NewMaterial("tinted", material.WithTint([4]float32{1, 0, 0, 1}))
	pending := material.NewMaterial("pending", material.WithTexturePath("does/not/exist.png"))

	s.Add(flatDrawable(t, "tinted", triangleMesh(t, "mesh-tinted"), drawable.WithMaterial(tinted)))
	s.Add(flatDrawable(t, "pending", triangleMesh(t, "mesh-pending"), drawable.WithMaterial(pending)))
	s.Add(flatDrawable(t, "plain", triangleMesh(t, "mesh-plain")))

	require.NoError(t, s.DrawCalls())

	// The still-loading textured drawable is skipped; the rest draw in order.
	assert.Equal(t, []string{"mesh-tinted", "mesh-plain"}, f.drawOrder())
	assert.Equal(t, 2, f.draws[0].bindGroups, "material drawable binds camera and material groups")
	assert.Equal(t, 1, f.draws[1].bindGroups, "bare drawable binds only the camera group")
}

func TestDrawCallsSkipsDisabledAndEmptyInstanced(t *testing.T) {
	f := newFakeRenderer("flat")
	s := NewScene("test", camera.NewCamera(), f)

	off := flatDrawable(t, "off", triangleMesh(t, "mesh-off"), drawable.WithEnabled(false))
	s.Add(off)

	empty := instancedTriangleMesh(t, "mesh-empty", 2)
	s.Add(flatDrawable(t, "empty", empty))
	empty.SetInstanceCount(0)

	full := instancedTriangleMesh(t, "mesh-full", 3)
	s.Add(flatDrawable(t, "full", full))

	require.NoError(t, s.DrawCalls())
	require.Equal(t, []string{"mesh-full"}, f.drawOrder())
	assert.Equal(t, uint32(3), f.draws[0].instanceCount)
}

func TestDrawCallsWrapsRendererError(t *testing.T) {
	f := newFakeRenderer("flat")
	s := NewScene("arena", camera.NewCamera(), f)
	s.Add(flatDrawable(t, "crasher", triangleMesh(t, "mesh-crasher")))

	f.drawErr = assert.AnError
	err := s.DrawCalls()
	require.ErrorIs(t, err, assert.AnError)
	assert.ErrorContains(t, err, `draw call failed for drawable "crasher" in scene "arena"`)
}

func TestPrepareFrameWritesCameraUniformEveryFrame(t *testing.T) {
	f := newFakeRenderer("flat")
	cam := camera.NewCamera()
	s := NewScene("test", cam, f)

	s.PrepareFrame(0.016)
	s.PrepareFrame(0.016)

	require.Len(t, f.writeBatches, 2)
	uniform := cam.Uniform()
	for _, batch := range f.writeBatches {
		require.NotEmpty(t, batch)
		assert.Same(t, cam.BindGroupProvider(), batch[0].Provider)
		assert.Equal(t, 0, batch[0].Binding)
		assert.Len(t, batch[0].Data, uniform.Size())
	}
}

func TestPrepareFrameRoutesInstanceDataWrites(t *testing.T) {
	f := newFakeRenderer("flat")
	s := NewScene("test", camera.NewCamera(), f)

	m := instancedTriangleMesh(t, "quads", 3)
	s.Add(flatDrawable(t, "quads", m))
	require.Equal(t, 1, f.instanceInits["quads"], "Add uploads the initial instance buffer")

	// A plain property write coalesces into the frame's buffer submission.
	require.NoError(t, m.SetInstanceProperty(1, "offset", []float32{1, 2}))
	s.PrepareFrame(0.016)

	assert.Equal(t, 1, f.instanceInits["quads"], "dirty data alone must not reallocate")
	batch := f.lastBatch(t)
	var instanceWrites int
	for _, w := range batch {
		if w.Instance {
			instanceWrites++
			assert.Len(t, w.Data, 3*2*4)
		}
	}
	assert.Equal(t, 1, instanceWrites)

	// A count change reallocates the buffer instead of writing into the old one.
	m.SetInstanceCount(5)
	s.PrepareFrame(0.016)

	assert.Equal(t, 2, f.instanceInits["quads"])
	assert.Equal(t, uint64(5*2*4), f.instanceCaps["quads"])
	for _, w := range f.lastBatch(t) {
		assert.False(t, w.Instance, "stale buffer must not receive a coalesced write")
	}

	// A clean frame submits only the camera uniform.
	s.PrepareFrame(0.016)
	assert.Len(t, f.lastBatch(t), 1)
}

func TestPrepareFrameFlushesSharedMeshOnce(t *testing.T) {
	f := newFakeRenderer("flat")
	s := NewScene("test", camera.NewCamera(), f)

	shared := instancedTriangleMesh(t, "shared", 2)
	s.Add(flatDrawable(t, "first", shared))
	s.Add(flatDrawable(t, "second", shared))

	require.NoError(t, shared.SetInstanceProperty(0, "offset", []float32{3, 4}))
	s.PrepareFrame(0.016)

	var instanceWrites int
	for _, w := range f.lastBatch(t) {
		if w.Instance {
			instanceWrites++
		}
	}
	assert.Equal(t, 1, instanceWrites)
}

func TestPrepareFrameRunsUpdateCallbacks(t *testing.T) {
	f := newFakeRenderer("flat")
	s := NewScene("test", camera.NewCamera(), f)

	var updates atomic.Int32
	onUpdate := func(d drawable.Drawable, deltaTime float64) {
		assert.InDelta(t, 0.25, deltaTime, 1e-9)
		updates.Add(1)
	}

	s.Add(flatDrawable(t, "a", triangleMesh(t, "mesh-a"), drawable.WithUpdate(onUpdate)))
	s.Add(flatDrawable(t, "b", triangleMesh(t, "mesh-b"), drawable.WithUpdate(onUpdate)))
	s.Add(flatDrawable(t, "off", triangleMesh(t, "mesh-off"),
		drawable.WithUpdate(onUpdate), drawable.WithEnabled(false)))

	s.PrepareFrame(0.25)
	assert.Equal(t, int32(2), updates.Load(), "disabled drawables skip the update phase")
}

func TestPrepareFrameInitializesMaterialWhenLoadCompletes(t *testing.T) {
	f := newFakeRenderer("flat")
	s := NewScene("test", camera.NewCamera(), f)

	mat := material.NewMaterial("decal", material.WithTexturePath(writeTestPNG(t)))
	s.Add(flatDrawable(t, "decal", triangleMesh(t, "mesh-decal"), drawable.WithMaterial(mat)))

	deadline := time.Now().Add(5 * time.Second)
	for !mat.Ready() {
		require.NoError(t, mat.LoadError())
		if time.Now().After(deadline) {
			t.Fatal("material never became ready")
		}
		time.Sleep(time.Millisecond)
	}

	s.PrepareFrame(0.016)

	assert.Equal(t, []string{"decal"}, f.textureInits)
	assert.Equal(t, []string{"decal"}, f.samplerInits)
	assert.NotNil(t, mat.BindGroupProvider().BindGroup())

	require.NoError(t, s.DrawCalls())
	require.Equal(t, []string{"mesh-decal"}, f.drawOrder())
	assert.Equal(t, 2, f.draws[0].bindGroups)
}
