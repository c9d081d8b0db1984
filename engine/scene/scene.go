package scene

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/quill2d/quill/engine/camera"
	"github.com/quill2d/quill/engine/drawable"
	"github.com/quill2d/quill/engine/renderer"
	"github.com/quill2d/quill/engine/renderer/bind_group_provider"
	"github.com/quill2d/quill/engine/renderer/material"
)

// Scene manages a registry of Drawables with a Camera and Renderer for
// rendering. Drawables are rendered in insertion order each frame.
// Scenes can be hot-swapped via the Active flag to switch between different views or levels.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// Renderer returns the scene's renderer.
	Renderer() renderer.Renderer

	// Count returns the number of Drawables in the scene's registry.
	//
	// Returns:
	//   - int: count of registered Drawables
	Count() int

	// Add adds a Drawable to the scene, initializes its mesh's GPU buffers,
	// and — when the drawable carries a material that is already ready —
	// initializes the material's GPU resources too. The drawable's pipeline
	// key must name a pipeline already registered on the scene's renderer.
	//
	// Panics when the pipeline key is unknown or GPU buffer creation fails,
	// since both are unrecoverable setup errors.
	//
	// Parameters:
	//   - d: the Drawable to add
	//
	// Returns:
	//   - uint64: the assigned drawable ID
	Add(d drawable.Drawable) uint64

	// Get retrieves a Drawable by its ID.
	// Returns nil if not found.
	//
	// Parameters:
	//   - id: the drawable's unique ID
	//
	// Returns:
	//   - drawable.Drawable: the drawable or nil
	Get(id uint64) drawable.Drawable

	// Remove removes a Drawable from the scene by ID. The drawable's GPU
	// resources are not released; call Release on its providers if needed.
	//
	// Parameters:
	//   - id: the drawable's unique ID
	Remove(id uint64)

	// Clear removes all drawables from the scene.
	// Does not release GPU resources.
	Clear()

	// PrepareFrame runs the CPU prep phase for the frame: drawable update
	// callbacks fan out across the scene's worker pool, then the camera
	// uniform, material tints, and dirty mesh instance data are coalesced
	// into a single buffer-write submission. Meshes whose instance count
	// changed get their instance buffer reallocated. Materials that finished
	// loading since the last frame get their GPU resources initialized.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	PrepareFrame(deltaTime float64)

	// DrawCalls issues a draw call for each enabled drawable in insertion
	// order. Drawables whose material is still loading are skipped for the
	// frame. Must be called within a BeginFrame/EndFrame block on the
	// renderer.
	//
	// Returns:
	//   - error: error if a draw call fails
	DrawCalls() error
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	drawables []drawable.Drawable // insertion order, drives DrawCalls
	registry  map[uint64]drawable.Drawable
	nextID    uint64

	cam camera.Camera
	r   renderer.Renderer

	// Pre-allocated slices and maps reused each frame to avoid per-frame allocations.
	writePool          []bind_group_provider.BufferWrite
	drawBindGroupsPool []bind_group_provider.BindGroupProvider
	seenMeshes         map[bind_group_provider.BindGroupProvider]bool

	// prepPool manages a bounded set of reusable goroutines for the parallel
	// update phase of PrepareFrame. Workers persist across frames, avoiding
	// per-frame goroutine spawn/teardown overhead.
	prepPool    worker.DynamicWorkerPool
	prepWorkers int
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene with the given camera and renderer. Both are
// required and NewScene panics if either is nil. The camera's bind group is
// initialized on the GPU here so its uniform buffer exists before the first
// frame.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - r: the renderer to attach (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}

	s := &scene{
		mu:                 &sync.RWMutex{},
		name:               name,
		active:             false,
		cam:                cam,
		r:                  r,
		registry:           make(map[uint64]drawable.Drawable),
		nextID:             1,
		prepWorkers:        max(runtime.NumCPU()-1, 1),
		drawBindGroupsPool: make([]bind_group_provider.BindGroupProvider, 0, 2),
		seenMeshes:         make(map[bind_group_provider.BindGroupProvider]bool),
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the prep pool after options so WithPrepWorkers can override the default.
	// Queue size of 256 accommodates typical drawable counts with headroom.
	s.prepPool = worker.NewDynamicWorkerPool(s.prepWorkers, 256, 1*time.Second)

	// Initialize the camera's bind group on the GPU.
	camUniform := cam.Uniform()
	sizeOverrides := map[int]uint64{0: uint64(camUniform.Size())}
	if err := r.InitBindGroup(cam.BindGroupProvider(), camera.BindGroupLayoutDescriptor(), nil, sizeOverrides); err != nil {
		panic(fmt.Sprintf("scene: failed to init camera bind group: %v", err))
	}

	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) Renderer() renderer.Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Add(d drawable.Drawable) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.r.Pipeline(d.PipelineKey()) == nil {
		panic(fmt.Sprintf("scene: drawable %q references unregistered pipeline %q", d.Name(), d.PipelineKey()))
	}

	if d.ID() == 0 {
		d.SetID(s.nextID)
		s.nextID++
	}

	msh := d.Mesh()
	provider := msh.Provider()

	// Upload geometry once per mesh. Shared meshes keep their buffers from
	// the first Add.
	if provider.VertexBuffer() == nil {
		if err := s.r.InitMeshBuffers(provider, msh.VertexData(), msh.VertexCount(), msh.IndexData(), msh.IndexCount()); err != nil {
			panic(fmt.Sprintf("scene: failed to init mesh buffers for drawable %q: %v", d.Name(), err))
		}
	}

	// Consume any pending instance-data state so the frame loop starts clean,
	// then upload the current contents.
	if msh.Instanced() {
		data, _ := msh.FlushInstanceData()
		if data == nil {
			data = msh.InstanceData()
		}
		if err := s.r.InitInstanceBuffer(provider, data, uint64(len(data))); err != nil {
			panic(fmt.Sprintf("scene: failed to init instance buffer for drawable %q: %v", d.Name(), err))
		}
	}

	if mat := d.Material(); mat != nil {
		// Fire-and-forget: textured materials start decoding now and get their
		// GPU resources on the first frame the staging data is ready.
		mat.Load()
		if mat.Ready() {
			s.initMaterialGPU(mat)
		}
	}

	s.registry[d.ID()] = d
	s.drawables = append(s.drawables, d)

	return d.ID()
}

func (s *scene) Get(id uint64) drawable.Drawable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, exists := s.registry[id]
	if !exists {
		return
	}

	delete(s.registry, id)
	for i, existing := range s.drawables {
		if existing == d {
			s.drawables = append(s.drawables[:i], s.drawables[i+1:]...)
			break
		}
	}
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry = make(map[uint64]drawable.Drawable)
	s.drawables = nil
}

// initMaterialGPU uploads a ready material's texture and sampler and creates
// its bind group. No-op when the bind group already exists or the staging data
// was already consumed. Caller must hold s.mu.
func (s *scene) initMaterialGPU(mat material.Material) {
	provider := mat.BindGroupProvider()
	if provider.BindGroup() != nil {
		return
	}

	descriptor := material.TintBindGroupLayoutDescriptor()
	if mat.Textured() {
		descriptor = material.TexturedBindGroupLayoutDescriptor()

		mipChain := mat.TakeStagingData()
		if mipChain == nil {
			return // another drawable consumed it this frame; bind group follows
		}
		if err := s.r.InitTextureView(provider, 1, mipChain); err != nil {
			panic(fmt.Sprintf("scene: failed to init texture for material %q: %v", mat.Name(), err))
		}
		if err := s.r.InitSampler(provider, 2, mat.SamplerData()); err != nil {
			panic(fmt.Sprintf("scene: failed to init sampler for material %q: %v", mat.Name(), err))
		}
	}

	tint := material.GPUTintParams{Tint: mat.Tint()}
	sizeOverrides := map[int]uint64{0: uint64(tint.Size())}
	if err := s.r.InitBindGroup(provider, descriptor, nil, sizeOverrides); err != nil {
		panic(fmt.Sprintf("scene: failed to init bind group for material %q: %v", mat.Name(), err))
	}
	s.r.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: provider, Binding: 0, Offset: 0, Data: tint.Marshal()},
	})
}

func (s *scene) PrepareFrame(deltaTime float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.r == nil {
		return
	}

	// Phase 1: parallel update callbacks — submit each enabled drawable's
	// update work to the prep pool. Workers are reused across frames (no
	// goroutine spawn overhead). A WaitGroup provides per-frame barrier sync
	// since pool.Wait() blocks until workers idle-exit which is unsuitable
	// for frame-rate workloads.
	var wg sync.WaitGroup
	taskID := 0
	for _, d := range s.drawables {
		if !d.Enabled() {
			continue
		}
		wg.Add(1)
		dCap := d // capture for closure
		id := taskID
		taskID++
		s.prepPool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				dCap.Update(deltaTime)
				return nil, nil
			},
		})
	}
	wg.Wait()

	// Phase 2: coalesced GPU submission — collect the camera uniform, material
	// tints, and dirty instance data from all drawables into a single slice,
	// then submit once to the renderer. Meshes whose instance count changed
	// need a fresh GPU buffer instead of a write into the old one.
	allWrites := s.writePool[:0]

	camUniform := s.cam.Uniform()
	allWrites = append(allWrites, bind_group_provider.BufferWrite{
		Provider: s.cam.BindGroupProvider(),
		Binding:  0,
		Offset:   0,
		Data:     camUniform.Marshal(),
	})

	clear(s.seenMeshes)
	for _, d := range s.drawables {
		if !d.Enabled() {
			continue
		}

		if mat := d.Material(); mat != nil && mat.Ready() {
			provider := mat.BindGroupProvider()
			if provider.BindGroup() == nil {
				// Async load completed since the last frame.
				s.initMaterialGPU(mat)
			} else {
				tint := material.GPUTintParams{Tint: mat.Tint()}
				allWrites = append(allWrites, bind_group_provider.BufferWrite{
					Provider: provider,
					Binding:  0,
					Offset:   0,
					Data:     tint.Marshal(),
				})
			}
		}

		msh := d.Mesh()
		provider := msh.Provider()
		if !msh.Instanced() || s.seenMeshes[provider] {
			continue
		}
		s.seenMeshes[provider] = true

		data, stale := msh.FlushInstanceData()
		if data == nil && !stale {
			continue
		}
		if stale {
			if err := s.r.InitInstanceBuffer(provider, data, uint64(len(data))); err != nil {
				panic(fmt.Sprintf("scene: failed to reallocate instance buffer for drawable %q: %v", d.Name(), err))
			}
			continue
		}
		allWrites = append(allWrites, bind_group_provider.BufferWrite{
			Provider: provider,
			Instance: true,
			Offset:   0,
			Data:     data,
		})
	}
	s.writePool = allWrites

	if len(allWrites) > 0 {
		s.r.WriteBuffers(allWrites)
	}
}

func (s *scene) DrawCalls() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.r == nil {
		return fmt.Errorf("scene %q has no renderer attached", s.name)
	}

	for _, d := range s.drawables {
		if !d.Enabled() {
			continue
		}

		msh := d.Mesh()
		instanceCount := uint32(1)
		if msh.Instanced() {
			count := msh.InstanceCount()
			if count == 0 {
				continue
			}
			instanceCount = uint32(count)
		}

		bindGroups := s.drawBindGroupsPool[:0]
		bindGroups = append(bindGroups, s.cam.BindGroupProvider())

		if mat := d.Material(); mat != nil {
			// Still loading (or failed): skip the draw this frame.
			if !mat.Ready() || mat.BindGroupProvider().BindGroup() == nil {
				continue
			}
			bindGroups = append(bindGroups, mat.BindGroupProvider())
		}

		if err := s.r.DrawCall(d.PipelineKey(), msh.Provider(), instanceCount, bindGroups); err != nil {
			return fmt.Errorf("draw call failed for drawable %q in scene %q: %w", d.Name(), s.name, err)
		}
	}

	return nil
}
