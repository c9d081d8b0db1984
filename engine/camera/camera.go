// package camera provides the 2D camera: a world-space position and zoom
// factor that map a logical rectangle of the world onto the viewport.
package camera

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/quill2d/quill/common"
	bgp "github.com/quill2d/quill/engine/renderer/bind_group_provider"
)

const (
	// defaultLogicalHeight is the world-unit height of the visible rectangle at zoom 1.
	defaultLogicalHeight = 10.0

	// defaultMinZoom and defaultMaxZoom bound the zoom factor so the visible
	// rectangle can neither collapse nor grow without limit.
	defaultMinZoom = 0.05
	defaultMaxZoom = 100.0
)

// camera is the implementation of the Camera interface.
type camera struct {
	mu sync.Mutex

	x, y          float32
	zoom          float32
	minZoom       float32
	maxZoom       float32
	logicalHeight float32

	viewportWidth  uint32
	viewportHeight uint32

	provider bgp.BindGroupProvider
}

// Camera maps a logical rectangle of the 2D world to clip space. The rectangle
// is centered on the camera position; its height is LogicalHeight divided by
// the zoom factor and its width follows the viewport aspect ratio. The
// view-projection matrix is recomputed from position, zoom, and viewport on
// every call, so there is no cached state to invalidate.
type Camera interface {
	// Position retrieves the camera's world-space center.
	//
	// Returns:
	//   - x, y: the world-space position
	Position() (x, y float32)

	// SetPosition moves the camera's world-space center.
	//
	// Parameters:
	//   - x, y: the new world-space position
	SetPosition(x, y float32)

	// Zoom retrieves the current zoom factor. Values above 1 magnify the world.
	//
	// Returns:
	//   - float32: the zoom factor
	Zoom() float32

	// SetZoom sets the zoom factor, clamped to the camera's zoom limits.
	//
	// Parameters:
	//   - zoom: the new zoom factor
	SetZoom(zoom float32)

	// Viewport retrieves the viewport size in physical pixels.
	//
	// Returns:
	//   - width, height: the viewport dimensions
	Viewport() (width, height uint32)

	// SetViewport updates the viewport size in physical pixels. Called on
	// window resize so the visible rectangle keeps the surface aspect ratio.
	//
	// Parameters:
	//   - width, height: the new viewport dimensions
	SetViewport(width, height uint32)

	// LogicalHeight retrieves the world-unit height of the visible rectangle at zoom 1.
	//
	// Returns:
	//   - float32: the logical height
	LogicalHeight() float32

	// VisibleRect retrieves the world-space rectangle currently mapped to the
	// viewport, derived fresh from position, zoom, and aspect ratio.
	//
	// Returns:
	//   - left, right, bottom, top: the rectangle edges in world units
	VisibleRect() (left, right, bottom, top float32)

	// ViewProjection computes the combined view-projection matrix mapping the
	// visible rectangle to clip space. The matrix is rebuilt from the current
	// position, zoom, and viewport on every call.
	//
	// Returns:
	//   - []float32: the 16-element column-major matrix
	ViewProjection() []float32

	// ScreenToWorld converts viewport pixel coordinates (origin top-left) to
	// world-space coordinates under the current view.
	//
	// Parameters:
	//   - px, py: the pixel position within the viewport
	//
	// Returns:
	//   - x, y: the world-space position
	ScreenToWorld(px, py float64) (x, y float32)

	// Uniform packs the current camera state into its GPU uniform layout.
	//
	// Returns:
	//   - GPUCameraUniform: the uniform snapshot for upload
	Uniform() GPUCameraUniform

	// BindGroupProvider retrieves the provider holding the camera's GPU uniform buffer.
	//
	// Returns:
	//   - bgp.BindGroupProvider: the camera's provider
	BindGroupProvider() bgp.BindGroupProvider
}

var _ Camera = &camera{}

// NewCamera creates a 2D camera with the provided options. Defaults: centered
// on the origin, zoom 1, a 10 world-unit logical height, and a 1x1 viewport
// until the window reports its real size.
//
// Parameters:
//   - options: a variadic list of options to configure the camera
//
// Returns:
//   - Camera: the configured camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &camera{
		zoom:           1,
		minZoom:        defaultMinZoom,
		maxZoom:        defaultMaxZoom,
		logicalHeight:  defaultLogicalHeight,
		viewportWidth:  1,
		viewportHeight: 1,
		provider:       bgp.NewBindGroupProvider("camera"),
	}
	for _, opt := range options {
		opt(c)
	}
	c.zoom = common.Clamp(c.zoom, c.minZoom, c.maxZoom)
	return c
}

func (c *camera) Position() (float32, float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.x, c.y
}

func (c *camera) SetPosition(x, y float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.x, c.y = x, y
}

func (c *camera) Zoom() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

func (c *camera) SetZoom(zoom float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = common.Clamp(zoom, c.minZoom, c.maxZoom)
}

func (c *camera) Viewport() (uint32, uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewportWidth, c.viewportHeight
}

func (c *camera) SetViewport(width, height uint32) {
	if width == 0 || height == 0 {
		// Minimized windows report zero; keep the last usable aspect ratio.
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewportWidth, c.viewportHeight = width, height
}

func (c *camera) LogicalHeight() float32 {
	return c.logicalHeight
}

func (c *camera) VisibleRect() (float32, float32, float32, float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleRectLocked()
}

func (c *camera) visibleRectLocked() (float32, float32, float32, float32) {
	aspect := float32(c.viewportWidth) / float32(c.viewportHeight)
	halfH := c.logicalHeight / (2 * c.zoom)
	halfW := halfH * aspect
	return c.x - halfW, c.x + halfW, c.y - halfH, c.y + halfH
}

func (c *camera) ViewProjection() []float32 {
	c.mu.Lock()
	left, right, bottom, top := c.visibleRectLocked()
	c.mu.Unlock()

	out := make([]float32, 16)
	common.Ortho(out, left, right, bottom, top, -1, 1)
	return out
}

func (c *camera) ScreenToWorld(px, py float64) (float32, float32) {
	c.mu.Lock()
	left, right, bottom, top := c.visibleRectLocked()
	w, h := c.viewportWidth, c.viewportHeight
	c.mu.Unlock()

	// Pixel origin is top-left; world y grows upward.
	fx := float32(px) / float32(w)
	fy := float32(py) / float32(h)
	return left + fx*(right-left), top - fy*(top-bottom)
}

func (c *camera) Uniform() GPUCameraUniform {
	vp := c.ViewProjection()

	c.mu.Lock()
	defer c.mu.Unlock()
	u := GPUCameraUniform{
		Position: [2]float32{c.x, c.y},
		Zoom:     c.zoom,
	}
	copy(u.ViewProj[:], vp)
	return u
}

func (c *camera) BindGroupProvider() bgp.BindGroupProvider {
	return c.provider
}

// BindGroupLayoutDescriptor is the canonical layout for the camera bind group:
// a single uniform buffer at binding 0, visible to the vertex stage.
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the camera bind group layout
func BindGroupLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "camera",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
		},
	}
}
