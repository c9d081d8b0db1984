package camera

import (
	"math"
	"sync"
)

// CameraController provides pan and zoom controls on top of a Camera. It is
// the glue between window input callbacks and camera state: scroll events feed
// ZoomAt, mouse drags feed the drag methods, and key handlers feed the
// directional pan steps.
type CameraController interface {
	// Camera retrieves the controlled camera.
	//
	// Returns:
	//   - Camera: the camera this controller drives
	Camera() Camera

	// PanBy moves the camera center by a world-space delta.
	//
	// Parameters:
	//   - dx, dy: the world-unit offsets
	PanBy(dx, dy float32)

	// PanLeft moves the camera one pan-speed step in -x.
	PanLeft()

	// PanRight moves the camera one pan-speed step in +x.
	PanRight()

	// PanUp moves the camera one pan-speed step in +y.
	PanUp()

	// PanDown moves the camera one pan-speed step in -y.
	PanDown()

	// ZoomIn magnifies by one zoom step.
	ZoomIn()

	// ZoomOut widens the view by one zoom step.
	ZoomOut()

	// ZoomAt applies scroll input as a zoom change anchored at a viewport pixel:
	// the world point under the cursor stays under the cursor. Positive scroll
	// notches zoom in.
	//
	// Parameters:
	//   - px, py: the cursor position in viewport pixels
	//   - notches: the scroll amount in wheel notches
	ZoomAt(px, py, notches float64)

	// BeginDrag starts a pan drag at a viewport pixel position.
	//
	// Parameters:
	//   - px, py: the cursor position in viewport pixels
	BeginDrag(px, py float64)

	// Drag continues an active pan drag: the camera moves so the world point
	// grabbed at BeginDrag stays under the cursor. No-op when no drag is active.
	//
	// Parameters:
	//   - px, py: the cursor position in viewport pixels
	Drag(px, py float64)

	// EndDrag finishes an active pan drag.
	EndDrag()

	// Dragging reports whether a pan drag is active.
	//
	// Returns:
	//   - bool: true while a drag is in progress
	Dragging() bool
}

// cameraController is the implementation of the CameraController interface.
type cameraController struct {
	mu sync.Mutex

	cam Camera
	// panSpeed is the world-unit distance of one directional pan step.
	panSpeed float32
	// zoomStep is the multiplicative zoom change of one step or scroll notch.
	zoomStep float32

	dragging     bool
	lastX, lastY float64
}

var _ CameraController = &cameraController{}

// NewCameraController creates a pan/zoom controller for the given camera.
// Defaults: a pan step of 1/10th of the logical height and a 1.1x zoom step.
//
// Parameters:
//   - cam: the camera to control (must be non-nil)
//   - options: a variadic list of options to configure the controller
//
// Returns:
//   - CameraController: the configured controller
func NewCameraController(cam Camera, options ...CameraControllerBuilderOption) CameraController {
	if cam == nil {
		panic("camera controller: no camera provided")
	}
	c := &cameraController{
		cam:      cam,
		panSpeed: cam.LogicalHeight() / 10,
		zoomStep: 1.1,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *cameraController) Camera() Camera {
	return c.cam
}

func (c *cameraController) PanBy(dx, dy float32) {
	x, y := c.cam.Position()
	c.cam.SetPosition(x+dx, y+dy)
}

// Directional steps scale inversely with zoom so a step covers the same
// fraction of the screen at any magnification.
func (c *cameraController) step() float32 {
	return c.panSpeed / c.cam.Zoom()
}

func (c *cameraController) PanLeft()  { c.PanBy(-c.step(), 0) }
func (c *cameraController) PanRight() { c.PanBy(c.step(), 0) }
func (c *cameraController) PanUp()    { c.PanBy(0, c.step()) }
func (c *cameraController) PanDown()  { c.PanBy(0, -c.step()) }

func (c *cameraController) ZoomIn() {
	c.cam.SetZoom(c.cam.Zoom() * c.zoomStep)
}

func (c *cameraController) ZoomOut() {
	c.cam.SetZoom(c.cam.Zoom() / c.zoomStep)
}

func (c *cameraController) ZoomAt(px, py, notches float64) {
	anchorX, anchorY := c.cam.ScreenToWorld(px, py)

	factor := math.Pow(float64(c.zoomStep), notches)
	c.cam.SetZoom(c.cam.Zoom() * float32(factor))

	// Shift the camera so the anchor point is back under the cursor.
	newX, newY := c.cam.ScreenToWorld(px, py)
	c.PanBy(anchorX-newX, anchorY-newY)
}

func (c *cameraController) BeginDrag(px, py float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dragging = true
	c.lastX, c.lastY = px, py
}

func (c *cameraController) Drag(px, py float64) {
	c.mu.Lock()
	if !c.dragging {
		c.mu.Unlock()
		return
	}
	lastX, lastY := c.lastX, c.lastY
	c.lastX, c.lastY = px, py
	c.mu.Unlock()

	prevX, prevY := c.cam.ScreenToWorld(lastX, lastY)
	curX, curY := c.cam.ScreenToWorld(px, py)
	c.PanBy(prevX-curX, prevY-curY)
}

func (c *cameraController) EndDrag() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dragging = false
}

func (c *cameraController) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}
