package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewProjectionDefaults(t *testing.T) {
	c := NewCamera(WithViewport(1600, 900))

	t.Run("origin at zoom one is scaling only", func(t *testing.T) {
		vp := c.ViewProjection()
		require.Len(t, vp, 16)

		// 10 world units tall, 16:9 wide.
		assert.InDelta(t, 2.0/(10.0*16.0/9.0), vp[0], 1e-5)
		assert.InDelta(t, 2.0/10.0, vp[5], 1e-5)

		// No x/y translation when centered on the origin.
		assert.Zero(t, vp[12])
		assert.Zero(t, vp[13])
	})

	t.Run("matrix is rebuilt on every call", func(t *testing.T) {
		before := c.ViewProjection()
		c.SetPosition(5, -3)
		after := c.ViewProjection()

		assert.NotEqual(t, before, after)
		// Scale terms are untouched by a pan.
		assert.Equal(t, before[0], after[0])
		assert.Equal(t, before[5], after[5])

		c.SetPosition(0, 0)
	})
}

func TestViewProjectionMapsVisibleRect(t *testing.T) {
	c := NewCamera(
		WithViewport(800, 800),
		WithLogicalHeight(4),
		WithPosition(10, 20),
		WithZoom(2),
	)

	// Zoom 2 halves the visible height: 2 world units around (10, 20).
	left, right, bottom, top := c.VisibleRect()
	assert.InDelta(t, 9.0, left, 1e-5)
	assert.InDelta(t, 11.0, right, 1e-5)
	assert.InDelta(t, 19.0, bottom, 1e-5)
	assert.InDelta(t, 21.0, top, 1e-5)

	vp := c.ViewProjection()

	// Camera center maps to clip origin, rect corners to clip corners.
	x, y := applyXY(vp, 10, 20)
	assert.InDelta(t, 0.0, x, 1e-5)
	assert.InDelta(t, 0.0, y, 1e-5)

	x, y = applyXY(vp, 9, 19)
	assert.InDelta(t, -1.0, x, 1e-5)
	assert.InDelta(t, -1.0, y, 1e-5)

	x, y = applyXY(vp, 11, 21)
	assert.InDelta(t, 1.0, x, 1e-5)
	assert.InDelta(t, 1.0, y, 1e-5)
}

func TestZoomClamping(t *testing.T) {
	c := NewCamera(WithZoomLimits(0.5, 4))

	c.SetZoom(100)
	assert.InDelta(t, 4.0, c.Zoom(), 1e-6)

	c.SetZoom(0.01)
	assert.InDelta(t, 0.5, c.Zoom(), 1e-6)

	t.Run("initial zoom is clamped too", func(t *testing.T) {
		clamped := NewCamera(WithZoomLimits(0.5, 4), WithZoom(9))
		assert.InDelta(t, 4.0, clamped.Zoom(), 1e-6)
	})
}

func TestSetViewportIgnoresZero(t *testing.T) {
	c := NewCamera(WithViewport(640, 480))

	c.SetViewport(0, 0)
	w, h := c.Viewport()
	assert.Equal(t, uint32(640), w)
	assert.Equal(t, uint32(480), h)

	c.SetViewport(1024, 768)
	w, h = c.Viewport()
	assert.Equal(t, uint32(1024), w)
	assert.Equal(t, uint32(768), h)
}

func TestScreenToWorld(t *testing.T) {
	c := NewCamera(WithViewport(400, 400), WithLogicalHeight(10))

	t.Run("viewport center is camera position", func(t *testing.T) {
		x, y := c.ScreenToWorld(200, 200)
		assert.InDelta(t, 0.0, x, 1e-5)
		assert.InDelta(t, 0.0, y, 1e-5)
	})

	t.Run("top-left pixel is rect top-left", func(t *testing.T) {
		x, y := c.ScreenToWorld(0, 0)
		assert.InDelta(t, -5.0, x, 1e-5)
		assert.InDelta(t, 5.0, y, 1e-5)
	})

	t.Run("bottom-right pixel is rect bottom-right", func(t *testing.T) {
		x, y := c.ScreenToWorld(400, 400)
		assert.InDelta(t, 5.0, x, 1e-5)
		assert.InDelta(t, -5.0, y, 1e-5)
	})
}

func TestUniformMarshal(t *testing.T) {
	c := NewCamera(WithViewport(100, 100), WithPosition(3, 4), WithZoom(2))

	u := c.Uniform()
	assert.Equal(t, [2]float32{3, 4}, u.Position)
	assert.InDelta(t, 2.0, u.Zoom, 1e-6)

	buf := u.Marshal()
	require.Len(t, buf, 80)
	assert.Equal(t, 80, u.Size())
}

func TestCameraController(t *testing.T) {
	newRig := func() (Camera, CameraController) {
		cam := NewCamera(WithViewport(400, 400), WithLogicalHeight(10))
		return cam, NewCameraController(cam, WithPanSpeed(1), WithZoomStep(2))
	}

	t.Run("directional pan steps", func(t *testing.T) {
		cam, ctl := newRig()
		ctl.PanRight()
		ctl.PanUp()

		x, y := cam.Position()
		assert.InDelta(t, 1.0, x, 1e-5)
		assert.InDelta(t, 1.0, y, 1e-5)
	})

	t.Run("pan step shrinks with zoom", func(t *testing.T) {
		cam, ctl := newRig()
		cam.SetZoom(2)
		ctl.PanLeft()

		x, _ := cam.Position()
		assert.InDelta(t, -0.5, x, 1e-5)
	})

	t.Run("zoom steps are symmetric", func(t *testing.T) {
		cam, ctl := newRig()
		ctl.ZoomIn()
		assert.InDelta(t, 2.0, cam.Zoom(), 1e-5)
		ctl.ZoomOut()
		assert.InDelta(t, 1.0, cam.Zoom(), 1e-5)
	})

	t.Run("zoom at cursor anchors the world point", func(t *testing.T) {
		cam, ctl := newRig()
		wx, wy := cam.ScreenToWorld(100, 100)

		ctl.ZoomAt(100, 100, 1)

		ax, ay := cam.ScreenToWorld(100, 100)
		assert.InDelta(t, wx, ax, 1e-4)
		assert.InDelta(t, wy, ay, 1e-4)
		assert.InDelta(t, 2.0, cam.Zoom(), 1e-5)
	})

	t.Run("drag keeps the grabbed point under the cursor", func(t *testing.T) {
		cam, ctl := newRig()
		ctl.BeginDrag(200, 200)
		require.True(t, ctl.Dragging())

		// Dragging 40px right at 40px-per-world-unit pans one unit left.
		ctl.Drag(240, 200)
		x, y := cam.Position()
		assert.InDelta(t, -1.0, x, 1e-5)
		assert.InDelta(t, 0.0, y, 1e-5)

		ctl.EndDrag()
		assert.False(t, ctl.Dragging())

		ctl.Drag(300, 300)
		x, _ = cam.Position()
		assert.InDelta(t, -1.0, x, 1e-5)
	})
}

// applyXY transforms the point (x, y, 0, 1) by a column-major matrix.
func applyXY(m []float32, x, y float32) (float32, float32) {
	return m[0]*x + m[4]*y + m[12], m[1]*x + m[5]*y + m[13]
}
