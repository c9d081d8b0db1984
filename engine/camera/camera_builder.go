package camera

// CameraBuilderOption is a functional option for configuring a Camera.
// Use the With* functions to create options.
type CameraBuilderOption func(c *camera)

// WithPosition sets the camera's initial world-space center.
//
// Parameters:
//   - x, y: the world-space position
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithPosition(x, y float32) CameraBuilderOption {
	return func(c *camera) {
		c.x, c.y = x, y
	}
}

// WithZoom sets the camera's initial zoom factor. The value is clamped to the
// camera's zoom limits during construction.
//
// Parameters:
//   - zoom: the zoom factor
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithZoom(zoom float32) CameraBuilderOption {
	return func(c *camera) {
		c.zoom = zoom
	}
}

// WithZoomLimits sets the bounds applied to every zoom change.
//
// Parameters:
//   - minZoom: the smallest allowed zoom factor (must be > 0)
//   - maxZoom: the largest allowed zoom factor
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithZoomLimits(minZoom, maxZoom float32) CameraBuilderOption {
	return func(c *camera) {
		if minZoom > 0 {
			c.minZoom = minZoom
		}
		if maxZoom >= c.minZoom {
			c.maxZoom = maxZoom
		}
	}
}

// WithLogicalHeight sets the world-unit height of the visible rectangle at zoom 1.
//
// Parameters:
//   - height: the logical height in world units (must be > 0)
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithLogicalHeight(height float32) CameraBuilderOption {
	return func(c *camera) {
		if height > 0 {
			c.logicalHeight = height
		}
	}
}

// WithViewport sets the initial viewport size in physical pixels.
//
// Parameters:
//   - width, height: the viewport dimensions
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithViewport(width, height uint32) CameraBuilderOption {
	return func(c *camera) {
		if width > 0 && height > 0 {
			c.viewportWidth, c.viewportHeight = width, height
		}
	}
}
