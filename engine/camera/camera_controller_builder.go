package camera

// CameraControllerBuilderOption is a functional option for configuring a CameraController.
// Use the With* functions to create options.
type CameraControllerBuilderOption func(c *cameraController)

// WithPanSpeed sets the world-unit distance of one directional pan step at zoom 1.
//
// Parameters:
//   - speed: the pan step in world units (must be > 0)
//
// Returns:
//   - CameraControllerBuilderOption: option function to apply
func WithPanSpeed(speed float32) CameraControllerBuilderOption {
	return func(c *cameraController) {
		if speed > 0 {
			c.panSpeed = speed
		}
	}
}

// WithZoomStep sets the multiplicative zoom change applied per step or scroll notch.
//
// Parameters:
//   - step: the zoom factor per step (must be > 1)
//
// Returns:
//   - CameraControllerBuilderOption: option function to apply
func WithZoomStep(step float32) CameraControllerBuilderOption {
	return func(c *cameraController) {
		if step > 1 {
			c.zoomStep = step
		}
	}
}
