package geometry

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// CameraConfig contains all camera configuration parameters
type CameraConfig struct {
	Center        core.Vec3 // Camera position (eye)
	LookAt        core.Vec3 // Point the camera is looking at
	Up            core.Vec3 // Up direction (usually 0,1,0)
	Width         int       // Image width in pixels, height is derived from AspectRatio
	AspectRatio   float64   // Aspect ratio (width/height)
	VFov          float64   // Vertical field of view in degrees
	Aperture      float64   // Lens diameter, 0 for a pinhole camera
	FocusDistance float64   // Distance to the plane of focus, 0 means |Center - LookAt|
	ShutterOpen   float64   // Start of the shutter interval
	ShutterClose  float64   // End of the shutter interval
}

// MergeCameraConfig returns base with every non-zero field of override applied
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	zero := core.Vec3{}

	if override.Center != zero {
		result.Center = override.Center
	}
	if override.LookAt != zero {
		result.LookAt = override.LookAt
	}
	if override.Up != zero {
		result.Up = override.Up
	}
	if override.Width != 0 {
		result.Width = override.Width
	}
	if override.AspectRatio != 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.VFov != 0 {
		result.VFov = override.VFov
	}
	if override.Aperture != 0 {
		result.Aperture = override.Aperture
	}
	if override.FocusDistance != 0 {
		result.FocusDistance = override.FocusDistance
	}
	if override.ShutterOpen != 0 {
		result.ShutterOpen = override.ShutterOpen
	}
	if override.ShutterClose != 0 {
		result.ShutterClose = override.ShutterClose
	}
	return result
}

// Camera generates rays for rendering. It is immutable after NewCamera and
// safe to share between render workers.
type Camera struct {
	config CameraConfig

	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
	u, v, w         core.Vec3 // orthonormal basis
	lensRadius      float64
	focusDistance   float64
}

// NewCamera creates a camera from the given configuration
func NewCamera(config CameraConfig) *Camera {
	theta := core.DegreesToRadians(config.VFov)
	h := math.Tan(theta / 2)
	viewportHeight := 2.0 * h
	viewportWidth := config.AspectRatio * viewportHeight

	w := config.Center.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	focusDistance := config.FocusDistance
	if focusDistance <= 0 {
		focusDistance = config.Center.Subtract(config.LookAt).Length()
	}

	origin := config.Center
	horizontal := u.Multiply(focusDistance * viewportWidth)
	vertical := v.Multiply(focusDistance * viewportHeight)
	lowerLeftCorner := origin.
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5)).
		Subtract(w.Multiply(focusDistance))

	return &Camera{
		config:          config,
		origin:          origin,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
		u:               u,
		v:               v,
		w:               w,
		lensRadius:      config.Aperture / 2,
		focusDistance:   focusDistance,
	}
}

// GetRay generates a ray for viewport coordinates (s, t) where 0 <= s,t <= 1
// and t = 1 is the top edge. The origin is jittered across the lens disk and
// the time is drawn uniformly from the shutter interval.
func (c *Camera) GetRay(s, t float64, sampler core.Sampler) core.Ray {
	origin := c.origin
	if c.lensRadius > 0 {
		rd := core.RandomInUnitDisk(sampler).Multiply(c.lensRadius)
		origin = origin.Add(c.u.Multiply(rd.X)).Add(c.v.Multiply(rd.Y))
	}

	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(s)).
		Add(c.vertical.Multiply(t)).
		Subtract(origin)

	time := c.config.ShutterOpen
	if c.config.ShutterClose != c.config.ShutterOpen {
		time = core.RandomRange(sampler, c.config.ShutterOpen, c.config.ShutterClose)
	}

	return core.NewRayAtTime(origin, direction, time)
}

// PixelCoords maps pixel (x, row), offset by (dx, dy) in [0, 1), to viewport
// coordinates for GetRay. Row 0 is the top of the image.
func (c *Camera) PixelCoords(x, row int, dx, dy float64) (s, t float64) {
	width, height := c.Width(), c.Height()
	j := height - 1 - row
	s = (float64(x) + dx) / float64(max(width-1, 1))
	t = (float64(j) + dy) / float64(max(height-1, 1))
	return s, t
}

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig {
	return c.config
}

// Width returns the image width in pixels
func (c *Camera) Width() int {
	return c.config.Width
}

// Height returns the image height derived from the width and aspect ratio
func (c *Camera) Height() int {
	if c.config.AspectRatio <= 0 {
		return c.config.Width
	}
	height := int(float64(c.config.Width) / c.config.AspectRatio)
	if height < 1 {
		height = 1
	}
	return height
}

// FocusDistance returns the resolved distance to the plane of focus
func (c *Camera) FocusDistance() float64 {
	return c.focusDistance
}

// LensRadius returns half the aperture
func (c *Camera) LensRadius() float64 {
	return c.lensRadius
}
