package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
	"pgregory.net/rapid"
)

func testCameraConfig() CameraConfig {
	return CameraConfig{
		Center:      core.NewVec3(0, 0, 5),
		LookAt:      core.NewVec3(0, 0, 0),
		Up:          core.NewVec3(0, 1, 0),
		Width:       160,
		AspectRatio: 16.0 / 9.0,
		VFov:        90,
	}
}

func TestCamera_PinholeCenterRay(t *testing.T) {
	camera := NewCamera(testCameraConfig())
	sampler := core.NewSeededSampler(1)

	ray := camera.GetRay(0.5, 0.5, sampler)
	if ray.Origin != core.NewVec3(0, 0, 5) {
		t.Errorf("Expected origin at the eye, got %v", ray.Origin)
	}

	direction := ray.Direction.Normalize()
	expected := core.NewVec3(0, 0, -1)
	if direction.Subtract(expected).Length() > 1e-9 {
		t.Errorf("Expected center ray %v, got %v", expected, direction)
	}

	// Auto focus: the viewport sits on the focus plane at the look-at distance
	if math.Abs(ray.Direction.Length()-5) > 1e-9 {
		t.Errorf("Expected direction length 5 (auto focus distance), got %f", ray.Direction.Length())
	}
}

func TestCamera_ViewportCorners(t *testing.T) {
	camera := NewCamera(testCameraConfig())
	sampler := core.NewSeededSampler(1)

	// vfov 90 at focus distance 5: half height 5, half width 5*16/9
	halfHeight := 5.0
	halfWidth := 5.0 * 16.0 / 9.0

	tests := []struct {
		name   string
		s, t   float64
		target core.Vec3
	}{
		{"bottom left", 0, 0, core.NewVec3(-halfWidth, -halfHeight, 0)},
		{"top left", 0, 1, core.NewVec3(-halfWidth, halfHeight, 0)},
		{"top right", 1, 1, core.NewVec3(halfWidth, halfHeight, 0)},
		{"bottom right", 1, 0, core.NewVec3(halfWidth, -halfHeight, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := camera.GetRay(tt.s, tt.t, sampler)
			got := ray.At(1)
			if got.Subtract(tt.target).Length() > 1e-9 {
				t.Errorf("Expected viewport point %v, got %v", tt.target, got)
			}
		})
	}
}

func TestCamera_Basis(t *testing.T) {
	config := testCameraConfig()
	config.Center = core.NewVec3(3, 4, 5)
	config.LookAt = core.NewVec3(0, 1, 0)
	camera := NewCamera(config)

	for _, v := range []core.Vec3{camera.u, camera.v, camera.w} {
		if math.Abs(v.Length()-1) > 1e-9 {
			t.Errorf("Basis vector %v is not unit length", v)
		}
	}
	if math.Abs(camera.u.Dot(camera.v)) > 1e-9 || math.Abs(camera.u.Dot(camera.w)) > 1e-9 || math.Abs(camera.v.Dot(camera.w)) > 1e-9 {
		t.Errorf("Basis is not orthogonal: u=%v v=%v w=%v", camera.u, camera.v, camera.w)
	}
	if camera.v.Y <= 0 {
		t.Errorf("Expected v to point up, got %v", camera.v)
	}
}

func TestCamera_ExplicitFocusDistance(t *testing.T) {
	config := testCameraConfig()
	config.FocusDistance = 2
	camera := NewCamera(config)

	if camera.FocusDistance() != 2 {
		t.Errorf("Expected focus distance 2, got %f", camera.FocusDistance())
	}
	ray := camera.GetRay(0.5, 0.5, core.NewSeededSampler(1))
	if math.Abs(ray.Direction.Length()-2) > 1e-9 {
		t.Errorf("Expected direction to reach the focus plane at 2, got %f", ray.Direction.Length())
	}
}

func TestCamera_Height(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		aspect   float64
		expected int
	}{
		{"16:9", 400, 16.0 / 9.0, 225},
		{"square", 100, 1.0, 100},
		{"very wide", 4, 10.0, 1},
		{"missing aspect", 50, 0, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testCameraConfig()
			config.Width = tt.width
			config.AspectRatio = tt.aspect
			camera := &Camera{config: config}
			if got := camera.Height(); got != tt.expected {
				t.Errorf("Expected height %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestCamera_PixelCoords(t *testing.T) {
	config := testCameraConfig()
	config.Width = 5
	config.AspectRatio = 1
	camera := NewCamera(config)

	tests := []struct {
		name   string
		x, row int
		dx, dy float64
		s, t   float64
	}{
		{"bottom left", 0, 4, 0, 0, 0, 0},
		{"top right", 4, 0, 0, 0, 1, 1},
		{"top left", 0, 0, 0, 0, 0, 1},
		{"center with offset", 2, 2, 0.5, 0.5, 0.625, 0.625},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, v := camera.PixelCoords(tt.x, tt.row, tt.dx, tt.dy)
			if math.Abs(s-tt.s) > 1e-12 || math.Abs(v-tt.t) > 1e-12 {
				t.Errorf("Expected (%f, %f), got (%f, %f)", tt.s, tt.t, s, v)
			}
		})
	}

	// A single-pixel image must not divide by zero
	config.Width = 1
	s, v := NewCamera(config).PixelCoords(0, 0, 0.5, 0.5)
	if s != 0.5 || v != 0.5 {
		t.Errorf("Expected (0.5, 0.5) for a 1x1 image, got (%f, %f)", s, v)
	}
}

func TestCamera_LensAndShutter(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		config := testCameraConfig()
		config.Aperture = rapid.Float64Range(0, 2).Draw(t, "aperture")
		config.ShutterOpen = rapid.Float64Range(0, 1).Draw(t, "open")
		config.ShutterClose = config.ShutterOpen + rapid.Float64Range(0, 1).Draw(t, "span")
		camera := NewCamera(config)

		sampler := core.NewSeededSampler(rapid.Int64().Draw(t, "seed"))
		s := rapid.Float64Range(0, 1).Draw(t, "s")
		tt := rapid.Float64Range(0, 1).Draw(t, "t")
		ray := camera.GetRay(s, tt, sampler)

		offset := ray.Origin.Subtract(config.Center)
		if offset.Length() > config.Aperture/2+1e-9 {
			t.Fatalf("origin offset %f exceeds lens radius %f", offset.Length(), config.Aperture/2)
		}
		if math.Abs(offset.Dot(camera.w)) > 1e-9 {
			t.Fatalf("lens offset %v leaves the lens plane", offset)
		}
		if ray.Time < config.ShutterOpen || ray.Time > config.ShutterClose {
			t.Fatalf("time %f outside shutter [%f, %f]", ray.Time, config.ShutterOpen, config.ShutterClose)
		}
	})
}

func TestCamera_ZeroWidthShutter(t *testing.T) {
	config := testCameraConfig()
	config.ShutterOpen = 0.3
	config.ShutterClose = 0.3
	camera := NewCamera(config)

	ray := camera.GetRay(0.2, 0.8, core.NewSeededSampler(9))
	if ray.Time != 0.3 {
		t.Errorf("Expected time 0.3, got %f", ray.Time)
	}
}

func TestMergeCameraConfig(t *testing.T) {
	base := testCameraConfig()
	base.Aperture = 0.1

	merged := MergeCameraConfig(base, CameraConfig{
		Center: core.NewVec3(13, 2, 3),
		Width:  800,
		VFov:   20,
	})

	if merged.Center != core.NewVec3(13, 2, 3) {
		t.Errorf("Expected overridden center, got %v", merged.Center)
	}
	if merged.Width != 800 || merged.VFov != 20 {
		t.Errorf("Expected width 800 and vfov 20, got %d and %f", merged.Width, merged.VFov)
	}
	if merged.LookAt != base.LookAt || merged.Up != base.Up {
		t.Error("Zero-valued overrides should keep base vectors")
	}
	if merged.Aperture != 0.1 || merged.AspectRatio != base.AspectRatio {
		t.Error("Zero-valued overrides should keep base scalars")
	}
}
