package scene

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// NewGroundScene creates a single huge sphere acting as ground under an open
// sky, viewed from just above the horizon
func NewGroundScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	defaultCameraConfig := geometry.CameraConfig{
		Center:      core.NewVec3(0, 0, 5),
		LookAt:      core.NewVec3(0, 0, 0),
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 16.0 / 9.0,
		VFov:        90.0,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := NewScene("ground")
	s.CameraConfig = cameraConfig
	s.SamplingConfig = SamplingConfig{
		SamplesPerPixel: 50,
		MaxDepth:        10,
	}

	s.addSphere(core.NewVec3(0, -1000, 0), 1000, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))

	return s
}

// NewThreeSpheresScene creates a diffuse, a hollow glass and a metal sphere
// resting on a large diffuse ground sphere
func NewThreeSpheresScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	defaultCameraConfig := geometry.CameraConfig{
		Center:        core.NewVec3(3, 3, 2),  // Elevated, off to the right
		LookAt:        core.NewVec3(0, 0, -1), // The center sphere
		Up:            core.NewVec3(0, 1, 0),
		Width:         400,
		AspectRatio:   16.0 / 9.0,
		VFov:          20.0,
		Aperture:      0.1,
		FocusDistance: 0.0, // Auto-calculate focus distance
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := NewScene("three-spheres")
	s.CameraConfig = cameraConfig
	s.SamplingConfig = SamplingConfig{
		SamplesPerPixel: 100,
		MaxDepth:        50,
	}

	glass := material.NewDielectric(1.5)

	s.addSphere(core.NewVec3(0, -100.5, -1), 100, material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0)))
	s.addSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5)))
	s.addSphere(core.NewVec3(1, 0, -1), 0.5, material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.0))

	// Hollow glass: a shell with an inward-facing inner surface sharing one material
	glassHandle, err := s.AddMaterial(glass)
	if err != nil {
		panic(err)
	}
	for _, radius := range []float64{0.5, -0.45} {
		if err := s.AddSurface(geometry.NewSphere(core.NewVec3(-1, 0, -1), radius, glassHandle)); err != nil {
			panic(err)
		}
	}

	return s
}
