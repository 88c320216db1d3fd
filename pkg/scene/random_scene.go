package scene

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

func randomFieldCamera(aperture float64, cameraOverrides []geometry.CameraConfig) geometry.CameraConfig {
	defaultCameraConfig := geometry.CameraConfig{
		Center:        core.NewVec3(13, 2, 3),
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		Width:         400,
		AspectRatio:   16.0 / 9.0,
		VFov:          20.0,
		Aperture:      aperture,
		FocusDistance: 10.0,
	}

	if len(cameraOverrides) > 0 {
		return geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}
	return defaultCameraConfig
}

// NewRandomScene creates the 22x22 field of small random spheres around three
// large feature spheres. The same seed always produces the same scene.
func NewRandomScene(seed int64, cameraOverrides ...geometry.CameraConfig) *Scene {
	s := NewScene("random")
	s.CameraConfig = randomFieldCamera(0.1, cameraOverrides)
	s.SamplingConfig = SamplingConfig{
		SamplesPerPixel: 100,
		MaxDepth:        50,
	}

	sampler := core.NewSeededSampler(seed)

	s.addSphere(core.NewVec3(0, -1000, 0), 1000, material.NewMetal(core.NewVec3(0.7, 0.6, 0.5), 0.0))

	addRandomField(s, sampler, func(center core.Vec3, h material.Handle) geometry.Surface {
		return geometry.NewSphere(center, 0.2, h)
	})
	addFeatureSpheres(s)

	return s
}

// NewMotionScene is the random field with every diffuse sphere bouncing
// upward during the shutter interval, producing motion blur
func NewMotionScene(seed int64, cameraOverrides ...geometry.CameraConfig) *Scene {
	s := NewScene("motion")
	cameraConfig := randomFieldCamera(0, nil)
	cameraConfig.ShutterOpen = 0.0
	cameraConfig.ShutterClose = 1.0
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(cameraConfig, cameraOverrides[0])
	}
	s.CameraConfig = cameraConfig
	s.SamplingConfig = SamplingConfig{
		SamplesPerPixel: 100,
		MaxDepth:        50,
	}

	sampler := core.NewSeededSampler(seed)

	s.addSphere(core.NewVec3(0, -1000, 0), 1000, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))

	addRandomField(s, sampler, func(center core.Vec3, h material.Handle) geometry.Surface {
		if s.Material(h).Kind != material.KindLambertian {
			return geometry.NewSphere(center, 0.2, h)
		}
		center1 := center.Add(core.NewVec3(0, core.RandomRange(sampler, 0, 0.5), 0))
		return geometry.NewMovingSphere(center, center1, 0.0, 1.0, 0.2, h)
	})
	addFeatureSpheres(s)

	return s
}

// addRandomField scatters small spheres on the grid a, b in [-11, 11), keeping
// clear of the large metal sphere
func addRandomField(s *Scene, sampler core.Sampler, newSurface func(core.Vec3, material.Handle) geometry.Surface) {
	clearance := core.NewVec3(4, 0.2, 0)

	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			chooseMat := sampler.Get1D()
			center := core.NewVec3(
				float64(a)+0.9*sampler.Get1D(),
				0.2,
				float64(b)+0.9*sampler.Get1D(),
			)

			if center.Subtract(clearance).Length() <= 0.9 {
				continue
			}

			var mat material.Material
			switch {
			case chooseMat < 0.8:
				albedo := core.RandomVec3(sampler).MultiplyVec(core.RandomVec3(sampler))
				mat = material.NewLambertian(albedo)
			case chooseMat < 0.95:
				albedo := core.RandomVec3Range(sampler, 0.5, 1)
				fuzz := core.RandomRange(sampler, 0, 0.5)
				mat = material.NewMetal(albedo, fuzz)
			default:
				mat = material.NewDielectric(1.5)
			}

			h, err := s.AddMaterial(mat)
			if err != nil {
				panic(err)
			}
			if err := s.AddSurface(newSurface(center, h)); err != nil {
				panic(err)
			}
		}
	}
}

func addFeatureSpheres(s *Scene) {
	s.addSphere(core.NewVec3(0, 1, 0), 1.0, material.NewDielectric(1.5))
	s.addSphere(core.NewVec3(-4, 1, 0), 1.0, material.NewLambertian(core.NewVec3(0.4, 0.2, 0.1)))
	s.addSphere(core.NewVec3(4, 1, 0), 1.0, material.NewMetal(core.NewVec3(0.7, 0.6, 0.5), 0.0))
}
