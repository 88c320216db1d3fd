package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// ErrSealed is returned when a scene is modified after rendering has begun
var ErrSealed = errors.New("scene is sealed for rendering")

// Background is the sky gradient returned for rays that escape the scene
type Background struct {
	Top    core.Vec3 // Color when looking straight up
	Bottom core.Vec3 // Color when looking straight down
}

// DefaultBackground is the white to sky-blue gradient
var DefaultBackground = Background{
	Top:    core.NewVec3(0.5, 0.7, 1.0),
	Bottom: core.NewVec3(1.0, 1.0, 1.0),
}

// Scene contains all the elements needed for rendering: an arena of
// materials, the surfaces referencing them by handle, and the recommended
// camera and sampling settings.
type Scene struct {
	Name           string
	Background     Background
	SamplingConfig SamplingConfig
	CameraConfig   geometry.CameraConfig

	surfaces  []geometry.Surface
	materials []material.Material
	sealed    bool
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	SamplesPerPixel int // Number of rays per pixel
	MaxDepth        int // Maximum ray bounce depth
}

var _ geometry.Shape = (*Scene)(nil)

// NewScene creates an empty scene with the default sky
func NewScene(name string) *Scene {
	return &Scene{
		Name:       name,
		Background: DefaultBackground,
		SamplingConfig: SamplingConfig{
			SamplesPerPixel: 100,
			MaxDepth:        50,
		},
	}
}

// AddMaterial stores a material in the arena and returns its handle
func (s *Scene) AddMaterial(mat material.Material) (material.Handle, error) {
	if s.sealed {
		return 0, ErrSealed
	}
	s.materials = append(s.materials, mat)
	return material.Handle(len(s.materials) - 1), nil
}

// AddSurface appends a surface to the scene. Its material handle must have
// been returned by AddMaterial on this scene.
func (s *Scene) AddSurface(surface geometry.Surface) error {
	if s.sealed {
		return ErrSealed
	}
	if !s.validHandle(surface.Material) {
		return fmt.Errorf("surface %v references unknown material handle %d", surface.Kind, surface.Material)
	}
	s.surfaces = append(s.surfaces, surface)
	return nil
}

// Seal makes the scene read-only; the renderer calls it before spawning workers
func (s *Scene) Seal() {
	s.sealed = true
}

// Sealed reports whether the scene has been sealed
func (s *Scene) Sealed() bool {
	return s.sealed
}

// Len returns the number of surfaces in the scene
func (s *Scene) Len() int {
	return len(s.surfaces)
}

// MaterialCount returns the number of materials in the arena
func (s *Scene) MaterialCount() int {
	return len(s.materials)
}

// Material returns the material for a handle. An unknown handle is a
// programming error and panics.
func (s *Scene) Material(h material.Handle) material.Material {
	if !s.validHandle(h) {
		panic(fmt.Sprintf("scene: unknown material handle %d", h))
	}
	return s.materials[h]
}

// Hit returns the closest intersection among all surfaces with t in (tMin, tMax)
func (s *Scene) Hit(ray core.Ray, tMin, tMax float64) (material.HitRecord, bool) {
	_, hit, ok := s.closestHit(ray, tMin, tMax)
	return hit, ok
}

// HitSurface is Hit that also reports which surface was struck
func (s *Scene) HitSurface(ray core.Ray, tMin, tMax float64) (geometry.Surface, material.HitRecord, bool) {
	index, hit, ok := s.closestHit(ray, tMin, tMax)
	if !ok {
		return geometry.Surface{}, hit, false
	}
	return s.surfaces[index], hit, true
}

func (s *Scene) closestHit(ray core.Ray, tMin, tMax float64) (int, material.HitRecord, bool) {
	var closest material.HitRecord
	closestIndex := -1
	closestSoFar := tMax

	for i := range s.surfaces {
		if hit, ok := s.surfaces[i].Hit(ray, tMin, closestSoFar); ok {
			closestIndex = i
			closestSoFar = hit.T
			closest = hit
		}
	}

	return closestIndex, closest, closestIndex >= 0
}

func (s *Scene) validHandle(h material.Handle) bool {
	return h >= 0 && int(h) < len(s.materials)
}

// addSphere is a helper for presets, which only ever use valid handles
func (s *Scene) addSphere(center core.Vec3, radius float64, mat material.Material) {
	h, err := s.AddMaterial(mat)
	if err != nil {
		panic(err)
	}
	if err := s.AddSurface(geometry.NewSphere(center, radius, h)); err != nil {
		panic(err)
	}
}
