package integrator

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// ShadowAcneEpsilon is the minimum hit distance, so a scattered ray does not
// re-hit the surface it leaves from
const ShadowAcneEpsilon = 0.001

// PathTracingIntegrator implements unidirectional path tracing without
// light sampling: radiance comes only from the sky
type PathTracingIntegrator struct {
	MaxDepth int
}

var _ Integrator = (*PathTracingIntegrator)(nil)

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(config scene.SamplingConfig) *PathTracingIntegrator {
	return &PathTracingIntegrator{
		MaxDepth: config.MaxDepth,
	}
}

// RayColor computes the color for a single ray
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, s *scene.Scene, sampler core.Sampler) core.Vec3 {
	return pt.rayColorRecursive(ray, s, sampler, pt.MaxDepth)
}

func (pt *PathTracingIntegrator) rayColorRecursive(ray core.Ray, s *scene.Scene, sampler core.Sampler, depth int) core.Vec3 {
	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth <= 0 {
		return core.Vec3{}
	}

	hit, isHit := s.Hit(ray, ShadowAcneEpsilon, math.Inf(1))
	if !isHit {
		return BackgroundGradient(ray, s.Background)
	}

	scatter, didScatter := s.Material(hit.Material).Scatter(ray, hit, sampler)
	if !didScatter {
		// Material absorbed the ray
		return core.Vec3{}
	}

	return scatter.Attenuation.MultiplyVec(pt.rayColorRecursive(scatter.Scattered, s, sampler, depth-1))
}

// BackgroundGradient returns the sky color for a ray that escapes the scene,
// blending from Bottom to Top with the ray's vertical direction
func BackgroundGradient(ray core.Ray, bg scene.Background) core.Vec3 {
	unitDirection := ray.Direction.Normalize()
	t := 0.5 * (unitDirection.Y + 1.0)
	return bg.Bottom.Multiply(1.0 - t).Add(bg.Top.Multiply(t))
}
