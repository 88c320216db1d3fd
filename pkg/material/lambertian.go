package material

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// NewLambertian creates a new perfectly diffuse material
func NewLambertian(albedo core.Vec3) Material {
	return Material{Kind: KindLambertian, Albedo: albedo}
}

// scatterLambertian bounces the ray towards normal + a random unit vector.
// When the two nearly cancel the direction is near zero; that ray contributes
// negligible energy and is tolerated rather than special-cased.
func (m Material) scatterLambertian(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	scatterDirection := hit.Normal.Add(core.RandomUnitVector(sampler))
	scattered := core.NewRayAtTime(hit.Point, scatterDirection, rayIn.Time)

	return ScatterResult{
		Scattered:   scattered,
		Attenuation: m.Albedo,
	}, true
}
