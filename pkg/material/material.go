package material

import (
	"fmt"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Kind enumerates the closed set of material variants
type Kind uint8

const (
	KindLambertian Kind = iota
	KindMetal
	KindDielectric
)

func (k Kind) String() string {
	switch k {
	case KindLambertian:
		return "lambertian"
	case KindMetal:
		return "metal"
	case KindDielectric:
		return "dielectric"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Material is a tagged variant over the supported materials. Only the fields
// relevant to Kind are meaningful. Values are immutable once built.
type Material struct {
	Kind            Kind
	Albedo          core.Vec3 // Lambertian, Metal
	Fuzz            float64   // Metal: 0 = perfect mirror, 1 = very fuzzy
	RefractiveIndex float64   // Dielectric: e.g. 1.5 for glass
}

// Scatter dispatches to the variant's scattering model. A false result means
// the ray was absorbed and carries no further radiance.
func (m Material) Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	switch m.Kind {
	case KindLambertian:
		return m.scatterLambertian(rayIn, hit, sampler)
	case KindMetal:
		return m.scatterMetal(rayIn, hit, sampler)
	case KindDielectric:
		return m.scatterDielectric(rayIn, hit, sampler)
	}
	panic(fmt.Sprintf("material: unknown kind %v", m.Kind))
}
