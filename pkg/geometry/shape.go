package geometry

import (
	"fmt"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
)

// Kind enumerates the closed set of surface variants
type Kind uint8

const (
	KindSphere Kind = iota
	KindMovingSphere
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindMovingSphere:
		return "moving-sphere"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Surface is a tagged variant over the supported shapes. Geometry is
// immutable once built; the material is referenced by handle so many
// surfaces can share one material.
type Surface struct {
	Kind     Kind
	Center0  core.Vec3 // Center (Sphere) or center at Time0 (MovingSphere)
	Center1  core.Vec3 // MovingSphere: center at Time1
	Time0    float64
	Time1    float64
	Radius   float64
	Material material.Handle
}

// Hit returns the nearest intersection with t strictly inside (tMin, tMax)
func (s *Surface) Hit(ray core.Ray, tMin, tMax float64) (material.HitRecord, bool) {
	switch s.Kind {
	case KindSphere, KindMovingSphere:
		return hitSphere(s.Center(ray.Time), s.Radius, s.Material, ray, tMin, tMax)
	}
	panic(fmt.Sprintf("geometry: unknown surface kind %v", s.Kind))
}
