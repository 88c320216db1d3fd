package core

import (
	"math"
	"math/rand"
	"sync/atomic"
)

// maxRejectionAttempts bounds the rejection samplers. The expected number of
// draws is below 2 for both the disk and the sphere, so hitting the cap means
// the sampler is broken (e.g. a constant stream), not unlucky.
const maxRejectionAttempts = 64

var rejectionFallbacks atomic.Uint64

// RejectionFallbacks returns how many times a rejection sampler gave up and
// returned its fallback value since process start, across all samplers.
// RandomSampler.Fallbacks counts a single sampler.
func RejectionFallbacks() uint64 {
	return rejectionFallbacks.Load()
}

func recordFallback(sampler Sampler) {
	rejectionFallbacks.Add(1)
	if rs, ok := sampler.(*RandomSampler); ok {
		rs.fallbacks++
	}
}

// Vec2 represents a 2D sample
type Vec2 struct {
	X, Y float64
}

// NewVec2 creates a new Vec2
func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
	Get3D() Vec3
}

// RandomSampler wraps a standard Go random generator. Not safe for concurrent use.
type RandomSampler struct {
	random    *rand.Rand
	fallbacks uint64
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a sampler with its own generator seeded with seed
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Seed resets the underlying generator to a deterministic state
func (r *RandomSampler) Seed(seed int64) {
	r.random.Seed(seed)
}

// Fallbacks returns how many rejection samplers drawing from r gave up.
// Reseeding does not reset it.
func (r *RandomSampler) Fallbacks() uint64 {
	return r.fallbacks
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// Get3D returns three random float64 values in [0, 1)
func (r *RandomSampler) Get3D() Vec3 {
	return NewVec3(r.random.Float64(), r.random.Float64(), r.random.Float64())
}

// RandomRange returns a random float64 in [minVal, maxVal)
func RandomRange(sampler Sampler, minVal, maxVal float64) float64 {
	return minVal + (maxVal-minVal)*sampler.Get1D()
}

// RandomInt returns a random integer in [minVal, maxVal]
func RandomInt(sampler Sampler, minVal, maxVal int) int {
	return int(math.Floor(RandomRange(sampler, float64(minVal), float64(maxVal+1))))
}

// RandomVec3 returns a vector with each component in [0, 1)
func RandomVec3(sampler Sampler) Vec3 {
	return sampler.Get3D()
}

// RandomVec3Range returns a vector with each component in [minVal, maxVal)
func RandomVec3Range(sampler Sampler, minVal, maxVal float64) Vec3 {
	u := sampler.Get3D()
	return NewVec3(
		minVal+(maxVal-minVal)*u.X,
		minVal+(maxVal-minVal)*u.Y,
		minVal+(maxVal-minVal)*u.Z,
	)
}

// RandomInUnitSphere generates a random point strictly inside the unit sphere
func RandomInUnitSphere(sampler Sampler) Vec3 {
	for i := 0; i < maxRejectionAttempts; i++ {
		// Generate random point in [-1,1]³ cube
		u := sampler.Get3D()
		p := NewVec3(2*u.X-1, 2*u.Y-1, 2*u.Z-1)
		// Accept if inside unit sphere
		if p.LengthSquared() < 1.0 {
			return p
		}
	}
	recordFallback(sampler)
	return Vec3{}
}

// RandomUnitVector generates a uniformly distributed direction on the unit sphere
func RandomUnitVector(sampler Sampler) Vec3 {
	sample := sampler.Get2D()
	a := 2.0 * math.Pi * sample.X // azimuth in [0, 2π)
	z := 2.0*sample.Y - 1.0       // z in [-1, 1)
	r := math.Sqrt(1.0 - z*z)
	return NewVec3(r*math.Cos(a), r*math.Sin(a), z)
}

// RandomInUnitDisk generates a random point in the unit disk on the z = 0 plane (for depth of field)
func RandomInUnitDisk(sampler Sampler) Vec3 {
	for i := 0; i < maxRejectionAttempts; i++ {
		// Generate random point in [-1,1] x [-1,1] square
		u := sampler.Get2D()
		p := NewVec3(2*u.X-1, 2*u.Y-1, 0)
		// Accept if inside unit disk
		if p.LengthSquared() < 1.0 {
			return p
		}
	}
	recordFallback(sampler)
	return Vec3{}
}

// RandomInHemisphere returns a point in the unit sphere flipped onto the side of normal
func RandomInHemisphere(normal Vec3, sampler Sampler) Vec3 {
	inUnitSphere := RandomInUnitSphere(sampler)
	if inUnitSphere.Dot(normal) > 0.0 {
		return inUnitSphere
	}
	return inUnitSphere.Negate()
}
