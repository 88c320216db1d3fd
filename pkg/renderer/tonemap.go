package renderer

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/output"
)

// ToneMap converts a radiance sum over samples into an 8-bit pixel: average,
// gamma 2, clamp to [0, 0.999] and scale to [0, 256). A NaN channel becomes 0
// without affecting the other channels.
func ToneMap(accum core.Vec3, samples int) output.Pixel {
	scale := 1.0
	if samples > 0 {
		scale = 1.0 / float64(samples)
	}

	return output.Pixel{
		R: toneMapChannel(accum.X, scale),
		G: toneMapChannel(accum.Y, scale),
		B: toneMapChannel(accum.Z, scale),
	}
}

func toneMapChannel(c, scale float64) int {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	c = math.Sqrt(c * scale)
	return int(256 * core.Clamp(c, 0.0, 0.999))
}
