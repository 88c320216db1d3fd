package renderer

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/df07/go-pathtracer/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Width              int
	Height             int
	TotalPixels        int           // Total number of pixels rendered
	TotalSamples       int           // Total number of samples taken
	SamplesPerPixel    int           // Samples taken per pixel
	MaxDepth           int           // Bounce limit
	NumWorkers         int           // Parallel workers used
	Duration           time.Duration // Wall-clock render time
	MeanLuminance      float64       // Mean linear luminance over pixels
	StdDevLuminance    float64       // Standard deviation of pixel luminance
	NaNSamples         int           // Samples that produced a NaN channel
	RejectionFallbacks uint64        // Rejection samplers in this render that hit their retry cap
}

// SamplesPerSecond is the render throughput
func (rs RenderStats) SamplesPerSecond() float64 {
	if rs.Duration <= 0 {
		return 0
	}
	return float64(rs.TotalSamples) / rs.Duration.Seconds()
}

// PixelStats tracks sampling statistics for a single pixel
type PixelStats struct {
	ColorAccum  core.Vec3 // RGB accumulator for final result
	SampleCount int       // Number of samples taken
	NaNCount    int       // Samples with at least one NaN channel
}

// AddSample adds a new color sample to the pixel statistics. NaN channels
// are kept in the accumulator; tone mapping zeroes them.
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	if color.HasNaN() {
		ps.NaNCount++
	}
	ps.SampleCount++
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}

// luminanceStats returns the mean and standard deviation of pixel luminance,
// treating NaN channels as black like the tone mapper does
func luminanceStats(pixels []PixelStats) (mean, stdDev float64) {
	if len(pixels) == 0 {
		return 0, 0
	}
	lums := make([]float64, len(pixels))
	for i := range pixels {
		c := pixels[i].GetColor()
		lums[i] = core.NewVec3(finiteOrZero(c.X), finiteOrZero(c.Y), finiteOrZero(c.Z)).Luminance()
	}
	if len(lums) == 1 {
		return lums[0], 0
	}
	return stat.MeanStdDev(lums, nil)
}

func finiteOrZero(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
