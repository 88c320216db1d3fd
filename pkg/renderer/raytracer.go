package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/output"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	SamplesPerPixel int   // Number of rays per pixel
	MaxDepth        int   // Maximum ray bounce depth
	NumWorkers      int   // Number of parallel workers (0 = use CPU count)
	Seed            int64 // Base seed; row r uses Seed + r
}

// DefaultSamplingConfig returns sensible default values
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		SamplesPerPixel: 100,
		MaxDepth:        50,
		NumWorkers:      0,
		Seed:            42,
	}
}

// SamplingConfigFor returns the defaults with the scene's recommended sample
// count and bounce limit
func SamplingConfigFor(s *scene.Scene) SamplingConfig {
	config := DefaultSamplingConfig()
	if s.SamplingConfig.SamplesPerPixel > 0 {
		config.SamplesPerPixel = s.SamplingConfig.SamplesPerPixel
	}
	if s.SamplingConfig.MaxDepth > 0 {
		config.MaxDepth = s.SamplingConfig.MaxDepth
	}
	return config
}

// Raytracer handles the rendering process
type Raytracer struct {
	scene      *scene.Scene
	camera     *geometry.Camera
	integrator integrator.Integrator
	width      int
	height     int
	config     SamplingConfig
	logger     core.Logger
}

// NewRaytracer creates a new raytracer. The image size comes from the camera.
func NewRaytracer(s *scene.Scene, camera *geometry.Camera, config SamplingConfig, logger core.Logger) *Raytracer {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Raytracer{
		scene:      s,
		camera:     camera,
		integrator: integrator.NewPathTracingIntegrator(scene.SamplingConfig{MaxDepth: config.MaxDepth}),
		width:      camera.Width(),
		height:     camera.Height(),
		config:     config,
		logger:     logger,
	}
}

// SetIntegrator replaces the light transport algorithm
func (rt *Raytracer) SetIntegrator(i integrator.Integrator) {
	rt.integrator = i
}

// Width returns the image width in pixels
func (rt *Raytracer) Width() int {
	return rt.width
}

// Height returns the image height in pixels
func (rt *Raytracer) Height() int {
	return rt.height
}

// RenderRow renders output row `row` (0 = top) using sampler, which must not
// be shared with other goroutines
func (rt *Raytracer) RenderRow(row int, sampler core.Sampler) []PixelStats {
	stats := make([]PixelStats, rt.width)

	for i := 0; i < rt.width; i++ {
		for sample := 0; sample < rt.config.SamplesPerPixel; sample++ {
			u, v := rt.camera.PixelCoords(i, row, sampler.Get1D(), sampler.Get1D())
			ray := rt.camera.GetRay(u, v, sampler)
			stats[i].AddSample(rt.integrator.RayColor(ray, rt.scene, sampler))
		}
	}

	return stats
}

// Render renders the full image in parallel. The scene is sealed first and
// must not change afterwards. Rows are gathered into their slot in the image
// regardless of completion order.
func (rt *Raytracer) Render(ctx context.Context) (*output.Image, RenderStats, error) {
	if rt.width <= 0 || rt.height <= 0 {
		return nil, RenderStats{}, fmt.Errorf("invalid image size %dx%d", rt.width, rt.height)
	}
	if rt.config.SamplesPerPixel <= 0 {
		return nil, RenderStats{}, fmt.Errorf("samples per pixel must be positive, got %d", rt.config.SamplesPerPixel)
	}

	rt.scene.Seal()
	start := time.Now()

	pool := NewWorkerPool(rt, rt.height, rt.config.NumWorkers)
	rt.logger.Printf("Rendering %dx%d, %d spp, depth %d, %d workers\n",
		rt.width, rt.height, rt.config.SamplesPerPixel, rt.config.MaxDepth, pool.GetNumWorkers())

	pool.Start(ctx)
	for row := 0; row < rt.height; row++ {
		pool.SubmitTask(RowTask{Row: row})
	}

	done := make(chan error, 1)
	go func() {
		done <- pool.Stop()
	}()

	img := output.NewImage(rt.width, rt.height)
	pixelStats := make([]PixelStats, rt.width*rt.height)
	progressStep := max(rt.height/10, 1)
	completed := 0

	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		img.SetRow(result.Row, result.Pixels)
		copy(pixelStats[result.Row*rt.width:], result.Stats)

		completed++
		if completed%progressStep == 0 && completed < rt.height {
			rt.logger.Printf("Scanlines remaining: %d\n", rt.height-completed)
		}
	}

	if err := <-done; err != nil {
		return nil, RenderStats{}, fmt.Errorf("render cancelled after %d of %d rows: %w", completed, rt.height, err)
	}

	stats := rt.collectStats(pixelStats, pool.GetNumWorkers(), time.Since(start))
	stats.RejectionFallbacks = pool.RejectionFallbacks()
	if stats.RejectionFallbacks > 0 {
		rt.logger.Printf("Warning: %d rejection samplers fell back to the origin\n", stats.RejectionFallbacks)
	}
	rt.logger.Printf("Done in %v\n", stats.Duration)

	return img, stats, nil
}

func (rt *Raytracer) collectStats(pixelStats []PixelStats, numWorkers int, duration time.Duration) RenderStats {
	stats := RenderStats{
		Width:           rt.width,
		Height:          rt.height,
		TotalPixels:     len(pixelStats),
		SamplesPerPixel: rt.config.SamplesPerPixel,
		MaxDepth:        rt.config.MaxDepth,
		NumWorkers:      numWorkers,
		Duration:        duration,
	}
	for i := range pixelStats {
		stats.TotalSamples += pixelStats[i].SampleCount
		stats.NaNSamples += pixelStats[i].NaNCount
	}
	stats.MeanLuminance, stats.StdDevLuminance = luminanceStats(pixelStats)
	return stats
}
