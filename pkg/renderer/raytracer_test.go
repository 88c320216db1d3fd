package renderer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/output"
	"github.com/df07/go-pathtracer/pkg/scene"
)

func newGroundRaytracer(t *testing.T, width int, config SamplingConfig) *Raytracer {
	t.Helper()
	s := scene.NewGroundScene(geometry.CameraConfig{Width: width})
	return NewRaytracer(s, geometry.NewCamera(s.CameraConfig), config, NewNopLogger())
}

func TestRaytracer_GroundSceneEndToEnd(t *testing.T) {
	rt := newGroundRaytracer(t, 40, SamplingConfig{SamplesPerPixel: 1, MaxDepth: 1, NumWorkers: 3, Seed: 1})

	img, stats, err := rt.Render(context.Background())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if img.Width != 40 || img.Height != 22 {
		t.Fatalf("Expected 40x22 image, got %dx%d", img.Width, img.Height)
	}

	var buf bytes.Buffer
	if err := output.WritePPM(&buf, img); err != nil {
		t.Fatalf("WritePPM() error: %v", err)
	}

	scanner := bufio.NewScanner(&buf)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if diff := cmp.Diff([]string{"P3", "40 22", "255"}, lines[:3]); diff != "" {
		t.Errorf("PPM header mismatch (-want +got):\n%s", diff)
	}
	if len(lines)-3 != 40*22 {
		t.Errorf("Expected %d pixel lines, got %d", 40*22, len(lines)-3)
	}

	// Every escaping ray blends white and sky blue, whose blue channel is 1.
	// With one bounce of budget every ground hit is black.
	sky, ground := 0, 0
	for _, p := range img.Pixels {
		switch {
		case p.B == 255:
			sky++
		case p == (output.Pixel{}):
			ground++
		default:
			t.Fatalf("Unexpected pixel %v", p)
		}
	}
	if sky <= ground {
		t.Errorf("Expected mostly sky, got %d sky and %d ground pixels", sky, ground)
	}
	if ground == 0 {
		t.Error("Expected a visible ground in the lower half")
	}

	// Upper rows look above the horizon, the bottom row looks steeply down
	for y := 0; y < img.Height/2-1; y++ {
		for x := 0; x < img.Width; x++ {
			if img.At(x, y).B != 255 {
				t.Fatalf("Expected sky at (%d,%d), got %v", x, y, img.At(x, y))
			}
		}
	}
	for x := 0; x < img.Width; x++ {
		if img.At(x, img.Height-1) != (output.Pixel{}) {
			t.Fatalf("Expected ground at bottom row column %d, got %v", x, img.At(x, img.Height-1))
		}
	}

	if stats.TotalPixels != 40*22 || stats.TotalSamples != 40*22 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if stats.MeanLuminance <= 0 {
		t.Errorf("Expected positive mean luminance, got %f", stats.MeanLuminance)
	}
}

func TestRaytracer_RenderRowOrientation(t *testing.T) {
	rt := newGroundRaytracer(t, 20, SamplingConfig{SamplesPerPixel: 2, MaxDepth: 1})
	sampler := core.NewSeededSampler(5)

	top := rt.RenderRow(0, sampler)
	bottom := rt.RenderRow(rt.Height()-1, sampler)

	if len(top) != 20 || len(bottom) != 20 {
		t.Fatalf("Expected rows of 20 pixels, got %d and %d", len(top), len(bottom))
	}
	for i := range top {
		if top[i].SampleCount != 2 {
			t.Errorf("Expected 2 samples, got %d", top[i].SampleCount)
		}
		if top[i].GetColor().Z < 0.99 {
			t.Errorf("Top row pixel %d should be sky, got %v", i, top[i].GetColor())
		}
		if bottom[i].GetColor() != (core.Vec3{}) {
			t.Errorf("Bottom row pixel %d should be ground, got %v", i, bottom[i].GetColor())
		}
	}
}

func TestRaytracer_DeterministicAcrossWorkerCounts(t *testing.T) {
	render := func(workers int) *output.Image {
		s := scene.NewThreeSpheresScene(geometry.CameraConfig{Width: 24})
		rt := NewRaytracer(s, geometry.NewCamera(s.CameraConfig),
			SamplingConfig{SamplesPerPixel: 3, MaxDepth: 8, NumWorkers: workers, Seed: 99}, nil)
		img, _, err := rt.Render(context.Background())
		if err != nil {
			t.Fatalf("Render() with %d workers error: %v", workers, err)
		}
		return img
	}

	single := render(1)
	for _, workers := range []int{2, 5} {
		if diff := cmp.Diff(single.Pixels, render(workers).Pixels); diff != "" {
			t.Errorf("Image with %d workers differs from single worker:\n%s", workers, diff)
		}
	}
}

func TestRaytracer_SealsScene(t *testing.T) {
	rt := newGroundRaytracer(t, 8, SamplingConfig{SamplesPerPixel: 1, MaxDepth: 1})
	if _, _, err := rt.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !rt.scene.Sealed() {
		t.Error("Expected scene to be sealed after Render")
	}
	if err := rt.scene.AddSurface(geometry.NewSphere(core.Vec3{}, 1, 0)); !errors.Is(err, scene.ErrSealed) {
		t.Errorf("Expected ErrSealed, got %v", err)
	}
}

func TestRaytracer_Cancelled(t *testing.T) {
	rt := newGroundRaytracer(t, 16, SamplingConfig{SamplesPerPixel: 1, MaxDepth: 1, NumWorkers: 2})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := rt.Render(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRaytracer_InvalidConfig(t *testing.T) {
	rt := newGroundRaytracer(t, 8, SamplingConfig{SamplesPerPixel: 0, MaxDepth: 1})
	if _, _, err := rt.Render(context.Background()); err == nil {
		t.Error("Expected error for zero samples per pixel")
	}
}

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Printf(format string, args ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func TestRaytracer_LogsProgress(t *testing.T) {
	s := scene.NewGroundScene(geometry.CameraConfig{Width: 40})
	logger := &recordingLogger{}
	rt := NewRaytracer(s, geometry.NewCamera(s.CameraConfig), SamplingConfig{SamplesPerPixel: 1, MaxDepth: 1, NumWorkers: 1}, logger)

	if _, _, err := rt.Render(context.Background()); err != nil {
		t.Fatal(err)
	}

	progress := 0
	for _, line := range logger.lines {
		if strings.HasPrefix(line, "Scanlines remaining") {
			progress++
		}
	}
	// 22 rows logged every 2 rows, except when finished
	if progress != 10 {
		t.Errorf("Expected 10 progress lines, got %d: %v", progress, logger.lines)
	}
}

func TestSamplingConfigFor(t *testing.T) {
	s := scene.NewScene("test")
	s.SamplingConfig = scene.SamplingConfig{SamplesPerPixel: 7, MaxDepth: 0}

	config := SamplingConfigFor(s)
	if config.SamplesPerPixel != 7 {
		t.Errorf("Expected scene samples 7, got %d", config.SamplesPerPixel)
	}
	if config.MaxDepth != DefaultSamplingConfig().MaxDepth {
		t.Errorf("Expected default depth for zero scene depth, got %d", config.MaxDepth)
	}
}
