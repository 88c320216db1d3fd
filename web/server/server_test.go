package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// centerSampler jitters every sample to the pixel center and the lens center
type centerSampler struct{}

func (centerSampler) Get1D() float64   { return 0.5 }
func (centerSampler) Get2D() core.Vec2 { return core.NewVec2(0.5, 0.5) }
func (centerSampler) Get3D() core.Vec3 { return core.NewVec3(0.5, 0.5, 0.5) }

func newTestServer() *Server {
	return NewServer(0, "../../scenes", nil)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleHealth(t *testing.T) {
	rec := get(t, newTestServer(), "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body)
	}
}

func TestHandleScenes(t *testing.T) {
	rec := get(t, newTestServer(), "/api/scenes")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var response scene.ScenesResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatal(err)
	}
	if len(response.Groups) < 2 {
		t.Fatalf("Expected built-in and file groups, got %+v", response.Groups)
	}
	if response.Groups[0].Name != "Built-in Scenes" {
		t.Errorf("Expected built-in group first, got %q", response.Groups[0].Name)
	}

	found := false
	for _, group := range response.Groups {
		for _, info := range group.Scenes {
			if info.ID == "glass-marbles" && info.Type == "yaml" {
				found = true
			}
		}
	}
	if !found {
		t.Error("Expected glass-marbles scene file in listing")
	}
}

func TestHandleSceneConfig(t *testing.T) {
	rec := get(t, newTestServer(), "/api/scene-config?scene=ground&width=40")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Scene    string         `json:"scene"`
		Defaults map[string]int `json:"defaults"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Scene != "ground" || body.Defaults["width"] != 40 || body.Defaults["height"] != 22 {
		t.Errorf("Unexpected scene config %+v", body)
	}

	if rec := get(t, newTestServer(), "/api/scene-config?scene=nope"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown scene, got %d", rec.Code)
	}
}

func TestHandleRender_PPM(t *testing.T) {
	rec := get(t, newTestServer(), "/api/render?scene=ground&width=40&spp=1&depth=1&format=ppm")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/x-portable-pixmap" {
		t.Errorf("Expected PPM content type, got %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "P3\n40 22\n255\n") {
		t.Errorf("Unexpected PPM header %q", rec.Body.String()[:20])
	}
	if rec.Header().Get("X-Render-Samples") != "880" {
		t.Errorf("Expected 880 samples, got %q", rec.Header().Get("X-Render-Samples"))
	}
}

func TestHandleRender_Thumbnail(t *testing.T) {
	rec := get(t, newTestServer(), "/api/render?scene=ground&width=40&spp=1&depth=1&thumb=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected PNG by default, got %q", ct)
	}

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 10 || b.Dy() != 5 {
		t.Errorf("Expected 10x5 thumbnail, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestHandleRender_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int
	}{
		{"zero spp", "/api/render?spp=0", http.StatusBadRequest},
		{"width too large", "/api/render?width=5000", http.StatusBadRequest},
		{"non-numeric depth", "/api/render?depth=deep", http.StatusBadRequest},
		{"bad seed", "/api/render?seed=x", http.StatusBadRequest},
		{"unsupported format", "/api/render?format=gif", http.StatusBadRequest},
		{"unknown scene", "/api/render?scene=nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestServer(), tt.target)
			if rec.Code != tt.status {
				t.Errorf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["error"] == "" {
				t.Errorf("Expected JSON error body, got %v", err)
			}
		})
	}
}

func TestHandleRender_ClientGone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/render?scene=ground&width=40&spp=1&depth=1", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, req)

	if rec.Body.Len() != 0 {
		t.Errorf("Expected no body for a cancelled render, got %d bytes", rec.Body.Len())
	}
}

func TestHandleInspect(t *testing.T) {
	s := newTestServer()

	// Bottom row of the ground scene looks down onto the ground sphere
	rec := get(t, s, "/api/inspect?scene=ground&width=40&x=20&y=21")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var hit InspectResponse
	if err := json.NewDecoder(rec.Body).Decode(&hit); err != nil {
		t.Fatal(err)
	}
	if !hit.Hit || hit.GeometryType != "sphere" || hit.MaterialType != "lambertian" {
		t.Errorf("Expected lambertian sphere hit, got %+v", hit)
	}
	if !hit.FrontFace || math.Abs(hit.Normal[1]-1) > 1e-3 || math.Abs(hit.Point[1]) > 1e-3 {
		t.Errorf("Expected upward front-face normal on the ground, got %+v", hit)
	}

	// Top row sees only sky
	rec = get(t, s, "/api/inspect?scene=ground&width=40&x=20&y=0")
	var miss InspectResponse
	if err := json.NewDecoder(rec.Body).Decode(&miss); err != nil {
		t.Fatal(err)
	}
	if miss.Hit {
		t.Errorf("Expected miss at the top row, got %+v", miss)
	}

	for _, target := range []string{
		"/api/inspect?scene=ground&width=40&x=40&y=0",
		"/api/inspect?scene=ground&width=40&x=a&y=0",
	} {
		if rec := get(t, s, target); rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for %s, got %d", target, rec.Code)
		}
	}
}

func TestInspectPixel_MaterialInfo(t *testing.T) {
	s, err := newTestServer().createScene(sceneParams{Scene: "three-spheres", Width: 80})
	if err != nil {
		t.Fatal(err)
	}

	// The three-spheres camera looks at the middle sphere
	result := inspectPixel(s, 40, 22)
	if !result.Hit {
		t.Fatal("Expected the center pixel to hit the middle sphere")
	}
	kind, props := extractMaterialInfo(result.Material)
	if kind != "lambertian" || props["color"] == nil {
		t.Errorf("Expected lambertian with color, got %s %v", kind, props)
	}
}

func TestInspectPixel_MatchesRender(t *testing.T) {
	s, err := newTestServer().createScene(sceneParams{Scene: "ground", Width: 40})
	if err != nil {
		t.Fatal(err)
	}

	// With one bounce of budget a pixel is black exactly when its ray hits
	camera := geometry.NewCamera(s.CameraConfig)
	rt := renderer.NewRaytracer(s, camera, renderer.SamplingConfig{SamplesPerPixel: 1, MaxDepth: 1}, nil)

	hits := 0
	for row := 0; row < rt.Height(); row++ {
		stats := rt.RenderRow(row, centerSampler{})
		for x := range stats {
			rendered := stats[x].ColorAccum == (core.Vec3{})
			inspected := inspectPixel(s, x, row).Hit
			if rendered != inspected {
				t.Errorf("Pixel (%d,%d): render hit=%v, inspect hit=%v", x, row, rendered, inspected)
			}
			if inspected {
				hits++
			}
		}
	}
	if hits == 0 || hits == rt.Width()*rt.Height() {
		t.Errorf("Expected both sky and ground pixels, got %d hits", hits)
	}
}
