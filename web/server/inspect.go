package server

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType"`
	GeometryType string                 `json:"geometryType"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Properties   map[string]interface{} `json:"properties"`
}

// InspectResult is the first surface an inspection ray hits
type InspectResult struct {
	Hit       bool
	HitRecord material.HitRecord
	Surface   geometry.Surface
	Material  material.Material
}

// inspectPixel casts a ray through the center of pixel (x, y), where y = 0 is
// the top row. The lens and shutter are ignored so the ray is deterministic.
func inspectPixel(sceneObj *scene.Scene, pixelX, pixelY int) InspectResult {
	config := sceneObj.CameraConfig
	config.Aperture = 0
	config.ShutterClose = config.ShutterOpen
	camera := geometry.NewCamera(config)

	u, v := camera.PixelCoords(pixelX, pixelY, 0.5, 0.5)
	ray := camera.GetRay(u, v, nil)

	surface, hit, ok := sceneObj.HitSurface(ray, integrator.ShadowAcneEpsilon, math.Inf(1))
	if !ok {
		return InspectResult{}
	}
	return InspectResult{
		Hit:       true,
		HitRecord: hit,
		Surface:   surface,
		Material:  sceneObj.Material(hit.Material),
	}
}

// extractMaterialInfo describes a material for the inspector
func extractMaterialInfo(mat material.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch mat.Kind {
	case material.KindLambertian, material.KindMetal:
		properties["albedo"] = vecArray(mat.Albedo)
		properties["color"] = hexColor(mat.Albedo)
		if mat.Kind == material.KindMetal {
			properties["fuzz"] = mat.Fuzz
		}
	case material.KindDielectric:
		properties["refractiveIndex"] = mat.RefractiveIndex
		properties["color"] = "#ffffff"
	}
	return mat.Kind.String(), properties
}

// extractGeometryInfo describes a surface for the inspector
func extractGeometryInfo(surface geometry.Surface) (string, map[string]interface{}) {
	properties := map[string]interface{}{
		"center": vecArray(surface.Center0),
		"radius": surface.Radius,
	}
	if surface.Radius < 0 {
		properties["hollow"] = true
	}
	if surface.Kind == geometry.KindMovingSphere {
		properties["center1"] = vecArray(surface.Center1)
		properties["time0"] = surface.Time0
		properties["time1"] = surface.Time1
	}
	return surface.Kind.String(), properties
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	params, err := parseSceneParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}

	sceneObj, err := s.createScene(params)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	camera := geometry.NewCamera(sceneObj.CameraConfig)
	if pixelX < 0 || pixelX >= camera.Width() || pixelY < 0 || pixelY >= camera.Height() {
		writeError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	result := inspectPixel(sceneObj, pixelX, pixelY)
	if !result.Hit {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false})
		return
	}

	materialType, materialProps := extractMaterialInfo(result.Material)
	geometryType, geometryProps := extractGeometryInfo(result.Surface)

	response := InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		GeometryType: geometryType,
		Point:        vecArray(result.HitRecord.Point),
		Normal:       vecArray(result.HitRecord.Normal),
		Distance:     result.HitRecord.T,
		FrontFace:    result.HitRecord.FrontFace,
		Properties: map[string]interface{}{
			"material": materialProps,
			"geometry": geometryProps,
		},
	}
	writeJSON(w, http.StatusOK, response)
}

func vecArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func hexColor(c core.Vec3) string {
	c = c.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}
