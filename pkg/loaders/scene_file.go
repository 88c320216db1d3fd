package loaders

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// Vec3 is a YAML triple [x, y, z]
type Vec3 core.Vec3

// UnmarshalYAML accepts exactly three numbers in a sequence
func (v *Vec3) UnmarshalYAML(node *yaml.Node) error {
	var values []float64
	if err := node.Decode(&values); err != nil {
		return fmt.Errorf("line %d: expected [x, y, z]: %w", node.Line, err)
	}
	if len(values) != 3 {
		return fmt.Errorf("line %d: expected 3 components, got %d", node.Line, len(values))
	}
	*v = Vec3{X: values[0], Y: values[1], Z: values[2]}
	return nil
}

// SceneFile is the on-disk scene description
type SceneFile struct {
	Name       string          `yaml:"name"`
	Background *BackgroundSpec `yaml:"background,omitempty"`
	Camera     CameraSpec      `yaml:"camera"`
	Sampling   SamplingSpec    `yaml:"sampling"`
	Materials  []MaterialSpec  `yaml:"materials"`
	Spheres    []SphereSpec    `yaml:"spheres"`
}

// BackgroundSpec describes the sky gradient
type BackgroundSpec struct {
	Top    Vec3 `yaml:"top"`
	Bottom Vec3 `yaml:"bottom"`
}

// CameraSpec mirrors geometry.CameraConfig; omitted fields keep their defaults
type CameraSpec struct {
	Eye           Vec3    `yaml:"eye"`
	LookAt        Vec3    `yaml:"look_at"`
	Up            Vec3    `yaml:"up"`
	Width         int     `yaml:"width"`
	AspectRatio   float64 `yaml:"aspect_ratio"`
	VFov          float64 `yaml:"vfov"`
	Aperture      float64 `yaml:"aperture"`
	FocusDistance float64 `yaml:"focus_distance"`
	ShutterOpen   float64 `yaml:"shutter_open"`
	ShutterClose  float64 `yaml:"shutter_close"`
}

// SamplingSpec holds the recommended sampling settings
type SamplingSpec struct {
	SamplesPerPixel int `yaml:"samples_per_pixel"`
	MaxDepth        int `yaml:"max_depth"`
}

// MaterialSpec is a named material
type MaterialSpec struct {
	Name            string  `yaml:"name"`
	Type            string  `yaml:"type"` // lambertian, metal or dielectric
	Albedo          Vec3    `yaml:"albedo"`
	Fuzz            float64 `yaml:"fuzz"`
	RefractiveIndex float64 `yaml:"refractive_index"`
}

// SphereSpec is a static sphere, or a moving one when Center1 is set
type SphereSpec struct {
	Center   Vec3    `yaml:"center"`
	Center1  *Vec3   `yaml:"center1,omitempty"`
	Time0    float64 `yaml:"time0"`
	Time1    float64 `yaml:"time1"`
	Radius   float64 `yaml:"radius"`
	Material string  `yaml:"material"`
}

// DefaultFileCamera is used for any camera field a scene file leaves out
var DefaultFileCamera = geometry.CameraConfig{
	Center:      core.NewVec3(0, 1, 5),
	LookAt:      core.NewVec3(0, 0, 0),
	Up:          core.NewVec3(0, 1, 0),
	Width:       400,
	AspectRatio: 16.0 / 9.0,
	VFov:        40.0,
}

// LoadSceneFile reads and builds a scene from a YAML file
func LoadSceneFile(path string, cameraOverrides ...geometry.CameraConfig) (*scene.Scene, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := ParseScene(file, name, cameraOverrides...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScene decodes a YAML scene description and builds the scene.
// defaultName is used when the file does not set a name.
func ParseScene(r io.Reader, defaultName string, cameraOverrides ...geometry.CameraConfig) (*scene.Scene, error) {
	var spec SceneFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}

	return BuildScene(spec, defaultName, cameraOverrides...)
}

// BuildScene turns a decoded description into a scene
func BuildScene(spec SceneFile, defaultName string, cameraOverrides ...geometry.CameraConfig) (*scene.Scene, error) {
	name := spec.Name
	if name == "" {
		name = defaultName
	}
	s := scene.NewScene(name)

	if spec.Background != nil {
		s.Background = scene.Background{
			Top:    core.Vec3(spec.Background.Top),
			Bottom: core.Vec3(spec.Background.Bottom),
		}
	}

	cameraConfig := geometry.MergeCameraConfig(DefaultFileCamera, spec.Camera.config())
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(cameraConfig, cameraOverrides[0])
	}
	s.CameraConfig = cameraConfig

	if spec.Sampling.SamplesPerPixel > 0 {
		s.SamplingConfig.SamplesPerPixel = spec.Sampling.SamplesPerPixel
	}
	if spec.Sampling.MaxDepth > 0 {
		s.SamplingConfig.MaxDepth = spec.Sampling.MaxDepth
	}

	handles := make(map[string]material.Handle, len(spec.Materials))
	for i, m := range spec.Materials {
		if m.Name == "" {
			return nil, fmt.Errorf("material %d has no name", i)
		}
		if _, exists := handles[m.Name]; exists {
			return nil, fmt.Errorf("duplicate material %q", m.Name)
		}
		mat, err := m.material()
		if err != nil {
			return nil, err
		}
		h, err := s.AddMaterial(mat)
		if err != nil {
			return nil, err
		}
		handles[m.Name] = h
	}

	for i, sp := range spec.Spheres {
		h, ok := handles[sp.Material]
		if !ok {
			return nil, fmt.Errorf("sphere %d references unknown material %q", i, sp.Material)
		}
		if sp.Radius == 0 {
			return nil, fmt.Errorf("sphere %d has zero radius", i)
		}

		surface := geometry.NewSphere(core.Vec3(sp.Center), sp.Radius, h)
		if sp.Center1 != nil {
			surface = geometry.NewMovingSphere(core.Vec3(sp.Center), core.Vec3(*sp.Center1), sp.Time0, sp.Time1, sp.Radius, h)
		}
		if err := s.AddSurface(surface); err != nil {
			return nil, fmt.Errorf("sphere %d: %w", i, err)
		}
	}

	return s, nil
}

func (c CameraSpec) config() geometry.CameraConfig {
	return geometry.CameraConfig{
		Center:        core.Vec3(c.Eye),
		LookAt:        core.Vec3(c.LookAt),
		Up:            core.Vec3(c.Up),
		Width:         c.Width,
		AspectRatio:   c.AspectRatio,
		VFov:          c.VFov,
		Aperture:      c.Aperture,
		FocusDistance: c.FocusDistance,
		ShutterOpen:   c.ShutterOpen,
		ShutterClose:  c.ShutterClose,
	}
}

func (m MaterialSpec) material() (material.Material, error) {
	switch strings.ToLower(m.Type) {
	case "lambertian", "diffuse":
		return material.NewLambertian(core.Vec3(m.Albedo)), nil
	case "metal":
		return material.NewMetal(core.Vec3(m.Albedo), m.Fuzz), nil
	case "dielectric", "glass":
		if m.RefractiveIndex <= 0 {
			return material.Material{}, fmt.Errorf("material %q: dielectric needs a positive refractive_index", m.Name)
		}
		return material.NewDielectric(m.RefractiveIndex), nil
	}
	return material.Material{}, fmt.Errorf("material %q: unknown type %q", m.Name, m.Type)
}

// Resolve finds a scene by built-in ID, by the ID of a file in scenesDir, or
// by a path to a scene file
func Resolve(name string, seed int64, scenesDir string, cameraOverrides ...geometry.CameraConfig) (*scene.Scene, error) {
	s, err := scene.NewBuiltIn(name, seed, cameraOverrides...)
	if err == nil {
		return s, nil
	}

	if info, ok := scene.FindFileScene(scenesDir, name); ok {
		return LoadSceneFile(info.FilePath, cameraOverrides...)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".yaml" || ext == ".yml" {
		if _, statErr := os.Stat(name); statErr == nil {
			return LoadSceneFile(name, cameraOverrides...)
		}
	}

	return nil, err
}
