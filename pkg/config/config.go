package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/output"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// EnvPrefix is prepended to every environment override, e.g. PATHTRACER_SAMPLING_MAX_DEPTH
const EnvPrefix = "PATHTRACER"

// Config holds every render parameter. Zero numeric values and empty vectors
// mean "use the scene preset's value".
type Config struct {
	Scene    string         `yaml:"scene" mapstructure:"scene"`
	Output   string         `yaml:"output" mapstructure:"output"`
	Seed     int64          `yaml:"seed" mapstructure:"seed"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Image    ImageConfig    `yaml:"image" mapstructure:"image"`
	Sampling SamplingConfig `yaml:"sampling" mapstructure:"sampling"`
	Camera   CameraConfig   `yaml:"camera" mapstructure:"camera"`
}

// LogConfig controls the console logger
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// ImageConfig sets the output resolution
type ImageConfig struct {
	Width       int     `yaml:"width" mapstructure:"width"`
	AspectRatio float64 `yaml:"aspect_ratio" mapstructure:"aspect_ratio"`
}

// SamplingConfig sets the sample budget and parallelism
type SamplingConfig struct {
	SamplesPerPixel int `yaml:"samples_per_pixel" mapstructure:"samples_per_pixel"`
	MaxDepth        int `yaml:"max_depth" mapstructure:"max_depth"`
	Workers         int `yaml:"workers" mapstructure:"workers"`
}

// CameraConfig overrides the scene camera
type CameraConfig struct {
	Eye           []float64 `yaml:"eye" mapstructure:"eye"`
	LookAt        []float64 `yaml:"look_at" mapstructure:"look_at"`
	Up            []float64 `yaml:"up" mapstructure:"up"`
	VFov          float64   `yaml:"vfov" mapstructure:"vfov"`
	Aperture      float64   `yaml:"aperture" mapstructure:"aperture"`
	FocusDistance float64   `yaml:"focus_distance" mapstructure:"focus_distance"`
	ShutterOpen   float64   `yaml:"shutter_open" mapstructure:"shutter_open"`
	ShutterClose  float64   `yaml:"shutter_close" mapstructure:"shutter_close"`
}

// DefaultConfig returns the configuration used when nothing else is set
func DefaultConfig() *Config {
	return &Config{
		Scene:  "ground",
		Output: "-",
		Seed:   renderer.DefaultSamplingConfig().Seed,
		Log:    LogConfig{Level: "info"},
		Camera: CameraConfig{
			Eye:    []float64{},
			LookAt: []float64{},
			Up:     []float64{},
		},
	}
}

// SetDefaults registers every key on v so environment variables and
// Unmarshal see the full key set
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("scene", d.Scene)
	v.SetDefault("output", d.Output)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("image.width", d.Image.Width)
	v.SetDefault("image.aspect_ratio", d.Image.AspectRatio)
	v.SetDefault("sampling.samples_per_pixel", d.Sampling.SamplesPerPixel)
	v.SetDefault("sampling.max_depth", d.Sampling.MaxDepth)
	v.SetDefault("sampling.workers", d.Sampling.Workers)
	v.SetDefault("camera.eye", d.Camera.Eye)
	v.SetDefault("camera.look_at", d.Camera.LookAt)
	v.SetDefault("camera.up", d.Camera.Up)
	v.SetDefault("camera.vfov", d.Camera.VFov)
	v.SetDefault("camera.aperture", d.Camera.Aperture)
	v.SetDefault("camera.focus_distance", d.Camera.FocusDistance)
	v.SetDefault("camera.shutter_open", d.Camera.ShutterOpen)
	v.SetDefault("camera.shutter_close", d.Camera.ShutterClose)
}

// Load reads the configuration into v and returns the validated result.
// configFile may be empty, in which case pathtracer.yaml is looked up in
// the working directory and ./configs; a missing file is not an error.
// Flags should already be bound to v.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("pathtracer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks ranges and shapes of every field
func (c *Config) Validate() error {
	if c.Scene == "" {
		return fmt.Errorf("%w: scene cannot be empty", ErrInvalidConfig)
	}
	if c.Output != "-" {
		if _, err := output.FormatFromPath(c.Output); err != nil {
			return fmt.Errorf("%w: output %q: %v", ErrInvalidConfig, c.Output, err)
		}
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	}

	nonNegative := []struct {
		key   string
		value float64
	}{
		{"image.width", float64(c.Image.Width)},
		{"image.aspect_ratio", c.Image.AspectRatio},
		{"sampling.samples_per_pixel", float64(c.Sampling.SamplesPerPixel)},
		{"sampling.max_depth", float64(c.Sampling.MaxDepth)},
		{"sampling.workers", float64(c.Sampling.Workers)},
		{"camera.aperture", c.Camera.Aperture},
		{"camera.focus_distance", c.Camera.FocusDistance},
	}
	for _, f := range nonNegative {
		if f.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidConfig, f.key, f.value)
		}
	}

	if c.Camera.VFov < 0 || c.Camera.VFov >= 180 {
		return fmt.Errorf("%w: camera.vfov must be in [0, 180), got %v", ErrInvalidConfig, c.Camera.VFov)
	}
	if c.Camera.ShutterClose < c.Camera.ShutterOpen {
		return fmt.Errorf("%w: camera.shutter_close %v is before shutter_open %v",
			ErrInvalidConfig, c.Camera.ShutterClose, c.Camera.ShutterOpen)
	}

	vectors := map[string][]float64{
		"camera.eye":     c.Camera.Eye,
		"camera.look_at": c.Camera.LookAt,
		"camera.up":      c.Camera.Up,
	}
	for key, vec := range vectors {
		if len(vec) != 0 && len(vec) != 3 {
			return fmt.Errorf("%w: %s needs 3 components, got %d", ErrInvalidConfig, key, len(vec))
		}
	}

	return nil
}

// CameraOverrides converts the camera and image settings into an override
// for geometry.MergeCameraConfig
func (c *Config) CameraOverrides() geometry.CameraConfig {
	return geometry.CameraConfig{
		Center:        toVec3(c.Camera.Eye),
		LookAt:        toVec3(c.Camera.LookAt),
		Up:            toVec3(c.Camera.Up),
		Width:         c.Image.Width,
		AspectRatio:   c.Image.AspectRatio,
		VFov:          c.Camera.VFov,
		Aperture:      c.Camera.Aperture,
		FocusDistance: c.Camera.FocusDistance,
		ShutterOpen:   c.Camera.ShutterOpen,
		ShutterClose:  c.Camera.ShutterClose,
	}
}

// RenderSampling returns the scene's recommended sampling with any
// configured values applied on top
func (c *Config) RenderSampling(s *scene.Scene) renderer.SamplingConfig {
	sampling := renderer.SamplingConfigFor(s)
	if c.Sampling.SamplesPerPixel > 0 {
		sampling.SamplesPerPixel = c.Sampling.SamplesPerPixel
	}
	if c.Sampling.MaxDepth > 0 {
		sampling.MaxDepth = c.Sampling.MaxDepth
	}
	sampling.NumWorkers = c.Sampling.Workers
	sampling.Seed = c.Seed
	return sampling
}

// WriteDefault writes a YAML template of the default
// configuration to path, creating parent directories as needed
func WriteDefault(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func toVec3(values []float64) core.Vec3 {
	if len(values) != 3 {
		return core.Vec3{}
	}
	return core.NewVec3(values[0], values[1], values[2])
}
