package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/df07/go-pathtracer/pkg/config"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/loaders"
	"github.com/df07/go-pathtracer/pkg/output"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

const (
	appName = "pathtracer"
	version = "v1.0.0"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree with its own viper instance
func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Monte Carlo path tracer for sphere scenes",
		Long: `pathtracer renders scenes made of spheres with diffuse, metal and glass
materials. Rays bounce until they escape to the sky or run out of depth; the
image is written as plain PPM to stdout or to a PNG, JPEG, BMP or TIFF file.`,
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: pathtracer.yaml in . or ./configs)")

	rootCmd.AddCommand(newRenderCmd(v, &cfgFile))
	rootCmd.AddCommand(newScenesCmd())
	rootCmd.AddCommand(newInitConfigCmd())
	return rootCmd
}

func newRenderCmd(v *viper.Viper, cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a scene",
		Long: `Render a built-in scene, a scene from the scenes directory, or a YAML
scene file. Flags override the config file, which overrides the scene's own
camera and sampling settings. Use -o - to stream PPM to stdout.`,
		Example: `  pathtracer render --scene ground > image.ppm
  pathtracer render --scene random --width 1200 --spp 500 -o random.png
  PATHTRACER_SAMPLING_WORKERS=4 pathtracer render --scene scenes/glass-marbles.yaml -o marbles.tiff`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, *cfgFile)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runRender(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.String("scene", "", "scene name or path to a YAML scene file")
	flags.StringP("output", "o", "", "output file (.ppm, .png, .jpg, .bmp, .tiff) or - for stdout")
	flags.Int64("seed", 0, "base random seed")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Int("width", 0, "image width in pixels")
	flags.Float64("aspect-ratio", 0, "image aspect ratio (width/height)")
	flags.Int("spp", 0, "samples per pixel")
	flags.Int("max-depth", 0, "maximum ray bounce depth")
	flags.Int("workers", 0, "number of parallel workers (0 = CPU count)")
	flags.StringSlice("eye", nil, "camera position as x,y,z")
	flags.StringSlice("look-at", nil, "camera target as x,y,z")
	flags.StringSlice("up", nil, "camera up vector as x,y,z")
	flags.Float64("vfov", 0, "vertical field of view in degrees")
	flags.Float64("aperture", 0, "lens aperture (0 = pinhole)")
	flags.Float64("focus-distance", 0, "focus distance (0 = distance to target)")
	flags.Float64("shutter-open", 0, "shutter open time")
	flags.Float64("shutter-close", 0, "shutter close time")

	bindings := map[string]string{
		"scene":                      "scene",
		"output":                     "output",
		"seed":                       "seed",
		"log.level":                  "log-level",
		"image.width":                "width",
		"image.aspect_ratio":         "aspect-ratio",
		"sampling.samples_per_pixel": "spp",
		"sampling.max_depth":         "max-depth",
		"sampling.workers":           "workers",
		"camera.eye":                 "eye",
		"camera.look_at":             "look-at",
		"camera.up":                  "up",
		"camera.vfov":                "vfov",
		"camera.aperture":            "aperture",
		"camera.focus_distance":      "focus-distance",
		"camera.shutter_open":        "shutter-open",
		"camera.shutter_close":       "shutter-close",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", flag, err))
		}
	}

	return cmd
}

func newScenesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenes",
		Short: "List available scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listScenes(cmd.OutOrStdout(), scene.ScenesDir())
		},
	}
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "pathtracer.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to: %s\n", path)
			return nil
		},
	}
}

// createScene resolves a scene by name or path and applies camera overrides
func createScene(sceneType string, seed int64, overrides geometry.CameraConfig) (*scene.Scene, error) {
	if sceneType == "" {
		return nil, fmt.Errorf("%w: empty scene name", scene.ErrUnknownScene)
	}
	return loaders.Resolve(sceneType, seed, scene.ScenesDir(), overrides)
}

func runRender(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	logger, err := renderer.NewDefaultLogger(stderr, cfg.Log.Level)
	if err != nil {
		return err
	}

	s, err := createScene(cfg.Scene, cfg.Seed, cfg.CameraOverrides())
	if err != nil {
		return err
	}
	logger.Printf("Using %s scene...\n", s.Name)

	camera := geometry.NewCamera(s.CameraConfig)
	raytracer := renderer.NewRaytracer(s, camera, cfg.RenderSampling(s), logger)

	img, stats, err := raytracer.Render(ctx)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if err := writeImage(cfg.Output, stdout, img); err != nil {
		return err
	}

	logger.Zerolog().Info().
		Str("scene", s.Name).
		Int("width", stats.Width).
		Int("height", stats.Height).
		Int("spp", stats.SamplesPerPixel).
		Int("max_depth", stats.MaxDepth).
		Int("workers", stats.NumWorkers).
		Dur("duration", stats.Duration).
		Float64("samples_per_sec", stats.SamplesPerSecond()).
		Float64("mean_luminance", stats.MeanLuminance).
		Str("output", cfg.Output).
		Msg("Render complete")
	return nil
}

// writeImage streams PPM to stdout for "-" and otherwise encodes by extension
func writeImage(path string, stdout io.Writer, img *output.Image) error {
	if path == "-" {
		return output.WritePPM(stdout, img)
	}

	format, err := output.FormatFromPath(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	if err := output.Encode(file, img, format); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func listScenes(w io.Writer, dir string) error {
	response, err := scene.ListAllScenes(dir)
	if err != nil {
		return err
	}

	for _, group := range response.Groups {
		fmt.Fprintf(w, "%s:\n", group.Name)
		for _, info := range group.Scenes {
			if info.Description != "" {
				fmt.Fprintf(w, "  %-16s %s\n", info.ID, info.Description)
			} else {
				fmt.Fprintf(w, "  %s\n", info.ID)
			}
		}
	}
	return nil
}
