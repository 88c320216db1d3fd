package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
	"github.com/df07/go-pathtracer/web/server"
)

func main() {
	var (
		port      int
		scenesDir string
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:          "pathtracer-web",
		Short:        "HTTP render service for the path tracer",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := renderer.NewDefaultLogger(os.Stderr, logLevel)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Printf("Path Tracer Web Server\n")
			logger.Printf("Visit http://localhost:%d/api/scenes to list scenes\n", port)
			return server.NewServer(port, scenesDir, logger).Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to serve on")
	cmd.Flags().StringVar(&scenesDir, "scenes", scene.ScenesDir(), "directory of YAML scene files")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
