package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/df07/go-pathtracer/pkg/core"
)

// DefaultLogger implements core.Logger on top of zerolog. Messages go to the
// configured writer (stderr for the CLI) so stdout stays free for image data.
type DefaultLogger struct {
	log zerolog.Logger
}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	dl.log.Info().Msg(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

// Zerolog exposes the underlying logger for structured events
func (dl *DefaultLogger) Zerolog() *zerolog.Logger {
	return &dl.log
}

// NewDefaultLogger creates a console logger writing to w at the given level
// ("debug", "info", "warn", "error", or "disabled")
func NewDefaultLogger(w io.Writer, level string) (*DefaultLogger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(lvl).
		With().
		Timestamp().
		Logger()

	return &DefaultLogger{log: log}, nil
}

// NopLogger discards everything
type NopLogger struct{}

func (NopLogger) Printf(string, ...interface{}) {}

// NewNopLogger creates a logger that discards all output
func NewNopLogger() core.Logger {
	return NopLogger{}
}
