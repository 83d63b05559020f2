// Package logging builds the process logger.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// TimeFormat is used by the console writer.
const TimeFormat = "2006-01-02 15:04:05"

// New returns a console logger at the given level. An empty or unknown
// level falls back to info. A nil writer means stderr.
func New(level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: TimeFormat,
		NoColor:    w != os.Stderr && w != os.Stdout,
	}
	return zerolog.New(console).
		Level(lvl).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger()
}

// Component returns a child logger tagged with a component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
