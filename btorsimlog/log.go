// Package btorsimlog provides a configurable logger shared across the
// simulator's components, in the spirit of gnark's logger package: a
// package-level zerolog.Logger, an override hook, and level-gated
// messages instead of scattered log.Printf calls.
package btorsimlog

import (
	"os"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05", NoColor: true}
	logger = zerolog.New(output).With().Timestamp().Logger()
	logger = logger.Level(zerolog.Disabled)
}

// Set overrides the global logger.
func Set(l zerolog.Logger) { logger = l }

// Disable silences all logging.
func Disable() { logger = logger.Level(zerolog.Disabled) }

// Logger returns the shared logger.
func Logger() zerolog.Logger { return logger }

// SetVerbosity maps the simulator's -v repeat count (0-5, per spec.md
// §7) onto zerolog levels: 0 disables informational output entirely,
// higher values progressively reveal debug/trace detail.
func SetVerbosity(v int) {
	switch {
	case v <= 0:
		logger = logger.Level(zerolog.Disabled)
	case v == 1:
		logger = logger.Level(zerolog.InfoLevel)
	case v == 2, v == 3:
		logger = logger.Level(zerolog.DebugLevel)
	default:
		logger = logger.Level(zerolog.TraceLevel)
	}
}

// Msg emits a level-gated informational message, mirroring the
// original tool's verbosity-numbered msg() helper. level is 1-5.
func Msg(level int, format string, args ...interface{}) {
	var ev *zerolog.Event
	switch {
	case level <= 1:
		ev = logger.Info()
	case level <= 3:
		ev = logger.Debug()
	default:
		ev = logger.Trace()
	}
	ev.Msgf(format, args...)
}
