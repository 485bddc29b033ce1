package logger

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the zerolog logger with JSON output to stdout
// and applies the configured level. Called again on config reload to
// re-apply the level live.
func InitLogger(logLevel string) {
	log.Logger = log.Output(os.Stdout).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(ParseLevel(logLevel))
}

// ParseLevel maps a config string to a zerolog level, defaulting to
// info on anything unrecognized.
func ParseLevel(logLevel string) zerolog.Level {
	switch logLevel {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}
