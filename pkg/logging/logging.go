// Package logging builds the zerolog loggers used by the functions and the CLI.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a JSON logger writing to stdout, which Lambda ships to CloudWatch.
// LOG_LEVEL overrides the default info level.
func New(app string) zerolog.Logger {
	return zerolog.New(os.Stdout).Level(level()).With().Timestamp().Str("app", app).Logger()
}

// NewConsole returns a human readable logger on stderr for command line use.
func NewConsole(app string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level()).With().Timestamp().Str("app", app).Logger()
}

func level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
