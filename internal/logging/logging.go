package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process: console output in development, JSON otherwise.
// An empty or unknown level falls back to debug in development and info elsewhere.
func Setup(environment, level string) zerolog.Logger {
	var w io.Writer = os.Stdout
	if environment == "development" {
		w = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	return SetupWithWriter(environment, level, w)
}

// SetupWithWriter is Setup with an explicit writer.
func SetupWithWriter(environment, level string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
		if environment == "development" {
			lvl = zerolog.DebugLevel
		}
	}
	logger := zerolog.New(w).With().Timestamp().Logger().Level(lvl)
	log.Logger = logger
	return logger
}
