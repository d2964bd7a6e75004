// Package logging configures the zerolog logger shared by the host tools.
package logging

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvLogLevel overrides the log level, e.g. "debug" or "off".
const EnvLogLevel = "RPIBOOT_LOG_LEVEL"

var (
	configureOnce sync.Once
	logger        zerolog.Logger
)

// Configure sets up the logger for app and installs it as log.Logger. Only
// the first call has an effect. Logs go to stderr, since the tools use stdout
// to mirror the board's console.
func Configure(app string) zerolog.Logger {
	configureOnce.Do(func() {
		level := zerolog.InfoLevel
		if l, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
			level = l
		}
		output := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
		logger = zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
		log.Logger = logger
	})
	return logger
}

// parseLevel accepts anything zerolog.ParseLevel does, plus "off" and
// "none" for disabled.
func parseLevel(raw string) (zerolog.Level, bool) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "":
		return zerolog.InfoLevel, false
	case "off", "none":
		return zerolog.Disabled, true
	}
	level, err := zerolog.ParseLevel(raw)
	if err != nil {
		return zerolog.InfoLevel, false
	}
	return level, true
}
