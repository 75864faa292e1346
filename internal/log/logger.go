package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger: human-readable console output during
// development, plain JSON lines in production.
func New(environment string) zerolog.Logger {
	var output io.Writer = os.Stdout
	level := zerolog.InfoLevel
	if environment != "production" {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	return zerolog.New(output).With().
		Timestamp().
		Str("service", "gymhub-api").
		Str("env", environment).
		Logger()
}
