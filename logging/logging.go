// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options controls logger output
type Options struct {
	// Out defaults to stdout. MCP stdio mode must pass stderr.
	Out io.Writer

	Debug bool

	// JSON disables the console writer
	JSON bool
}

// Setup replaces the global logger and level
func Setup(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	if !opts.JSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}
