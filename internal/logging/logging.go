// Package logging builds the zerolog logger shared by the commands, the
// scanner and the API server.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options selects level and output format. Format is "text" for a human
// console writer or "json" for raw structured lines.
type Options struct {
	Level  string
	Format string
	Out    io.Writer
}

// New returns a logger writing to opts.Out (stderr when nil). An unknown
// level falls back to info.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	if strings.EqualFold(opts.Format, "json") {
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}
