// Package logx provides the process-wide structured logger. It wraps
// zerolog, picking a console or JSON writer based on whether stdout is
// a terminal, the same shape the rest of the corpus uses to choose a
// writer for terminal-vs-plain output.
package logx

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Logger is a thin alias so callers don't need to import zerolog
// directly just to hold a reference.
type Logger = zerolog.Logger

var base zerolog.Logger

func init() {
	var writer interface{ Write([]byte) (int, error) } = os.Stdout
	if isatty.IsTerminal(os.Stdout.Fd()) {
		writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}
	base = zerolog.New(writer).With().Timestamp().Logger()
}

// SetLevel adjusts the global minimum level ("debug", "info", "warn",
// "error"); unrecognized values fall back to "info".
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// Component returns a child logger tagged with a "component" field, e.g.
// logx.Component("sim") or logx.Component("worker").
func Component(name string) *Logger {
	l := base.With().Str("component", name).Logger()
	return &l
}

// Base returns the root logger, for one-off top-level messages (startup
// banners, fatal bind errors) that don't belong to a single component.
func Base() *Logger { return &base }
