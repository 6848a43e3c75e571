// Package termio decides how the binaries talk to a terminal: pretty
// console logs when stderr is interactive, plain JSON lines when piped.
package termio

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// IsTerminal reports whether f is an interactive terminal, Cygwin
// pseudo-terminals included.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Logger builds the process logger writing to f: a ConsoleWriter when
// f is interactive, JSON otherwise.
func Logger(f *os.File) zerolog.Logger {
	var w io.Writer = f
	if IsTerminal(f) {
		w = zerolog.ConsoleWriter{Out: f}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// Level parses a log-level flag, falling back to info on anything
// unknown.
func Level(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	// ParseLevel maps the empty string to NoLevel without an error;
	// treat it as unset rather than turning logging off.
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
