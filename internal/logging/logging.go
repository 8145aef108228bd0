// Package logging builds the slog loggers shared by the dashboard and the
// preview server.
package logging

import (
	"io"
	"log/slog"

	"github.com/mattn/go-isatty"
)

// New returns a structured logger writing to w at level. Output is
// human-readable text when w is a terminal and JSON otherwise.
func New(w io.Writer, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if isTerminal(w) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
