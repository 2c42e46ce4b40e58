// Package slog decorates harvest services with structured logging.
//
// Every decorator logs one record per call, after the call returns, with
// its arguments, a size or count, the duration and the error.
package slog

import (
	"io"
	"log/slog"
)

// NewLogger returns a text logger writing to w. Debug records are only
// written when verbose is set.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
