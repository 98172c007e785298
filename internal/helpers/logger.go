package helpers

import (
	"io"
	"log/slog"
)

// NewNoopLogger returns a logger that discards everything. Components default to it until a
// logger is injected.
func NewNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
