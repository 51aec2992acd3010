// Package testutil holds shared test helpers.
package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards everything, keeping worker
// and handler output out of test logs.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
