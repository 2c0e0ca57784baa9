package testutil

import (
	"io"
	"log/slog"
)

// NewLogCapture returns a text handler at debug level writing into a
// fresh buffer.
func NewLogCapture() (slog.Handler, *ThreadSafeBuffer) {
	buf := &ThreadSafeBuffer{}
	return slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}), buf
}

// DiscardHandler drops every record.
func DiscardHandler() slog.Handler {
	return slog.NewTextHandler(io.Discard, nil)
}
