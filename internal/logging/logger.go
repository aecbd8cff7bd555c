package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store"
)

// Setup initializes the global slog logger with JSON output to stdout.
func Setup() {
	slog.SetDefault(slog.New(contextHandler{newJSONHandler(os.Stdout)}))
}

// AttachSink makes the global logger also persist ERROR+ records to sink.
// The returned handler must be stopped on shutdown to flush its buffer.
func AttachSink(sink store.LogSink) *StoreHandler {
	h := NewStoreHandler(sink)
	slog.SetDefault(slog.New(contextHandler{NewMultiHandler(newJSONHandler(os.Stdout), h)}))
	return h
}

func newJSONHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}
