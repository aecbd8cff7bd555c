package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store"
)

// StartCleanup runs a daily goroutine that deletes system logs older than
// retention.
func StartCleanup(sink store.LogSink, retention time.Duration, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				purgeOnce(sink, time.Now().Add(-retention))
			case <-done:
				return
			}
		}
	}()
}

func purgeOnce(sink store.LogSink, cutoff time.Time) int64 {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := sink.PurgeLogsBefore(ctx, cutoff)
	if err != nil {
		slog.Error("log cleanup failed", "error", err)
		return 0
	}
	if deleted > 0 {
		slog.Info("log cleanup completed", "deleted", deleted)
	}
	return deleted
}
