//go:build !windows

package debug

import (
	"log/slog"
	"time"
)

// StartMemLogger logs Go heap stats every interval. RSS is only sampled on
// Windows.
func StartMemLogger(interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			logger.Info("memstats", heapAttrs()...)
		}
	}()
}
