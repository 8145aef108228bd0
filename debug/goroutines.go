package debug

// Debug runtime metrics logger. Started only when config.Debug is true.
// Emits goroutine count, stack usage and the frame buffer depth at a fixed
// interval to tell a stuck pump apart from goroutine or stack growth.

import (
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"
)

// StartGoroutineLogger launches a ticker that logs goroutine count, stack
// memory and, when buffered is non-nil, the current frame buffer depth.
// It runs for the life of the process.
func StartGoroutineLogger(interval time.Duration, logger *slog.Logger, buffered func() int) {
	if interval <= 0 {
		interval = time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
		for range t.C {
			logger.Info("goroutine-stacks", goroutineAttrs(samples, buffered)...)
		}
	}()
}

func goroutineAttrs(samples []metrics.Sample, buffered func() int) []any {
	metrics.Read(samples)
	var goroutines uint64
	if samples[0].Value.Kind() == metrics.KindUint64 {
		goroutines = samples[0].Value.Uint64()
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	attrs := []any{
		slog.Uint64("goroutines", goroutines),
		slog.Uint64("stack_inuse", ms.StackInuse),
		slog.Uint64("stack_sys", ms.StackSys),
		slog.Uint64("heap_alloc", ms.HeapAlloc),
	}
	if buffered != nil {
		attrs = append(attrs, slog.Int("frames_buffered", buffered()))
	}
	return attrs
}
