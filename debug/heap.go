package debug

import (
	"log/slog"
	"runtime"
)

func heapAttrs() []any {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return []any{
		slog.Int("goroutines", runtime.NumGoroutine()),
		slog.Uint64("heap_alloc", ms.HeapAlloc),
		slog.Uint64("heap_inuse", ms.HeapInuse),
		slog.Uint64("heap_idle", ms.HeapIdle),
		slog.Uint64("heap_sys", ms.HeapSys),
		slog.Uint64("next_gc", ms.NextGC),
		slog.Uint64("num_gc", uint64(ms.NumGC)),
	}
}
