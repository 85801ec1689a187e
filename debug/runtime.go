package debug

// Runtime metrics logger. Started only when config.Debug is true.
// Emits goroutine count, heap and stack usage and process RSS at a fixed
// interval so leaks across many capture runs show up in the log.

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"
)

// Sample is one runtime snapshot.
type Sample struct {
	Goroutines uint64
	HeapAlloc  uint64
	StackInuse uint64
	NumGC      uint32
	RSS        uint64 // 0 when the platform query fails
}

// Read takes a snapshot. The returned error only concerns RSS.
func Read() (Sample, error) {
	samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
	metrics.Read(samples)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s := Sample{
		Goroutines: samples[0].Value.Uint64(),
		HeapAlloc:  ms.HeapAlloc,
		StackInuse: ms.StackInuse,
		NumGC:      ms.NumGC,
	}
	rss, err := processRSS()
	s.RSS = rss
	return s, err
}

// StartRuntimeLogger logs a Sample every interval until ctx is done.
// RSS failures are logged once and then suppressed.
func StartRuntimeLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if logger == nil {
		return
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		var rssErrLogged bool
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			s, err := Read()
			if err != nil && !rssErrLogged {
				logger.Warn("debug.rss_unavailable", slog.String("error", err.Error()))
				rssErrLogged = true
			}
			logger.Info("debug.runtime",
				slog.Uint64("goroutines", s.Goroutines),
				slog.Uint64("heap_alloc", s.HeapAlloc),
				slog.Uint64("stack_inuse", s.StackInuse),
				slog.Uint64("num_gc", uint64(s.NumGC)),
				slog.Uint64("rss", s.RSS),
			)
		}
	}()
}
