package capture

import (
	"errors"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrEmptyFrame is returned when the platform grab yields no pixels.
var ErrEmptyFrame = errors.New("capture: empty frame")

// ScreenAcquirer grabs the full display on demand and keeps grab
// statistics. Use NewScreenAcquirer to construct an instance.
type ScreenAcquirer struct {
	logger    *slog.Logger
	grab      func() (*image.RGBA, error)
	grabs     atomic.Uint64
	failures  atomic.Uint64
	grabNanos atomic.Uint64
	sequence  atomic.Uint64

	mu          sync.Mutex
	lastGrab    time.Time
	lastSize    image.Point
	lastFailure string
}

// NewScreenAcquirer returns an acquirer backed by the platform screen grab.
func NewScreenAcquirer(logger *slog.Logger) *ScreenAcquirer {
	return newScreenAcquirer(logger, grabScreen)
}

func newScreenAcquirer(logger *slog.Logger, grab func() (*image.RGBA, error)) *ScreenAcquirer {
	return &ScreenAcquirer{logger: logger, grab: grab}
}

// Grab captures the display into a freshly allocated frame.
func (s *ScreenAcquirer) Grab() (*Frame, error) {
	start := time.Now()
	img, err := s.grab()
	if err == nil && (img == nil || img.Bounds().Empty()) {
		err = ErrEmptyFrame
	}
	if err != nil {
		s.failures.Add(1)
		s.mu.Lock()
		s.lastFailure = err.Error()
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Error("capture.grab", "error", err)
		}
		return nil, err
	}
	elapsed := time.Since(start)
	s.grabNanos.Add(uint64(elapsed.Nanoseconds()))
	s.grabs.Add(1)
	seq := s.sequence.Add(1)
	now := time.Now()
	size := image.Pt(img.Bounds().Dx(), img.Bounds().Dy())
	s.mu.Lock()
	s.lastGrab = now
	s.lastSize = size
	s.mu.Unlock()
	if s.logger != nil {
		s.logger.Debug("capture.grab", "seq", seq, "width", size.X, "height", size.Y, "elapsed", elapsed)
	}
	return &Frame{Image: img, CapturedAt: now, Sequence: seq}, nil
}

// Stats reports grab counters.
func (s *ScreenAcquirer) Stats() AcquirerStats {
	grabs := s.grabs.Load()
	var avg time.Duration
	if total := s.grabNanos.Load(); grabs > 0 && total > 0 {
		avg = time.Duration(total / grabs)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return AcquirerStats{
		Grabs:       grabs,
		Failures:    s.failures.Load(),
		AvgGrab:     avg,
		LastGrab:    s.lastGrab,
		LastSize:    s.lastSize,
		LastFailure: s.lastFailure,
	}
}

var _ Acquirer = (*ScreenAcquirer)(nil)
