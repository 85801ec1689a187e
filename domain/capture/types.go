package capture

import (
	"image"
	"time"
)

// Frame carries one captured screen image and metadata.
type Frame struct {
	Image      *image.RGBA
	CapturedAt time.Time
	Sequence   uint64
}

// AcquirerStats summarises grab behaviour for instrumentation.
type AcquirerStats struct {
	Grabs       uint64
	Failures    uint64
	AvgGrab     time.Duration
	LastGrab    time.Time
	LastSize    image.Point
	LastFailure string
}

// MatchResult holds the outcome of a template match. Found is false when
// the best score falls below the requested threshold; TopLeft, Center and
// Score still describe the best alignment.
type MatchResult struct {
	TopLeft image.Point
	Center  image.Point
	Size    image.Point
	Score   float64
	Found   bool
	Dur     time.Duration // Only set with DebugTiming
}

// Matcher locates a template within a frame.
type Matcher interface {
	Name() string
	Match(frame *image.RGBA, tmpl image.Image, threshold float64) (MatchResult, error)
}

// Acquirer captures the current display on demand.
type Acquirer interface {
	Grab() (*Frame, error)
}
