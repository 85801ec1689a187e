package action

import (
	"errors"
	"image"
	"time"
)

// ErrClipboardEmpty is returned when the clipboard holds no text.
var ErrClipboardEmpty = errors.New("action: clipboard has no text")

// Driver issues synthetic pointer and keyboard input and reads the clipboard.
// The pointer, keyboard focus and clipboard are process-wide; callers
// serialize access.
type Driver interface {
	// MoveSmooth glides the pointer from its current position to (x, y) over d.
	MoveSmooth(x, y int, d time.Duration) error
	// Click issues one left click at the current position.
	Click() error
	// Copy sends the platform copy shortcut.
	Copy() error
	// ReadClipboard returns the clipboard's current text.
	ReadClipboard() (string, error)
}

// moveStep is the pause between intermediate pointer positions.
const moveStep = 10 * time.Millisecond

// glidePath returns steps points from (exclusive) from to (inclusive) to,
// eased so the pointer decelerates near the target.
func glidePath(from, to image.Point, steps int) []image.Point {
	if steps < 1 {
		steps = 1
	}
	pts := make([]image.Point, 0, steps)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		e := t * (2 - t) // ease-out quadratic
		x := from.X + int(float64(to.X-from.X)*e+0.5*sign(to.X-from.X))
		y := from.Y + int(float64(to.Y-from.Y)*e+0.5*sign(to.Y-from.Y))
		pts = append(pts, image.Pt(x, y))
	}
	pts[len(pts)-1] = to
	return pts
}

func sign(v int) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// glide moves through glidePath calling move for each point and sleeping
// moveStep between points. A non-positive d jumps straight to the target.
func glide(from, to image.Point, d time.Duration, move func(x, y int) error, sleep func(time.Duration)) error {
	if d <= 0 || from == to {
		return move(to.X, to.Y)
	}
	steps := int(d / moveStep)
	for _, p := range glidePath(from, to, steps) {
		if err := move(p.X, p.Y); err != nil {
			return err
		}
		sleep(moveStep)
	}
	return nil
}
