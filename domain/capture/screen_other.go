//go:build !windows

package capture

import (
	"image"

	"github.com/vova616/screenshot"
)

// grabScreen captures the primary display.
func grabScreen() (*image.RGBA, error) {
	return screenshot.CaptureScreen()
}
