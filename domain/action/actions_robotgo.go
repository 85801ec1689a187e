//go:build !windows

package action

import (
	"fmt"
	"image"
	"runtime"
	"time"

	"github.com/go-vgo/robotgo"
)

// RobotgoDriver synthesizes input through robotgo.
type RobotgoDriver struct {
	// Sleep is used for pacing; defaults to time.Sleep.
	Sleep func(time.Duration)
}

// NewDriver returns the platform input driver.
func NewDriver() Driver { return &RobotgoDriver{Sleep: time.Sleep} }

func (d *RobotgoDriver) sleep(t time.Duration) {
	if d.Sleep != nil {
		d.Sleep(t)
		return
	}
	time.Sleep(t)
}

// MoveSmooth glides the pointer with robotgo.Move steps.
func (d *RobotgoDriver) MoveSmooth(x, y int, dur time.Duration) error {
	fx, fy := robotgo.Location()
	return glide(image.Pt(fx, fy), image.Pt(x, y), dur, func(x, y int) error {
		robotgo.Move(x, y)
		return nil
	}, d.sleep)
}

// Click issues one left click.
func (d *RobotgoDriver) Click() error {
	robotgo.Click("left", false)
	return nil
}

// Copy taps c with the platform copy modifier.
func (d *RobotgoDriver) Copy() error {
	mod := "ctrl"
	if runtime.GOOS == "darwin" {
		mod = "cmd"
	}
	if err := robotgo.KeyTap("c", mod); err != nil {
		return fmt.Errorf("action: copy shortcut: %w", err)
	}
	return nil
}

// ReadClipboard returns the clipboard text.
func (d *RobotgoDriver) ReadClipboard() (string, error) {
	text, err := robotgo.ReadAll()
	if err != nil {
		return "", fmt.Errorf("action: read clipboard: %w", err)
	}
	return text, nil
}

var _ Driver = (*RobotgoDriver)(nil)
