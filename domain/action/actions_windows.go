//go:build windows

package action

import (
	"fmt"
	"image"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	mouseeventfLeftDown = 0x0002
	mouseeventfLeftUp   = 0x0004
	keyeventfKeyUp      = 0x0002
	vkControl           = 0x11
	vkC                 = 0x43
	cfUnicodeText       = 13
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	procGetCursorPos     = user32.NewProc("GetCursorPos")
	procSetCursorPos     = user32.NewProc("SetCursorPos")
	procMouseEvent       = user32.NewProc("mouse_event")
	procKeybdEvent       = user32.NewProc("keybd_event")
	procOpenClipboard    = user32.NewProc("OpenClipboard")
	procCloseClipboard   = user32.NewProc("CloseClipboard")
	procGetClipboardData = user32.NewProc("GetClipboardData")
	procGlobalLock       = kernel32.NewProc("GlobalLock")
	procGlobalUnlock     = kernel32.NewProc("GlobalUnlock")
)

type point struct{ X, Y int32 }

// Win32Driver synthesizes input with legacy user32 calls.
type Win32Driver struct {
	// Sleep is used for pacing; defaults to time.Sleep.
	Sleep func(time.Duration)
}

// NewDriver returns the platform input driver.
func NewDriver() Driver { return &Win32Driver{Sleep: time.Sleep} }

func (d *Win32Driver) sleep(t time.Duration) {
	if d.Sleep != nil {
		d.Sleep(t)
		return
	}
	time.Sleep(t)
}

func cursorPos() (image.Point, error) {
	var p point
	r, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p)))
	if r == 0 {
		return image.Point{}, fmt.Errorf("action: GetCursorPos: %w", err)
	}
	return image.Pt(int(p.X), int(p.Y)), nil
}

func setCursorPos(x, y int) error {
	r, _, err := procSetCursorPos.Call(uintptr(x), uintptr(y))
	if r == 0 {
		return fmt.Errorf("action: SetCursorPos(%d,%d): %w", x, y, err)
	}
	return nil
}

// MoveSmooth glides the pointer with SetCursorPos steps.
func (d *Win32Driver) MoveSmooth(x, y int, dur time.Duration) error {
	from, err := cursorPos()
	if err != nil {
		return err
	}
	return glide(from, image.Pt(x, y), dur, setCursorPos, d.sleep)
}

// Click sends a left mouse button click (down then up).
func (d *Win32Driver) Click() error {
	_, _, _ = procMouseEvent.Call(mouseeventfLeftDown, 0, 0, 0, 0)
	d.sleep(20 * time.Millisecond)
	_, _, _ = procMouseEvent.Call(mouseeventfLeftUp, 0, 0, 0, 0)
	return nil
}

// Copy presses Ctrl+C.
func (d *Win32Driver) Copy() error {
	_, _, _ = procKeybdEvent.Call(vkControl, 0, 0, 0)
	_, _, _ = procKeybdEvent.Call(vkC, 0, 0, 0)
	d.sleep(40 * time.Millisecond)
	_, _, _ = procKeybdEvent.Call(vkC, 0, keyeventfKeyUp, 0)
	_, _, _ = procKeybdEvent.Call(vkControl, 0, keyeventfKeyUp, 0)
	return nil
}

// ReadClipboard returns CF_UNICODETEXT clipboard content. The clipboard may
// be held briefly by the application that just copied, so opening retries.
func (d *Win32Driver) ReadClipboard() (string, error) {
	var opened bool
	var openErr error
	for attempt := 0; attempt < 5; attempt++ {
		r, _, err := procOpenClipboard.Call(0)
		if r != 0 {
			opened = true
			break
		}
		openErr = err
		d.sleep(20 * time.Millisecond)
	}
	if !opened {
		return "", fmt.Errorf("action: OpenClipboard: %w", openErr)
	}
	defer procCloseClipboard.Call()

	h, _, _ := procGetClipboardData.Call(cfUnicodeText)
	if h == 0 {
		return "", ErrClipboardEmpty
	}
	p, _, err := procGlobalLock.Call(h)
	if p == 0 {
		return "", fmt.Errorf("action: GlobalLock: %w", err)
	}
	defer procGlobalUnlock.Call(h)
	return windows.UTF16PtrToString((*uint16)(unsafe.Pointer(p))), nil
}

var _ Driver = (*Win32Driver)(nil)
