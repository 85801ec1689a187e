package workflow

import (
	"errors"
	"fmt"

	"github.com/soocke/clerk-capture-go/domain/capture"
)

// Run-level errors. These abort a run before any input is synthesized.
var (
	ErrConfigLoad    = errors.New("step configuration could not be loaded")
	ErrScreenCapture = errors.New("screen capture failed")
	ErrRunInProgress = errors.New("a capture run is already in progress")
)

// Per-step errors. A step failing with any of these is skipped; the run goes on.
var (
	ErrTemplateNotFound    = errors.New("模板文件不存在")
	ErrTemplateLoad        = errors.New("无法读取模板图片")
	ErrInvalidTemplateSize = capture.ErrInvalidTemplateSize
	ErrNoMatchFound        = errors.New("未找到匹配图像")
	ErrInput               = errors.New("synthetic input failed")
	ErrClipboard           = errors.New("clipboard read failed")
)

// ErrCaptureFailed marks a completed run that harvested too little data.
var ErrCaptureFailed = errors.New("capture failed: insufficient data")

// StepError reports why one step produced no text.
type StepError struct {
	Step string
	Path string
	Err  error
}

func (e *StepError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("step %s: %v: %s", e.Step, e.Err, e.Path)
	}
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Kind returns a short stable label for err, suitable as a log attribute.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfigLoad):
		return "config_load"
	case errors.Is(err, ErrScreenCapture):
		return "screen_capture"
	case errors.Is(err, ErrRunInProgress):
		return "run_in_progress"
	case errors.Is(err, ErrTemplateNotFound):
		return "template_not_found"
	case errors.Is(err, ErrTemplateLoad):
		return "template_load"
	case errors.Is(err, ErrInvalidTemplateSize):
		return "invalid_template_size"
	case errors.Is(err, ErrNoMatchFound):
		return "no_match"
	case errors.Is(err, ErrInput):
		return "input"
	case errors.Is(err, ErrClipboard):
		return "clipboard"
	case errors.Is(err, ErrCaptureFailed):
		return "capture_failed"
	default:
		return "unknown"
	}
}
