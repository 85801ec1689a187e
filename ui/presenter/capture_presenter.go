package presenter

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/soocke/clerk-capture-go/domain/workflow"
	"github.com/soocke/clerk-capture-go/ui/model"
)

// Status texts shown around a run.
const (
	MsgRunning      = "正在执行自动识别..."
	MsgSuccess      = "自动识别完成"
	MsgInsufficient = "自动识别失败，请重试"
)

// RunContract narrows what the presenter needs from the orchestrator.
type RunContract interface {
	Run() (workflow.Outcome, error)
}

// CapturePresenter turns hotkey presses into capture runs on a worker
// goroutine and reflects their progress in the models.
type CapturePresenter struct {
	runner    RunContract
	run       *model.RunModel
	status    *model.StatusModel
	statusTTL time.Duration
	logger    *slog.Logger
	now       func() time.Time
	done      func(workflow.Outcome, error) // optional, called after every run
}

// NewCapturePresenter returns a presenter. statusTTL is how long result
// messages stay visible.
func NewCapturePresenter(runner RunContract, run *model.RunModel, status *model.StatusModel, statusTTL time.Duration, logger *slog.Logger) *CapturePresenter {
	return &CapturePresenter{runner: runner, run: run, status: status, statusTTL: statusTTL, logger: logger, now: time.Now}
}

// OnDone registers a callback invoked on the worker after each run.
func (c *CapturePresenter) OnDone(fn func(workflow.Outcome, error)) {
	if c != nil {
		c.done = fn
	}
}

// Trigger starts a run unless one is in flight, in which case the press is
// ignored. It returns whether a run was started and never blocks.
func (c *CapturePresenter) Trigger() bool {
	if c == nil || c.runner == nil || c.run == nil {
		return false
	}
	if !c.run.TryBegin() {
		if c.logger != nil {
			c.logger.Debug("capture.trigger_ignored", "reason", "busy")
		}
		return false
	}
	c.status.Show(MsgRunning, c.now(), 0)
	go c.execute()
	return true
}

// RunOnce runs synchronously on the caller's goroutine.
func (c *CapturePresenter) RunOnce() (workflow.Outcome, error) {
	if c == nil || c.runner == nil || c.run == nil {
		return workflow.Outcome{}, errors.New("presenter: not configured")
	}
	if !c.run.TryBegin() {
		return workflow.Outcome{}, workflow.ErrRunInProgress
	}
	c.status.Show(MsgRunning, c.now(), 0)
	return c.finish()
}

func (c *CapturePresenter) execute() {
	_, _ = c.finish()
}

func (c *CapturePresenter) finish() (workflow.Outcome, error) {
	out, err := c.runGuarded()
	c.report(out, err)
	return out, err
}

// runGuarded turns a panic inside the run into an error.
func (c *CapturePresenter) runGuarded() (out workflow.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("capture run panicked: %v", r)
			if c.logger != nil {
				c.logger.Error("capture.panic", "panic", r)
			}
		}
	}()
	return c.runner.Run()
}

// report settles the models exactly once per run, then notifies done.
func (c *CapturePresenter) report(out workflow.Outcome, err error) {
	now := c.now()
	switch {
	case err != nil:
		c.status.Show("错误: "+err.Error(), now, c.statusTTL)
	case out.Success:
		c.status.Show(MsgSuccess, now, c.statusTTL)
	default:
		c.status.Show(MsgInsufficient, now, c.statusTTL)
	}
	c.run.End(out.Success, err)
	c.notify(out, err)
}

func (c *CapturePresenter) notify(out workflow.Outcome, err error) {
	if c.done == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil && c.logger != nil {
			c.logger.Error("capture.done_panic", "panic", r)
		}
	}()
	c.done(out, err)
}
