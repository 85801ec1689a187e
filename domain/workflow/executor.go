package workflow

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/soocke/clerk-capture-go/config"
	"github.com/soocke/clerk-capture-go/domain/action"
	"github.com/soocke/clerk-capture-go/domain/capture"
)

// Timing paces synthetic input.
type Timing struct {
	Move       time.Duration // animated pointer move
	ClickPause time.Duration // gap after each rapid click of a copy step
	Settle     time.Duration // wait after the step's last input event
	CopyClicks int           // clicks issued before copying
}

// TimingFromConfig builds Timing from configuration.
func TimingFromConfig(cfg *config.Config) Timing {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return Timing{
		Move:       cfg.MoveDuration(),
		ClickPause: cfg.ClickPause(),
		Settle:     cfg.SettleDelay(),
		CopyClicks: cfg.CopyClicks,
	}
}

// StepResult is the record of one executed step.
type StepResult struct {
	Step  string
	Field config.Field
	Text  string
	Match capture.MatchResult
	Err   error
}

// Executor runs single steps: resolve and load the template, match it
// against the frame, then drive input according to the step action.
// Not safe for concurrent use; the Orchestrator serializes runs.
type Executor struct {
	root    string
	matcher capture.Matcher
	driver  action.Driver
	timing  Timing
	sleep   func(time.Duration)
	logger  *slog.Logger
}

// NewExecutor returns an executor resolving templates under root.
func NewExecutor(root string, matcher capture.Matcher, driver action.Driver, timing Timing, logger *slog.Logger) *Executor {
	if timing.CopyClicks <= 0 {
		timing.CopyClicks = 3
	}
	return &Executor{root: root, matcher: matcher, driver: driver, timing: timing, sleep: time.Sleep, logger: logger}
}

// Execute runs step against frame and returns the harvested clipboard text
// (always empty for click steps).
func (e *Executor) Execute(step config.StepDescriptor, frame *image.RGBA) (string, error) {
	r := e.Run(step, frame)
	return r.Text, r.Err
}

// Run executes step and reports the full result. Errors are *StepError.
func (e *Executor) Run(step config.StepDescriptor, frame *image.RGBA) StepResult {
	res := StepResult{Step: step.Name, Field: step.Field}
	fail := func(path string, err error) StepResult {
		res.Err = &StepError{Step: step.Name, Path: path, Err: err}
		return res
	}

	path, err := resolveTemplate(e.root, step.TemplatePath)
	if err != nil {
		return fail(path, err)
	}
	tmpl, err := loadTemplate(path)
	if err != nil {
		return fail(path, err)
	}
	m, err := e.matcher.Match(frame, tmpl, step.Threshold)
	res.Match = m
	switch {
	case errors.Is(err, capture.ErrInvalidTemplateSize):
		return fail(path, ErrInvalidTemplateSize)
	case err != nil:
		return fail(path, fmt.Errorf("%w: %v", ErrTemplateLoad, err))
	}
	if e.logger != nil {
		e.logger.Debug("step.match", "step", step.Name, "score", m.Score, "x", m.Center.X, "y", m.Center.Y, "found", m.Found)
	}
	if !m.Found {
		return fail("", fmt.Errorf("%w: %s (score %.3f < %.3f)", ErrNoMatchFound, step.Name, m.Score, step.Threshold))
	}

	switch step.Action {
	case config.ActionClickAndCopy:
		text, err := e.clickAndCopy(m.Center.Add(image.Pt(step.Offset.X, step.Offset.Y)))
		if err != nil {
			return fail("", err)
		}
		res.Text = text
	default:
		if err := e.click(m.Center); err != nil {
			return fail("", err)
		}
	}
	return res
}

func (e *Executor) click(at image.Point) error {
	if err := e.driver.MoveSmooth(at.X, at.Y, e.timing.Move); err != nil {
		return fmt.Errorf("%w: move: %v", ErrInput, err)
	}
	if err := e.driver.Click(); err != nil {
		return fmt.Errorf("%w: click: %v", ErrInput, err)
	}
	e.sleep(e.timing.Settle)
	return nil
}

// clickAndCopy focuses and selects the field under at with rapid clicks,
// copies it and returns the clipboard text.
func (e *Executor) clickAndCopy(at image.Point) (string, error) {
	if err := e.driver.MoveSmooth(at.X, at.Y, e.timing.Move); err != nil {
		return "", fmt.Errorf("%w: move: %v", ErrInput, err)
	}
	for i := 0; i < e.timing.CopyClicks; i++ {
		if err := e.driver.Click(); err != nil {
			return "", fmt.Errorf("%w: click %d: %v", ErrInput, i+1, err)
		}
		e.sleep(e.timing.ClickPause)
	}
	if err := e.driver.Copy(); err != nil {
		return "", fmt.Errorf("%w: copy: %v", ErrInput, err)
	}
	e.sleep(e.timing.Settle)
	text, err := e.driver.ReadClipboard()
	if err != nil {
		if errors.Is(err, action.ErrClipboardEmpty) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrClipboard, err)
	}
	// Selecting a whole field often copies its line break too.
	return strings.TrimRight(text, "\r\n"), nil
}
