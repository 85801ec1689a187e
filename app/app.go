package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	hook "github.com/robotn/gohook"

	"github.com/soocke/clerk-capture-go/debug"
	"github.com/soocke/clerk-capture-go/domain/records"
)

const debugInterval = 5 * time.Second

// App wires the container to the global hotkey and owns shutdown.
type App struct {
	c      *AppContainer
	logger *slog.Logger
}

// NewApp returns an app around c.
func NewApp(c *AppContainer) *App {
	return &App{c: c, logger: c.Logger}
}

// Start listens for the hotkey until ctx is done, then exports the table.
func (a *App) Start(ctx context.Context) error {
	keys, err := ParseHotkey(a.c.Config.Hotkey)
	if err != nil {
		return err
	}
	var clearKeys []string
	if a.c.Config.ClearHotkey != "" {
		if clearKeys, err = ParseHotkey(a.c.Config.ClearHotkey); err != nil {
			return err
		}
	}
	if a.c.Config.Debug {
		debug.StartRuntimeLogger(ctx, debugInterval, a.logger)
	}
	go a.c.Loop.Run(ctx)

	hook.Register(hook.KeyDown, keys, func(hook.Event) {
		a.c.CapturePresenter.Trigger()
	})
	if clearKeys != nil {
		hook.Register(hook.KeyDown, clearKeys, func(hook.Event) {
			a.ClearRecords()
		})
	}
	events := hook.Start()
	go func() {
		<-ctx.Done()
		hook.End()
	}()
	a.log("app.started", "hotkey", a.c.Config.Hotkey, "clear_hotkey", a.c.Config.ClearHotkey, "steps", a.c.Steps.Path, "matcher", a.c.Matcher.Name())
	<-hook.Process(events)

	a.waitIdle(2 * time.Second)
	a.Shutdown()
	return nil
}

// RunOnce performs a single capture run and exports the result.
func (a *App) RunOnce() error {
	a.c.Loop.Tick()
	out, err := a.c.CapturePresenter.RunOnce()
	a.c.Loop.Tick()
	if err != nil {
		return err
	}
	a.Shutdown()
	if !out.Success {
		return out.Shortfall
	}
	return nil
}

// Shutdown logs the session summary and exports the record table to the
// configured path.
func (a *App) Shutdown() {
	a.summary()
	path := a.c.Config.ExportPath
	if path == "" {
		return
	}
	err := a.c.Records.ExportFile(path)
	switch {
	case errors.Is(err, records.ErrNoRecords):
		a.log("app.export_skipped", "reason", "empty")
	case err != nil:
		if a.logger != nil {
			a.logger.Error("app.export_failed", "path", path, "error", err)
		}
	}
}

// waitIdle gives an in-flight run up to d to finish before export.
func (a *App) waitIdle(d time.Duration) {
	deadline := time.Now().Add(d)
	for a.c.Run.Busy() && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
}

func (a *App) log(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Info(msg, args...)
	}
}
