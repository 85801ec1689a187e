package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/soocke/clerk-capture-go/config"
	"github.com/soocke/clerk-capture-go/domain/action"
	"github.com/soocke/clerk-capture-go/domain/capture"
	"github.com/soocke/clerk-capture-go/domain/records"
	"github.com/soocke/clerk-capture-go/domain/workflow"
	"github.com/soocke/clerk-capture-go/ui/model"
	"github.com/soocke/clerk-capture-go/ui/presenter"
	"github.com/soocke/clerk-capture-go/ui/view"
)

// AppContainer assembles models, services and presenters.
type AppContainer struct {
	Config       *config.Config
	Logger       *slog.Logger
	Steps        config.StepFile
	Acquirer     *capture.ScreenAcquirer
	Matcher      capture.Matcher
	Driver       action.Driver
	Executor     *workflow.Executor
	Orchestrator *workflow.Orchestrator
	Records      *records.Store

	Run    *model.RunModel
	Status *model.StatusModel
	View   *view.ConsoleView

	// Presenters
	CapturePresenter *presenter.CapturePresenter
	StatusPresenter  *presenter.StatusPresenter
	Loop             *presenter.Loop
}

// BuildContainer constructs all components. No input is synthesized and
// the screen is not touched until a run starts.
func BuildContainer(cfg *config.Config, logger *slog.Logger, out io.Writer) *AppContainer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	c := &AppContainer{Config: cfg, Logger: logger}
	c.Steps = config.StepFile{Path: cfg.StepsPath}
	c.Acquirer = capture.NewScreenAcquirer(logger)
	c.Matcher = capture.NewMatcher(cfg.Matcher, capture.NCCOptions{
		Stride:      cfg.Stride,
		Refine:      cfg.Refine,
		DebugTiming: cfg.Debug,
	}, logger)
	c.Driver = action.NewDriver()
	c.Executor = workflow.NewExecutor(cfg.TemplateRoot, c.Matcher, c.Driver, workflow.TimingFromConfig(cfg), logger)
	c.Records = records.NewStore(logger)
	c.Orchestrator = workflow.NewOrchestrator(c.Steps, c.Acquirer, c.Executor, c.Records, cfg.MinResults, logger)

	c.Run = &model.RunModel{}
	c.Status = model.NewStatusModel(restingStatus(cfg.Hotkey))
	c.View = view.NewConsoleView(out)

	c.CapturePresenter = presenter.NewCapturePresenter(c.Orchestrator, c.Run, c.Status, cfg.StatusDuration(), logger)
	c.CapturePresenter.OnDone(c.afterRun)
	c.StatusPresenter = presenter.NewStatusPresenter(c.Status, c.View)
	c.Loop = presenter.NewLoop(c.StatusPresenter, nil)
	return c
}

// afterRun shows the newest page of the table after a successful capture.
func (c *AppContainer) afterRun(out workflow.Outcome, err error) {
	if err != nil || !out.Success {
		return
	}
	items, total := records.Page(c.Records.All(), 1, c.Config.PageSize)
	c.View.ShowPage(items, 1, total)
}

func restingStatus(hotkey string) string {
	return fmt.Sprintf("当前快捷键: %s", hotkey)
}
