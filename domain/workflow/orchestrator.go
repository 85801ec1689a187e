package workflow

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/clerk-capture-go/config"
	"github.com/soocke/clerk-capture-go/domain/capture"
	"github.com/soocke/clerk-capture-go/domain/records"
)

// DefaultMinResults is the number of harvested values a run needs.
const DefaultMinResults = 3

// StepSource supplies the step list for each run.
type StepSource interface {
	LoadSteps() ([]config.StepDescriptor, error)
}

// StepRunner executes one step against a frame.
type StepRunner interface {
	Run(step config.StepDescriptor, frame *image.RGBA) StepResult
}

// RecordSink receives the record of a successful run.
type RecordSink interface {
	Append(nickname, merchant, orderNumber string) records.Entry
}

// CaptureRecord is the assembled customer record.
type CaptureRecord struct {
	Nickname    string
	Merchant    string
	OrderNumber string
}

// Outcome summarizes one completed run.
type Outcome struct {
	RunID     string
	Steps     []StepResult
	Harvested []string
	Record    *CaptureRecord // nil unless the run succeeded
	Entry     records.Entry
	Success   bool
	Shortfall error // wraps ErrCaptureFailed when Success is false
	Duration  time.Duration
}

// Orchestrator drives a full capture run: load steps, grab one frame,
// run each step in order and hand a complete record to the sink.
type Orchestrator struct {
	steps      StepSource
	acquirer   capture.Acquirer
	runner     StepRunner
	sink       RecordSink
	minResults int
	logger     *slog.Logger

	running sync.Mutex
}

// NewOrchestrator wires a run pipeline. minResults <= 0 selects DefaultMinResults.
func NewOrchestrator(steps StepSource, acq capture.Acquirer, runner StepRunner, sink RecordSink, minResults int, logger *slog.Logger) *Orchestrator {
	if minResults <= 0 {
		minResults = DefaultMinResults
	}
	return &Orchestrator{
		steps:      steps,
		acquirer:   acq,
		runner:     runner,
		sink:       sink,
		minResults: minResults,
		logger:     logger,
	}
}

// Run performs one capture run. It returns an error only when the run could
// not start or was aborted before any input was synthesized; an
// insufficient harvest is reported through Outcome.Success.
func (o *Orchestrator) Run() (Outcome, error) {
	if !o.running.TryLock() {
		return Outcome{}, ErrRunInProgress
	}
	defer o.running.Unlock()

	start := time.Now()
	out := Outcome{RunID: uuid.NewString()}
	log := o.logger
	if log != nil {
		log = log.With("run_id", out.RunID)
		log.Info("capture.run")
	}

	steps, err := o.steps.LoadSteps()
	if err != nil {
		return out, o.abort(log, fmt.Errorf("%w: %v", ErrConfigLoad, err))
	}
	frame, err := o.acquirer.Grab()
	if err != nil {
		return out, o.abort(log, fmt.Errorf("%w: %v", ErrScreenCapture, err))
	}

	lastCopy := ""
	for _, step := range steps {
		res := o.runner.Run(step, frame.Image)
		out.Steps = append(out.Steps, res)
		if res.Err != nil {
			if log != nil {
				log.Warn("step.failed", "step", step.Name, "kind", Kind(res.Err), "error", res.Err)
			}
			continue
		}
		if step.Action != config.ActionClickAndCopy {
			continue
		}
		if res.Text != "" && res.Text == lastCopy && log != nil {
			log.Warn("step.clipboard_unchanged", "step", step.Name)
		}
		lastCopy = res.Text
		if res.Text != "" {
			out.Harvested = append(out.Harvested, res.Text)
		}
	}

	rec, missing := assemble(steps, out.Steps, out.Harvested)
	switch {
	case len(out.Harvested) < o.minResults:
		out.Shortfall = fmt.Errorf("%w: harvested %d of %d", ErrCaptureFailed, len(out.Harvested), o.minResults)
	case missing != "":
		out.Shortfall = fmt.Errorf("%w: no value for %s", ErrCaptureFailed, missing)
	default:
		out.Success = true
		out.Record = rec
		if o.sink != nil {
			out.Entry = o.sink.Append(rec.Nickname, rec.Merchant, rec.OrderNumber)
		}
	}
	out.Duration = time.Since(start)

	if log != nil {
		if out.Success {
			log.Info("capture.success", "harvested", len(out.Harvested), "dur_ms", out.Duration.Milliseconds())
		} else {
			log.Warn("capture.insufficient", "harvested", len(out.Harvested), "need", o.minResults, "error", out.Shortfall)
		}
	}
	return out, nil
}

func (o *Orchestrator) abort(log *slog.Logger, err error) error {
	if log != nil {
		log.Error("capture.aborted", "kind", Kind(err), "error", err)
	}
	return err
}

// assemble builds the record. When any step declares a field, values are
// keyed by field and every field must be filled; otherwise harvested values
// map by position. missing names the first unfilled field.
func assemble(steps []config.StepDescriptor, results []StepResult, harvested []string) (*CaptureRecord, string) {
	keyed := false
	for _, s := range steps {
		if s.Field != config.FieldNone {
			keyed = true
			break
		}
	}
	if !keyed {
		rec := &CaptureRecord{}
		slots := []*string{&rec.Nickname, &rec.Merchant, &rec.OrderNumber}
		for i := 0; i < len(slots) && i < len(harvested); i++ {
			*slots[i] = harvested[i]
		}
		if len(harvested) < len(slots) {
			return rec, string(fieldOrder[len(harvested)])
		}
		return rec, ""
	}

	byField := map[config.Field]string{}
	for _, r := range results {
		if r.Err != nil || r.Field == config.FieldNone || r.Text == "" {
			continue
		}
		if _, ok := byField[r.Field]; !ok {
			byField[r.Field] = r.Text
		}
	}
	rec := &CaptureRecord{
		Nickname:    byField[config.FieldCustomerNickname],
		Merchant:    byField[config.FieldMerchant],
		OrderNumber: byField[config.FieldOrderNumber],
	}
	for _, f := range fieldOrder {
		if byField[f] == "" {
			return rec, string(f)
		}
	}
	return rec, ""
}

var fieldOrder = []config.Field{config.FieldCustomerNickname, config.FieldMerchant, config.FieldOrderNumber}
