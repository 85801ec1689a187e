package workflow

import (
	"errors"
	"image"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/soocke/clerk-capture-go/config"
	"github.com/soocke/clerk-capture-go/domain/capture"
	"github.com/soocke/clerk-capture-go/domain/records"
)

type stubSource struct {
	steps []config.StepDescriptor
	err   error
}

func (s stubSource) LoadSteps() ([]config.StepDescriptor, error) { return s.steps, s.err }

type stubAcquirer struct {
	grabs int
	err   error
}

func (a *stubAcquirer) Grab() (*capture.Frame, error) {
	a.grabs++
	if a.err != nil {
		return nil, a.err
	}
	return &capture.Frame{Image: image.NewRGBA(image.Rect(0, 0, 4, 4)), Sequence: uint64(a.grabs)}, nil
}

// scriptedRunner returns canned results keyed by step name.
type scriptedRunner struct {
	mu      sync.Mutex
	results map[string]StepResult
	order   []string
	started chan struct{} // closed on the first Run when block is set
	block   chan struct{} // when set, Run waits on it
	once    sync.Once
}

func (r *scriptedRunner) Run(step config.StepDescriptor, _ *image.RGBA) StepResult {
	if r.block != nil {
		r.once.Do(func() { close(r.started) })
		<-r.block
	}
	r.mu.Lock()
	r.order = append(r.order, step.Name)
	r.mu.Unlock()
	res := r.results[step.Name]
	res.Step = step.Name
	res.Field = step.Field
	return res
}

type recordingSink struct {
	calls []CaptureRecord
}

func (s *recordingSink) Append(nickname, merchant, orderNumber string) records.Entry {
	s.calls = append(s.calls, CaptureRecord{Nickname: nickname, Merchant: merchant, OrderNumber: orderNumber})
	return records.Entry{ID: "e" + strconv.Itoa(len(s.calls)), Nickname: nickname, Merchant: merchant, OrderNumber: orderNumber}
}

func copySteps(n int) []config.StepDescriptor {
	steps := make([]config.StepDescriptor, n)
	for i := range steps {
		steps[i] = config.StepDescriptor{Name: "s" + strconv.Itoa(i+1), Action: config.ActionClickAndCopy, Threshold: 0.8}
	}
	return steps
}

func failed(err error) StepResult { return StepResult{Err: &StepError{Err: err}} }

func TestOrchestrator_PositionalSkipsFailedSteps(t *testing.T) {
	runner := &scriptedRunner{results: map[string]StepResult{
		"s1": failed(ErrNoMatchFound),
		"s2": {Text: "小王"},
		"s3": failed(ErrTemplateNotFound),
		"s4": {Text: "旗舰店"},
		"s5": {Text: "A001"},
	}}
	sink := &recordingSink{}
	o := NewOrchestrator(stubSource{steps: copySteps(5)}, &stubAcquirer{}, runner, sink, 3, nil)

	out, err := o.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !out.Success || out.Shortfall != nil {
		t.Fatalf("expected success, got %+v", out)
	}
	if len(runner.order) != 5 {
		t.Fatalf("all steps should run in order, got %v", runner.order)
	}
	want := CaptureRecord{Nickname: "小王", Merchant: "旗舰店", OrderNumber: "A001"}
	if len(sink.calls) != 1 || sink.calls[0] != want {
		t.Fatalf("sink calls %+v, want one %+v", sink.calls, want)
	}
	if *out.Record != want || out.Entry.ID != "e1" {
		t.Fatalf("outcome record %+v entry %+v", out.Record, out.Entry)
	}
	if len(out.Steps) != 5 || out.Steps[0].Err == nil || out.Steps[1].Err != nil {
		t.Fatalf("step results not recorded: %+v", out.Steps)
	}
	if out.RunID == "" {
		t.Fatalf("missing run id")
	}
}

func TestOrchestrator_InsufficientNeverCallsSink(t *testing.T) {
	runner := &scriptedRunner{results: map[string]StepResult{
		"s1": {Text: "a"},
		"s2": failed(ErrNoMatchFound),
		"s3": {Text: "b"},
	}}
	sink := &recordingSink{}
	o := NewOrchestrator(stubSource{steps: copySteps(3)}, &stubAcquirer{}, runner, sink, 0, nil)
	out, err := o.Run()
	if err != nil {
		t.Fatalf("insufficient harvest is not an error: %v", err)
	}
	if out.Success || !errors.Is(out.Shortfall, ErrCaptureFailed) {
		t.Fatalf("expected capture failure, got %+v", out)
	}
	if len(sink.calls) != 0 || out.Record != nil {
		t.Fatalf("sink must not be called on failure: %+v", sink.calls)
	}
	if len(out.Harvested) != 2 {
		t.Fatalf("harvested %v", out.Harvested)
	}
}

func TestOrchestrator_ConfigLoadFailureHasNoSideEffects(t *testing.T) {
	acq := &stubAcquirer{}
	runner := &scriptedRunner{}
	sink := &recordingSink{}
	o := NewOrchestrator(stubSource{err: config.ErrInvalidSteps}, acq, runner, sink, 3, nil)
	_, err := o.Run()
	if !errors.Is(err, ErrConfigLoad) {
		t.Fatalf("expected ErrConfigLoad, got %v", err)
	}
	if acq.grabs != 0 || len(runner.order) != 0 || len(sink.calls) != 0 {
		t.Fatalf("side effects after config failure: grabs=%d steps=%v sink=%d", acq.grabs, runner.order, len(sink.calls))
	}
}

func TestOrchestrator_CaptureFailureStopsBeforeInput(t *testing.T) {
	runner := &scriptedRunner{}
	o := NewOrchestrator(stubSource{steps: copySteps(3)}, &stubAcquirer{err: errors.New("no display")}, runner, &recordingSink{}, 3, nil)
	_, err := o.Run()
	if !errors.Is(err, ErrScreenCapture) {
		t.Fatalf("expected ErrScreenCapture, got %v", err)
	}
	if len(runner.order) != 0 {
		t.Fatalf("no step may run without a frame")
	}
}

func TestOrchestrator_RejectsConcurrentRun(t *testing.T) {
	runner := &scriptedRunner{
		started: make(chan struct{}),
		block:   make(chan struct{}),
		results: map[string]StepResult{"s1": {Text: "a"}, "s2": {Text: "b"}, "s3": {Text: "c"}},
	}
	sink := &recordingSink{}
	o := NewOrchestrator(stubSource{steps: copySteps(3)}, &stubAcquirer{}, runner, sink, 3, nil)

	done := make(chan Outcome)
	go func() {
		out, _ := o.Run()
		done <- out
	}()
	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first run never started")
	}
	if _, err := o.Run(); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	close(runner.block)
	out := <-done
	if !out.Success || len(sink.calls) != 1 {
		t.Fatalf("first run should complete alone: %+v sink=%d", out, len(sink.calls))
	}
	if len(runner.order) != 3 {
		t.Fatalf("rejected run must not execute steps: %v", runner.order)
	}
}

func TestOrchestrator_FieldKeyedAssembly(t *testing.T) {
	steps := []config.StepDescriptor{
		{Name: "open", Action: config.ActionClick},
		{Name: "order", Action: config.ActionClickAndCopy, Field: config.FieldOrderNumber},
		{Name: "shop", Action: config.ActionClickAndCopy, Field: config.FieldMerchant},
		{Name: "extra", Action: config.ActionClickAndCopy},
		{Name: "nick", Action: config.ActionClickAndCopy, Field: config.FieldCustomerNickname},
	}
	runner := &scriptedRunner{results: map[string]StepResult{
		"order": {Text: "A001"},
		"shop":  {Text: "旗舰店"},
		"extra": {Text: "备注"},
		"nick":  {Text: "小王"},
	}}
	sink := &recordingSink{}
	o := NewOrchestrator(stubSource{steps: steps}, &stubAcquirer{}, runner, sink, 3, nil)
	out, err := o.Run()
	if err != nil || !out.Success {
		t.Fatalf("run: %+v %v", out, err)
	}
	want := CaptureRecord{Nickname: "小王", Merchant: "旗舰店", OrderNumber: "A001"}
	if sink.calls[0] != want {
		t.Fatalf("keyed record %+v, want %+v", sink.calls[0], want)
	}

	// Enough values but one declared field empty: not a capture.
	runner.results["shop"] = failed(ErrNoMatchFound)
	out, _ = o.Run()
	if out.Success || !errors.Is(out.Shortfall, ErrCaptureFailed) || len(sink.calls) != 1 {
		t.Fatalf("missing merchant should fail: %+v", out)
	}
}

func TestOrchestrator_ClickStepsDoNotHarvest(t *testing.T) {
	steps := append([]config.StepDescriptor{{Name: "open", Action: config.ActionClick}}, copySteps(3)...)
	runner := &scriptedRunner{results: map[string]StepResult{
		"open": {Text: "leaked"},
		"s1":   {Text: "a"}, "s2": {Text: "b"}, "s3": {Text: "c"},
	}}
	sink := &recordingSink{}
	o := NewOrchestrator(stubSource{steps: steps}, &stubAcquirer{}, runner, sink, 3, nil)
	out, _ := o.Run()
	if len(out.Harvested) != 3 || out.Harvested[0] != "a" {
		t.Fatalf("harvested %v", out.Harvested)
	}
}
