package presenter

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/soocke/clerk-capture-go/domain/workflow"
	"github.com/soocke/clerk-capture-go/ui/model"
)

type mockRunner struct {
	mu    sync.Mutex
	calls int
	gate  chan struct{} // when set, Run waits on it
	out   workflow.Outcome
	err   error
	panic bool
}

func (r *mockRunner) Run() (workflow.Outcome, error) {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.panic {
		panic("driver exploded")
	}
	return r.out, r.err
}

type mockStatusView struct{ texts []string }

func (v *mockStatusView) SetStatus(text string) { v.texts = append(v.texts, text) }

func newPresenter(r RunContract) (*CapturePresenter, *model.RunModel, *model.StatusModel, chan struct{}) {
	run := &model.RunModel{}
	status := model.NewStatusModel("当前快捷键: f1")
	p := NewCapturePresenter(r, run, status, 3*time.Second, nil)
	base := time.Unix(100, 0)
	p.now = func() time.Time { return base }
	done := make(chan struct{}, 4)
	p.OnDone(func(workflow.Outcome, error) { done <- struct{}{} })
	return p, run, status, done
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not finish")
	}
}

func TestCapturePresenter_TriggerIgnoresReentry(t *testing.T) {
	r := &mockRunner{gate: make(chan struct{}), out: workflow.Outcome{Success: true}}
	p, run, status, done := newPresenter(r)

	if !p.Trigger() {
		t.Fatal("first trigger should start a run")
	}
	if got := status.Text(time.Unix(100, 0)); got != MsgRunning {
		t.Fatalf("running status %q", got)
	}
	if p.Trigger() {
		t.Fatal("trigger while busy should be ignored")
	}
	close(r.gate)
	waitDone(t, done)
	if r.calls != 1 || run.Busy() {
		t.Fatalf("calls=%d busy=%v", r.calls, run.Busy())
	}
	if got := status.Text(time.Unix(101, 0)); got != MsgSuccess {
		t.Fatalf("success status %q", got)
	}
	if got := status.Text(time.Unix(103, 0)); got != "当前快捷键: f1" {
		t.Fatalf("status should revert after ttl, got %q", got)
	}
	if c := run.Counts(); c.Runs != 1 || c.Successes != 1 {
		t.Fatalf("counts %+v", c)
	}
}

func TestCapturePresenter_StatusMessages(t *testing.T) {
	cases := map[string]struct {
		runner *mockRunner
		want   string
	}{
		"insufficient": {&mockRunner{out: workflow.Outcome{Success: false}}, MsgInsufficient},
		"error":        {&mockRunner{err: workflow.ErrScreenCapture}, "错误: " + workflow.ErrScreenCapture.Error()},
		"panic":        {&mockRunner{panic: true}, "错误: capture run panicked"},
	}
	for name, tc := range cases {
		p, run, status, done := newPresenter(tc.runner)
		p.Trigger()
		waitDone(t, done)
		if got := status.Text(time.Unix(100, 0)); !strings.HasPrefix(got, tc.want) {
			t.Fatalf("%s: status %q, want prefix %q", name, got, tc.want)
		}
		if run.Busy() {
			t.Fatalf("%s: busy flag not cleared", name)
		}
	}
}

func TestCapturePresenter_RunOnce(t *testing.T) {
	r := &mockRunner{err: workflow.ErrConfigLoad}
	p, _, _, _ := newPresenter(r)
	if _, err := p.RunOnce(); !errors.Is(err, workflow.ErrConfigLoad) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestStatusPresenter_PushesChangesOnly(t *testing.T) {
	status := model.NewStatusModel("idle")
	view := &mockStatusView{}
	sp := NewStatusPresenter(status, view)
	base := time.Unix(0, 0)

	sp.Tick(base)
	sp.Tick(base)
	status.Show("busy", base, time.Second)
	sp.Tick(base)
	sp.Tick(base.Add(2 * time.Second))
	want := []string{"idle", "busy", "idle"}
	if strings.Join(view.texts, ",") != strings.Join(want, ",") {
		t.Fatalf("view updates %v, want %v", view.texts, want)
	}
}

func TestCapturePresenter_DoneCallbackPanicSettlesOnce(t *testing.T) {
	r := &mockRunner{out: workflow.Outcome{Success: true}}
	run := &model.RunModel{}
	status := model.NewStatusModel("idle")
	p := NewCapturePresenter(r, run, status, time.Second, nil)
	calls := 0
	p.OnDone(func(workflow.Outcome, error) {
		calls++
		panic("view exploded")
	})

	out, err := p.RunOnce()
	if err != nil || !out.Success {
		t.Fatalf("run result should survive a panicking callback: %+v %v", out, err)
	}
	if calls != 1 {
		t.Fatalf("done called %d times", calls)
	}
	c := run.Counts()
	if c.Runs != 1 || c.Successes+c.Failures+c.Errors != 1 || c.Errors != 0 {
		t.Fatalf("run counted more than once: %+v", c)
	}
	if run.Busy() {
		t.Fatal("busy flag not cleared")
	}
}
