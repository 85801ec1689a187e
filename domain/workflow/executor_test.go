package workflow

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/soocke/clerk-capture-go/config"
	"github.com/soocke/clerk-capture-go/domain/action"
	"github.com/soocke/clerk-capture-go/domain/capture"
)

// fakeDriver records every input call.
type fakeDriver struct {
	calls     []string
	clipboard string
	clipErr   error
	clickErr  error
}

func (d *fakeDriver) MoveSmooth(x, y int, dur time.Duration) error {
	d.calls = append(d.calls, fmt.Sprintf("move %d,%d %v", x, y, dur))
	return nil
}

func (d *fakeDriver) Click() error {
	d.calls = append(d.calls, "click")
	return d.clickErr
}

func (d *fakeDriver) Copy() error {
	d.calls = append(d.calls, "copy")
	return nil
}

func (d *fakeDriver) ReadClipboard() (string, error) {
	d.calls = append(d.calls, "read")
	return d.clipboard, d.clipErr
}

func noiseFrame(w, h int, seed int64) *image.RGBA {
	r := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = uint8(r.Intn(256))
		img.Pix[i+1] = uint8(r.Intn(256))
		img.Pix[i+2] = uint8(r.Intn(256))
		img.Pix[i+3] = 0xFF
	}
	return img
}

// writeTemplate saves the rect of src as a PNG under dir and returns its name.
func writeTemplate(t *testing.T, dir, name string, src *image.RGBA, r image.Rectangle) string {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, src.SubImage(r)); err != nil {
		t.Fatal(err)
	}
	return name
}

func newTestExecutor(root string, d action.Driver) (*Executor, *[]time.Duration) {
	var sleeps []time.Duration
	e := NewExecutor(root, capture.NewNCCMatcher(capture.NCCOptions{}), d, Timing{
		Move:       200 * time.Millisecond,
		ClickPause: 100 * time.Millisecond,
		Settle:     200 * time.Millisecond,
		CopyClicks: 3,
	}, nil)
	e.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return e, &sleeps
}

func TestExecutor_ClickStep(t *testing.T) {
	dir := t.TempDir()
	frame := noiseFrame(80, 60, 1)
	name := writeTemplate(t, dir, "tab.png", frame, image.Rect(20, 10, 32, 18))
	d := &fakeDriver{clipboard: "stale"}
	e, sleeps := newTestExecutor(dir, d)

	text, err := e.Execute(config.StepDescriptor{Name: "tab", TemplatePath: name, Threshold: 0.8, Action: config.ActionClick}, frame)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if text != "" {
		t.Fatalf("click step must not harvest text, got %q", text)
	}
	want := []string{"move 26,14 200ms", "click"}
	if fmt.Sprint(d.calls) != fmt.Sprint(want) {
		t.Fatalf("calls %v, want %v", d.calls, want)
	}
	if len(*sleeps) != 1 || (*sleeps)[0] != 200*time.Millisecond {
		t.Fatalf("expected one settle sleep, got %v", *sleeps)
	}
}

func TestExecutor_CopyStepAppliesOffset(t *testing.T) {
	dir := t.TempDir()
	frame := noiseFrame(80, 60, 2)
	name := writeTemplate(t, dir, "nick.png", frame, image.Rect(40, 30, 50, 40))
	d := &fakeDriver{clipboard: "小王"}
	e, sleeps := newTestExecutor(dir, d)

	step := config.StepDescriptor{Name: "nick", TemplatePath: name, Threshold: 0.8, Action: config.ActionClickAndCopy, Offset: config.Offset{X: 15, Y: -3}}
	text, err := e.Execute(step, frame)
	if err != nil || text != "小王" {
		t.Fatalf("got %q, %v", text, err)
	}
	want := []string{"move 60,32 200ms", "click", "click", "click", "copy", "read"}
	if fmt.Sprint(d.calls) != fmt.Sprint(want) {
		t.Fatalf("calls %v, want %v", d.calls, want)
	}
	wantSleeps := []time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}
	if fmt.Sprint(*sleeps) != fmt.Sprint(wantSleeps) {
		t.Fatalf("sleeps %v, want %v", *sleeps, wantSleeps)
	}
}

func TestExecutor_Errors(t *testing.T) {
	dir := t.TempDir()
	frame := noiseFrame(40, 40, 3)
	other := noiseFrame(40, 40, 4)
	absent := writeTemplate(t, dir, "absent.png", other, image.Rect(0, 0, 12, 12))
	big := writeTemplate(t, dir, "big.png", noiseFrame(60, 20, 5), image.Rect(0, 0, 60, 20))
	if err := os.WriteFile(filepath.Join(dir, "junk.png"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	cases := map[string]struct {
		path string
		want error
	}{
		"missing":  {"nope.png", ErrTemplateNotFound},
		"dir":      {".", ErrTemplateNotFound},
		"junk":     {"junk.png", ErrTemplateLoad},
		"too big":  {big, ErrInvalidTemplateSize},
		"no match": {absent, ErrNoMatchFound},
	}
	for name, tc := range cases {
		d := &fakeDriver{}
		e, _ := newTestExecutor(dir, d)
		text, err := e.Execute(config.StepDescriptor{Name: name, TemplatePath: tc.path, Threshold: 0.8, Action: config.ActionClickAndCopy}, frame)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", name, tc.want, err)
		}
		var se *StepError
		if !errors.As(err, &se) || se.Step != name {
			t.Fatalf("%s: expected *StepError naming the step, got %#v", name, err)
		}
		if text != "" || len(d.calls) != 0 {
			t.Fatalf("%s: failed step must not drive input: %v", name, d.calls)
		}
	}
}

func TestExecutor_InputAndClipboardFailures(t *testing.T) {
	dir := t.TempDir()
	frame := noiseFrame(50, 50, 6)
	name := writeTemplate(t, dir, "f.png", frame, image.Rect(5, 5, 15, 15))
	step := config.StepDescriptor{Name: "f", TemplatePath: name, Threshold: 0.8, Action: config.ActionClickAndCopy}

	e, _ := newTestExecutor(dir, &fakeDriver{clickErr: errors.New("blocked")})
	if _, err := e.Execute(step, frame); !errors.Is(err, ErrInput) {
		t.Fatalf("expected ErrInput, got %v", err)
	}
	e, _ = newTestExecutor(dir, &fakeDriver{clipErr: errors.New("locked")})
	if _, err := e.Execute(step, frame); !errors.Is(err, ErrClipboard) {
		t.Fatalf("expected ErrClipboard, got %v", err)
	}
	e, _ = newTestExecutor(dir, &fakeDriver{clipboard: "A001\r\n"})
	if text, err := e.Execute(step, frame); err != nil || text != "A001" {
		t.Fatalf("trailing line break should be trimmed, got %q %v", text, err)
	}
	e, _ = newTestExecutor(dir, &fakeDriver{clipErr: action.ErrClipboardEmpty})
	if text, err := e.Execute(step, frame); err != nil || text != "" {
		t.Fatalf("empty clipboard should yield empty text, got %q %v", text, err)
	}
}
