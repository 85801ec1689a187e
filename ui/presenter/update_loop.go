package presenter

import (
	"context"
	"time"
)

// Loop drives periodic presenter updates. The zero value is usable
// (methods are nil-safe).
type Loop struct {
	Status   *StatusPresenter
	Schedule func()
	Interval time.Duration
}

func NewLoop(status *StatusPresenter, schedule func()) *Loop {
	return &Loop{Status: status, Schedule: schedule, Interval: 100 * time.Millisecond}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	if l.Status != nil {
		l.Status.Tick(time.Now())
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}

// Run ticks until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	if l == nil {
		return
	}
	interval := l.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	l.Tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Tick()
		}
	}
}
