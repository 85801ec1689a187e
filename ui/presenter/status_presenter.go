package presenter

import (
	"time"

	"github.com/soocke/clerk-capture-go/ui/model"
)

// StatusView displays the status line.
type StatusView interface {
	SetStatus(text string)
}

// StatusPresenter pushes the visible status text to the view when it changes.
type StatusPresenter struct {
	status *model.StatusModel
	view   StatusView
	last   string
}

// NewStatusPresenter returns a new StatusPresenter.
func NewStatusPresenter(status *model.StatusModel, view StatusView) *StatusPresenter {
	return &StatusPresenter{status: status, view: view}
}

// Tick expires transient messages and refreshes the view.
func (p *StatusPresenter) Tick(now time.Time) {
	if p == nil || p.status == nil || p.view == nil {
		return
	}
	text := p.status.Text(now)
	if text == p.last {
		return
	}
	p.last = text
	p.view.SetStatus(text)
}
