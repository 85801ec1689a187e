package app

import (
	"time"

	"github.com/soocke/clerk-capture-go/domain/records"
)

// MsgCleared is shown after the clear hotkey empties the table.
const MsgCleared = "记录已清空"

// BrowseOptions selects what Browse prints.
type BrowseOptions struct {
	Search string // matched against every column; empty keeps all rows
	SortBy string // column key or header label; empty keeps table order
	Desc   bool
	Page   int // 1-based, clamped to the available pages
}

// Browse prints one page of the record table without capturing anything.
// Sorting reorders the table itself.
func (a *App) Browse(opts BrowseOptions) error {
	if opts.SortBy != "" {
		col, err := records.ParseColumn(opts.SortBy)
		if err != nil {
			return err
		}
		a.c.Records.Sort(col, opts.Desc)
	}
	hits := a.c.Records.Search(opts.Search)
	items, total := records.Page(hits, opts.Page, a.c.Config.PageSize)
	page := opts.Page
	if page < 1 {
		page = 1
	} else if page > total {
		page = total
	}
	a.c.View.ShowPage(items, page, total)
	a.log("records.browse", "search", opts.Search, "sort", opts.SortBy, "desc", opts.Desc, "hits", len(hits), "page", page, "pages", total)
	return nil
}

// ClearRecords empties the table unless a run is in flight. It reports
// whether the table was cleared.
func (a *App) ClearRecords() bool {
	if a.c.Run.Busy() {
		if a.logger != nil {
			a.logger.Debug("records.clear_ignored", "reason", "busy")
		}
		return false
	}
	a.c.Records.Clear()
	a.c.Status.Show(MsgCleared, time.Now(), a.c.Config.StatusDuration())
	return true
}

// summary logs run and grab counters for the session.
func (a *App) summary() {
	if a.logger == nil {
		return
	}
	runs := a.c.Run.Counts()
	grabs := a.c.Acquirer.Stats()
	a.logger.Info("app.summary",
		"runs", runs.Runs,
		"successes", runs.Successes,
		"failures", runs.Failures,
		"errors", runs.Errors,
		"records", a.c.Records.Len(),
		"grabs", grabs.Grabs,
		"grab_failures", grabs.Failures,
		"avg_grab", grabs.AvgGrab,
	)
}
