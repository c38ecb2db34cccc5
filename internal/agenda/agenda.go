// Package agenda merges the two item sources, the task snapshot and the
// calendar feeds, and assembles the served views: day and week layouts
// plus the triage board.
package agenda

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"daygrid/internal/layout"
	appLog "daygrid/internal/log"
	"daygrid/internal/model"
	"daygrid/internal/tasks"
	"daygrid/internal/urgency"
)

// Feed is the calendar side of the agenda. *feed.Store implements it. A
// nil Feed means no subscriptions are configured.
type Feed interface {
	Items() []model.Item
	UpdatedAt() time.Time
}

// Options tunes the assembled views. The zero value works for tests.
type Options struct {
	// SnapshotPath is the task snapshot JSON written by the companion app.
	// Empty disables the task source.
	SnapshotPath string

	// HorizonDays bounds how far ahead recurring tasks materialize.
	HorizonDays int

	// Location is the display timezone. Nil means time.Local.
	Location *time.Location

	Layout  layout.Options
	Urgency urgency.Options
}

// Agenda assembles day, week and triage views over both sources. The
// snapshot reloads lazily when its file changes on disk; feed items come
// from the store's last refresh.
type Agenda struct {
	opts   Options
	engine layout.Engine
	feeds  Feed

	mu      sync.Mutex
	tasks   []model.Item
	modTime time.Time
	loaded  bool
}

// New builds an agenda over the given feed source.
func New(opts Options, feeds Feed) *Agenda {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 7
	}
	return &Agenda{
		opts:   opts,
		engine: layout.New(opts.Layout),
		feeds:  feeds,
	}
}

// Day lays out one calendar day from both sources.
func (a *Agenda) Day(date model.Date) layout.DayResult {
	return a.engine.DayLayout(date, a.itemsAround(date, date.AddDays(1)))
}

// Week lays out the seven days starting at weekStart.
func (a *Agenda) Week(weekStart model.Date) []layout.DayResult {
	return a.engine.WeekLayout(weekStart, a.itemsAround(weekStart, weekStart.AddDays(7)))
}

// TriageResult is the classified view of open tasks.
type TriageResult struct {
	Buckets map[urgency.Bucket][]model.Item
	Ranked  []urgency.Scored
}

// Triage classifies and ranks the open tasks as of now. Events stay out:
// they are appointments to keep, not work to choose between. Closed tasks
// stay out as well.
func (a *Agenda) Triage(now time.Time) TriageResult {
	today := model.DateOf(now.In(a.opts.Location))
	all := tasks.ExpandWindow(a.taskItems(), today, today.AddDays(a.opts.HorizonDays), a.opts.Location)

	var open []model.Item
	for _, it := range all {
		if it.Kind != model.KindTask || it.Status.Closed() {
			continue
		}
		open = append(open, it)
	}

	return TriageResult{
		Buckets: urgency.Buckets(open, now, a.opts.Urgency),
		Ranked:  urgency.Rank(open, now, a.opts.Urgency),
	}
}

// Location returns the display timezone the views are assembled in.
func (a *Agenda) Location() *time.Location {
	return a.opts.Location
}

// UpdatedAt reports when the feed side last refreshed. The web cache keys
// on it to pick up new items between TTL expiries.
func (a *Agenda) UpdatedAt() time.Time {
	if a.feeds == nil {
		return time.Time{}
	}
	return a.feeds.UpdatedAt()
}

// itemsAround collects everything the layout for [from, to) could need.
// DayLayout filters by date itself, so over-collecting is harmless.
func (a *Agenda) itemsAround(from, to model.Date) []model.Item {
	items := tasks.ExpandWindow(a.taskItems(), from, to, a.opts.Location)
	if a.feeds != nil {
		items = append(items, a.feeds.Items()...)
	}
	return items
}

// taskItems returns the current snapshot, reloading it when the file's
// mtime moved. A reload that fails keeps serving the last good set.
func (a *Agenda) taskItems() []model.Item {
	path := a.opts.SnapshotPath
	if path == "" {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			appLog.Error("task snapshot stat failed", err, "path", path)
		}
		a.tasks = nil
		a.loaded = false
		return nil
	}
	if a.loaded && info.ModTime().Equal(a.modTime) {
		return a.tasks
	}

	items, err := tasks.Load(path)
	if err != nil {
		appLog.Error("task snapshot reload failed", err, "path", path)
		return a.tasks
	}
	a.tasks = items
	a.modTime = info.ModTime()
	a.loaded = true
	appLog.Info("task snapshot loaded", "path", path, "tasks", len(items))
	return a.tasks
}
