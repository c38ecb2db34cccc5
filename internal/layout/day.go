package layout

import (
	"daygrid/internal/model"
)

// Engine runs the full pipeline for whole days. The zero value uses
// DefaultOptions.
type Engine struct {
	opts Options
}

// New builds an engine with the given tuning.
func New(opts Options) Engine {
	return Engine{opts: opts.normalized()}
}

// Block pairs an item with its computed geometry, ready for rendering.
type Block struct {
	Item model.Item `json:"item"`
	Placement
}

// DayResult is the complete layout of one calendar day: the all-day lane
// on top, timed blocks on the 24-hour axis below it.
type DayResult struct {
	Date   model.Date   `json:"date"`
	AllDay []model.Item `json:"all_day"`
	Timed  []Block      `json:"timed"`
}

// DayLayout lays out the items that fall on date. Items dated elsewhere and
// undated items are ignored, so callers can pass a whole window's worth of
// items unfiltered. Untimed items land in the all-day lane; timed items go
// through grouping, packing and projection. An empty day yields an empty
// result, never an error.
func (e Engine) DayLayout(date model.Date, items []model.Item) DayResult {
	opts := e.opts.normalized()
	res := DayResult{Date: date}

	byID := make(map[string]model.Item)
	var intervals []Interval
	for _, it := range items {
		if !it.Date.Equal(date) {
			continue
		}
		iv, ok := IntervalForItem(it, opts)
		if !ok {
			res.AllDay = append(res.AllDay, it)
			continue
		}
		intervals = append(intervals, iv)
		byID[iv.ID] = it
	}

	for _, group := range Group(intervals) {
		packed, total := Pack(group)
		for _, p := range packed {
			res.Timed = append(res.Timed, Block{
				Item:      byID[p.ID],
				Placement: Project(p, total, opts),
			})
		}
	}

	return res
}

// WeekLayout lays out the seven days starting at weekStart. Each day is
// packed on its own; columns never carry across midnight.
func (e Engine) WeekLayout(weekStart model.Date, items []model.Item) []DayResult {
	days := make([]DayResult, 0, 7)
	for i := 0; i < 7; i++ {
		days = append(days, e.DayLayout(weekStart.AddDays(i), items))
	}
	return days
}
