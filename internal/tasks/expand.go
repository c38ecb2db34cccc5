package tasks

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	appLog "daygrid/internal/log"
	"daygrid/internal/model"
)

// rruleWeekdays maps time.Weekday numbering (0 = Sunday) onto rrule's.
var rruleWeekdays = []rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// ExpandWindow materializes tasks for the [from, to) date window.
//
// Plain tasks pass through unchanged, dated or not, so triage views keep
// seeing work due beyond the window. Recurring tasks are replaced by their
// concrete instances inside the window, one per matching day; each instance
// inherits the base task's time, duration, priority and tags, gets the id
// "<base>@<date>", and drops the rule so it never re-expands. A recurrence
// that cannot be interpreted is logged and falls back to its base record.
func ExpandWindow(items []model.Item, from, to model.Date, loc *time.Location) []model.Item {
	if loc == nil {
		loc = time.Local
	}

	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if !it.Recurring() {
			out = append(out, it)
			continue
		}
		if it.Date.IsZero() {
			// Nothing to anchor the rule on.
			appLog.Debug("recurring task without due date, keeping as-is", "id", it.ID)
			out = append(out, it)
			continue
		}

		rule, err := recurrenceRule(it, loc)
		if err != nil {
			appLog.Error("task recurrence ignored", err, "id", it.ID, "pattern", it.Recurrence.Pattern)
			out = append(out, it)
			continue
		}

		for _, tm := range rule.Between(from.Time(loc), to.Time(loc), true) {
			d := model.DateOf(tm.In(loc))
			if !d.Before(to) {
				continue
			}
			inst := it
			inst.Date = d
			inst.ID = it.ID + "@" + d.String()
			inst.Recurrence = nil
			out = append(out, inst)
		}
	}
	return out
}

// recurrenceRule builds the rrule for a dated recurring task, anchored at
// its due date and time.
func recurrenceRule(it model.Item, loc *time.Location) (*rrule.RRule, error) {
	rec := it.Recurrence

	var freq rrule.Frequency
	switch rec.Pattern {
	case model.RecurDaily:
		freq = rrule.DAILY
	case model.RecurWeekly:
		freq = rrule.WEEKLY
	case model.RecurMonthly:
		freq = rrule.MONTHLY
	case model.RecurYearly:
		freq = rrule.YEARLY
	default:
		return nil, fmt.Errorf("unsupported recurrence pattern %q", rec.Pattern)
	}

	dtstart := it.Date.Time(loc)
	if it.Time != nil {
		dtstart = dtstart.Add(time.Duration(it.Time.Minutes()) * time.Minute)
	}

	opt := rrule.ROption{
		Freq:    freq,
		Dtstart: dtstart,
	}
	if rec.Interval > 1 {
		opt.Interval = rec.Interval
	}
	if rec.Count > 0 {
		opt.Count = rec.Count
	}
	if !rec.Until.IsZero() {
		// EndDate is inclusive: run through the end of that day.
		opt.Until = rec.Until.Time(loc).Add(24*time.Hour - time.Second)
	}
	if freq == rrule.WEEKLY && len(rec.DaysOfWeek) > 0 {
		for _, n := range rec.DaysOfWeek {
			if n >= 0 && n < len(rruleWeekdays) {
				opt.Byweekday = append(opt.Byweekday, rruleWeekdays[n])
			}
		}
	}

	return rrule.NewRRule(opt)
}
