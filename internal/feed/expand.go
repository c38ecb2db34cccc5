package feed

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "daygrid/internal/log"
	"daygrid/internal/model"
)

// maxOccurrencesPerEvent caps runaway recurrence rules per event.
const maxOccurrencesPerEvent = 5000

// Window is the absolute time range to materialize, and the display
// location every resulting item is projected into.
type Window struct {
	Start time.Time
	End   time.Time
	Loc   *time.Location
}

// Expand turns parsed events into per-day items inside the window.
//
// Each occurrence contributes one item per calendar day it touches, with
// its clock segment clamped to that day: a 22:00-02:00 event becomes a
// 22:00-24:00 item on the first day and a 00:00-02:00 item on the next.
// All-day occurrences become untimed items that land in the all-day lane.
// Item IDs combine the event UID with the occurrence start, so repeats of
// the same event stay distinct within a day.
//
// Recurrence handling covers RRULE, EXDATE exclusions and RECURRENCE-ID
// overrides. A malformed rule skips that event and nothing else.
func Expand(events []Event, w Window) ([]model.Item, error) {
	if w.End.Before(w.Start) {
		return nil, errors.New("expand: window end before start")
	}
	if w.Loc == nil {
		w.Loc = time.Local
	}

	overrides := make(map[string][]Event)
	for _, ev := range events {
		if ev.IsOverride && ev.RecurrenceID != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		}
	}

	var items []model.Item
	for _, ev := range events {
		if ev.IsOverride && ev.RecurrenceID != nil {
			continue
		}

		spans, truncated := occurrencesFor(ev, w)
		if truncated {
			appLog.Error("feed expand truncated occurrences", errors.New("cap reached"),
				"uid", ev.UID, "cap", maxOccurrencesPerEvent)
		}

		for _, sp := range spans {
			src, start, end := ev, sp.start, sp.end
			if o, ok := overrideFor(overrides[ev.UID], sp.start); ok {
				src, start, end = o, o.Start, o.End
			}
			items = append(items, dayItems(src, start, end, w)...)
		}
	}

	sortItems(items)
	return items, nil
}

type span struct {
	start, end time.Time
}

// occurrencesFor lists the absolute start/end spans of an event inside the
// window, expanding RRULE and removing EXDATEs.
func occurrencesFor(ev Event, w Window) ([]span, bool) {
	if ev.RRule == "" {
		if !rangesOverlap(ev.Start, ev.End, w.Start, w.End) {
			return nil, false
		}
		return []span{{ev.Start, ev.End}}, false
	}

	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		appLog.Error("feed expand: bad RRULE", err, "uid", ev.UID, "rrule", ev.RRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Between works in the event's own location; items convert later.
	starts := set.Between(w.Start.In(ev.Start.Location()), w.End.In(ev.Start.Location()), true)
	truncated := false
	if len(starts) > maxOccurrencesPerEvent {
		starts = starts[:maxOccurrencesPerEvent]
		truncated = true
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]span, 0, len(starts))
	for _, s := range starts {
		if ev.AllDay {
			day := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, s.Location())
			out = append(out, span{day, day.Add(24 * time.Hour)})
		} else {
			out = append(out, span{s, s.Add(dur)})
		}
	}
	return out, truncated
}

// overrideFor finds the override whose RECURRENCE-ID matches the occurrence
// start exactly.
func overrideFor(overrides []Event, start time.Time) (Event, bool) {
	for _, ov := range overrides {
		if ov.RecurrenceID == nil {
			continue
		}
		if ov.RecurrenceID.In(start.Location()).Equal(start) {
			return ov, true
		}
	}
	return Event{}, false
}

// dayItems projects one absolute occurrence into display-local items, one
// per calendar day, clipped to the window's days.
func dayItems(ev Event, start, end time.Time, w Window) []model.Item {
	if !end.After(start) {
		// Events without a usable DTEND get the one-hour default.
		end = start.Add(time.Hour)
	}

	startLocal := start.In(w.Loc)
	endLocal := end.In(w.Loc)
	id := ev.UID + "@" + startLocal.Format(time.RFC3339)

	firstDay := model.DateOf(w.Start.In(w.Loc))
	lastDay := model.DateOf(w.End.In(w.Loc))
	inWindow := func(d model.Date) bool {
		return !d.Before(firstDay) && !d.After(lastDay)
	}

	var items []model.Item
	if ev.AllDay {
		for d := model.DateOf(startLocal); d.Time(w.Loc).Before(endLocal); d = d.AddDays(1) {
			if inWindow(d) {
				items = append(items, baseItem(ev, id, d))
			}
		}
		return items
	}

	for cur := startLocal; cur.Before(endLocal); {
		day := model.DateOf(cur)
		next := day.AddDays(1).Time(w.Loc)
		segEnd := endLocal
		if next.Before(segEnd) {
			segEnd = next
		}

		if inWindow(day) {
			it := baseItem(ev, id, day)
			c := model.ClockFromMinutes(cur.Hour()*60 + cur.Minute())
			it.Time = &c
			mins := int(segEnd.Sub(cur) / time.Minute)
			if mins < 1 {
				mins = 1
			}
			it.DurationMinutes = mins
			items = append(items, it)
		}
		cur = next
	}
	return items
}

func baseItem(ev Event, id string, day model.Date) model.Item {
	return model.Item{
		ID:       id,
		Title:    ev.Summary,
		Date:     day,
		Kind:     model.KindEvent,
		Priority: model.PriorityNone,
		Status:   model.StatusScheduled,
		Source:   ev.Source.ID,
	}
}

func rangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}

// sortItems orders items by day, all-day lane first, then start time, then
// id, so expansion output is deterministic regardless of feed order.
func sortItems(items []model.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		am, bm := -1, -1
		if a.Time != nil {
			am = a.Time.Minutes()
		}
		if b.Time != nil {
			bm = b.Time.Minutes()
		}
		if am != bm {
			return am < bm
		}
		return a.ID < b.ID
	})
}
