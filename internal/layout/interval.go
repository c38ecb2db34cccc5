// Package layout computes the day-timeline geometry: timed items become
// minute intervals, intervals are grouped by transitive overlap, each group
// is packed into side-by-side columns, and every member is projected onto
// the 24-hour axis as percentage geometry. All steps are pure; layouts are
// recomputed from the current item set on every call.
package layout

import (
	"daygrid/internal/model"
)

// MinutesPerDay is the height of the day axis.
const MinutesPerDay = 24 * 60

// Options tunes the engine. The zero value is usable; missing fields take
// the defaults below.
type Options struct {
	// MinHeightPercent is the floor for rendered block height, so very short
	// items stay clickable.
	MinHeightPercent float64

	// EventMinutes and TaskMinutes are the default durations for items that
	// do not carry one.
	EventMinutes int
	TaskMinutes  int
}

// DefaultOptions returns the standard engine tuning.
func DefaultOptions() Options {
	return Options{
		MinHeightPercent: 1.4,
		EventMinutes:     60,
		TaskMinutes:      30,
	}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.MinHeightPercent <= 0 {
		o.MinHeightPercent = def.MinHeightPercent
	}
	if o.EventMinutes <= 0 {
		o.EventMinutes = def.EventMinutes
	}
	if o.TaskMinutes <= 0 {
		o.TaskMinutes = def.TaskMinutes
	}
	return o
}

// Interval is one timed item reduced to its minute offsets within the day.
// Start is inclusive, End exclusive, both within [0, MinutesPerDay].
type Interval struct {
	ID    string
	Start int
	End   int
	Kind  model.Kind
}

// Overlaps reports whether two intervals share any minute. Touching
// endpoints (one ends exactly where the other starts) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && iv.End > other.Start
}

// Clamp repairs an interval into the day's bounds: the start is forced into
// [0, MinutesPerDay), the end never passes midnight, and an end at or before
// the start becomes a one-minute interval. Malformed input is corrected
// rather than rejected so a single bad record cannot abort a layout pass.
func Clamp(iv Interval) Interval {
	if iv.Start < 0 {
		iv.Start = 0
	}
	if iv.Start >= MinutesPerDay {
		iv.Start = MinutesPerDay - 1
	}
	if iv.End > MinutesPerDay {
		iv.End = MinutesPerDay
	}
	if iv.End <= iv.Start {
		iv.End = iv.Start + 1
	}
	return iv
}

// IntervalForItem derives the packable interval for an item. ok is false
// when the item has no start time, which routes it to the all-day lane
// instead of the column packer.
//
// Duration falls back to the kind default when missing or non-positive; the
// result is clamped into the day.
func IntervalForItem(it model.Item, opts Options) (iv Interval, ok bool) {
	if it.Time == nil {
		return Interval{}, false
	}
	opts = opts.normalized()

	dur := it.DurationMinutes
	if dur <= 0 {
		if it.Kind == model.KindEvent {
			dur = opts.EventMinutes
		} else {
			dur = opts.TaskMinutes
		}
	}

	start := it.Time.Minutes()
	return Clamp(Interval{
		ID:    it.ID,
		Start: start,
		End:   start + dur,
		Kind:  it.Kind,
	}), true
}
