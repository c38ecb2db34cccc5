// Package urgency classifies items for the non-temporal views: the
// Eisenhower quadrants for triage and a composite score for flat ranking.
// Classification always evaluates against a caller-supplied "now" so
// results move with the clock instead of being stored.
package urgency

import (
	"sort"
	"time"

	"daygrid/internal/model"
)

// Bucket is one quadrant of the urgent/important matrix.
type Bucket string

const (
	BucketDoFirst  Bucket = "do-first"  // urgent and important
	BucketSchedule Bucket = "schedule"  // important, not urgent
	BucketQuickWin Bucket = "quick-win" // urgent, not important
	BucketLater    Bucket = "later"     // neither
)

// Options tunes classification. The zero value is usable.
type Options struct {
	// HorizonDays is how close a due date must be to count as urgent.
	// Overdue items are always urgent.
	HorizonDays int

	// MinImportant is the lowest priority that counts as important.
	MinImportant model.Priority
}

// DefaultOptions: due within two days is urgent, medium priority and above
// is important.
func DefaultOptions() Options {
	return Options{
		HorizonDays:  2,
		MinImportant: model.PriorityMedium,
	}
}

func (o Options) normalized() Options {
	if o.HorizonDays <= 0 {
		o.HorizonDays = 2
	}
	if o.MinImportant.Level() == 0 {
		o.MinImportant = model.PriorityMedium
	}
	return o
}

// Classify places an item into its quadrant. The function is total: every
// item lands in exactly one bucket, including closed and undated ones.
func Classify(it model.Item, now time.Time, opts Options) Bucket {
	opts = opts.normalized()
	urgent := isUrgent(it, now, opts.HorizonDays)
	important := it.Priority.Level() >= opts.MinImportant.Level()

	switch {
	case urgent && important:
		return BucketDoFirst
	case important:
		return BucketSchedule
	case urgent:
		return BucketQuickWin
	default:
		return BucketLater
	}
}

// isUrgent works on civil days, not wall-clock distance: a task due
// tomorrow evening is urgent all of today, not only once 24 hours remain.
func isUrgent(it model.Item, now time.Time, horizonDays int) bool {
	if it.Date.IsZero() {
		return false
	}
	return model.DaysBetween(model.DateOf(now), it.Date) < horizonDays
}

// Score folds priority, status and due proximity into one rank value.
// Higher means sooner. Raising priority raises the score; a closer due date
// never scores below a farther one; overdue outranks everything on the due
// axis; items without a due date take no due contribution at all.
func Score(it model.Item, now time.Time) int {
	score := it.Priority.Level() * 3

	switch it.Status {
	case model.StatusInProgress:
		score += 2
	case model.StatusTodo, model.StatusScheduled:
		score += 1
	}

	if due, ok := dueMoment(it, now.Location()); ok {
		switch left := due.Sub(now); {
		case left <= 0:
			score += 8
		case left < 24*time.Hour:
			score += 6
		case left < 72*time.Hour:
			score += 4
		default:
			score += 2
		}
	}

	return score
}

// dueMoment resolves when an item is actually due: at its due time when it
// has one, otherwise at the end of its due day.
func dueMoment(it model.Item, loc *time.Location) (time.Time, bool) {
	if it.Date.IsZero() {
		return time.Time{}, false
	}
	day := it.Date.Time(loc)
	if it.Time != nil {
		return day.Add(time.Duration(it.Time.Minutes()) * time.Minute), true
	}
	return day.AddDate(0, 0, 1), true
}

// Scored is an item with its computed rank and quadrant.
type Scored struct {
	Item   model.Item `json:"item"`
	Score  int        `json:"score"`
	Bucket Bucket     `json:"bucket"`
}

// Rank scores all items and orders them by descending score. Equal scores
// keep their input order.
func Rank(items []model.Item, now time.Time, opts Options) []Scored {
	out := make([]Scored, 0, len(items))
	for _, it := range items {
		out = append(out, Scored{
			Item:   it,
			Score:  Score(it, now),
			Bucket: Classify(it, now, opts),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Buckets splits items into the four quadrants, preserving input order
// inside each bucket. Closed items classify like any other; views that only
// want open work filter before calling.
func Buckets(items []model.Item, now time.Time, opts Options) map[Bucket][]model.Item {
	out := map[Bucket][]model.Item{
		BucketDoFirst:  {},
		BucketSchedule: {},
		BucketQuickWin: {},
		BucketLater:    {},
	}
	for _, it := range items {
		b := Classify(it, now, opts)
		out[b] = append(out[b], it)
	}
	return out
}
