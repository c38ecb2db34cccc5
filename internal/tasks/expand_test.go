package tasks

import (
	"testing"
	"time"

	"daygrid/internal/model"
)

var (
	// Monday through Sunday, one week.
	winFrom = model.NewDate(2026, time.August, 17)
	winTo   = winFrom.AddDays(7)
)

func recurringTask(id string, due model.Date, rec model.Recurrence) model.Item {
	rec.Enabled = true
	return model.Item{
		ID:         id,
		Title:      id,
		Date:       due,
		Kind:       model.KindTask,
		Status:     model.StatusTodo,
		Priority:   model.PriorityMedium,
		Recurrence: &rec,
	}
}

func TestExpandWindowDaily(t *testing.T) {
	clock := model.Clock{Hour: 7, Minute: 0}
	base := recurringTask("run", winFrom, model.Recurrence{Pattern: model.RecurDaily})
	base.Time = &clock
	base.DurationMinutes = 30

	out := ExpandWindow([]model.Item{base}, winFrom, winTo, time.UTC)
	if len(out) != 7 {
		t.Fatalf("got %d instances, want 7", len(out))
	}
	for i, it := range out {
		if want := winFrom.AddDays(i); !it.Date.Equal(want) {
			t.Errorf("instance %d on %v, want %v", i, it.Date, want)
		}
		if it.ID != "run@"+it.Date.String() {
			t.Errorf("instance id = %q", it.ID)
		}
		if it.Recurrence != nil {
			t.Error("instances must not keep the rule")
		}
		if it.Time == nil || it.Time.Minutes() != 7*60 || it.DurationMinutes != 30 {
			t.Errorf("instance %d lost its time: %v %dm", i, it.Time, it.DurationMinutes)
		}
	}
}

func TestExpandWindowDailyInterval(t *testing.T) {
	base := recurringTask("alt", winFrom, model.Recurrence{Pattern: model.RecurDaily, Interval: 2})

	out := ExpandWindow([]model.Item{base}, winFrom, winTo, time.UTC)
	if len(out) != 4 {
		t.Fatalf("got %d instances, want 4 (every other day)", len(out))
	}
	for i, it := range out {
		if want := winFrom.AddDays(2 * i); !it.Date.Equal(want) {
			t.Errorf("instance %d on %v, want %v", i, it.Date, want)
		}
	}
}

func TestExpandWindowWeeklyByDays(t *testing.T) {
	// Monday and Wednesday, using 0=Sunday numbering.
	base := recurringTask("gym", winFrom, model.Recurrence{
		Pattern:    model.RecurWeekly,
		DaysOfWeek: []int{1, 3},
	})

	out := ExpandWindow([]model.Item{base}, winFrom, winTo, time.UTC)
	if len(out) != 2 {
		t.Fatalf("got %d instances, want 2", len(out))
	}
	if !out[0].Date.Equal(winFrom) {
		t.Errorf("first = %v, want monday %v", out[0].Date, winFrom)
	}
	if !out[1].Date.Equal(winFrom.AddDays(2)) {
		t.Errorf("second = %v, want wednesday %v", out[1].Date, winFrom.AddDays(2))
	}
}

func TestExpandWindowCount(t *testing.T) {
	base := recurringTask("sprint", winFrom, model.Recurrence{Pattern: model.RecurDaily, Count: 3})

	out := ExpandWindow([]model.Item{base}, winFrom, winTo, time.UTC)
	if len(out) != 3 {
		t.Fatalf("got %d instances, want 3", len(out))
	}
}

func TestExpandWindowUntil(t *testing.T) {
	base := recurringTask("ramp", winFrom, model.Recurrence{
		Pattern: model.RecurDaily,
		Until:   winFrom.AddDays(2), // inclusive end
	})

	out := ExpandWindow([]model.Item{base}, winFrom, winTo, time.UTC)
	if len(out) != 3 {
		t.Fatalf("got %d instances, want 3 (end date inclusive)", len(out))
	}
}

func TestExpandWindowOldAnchor(t *testing.T) {
	// Rule anchored long before the window still fills the window.
	base := recurringTask("daily", model.NewDate(2026, time.January, 1),
		model.Recurrence{Pattern: model.RecurDaily})

	out := ExpandWindow([]model.Item{base}, winFrom, winTo, time.UTC)
	if len(out) != 7 {
		t.Fatalf("got %d instances, want 7", len(out))
	}
	if !out[0].Date.Equal(winFrom) {
		t.Errorf("first instance = %v, want %v", out[0].Date, winFrom)
	}
}

func TestExpandWindowPassThrough(t *testing.T) {
	plain := model.Item{ID: "plain", Title: "Plain", Date: winTo.AddDays(30)}
	undated := model.Item{ID: "someday", Title: "Someday"}

	out := ExpandWindow([]model.Item{plain, undated}, winFrom, winTo, time.UTC)
	if len(out) != 2 {
		t.Fatalf("got %d items, want both pass-throughs", len(out))
	}
	if out[0].ID != "plain" || out[1].ID != "someday" {
		t.Errorf("pass-through order changed: %v", out)
	}
}

func TestExpandWindowUnsupportedPattern(t *testing.T) {
	base := recurringTask("odd", winFrom, model.Recurrence{Pattern: "custom"})

	out := ExpandWindow([]model.Item{base}, winFrom, winTo, time.UTC)
	if len(out) != 1 || out[0].ID != "odd" {
		t.Fatalf("unsupported pattern should fall back to the base task, got %v", out)
	}
	if out[0].Recurrence == nil {
		t.Error("fallback should keep the original record intact")
	}
}

func TestExpandWindowUndatedRecurring(t *testing.T) {
	base := recurringTask("floating", model.Date{}, model.Recurrence{Pattern: model.RecurDaily})

	out := ExpandWindow([]model.Item{base}, winFrom, winTo, time.UTC)
	if len(out) != 1 || !out[0].Date.IsZero() {
		t.Fatalf("undated recurring task should pass through, got %v", out)
	}
}
