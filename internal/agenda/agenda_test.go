package agenda

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"daygrid/internal/model"
	"daygrid/internal/urgency"
)

var (
	monday   = model.NewDate(2026, time.August, 17)
	noon     = time.Date(2026, time.August, 17, 12, 0, 0, 0, time.UTC)
	testOpts = Options{Location: time.UTC}
)

type stubFeed struct {
	items []model.Item
	at    time.Time
}

func (f stubFeed) Items() []model.Item  { return f.items }
func (f stubFeed) UpdatedAt() time.Time { return f.at }

func writeSnapshot(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDayMergesSources(t *testing.T) {
	opts := testOpts
	opts.SnapshotPath = writeSnapshot(t,
		`[{"id":"t1","title":"Write report","dueDate":"2026-08-17","dueTime":"09:00"}]`)

	start := model.Clock{Hour: 9, Minute: 15}
	feeds := stubFeed{items: []model.Item{
		{ID: "e1", Title: "Standup", Date: monday, Time: &start, DurationMinutes: 60, Kind: model.KindEvent},
		{ID: "e2", Title: "Holiday", Date: monday, Kind: model.KindEvent},
	}}

	day := New(opts, feeds).Day(monday)

	if len(day.Timed) != 2 {
		t.Fatalf("got %d timed blocks, want 2", len(day.Timed))
	}
	for _, b := range day.Timed {
		// t1 [540,570) and e1 [555,615) overlap, so both split the width.
		if b.WidthPercent != 50 {
			t.Errorf("%s width = %v, want 50", b.Item.ID, b.WidthPercent)
		}
	}
	if len(day.AllDay) != 1 || day.AllDay[0].ID != "e2" {
		t.Fatalf("all-day lane = %v, want just e2", day.AllDay)
	}
}

func TestWeekRecurringTask(t *testing.T) {
	opts := testOpts
	opts.SnapshotPath = writeSnapshot(t,
		`[{"id":"gym","title":"Gym","dueDate":"2026-08-17","dueTime":"08:00",
		   "recurrence":{"enabled":true,"pattern":"daily"}}]`)

	week := New(opts, nil).Week(monday)
	if len(week) != 7 {
		t.Fatalf("got %d days, want 7", len(week))
	}
	for i, day := range week {
		if !day.Date.Equal(monday.AddDays(i)) {
			t.Errorf("day %d is %v, want %v", i, day.Date, monday.AddDays(i))
		}
		if len(day.Timed) != 1 {
			t.Errorf("day %d has %d timed blocks, want 1", i, len(day.Timed))
		}
	}
}

func TestDaySnapshotReload(t *testing.T) {
	opts := testOpts
	opts.SnapshotPath = writeSnapshot(t,
		`[{"id":"t1","title":"One","dueDate":"2026-08-17"}]`)
	a := New(opts, nil)

	if day := a.Day(monday); len(day.AllDay) != 1 {
		t.Fatalf("first load: %d items, want 1", len(day.AllDay))
	}

	info, err := os.Stat(opts.SnapshotPath)
	if err != nil {
		t.Fatal(err)
	}
	next := `[{"id":"t1","title":"One","dueDate":"2026-08-17"},
	          {"id":"t2","title":"Two","dueDate":"2026-08-17"}]`
	if err := os.WriteFile(opts.SnapshotPath, []byte(next), 0o600); err != nil {
		t.Fatal(err)
	}
	// Force a visible mtime change; writes within the same tick would hide it.
	bumped := info.ModTime().Add(2 * time.Second)
	if err := os.Chtimes(opts.SnapshotPath, bumped, bumped); err != nil {
		t.Fatal(err)
	}

	if day := a.Day(monday); len(day.AllDay) != 2 {
		t.Fatalf("after rewrite: %d items, want 2", len(day.AllDay))
	}
}

func TestDayMissingSnapshot(t *testing.T) {
	opts := testOpts
	opts.SnapshotPath = filepath.Join(t.TempDir(), "nope.json")

	day := New(opts, nil).Day(monday)
	if len(day.AllDay) != 0 || len(day.Timed) != 0 {
		t.Fatalf("missing snapshot should yield an empty day, got %+v", day)
	}
}

func TestTriageOpenTasksOnly(t *testing.T) {
	opts := testOpts
	opts.SnapshotPath = writeSnapshot(t, `[
		{"id":"t1","title":"Pay rent","dueDate":"2026-08-17","priority":"high"},
		{"id":"t2","title":"Done already","dueDate":"2026-08-17","priority":"high","status":"completed"},
		{"id":"e1","title":"Blocked slot","dueDate":"2026-08-17","kind":"event"}
	]`)

	res := New(opts, nil).Triage(noon)

	if len(res.Ranked) != 1 || res.Ranked[0].Item.ID != "t1" {
		t.Fatalf("ranked = %v, want just t1", res.Ranked)
	}
	for _, b := range []urgency.Bucket{urgency.BucketDoFirst, urgency.BucketSchedule, urgency.BucketQuickWin, urgency.BucketLater} {
		if _, ok := res.Buckets[b]; !ok {
			t.Errorf("bucket %q missing from result", b)
		}
	}
	if got := res.Buckets[urgency.BucketDoFirst]; len(got) != 1 || got[0].ID != "t1" {
		t.Errorf("do-first = %v, want just t1", got)
	}
}

func TestTriageExpandsRecurring(t *testing.T) {
	opts := testOpts
	opts.SnapshotPath = writeSnapshot(t,
		`[{"id":"med","title":"Medication","dueDate":"2026-08-17",
		   "recurrence":{"enabled":true,"pattern":"daily"}}]`)

	res := New(opts, nil).Triage(noon)
	if len(res.Ranked) != 7 {
		t.Fatalf("got %d instances, want 7 over the default horizon", len(res.Ranked))
	}
	if res.Ranked[0].Item.ID != "med@2026-08-17" {
		t.Errorf("top instance = %q", res.Ranked[0].Item.ID)
	}
}

func TestUpdatedAt(t *testing.T) {
	at := time.Date(2026, time.August, 17, 6, 30, 0, 0, time.UTC)
	a := New(testOpts, stubFeed{at: at})
	if !a.UpdatedAt().Equal(at) {
		t.Errorf("UpdatedAt = %v, want %v", a.UpdatedAt(), at)
	}
	if got := New(testOpts, nil).UpdatedAt(); !got.IsZero() {
		t.Errorf("without feeds UpdatedAt = %v, want zero", got)
	}
}
