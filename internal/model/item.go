package model

// Kind distinguishes user tasks from imported calendar events. The two mix
// freely on the day timeline but carry different defaults.
type Kind string

const (
	KindTask  Kind = "task"
	KindEvent Kind = "event"
)

// Priority is the four-step importance scale.
type Priority string

const (
	PriorityNone   Priority = "none"
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Level maps a priority onto the 0-3 scale used for comparisons and
// scoring. Unknown values rank as none.
func (p Priority) Level() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// ParsePriority normalizes a priority string; unknown input maps to none.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s)
	default:
		return PriorityNone
	}
}

// Status is the task lifecycle state.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
	StatusDeleted    Status = "deleted"
)

// Closed reports whether the item has left the active pipeline.
func (s Status) Closed() bool {
	return s == StatusCompleted || s == StatusSkipped || s == StatusDeleted
}

// ParseStatus normalizes a status string; unknown input maps to todo.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusSkipped, StatusDeleted:
		return Status(s)
	default:
		return StatusTodo
	}
}

// Recurrence patterns.
const (
	RecurDaily   = "daily"
	RecurWeekly  = "weekly"
	RecurMonthly = "monthly"
	RecurYearly  = "yearly"
)

// Recurrence describes how a task repeats. DaysOfWeek uses time.Weekday
// numbering (0 = Sunday) and only applies to weekly patterns. Until and
// Count are alternative stop conditions; zero values mean "no limit".
type Recurrence struct {
	Enabled    bool   `json:"enabled"`
	Pattern    string `json:"pattern"`
	Interval   int    `json:"interval,omitempty"`
	DaysOfWeek []int  `json:"days_of_week,omitempty"`
	Until      Date   `json:"until,omitempty"`
	Count      int    `json:"count,omitempty"`
}

// Item is one schedulable record: a task from the snapshot or a single
// occurrence of an imported calendar event. Layout and classification both
// operate on this shape.
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// Date is the day the item belongs to. The zero Date means the item is
	// undated and only appears in triage views, never on a timeline.
	Date Date `json:"date"`

	// Time is the wall-clock start. nil means all-day (or untimed), which
	// routes the item to the day's all-day lane.
	Time *Clock `json:"time,omitempty"`

	// DurationMinutes is the planned length. Zero means "use the kind
	// default" (events run longer than tasks by default).
	DurationMinutes int `json:"duration_minutes,omitempty"`

	Kind     Kind     `json:"kind"`
	Priority Priority `json:"priority,omitempty"`
	Status   Status   `json:"status,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	// Source identifies where the item came from: "tasks" for the snapshot
	// or the feed id for imported events.
	Source string `json:"source,omitempty"`

	Recurrence *Recurrence `json:"recurrence,omitempty"`
}

// Timed reports whether the item has a concrete start time.
func (it Item) Timed() bool {
	return it.Time != nil
}

// Recurring reports whether the item carries an active recurrence rule.
func (it Item) Recurring() bool {
	return it.Recurrence != nil && it.Recurrence.Enabled
}
