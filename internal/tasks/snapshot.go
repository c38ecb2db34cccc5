// Package tasks reads the task snapshot the surrounding application
// maintains and materializes recurring tasks into concrete per-day
// instances. The snapshot is an input interface only; daygrid never writes
// it back.
package tasks

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/uuid"

	appLog "daygrid/internal/log"
	"daygrid/internal/model"
)

// rawTask mirrors one snapshot record. Field names follow the application's
// JSON, so a snapshot is a straight export of its task collection.
type rawTask struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	DueDate         model.Date     `json:"dueDate"`
	DueTime         string         `json:"dueTime"`
	DurationMinutes int            `json:"durationMinutes"`
	Kind            string         `json:"kind"`
	Priority        string         `json:"priority"`
	Status          string         `json:"status"`
	Tags            []string       `json:"tags"`
	Recurrence      *rawRecurrence `json:"recurrence"`
}

type rawRecurrence struct {
	Enabled             bool       `json:"enabled"`
	Pattern             string     `json:"pattern"`
	Interval            int        `json:"interval"`
	DaysOfWeek          []int      `json:"daysOfWeek"`
	EndDate             model.Date `json:"endDate"`
	EndAfterOccurrences int        `json:"endAfterOccurrences"`
}

// Load reads the snapshot at path. Both layouts are accepted: a bare array
// of tasks, or an object with a "tasks" key. A missing file is an empty
// task set, not an error, since the application may simply not have
// exported yet.
//
// Records degrade instead of failing the load: a deleted task is dropped,
// a missing id is filled with a fresh UUID, and a malformed due time is
// logged and treated as absent, which routes the task to the all-day lane
// rather than inventing a start time for it.
func Load(path string) ([]model.Item, error) {
	if path == "" {
		return nil, errors.New("snapshot path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Debug("task snapshot not found, treating as empty", "path", path)
			return nil, nil
		}
		return nil, err
	}

	raws, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("task snapshot %s: %w", path, err)
	}

	items := make([]model.Item, 0, len(raws))
	for _, r := range raws {
		it, keep := itemFromRaw(r)
		if keep {
			items = append(items, it)
		}
	}

	appLog.Debug("task snapshot loaded", "path", path, "tasks", len(items))
	return items, nil
}

func decode(data []byte) ([]rawTask, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var raws []rawTask
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, err
		}
		return raws, nil
	}

	var snap struct {
		Tasks []rawTask `json:"tasks"`
	}
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return nil, err
	}
	return snap.Tasks, nil
}

func itemFromRaw(r rawTask) (model.Item, bool) {
	status := model.ParseStatus(r.Status)
	if status == model.StatusDeleted {
		return model.Item{}, false
	}

	it := model.Item{
		ID:              r.ID,
		Title:           r.Title,
		Date:            r.DueDate,
		DurationMinutes: r.DurationMinutes,
		Kind:            model.KindTask,
		Priority:        model.ParsePriority(r.Priority),
		Status:          status,
		Tags:            r.Tags,
		Source:          "tasks",
	}
	if r.Kind == string(model.KindEvent) {
		it.Kind = model.KindEvent
	}

	if it.ID == "" {
		it.ID = uuid.NewString()
		appLog.Debug("task without id, generated one", "id", it.ID, "title", it.Title)
	}

	if r.DueTime != "" {
		c, err := model.ParseClock(r.DueTime)
		if err != nil {
			appLog.Error("task has malformed due time, treating as all-day", err,
				"id", it.ID, "due_time", r.DueTime)
		} else {
			it.Time = &c
		}
	}

	if r.Recurrence != nil && r.Recurrence.Enabled {
		it.Recurrence = &model.Recurrence{
			Enabled:    true,
			Pattern:    r.Recurrence.Pattern,
			Interval:   r.Recurrence.Interval,
			DaysOfWeek: r.Recurrence.DaysOfWeek,
			Until:      r.Recurrence.EndDate,
			Count:      r.Recurrence.EndAfterOccurrences,
		}
	}

	return it, true
}
