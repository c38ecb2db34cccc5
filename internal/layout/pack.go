package layout

import (
	"sort"

	"daygrid/internal/model"
)

// Packed is an interval with its assigned column inside an overlap group.
type Packed struct {
	Interval
	Column int
}

// Pack assigns the members of one overlap group to columns. Members are
// swept by start time (shorter first on equal starts, tasks before events,
// then input order) and each takes the lowest-numbered column whose last
// occupant has already ended, opening a new column only when none is free.
//
// The returned count is the group's column total: every member of the group
// shares it, so side-by-side blocks split the day width evenly even when
// only part of the group is crowded.
func Pack(group []Interval) ([]Packed, int) {
	if len(group) == 0 {
		return nil, 0
	}

	sorted := append([]Interval(nil), group...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		da, db := a.End-a.Start, b.End-b.Start
		if da != db {
			return da < db
		}
		if a.Kind != b.Kind {
			return a.Kind == model.KindTask
		}
		return false
	})

	// columnEnds[c] is the end minute of the latest interval placed in c.
	var columnEnds []int
	packed := make([]Packed, 0, len(sorted))

	for _, iv := range sorted {
		column := -1
		for c, end := range columnEnds {
			if end <= iv.Start {
				column = c
				break
			}
		}
		if column == -1 {
			column = len(columnEnds)
			columnEnds = append(columnEnds, 0)
		}
		columnEnds[column] = iv.End
		packed = append(packed, Packed{Interval: iv, Column: column})
	}

	return packed, len(columnEnds)
}
