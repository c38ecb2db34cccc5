package layout

import "sort"

// Group partitions intervals into maximal transitive-overlap components:
// A overlapping B and B overlapping C puts all three in one group even when
// A and C never touch. Groups are what the packer divides into columns; two
// items in different groups can always use the full day width.
//
// The partition is independent of input order. Groups come back ordered by
// their earliest start, members in input order.
func Group(intervals []Interval) [][]Interval {
	n := len(intervals)
	if n == 0 {
		return nil
	}

	// Disjoint-set over interval indexes.
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	// Sweep in start order. A component is a run of intervals where each
	// start falls before the furthest end seen so far; once a start clears
	// that end, a new component begins.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return intervals[order[a]].Start < intervals[order[b]].Start
	})

	chainEnd := intervals[order[0]].End
	for k := 1; k < n; k++ {
		iv := intervals[order[k]]
		if iv.Start < chainEnd {
			union(order[k-1], order[k])
			if iv.End > chainEnd {
				chainEnd = iv.End
			}
		} else {
			chainEnd = iv.End
		}
	}

	// Collect members per root, keeping input order within each group and
	// first-start order across groups.
	groupOf := make(map[int]int, n)
	var groups [][]Interval
	for _, idx := range order {
		root := find(idx)
		if _, seen := groupOf[root]; !seen {
			groupOf[root] = len(groups)
			groups = append(groups, nil)
		}
	}
	for i := 0; i < n; i++ {
		g := groupOf[find(i)]
		groups[g] = append(groups[g], intervals[i])
	}

	return groups
}
