// Package procset compresses sets of host ids into sorted closed intervals,
// printed as space-separated ranges: {0,1,2,3,5} is "0-3 5".
package procset

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Interval is the closed range [Lo, Hi].
type Interval struct {
	Lo, Hi int
}

func (iv Interval) String() string {
	if iv.Lo == iv.Hi {
		return strconv.Itoa(iv.Lo)
	}
	return fmt.Sprintf("%d-%d", iv.Lo, iv.Hi)
}

// Set is an immutable set of non-negative ids. The zero value is the empty set.
type Set struct {
	intervals []Interval // sorted, disjoint, non-adjacent
}

// New returns the set of the given ids. Duplicates are ignored.
func New(ids ...int) Set {
	if len(ids) == 0 {
		return Set{}
	}
	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	var out []Interval
	for _, id := range sorted {
		if n := len(out); n > 0 && id <= out[n-1].Hi+1 {
			out[n-1].Hi = max(out[n-1].Hi, id)
			continue
		}
		out = append(out, Interval{Lo: id, Hi: id})
	}
	return Set{intervals: out}
}

// Parse reads the format produced by String. The empty string is the empty set.
func Parse(s string) (Set, error) {
	var ivs []Interval
	for _, field := range strings.Fields(s) {
		lo, hi, isRange := strings.Cut(field, "-")
		a, err := strconv.Atoi(lo)
		if err != nil {
			return Set{}, fmt.Errorf("parsing %q: %w", field, err)
		}
		b := a
		if isRange {
			if b, err = strconv.Atoi(hi); err != nil {
				return Set{}, fmt.Errorf("parsing %q: %w", field, err)
			}
		}
		if a < 0 || b < a {
			return Set{}, fmt.Errorf("parsing %q: invalid interval", field)
		}
		ivs = append(ivs, Interval{Lo: a, Hi: b})
	}
	return fromIntervals(ivs), nil
}

// Union returns the ids present in s or other.
func (s Set) Union(other Set) Set {
	all := make([]Interval, 0, len(s.intervals)+len(other.intervals))
	all = append(all, s.intervals...)
	all = append(all, other.intervals...)
	return fromIntervals(all)
}

// Insert returns s with ids added.
func (s Set) Insert(ids ...int) Set {
	return s.Union(New(ids...))
}

// Contains reports whether id is in s.
func (s Set) Contains(id int) bool {
	i, found := slices.BinarySearchFunc(s.intervals, id, func(iv Interval, target int) int {
		switch {
		case iv.Hi < target:
			return -1
		case iv.Lo > target:
			return 1
		}
		return 0
	})
	return found && i < len(s.intervals)
}

// Len returns the number of ids in s.
func (s Set) Len() int {
	n := 0
	for _, iv := range s.intervals {
		n += iv.Hi - iv.Lo + 1
	}
	return n
}

// IsEmpty reports whether s has no ids.
func (s Set) IsEmpty() bool { return len(s.intervals) == 0 }

// Intervals returns a copy of the merged intervals in ascending order.
func (s Set) Intervals() []Interval { return slices.Clone(s.intervals) }

// IDs expands s into its ids in ascending order.
func (s Set) IDs() []int {
	out := make([]int, 0, s.Len())
	for _, iv := range s.intervals {
		for id := iv.Lo; id <= iv.Hi; id++ {
			out = append(out, id)
		}
	}
	return out
}

func (s Set) String() string {
	parts := make([]string, len(s.intervals))
	for i, iv := range s.intervals {
		parts[i] = iv.String()
	}
	return strings.Join(parts, " ")
}

// fromIntervals sorts and merges overlapping or adjacent intervals.
func fromIntervals(ivs []Interval) Set {
	if len(ivs) == 0 {
		return Set{}
	}
	sorted := slices.Clone(ivs)
	slices.SortFunc(sorted, func(a, b Interval) int { return a.Lo - b.Lo })

	out := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if iv.Lo <= last.Hi+1 {
			last.Hi = max(last.Hi, iv.Hi)
			continue
		}
		out = append(out, iv)
	}
	return Set{intervals: out}
}
