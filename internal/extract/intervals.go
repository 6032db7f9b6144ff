package extract

import "sort"

// Interval is a half-open [Start, End) character range.
type Interval struct {
	Start int
	End   int
}

// IntervalSet tracks consumed character ranges during a single table scan.
// It is a value threaded through (and returned from) the scanning functions,
// never shared between extraction calls, so consumed ranges can be asserted
// on directly in tests.
type IntervalSet struct {
	spans []Interval
}

// Add returns a new set that also covers [start, end).
func (s IntervalSet) Add(start, end int) IntervalSet {
	spans := make([]Interval, len(s.spans), len(s.spans)+1)
	copy(spans, s.spans)
	spans = append(spans, Interval{Start: start, End: end})
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return IntervalSet{spans: spans}
}

// Overlaps reports whether [start, end) intersects any covered range.
func (s IntervalSet) Overlaps(start, end int) bool {
	for _, sp := range s.spans {
		if start < sp.End && sp.Start < end {
			return true
		}
	}
	return false
}

// Spans returns the covered ranges in ascending order.
func (s IntervalSet) Spans() []Interval {
	out := make([]Interval, len(s.spans))
	copy(out, s.spans)
	return out
}

// Len returns the number of covered ranges.
func (s IntervalSet) Len() int { return len(s.spans) }
