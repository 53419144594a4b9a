// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package tsctlchunk splits a date span into bounded sub-ranges so that each
// remote query stays within acceptable size and latency limits.
package tsctlchunk

import (
	"iter"
	"slices"

	"github.com/bufdev/tsctl/internal/standard/xtime"
)

// DefaultSpanMonths is the default number of calendar months per chunk.
const DefaultSpanMonths = 2

// Range is a half-open date range [Start, End).
type Range struct {
	// Start is the first date of the range.
	Start xtime.Date
	// End is the first date after the range.
	End xtime.Date
}

// String returns the range as "start..end".
func (r Range) String() string {
	return r.Start.String() + ".." + r.End.String()
}

// Chunks returns the ranges covering [from, to), each spanning at most
// spanMonths calendar months. The last range is truncated at to.
//
// The ranges are contiguous: each End is the next Start. If from is not
// before to, the sequence is empty. A non-positive spanMonths uses
// DefaultSpanMonths.
//
// The sequence is computed lazily and may be iterated more than once.
func Chunks(from xtime.Date, to xtime.Date, spanMonths int) iter.Seq[Range] {
	if spanMonths <= 0 {
		spanMonths = DefaultSpanMonths
	}
	return func(yield func(Range) bool) {
		for current := from; current.Before(to); {
			end := current.AddMonths(spanMonths)
			if end.After(to) {
				end = to
			}
			if !yield(Range{Start: current, End: end}) {
				return
			}
			current = end
		}
	}
}

// Collect returns all ranges of Chunks as a slice.
func Collect(from xtime.Date, to xtime.Date, spanMonths int) []Range {
	return slices.Collect(Chunks(from, to, spanMonths))
}
