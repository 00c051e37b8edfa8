// Package viewport decides which slice of a long list is materialized.
//
// Units are abstract: in the terminal widget a unit is one line, so an item
// height of 1 means one row per line. The calculator never looks at content.
package viewport

const (
	// DefaultBuffer is the number of extra rows kept above and below the view
	DefaultBuffer = 10
	// DefaultVirtualizeThreshold is the count at or below which every row is materialized
	DefaultVirtualizeThreshold = 100
	// DefaultScrollThreshold is the smallest offset change that recomputes the window
	DefaultScrollThreshold = 2
)

// Window is the half-open range [Start, End) of materialized rows
type Window struct {
	Start int
	End   int
}

// Len is the number of materialized rows
func (w Window) Len() int {
	if w.End < w.Start {
		return 0
	}
	return w.End - w.Start
}

// Contains reports whether row i is materialized
func (w Window) Contains(i int) bool {
	return i >= w.Start && i < w.End
}

// Covers reports whether every row of v is materialized
func (w Window) Covers(v Window) bool {
	if v.Len() == 0 {
		return true
	}
	return v.Start >= w.Start && v.End <= w.End
}

// MinCount is the number of rows needed to fill the container plus buffers
func MinCount(containerHeight, itemHeight, buffer int) int {
	if itemHeight <= 0 {
		itemHeight = 1
	}
	if containerHeight < 0 {
		containerHeight = 0
	}
	if buffer < 0 {
		buffer = 0
	}
	return ceilDiv(containerHeight, itemHeight) + 2*buffer
}

// Compute returns the materialized window for a scroll position.
//
//	start = max(0, floor(offset/itemHeight) - buffer)
//	end   = min(total, start + ceil(container/itemHeight) + 2*buffer)
//
// Near the end of the list start is pulled back so the window still holds
// the minimum count whenever the list is long enough.
func Compute(scrollOffset, containerHeight, itemHeight, totalCount, buffer int) Window {
	if totalCount <= 0 {
		return Window{}
	}
	if itemHeight <= 0 {
		itemHeight = 1
	}
	if scrollOffset < 0 {
		scrollOffset = 0
	}
	if buffer < 0 {
		buffer = 0
	}
	minCount := MinCount(containerHeight, itemHeight, buffer)

	start := scrollOffset/itemHeight - buffer
	if start < 0 {
		start = 0
	}
	if start > totalCount {
		start = totalCount
	}
	end := start + minCount
	if end > totalCount {
		end = totalCount
	}
	if end-start < minCount {
		start = end - minCount
		if start < 0 {
			start = 0
		}
	}
	return Window{Start: start, End: end}
}

// Visible returns the rows that physically intersect the container
func Visible(scrollOffset, containerHeight, itemHeight, totalCount int) Window {
	if totalCount <= 0 || containerHeight <= 0 {
		return Window{}
	}
	if itemHeight <= 0 {
		itemHeight = 1
	}
	if scrollOffset < 0 {
		scrollOffset = 0
	}
	start := scrollOffset / itemHeight
	end := ceilDiv(scrollOffset+containerHeight, itemHeight)
	if end > totalCount {
		end = totalCount
	}
	if start > end {
		start = end
	}
	return Window{Start: start, End: end}
}

// MaxOffset is the largest scroll offset that still fills the container
func MaxOffset(containerHeight, itemHeight, totalCount int) int {
	if itemHeight <= 0 {
		itemHeight = 1
	}
	m := totalCount*itemHeight - containerHeight
	if m < 0 {
		return 0
	}
	return m
}

// AdaptiveBuffer shrinks the configured buffer as the list grows so the
// number of simultaneously materialized rows stays bounded. A positive
// buffer never drops below 1.
func AdaptiveBuffer(buffer, totalCount int) int {
	if buffer <= 0 {
		return 0
	}
	b := buffer
	switch {
	case totalCount >= 50000:
		b = buffer / 4
	case totalCount >= 10000:
		b = buffer / 2
	case totalCount >= 1000:
		b = buffer * 3 / 4
	}
	if b < 1 {
		b = 1
	}
	return b
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
