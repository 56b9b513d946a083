// Package viewport computes which items of a virtualized list must be
// materialized for a given scroll position. Pure arithmetic, no cache or
// network interaction.
package viewport

// Window is the derived render window. StartIndex and EndIndex are valid
// slice bounds into [0, totalCount]; OffsetExtent is the leading extent to
// pad before the first rendered item.
type Window struct {
	StartIndex   int
	EndIndex     int
	OffsetExtent float64
}

// Compute returns the window of item indices that could intersect the
// viewport at the given scroll offset, padded by overscan items on each
// side and clamped to [0, totalCount]. O(1) and side-effect-free.
func Compute(totalCount int, itemExtent, viewportExtent, scrollOffset float64, overscan int) Window {
	if totalCount <= 0 || itemExtent <= 0 {
		return Window{}
	}
	if scrollOffset < 0 {
		scrollOffset = 0
	}
	if overscan < 0 {
		overscan = 0
	}

	visible := int(ceilDiv(viewportExtent, itemExtent))

	start := int(scrollOffset/itemExtent) - overscan
	if start < 0 {
		start = 0
	}
	if start > totalCount {
		start = totalCount
	}

	end := start + visible + 2*overscan
	if end > totalCount {
		end = totalCount
	}

	return Window{
		StartIndex:   start,
		EndIndex:     end,
		OffsetExtent: float64(start) * itemExtent,
	}
}

// ceilDiv returns ceil(a/b) for positive b without importing math.
func ceilDiv(a, b float64) float64 {
	n := int(a / b)
	if float64(n)*b < a {
		n++
	}
	return float64(n)
}
