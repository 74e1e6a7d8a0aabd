// Package virtual computes which slice of a long list intersects a viewport,
// so a renderer only materializes the visible items plus an overscan margin.
// Rendering cost stays independent of the list length.
package virtual

import (
	"sort"
)

// Params describes one list and its viewport. All values are in the same
// unit (terminal rows for the board).
type Params struct {
	Count     int   // Number of items in the list
	Viewport  int   // Visible height
	ItemSize  int   // Fixed per-item size estimate; ignored when Sizes is set
	Overscan  int   // Extra items rendered beyond each viewport edge
	ScrollTop int   // Offset of the viewport's top edge
	Sizes     []int // Measured per-item sizes (variable-height mode)
}

// Window is the contiguous index range [Lo, Hi] to materialize.
// An empty window has Lo = 0 and Hi = -1.
type Window struct {
	Lo     int
	Hi     int
	Extent int // Total scrollable size of the whole list

	itemSize int
	prefix   []int // prefix[i] = start offset of item i (variable mode)
}

// Len returns the number of materialized items.
func (w Window) Len() int {
	if w.Hi < w.Lo {
		return 0
	}
	return w.Hi - w.Lo + 1
}

// Empty reports whether nothing should be rendered.
func (w Window) Empty() bool {
	return w.Len() == 0
}

// Contains reports whether index i is materialized.
func (w Window) Contains(i int) bool {
	return i >= w.Lo && i <= w.Hi
}

// Indices returns the materialized indices in order.
func (w Window) Indices() []int {
	out := make([]int, 0, w.Len())
	for i := w.Lo; i <= w.Hi; i++ {
		out = append(out, i)
	}
	return out
}

// Offset returns the absolute start position of item i.
func (w Window) Offset(i int) int {
	if w.prefix != nil {
		if i < 0 {
			return 0
		}
		if i >= len(w.prefix) {
			return w.Extent
		}
		return w.prefix[i]
	}
	return i * w.itemSize
}

// Compute returns the window for p. Out of range inputs are clamped: a
// negative scroll is treated as zero and a non-positive item size as one.
//
// Every item intersecting [ScrollTop, ScrollTop+Viewport) is included for
// any ScrollTop. The window holds at most ceil(Viewport/ItemSize)+2*Overscan
// items when ScrollTop is a multiple of ItemSize, and one more otherwise.
func Compute(p Params) Window {
	if p.Sizes != nil {
		return computeVariable(p)
	}

	size := p.ItemSize
	if size < 1 {
		size = 1
	}
	w := Window{Lo: 0, Hi: -1, Extent: p.Count * size, itemSize: size}
	if p.Count <= 0 || p.Viewport <= 0 {
		return w
	}

	top := p.ScrollTop
	if top < 0 {
		top = 0
	}
	overscan := max(p.Overscan, 0)

	first := top / size
	last := ceilDiv(top+p.Viewport, size) - 1
	visible := ceilDiv(p.Viewport, size)

	w.Lo = max(0, first-overscan)
	w.Hi = min(p.Count-1, last+overscan)
	if w.Lo > w.Hi {
		// Scrolled past the end: keep the tail in view
		w.Lo = max(0, p.Count-visible-overscan)
		w.Hi = p.Count - 1
	}
	return w
}

// computeVariable handles measured per-item sizes using prefix sums and a
// binary search for the first and last intersecting items.
func computeVariable(p Params) Window {
	count := min(p.Count, len(p.Sizes))
	if count < 0 {
		count = 0
	}

	prefix := make([]int, count+1)
	for i := 0; i < count; i++ {
		size := p.Sizes[i]
		if size < 0 {
			size = 0
		}
		prefix[i+1] = prefix[i] + size
	}

	w := Window{Lo: 0, Hi: -1, Extent: prefix[count], prefix: prefix}
	if count == 0 || p.Viewport <= 0 {
		return w
	}

	top := max(p.ScrollTop, 0)
	bottom := top + p.Viewport
	overscan := max(p.Overscan, 0)

	// First item whose end lies below the viewport top
	first := sort.Search(count, func(i int) bool { return prefix[i+1] > top })
	// First item that starts at or below the viewport bottom
	end := sort.Search(count, func(i int) bool { return prefix[i] >= bottom })
	last := end - 1

	if first >= count {
		first, last = count-1, count-1
	}
	if last < first {
		last = first
	}

	w.Lo = max(0, first-overscan)
	w.Hi = min(count-1, last+overscan)
	return w
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
