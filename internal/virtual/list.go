package virtual

import "slices"

// List tracks the scroll position of one cell's list and memoizes its
// window. The window is recomputed only when the item count, the viewport,
// the sizes or the scroll position change. A List is owned by a single
// renderer and is not safe for concurrent use.
type List struct {
	count     int
	viewport  int
	itemSize  int
	overscan  int
	sizes     []int
	scrollTop int

	window   Window
	valid    bool
	computes int
}

// NewList creates a fixed-size list tracker.
func NewList(itemSize, overscan int) *List {
	if itemSize < 1 {
		itemSize = 1
	}
	return &List{itemSize: itemSize, overscan: max(overscan, 0)}
}

// SetCount updates the number of items. Removing items clamps the scroll
// position so the viewport never points past the end.
func (l *List) SetCount(n int) {
	n = max(n, 0)
	if n == l.count {
		return
	}
	l.count = n
	l.invalidate()
	l.clamp()
}

// SetViewport updates the visible height.
func (l *List) SetViewport(h int) {
	h = max(h, 0)
	if h == l.viewport {
		return
	}
	l.viewport = h
	l.invalidate()
	l.clamp()
}

// SetSizes switches the list to variable-height mode with measured sizes.
// Passing nil returns it to fixed-size mode.
func (l *List) SetSizes(sizes []int) {
	if slices.Equal(sizes, l.sizes) && (sizes == nil) == (l.sizes == nil) {
		return
	}
	l.sizes = slices.Clone(sizes)
	l.invalidate()
	l.clamp()
}

// ScrollTop returns the current scroll offset.
func (l *List) ScrollTop() int {
	return l.scrollTop
}

// ScrollTo moves the viewport top to offset, clamped to the scrollable range.
func (l *List) ScrollTo(offset int) {
	prev := l.scrollTop
	l.scrollTop = offset
	l.clamp()
	if l.scrollTop != prev {
		l.invalidate()
	}
}

// ScrollBy moves the viewport by delta items.
func (l *List) ScrollBy(delta int) {
	if l.sizes != nil {
		w := l.Window()
		first := w.Lo
		// Step from the first fully visible item rather than the overscan edge
		for first < l.count-1 && w.Offset(first+1) <= l.scrollTop {
			first++
		}
		target := min(max(first+delta, 0), max(l.count-1, 0))
		l.ScrollTo(w.Offset(target))
		return
	}
	l.ScrollTo(l.scrollTop + delta*l.itemSize)
}

// EnsureVisible scrolls the minimum amount needed to show item i entirely.
func (l *List) EnsureVisible(i int) {
	if i < 0 || i >= l.count {
		return
	}
	w := l.Window()
	start := w.Offset(i)
	end := w.Offset(i + 1)

	switch {
	case start < l.scrollTop:
		l.ScrollTo(start)
	case end > l.scrollTop+l.viewport:
		l.ScrollTo(end - l.viewport)
	}
}

// Window returns the current window, recomputing it if anything changed.
func (l *List) Window() Window {
	if l.valid {
		return l.window
	}
	l.window = Compute(l.params())
	l.valid = true
	l.computes++
	return l.window
}

// Computes returns how many times the window has been recomputed.
func (l *List) Computes() int {
	return l.computes
}

// Count returns the tracked item count.
func (l *List) Count() int {
	return l.count
}

func (l *List) params() Params {
	return Params{
		Count:     l.count,
		Viewport:  l.viewport,
		ItemSize:  l.itemSize,
		Overscan:  l.overscan,
		ScrollTop: l.scrollTop,
		Sizes:     l.sizes,
	}
}

func (l *List) invalidate() {
	l.valid = false
}

// clamp keeps scrollTop within [0, extent-viewport] and, in fixed mode,
// on an item boundary.
func (l *List) clamp() {
	extent := l.count * l.itemSize
	if l.sizes != nil {
		extent = 0
		for i := 0; i < l.count && i < len(l.sizes); i++ {
			extent += max(l.sizes[i], 0)
		}
	}

	maxTop := max(extent-l.viewport, 0)
	top := min(max(l.scrollTop, 0), maxTop)
	if l.sizes == nil && top%l.itemSize != 0 {
		if top == maxTop {
			// Round up so the last item is fully visible
			top += l.itemSize - top%l.itemSize
		} else {
			top -= top % l.itemSize
		}
	}
	if top != l.scrollTop {
		l.scrollTop = top
		l.invalidate()
	}
}
