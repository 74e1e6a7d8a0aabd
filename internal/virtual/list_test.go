package virtual

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestList(count, viewport int) *List {
	l := NewList(1, 2)
	l.SetCount(count)
	l.SetViewport(viewport)
	return l
}

func TestList_Memoizes(t *testing.T) {
	l := newTestList(1000, 10)

	first := l.Window()
	second := l.Window()
	assert.Equal(t, first, second)
	assert.Equal(t, 1, l.Computes())

	// Same values do not invalidate
	l.SetCount(1000)
	l.SetViewport(10)
	l.ScrollTo(0)
	l.Window()
	assert.Equal(t, 1, l.Computes())
}

func TestList_RecomputesOnScroll(t *testing.T) {
	l := newTestList(1000, 10)
	l.Window()

	l.ScrollBy(5)
	w := l.Window()
	assert.Equal(t, 2, l.Computes())
	assert.Equal(t, 5, l.ScrollTop())
	assert.Equal(t, 3, w.Lo)
	assert.Equal(t, 16, w.Hi)
}

func TestList_RecomputesOnCountChange(t *testing.T) {
	l := newTestList(1000, 10)
	l.ScrollTo(995)
	assert.Equal(t, 990, l.ScrollTop(), "scroll clamps to extent - viewport")

	// Shrinking the list pulls the viewport back into range
	l.SetCount(4)
	assert.Equal(t, 0, l.ScrollTop())
	w := l.Window()
	assert.Equal(t, 0, w.Lo)
	assert.Equal(t, 3, w.Hi)

	l.SetCount(0)
	assert.True(t, l.Window().Empty())
}

func TestList_EnsureVisible(t *testing.T) {
	l := newTestList(100, 10)

	l.EnsureVisible(25)
	assert.Equal(t, 16, l.ScrollTop(), "scrolls down just enough")

	l.EnsureVisible(20)
	assert.Equal(t, 16, l.ScrollTop(), "already visible")

	l.EnsureVisible(3)
	assert.Equal(t, 3, l.ScrollTop(), "scrolls up to the item")

	l.EnsureVisible(500)
	assert.Equal(t, 3, l.ScrollTop(), "out of range is ignored")
}

func TestList_FixedSnapsToItems(t *testing.T) {
	l := NewList(3, 0)
	l.SetCount(10)
	l.SetViewport(5)

	l.ScrollTo(7)
	assert.Equal(t, 6, l.ScrollTop())

	// Bottom of the list rounds up so the last item is whole
	l.ScrollTo(1000)
	assert.Equal(t, 27, l.ScrollTop())
	assert.True(t, l.Window().Contains(9))
}

func TestList_Variable(t *testing.T) {
	l := NewList(1, 0)
	l.SetCount(4)
	l.SetViewport(3)
	l.SetSizes([]int{2, 2, 2, 2})

	l.ScrollBy(1)
	assert.Equal(t, 2, l.ScrollTop())

	l.ScrollBy(10)
	assert.Equal(t, 5, l.ScrollTop(), "clamped to extent - viewport")

	l.EnsureVisible(0)
	assert.Equal(t, 0, l.ScrollTop())
}
