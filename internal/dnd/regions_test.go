package dnd

import (
	"testing"

	"github.com/robby/gridboard/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRect_Contains(t *testing.T) {
	r := Rect{X: 2, Y: 3, W: 4, H: 2}

	assert.True(t, r.Contains(Point{X: 2, Y: 3}))
	assert.True(t, r.Contains(Point{X: 5, Y: 4}))
	assert.False(t, r.Contains(Point{X: 6, Y: 4}), "right edge is exclusive")
	assert.False(t, r.Contains(Point{X: 2, Y: 5}), "bottom edge is exclusive")
	assert.False(t, Rect{}.Contains(Point{}), "empty rect contains nothing")
}

func TestRegistry_HitTest(t *testing.T) {
	a := domain.CellKey{ColumnID: "todo", SwimLaneID: "frontend"}
	b := domain.CellKey{ColumnID: "done", SwimLaneID: "frontend"}

	reg := NewRegistry()
	reg.Set(a, Rect{X: 0, Y: 0, W: 10, H: 4})
	reg.Set(b, Rect{X: 5, Y: 0, W: 10, H: 4})

	key, ok := reg.HitTest(Point{X: 1, Y: 1})
	assert.True(t, ok)
	assert.Equal(t, a, key)

	key, ok = reg.HitTest(Point{X: 7, Y: 1})
	assert.True(t, ok)
	assert.Equal(t, a, key, "first registered wins on overlap")

	key, ok = reg.HitTest(Point{X: 12, Y: 1})
	assert.True(t, ok)
	assert.Equal(t, b, key)

	_, ok = reg.HitTest(Point{X: 12, Y: 9})
	assert.False(t, ok)
}

func TestRegistry_Replace(t *testing.T) {
	a := domain.CellKey{ColumnID: "todo", SwimLaneID: "frontend"}
	b := domain.CellKey{ColumnID: "done", SwimLaneID: "frontend"}

	reg := NewRegistry()
	reg.Set(a, Rect{W: 1, H: 1})
	reg.Set(a, Rect{X: 3, W: 1, H: 1})
	assert.Equal(t, 1, reg.Len(), "re-setting moves the region")

	rect, ok := reg.Region(a)
	assert.True(t, ok)
	assert.Equal(t, 3, rect.X)

	reg.Replace([]domain.CellKey{b}, []Rect{{W: 2, H: 2}})
	assert.False(t, reg.Has(a))
	assert.True(t, reg.Has(b))
	assert.Equal(t, 1, reg.Len())

	reg.Clear()
	assert.Equal(t, 0, reg.Len())
	_, ok = reg.HitTest(Point{})
	assert.False(t, ok)
}
