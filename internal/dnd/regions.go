package dnd

import (
	"github.com/robby/gridboard/internal/domain"
)

// Point is a position in terminal cells.
type Point struct {
	X int
	Y int
}

// Rect is an axis-aligned region in terminal cells.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Registry maps cell identifiers to their on-screen regions. The renderer
// replaces its contents on every layout pass; the controller queries it by
// identifier or by coordinate. It is not safe for concurrent use.
type Registry struct {
	regions map[domain.CellKey]Rect
	order   []domain.CellKey // registration order, for deterministic hit-tests
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{regions: make(map[domain.CellKey]Rect)}
}

// Set registers or moves the region of one cell.
func (r *Registry) Set(key domain.CellKey, rect Rect) {
	if _, ok := r.regions[key]; !ok {
		r.order = append(r.order, key)
	}
	r.regions[key] = rect
}

// Replace swaps the whole registry for a fresh layout. Keys are registered
// in the order given.
func (r *Registry) Replace(keys []domain.CellKey, rects []Rect) {
	r.Clear()
	for i, key := range keys {
		if i < len(rects) {
			r.Set(key, rects[i])
		}
	}
}

// Clear removes every region.
func (r *Registry) Clear() {
	r.regions = make(map[domain.CellKey]Rect)
	r.order = r.order[:0]
}

// Region returns the region registered for key.
func (r *Registry) Region(key domain.CellKey) (Rect, bool) {
	rect, ok := r.regions[key]
	return rect, ok
}

// Has reports whether key has a registered region.
func (r *Registry) Has(key domain.CellKey) bool {
	_, ok := r.regions[key]
	return ok
}

// HitTest returns the cell whose region contains p. When regions overlap
// the one registered first wins.
func (r *Registry) HitTest(p Point) (domain.CellKey, bool) {
	for _, key := range r.order {
		if r.regions[key].Contains(p) {
			return key, true
		}
	}
	return domain.CellKey{}, false
}

// Len returns the number of registered regions.
func (r *Registry) Len() int {
	return len(r.regions)
}
