// Package collapse tracks which columns and swim lanes are collapsed and
// derives layout dimensions from that state.
//
// State is single-writer: it is mutated only from the UI event loop and is
// not safe for concurrent use. Every toggle produces a new immutable Snapshot
// and notifies subscribers, so renderers never observe a half-applied change.
package collapse

import (
	"sort"
)

// Snapshot is an immutable view of the collapse state.
type Snapshot struct {
	columns map[string]struct{}
	lanes   map[string]struct{}
}

// IsColumnCollapsed reports whether the column is collapsed.
func (s Snapshot) IsColumnCollapsed(id string) bool {
	_, ok := s.columns[id]
	return ok
}

// IsLaneCollapsed reports whether the swim lane is collapsed.
func (s Snapshot) IsLaneCollapsed(id string) bool {
	_, ok := s.lanes[id]
	return ok
}

// CollapsedColumns returns the collapsed column ids, sorted.
func (s Snapshot) CollapsedColumns() []string {
	return sortedKeys(s.columns)
}

// CollapsedLanes returns the collapsed swim lane ids, sorted.
func (s Snapshot) CollapsedLanes() []string {
	return sortedKeys(s.lanes)
}

// ComputeColumnWidth returns the rendered width of one column.
// Collapsed columns get collapsedWidth. Expanded columns split what is left
// evenly; the result is zero when nothing is expanded and never negative.
func (s Snapshot) ComputeColumnWidth(id string, columnIDs []string, availableWidth, collapsedWidth float64) float64 {
	if s.IsColumnCollapsed(id) {
		return collapsedWidth
	}

	collapsedCount, expandedCount := s.countColumns(columnIDs)
	if expandedCount == 0 {
		return 0
	}

	width := (availableWidth - float64(collapsedCount)*collapsedWidth) / float64(expandedCount)
	if width < 0 {
		return 0
	}
	return width
}

// ColumnWidths returns integer widths for the columns in order, for
// renderers working in terminal cells. Expanded columns share the space left
// after collapsed ones; the remainder goes one cell at a time to the leftmost
// expanded columns, so the widths sum to availableWidth whenever at least one
// column is expanded and the collapsed columns fit.
func (s Snapshot) ColumnWidths(columnIDs []string, availableWidth, collapsedWidth int) []int {
	widths := make([]int, len(columnIDs))

	collapsedCount, expandedCount := s.countColumns(columnIDs)
	remaining := availableWidth - collapsedCount*collapsedWidth
	if remaining < 0 {
		remaining = 0
	}

	base, extra := 0, 0
	if expandedCount > 0 {
		base = remaining / expandedCount
		extra = remaining % expandedCount
	}

	for i, id := range columnIDs {
		if s.IsColumnCollapsed(id) {
			widths[i] = collapsedWidth
			continue
		}
		widths[i] = base
		if extra > 0 {
			widths[i]++
			extra--
		}
	}
	return widths
}

// LaneHeight returns the rendered height of a swim lane row.
func (s Snapshot) LaneHeight(id string, expandedHeight, compactHeight int) int {
	if s.IsLaneCollapsed(id) {
		return compactHeight
	}
	return expandedHeight
}

// countColumns splits columnIDs into collapsed and expanded counts.
func (s Snapshot) countColumns(columnIDs []string) (collapsed, expanded int) {
	for _, id := range columnIDs {
		if s.IsColumnCollapsed(id) {
			collapsed++
		} else {
			expanded++
		}
	}
	return collapsed, expanded
}

// State owns the collapse sets for the lifetime of a mounted view.
type State struct {
	snap Snapshot

	subscribers map[int]func(Snapshot)
	order       []int
	nextID      int
}

// New creates a State with nothing collapsed.
func New() *State {
	return &State{
		snap:        Snapshot{},
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current immutable snapshot.
func (s *State) Snapshot() Snapshot {
	return s.snap
}

// IsColumnCollapsed reports whether the column is collapsed.
func (s *State) IsColumnCollapsed(id string) bool {
	return s.snap.IsColumnCollapsed(id)
}

// IsLaneCollapsed reports whether the swim lane is collapsed.
func (s *State) IsLaneCollapsed(id string) bool {
	return s.snap.IsLaneCollapsed(id)
}

// ToggleColumn flips the column's membership in the collapsed set.
func (s *State) ToggleColumn(id string) Snapshot {
	s.snap = Snapshot{
		columns: toggled(s.snap.columns, id),
		lanes:   s.snap.lanes,
	}
	s.notify()
	return s.snap
}

// ToggleSwimLane flips the lane's membership in the collapsed set.
func (s *State) ToggleSwimLane(id string) Snapshot {
	s.snap = Snapshot{
		columns: s.snap.columns,
		lanes:   toggled(s.snap.lanes, id),
	}
	s.notify()
	return s.snap
}

// Reset expands everything. It is called when the hosting view is torn down.
func (s *State) Reset() {
	s.snap = Snapshot{}
	s.notify()
}

// Subscribe registers fn to receive every new snapshot. Subscribers are
// called in registration order. The returned func removes the subscription.
func (s *State) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.order = append(s.order, id)

	return func() {
		delete(s.subscribers, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

func (s *State) notify() {
	for _, id := range s.order {
		if fn, ok := s.subscribers[id]; ok {
			fn(s.snap)
		}
	}
}

// toggled copies set with id flipped. The input map is never modified so
// older snapshots stay valid.
func toggled(set map[string]struct{}, id string) map[string]struct{} {
	out := make(map[string]struct{}, len(set)+1)
	for k := range set {
		out[k] = struct{}{}
	}
	if _, ok := out[id]; ok {
		delete(out, id)
	} else {
		out[id] = struct{}{}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
