package tui

import (
	"strings"

	"github.com/robby/gridboard/internal/collapse"
	"github.com/robby/gridboard/internal/dnd"
	"github.com/robby/gridboard/internal/domain"
	"github.com/robby/gridboard/internal/virtual"
)

const (
	minGutterWidth = 8
	maxGutterWidth = 18
)

// layout places the grid on screen. All coordinates are terminal cells
// relative to the top-left corner of the board view.
type layout struct {
	top     int // Row of the column header line
	gutter  int // Width of the lane label gutter
	columnX []int
	columnW []int
	laneY   []int // First row of each lane
	laneH   []int
	keys    []domain.CellKey
	rects   []dnd.Rect
}

// computeLayout distributes width across columns and height across lanes.
// Lanes are separated by one divider row.
func computeLayout(columns []domain.Column, lanes []domain.SwimLane, snap collapse.Snapshot,
	width, height, top, collapsedWidth, compactHeight int) layout {
	l := layout{top: top, gutter: gutterWidth(lanes, width)}

	ids := make([]string, len(columns))
	for i, col := range columns {
		ids[i] = col.ID
	}
	l.columnW = snap.ColumnWidths(ids, max(width-l.gutter, 0), collapsedWidth)
	l.columnX = make([]int, len(columns))
	x := l.gutter
	for i := range columns {
		l.columnX[i] = x
		x += l.columnW[i]
	}

	collapsed := 0
	for _, lane := range lanes {
		if snap.IsLaneCollapsed(lane.ID) {
			collapsed++
		}
	}
	expanded := len(lanes) - collapsed
	area := height - top - 1 - max(len(lanes)-1, 0)
	share, extra := 0, 0
	if expanded > 0 {
		rest := max(area-collapsed*compactHeight, 0)
		share, extra = rest/expanded, rest%expanded
	}

	l.laneY = make([]int, len(lanes))
	l.laneH = make([]int, len(lanes))
	y := top + 1
	for i, lane := range lanes {
		h := share
		if !snap.IsLaneCollapsed(lane.ID) && extra > 0 {
			h++
			extra--
		}
		l.laneY[i] = y
		l.laneH[i] = snap.LaneHeight(lane.ID, max(h, 1), compactHeight)
		y += l.laneH[i] + 1
	}

	for li, lane := range lanes {
		for ci, col := range columns {
			l.keys = append(l.keys, domain.CellKey{ColumnID: col.ID, SwimLaneID: lane.ID})
			l.rects = append(l.rects, l.cellRect(ci, li))
		}
	}
	return l
}

// gutterWidth sizes the lane gutter to the longest lane title.
func gutterWidth(lanes []domain.SwimLane, width int) int {
	longest := 0
	for _, lane := range lanes {
		longest = max(longest, len([]rune(lane.Title)))
	}
	w := min(max(longest+3, minGutterWidth), maxGutterWidth)
	return min(w, width/4)
}

func (l layout) cellRect(col, lane int) dnd.Rect {
	return dnd.Rect{X: l.columnX[col], Y: l.laneY[lane], W: l.columnW[col], H: l.laneH[lane]}
}

// columnAt returns the column whose header spans x.
func (l layout) columnAt(x int) (int, bool) {
	for i := range l.columnX {
		if x >= l.columnX[i] && x < l.columnX[i]+l.columnW[i] {
			return i, true
		}
	}
	return 0, false
}

// laneAt returns the lane whose rows span y.
func (l layout) laneAt(y int) (int, bool) {
	for i := range l.laneY {
		if y >= l.laneY[i] && y < l.laneY[i]+l.laneH[i] {
			return i, true
		}
	}
	return 0, false
}

// chromeRows counts the lines rendered above the column headers.
func (m BoardModel) chromeRows() int {
	rows := 2 // Header and status line
	if m.filterMode || m.filterText != "" || m.assignee != "" {
		rows++
	}
	return rows
}

// bannerVisible reports whether the status line shows the move banner. The
// banner replaces the status line so the grid never shifts under a drag.
func (m BoardModel) bannerVisible() bool {
	return m.moveMode || m.mouseDrag || m.drag.Phase() == dnd.PhasePending
}

// relayout brings every piece of derived state up to date: the grid index,
// the filtered per-cell lists, the screen layout, the virtual lists and
// the drop regions.
func (m *BoardModel) relayout() {
	m.refreshIndex()
	m.refreshVisible()

	snap := m.collapse.Snapshot()
	m.layout = computeLayout(m.idx.Columns(), m.idx.SwimLanes(), snap,
		m.width, m.height, m.chromeRows(), m.opts.Layout.CollapsedWidth, m.opts.Layout.CompactLaneHeight)

	live := make(map[domain.CellKey]struct{}, len(m.layout.keys))
	for i, key := range m.layout.keys {
		live[key] = struct{}{}
		list, ok := m.lists[key]
		if !ok {
			list = virtual.NewList(m.opts.Layout.CardHeight, m.opts.Layout.Overscan)
			m.lists[key] = list
		}
		list.SetCount(len(m.visible[key]))
		viewport := m.layout.rects[i].H
		if snap.IsColumnCollapsed(key.ColumnID) || snap.IsLaneCollapsed(key.SwimLaneID) {
			viewport = 0
		}
		list.SetViewport(viewport)
	}
	for key := range m.lists {
		if _, ok := live[key]; !ok {
			delete(m.lists, key)
			delete(m.selectedItem, key)
		}
	}

	m.drag.Registry().Replace(m.layout.keys, m.layout.rects)
	m.clampSelection()
}

func (m *BoardModel) refreshIndex() {
	if m.idx != nil && m.idx.Version() == m.store.Version() {
		return
	}
	m.idx = m.cache.Index(m.store.Board())
	for _, o := range m.opts.Observers {
		o.Observe(m.idx)
	}
}

// refreshVisible applies the text and assignee filters per cell.
func (m *BoardModel) refreshVisible() {
	want := visibleKey{version: m.idx.Version(), filter: m.filterText, assignee: m.assignee}
	if want == m.visibleFor && m.visible != nil {
		return
	}
	m.visibleFor = want
	m.visible = make(map[domain.CellKey][]domain.Item)
	filter := strings.ToLower(m.filterText)
	for _, col := range m.idx.Columns() {
		for _, lane := range m.idx.SwimLanes() {
			items := m.idx.ItemsForCell(col.ID, lane.ID)
			if filter == "" && m.assignee == "" {
				m.visible[domain.CellKey{ColumnID: col.ID, SwimLaneID: lane.ID}] = items
				continue
			}
			var kept []domain.Item
			for _, item := range items {
				if m.assignee != "" && item.Assignee != m.assignee {
					continue
				}
				if filter != "" && !strings.Contains(strings.ToLower(item.Title), filter) {
					continue
				}
				kept = append(kept, item)
			}
			m.visible[domain.CellKey{ColumnID: col.ID, SwimLaneID: lane.ID}] = kept
		}
	}
}

func (m *BoardModel) clampSelection() {
	m.selectedColumn = min(m.selectedColumn, max(len(m.layout.columnW)-1, 0))
	m.selectedLane = min(m.selectedLane, max(len(m.layout.laneH)-1, 0))
	for key, i := range m.selectedItem {
		if n := len(m.visible[key]); i >= n {
			m.selectedItem[key] = max(n-1, 0)
		}
	}
}
