package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/robby/gridboard/internal/dnd"
	"github.com/robby/gridboard/internal/domain"
)

// handleMouse drives drag and drop, collapse toggles and scrolling.
func (m BoardModel) handleMouse(msg tea.MouseMsg) (BoardModel, tea.Cmd) {
	if m.showHelp || m.filterMode {
		return m, nil
	}
	p := dnd.Point{X: msg.X, Y: msg.Y}

	// Active drag: motion updates the target, release drops.
	if m.mouseDrag {
		switch msg.Action {
		case tea.MouseActionMotion:
			m.drag.Hover(m.idx, dnd.DropTarget{Point: &p})
		case tea.MouseActionRelease:
			m.mouseDrag = false
			out := m.drag.Drop(m.idx, dnd.DropTarget{Point: &p})
			return m.afterDrop(out, false)
		}
		return m, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if key, ok := m.drag.Registry().HitTest(p); ok {
			m.lists[key].ScrollBy(-1)
		}

	case tea.MouseButtonWheelDown:
		if key, ok := m.drag.Registry().HitTest(p); ok {
			m.lists[key].ScrollBy(1)
		}

	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		m.errorToast = ""

		// Column header: toggle the column.
		if msg.Y == m.layout.top {
			if ci, ok := m.layout.columnAt(msg.X); ok {
				m.selectedColumn = ci
				m.collapse.ToggleColumn(m.idx.Columns()[ci].ID)
			}
			return m, nil
		}
		// Lane gutter: toggle the lane.
		if msg.X < m.layout.gutter {
			if li, ok := m.layout.laneAt(msg.Y); ok {
				m.selectedLane = li
				m.collapse.ToggleSwimLane(m.idx.SwimLanes()[li].ID)
			}
			return m, nil
		}

		key, ok := m.drag.Registry().HitTest(p)
		if !ok {
			return m, nil
		}
		(&m).selectCell(key)
		i, ok := m.itemAt(key, msg.Y)
		if !ok {
			return m, nil
		}
		m.selectedItem[key] = i
		if m.moveMode {
			return m, nil
		}
		if err := m.drag.Begin(m.idx, m.visible[key][i].ID); err != nil {
			m.errorToast = dragError(err)
			return m, nil
		}
		m.mouseDrag = true
	}
	return m, nil
}

func (m *BoardModel) selectCell(key domain.CellKey) {
	if col, ok := m.idx.ColumnPosition(key.ColumnID); ok {
		m.selectedColumn = col
	}
	if lane, ok := m.idx.LanePosition(key.SwimLaneID); ok {
		m.selectedLane = lane
	}
}

// itemAt maps a screen row inside an expanded cell to the item drawn there.
func (m BoardModel) itemAt(key domain.CellKey, y int) (int, bool) {
	snap := m.collapse.Snapshot()
	if snap.IsColumnCollapsed(key.ColumnID) || snap.IsLaneCollapsed(key.SwimLaneID) {
		return 0, false
	}
	rect, ok := m.drag.Registry().Region(key)
	list := m.lists[key]
	if !ok || list == nil {
		return 0, false
	}
	offset := y - rect.Y + list.ScrollTop()
	win := list.Window()
	for _, i := range win.Indices() {
		if offset >= win.Offset(i) && offset < win.Offset(i+1) {
			return i, true
		}
	}
	return 0, false
}
