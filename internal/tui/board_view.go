package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/robby/gridboard/internal/dnd"
	"github.com/robby/gridboard/internal/domain"
)

var (
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	hoverStyle    = lipgloss.NewStyle().Background(lipgloss.Color("237"))
	draggedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	bannerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("205")).Bold(true)
	overLimit     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	selectedFrame = lipgloss.NewStyle().Underline(true)
)

// View renders the board
func (m BoardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.renderHeader(), m.renderStatus())
	if m.filterMode || m.filterText != "" || m.assignee != "" {
		sections = append(sections, m.renderFilter())
	}

	if m.showHelp {
		sections = append(sections, m.help.View(m.width, m.height-len(sections)))
		return strings.Join(sections, "\n")
	}

	sections = append(sections, m.renderBoard())
	return strings.Join(sections, "\n")
}

func (m BoardModel) renderHeader() string {
	name := "gridboard"
	if m.opts.BoardPath != "" {
		name = fmt.Sprintf("gridboard: %s", filepath.Base(m.opts.BoardPath))
	}
	left := TitleStyle.UnsetMarginBottom().Render(name)

	right := fmt.Sprintf("%d items  [?]help", m.idx.Len())
	if m.drag.Phase() == dnd.PhasePending {
		right = m.spinner.View() + " checking  " + right
	}
	right = dimStyle.Render(right)

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return fit(left+strings.Repeat(" ", gap)+right, m.width)
}

func (m BoardModel) renderStatus() string {
	if m.errorToast != "" {
		return fit(ErrorStyle.Render(m.errorToast), m.width)
	}
	if m.bannerVisible() {
		return m.renderBanner()
	}
	if m.statusMsg != "" {
		return fit(SelectedItemStyle.Render(m.statusMsg), m.width)
	}

	key, ok := m.selectedCell()
	if !ok {
		return fit(dimStyle.Render("Empty board"), m.width)
	}
	n := len(m.visible[key])
	pos := 0
	if n > 0 {
		pos = m.selectedItem[key] + 1
	}
	text := fmt.Sprintf("col %d/%d | lane %d/%d | item %d/%d",
		m.selectedColumn+1, len(m.layout.columnW), m.selectedLane+1, len(m.layout.laneH), pos, n)
	return fit(dimStyle.Render(text), m.width)
}

func (m BoardModel) renderFilter() string {
	if m.filterMode {
		return fit(m.filterInput.View(), m.width)
	}
	var parts []string
	if m.filterText != "" {
		parts = append(parts, fmt.Sprintf("filter: %q", m.filterText))
	}
	if m.assignee != "" {
		parts = append(parts, "assignee: @"+m.assignee)
	}
	return fit(dimStyle.Render(strings.Join(parts, "  ")), m.width)
}

func (m BoardModel) renderBanner() string {
	st := m.drag.State()
	title := ""
	if st.Session != nil {
		if item, ok := m.idx.LookupItem(st.Session.ItemID); ok {
			title = item.Title
		}
	}

	if st.Phase == dnd.PhasePending {
		return fit(bannerStyle.Render(" CHECKING ")+" "+m.spinner.View()+" "+title, m.width)
	}

	target := "-"
	if st.Hovered != nil {
		target = m.cellTitle(*st.Hovered)
	}
	hint := "arrows:target  1-9:column  p:pick  enter:drop  esc:cancel"
	if m.mouseDrag {
		hint = "release to drop"
	}
	text := fmt.Sprintf(" %s -> %s  %s", title, target, dimStyle.Render(hint))
	return fit(bannerStyle.Render(" MOVE ")+text, m.width)
}

func (m BoardModel) cellTitle(key domain.CellKey) string {
	col, lane := key.ColumnID, key.SwimLaneID
	if i, ok := m.idx.ColumnPosition(key.ColumnID); ok {
		col = m.idx.Columns()[i].Title
	}
	if i, ok := m.idx.LanePosition(key.SwimLaneID); ok {
		lane = m.idx.SwimLanes()[i].Title
	}
	return col + " / " + lane
}

// renderBoard draws the column header row followed by every lane.
func (m BoardModel) renderBoard() string {
	columns := m.idx.Columns()
	lanes := m.idx.SwimLanes()
	if len(columns) == 0 || len(lanes) == 0 {
		return dimStyle.Render("No columns or lanes. Edit the board file to add some.")
	}

	rows := []string{m.renderColumnHeaders()}
	for li := range lanes {
		if li > 0 {
			rows = append(rows, dimStyle.Render(strings.Repeat("─", m.width)))
		}
		gutter := m.renderGutter(li)
		cells := make([][]string, len(columns))
		for ci := range columns {
			cells[ci] = m.renderCell(ci, li)
		}
		for r := 0; r < m.layout.laneH[li]; r++ {
			var b strings.Builder
			b.WriteString(gutter[r])
			for ci := range columns {
				b.WriteString(cells[ci][r])
			}
			rows = append(rows, b.String())
		}
	}
	return strings.Join(rows, "\n")
}

func (m BoardModel) renderColumnHeaders() string {
	snap := m.collapse.Snapshot()
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", m.layout.gutter))
	for ci, col := range m.idx.Columns() {
		w := m.layout.columnW[ci]
		if w == 0 {
			continue
		}
		inner := w - 1
		style := accent(col.Color)
		if ci == m.selectedColumn {
			style = style.Inherit(selectedFrame)
		}

		var label string
		if snap.IsColumnCollapsed(col.ID) {
			label = style.Render("▸" + firstRune(col.Title))
		} else {
			label = style.Render("▾ "+col.Title) + " " + m.columnCount(col.ID)
		}
		b.WriteString(fit(label, inner))
		b.WriteString(dimStyle.Render("│"))
	}
	return b.String()
}

// columnCount renders "(n)" or "(n/limit)" when the column has a WIP limit.
func (m BoardModel) columnCount(columnID string) string {
	n := m.idx.ColumnCount(columnID)
	limit := m.opts.Layout.WIPLimits[strings.ToLower(columnID)]
	if limit <= 0 {
		return dimStyle.Render(fmt.Sprintf("(%d)", n))
	}
	text := fmt.Sprintf("(%d/%d)", n, limit)
	if n >= limit {
		return overLimit.Render(text)
	}
	return dimStyle.Render(text)
}

func (m BoardModel) renderGutter(li int) []string {
	lane := m.idx.SwimLanes()[li]
	h := m.layout.laneH[li]
	w := m.layout.gutter
	lines := make([]string, h)
	for i := range lines {
		lines[i] = strings.Repeat(" ", w)
	}
	if h == 0 || w == 0 {
		return lines
	}

	marker := "▾ "
	if m.collapse.IsLaneCollapsed(lane.ID) {
		marker = "▸ "
	}
	style := accent(lane.Color)
	if li == m.selectedLane {
		style = style.Inherit(selectedFrame)
	}
	lines[0] = fit(style.Render(marker+lane.Title), w)
	if h > 1 {
		lines[1] = fit(dimStyle.Render(fmt.Sprintf("  (%d)", m.idx.LaneCount(lane.ID))), w)
	}
	return lines
}

// renderCell draws one cell as exactly laneH lines of the column's width.
// Only the items inside the virtual window are rendered.
func (m BoardModel) renderCell(ci, li int) []string {
	h := m.layout.laneH[li]
	w := m.layout.columnW[ci]
	lines := make([]string, h)
	if w == 0 {
		return lines
	}
	inner := w - 1
	key := m.layout.keys[li*len(m.layout.columnW)+ci]

	hovered := false
	if target, ok := m.drag.Hovered(); ok && target == key && m.drag.Phase() == dnd.PhaseDragging {
		hovered = true
	}
	blank := strings.Repeat(" ", inner)
	if hovered {
		blank = hoverStyle.Render(blank)
	}
	for i := range lines {
		lines[i] = blank
	}

	items := m.visible[key]
	snap := m.collapse.Snapshot()
	switch {
	case snap.IsColumnCollapsed(key.ColumnID) || snap.IsLaneCollapsed(key.SwimLaneID):
		if h > 0 && len(items) > 0 {
			lines[0] = fit(dimStyle.Render(fmt.Sprintf(" %d", len(items))), inner)
		}
	case len(items) == 0:
		if h > 0 {
			lines[0] = fit(dimStyle.Render(" ·"), inner)
		}
	default:
		list := m.lists[key]
		win := list.Window()
		top := list.ScrollTop()
		selected := -1
		if ci == m.selectedColumn && li == m.selectedLane {
			selected = m.selectedItem[key]
		}
		for _, i := range win.Indices() {
			y := win.Offset(i) - top
			for j, text := range m.cardLines(items[i], inner, i == selected) {
				if r := y + j; r >= 0 && r < h {
					lines[r] = text
				}
			}
		}
		if top > 0 && h > 0 {
			lines[0] = fit(dimStyle.Render(" ↑"), inner)
		}
		if top+h < win.Extent && h > 1 {
			lines[h-1] = fit(dimStyle.Render(" ↓"), inner)
		}
	}

	sep := dimStyle.Render("│")
	if hovered {
		sep = accent("").Render("┃")
	}
	for i := range lines {
		lines[i] += sep
	}
	return lines
}

// cardLines renders an item as CardHeight lines of width w.
func (m BoardModel) cardLines(item domain.Item, w int, selected bool) []string {
	marker, style := "  ", NormalItemStyle
	if selected {
		marker, style = "> ", SelectedItemStyle
	}
	if st := m.drag.State(); st.Session != nil && st.Session.ItemID == item.ID {
		marker, style = "◆ ", draggedStyle
	}

	title := marker + priorityGlyph(item.Priority) + item.Title
	lines := []string{fit(style.Render(truncate.StringWithTail(title, uint(max(w, 0)), "…")), w)}
	if m.opts.Layout.CardHeight > 1 {
		meta := ""
		if item.Assignee != "" {
			meta = "    @" + item.Assignee
		}
		lines = append(lines, fit(dimStyle.Render(meta), w))
	}
	for len(lines) < m.opts.Layout.CardHeight {
		lines = append(lines, strings.Repeat(" ", w))
	}
	return lines
}

func priorityGlyph(p domain.Priority) string {
	switch p {
	case domain.PriorityHigh:
		return "!! "
	case domain.PriorityMedium:
		return "! "
	}
	return ""
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

// fit truncates or pads a possibly styled string to exactly w cells.
func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	s = truncate.String(s, uint(w))
	if pad := w - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}
