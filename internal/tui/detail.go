package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/robby/gridboard/internal/domain"
)

// Layout constants
const (
	leftPanelRatio = 0.35 // Left panel takes 35% of width
	minLeftWidth   = 30
	maxLeftWidth   = 50
	headerHeight   = 1
	footerHeight   = 1
	borderSize     = 2 // Top + bottom border
)

// Detail view styles
var (
	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	detailValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	focusedPanelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("205"))

	scrollIndicatorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205"))
)

// DetailModel shows one item: metadata on the left, description on the right.
type DetailModel struct {
	item   domain.Item
	column string // Column title, or the raw id when unknown
	lane   string

	viewport viewport.Model
	status   string

	width  int
	height int
}

// NewDetailModel creates a new detail view model
func NewDetailModel(item domain.Item, column, lane string) DetailModel {
	vp := viewport.New(40, 10) // Will be resized in WindowSizeMsg
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	m := DetailModel{
		item:     item,
		column:   column,
		lane:     lane,
		viewport: vp,
	}
	m.updateViewportContent()
	return m
}

// Init initializes the detail model
func (m DetailModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages
func (m DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeComponents()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m DetailModel) panelWidths() (left, right int) {
	left = min(max(int(float64(m.width)*leftPanelRatio), minLeftWidth), maxLeftWidth)
	right = max(m.width-left-1, 30) // 1 char gap
	return left, right
}

// resizeComponents calculates and sets component dimensions
func (m *DetailModel) resizeComponents() {
	_, right := m.panelWidths()
	contentHeight := max(m.height-headerHeight-footerHeight, 10)

	m.viewport.Width = right - borderSize - 2
	m.viewport.Height = contentHeight - borderSize - 2 // Panel title and gap
	m.updateViewportContent()
}

// handleKeyPress processes keyboard input
func (m DetailModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		return m, func() tea.Msg { return closeDetailMsg{} }
	case "y":
		if err := clipboard.WriteAll(m.item.ID); err != nil {
			m.status = ErrorStyle.Render(fmt.Sprintf("Copy failed: %v", err))
		} else {
			m.status = "Copied " + m.item.ID
		}
	case "j", "down":
		m.viewport.LineDown(1)
	case "k", "up":
		m.viewport.LineUp(1)
	case "ctrl+d":
		m.viewport.HalfViewDown()
	case "ctrl+u":
		m.viewport.HalfViewUp()
	case "g":
		m.viewport.GotoTop()
	case "G":
		m.viewport.GotoBottom()
	}
	return m, nil
}

// View renders the split-screen detail view
func (m DetailModel) View() string {
	if m.width == 0 {
		m.width, m.height = 100, 30
	}
	left, right := m.panelWidths()
	contentHeight := max(m.height-headerHeight-footerHeight, 10)

	header := dimStyle.Render("[q]back [y]copy id [j/k]scroll [g/G]top/bottom")

	leftPanel := panelBorderStyle.
		Width(left - borderSize).
		Height(contentHeight - borderSize).
		Render(m.renderLeftPanel(left - borderSize))

	rightPanel := focusedPanelBorderStyle.
		Width(right - borderSize).
		Height(contentHeight - borderSize).
		Render(m.renderRightPanel())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, " ", rightPanel)
	return lipgloss.JoinVertical(lipgloss.Left, header, panels, m.renderFooter())
}

// renderFooter renders the bottom status bar
func (m DetailModel) renderFooter() string {
	left := m.status
	right := ""
	if m.viewport.TotalLineCount() > m.viewport.Height {
		switch {
		case m.viewport.AtTop():
			right = "TOP"
		case m.viewport.AtBottom():
			right = "END"
		default:
			right = fmt.Sprintf("%d%%", int(m.viewport.ScrollPercent()*100))
		}
	}
	padding := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return dimStyle.Render(left) + strings.Repeat(" ", padding) + dimStyle.Render(right)
}

// renderLeftPanel renders the item metadata panel
func (m DetailModel) renderLeftPanel(width int) string {
	var b strings.Builder

	b.WriteString(detailLabelStyle.Render(m.item.ID))
	b.WriteString("\n\n")
	b.WriteString(detailTitleStyle.Render(wordwrap.String(m.item.Title, max(width-2, 1))))
	b.WriteString("\n\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label + ": "))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteString("\n")
	}
	field("Column", m.column)
	field("Lane", m.lane)
	field("Assignee", m.item.Assignee)
	if m.item.Priority != "" {
		style := detailValueStyle
		if m.item.Priority == domain.PriorityHigh {
			style = style.Foreground(lipgloss.Color("196"))
		}
		b.WriteString(detailLabelStyle.Render("Priority: "))
		b.WriteString(style.Render(string(m.item.Priority)))
		b.WriteString("\n")
	}
	return b.String()
}

// renderRightPanel renders the description viewport
func (m DetailModel) renderRightPanel() string {
	var b strings.Builder
	b.WriteString(detailLabelStyle.Render("Description"))
	if m.viewport.TotalLineCount() > m.viewport.Height {
		hint := " ↕"
		if m.viewport.AtTop() {
			hint = " ↓"
		} else if m.viewport.AtBottom() {
			hint = " ↑"
		}
		b.WriteString(scrollIndicatorStyle.Render(hint))
	}
	b.WriteString("\n\n")

	if strings.TrimSpace(m.item.Description) == "" {
		b.WriteString(dimStyle.Render("No description"))
		return b.String()
	}
	b.WriteString(m.viewport.View())
	return b.String()
}

func (m *DetailModel) updateViewportContent() {
	wrapWidth := max(m.viewport.Width-2, 20)
	m.viewport.SetContent(detailValueStyle.Render(wordwrap.String(m.item.Description, wrapWidth)))
}
