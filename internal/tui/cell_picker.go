package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/robby/gridboard/internal/domain"
)

// cellOption is one drop target offered by the cell picker.
type cellOption struct {
	key    domain.CellKey
	column string
	lane   string
	count  int
}

func (o cellOption) FilterValue() string {
	return o.column + " " + o.lane
}

func (o cellOption) Title() string {
	return fmt.Sprintf("%s / %s", o.column, o.lane)
}

func (o cellOption) Description() string {
	if o.count == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", o.count)
}

// cellDelegate renders cell options; the source cell is marked.
type cellDelegate struct {
	source domain.CellKey
}

func (d cellDelegate) Height() int                             { return 2 }
func (d cellDelegate) Spacing() int                            { return 1 }
func (d cellDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d cellDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	o, ok := item.(cellOption)
	if !ok {
		return
	}

	str := fmt.Sprintf("%d. %s", index+1, o.Title())
	desc := o.Description()
	if o.key == d.source {
		desc += " (current)"
	}

	if index == m.Index() {
		fmt.Fprint(w, SelectedItemStyle.Render("> "+str))
		fmt.Fprint(w, "\n  "+NormalItemStyle.Render(desc))
	} else {
		fmt.Fprint(w, NormalItemStyle.Render("  "+str))
		fmt.Fprint(w, "\n  "+dimStyle.Render(desc))
	}
}

// CellPickerModel lists every cell of the board as a drop target for the
// item being moved.
type CellPickerModel struct {
	list list.Model
	err  error
}

// NewCellPickerModel creates a picker over cells. The cursor starts on
// the source cell.
func NewCellPickerModel(cells []cellOption, source domain.CellKey) CellPickerModel {
	items := make([]list.Item, len(cells))
	start := 0
	for i, c := range cells {
		items[i] = c
		if c.key == source {
			start = i
		}
	}

	l := list.New(items, cellDelegate{source: source}, 80, 20)
	l.Title = "Move to Cell"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = TitleStyle
	l.Select(start)

	return CellPickerModel{
		list: l,
	}
}

// Init initializes the model.
func (m CellPickerModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages and updates the model state.
func (m CellPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q", "esc":
			return m, func() tea.Msg { return cellPickerClosedMsg{} }
		case "enter":
			if o, ok := m.list.SelectedItem().(cellOption); ok {
				return m, func() tea.Msg { return CellSelectedMsg{Cell: o.key} }
			}
		}

	case ErrorMsg:
		m.err = msg.Err
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the model.
func (m CellPickerModel) View() string {
	view := m.list.View()

	if m.err != nil {
		view += ErrorStyle.Render(fmt.Sprintf("\nError: %v", m.err))
	}

	return view
}
