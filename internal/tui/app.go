package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/robby/gridboard/internal/boardfile"
	"github.com/robby/gridboard/internal/store"
)

// AppScreen represents the different screens in the application flow.
type AppScreen int

const (
	ScreenLoading AppScreen = iota
	ScreenBoard
	ScreenDetail
	ScreenCellPicker
)

// AppModel is the root Bubble Tea model that manages screen transitions.
// It loads the board file, then hosts the board and its detail and cell
// picker screens.
type AppModel struct {
	// Dependencies
	store   *store.Store
	opts    Options
	watcher *boardfile.Watcher

	// Current state
	currentScreen AppScreen
	currentModel  tea.Model
	err           error
	loadingMsg    string

	// Cached models to preserve state across screen transitions
	boardModel *BoardModel
}

// NewAppModel creates the root model. The watcher may be nil. With an
// empty opts.BoardPath the store contents are shown as they are.
func NewAppModel(s *store.Store, opts Options, watcher *boardfile.Watcher) AppModel {
	return AppModel{
		store:         s,
		opts:          opts,
		watcher:       watcher,
		currentScreen: ScreenLoading,
		loadingMsg:    fmt.Sprintf("Loading %s...", opts.BoardPath),
	}
}

// Init initializes the app model.
func (m AppModel) Init() tea.Cmd {
	if m.opts.BoardPath == "" {
		return func() tea.Msg { return boardLoadedMsg{board: m.store.Board()} }
	}
	return tea.Batch(loadBoard(m.opts.BoardPath), m.waitForChange())
}

// waitForChange blocks until the board file changes on disk.
func (m AppModel) waitForChange() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	changes := m.watcher.Changes()
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return boardChangedMsg{}
	}
}

// Update handles messages and transitions between screens.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && m.currentScreen == ScreenLoading {
			return m, tea.Quit
		}

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case QuitMsg:
		return m, tea.Quit

	case boardLoadedMsg:
		if m.boardModel == nil {
			if msg.err != nil {
				m.err = fmt.Errorf("failed to load board: %w", msg.err)
				return m, nil
			}
			m.store.Replace(msg.board)
			m.currentScreen = ScreenBoard
			boardModel := NewBoardModel(m.store, m.opts)
			m.boardModel = &boardModel
			m.currentModel = boardModel
			return m, boardModel.Init()
		}
		return m.updateBoard(msg)

	case boardChangedMsg:
		return m, tea.Batch(loadBoard(m.opts.BoardPath), m.waitForChange())

	// Board work finishing in the background lands on the board even while
	// another screen is shown.
	case verdictMsg, boardSavedMsg, spinner.TickMsg:
		return m.updateBoard(msg)

	case openDetailMsg:
		column, lane := msg.item.ColumnID, msg.item.SwimLaneID
		for _, c := range m.store.Columns() {
			if c.ID == column {
				column = c.Title
			}
		}
		for _, l := range m.store.SwimLanes() {
			if l.ID == lane {
				lane = l.Title
			}
		}
		m.currentScreen = ScreenDetail
		detailModel := NewDetailModel(msg.item, column, lane)
		m.currentModel = detailModel
		return m, detailModel.Init()

	case openCellPickerMsg:
		m.currentScreen = ScreenCellPicker
		pickerModel := NewCellPickerModel(msg.cells, msg.source)
		m.currentModel = pickerModel
		return m, pickerModel.Init()

	case CellSelectedMsg:
		m.currentScreen = ScreenBoard
		var cmd tea.Cmd
		m, cmd = m.updateBoard(msg)
		return m, tea.Batch(cmd, tea.WindowSize())

	case closeDetailMsg, cellPickerClosedMsg:
		// Return to board; request window size to ensure proper rendering
		m.currentScreen = ScreenBoard
		m.currentModel = *m.boardModel
		return m, tea.WindowSize()
	}

	// Delegate to current screen's model
	if m.currentModel != nil {
		var cmd tea.Cmd
		m.currentModel, cmd = m.currentModel.Update(msg)
		// Keep boardModel in sync when on board screen
		if m.currentScreen == ScreenBoard {
			if bm, ok := m.currentModel.(BoardModel); ok {
				m.boardModel = &bm
			}
		}
		return m, cmd
	}

	return m, nil
}

// updateBoard sends msg to the board regardless of the current screen.
func (m AppModel) updateBoard(msg tea.Msg) (AppModel, tea.Cmd) {
	if m.boardModel == nil {
		return m, nil
	}
	next, cmd := m.boardModel.Update(msg)
	bm := next.(BoardModel)
	m.boardModel = &bm
	if m.currentScreen == ScreenBoard {
		m.currentModel = bm
	}
	return m, cmd
}

// View renders the current screen.
func (m AppModel) View() string {
	// Show error if present
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Ctrl+C to quit", m.err))
	}

	// Delegate to current screen
	if m.currentModel != nil {
		return m.currentModel.View()
	}

	// Show loading state
	return m.loadingMsg + "\n\nPress Ctrl+C to quit"
}
