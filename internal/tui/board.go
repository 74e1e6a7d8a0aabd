package tui

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/robby/gridboard/internal/boardfile"
	"github.com/robby/gridboard/internal/collapse"
	"github.com/robby/gridboard/internal/config"
	"github.com/robby/gridboard/internal/dnd"
	"github.com/robby/gridboard/internal/domain"
	"github.com/robby/gridboard/internal/grid"
	"github.com/robby/gridboard/internal/store"
	"github.com/robby/gridboard/internal/virtual"
)

const pageJumpSize = 10 // Number of items to jump with Ctrl+D/U

// IndexObserver is told about every rebuilt grid index. Validators that run
// off the event loop use it to see a consistent snapshot.
type IndexObserver interface {
	Observe(idx *grid.Index)
}

// Options configures the board.
type Options struct {
	BoardPath string             // Board file; moves are saved here
	Layout    config.BoardConfig // Sizes, overscan and WIP limits
	Validator dnd.Validator      // Optional before-drop hook
	Timeout   time.Duration      // Validator timeout
	Observers []IndexObserver
	Logger    *log.Logger
}

// moveSink receives the controller's callbacks and applies allowed moves to
// the store. The board drains it after every drop.
type moveSink struct {
	store  *store.Store
	logger *log.Logger
	moved  []domain.Move
	err    error
}

func (s *moveSink) onDrop(move domain.Move) {
	if err := s.store.ApplyMove(move); err != nil {
		s.err = err
		return
	}
	s.moved = append(s.moved, move)
}

func (s *moveSink) onItemMove(itemID, columnID, swimLaneID string) {
	s.logger.Info("Item moved", "item", itemID, "column", columnID, "lane", swimLaneID)
}

func (s *moveSink) drain() ([]domain.Move, error) {
	moved, err := s.moved, s.err
	s.moved, s.err = nil, nil
	return moved, err
}

// visibleKey identifies the inputs the per-cell visible lists derive from.
type visibleKey struct {
	version  uint64
	filter   string
	assignee string
}

// BoardModel is the swim lane board view.
type BoardModel struct {
	// Dependencies
	store    *store.Store
	cache    *grid.Cache
	collapse *collapse.State
	drag     *dnd.Controller
	sink     *moveSink
	logger   *log.Logger
	opts     Options

	// UI components
	keymap      KeyMap
	help        HelpModel
	spinner     spinner.Model
	filterInput textinput.Model

	// Derived state, refreshed by relayout
	idx        *grid.Index
	visible    map[domain.CellKey][]domain.Item
	visibleFor visibleKey
	lists      map[domain.CellKey]*virtual.List
	layout     layout

	// Selection
	selectedColumn int
	selectedLane   int
	selectedItem   map[domain.CellKey]int

	// View state
	width      int
	height     int
	showHelp   bool
	filterMode bool
	filterText string
	assignee   string
	moveMode   bool // Keyboard move in progress
	mouseDrag  bool // Mouse button held on an item
	errorToast string
	statusMsg  string
}

// NewBoardModel creates a new board model over s.
func NewBoardModel(s *store.Store, opts Options) BoardModel {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
	}
	defaults := config.Default().Board
	if opts.Layout.CollapsedWidth < 1 {
		opts.Layout.CollapsedWidth = defaults.CollapsedWidth
	}
	if opts.Layout.CompactLaneHeight < 1 {
		opts.Layout.CompactLaneHeight = defaults.CompactLaneHeight
	}
	if opts.Layout.CardHeight < 1 {
		opts.Layout.CardHeight = defaults.CardHeight
	}

	sink := &moveSink{store: s, logger: opts.Logger}
	drag := dnd.New(
		dnd.WithValidator(opts.Validator),
		dnd.WithTimeout(opts.Timeout),
		dnd.WithLogger(opts.Logger),
		dnd.WithCallbacks(dnd.Callbacks{
			OnDrop:     sink.onDrop,
			OnItemMove: sink.onItemMove,
		}),
	)
	drag.Subscribe(func(st dnd.State) {
		opts.Logger.Debug("Drag state", "phase", st.Phase)
	})

	cs := collapse.New()
	cs.Subscribe(func(snap collapse.Snapshot) {
		opts.Logger.Debug("Collapse changed", "columns", snap.CollapsedColumns(), "lanes", snap.CollapsedLanes())
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.Prompt = "/ "

	m := BoardModel{
		store:        s,
		cache:        &grid.Cache{},
		collapse:     cs,
		drag:         drag,
		sink:         sink,
		logger:       opts.Logger,
		opts:         opts,
		keymap:       DefaultKeyMap(),
		help:         NewHelpModel(DefaultKeyMap()),
		spinner:      sp,
		filterInput:  ti,
		lists:        make(map[domain.CellKey]*virtual.List),
		selectedItem: make(map[domain.CellKey]int),
	}
	(&m).relayout()
	return m
}

// Init initializes the board.
func (m BoardModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	(&m).relayout()

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case boardLoadedMsg:
		if msg.err != nil {
			m.errorToast = fmt.Sprintf("Reload failed: %v", msg.err)
			break
		}
		if !boardfile.SameContent(msg.board, m.store.Board()) {
			m.store.Replace(msg.board)
			m.statusMsg = "Board reloaded"
		}

	case verdictMsg:
		out := m.drag.Settle(msg.verdict)
		m, cmd = m.afterDrop(out, true)

	case boardSavedMsg:
		if msg.err != nil {
			m.logger.Error("Save failed", "path", m.opts.BoardPath, "error", msg.err)
			if err := m.store.RollbackMove(); err != nil {
				m.logger.Warn("Rollback failed", "error", err)
			}
			m.errorToast = fmt.Sprintf("Save failed, move reverted: %v", msg.err)
		}

	case CellSelectedMsg:
		if m.drag.Phase() == dnd.PhaseDragging {
			out := m.drag.Drop(m.idx, dnd.CellTarget(msg.Cell))
			m, cmd = m.afterDrop(out, false)
		}

	case spinner.TickMsg:
		if m.drag.Phase() == dnd.PhasePending {
			m.spinner, cmd = m.spinner.Update(msg)
		}

	case tea.KeyMsg:
		m, cmd = m.handleKeyPress(msg)

	case tea.MouseMsg:
		m, cmd = m.handleMouse(msg)
	}

	(&m).relayout()
	return m, cmd
}

// handleKeyPress processes keyboard input
func (m BoardModel) handleKeyPress(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	// Global quit
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	m.errorToast = ""
	m.statusMsg = ""

	// Help overlay
	if m.showHelp {
		if msg.String() == "?" || msg.String() == "q" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	// Filter mode
	if m.filterMode {
		switch msg.String() {
		case "enter":
			m.filterMode = false
			m.filterText = m.filterInput.Value()
			m.filterInput.Blur()
			return m, nil
		case "esc":
			m.filterMode = false
			m.filterInput.SetValue(m.filterText)
			m.filterInput.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			return m, cmd
		}
	}

	// Move mode
	if m.moveMode {
		return m.handleMoveMode(msg)
	}

	// Normal navigation
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "/":
		m.filterMode = true
		m.filterInput.Focus()
		return m, textinput.Blink
	case "h", "left":
		if m.selectedColumn > 0 {
			m.selectedColumn--
		}
	case "l", "right":
		if m.selectedColumn < len(m.layout.columnW)-1 {
			m.selectedColumn++
		}
	case "j", "down":
		(&m).moveItemSelection(1)
	case "k", "up":
		(&m).moveItemSelection(-1)
	case "J", "shift+down":
		if m.selectedLane < len(m.layout.laneH)-1 {
			m.selectedLane++
		}
	case "K", "shift+up":
		if m.selectedLane > 0 {
			m.selectedLane--
		}
	case "g":
		(&m).jumpToItem(0)
	case "G":
		(&m).jumpToItem(-1)
	case "ctrl+d":
		(&m).moveItemSelection(pageJumpSize)
	case "ctrl+u":
		(&m).moveItemSelection(-pageJumpSize)
	case "c":
		if key, ok := m.selectedCell(); ok {
			m.collapse.ToggleColumn(key.ColumnID)
		}
	case "s":
		if key, ok := m.selectedCell(); ok {
			m.collapse.ToggleSwimLane(key.SwimLaneID)
		}
	case "0":
		m.collapse.Reset()
	case "m", " ":
		(&m).beginKeyboardMove()
	case "enter", "o":
		if item, ok := m.getSelectedItem(); ok {
			return m, func() tea.Msg { return openDetailMsg{item: item} }
		}
	case "y":
		if item, ok := m.getSelectedItem(); ok {
			if err := clipboard.WriteAll(item.ID); err != nil {
				m.errorToast = fmt.Sprintf("Copy failed: %v", err)
			} else {
				m.statusMsg = fmt.Sprintf("Copied %s", item.ID)
			}
		}
	case "a":
		(&m).cycleAssignee()
	case "r":
		return m, loadBoard(m.opts.BoardPath)
	}

	return m, nil
}

// handleMoveMode handles key presses while an item is being moved with the keyboard
func (m BoardModel) handleMoveMode(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.drag.Cancel()
		m.moveMode = false
	case "h", "left":
		(&m).stepTarget(-1, 0)
	case "l", "right":
		(&m).stepTarget(1, 0)
	case "k", "up":
		(&m).stepTarget(0, -1)
	case "j", "down":
		(&m).stepTarget(0, 1)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		col := int(msg.Runes[0] - '1')
		columns := m.idx.Columns()
		if col < len(columns) {
			target, _ := m.drag.Hovered()
			if !target.Complete() {
				target = m.dragSource()
			}
			target.ColumnID = columns[col].ID
			out := m.drag.Drop(m.idx, dnd.CellTarget(target))
			return m.afterDrop(out, false)
		}
	case "p":
		return m, m.openCellPicker()
	case "enter", "m", " ":
		target, ok := m.drag.Hovered()
		if !ok {
			m.errorToast = "No target cell"
			return m, nil
		}
		out := m.drag.Drop(m.idx, dnd.CellTarget(target))
		return m.afterDrop(out, false)
	}
	return m, nil
}

// beginKeyboardMove starts dragging the selected item.
func (m *BoardModel) beginKeyboardMove() {
	item, ok := m.getSelectedItem()
	if !ok {
		return
	}
	if err := m.drag.Begin(m.idx, item.ID); err != nil {
		m.errorToast = dragError(err)
		return
	}
	m.moveMode = true
}

// stepTarget moves the keyboard drop target by whole columns and lanes.
func (m *BoardModel) stepTarget(dc, dl int) {
	cur, ok := m.drag.Hovered()
	if !ok {
		cur = m.dragSource()
	}
	col, okc := m.idx.ColumnPosition(cur.ColumnID)
	lane, okl := m.idx.LanePosition(cur.SwimLaneID)
	if !okc || !okl {
		return
	}
	col = min(max(col+dc, 0), len(m.idx.Columns())-1)
	lane = min(max(lane+dl, 0), len(m.idx.SwimLanes())-1)
	m.drag.Hover(m.idx, dnd.CellTarget(domain.CellKey{
		ColumnID:   m.idx.Columns()[col].ID,
		SwimLaneID: m.idx.SwimLanes()[lane].ID,
	}))
}

func (m BoardModel) dragSource() domain.CellKey {
	if st := m.drag.State(); st.Session != nil {
		return st.Session.Source
	}
	return domain.CellKey{}
}

// afterDrop reacts to a drop or a settled verdict. Allowed moves were
// already applied to the store by the sink; here they get saved.
func (m BoardModel) afterDrop(out dnd.Outcome, settled bool) (BoardModel, tea.Cmd) {
	m.moveMode = false
	m.mouseDrag = false

	switch out.Kind {
	case dnd.OutcomePending:
		check := out.Check
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			return verdictMsg{verdict: check()}
		})

	case dnd.OutcomeCancelled:
		switch {
		case out.Err != nil:
			m.errorToast = fmt.Sprintf("Move blocked: %v", out.Err)
		case out.Reason != "":
			m.errorToast = "Move rejected: " + out.Reason
		case settled:
			m.errorToast = "Move rejected"
		}

	case dnd.OutcomeMoved:
		moved, err := m.sink.drain()
		if err != nil {
			m.errorToast = fmt.Sprintf("Move failed: %v", err)
			return m, nil
		}
		if len(moved) == 0 {
			return m, nil
		}
		(&m).follow(moved[len(moved)-1])
		return m, m.saveBoard()
	}
	return m, nil
}

// follow moves the selection onto a just-relocated item.
func (m *BoardModel) follow(move domain.Move) {
	m.relayout()
	if col, ok := m.idx.ColumnPosition(move.TargetColumn); ok {
		m.selectedColumn = col
	}
	if lane, ok := m.idx.LanePosition(move.TargetSwimLane); ok {
		m.selectedLane = lane
	}
	key := move.Target()
	for i, item := range m.visible[key] {
		if item.ID == move.ItemID {
			m.selectedItem[key] = i
			if list := m.lists[key]; list != nil {
				list.EnsureVisible(i)
			}
			break
		}
	}
}

func (m BoardModel) saveBoard() tea.Cmd {
	if m.opts.BoardPath == "" {
		return nil
	}
	path := m.opts.BoardPath
	board := m.store.Board()
	return func() tea.Msg {
		return boardSavedMsg{err: boardfile.Save(path, board)}
	}
}

// loadBoard reads the board file in the background.
func loadBoard(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		b, err := boardfile.Load(path)
		return boardLoadedMsg{board: b, err: err}
	}
}

func (m BoardModel) openCellPicker() tea.Cmd {
	source := m.dragSource()
	var cells []cellOption
	for _, lane := range m.idx.SwimLanes() {
		for _, col := range m.idx.Columns() {
			key := domain.CellKey{ColumnID: col.ID, SwimLaneID: lane.ID}
			cells = append(cells, cellOption{
				key:    key,
				column: col.Title,
				lane:   lane.Title,
				count:  m.idx.Count(col.ID, lane.ID),
			})
		}
	}
	return func() tea.Msg { return openCellPickerMsg{cells: cells, source: source} }
}

func dragError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, dnd.ErrBusy) {
		return "A move is still being checked"
	}
	return fmt.Sprintf("Cannot move: %v", err)
}

// cycleAssignee steps the assignee filter through everyone on the board.
func (m *BoardModel) cycleAssignee() {
	names := m.store.Assignees()
	if len(names) == 0 {
		m.assignee = ""
		return
	}
	next := ""
	if m.assignee == "" {
		next = names[0]
	} else {
		for i, name := range names {
			if name == m.assignee && i+1 < len(names) {
				next = names[i+1]
			}
		}
	}
	m.assignee = next
}

// selectedCell returns the cell under the selection cursor.
func (m BoardModel) selectedCell() (domain.CellKey, bool) {
	columns := m.idx.Columns()
	lanes := m.idx.SwimLanes()
	if m.selectedColumn >= len(columns) || m.selectedLane >= len(lanes) {
		return domain.CellKey{}, false
	}
	return domain.CellKey{
		ColumnID:   columns[m.selectedColumn].ID,
		SwimLaneID: lanes[m.selectedLane].ID,
	}, true
}

// getSelectedItem returns the currently selected item
func (m BoardModel) getSelectedItem() (domain.Item, bool) {
	key, ok := m.selectedCell()
	if !ok {
		return domain.Item{}, false
	}
	items := m.visible[key]
	if len(items) == 0 {
		return domain.Item{}, false
	}
	i := m.selectedItem[key]
	if i >= len(items) {
		i = 0
	}
	return items[i], true
}

// moveItemSelection moves the item selection up or down by delta
func (m *BoardModel) moveItemSelection(delta int) {
	key, ok := m.selectedCell()
	if !ok {
		return
	}
	items := m.visible[key]
	if len(items) == 0 {
		return
	}
	i := min(max(m.selectedItem[key]+delta, 0), len(items)-1)
	m.selectedItem[key] = i
	if list := m.lists[key]; list != nil {
		list.EnsureVisible(i)
	}
}

// jumpToItem jumps to a specific item index. Use -1 to jump to the last item.
func (m *BoardModel) jumpToItem(i int) {
	key, ok := m.selectedCell()
	if !ok {
		return
	}
	items := m.visible[key]
	if len(items) == 0 {
		return
	}
	if i < 0 || i >= len(items) {
		i = len(items) - 1
	}
	m.selectedItem[key] = i
	if list := m.lists[key]; list != nil {
		list.EnsureVisible(i)
	}
}
