// Package store owns the canonical item list of a board.
// The drag-drop controller never mutates items; it emits moves that the
// application applies here. Every mutation bumps the version, and Board()
// hands out immutable snapshots keyed by that version so the grid index
// knows when to rebuild.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/robby/gridboard/internal/domain"
)

var (
	// ErrItemNotFound indicates the requested item does not exist.
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidTarget indicates a move names a column or lane that does not exist.
	ErrInvalidTarget = errors.New("invalid target cell")
	// ErrNoRollback indicates there is no applied move to revert.
	ErrNoRollback = errors.New("no rollback state available")
	// ErrStaleMove indicates the item is no longer where the move expected it.
	ErrStaleMove = errors.New("item moved since drop")
)

// Store manages the in-memory state of one board. It is owned by a single
// event loop and is not safe for concurrent use.
type Store struct {
	columns []domain.Column
	lanes   []domain.SwimLane

	// Item storage
	items map[string]*domain.Item // ID -> Item
	order []string                // Board order of item IDs

	version uint64

	// Rollback state for optimistic updates
	rollback *rollbackState
}

type rollbackState struct {
	item     domain.Item
	position int
}

// New creates a new empty Store instance.
func New() *Store {
	return &Store{
		items: make(map[string]*domain.Item),
	}
}

// Version returns the current snapshot version.
func (s *Store) Version() uint64 {
	return s.version
}

// SetColumns replaces the ordered column list.
func (s *Store) SetColumns(columns []domain.Column) {
	s.columns = slices.Clone(columns)
	s.bump()
}

// Columns returns the ordered column list.
func (s *Store) Columns() []domain.Column {
	return slices.Clone(s.columns)
}

// SetSwimLanes replaces the ordered swim lane list.
func (s *Store) SetSwimLanes(lanes []domain.SwimLane) {
	s.lanes = slices.Clone(lanes)
	s.bump()
}

// SwimLanes returns the ordered swim lane list.
func (s *Store) SwimLanes() []domain.SwimLane {
	return slices.Clone(s.lanes)
}

// UpsertItems adds or updates multiple items. Existing items keep their
// position; new ones are appended in the order given.
func (s *Store) UpsertItems(items []domain.Item) {
	for _, item := range items {
		if existing, ok := s.items[item.ID]; ok {
			*existing = item
			continue
		}
		s.items[item.ID] = &item
		s.order = append(s.order, item.ID)
	}
	s.bump()
}

// RemoveItem deletes an item.
func (s *Store) RemoveItem(id string) error {
	if _, ok := s.items[id]; !ok {
		return ErrItemNotFound
	}
	delete(s.items, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	if s.rollback != nil && s.rollback.item.ID == id {
		s.rollback = nil
	}
	s.bump()
	return nil
}

// Replace swaps the whole board for b, e.g. after the board file changed on
// disk. The version keeps increasing and pending rollback state is dropped.
func (s *Store) Replace(b domain.Board) {
	s.columns = slices.Clone(b.Columns)
	s.lanes = slices.Clone(b.SwimLanes)
	s.items = make(map[string]*domain.Item, len(b.Items))
	s.order = s.order[:0]
	s.rollback = nil
	s.UpsertItems(b.Items)
}

// GetItem retrieves an item by ID, returning ErrItemNotFound if not found.
func (s *Store) GetItem(id string) (domain.Item, error) {
	item, ok := s.items[id]
	if !ok {
		return domain.Item{}, ErrItemNotFound
	}
	return *item, nil
}

// Items returns all items in board order.
func (s *Store) Items() []domain.Item {
	items := make([]domain.Item, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, *s.items[id])
	}
	return items
}

// Board returns an immutable snapshot of the current state.
func (s *Store) Board() domain.Board {
	return domain.Board{
		Version:   s.version,
		Columns:   s.Columns(),
		SwimLanes: s.SwimLanes(),
		Items:     s.Items(),
	}
}

// Assignees returns the distinct non-empty assignees, sorted.
func (s *Store) Assignees() []string {
	seen := make(map[string]struct{})
	for _, item := range s.items {
		if item.Assignee != "" {
			seen[item.Assignee] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateTarget checks that key names an existing column and lane.
func (s *Store) ValidateTarget(key domain.CellKey) error {
	hasColumn := slices.ContainsFunc(s.columns, func(c domain.Column) bool { return c.ID == key.ColumnID })
	hasLane := slices.ContainsFunc(s.lanes, func(l domain.SwimLane) bool { return l.ID == key.SwimLaneID })
	if !hasColumn || !hasLane {
		return fmt.Errorf("%w: %s", ErrInvalidTarget, key)
	}
	return nil
}

// ApplyMove performs an optimistic move of an item to a new cell. The item
// is placed at the end of the board order, so it lands last in its target
// cell. The previous state is saved for potential rollback.
func (s *Store) ApplyMove(move domain.Move) error {
	item, ok := s.items[move.ItemID]
	if !ok {
		return ErrItemNotFound
	}
	if item.Cell() != move.Source() {
		return fmt.Errorf("%w: %s is in %s", ErrStaleMove, move.ItemID, item.Cell())
	}
	if err := s.ValidateTarget(move.Target()); err != nil {
		return err
	}

	position := slices.Index(s.order, move.ItemID)
	s.rollback = &rollbackState{item: *item, position: position}

	item.ColumnID = move.TargetColumn
	item.SwimLaneID = move.TargetSwimLane
	s.order = append(slices.Delete(s.order, position, position+1), move.ItemID)
	s.bump()

	return nil
}

// RollbackMove reverts the last ApplyMove operation.
// This should be called when persisting the move fails.
func (s *Store) RollbackMove() error {
	if s.rollback == nil {
		return ErrNoRollback
	}

	prev := s.rollback
	s.rollback = nil

	item, ok := s.items[prev.item.ID]
	if !ok {
		return ErrItemNotFound
	}
	*item = prev.item

	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == prev.item.ID })
	position := min(prev.position, len(s.order))
	s.order = slices.Insert(s.order, position, prev.item.ID)
	s.bump()

	return nil
}

// CanRollback reports whether a move can be reverted.
func (s *Store) CanRollback() bool {
	return s.rollback != nil
}

// Clear removes all items, preserving columns and lanes.
func (s *Store) Clear() {
	s.items = make(map[string]*domain.Item)
	s.order = nil
	s.rollback = nil
	s.bump()
}

// Reset completely resets the store to initial state. The version keeps
// increasing so cached indexes are never reused.
func (s *Store) Reset() {
	s.columns = nil
	s.lanes = nil
	s.Clear()
}

func (s *Store) bump() {
	s.version++
}
