// Package grid partitions a board snapshot into cells.
// An Index is built once per snapshot in a single pass and then serves
// cell and item lookups in constant time. It is never mutated after Build.
package grid

import (
	"github.com/robby/gridboard/internal/domain"
)

// Index is the item -> cell partition of one board snapshot.
type Index struct {
	version uint64

	columns []domain.Column
	lanes   []domain.SwimLane

	columnSet map[string]int // column id -> position
	laneSet   map[string]int // lane id -> position

	// Cell contents in snapshot order, keyed by (column, lane)
	cells map[domain.CellKey][]domain.Item

	// Item id -> item, built in the same pass
	items map[string]domain.Item

	// Per-column totals across all lanes (WIP limits, headers)
	columnCounts map[string]int

	// Ids of items that landed in no cell (dangling keys or duplicate ids)
	excluded []string
}

// Build groups the items of a snapshot by (columnId, swimLaneId).
// Items whose column or lane is unknown are excluded from every cell.
// If several items share an id, the first one wins and the rest are
// excluded so no item can appear in two cells.
func Build(board domain.Board) *Index {
	idx := &Index{
		version:      board.Version,
		columns:      board.Columns,
		lanes:        board.SwimLanes,
		columnSet:    make(map[string]int, len(board.Columns)),
		laneSet:      make(map[string]int, len(board.SwimLanes)),
		cells:        make(map[domain.CellKey][]domain.Item),
		items:        make(map[string]domain.Item, len(board.Items)),
		columnCounts: make(map[string]int, len(board.Columns)),
	}

	for i, col := range board.Columns {
		if _, dup := idx.columnSet[col.ID]; !dup {
			idx.columnSet[col.ID] = i
		}
	}
	for i, lane := range board.SwimLanes {
		if _, dup := idx.laneSet[lane.ID]; !dup {
			idx.laneSet[lane.ID] = i
		}
	}

	for _, item := range board.Items {
		if _, dup := idx.items[item.ID]; dup {
			idx.excluded = append(idx.excluded, item.ID)
			continue
		}
		_, colOK := idx.columnSet[item.ColumnID]
		_, laneOK := idx.laneSet[item.SwimLaneID]
		if !colOK || !laneOK {
			idx.excluded = append(idx.excluded, item.ID)
			continue
		}

		key := item.Cell()
		idx.cells[key] = append(idx.cells[key], item)
		idx.items[item.ID] = item
		idx.columnCounts[item.ColumnID]++
	}

	return idx
}

// Version returns the snapshot version the index was built from.
func (idx *Index) Version() uint64 {
	return idx.version
}

// ItemsForCell returns the ordered items of one cell. The returned slice is
// shared with the index and must be treated as read-only; it is clipped so
// appending to it allocates instead of corrupting the neighbouring cell.
// Unknown cells yield nil.
func (idx *Index) ItemsForCell(columnID, swimLaneID string) []domain.Item {
	items := idx.cells[domain.CellKey{ColumnID: columnID, SwimLaneID: swimLaneID}]
	return items[:len(items):len(items)]
}

// Count returns the number of items in one cell.
func (idx *Index) Count(columnID, swimLaneID string) int {
	return len(idx.cells[domain.CellKey{ColumnID: columnID, SwimLaneID: swimLaneID}])
}

// ColumnCount returns the number of placed items in a column across lanes.
func (idx *Index) ColumnCount(columnID string) int {
	return idx.columnCounts[columnID]
}

// LaneCount returns the number of placed items in a lane across columns.
func (idx *Index) LaneCount(swimLaneID string) int {
	total := 0
	for _, col := range idx.columns {
		total += idx.Count(col.ID, swimLaneID)
	}
	return total
}

// LookupItem finds a placed item by id.
func (idx *Index) LookupItem(id string) (domain.Item, bool) {
	item, ok := idx.items[id]
	return item, ok
}

// CellOf returns the cell currently holding the item.
func (idx *Index) CellOf(id string) (domain.CellKey, bool) {
	item, ok := idx.items[id]
	if !ok {
		return domain.CellKey{}, false
	}
	return item.Cell(), true
}

// HasColumn reports whether the column exists in the snapshot.
func (idx *Index) HasColumn(id string) bool {
	_, ok := idx.columnSet[id]
	return ok
}

// HasSwimLane reports whether the swim lane exists in the snapshot.
func (idx *Index) HasSwimLane(id string) bool {
	_, ok := idx.laneSet[id]
	return ok
}

// HasCell reports whether both halves of the key exist.
func (idx *Index) HasCell(key domain.CellKey) bool {
	return idx.HasColumn(key.ColumnID) && idx.HasSwimLane(key.SwimLaneID)
}

// Columns returns the snapshot's columns in display order.
func (idx *Index) Columns() []domain.Column {
	return idx.columns
}

// SwimLanes returns the snapshot's swim lanes in display order.
func (idx *Index) SwimLanes() []domain.SwimLane {
	return idx.lanes
}

// ColumnPosition returns the display position of a column.
func (idx *Index) ColumnPosition(id string) (int, bool) {
	pos, ok := idx.columnSet[id]
	return pos, ok
}

// LanePosition returns the display position of a swim lane.
func (idx *Index) LanePosition(id string) (int, bool) {
	pos, ok := idx.laneSet[id]
	return pos, ok
}

// Len returns the number of items placed in some cell.
func (idx *Index) Len() int {
	return len(idx.items)
}

// Excluded returns the ids of items that are not in any cell.
func (idx *Index) Excluded() []string {
	out := make([]string, len(idx.excluded))
	copy(out, idx.excluded)
	return out
}

// Cache holds the index for the most recent snapshot and rebuilds it only
// when the snapshot version changes.
type Cache struct {
	current *Index
	builds  int
}

// Index returns an index for the board, reusing the cached one when the
// board's version matches.
func (c *Cache) Index(board domain.Board) *Index {
	if c.current != nil && c.current.version == board.Version {
		return c.current
	}
	c.current = Build(board)
	c.builds++
	return c.current
}

// Builds returns how many times the cache has rebuilt its index.
func (c *Cache) Builds() int {
	return c.builds
}
