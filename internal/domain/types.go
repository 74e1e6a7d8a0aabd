// Package domain defines the board types shared by the grid index, the
// drag-drop controller and the terminal UI. These types carry no behavior
// beyond small helpers; ownership of the item list stays with the caller.
package domain

// Priority is an optional item priority.
type Priority string

// Priority values. The zero value means "unset".
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is unset or one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case "", PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Item is a single task on the board.
type Item struct {
	ID          string   `yaml:"id"`                    // Unique item id
	Title       string   `yaml:"title"`                 // Display title
	Description string   `yaml:"description,omitempty"` // Free-form body (detail view)
	Assignee    string   `yaml:"assignee,omitempty"`    // Assignee login or name
	Priority    Priority `yaml:"priority,omitempty"`    // low, medium, high or unset
	ColumnID    string   `yaml:"column"`                // Column (workflow stage) id
	SwimLaneID  string   `yaml:"lane"`                  // Swim lane id
}

// Cell returns the cell the item claims to belong to. The claim may be
// dangling if the column or lane does not exist.
func (i Item) Cell() CellKey {
	return CellKey{ColumnID: i.ColumnID, SwimLaneID: i.SwimLaneID}
}

// Column is an ordered workflow stage.
type Column struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Color string `yaml:"color,omitempty"` // Opaque color, e.g. "205" or "#ff8800"
}

// SwimLane is an ordered grouping dimension orthogonal to columns.
type SwimLane struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Color string `yaml:"color,omitempty"`
}

// CellKey identifies the intersection of a column and a swim lane.
type CellKey struct {
	ColumnID   string
	SwimLaneID string
}

// String renders the key as "column/lane".
func (k CellKey) String() string {
	return k.ColumnID + "/" + k.SwimLaneID
}

// Complete reports whether both halves of the key are set.
func (k CellKey) Complete() bool {
	return k.ColumnID != "" && k.SwimLaneID != ""
}

// Board is an immutable snapshot of everything a render pass needs.
// Version changes whenever the owner mutates columns, lanes or items, and
// is what consumers compare to decide whether derived state is stale.
type Board struct {
	Version   uint64
	Columns   []Column
	SwimLanes []SwimLane
	Items     []Item
}

// BeforeMove describes a relocation that has not been applied yet. It is
// handed to validation hooks.
type BeforeMove struct {
	ItemID         string
	SourceColumn   string
	SourceSwimLane string
	TargetColumn   string
	TargetSwimLane string
}

// Source returns the cell the item is leaving.
func (b BeforeMove) Source() CellKey {
	return CellKey{ColumnID: b.SourceColumn, SwimLaneID: b.SourceSwimLane}
}

// Target returns the cell the item is entering.
func (b BeforeMove) Target() CellKey {
	return CellKey{ColumnID: b.TargetColumn, SwimLaneID: b.TargetSwimLane}
}

// Move is an allowed relocation. Item is the snapshot taken when the drop
// happened, before the caller applies the move.
type Move struct {
	BeforeMove
	Item Item
}
