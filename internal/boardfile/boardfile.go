// Package boardfile reads and writes boards as YAML and watches the file for
// external edits.
package boardfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"github.com/robby/gridboard/internal/domain"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalid indicates the file parsed but does not describe a usable board.
	ErrInvalid = errors.New("invalid board file")
)

// File is the on-disk shape of a board.
type File struct {
	Columns []domain.Column   `yaml:"columns"`
	Lanes   []domain.SwimLane `yaml:"lanes"`
	Items   []domain.Item     `yaml:"items"`
}

// Load reads and validates the board at path.
func Load(path string) (domain.Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Board{}, fmt.Errorf("read board: %w", err)
	}
	board, err := Decode(data)
	if err != nil {
		return domain.Board{}, fmt.Errorf("%s: %w", path, err)
	}
	return board, nil
}

// Decode parses and validates a YAML board.
func Decode(data []byte) (domain.Board, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.Board{}, fmt.Errorf("parse board: %w", err)
	}
	if err := f.Validate(); err != nil {
		return domain.Board{}, err
	}
	return domain.Board{
		Columns:   f.Columns,
		SwimLanes: f.Lanes,
		Items:     f.Items,
	}, nil
}

// Validate checks identifiers and priorities. Items pointing at unknown
// columns or lanes are allowed; they are simply not shown.
func (f File) Validate() error {
	if len(f.Columns) == 0 {
		return fmt.Errorf("%w: columns: at least one column is required", ErrInvalid)
	}
	if len(f.Lanes) == 0 {
		return fmt.Errorf("%w: lanes: at least one lane is required", ErrInvalid)
	}

	seen := make(map[string]struct{})
	for i, c := range f.Columns {
		if err := unique(seen, "columns", i, c.ID); err != nil {
			return err
		}
	}
	seen = make(map[string]struct{})
	for i, l := range f.Lanes {
		if err := unique(seen, "lanes", i, l.ID); err != nil {
			return err
		}
	}
	seen = make(map[string]struct{})
	for i, item := range f.Items {
		if err := unique(seen, "items", i, item.ID); err != nil {
			return err
		}
		if !item.Priority.Valid() {
			return fmt.Errorf("%w: items[%d].priority: unknown value %q", ErrInvalid, i, item.Priority)
		}
	}
	return nil
}

func unique(seen map[string]struct{}, field string, i int, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s[%d].id: must not be empty", ErrInvalid, field, i)
	}
	if _, ok := seen[id]; ok {
		return fmt.Errorf("%w: %s[%d].id: duplicate %q", ErrInvalid, field, i, id)
	}
	seen[id] = struct{}{}
	return nil
}

// Encode renders b as YAML.
func Encode(b domain.Board) ([]byte, error) {
	data, err := yaml.Marshal(File{Columns: b.Columns, Lanes: b.SwimLanes, Items: b.Items})
	if err != nil {
		return nil, fmt.Errorf("encode board: %w", err)
	}
	return data, nil
}

// Save writes b to path atomically: a temporary file in the same directory
// is renamed over the target.
func Save(path string, b domain.Board) error {
	data, err := Encode(b)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create board dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp board: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write board: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write board: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace board: %w", err)
	}
	return nil
}

// SameContent reports whether two boards hold the same columns, lanes and
// items, ignoring their versions.
func SameContent(a, b domain.Board) bool {
	return slices.Equal(a.Columns, b.Columns) &&
		slices.Equal(a.SwimLanes, b.SwimLanes) &&
		slices.Equal(a.Items, b.Items)
}

// Sample returns a small example board used by `gridboard init`.
func Sample() domain.Board {
	id := func() string { return uuid.NewString()[:8] }
	return domain.Board{
		Columns: []domain.Column{
			{ID: "todo", Title: "To Do", Color: "39"},
			{ID: "doing", Title: "In Progress", Color: "214"},
			{ID: "review", Title: "Review", Color: "170"},
			{ID: "done", Title: "Done", Color: "42"},
		},
		SwimLanes: []domain.SwimLane{
			{ID: "frontend", Title: "Frontend", Color: "75"},
			{ID: "backend", Title: "Backend", Color: "141"},
			{ID: "ops", Title: "Ops", Color: "203"},
		},
		Items: []domain.Item{
			{ID: id(), Title: "Login form validation", Assignee: "ana", Priority: domain.PriorityHigh, ColumnID: "todo", SwimLaneID: "frontend"},
			{ID: id(), Title: "Session token refresh", Assignee: "bo", Priority: domain.PriorityMedium, ColumnID: "doing", SwimLaneID: "backend"},
			{ID: id(), Title: "Navbar overflow on small screens", Assignee: "ana", ColumnID: "review", SwimLaneID: "frontend"},
			{ID: id(), Title: "Nightly backup job", Assignee: "cy", Priority: domain.PriorityLow, ColumnID: "todo", SwimLaneID: "ops"},
			{ID: id(), Title: "Schema migration for lanes", Assignee: "bo", ColumnID: "done", SwimLaneID: "backend", Description: "Add a lane column to the items table and backfill it from the team field."},
		},
	}
}
