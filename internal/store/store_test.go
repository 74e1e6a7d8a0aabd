package store

import (
	"testing"

	"github.com/robby/gridboard/internal/domain"
	"github.com/robby/gridboard/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test fixtures
func createTestColumns() []domain.Column {
	return []domain.Column{
		{ID: "todo", Title: "To Do"},
		{ID: "doing", Title: "Doing"},
		{ID: "done", Title: "Done"},
	}
}

func createTestLanes() []domain.SwimLane {
	return []domain.SwimLane{
		{ID: "frontend", Title: "Frontend"},
		{ID: "backend", Title: "Backend"},
	}
}

func createTestItems() []domain.Item {
	return []domain.Item{
		{ID: "A", Title: "Login form", Assignee: "ana", ColumnID: "todo", SwimLaneID: "frontend"},
		{ID: "B", Title: "Session API", Assignee: "bo", ColumnID: "doing", SwimLaneID: "backend"},
		{ID: "C", Title: "Navbar", Assignee: "ana", ColumnID: "todo", SwimLaneID: "frontend"},
		{ID: "D", Title: "Migrations", ColumnID: "done", SwimLaneID: "backend"},
	}
}

func createTestStore() *Store {
	s := New()
	s.SetColumns(createTestColumns())
	s.SetSwimLanes(createTestLanes())
	s.UpsertItems(createTestItems())
	return s
}

func moveOf(t *testing.T, s *Store, id, column, lane string) domain.Move {
	t.Helper()
	item, err := s.GetItem(id)
	require.NoError(t, err)
	return domain.Move{
		BeforeMove: domain.BeforeMove{
			ItemID:         id,
			SourceColumn:   item.ColumnID,
			SourceSwimLane: item.SwimLaneID,
			TargetColumn:   column,
			TargetSwimLane: lane,
		},
		Item: item,
	}
}

func ids(items []domain.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestNew(t *testing.T) {
	s := New()
	assert.NotNil(t, s)
	assert.Empty(t, s.Items())
	assert.Equal(t, uint64(0), s.Version())
	assert.False(t, s.CanRollback())
}

// TestUpsertItems verifies adding and updating items
func TestUpsertItems(t *testing.T) {
	s := createTestStore()
	assert.Equal(t, []string{"A", "B", "C", "D"}, ids(s.Items()))

	t.Run("update keeps position", func(t *testing.T) {
		s.UpsertItems([]domain.Item{{ID: "B", Title: "Session API v2", ColumnID: "doing", SwimLaneID: "backend"}})
		item, err := s.GetItem("B")
		require.NoError(t, err)
		assert.Equal(t, "Session API v2", item.Title)
		assert.Equal(t, []string{"A", "B", "C", "D"}, ids(s.Items()))
	})

	t.Run("new item appended", func(t *testing.T) {
		s.UpsertItems([]domain.Item{{ID: "E", ColumnID: "todo", SwimLaneID: "backend"}})
		assert.Equal(t, []string{"A", "B", "C", "D", "E"}, ids(s.Items()))
	})
}

func TestGetItem(t *testing.T) {
	s := createTestStore()

	item, err := s.GetItem("A")
	require.NoError(t, err)
	assert.Equal(t, "Login form", item.Title)

	_, err = s.GetItem("nonexistent")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

// TestBoardSnapshot verifies snapshots are copies tagged with the version
func TestBoardSnapshot(t *testing.T) {
	s := createTestStore()
	before := s.Board()

	before.Items[0].Title = "mutated"
	before.Columns[0].Title = "mutated"

	item, _ := s.GetItem("A")
	assert.Equal(t, "Login form", item.Title, "snapshot mutation must not leak back")
	assert.Equal(t, "To Do", s.Columns()[0].Title)

	require.NoError(t, s.ApplyMove(moveOf(t, s, "A", "done", "frontend")))
	after := s.Board()
	assert.Greater(t, after.Version, before.Version)
	assert.Equal(t, "todo", before.Items[0].ColumnID, "old snapshot is unchanged")
}

// TestApplyMove verifies optimistic moves
func TestApplyMove(t *testing.T) {
	s := createTestStore()

	t.Run("successful move", func(t *testing.T) {
		err := s.ApplyMove(moveOf(t, s, "A", "done", "backend"))
		require.NoError(t, err)

		item, err := s.GetItem("A")
		require.NoError(t, err)
		assert.Equal(t, "done", item.ColumnID)
		assert.Equal(t, "backend", item.SwimLaneID)

		// Moved item lands last in its new cell
		idx := grid.Build(s.Board())
		cell := idx.ItemsForCell("done", "backend")
		require.Len(t, cell, 2)
		assert.Equal(t, "A", cell[1].ID)
		assert.Equal(t, []string{"C"}, ids(idx.ItemsForCell("todo", "frontend")))
	})

	t.Run("nonexistent item", func(t *testing.T) {
		err := s.ApplyMove(domain.Move{BeforeMove: domain.BeforeMove{ItemID: "nonexistent"}})
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("invalid target", func(t *testing.T) {
		err := s.ApplyMove(moveOf(t, s, "B", "archived", "backend"))
		assert.ErrorIs(t, err, ErrInvalidTarget)

		item, _ := s.GetItem("B")
		assert.Equal(t, "doing", item.ColumnID, "failed move leaves item in place")
	})

	t.Run("stale source", func(t *testing.T) {
		move := moveOf(t, s, "C", "done", "frontend")
		move.SourceColumn = "doing"
		err := s.ApplyMove(move)
		assert.ErrorIs(t, err, ErrStaleMove)
	})
}

// TestRollbackMove verifies move rollback functionality
func TestRollbackMove(t *testing.T) {
	t.Run("successful rollback", func(t *testing.T) {
		s := createTestStore()
		original := ids(s.Items())

		require.NoError(t, s.ApplyMove(moveOf(t, s, "A", "done", "backend")))
		moved, _ := s.GetItem("A")
		assert.Equal(t, "done", moved.ColumnID)
		version := s.Version()

		require.NoError(t, s.RollbackMove())

		restored, err := s.GetItem("A")
		require.NoError(t, err)
		assert.Equal(t, "todo", restored.ColumnID)
		assert.Equal(t, "frontend", restored.SwimLaneID)
		assert.Equal(t, original, ids(s.Items()), "order restored")
		assert.Greater(t, s.Version(), version)
	})

	t.Run("no rollback state", func(t *testing.T) {
		s := New()
		err := s.RollbackMove()
		assert.ErrorIs(t, err, ErrNoRollback)
	})

	t.Run("rollback clears state", func(t *testing.T) {
		s := createTestStore()
		require.NoError(t, s.ApplyMove(moveOf(t, s, "A", "done", "backend")))
		require.NoError(t, s.RollbackMove())
		assert.ErrorIs(t, s.RollbackMove(), ErrNoRollback)
	})

	t.Run("removed item drops rollback", func(t *testing.T) {
		s := createTestStore()
		require.NoError(t, s.ApplyMove(moveOf(t, s, "A", "done", "backend")))
		require.NoError(t, s.RemoveItem("A"))
		assert.False(t, s.CanRollback())
	})
}

func TestRemoveItem(t *testing.T) {
	s := createTestStore()
	require.NoError(t, s.RemoveItem("B"))
	assert.Equal(t, []string{"A", "C", "D"}, ids(s.Items()))
	assert.ErrorIs(t, s.RemoveItem("B"), ErrItemNotFound)
}

func TestAssignees(t *testing.T) {
	s := createTestStore()
	assert.Equal(t, []string{"ana", "bo"}, s.Assignees())
}

func TestReplace(t *testing.T) {
	s := createTestStore()
	require.NoError(t, s.ApplyMove(moveOf(t, s, "A", "done", "backend")))
	version := s.Version()

	s.Replace(domain.Board{
		Columns:   []domain.Column{{ID: "x"}},
		SwimLanes: []domain.SwimLane{{ID: "y"}},
		Items:     []domain.Item{{ID: "Z", ColumnID: "x", SwimLaneID: "y"}},
	})

	assert.Equal(t, []string{"Z"}, ids(s.Items()))
	assert.Len(t, s.Columns(), 1)
	assert.False(t, s.CanRollback())
	assert.Greater(t, s.Version(), version)
}

// TestClear verifies items are cleared and metadata preserved
func TestClear(t *testing.T) {
	s := createTestStore()
	s.Clear()

	assert.Empty(t, s.items)
	assert.Empty(t, s.Items())
	assert.Len(t, s.Columns(), 3)
	assert.Len(t, s.SwimLanes(), 2)
}

// TestReset verifies complete store reset
func TestReset(t *testing.T) {
	s := createTestStore()
	version := s.Version()
	s.Reset()

	assert.Empty(t, s.items)
	assert.Empty(t, s.Columns())
	assert.Empty(t, s.SwimLanes())
	assert.Greater(t, s.Version(), version)
}
