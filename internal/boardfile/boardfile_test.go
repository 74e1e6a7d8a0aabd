package boardfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robby/gridboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBoard = `
columns:
  - id: todo
    title: To Do
    color: "39"
  - id: done
    title: Done
lanes:
  - id: frontend
    title: Frontend
items:
  - id: A
    title: Login form
    priority: high
    column: todo
    lane: frontend
  - id: B
    title: Orphan
    column: archived
    lane: frontend
`

func TestDecode(t *testing.T) {
	b, err := Decode([]byte(testBoard))
	require.NoError(t, err)

	require.Len(t, b.Columns, 2)
	assert.Equal(t, "39", b.Columns[0].Color)
	require.Len(t, b.SwimLanes, 1)
	require.Len(t, b.Items, 2)
	assert.Equal(t, domain.PriorityHigh, b.Items[0].Priority)
	assert.Equal(t, domain.CellKey{ColumnID: "todo", SwimLaneID: "frontend"}, b.Items[0].Cell())
	assert.Equal(t, "archived", b.Items[1].ColumnID, "dangling references are kept")
}

func TestDecode_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"no columns", "lanes: [{id: a}]", "columns"},
		{"no lanes", "columns: [{id: a}]", "lanes"},
		{"empty column id", "columns: [{title: x}]\nlanes: [{id: a}]", "columns[0].id"},
		{"duplicate lane", "columns: [{id: a}]\nlanes: [{id: x}, {id: x}]", "lanes[1].id"},
		{"duplicate item", "columns: [{id: a}]\nlanes: [{id: x}]\nitems: [{id: i, column: a, lane: x}, {id: i, column: a, lane: x}]", "items[1].id"},
		{"bad priority", "columns: [{id: a}]\nlanes: [{id: x}]\nitems: [{id: i, priority: urgent}]", "items[0].priority"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.yaml))
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	_, err := Decode([]byte("columns: [oops"))
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "board.yaml")
	board := Sample()

	require.NoError(t, Save(path, board))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, SameContent(board, loaded))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSameContent(t *testing.T) {
	a := Sample()
	b := a
	b.Version = 99
	assert.True(t, SameContent(a, b), "version is ignored")

	b.Items = append([]domain.Item(nil), a.Items...)
	b.Items[0].ColumnID = "done"
	assert.False(t, SameContent(a, b))
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testBoard), 0o644))

	w, err := Watch(path, nil)
	require.NoError(t, err)
	defer w.Close()

	// Unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.txt"), []byte("x"), 0o644))
	select {
	case <-w.Changes():
		t.Fatal("change reported for another file")
	case <-time.After(100 * time.Millisecond):
	}

	b, err := Load(path)
	require.NoError(t, err)
	b.Items[0].ColumnID = "done"
	require.NoError(t, Save(path, b))

	select {
	case _, ok := <-w.Changes():
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
}
