package hook

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robby/gridboard/internal/dnd"
	"github.com/robby/gridboard/internal/domain"
	"github.com/robby/gridboard/internal/grid"
)

// WIPLimit denies moves into a column that already holds its limit of
// items. Moves between lanes of the same column never change the count and
// are always allowed. Limits of zero or less mean unlimited. Column ids are
// matched case-insensitively, since config keys arrive lowercased.
//
// Counts come from the last index passed to Observe, so the validator can
// run on another goroutine than the one rebuilding the index.
type WIPLimit struct {
	limits map[string]int

	mu     sync.RWMutex
	counts map[string]int
}

// NewWIPLimit creates a validator for the given column limits.
func NewWIPLimit(limits map[string]int) *WIPLimit {
	lowered := make(map[string]int, len(limits))
	for id, n := range limits {
		lowered[strings.ToLower(id)] = n
	}
	return &WIPLimit{
		limits: lowered,
		counts: make(map[string]int),
	}
}

// Observe records the per-column item counts of idx.
func (w *WIPLimit) Observe(idx *grid.Index) {
	counts := make(map[string]int, len(idx.Columns()))
	for _, col := range idx.Columns() {
		counts[col.ID] = idx.ColumnCount(col.ID)
	}

	w.mu.Lock()
	w.counts = counts
	w.mu.Unlock()
}

// Limit returns the limit of a column, or 0 when it has none.
func (w *WIPLimit) Limit(columnID string) int {
	return max(w.limits[strings.ToLower(columnID)], 0)
}

// Validate allows the move unless the target column is full, in which case
// it returns a dnd.Denial.
func (w *WIPLimit) Validate(_ context.Context, move domain.BeforeMove) (bool, error) {
	if move.SourceColumn == move.TargetColumn {
		return true, nil
	}
	limit := w.Limit(move.TargetColumn)
	if limit == 0 {
		return true, nil
	}

	w.mu.RLock()
	count := w.counts[move.TargetColumn]
	w.mu.RUnlock()

	if count >= limit {
		return false, dnd.Deny(fmt.Sprintf("%s is at its WIP limit of %d", move.TargetColumn, limit))
	}
	return true, nil
}
