package dnd

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/robby/gridboard/internal/domain"
	"github.com/robby/gridboard/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test fixtures
func createTestIndex() *grid.Index {
	return grid.Build(domain.Board{
		Version: 1,
		Columns: []domain.Column{
			{ID: "todo", Title: "To Do"},
			{ID: "doing", Title: "Doing"},
			{ID: "done", Title: "Done"},
		},
		SwimLanes: []domain.SwimLane{
			{ID: "frontend", Title: "Frontend"},
			{ID: "backend", Title: "Backend"},
		},
		Items: []domain.Item{
			{ID: "A", Title: "Login form", ColumnID: "todo", SwimLaneID: "frontend"},
			{ID: "B", Title: "Session API", ColumnID: "doing", SwimLaneID: "backend"},
		},
	})
}

var (
	todoFront = domain.CellKey{ColumnID: "todo", SwimLaneID: "frontend"}
	doneBack  = domain.CellKey{ColumnID: "done", SwimLaneID: "backend"}
)

type recorder struct {
	drops []domain.Move
	moves [][3]string
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnDrop: func(m domain.Move) { r.drops = append(r.drops, m) },
		OnItemMove: func(itemID, columnID, swimLaneID string) {
			r.moves = append(r.moves, [3]string{itemID, columnID, swimLaneID})
		},
	}
}

func TestDrop_NoValidatorEmitsMove(t *testing.T) {
	idx := createTestIndex()
	rec := &recorder{}
	c := New(WithCallbacks(rec.callbacks()))

	require.NoError(t, c.Begin(idx, "A"))
	assert.Equal(t, PhaseDragging, c.Phase())

	out := c.Drop(idx, CellTarget(doneBack))
	require.Equal(t, OutcomeMoved, out.Kind)
	require.NotNil(t, out.Move)
	assert.Equal(t, PhaseIdle, c.Phase())

	want := domain.BeforeMove{
		ItemID:         "A",
		SourceColumn:   "todo",
		SourceSwimLane: "frontend",
		TargetColumn:   "done",
		TargetSwimLane: "backend",
	}
	require.Len(t, rec.drops, 1)
	assert.Equal(t, want, rec.drops[0].BeforeMove)
	assert.Equal(t, "Login form", rec.drops[0].Item.Title)
	require.Len(t, rec.moves, 1)
	assert.Equal(t, [3]string{"A", "done", "backend"}, rec.moves[0])
}

func TestDrop_VetoSuppressesCallbacks(t *testing.T) {
	idx := createTestIndex()
	rec := &recorder{}
	var seen []domain.BeforeMove
	veto := ValidatorFunc(func(_ context.Context, m domain.BeforeMove) (bool, error) {
		seen = append(seen, m)
		return false, nil
	})
	c := New(WithValidator(veto), WithCallbacks(rec.callbacks()))

	require.NoError(t, c.Begin(idx, "A"))
	out := c.DropSync(idx, CellTarget(doneBack))

	assert.Equal(t, OutcomeCancelled, out.Kind)
	assert.NoError(t, out.Err)
	assert.Empty(t, rec.drops)
	assert.Empty(t, rec.moves)
	assert.Equal(t, PhaseIdle, c.Phase())
	require.Len(t, seen, 1)
	assert.Equal(t, doneBack, seen[0].Target())
	assert.Equal(t, todoFront, seen[0].Source())
}

func TestDrop_AllowingValidator(t *testing.T) {
	idx := createTestIndex()
	rec := &recorder{}
	ok := ValidatorFunc(func(context.Context, domain.BeforeMove) (bool, error) { return true, nil })
	c := New(WithValidator(ok), WithCallbacks(rec.callbacks()))

	require.NoError(t, c.Begin(idx, "A"))
	out := c.Drop(idx, CellTarget(doneBack))
	require.Equal(t, OutcomePending, out.Kind)
	require.NotNil(t, out.Check)
	assert.Equal(t, PhasePending, c.Phase())
	assert.Empty(t, rec.drops, "nothing is emitted before the verdict")

	out = c.Settle(out.Check())
	assert.Equal(t, OutcomeMoved, out.Kind)
	assert.Len(t, rec.drops, 1)
	assert.Len(t, rec.moves, 1)
}

func TestDrop_SameCellIsNoop(t *testing.T) {
	idx := createTestIndex()
	rec := &recorder{}
	called := false
	c := New(
		WithCallbacks(rec.callbacks()),
		WithValidator(ValidatorFunc(func(context.Context, domain.BeforeMove) (bool, error) {
			called = true
			return true, nil
		})),
	)

	require.NoError(t, c.Begin(idx, "A"))
	out := c.Drop(idx, CellTarget(todoFront))

	assert.Equal(t, OutcomeNoop, out.Kind)
	assert.False(t, called, "validator is not consulted for a no-op")
	assert.Empty(t, rec.drops)
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestDrop_UnresolvableTargetCancels(t *testing.T) {
	idx := createTestIndex()
	rec := &recorder{}
	c := New(WithCallbacks(rec.callbacks()))

	cases := []struct {
		name   string
		target DropTarget
	}{
		{"missing lane", DropTarget{ColumnID: "done"}},
		{"missing column", DropTarget{SwimLaneID: "backend"}},
		{"unknown cell", DropTarget{ColumnID: "archived", SwimLaneID: "backend"}},
		{"point outside regions", PointTarget(500, 500)},
		{"nothing", DropTarget{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, c.Begin(idx, "A"))
			out := c.Drop(idx, tc.target)
			assert.Equal(t, OutcomeCancelled, out.Kind)
			assert.Equal(t, PhaseIdle, c.Phase())
		})
	}
	assert.Empty(t, rec.drops)
}

func TestDrop_ItemRemovedMidDrag(t *testing.T) {
	idx := createTestIndex()
	rec := &recorder{}
	c := New(WithCallbacks(rec.callbacks()))

	require.NoError(t, c.Begin(idx, "A"))

	// The caller's list changed while dragging and no longer contains A
	shrunk := grid.Build(domain.Board{
		Version:   2,
		Columns:   idx.Columns(),
		SwimLanes: idx.SwimLanes(),
		Items:     idx.ItemsForCell("doing", "backend"),
	})
	out := c.Drop(shrunk, CellTarget(doneBack))

	assert.Equal(t, OutcomeCancelled, out.Kind)
	assert.Empty(t, rec.drops)
}

func TestBegin_UnknownItem(t *testing.T) {
	c := New()
	err := c.Begin(createTestIndex(), "zzz")
	assert.ErrorIs(t, err, ErrUnknownItem)
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestBegin_SingleSession(t *testing.T) {
	idx := createTestIndex()
	rec := &recorder{}
	release := make(chan struct{})
	slow := ValidatorFunc(func(ctx context.Context, _ domain.BeforeMove) (bool, error) {
		select {
		case <-release:
			return true, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	})
	c := New(WithValidator(slow), WithCallbacks(rec.callbacks()))

	require.NoError(t, c.Begin(idx, "A"))
	assert.ErrorIs(t, c.Begin(idx, "B"), ErrBusy, "second drag while dragging")

	out := c.Drop(idx, CellTarget(doneBack))
	require.Equal(t, OutcomePending, out.Kind)

	verdicts := make(chan Verdict, 1)
	go func() { verdicts <- out.Check() }()

	// The hook is outstanding: new gestures and cancellation are refused
	assert.ErrorIs(t, c.Begin(idx, "B"), ErrBusy)
	assert.False(t, c.Cancel())
	assert.Equal(t, OutcomeIgnored, c.Drop(idx, CellTarget(todoFront)).Kind)

	close(release)
	settled := c.Settle(<-verdicts)
	assert.Equal(t, OutcomeMoved, settled.Kind)
	require.Len(t, rec.drops, 1)
	assert.Equal(t, "A", rec.drops[0].ItemID)

	// Idle again, B can be dragged now
	assert.NoError(t, c.Begin(idx, "B"))
}

func TestSettle_StaleVerdictIgnored(t *testing.T) {
	idx := createTestIndex()
	rec := &recorder{}
	ok := ValidatorFunc(func(context.Context, domain.BeforeMove) (bool, error) { return true, nil })
	c := New(WithValidator(ok), WithCallbacks(rec.callbacks()))

	require.NoError(t, c.Begin(idx, "A"))
	first := c.Drop(idx, CellTarget(doneBack))
	require.Equal(t, OutcomePending, first.Kind)
	firstVerdict := first.Check()
	require.Equal(t, OutcomeMoved, c.Settle(firstVerdict).Kind)

	// Replaying the same verdict does nothing
	assert.Equal(t, OutcomeIgnored, c.Settle(firstVerdict).Kind)

	require.NoError(t, c.Begin(idx, "B"))
	second := c.Drop(idx, CellTarget(doneBack))
	require.Equal(t, OutcomePending, second.Kind)

	assert.Equal(t, OutcomeIgnored, c.Settle(firstVerdict).Kind, "verdict of another session")
	assert.Equal(t, PhasePending, c.Phase())

	assert.Equal(t, OutcomeMoved, c.Settle(second.Check()).Kind)
	assert.Len(t, rec.drops, 2)
}

func TestCheck_FailuresDeny(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name    string
		v       ValidatorFunc
		wantErr error
	}{
		{
			name:    "error",
			v:       func(context.Context, domain.BeforeMove) (bool, error) { return true, boom },
			wantErr: boom,
		},
		{
			name:    "panic",
			v:       func(context.Context, domain.BeforeMove) (bool, error) { panic("hook exploded") },
			wantErr: ErrValidatorPanic,
		},
		{
			name: "timeout ignoring context",
			v: func(context.Context, domain.BeforeMove) (bool, error) {
				time.Sleep(time.Second)
				return true, nil
			},
			wantErr: ErrValidationTimeout,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			idx := createTestIndex()
			rec := &recorder{}
			c := New(
				WithValidator(tc.v),
				WithTimeout(20*time.Millisecond),
				WithCallbacks(rec.callbacks()),
			)

			require.NoError(t, c.Begin(idx, "A"))
			out := c.DropSync(idx, CellTarget(doneBack))

			assert.Equal(t, OutcomeCancelled, out.Kind)
			assert.ErrorIs(t, out.Err, tc.wantErr)
			assert.Empty(t, rec.drops)
			assert.Empty(t, rec.moves)
			assert.Equal(t, PhaseIdle, c.Phase())
		})
	}
}

func TestSettle_DenialCarriesReason(t *testing.T) {
	idx := createTestIndex()
	rec := &recorder{}
	c := New(
		WithValidator(ValidatorFunc(func(context.Context, domain.BeforeMove) (bool, error) {
			return false, fmt.Errorf("checked: %w", Deny("done is frozen"))
		})),
		WithCallbacks(rec.callbacks()),
	)

	require.NoError(t, c.Begin(idx, "A"))
	out := c.DropSync(idx, CellTarget(doneBack))

	assert.Equal(t, OutcomeCancelled, out.Kind)
	assert.NoError(t, out.Err, "a denial is a veto, not a failure")
	assert.Equal(t, "done is frozen", out.Reason)
	assert.Empty(t, rec.drops)
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestDrop_IdentifierBeatsCoordinates(t *testing.T) {
	idx := createTestIndex()
	reg := NewRegistry()
	reg.Set(doneBack, Rect{X: 0, Y: 0, W: 10, H: 10})
	reg.Set(domain.CellKey{ColumnID: "doing", SwimLaneID: "frontend"}, Rect{X: 10, Y: 0, W: 10, H: 10})
	c := New(WithRegistry(reg))

	// Point lands in done/backend but the identifier says doing/frontend
	require.NoError(t, c.Begin(idx, "A"))
	out := c.Drop(idx, DropTarget{ColumnID: "doing", SwimLaneID: "frontend", Point: &Point{X: 2, Y: 2}})
	require.Equal(t, OutcomeMoved, out.Kind)
	assert.Equal(t, "doing", out.Move.TargetColumn)
	assert.Equal(t, "frontend", out.Move.TargetSwimLane)

	// Incomplete identifier falls back to the point
	require.NoError(t, c.Begin(idx, "A"))
	out = c.Drop(idx, DropTarget{ColumnID: "doing", Point: &Point{X: 2, Y: 2}})
	require.Equal(t, OutcomeMoved, out.Kind)
	assert.Equal(t, doneBack, out.Move.Target())
}

func TestHover_TracksCell(t *testing.T) {
	idx := createTestIndex()
	reg := NewRegistry()
	reg.Set(doneBack, Rect{X: 0, Y: 0, W: 10, H: 5})
	c := New(WithRegistry(reg))

	_, ok := c.Hover(idx, PointTarget(1, 1))
	assert.False(t, ok, "hover is ignored while idle")

	require.NoError(t, c.Begin(idx, "A"))
	hovered, ok := c.Hovered()
	require.True(t, ok)
	assert.Equal(t, todoFront, hovered, "hover starts on the source cell")

	key, ok := c.Hover(idx, PointTarget(1, 1))
	require.True(t, ok)
	assert.Equal(t, doneBack, key)

	_, ok = c.Hover(idx, PointTarget(50, 50))
	assert.False(t, ok)
	_, ok = c.Hovered()
	assert.False(t, ok)
}

func TestCancel(t *testing.T) {
	idx := createTestIndex()
	rec := &recorder{}
	c := New(WithCallbacks(rec.callbacks()))

	assert.False(t, c.Cancel(), "nothing to cancel")
	require.NoError(t, c.Begin(idx, "A"))
	assert.True(t, c.Cancel())
	assert.Equal(t, PhaseIdle, c.Phase())
	assert.Equal(t, OutcomeIgnored, c.Drop(idx, CellTarget(doneBack)).Kind)
	assert.Empty(t, rec.drops)
}

func TestSubscribe(t *testing.T) {
	idx := createTestIndex()
	c := New()

	var phases []Phase
	unsubscribe := c.Subscribe(func(s State) {
		phases = append(phases, s.Phase)
		if s.Phase == PhaseDragging {
			require.NotNil(t, s.Session)
			assert.Equal(t, "A", s.Session.ItemID)
			assert.NotEmpty(t, s.Session.Token)
		}
	})

	require.NoError(t, c.Begin(idx, "A"))
	c.Drop(idx, CellTarget(doneBack))
	assert.Equal(t, []Phase{PhaseDragging, PhaseIdle}, phases)

	unsubscribe()
	require.NoError(t, c.Begin(idx, "A"))
	assert.Len(t, phases, 2)
}

func TestSessionTokensAreUnique(t *testing.T) {
	idx := createTestIndex()
	c := New()

	require.NoError(t, c.Begin(idx, "A"))
	first := c.State().Session.Token
	c.Cancel()
	require.NoError(t, c.Begin(idx, "A"))
	second := c.State().Session.Token

	assert.NotEqual(t, first, second)
}
