// Package dnd implements the drag-and-drop relocation state machine.
//
// The controller never owns or mutates the item list. Every operation takes
// the current grid index explicitly, and an allowed drop is returned (and
// passed to the registered callbacks) as a domain.Move that the caller
// applies to its own list. State moves Idle -> Dragging -> Idle, with an
// extra Pending phase while an asynchronous validation hook is outstanding.
//
// A Controller is driven from a single event loop and is not safe for
// concurrent use. Only Outcome.Check may run on another goroutine.
package dnd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/robby/gridboard/internal/domain"
	"github.com/robby/gridboard/internal/grid"
)

// DefaultTimeout bounds how long a validation hook may take before the drop
// is treated as denied.
const DefaultTimeout = 5 * time.Second

var (
	// ErrBusy indicates a drag session or validation is already in flight.
	ErrBusy = errors.New("drag session already active")
	// ErrUnknownItem indicates the dragged item is not in the index.
	ErrUnknownItem = errors.New("unknown item")
	// ErrValidationTimeout indicates the validation hook did not answer in time.
	ErrValidationTimeout = errors.New("validation timed out")
	// ErrValidatorPanic indicates the validation hook panicked.
	ErrValidatorPanic = errors.New("validator panicked")
)

// Phase is the controller's state machine position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhasePending
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhasePending:
		return "pending"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Validator decides whether a relocation may happen. Returning an error is
// treated the same as returning false; a *Denial error is a plain veto that
// carries a reason for the user.
type Validator interface {
	Validate(ctx context.Context, move domain.BeforeMove) (bool, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, move domain.BeforeMove) (bool, error)

// Validate calls f.
func (f ValidatorFunc) Validate(ctx context.Context, move domain.BeforeMove) (bool, error) {
	return f(ctx, move)
}

// Denial is a veto with a reason. Validators return it as their error; the
// drop is cancelled like any other veto and the reason is reported in
// Outcome.Reason instead of Outcome.Err.
type Denial struct {
	Reason string
}

func (d *Denial) Error() string {
	return "move denied: " + d.Reason
}

// Deny returns a *Denial for reason.
func Deny(reason string) error {
	return &Denial{Reason: reason}
}

// Callbacks are invoked at most once per resolved, allowed drop.
type Callbacks struct {
	// OnItemMove is the legacy fire-and-forget notification.
	OnItemMove func(itemID, columnID, swimLaneID string)
	// OnDrop receives the full relocation event.
	OnDrop func(move domain.Move)
}

// Session is the one in-flight drag.
type Session struct {
	Token  string         // Identifies the session across async validation
	ItemID string         // Dragged item
	Source domain.CellKey // Cell the item was in when the drag began
}

// State is an immutable view of the controller handed to subscribers.
type State struct {
	Phase   Phase
	Session *Session
	Hovered *domain.CellKey
}

// DropTarget names where a gesture ended. A complete, known cell
// identifier takes precedence; Point is only hit-tested against the region
// registry when the identifier is missing or unknown.
type DropTarget struct {
	ColumnID   string
	SwimLaneID string
	Point      *Point
}

// CellTarget targets a cell by identifier.
func CellTarget(key domain.CellKey) DropTarget {
	return DropTarget{ColumnID: key.ColumnID, SwimLaneID: key.SwimLaneID}
}

// PointTarget targets whatever cell is registered under (x, y).
func PointTarget(x, y int) DropTarget {
	return DropTarget{Point: &Point{X: x, Y: y}}
}

// OutcomeKind classifies the result of Drop or Settle.
type OutcomeKind int

const (
	// OutcomeIgnored means there was no matching session to act on.
	OutcomeIgnored OutcomeKind = iota
	// OutcomeNoop means the item was dropped on its own cell.
	OutcomeNoop
	// OutcomeCancelled means no relocation happens (bad target, veto, failure).
	OutcomeCancelled
	// OutcomePending means a validation hook must run; see Outcome.Check.
	OutcomePending
	// OutcomeMoved means the relocation was allowed and emitted.
	OutcomeMoved
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeNoop:
		return "noop"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomePending:
		return "pending"
	case OutcomeMoved:
		return "moved"
	}
	return fmt.Sprintf("outcome(%d)", int(k))
}

// Outcome is what a drop resolved to.
type Outcome struct {
	Kind OutcomeKind
	// Move is set when Kind is OutcomeMoved.
	Move *domain.Move
	// Check is set when Kind is OutcomePending. It runs the validation hook
	// with the configured timeout and may be called from any goroutine; its
	// Verdict must be handed back to Settle on the event loop.
	Check func() Verdict
	// Err explains a cancellation caused by a failing hook.
	Err error
	// Reason is set when a hook vetoed the move with a Denial.
	Reason string
}

// Verdict is the answer of a validation hook for one session.
type Verdict struct {
	Token   string
	Allowed bool
	Err     error
	Reason  string
}

// Option configures a Controller.
type Option func(*Controller)

// WithValidator installs the before-drop hook. Without one every move that
// changes cell is allowed.
func WithValidator(v Validator) Option {
	return func(c *Controller) { c.validator = v }
}

// WithTimeout bounds the validation hook.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRegistry sets the region registry used for coordinate hit-testing.
func WithRegistry(r *Registry) Option {
	return func(c *Controller) { c.registry = r }
}

// WithCallbacks sets the relocation callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(c *Controller) { c.callbacks = cb }
}

// Controller is the drag-and-drop state machine.
type Controller struct {
	registry  *Registry
	validator Validator
	timeout   time.Duration
	logger    *log.Logger
	callbacks Callbacks
	newToken  func() string

	phase   Phase
	session *Session
	hovered *domain.CellKey
	pending *domain.Move

	subscribers map[int]func(State)
	order       []int
	nextID      int
}

// New creates an idle controller.
func New(opts ...Option) *Controller {
	c := &Controller{
		registry:    NewRegistry(),
		timeout:     DefaultTimeout,
		logger:      log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel}),
		newToken:    uuid.NewString,
		subscribers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the region registry the controller hit-tests against.
func (c *Controller) Registry() *Registry {
	return c.registry
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	s := State{Phase: c.phase}
	if c.session != nil {
		session := *c.session
		s.Session = &session
	}
	if c.hovered != nil {
		hovered := *c.hovered
		s.Hovered = &hovered
	}
	return s
}

// Subscribe registers fn to receive the state after every transition.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	id := c.nextID
	c.nextID++
	c.subscribers[id] = fn
	c.order = append(c.order, id)

	return func() {
		delete(c.subscribers, id)
		for i, v := range c.order {
			if v == id {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
}

// Begin starts dragging itemID. It returns ErrBusy if a session or
// validation is already in flight, leaving that session untouched, and
// ErrUnknownItem if the item is not in idx.
func (c *Controller) Begin(idx *grid.Index, itemID string) error {
	if c.phase != PhaseIdle {
		c.logger.Debug("drag start rejected", "item", itemID, "phase", c.phase)
		return ErrBusy
	}

	item, ok := idx.LookupItem(itemID)
	if !ok {
		c.logger.Debug("drag start on unknown item", "item", itemID)
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}

	source := item.Cell()
	c.session = &Session{
		Token:  c.newToken(),
		ItemID: item.ID,
		Source: source,
	}
	c.hovered = &source
	c.phase = PhaseDragging
	c.logger.Debug("drag started", "item", item.ID, "source", source)
	c.notify()
	return nil
}

// Hover tracks the cell under the gesture. It is advisory only and returns
// the resolved cell, if any.
func (c *Controller) Hover(idx *grid.Index, target DropTarget) (domain.CellKey, bool) {
	if c.phase != PhaseDragging {
		return domain.CellKey{}, false
	}

	key, ok := c.resolve(idx, target)
	switch {
	case ok && (c.hovered == nil || *c.hovered != key):
		c.hovered = &key
		c.notify()
	case !ok && c.hovered != nil:
		c.hovered = nil
		c.notify()
	}
	return key, ok
}

// Hovered returns the currently hovered cell.
func (c *Controller) Hovered() (domain.CellKey, bool) {
	if c.hovered == nil {
		return domain.CellKey{}, false
	}
	return *c.hovered, true
}

// Cancel aborts an active drag. A pending validation cannot be cancelled:
// the controller stays busy until the hook settles or times out.
func (c *Controller) Cancel() bool {
	if c.phase != PhaseDragging {
		return false
	}
	c.logger.Debug("drag cancelled", "item", c.session.ItemID)
	c.reset()
	return true
}

// Drop ends the gesture over target.
func (c *Controller) Drop(idx *grid.Index, target DropTarget) Outcome {
	if c.phase != PhaseDragging {
		return Outcome{Kind: OutcomeIgnored}
	}

	key, ok := c.resolve(idx, target)
	if !ok {
		c.logger.Debug("drop outside any cell", "item", c.session.ItemID)
		c.reset()
		return Outcome{Kind: OutcomeCancelled}
	}

	// Re-read the item from the snapshot the caller handed us; it may have
	// changed since the drag began.
	item, ok := idx.LookupItem(c.session.ItemID)
	if !ok {
		c.logger.Debug("dragged item vanished", "item", c.session.ItemID)
		c.reset()
		return Outcome{Kind: OutcomeCancelled}
	}

	source := item.Cell()
	if key == source {
		c.reset()
		return Outcome{Kind: OutcomeNoop}
	}

	move := &domain.Move{
		BeforeMove: domain.BeforeMove{
			ItemID:         item.ID,
			SourceColumn:   source.ColumnID,
			SourceSwimLane: source.SwimLaneID,
			TargetColumn:   key.ColumnID,
			TargetSwimLane: key.SwimLaneID,
		},
		Item: item,
	}

	if c.validator == nil {
		c.reset()
		c.emit(*move)
		return Outcome{Kind: OutcomeMoved, Move: move}
	}

	c.phase = PhasePending
	c.pending = move
	c.hovered = &key
	c.logger.Debug("drop awaiting validation", "item", item.ID, "target", key)
	c.notify()
	return Outcome{Kind: OutcomePending, Check: c.check(c.session.Token, move.BeforeMove)}
}

// Settle applies a validation verdict. Verdicts for any session other than
// the pending one are ignored.
func (c *Controller) Settle(v Verdict) Outcome {
	if c.phase != PhasePending || c.session == nil || c.session.Token != v.Token {
		c.logger.Debug("stale verdict ignored", "token", v.Token)
		return Outcome{Kind: OutcomeIgnored}
	}

	move := *c.pending
	c.reset()

	if !v.Allowed {
		if v.Err != nil {
			c.logger.Warn("drop validation failed", "item", move.ItemID, "err", v.Err)
		} else {
			c.logger.Info("drop vetoed", "item", move.ItemID, "target", move.Target(), "reason", v.Reason)
		}
		return Outcome{Kind: OutcomeCancelled, Err: v.Err, Reason: v.Reason}
	}

	c.emit(move)
	return Outcome{Kind: OutcomeMoved, Move: &move}
}

// DropSync is Drop followed by running the validation hook inline and
// settling it. It blocks for at most the configured timeout.
func (c *Controller) DropSync(idx *grid.Index, target DropTarget) Outcome {
	out := c.Drop(idx, target)
	if out.Kind != OutcomePending {
		return out
	}
	return c.Settle(out.Check())
}

// resolve turns a drop target into a known cell. A complete identifier
// naming a cell of idx wins; otherwise the point is hit-tested.
func (c *Controller) resolve(idx *grid.Index, target DropTarget) (domain.CellKey, bool) {
	key := domain.CellKey{ColumnID: target.ColumnID, SwimLaneID: target.SwimLaneID}
	if key.Complete() && idx.HasCell(key) {
		return key, true
	}

	if target.Point != nil && c.registry != nil {
		if hit, ok := c.registry.HitTest(*target.Point); ok && idx.HasCell(hit) {
			return hit, true
		}
	}
	return domain.CellKey{}, false
}

// check builds the closure that runs the validator off the event loop.
// Everything it needs is captured by value so it never touches c.
func (c *Controller) check(token string, before domain.BeforeMove) func() Verdict {
	validator := c.validator
	timeout := c.timeout

	return func() Verdict {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		type answer struct {
			allowed bool
			err     error
		}
		done := make(chan answer, 1)

		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- answer{err: fmt.Errorf("%w: %v", ErrValidatorPanic, r)}
				}
			}()
			allowed, err := validator.Validate(ctx, before)
			done <- answer{allowed: allowed, err: err}
		}()

		select {
		case a := <-done:
			var denial *Denial
			if errors.As(a.err, &denial) {
				return Verdict{Token: token, Reason: denial.Reason}
			}
			if a.err != nil {
				return Verdict{Token: token, Err: a.err}
			}
			return Verdict{Token: token, Allowed: a.allowed}
		case <-ctx.Done():
			return Verdict{Token: token, Err: fmt.Errorf("%w after %s", ErrValidationTimeout, timeout)}
		}
	}
}

func (c *Controller) emit(move domain.Move) {
	c.logger.Info("item relocated", "item", move.ItemID, "from", move.Source(), "to", move.Target())
	if c.callbacks.OnDrop != nil {
		c.callbacks.OnDrop(move)
	}
	if c.callbacks.OnItemMove != nil {
		c.callbacks.OnItemMove(move.ItemID, move.TargetColumn, move.TargetSwimLane)
	}
}

func (c *Controller) reset() {
	c.phase = PhaseIdle
	c.session = nil
	c.hovered = nil
	c.pending = nil
	c.notify()
}

func (c *Controller) notify() {
	state := c.State()
	for _, id := range c.order {
		if fn, ok := c.subscribers[id]; ok {
			fn(state)
		}
	}
}
