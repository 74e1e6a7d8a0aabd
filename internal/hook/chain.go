package hook

import (
	"context"

	"github.com/robby/gridboard/internal/dnd"
	"github.com/robby/gridboard/internal/domain"
)

// Chain consults validators in order and stops at the first denial or
// error. An empty chain allows everything.
type Chain []dnd.Validator

// Validate runs the chain.
func (c Chain) Validate(ctx context.Context, move domain.BeforeMove) (bool, error) {
	for _, v := range c {
		if v == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
		ok, err := v.Validate(ctx, move)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Compact returns nil when the chain has no validators, so callers can skip
// validation entirely, or the single validator when there is only one.
func (c Chain) Compact() dnd.Validator {
	var live Chain
	for _, v := range c {
		if v != nil {
			live = append(live, v)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return live
}
