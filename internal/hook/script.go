// Package hook provides validators that can veto a drop before it is
// applied: an external script, per-column WIP limits and a chain of both.
package hook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robby/gridboard/internal/dnd"
	"github.com/robby/gridboard/internal/domain"
	"github.com/robby/gridboard/internal/grid"
)

// EventBeforeDrop is passed to scripts in GRIDBOARD_EVENT.
const EventBeforeDrop = "item.before_drop"

// ErrHookFailed indicates the script could not give an answer: it was
// missing, crashed, exited with a status other than 0 or 1, or timed out.
var ErrHookFailed = errors.New("hook failed")

// Script runs an executable before every drop. Exit status 0 allows the
// move and 1 denies it; the first line of a denying script's output becomes
// the reason shown to the user.
type Script struct {
	path   string
	logger *log.Logger

	mu  sync.RWMutex
	idx *grid.Index // Last observed index, for GRIDBOARD_ITEM_TITLE
}

// NewScript creates a script validator. A nil logger disables logging.
func NewScript(path string, logger *log.Logger) *Script {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
	}
	return &Script{path: path, logger: logger}
}

// Observe records the index used to look up item titles. Indexes are
// immutable, so the validation goroutine can read it freely.
func (s *Script) Observe(idx *grid.Index) {
	s.mu.Lock()
	s.idx = idx
	s.mu.Unlock()
}

func (s *Script) title(itemID string) string {
	s.mu.RLock()
	idx := s.idx
	s.mu.RUnlock()
	if idx == nil {
		return ""
	}
	item, _ := idx.LookupItem(itemID)
	return item.Title
}

// Path returns the script path.
func (s *Script) Path() string {
	return s.path
}

// Validate runs the script. The context bounds its runtime.
func (s *Script) Validate(ctx context.Context, move domain.BeforeMove) (bool, error) {
	title := s.title(move.ItemID)

	cmd := exec.CommandContext(ctx, s.path)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("GRIDBOARD_ITEM_ID=%s", move.ItemID),
		fmt.Sprintf("GRIDBOARD_ITEM_TITLE=%s", title),
		fmt.Sprintf("GRIDBOARD_SOURCE_COLUMN=%s", move.SourceColumn),
		fmt.Sprintf("GRIDBOARD_SOURCE_LANE=%s", move.SourceSwimLane),
		fmt.Sprintf("GRIDBOARD_TARGET_COLUMN=%s", move.TargetColumn),
		fmt.Sprintf("GRIDBOARD_TARGET_LANE=%s", move.TargetSwimLane),
		fmt.Sprintf("GRIDBOARD_EVENT=%s", EventBeforeDrop),
	)
	// Children that inherit stdout must not keep us waiting past the deadline
	cmd.WaitDelay = 100 * time.Millisecond

	output, err := cmd.CombinedOutput()
	out := strings.TrimSpace(string(output))
	if err == nil {
		s.logger.Debug("Hook allowed move", "item", move.ItemID, "target", move.Target())
		return true, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		s.logger.Error("Hook timed out", "path", s.path, "item", move.ItemID)
		return false, fmt.Errorf("%w: %s: %w", ErrHookFailed, s.path, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		s.logger.Info("Hook denied move", "item", move.ItemID, "target", move.Target(), "output", out)
		if reason, _, _ := strings.Cut(out, "\n"); reason != "" {
			return false, dnd.Deny(strings.TrimSpace(reason))
		}
		return false, nil
	}

	s.logger.Error("Hook failed", "path", s.path, "error", err, "output", out)
	return false, fmt.Errorf("%w: %s: %v", ErrHookFailed, s.path, err)
}
