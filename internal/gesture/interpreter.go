// internal/gesture/interpreter.go
package gesture

import (
	"sync"

	"kitchen-hub/internal/models"
	"kitchen-hub/internal/status"
)

// CommitThreshold is the rightward displacement, in device-independent
// pixels, at which releasing the drag commits the action.
const CommitThreshold = 100

// opacityRange is the displacement over which the revealed action surface
// fades fully in.
const opacityRange = 150

// Outcome is what a finished drag resolved to.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeReverted  Outcome = "reverted"
)

// Interpreter turns a stream of horizontal drag displacements on an order
// card into a commit-or-revert decision. Only rightward travel counts;
// leftward input clamps to the rest position instead of accumulating
// negative offset. A committed release yields a transition intent targeting
// the dragged order's next lifecycle status.
type Interpreter struct {
	mu      sync.Mutex
	offset  float64
	active  bool
	orderID string
	current models.Status
}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// Begin starts a drag on the given order card at the rest position. A drag
// already in progress is restarted.
func (i *Interpreter) Begin(orderID string, current models.Status) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.offset = 0
	i.active = true
	i.orderID = orderID
	i.current = current
}

// Move applies an absolute displacement sample. Samples outside an active
// drag are ignored.
func (i *Interpreter) Move(dx float64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.active {
		return
	}
	if dx < 0 {
		dx = 0
	}
	i.offset = dx
}

// Offset returns the current clamped displacement.
func (i *Interpreter) Offset() float64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.offset
}

// Opacity returns the reveal opacity for the current displacement: linear
// from 0 at rest to 1 at 150, saturating beyond.
func (i *Interpreter) Opacity() float64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	opacity := i.offset / opacityRange
	if opacity > 1 {
		return 1
	}
	return opacity
}

// Release ends the drag and resolves it: displacement at or beyond the
// threshold commits, anything less reverts. A commit yields an intent for
// the order's next status with a gesture origin; an order with no forward
// transition left, like a completed one, always reverts. The position snaps
// back to rest either way; the committed action's effect arrives through
// the feed, not through held-out gesture state.
func (i *Interpreter) Release() (status.TransitionIntent, Outcome) {
	i.mu.Lock()
	defer i.mu.Unlock()

	committed := i.active && i.offset >= CommitThreshold
	orderID, current := i.orderID, i.current
	i.offset = 0
	i.active = false

	if !committed {
		return status.TransitionIntent{}, OutcomeReverted
	}
	next, ok := status.Next(current)
	if !ok {
		return status.TransitionIntent{}, OutcomeReverted
	}
	return status.NewIntent(orderID, current, next, status.OriginGesture), OutcomeCommitted
}

// Cancel abandons the drag without resolving it, as when the pointer leaves
// the surface.
func (i *Interpreter) Cancel() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.offset = 0
	i.active = false
}
