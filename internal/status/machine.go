// internal/status/machine.go
package status

import (
	"context"

	"kitchen-hub/internal/common/errors"
	"kitchen-hub/internal/common/logger"
	"kitchen-hub/internal/common/metrics"
	"kitchen-hub/internal/models"

	"github.com/google/uuid"
)

// Origin distinguishes how a transition was requested. Gesture commits and
// button commits share one code path; the origin only feeds the journal and
// metrics.
type Origin string

const (
	OriginGesture Origin = "gesture"
	OriginAction  Origin = "action"
)

// TransitionIntent is one requested status change. ID makes retried intents
// distinguishable in the journal.
type TransitionIntent struct {
	ID      uuid.UUID
	OrderID string
	From    models.Status
	To      models.Status
	Origin  Origin
}

func NewIntent(orderID string, from, to models.Status, origin Origin) TransitionIntent {
	return TransitionIntent{
		ID:      uuid.New(),
		OrderID: orderID,
		From:    from,
		To:      to,
		Origin:  origin,
	}
}

// transitions is the full lifecycle: the pending→processing→completed main
// line plus the on-hold side path. Completed, cancelled and refunded are
// terminal.
var transitions = map[models.Status][]models.Status{
	models.StatusPending:    {models.StatusProcessing, models.StatusOnHold},
	models.StatusProcessing: {models.StatusCompleted, models.StatusOnHold},
	models.StatusOnHold:     {models.StatusProcessing},
	models.StatusCompleted:  {},
	models.StatusCancelled:  {},
	models.StatusRefunded:   {},
}

// Next returns the primary forward transition for a status, the one a swipe
// commit targets. ok is false for terminal and unknown statuses.
func Next(from models.Status) (models.Status, bool) {
	targets, known := transitions[from]
	if !known || len(targets) == 0 {
		return "", false
	}
	return targets[0], true
}

// Available returns every status reachable from the given one.
func Available(from models.Status) []models.Status {
	return append([]models.Status(nil), transitions[from]...)
}

// Allowed reports whether from→to is a legal transition.
func Allowed(from, to models.Status) bool {
	for _, target := range transitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// OrderUpdater is the slice of the backend client used for commits.
type OrderUpdater interface {
	UpdateStatus(ctx context.Context, orderID string, status models.Status) (*models.Order, error)
}

// Refresher requests a feed refresh after a successful commit.
type Refresher interface {
	ForceRefresh()
}

// Recorder journals commit attempts. Journal failures are reported to the
// log, never to the caller.
type Recorder interface {
	Record(ctx context.Context, intent TransitionIntent, outcome string) error
}

// Machine commits status transitions to the backend. There is no optimistic
// local mutation: displayed state only changes when a refreshed feed reflects
// the backend's answer.
type Machine struct {
	backend   OrderUpdater
	journal   Recorder
	refresher Refresher
	logger    logger.Logger
}

func NewMachine(backend OrderUpdater, journal Recorder, refresher Refresher, log logger.Logger) *Machine {
	return &Machine{
		backend:   backend,
		journal:   journal,
		refresher: refresher,
		logger:    log.WithFields(map[string]interface{}{"component": "status"}),
	}
}

// Commit validates and executes one transition intent. A rejected transition
// never reaches the backend; a backend failure is returned as-is so the
// caller can surface it distinctly from a refused transition.
func (m *Machine) Commit(ctx context.Context, intent TransitionIntent) (*models.Order, error) {
	if !Allowed(intent.From, intent.To) {
		m.record(ctx, intent, "rejected")
		metrics.TransitionsCommitted.WithLabelValues(string(intent.To), string(intent.Origin), "rejected").Inc()
		return nil, errors.NewInvalidTransitionError(string(intent.From), string(intent.To))
	}

	order, err := m.backend.UpdateStatus(ctx, intent.OrderID, intent.To)
	if err != nil {
		m.record(ctx, intent, "failed")
		metrics.TransitionsCommitted.WithLabelValues(string(intent.To), string(intent.Origin), "failed").Inc()
		m.logger.Error("transition commit failed", map[string]interface{}{
			"intentId": intent.ID.String(),
			"orderId":  intent.OrderID,
			"from":     intent.From,
			"to":       intent.To,
			"error":    err.Error(),
		})
		return nil, err
	}

	m.record(ctx, intent, "committed")
	metrics.TransitionsCommitted.WithLabelValues(string(intent.To), string(intent.Origin), "committed").Inc()
	m.logger.Info("transition committed", map[string]interface{}{
		"intentId": intent.ID.String(),
		"orderId":  intent.OrderID,
		"from":     intent.From,
		"to":       intent.To,
		"origin":   intent.Origin,
	})

	if m.refresher != nil {
		m.refresher.ForceRefresh()
	}
	return order, nil
}

func (m *Machine) record(ctx context.Context, intent TransitionIntent, outcome string) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Record(ctx, intent, outcome); err != nil {
		m.logger.Warn("transition journal write failed", map[string]interface{}{
			"intentId": intent.ID.String(),
			"error":    err.Error(),
		})
	}
}
