// internal/push/events.go
package push

import (
	"fmt"
	"sync"

	"kitchen-hub/internal/common/logger"
	"kitchen-hub/internal/models"
)

// EventType identifies one of the four independent signals a native push
// transport produces.
type EventType string

const (
	// EventRegistration carries the device token after a successful OS
	// registration round trip.
	EventRegistration EventType = "registration"
	// EventRegistrationError carries the transport-level registration failure.
	EventRegistrationError EventType = "registration_error"
	// EventPushReceived fires for a push delivered while the app is
	// foregrounded.
	EventPushReceived EventType = "push_received"
	// EventActionPerformed fires when the user taps a delivered notification.
	EventActionPerformed EventType = "action_performed"
)

// Event is a typed transport signal.
type Event struct {
	Type    EventType
	Token   string             // registration
	Err     error              // registration_error
	Payload models.PushPayload // push_received, action_performed
}

// Listener receives events. Listeners must not assume exclusive delivery;
// fan-out is best effort and a failing listener never blocks the others.
type Listener func(Event)

// Emitter is a typed event emitter with per-listener unsubscribe handles.
type Emitter struct {
	logger logger.Logger

	mu        sync.Mutex
	listeners map[EventType]map[int]Listener
	nextID    int
}

func NewEmitter(log logger.Logger) *Emitter {
	return &Emitter{
		logger:    log.WithFields(map[string]interface{}{"component": "push.emitter"}),
		listeners: make(map[EventType]map[int]Listener),
	}
}

// Subscribe registers fn for events of type t and returns an unsubscribe
// handle. The handle returns only after the removal has been applied.
func (e *Emitter) Subscribe(t EventType, fn Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners[t] == nil {
		e.listeners[t] = make(map[int]Listener)
	}
	id := e.nextID
	e.nextID++
	e.listeners[t][id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners[t], id)
	}
}

// Emit delivers ev to every listener of its type. Delivery is best effort:
// a panicking listener is reported and the remaining listeners still receive
// the event.
func (e *Emitter) Emit(ev Event) {
	e.mu.Lock()
	targets := make([]Listener, 0, len(e.listeners[ev.Type]))
	for _, fn := range e.listeners[ev.Type] {
		targets = append(targets, fn)
	}
	e.mu.Unlock()

	for _, fn := range targets {
		e.dispatch(ev, fn)
	}
}

func (e *Emitter) dispatch(ev Event, fn Listener) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("listener failed", map[string]interface{}{
				"eventType": string(ev.Type),
				"panic":     fmt.Sprintf("%v", r),
			})
		}
	}()
	fn(ev)
}
