// internal/push/events_test.go
package push

import (
	"testing"

	"kitchen-hub/internal/common/logger"

	"github.com/stretchr/testify/assert"
)

func TestEmitter_DeliversToMatchingTypeOnly(t *testing.T) {
	emitter := NewEmitter(logger.NewTestLogger(t))

	var registrations, pushes int
	emitter.Subscribe(EventRegistration, func(Event) { registrations++ })
	emitter.Subscribe(EventPushReceived, func(Event) { pushes++ })

	emitter.Emit(Event{Type: EventRegistration, Token: "tok"})
	emitter.Emit(Event{Type: EventRegistration, Token: "tok"})
	emitter.Emit(Event{Type: EventPushReceived})

	assert.Equal(t, 2, registrations)
	assert.Equal(t, 1, pushes)
}

func TestEmitter_UnsubscribeStopsDelivery(t *testing.T) {
	emitter := NewEmitter(logger.NewTestLogger(t))

	var calls int
	unsubscribe := emitter.Subscribe(EventActionPerformed, func(Event) { calls++ })

	emitter.Emit(Event{Type: EventActionPerformed})
	unsubscribe()
	emitter.Emit(Event{Type: EventActionPerformed})

	assert.Equal(t, 1, calls)
}

func TestEmitter_PanickingListenerDoesNotBlockOthers(t *testing.T) {
	emitter := NewEmitter(logger.NewNoOpLogger())

	var survived int
	emitter.Subscribe(EventRegistrationError, func(Event) { panic("listener bug") })
	emitter.Subscribe(EventRegistrationError, func(Event) { survived++ })

	assert.NotPanics(t, func() {
		emitter.Emit(Event{Type: EventRegistrationError})
	})
	assert.Equal(t, 1, survived)
}

func TestEmitter_EmitWithNoListeners(t *testing.T) {
	emitter := NewEmitter(logger.NewTestLogger(t))

	assert.NotPanics(t, func() {
		emitter.Emit(Event{Type: EventPushReceived})
	})
}
