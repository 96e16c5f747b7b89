// Package events is the in-process event bus. Delivery is asynchronous, so
// it carries notifications to observers only; control flow between the
// light's components stays synchronous.
package events

import (
	"time"

	"github.com/kelindar/event"
)

// Bus broadcasts the light's events to any number of observers.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// On subscribes fn to events of type T and returns its unsubscribe function.
func On[T Event](b *Bus, fn func(T)) func() {
	return event.Subscribe(b.dispatcher, fn)
}

// Emit publishes e to the subscribers of T.
func Emit[T Event](b *Bus, e T) {
	event.Publish(b.dispatcher, e)
}

// Publish routes ev to the subscribers of its concrete type. kelindar/event
// dispatches on the static type, so an interface value has to be unwrapped
// first. Unknown types are dropped.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case TouchEvent:
		Emit(b, e)
	case PadEvent:
		Emit(b, e)
	case ModeChangedEvent:
		Emit(b, e)
	case AnimationStartedEvent:
		Emit(b, e)
	case HealthChangedEvent:
		Emit(b, e)
	case ConfigReloadedEvent:
		Emit(b, e)
	}
}

// Subscribe registers handler for the event type of its parameter, for
// example func(ModeChangedEvent). Handlers of any other shape get a no-op
// unsubscribe function.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(TouchEvent):
		return On(b, h)
	case func(PadEvent):
		return On(b, h)
	case func(ModeChangedEvent):
		return On(b, h)
	case func(AnimationStartedEvent):
		return On(b, h)
	case func(HealthChangedEvent):
		return On(b, h)
	case func(ConfigReloadedEvent):
		return On(b, h)
	default:
		return func() {}
	}
}

// Stamp formats t the way event Timestamp fields carry it.
func Stamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
