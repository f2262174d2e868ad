package metrics

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestEventBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewEventBus(zerolog.Nop())
	var order []string
	bus.Subscribe(func(ev Event) { order = append(order, "first") })
	bus.Subscribe(func(ev Event) { order = append(order, "second") })

	bus.Publish(Event{Type: EventStepStart, StepName: "a"})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected delivery in subscription order, got %v", order)
	}
}

func TestEventBusIsolatesListenerPanic(t *testing.T) {
	bus := NewEventBus(zerolog.Nop())
	called := false
	bus.Subscribe(func(ev Event) { panic("boom") })
	bus.Subscribe(func(ev Event) { called = true })

	bus.Publish(Event{Type: EventStepError, StepName: "a"})

	if !called {
		t.Fatal("expected the second listener to run despite the first panicking")
	}
}
