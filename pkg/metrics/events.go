package metrics

import (
	"github.com/rs/zerolog"
)

// EventType enumerates the typed events the bus dispatches (spec
// §4.5, §6 "Metrics sink").
type EventType string

const (
	EventPipelineStart    EventType = "pipeline:start"
	EventPipelineComplete EventType = "pipeline:complete"
	EventPipelineError    EventType = "pipeline:error"
	EventStepStart        EventType = "step:start"
	EventStepProgress     EventType = "step:progress"
	EventStepComplete     EventType = "step:complete"
	EventStepError        EventType = "step:error"
	EventItemProcessed    EventType = "item:processed"
	EventItemYielded      EventType = "item:yielded"
)

// Event is the payload delivered to listeners.
type Event struct {
	Type     EventType
	StepName string
	Err      error
	Progress *OverallProgress
	Step     *StepMetrics
}

// Listener receives events published on the bus.
type Listener func(Event)

// EventBus is a one-way, synchronous fan-out to subscribed listeners.
// A listener's panic is caught and logged, never re-raised —
// one misbehaving listener must not stop others nor break the
// pipeline (spec §4.5). Grounded on the teacher's Tee broadcast idiom
// (filters.go), replacing its channel-timeout abandonment (suited to
// asynchronous backpressured fan-out) with a synchronous recover()
// per listener, since event delivery here is a notification, not a
// data channel the consumer must keep up with.
type EventBus struct {
	listeners []Listener
	log       zerolog.Logger
}

// NewEventBus creates a bus that logs listener panics through log.
func NewEventBus(log zerolog.Logger) *EventBus {
	return &EventBus{log: log}
}

// Subscribe registers a listener. Order of delivery matches
// subscription order.
func (b *EventBus) Subscribe(l Listener) {
	b.listeners = append(b.listeners, l)
}

// Publish delivers ev to every listener, isolating panics.
func (b *EventBus) Publish(ev Event) {
	for _, l := range b.listeners {
		b.safeInvoke(l, ev)
	}
}

func (b *EventBus) safeInvoke(l Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn().
				Interface("panic", r).
				Str("event", string(ev.Type)).
				Str("step", ev.StepName).
				Msg("event listener panicked, isolating")
		}
	}()
	l(ev)
}
