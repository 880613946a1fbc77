package rules

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventType names an event on the bus. The string values are the names the
// browser UI subscribes to and must stay stable.
type EventType string

const (
	// State container events
	EventStateChanged    EventType = "stateChanged"
	EventGameInitialized EventType = "gameInitialized"
	EventErrorOccurred   EventType = "errorOccurred"

	// Player events
	EventPlayerMoved            EventType = "playerMoved"
	EventPlayerMovedWithEffects EventType = "playerMovedWithEffects"
	EventPlayerMoneyChanged     EventType = "playerMoneyChanged"
	EventPlayerTimeChanged      EventType = "playerTimeChanged"
	EventPlayerActionTaken      EventType = "playerActionTaken"
	EventPlayerSkipTurnSet      EventType = "playerSkipTurnSet"
	EventPlayerSnapshotSaved    EventType = "playerSnapshotSaved"
	EventPlayerSnapshotRestored EventType = "playerSnapshotRestored"

	// Card events
	EventCardsAddedToPlayer EventType = "cardsAddedToPlayer"
	EventCardUsed           EventType = "cardUsed"
	EventCardsDiscarded     EventType = "cardsDiscarded"
	EventWorkAddedToScope   EventType = "workAddedToScope"

	// Turn events
	EventTurnActionsInitialized EventType = "turnActionsInitialized"
	EventActionCompleted        EventType = "actionCompleted"
	EventTurnAdvanced           EventType = "turnAdvanced"
	EventDiceRolled             EventType = "diceRolled"

	// UI requests handled by the orchestrator
	EventGameStartRequested  EventType = "gameStartRequested"
	EventDiceRollRequested   EventType = "diceRollRequested"
	EventCardActionRequested EventType = "cardActionRequested"
	EventCardUseRequested    EventType = "cardUseRequested"
	EventMoveRequested       EventType = "moveRequested"
	EventNegotiateRequested  EventType = "negotiateRequested"
	EventEndTurnRequested    EventType = "endTurnRequested"
)

// IsRequest returns true for events produced by the UI rather than the core.
func (et EventType) IsRequest() bool {
	switch et {
	case EventGameStartRequested, EventDiceRollRequested, EventCardActionRequested,
		EventCardUseRequested, EventMoveRequested, EventNegotiateRequested, EventEndTurnRequested:
		return true
	}
	return false
}

// Payload is implemented by every event payload struct; each payload type
// belongs to exactly one EventType.
type Payload interface {
	EventType() EventType
}

// Event is a published payload with its type and publication time.
type Event struct {
	Type      EventType `json:"type"`
	Payload   Payload   `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent wraps a payload.
func NewEvent(payload Payload) Event {
	return Event{
		Type:      payload.EventType(),
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// ErrorHandler receives listener failures.
type ErrorHandler func(event Event, err error)

type subscription struct {
	handle    int
	eventType EventType // empty for all events
	callback  Listener
}

// EventBus provides a synchronous publish/subscribe implementation with type
// filtering. Listeners run in registration order on the publishing
// goroutine. A listener may publish or (un)subscribe re-entrantly.
type EventBus struct {
	mu           sync.RWMutex
	subs         []subscription
	nextHandle   int
	logger       *zap.Logger
	errorHandler ErrorHandler
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		subs:       make([]subscription, 0),
		nextHandle: 1,
		logger:     logger,
	}
}

// SetErrorHandler registers the hook that receives recovered listener panics.
// Failures of errorOccurred listeners are only logged.
func (bus *EventBus) SetErrorHandler(handler ErrorHandler) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.errorHandler = handler
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	return bus.add("", listener)
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback Listener) int {
	return bus.add(eventType, callback)
}

func (bus *EventBus) add(eventType EventType, callback Listener) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.subs = append(bus.subs, subscription{
		handle:    handle,
		eventType: eventType,
		callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, sub := range bus.subs {
		if sub.handle == handle {
			next := make([]subscription, 0, len(bus.subs)-1)
			next = append(next, bus.subs[:i]...)
			bus.subs = append(next, bus.subs[i+1:]...)
			return
		}
	}
}

// ListenerCount returns the number of registered listeners.
func (bus *EventBus) ListenerCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subs)
}

// On subscribes a typed callback for payload type P and returns a function
// that removes it.
func On[P Payload](bus *EventBus, callback func(P)) func() {
	var zero P
	handle := bus.SubscribeTyped(zero.EventType(), func(e Event) {
		if p, ok := e.Payload.(P); ok {
			callback(p)
		}
	})
	return func() { bus.Unsubscribe(handle) }
}

// Publish wraps the payload in an Event and delivers it.
func (bus *EventBus) Publish(payload Payload) {
	if payload == nil {
		return
	}
	bus.PublishEvent(NewEvent(payload))
}

// PublishEvent delivers the event to all matching listeners synchronously.
// The listener list is captured before dispatch, so listeners added during
// delivery only see later events.
func (bus *EventBus) PublishEvent(event Event) {
	bus.mu.RLock()
	subs := bus.subs
	bus.mu.RUnlock()

	for _, sub := range subs {
		if sub.eventType != "" && sub.eventType != event.Type {
			continue
		}
		bus.dispatch(sub, event)
	}
}

// PublishBatch publishes multiple payloads in order.
func (bus *EventBus) PublishBatch(payloads []Payload) {
	for _, p := range payloads {
		bus.Publish(p)
	}
}

func (bus *EventBus) dispatch(sub subscription, event Event) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := fmt.Errorf("listener %d for %s failed: %v", sub.handle, event.Type, r)
		bus.logger.Error("event listener failed",
			zap.String("event", string(event.Type)),
			zap.Int("handle", sub.handle),
			zap.Any("panic", r),
		)
		if event.Type == EventErrorOccurred {
			return
		}
		bus.mu.RLock()
		handler := bus.errorHandler
		bus.mu.RUnlock()
		if handler != nil {
			handler(event, err)
		}
	}()
	sub.callback(event)
}
