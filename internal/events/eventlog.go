// Package events provides the append-only record of a simulation run.
// Every committed day, abort and run boundary is appended here; the network
// hub and the persistence layer both read from it.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a simulation event.
type EventType string

const (
	EventTypeRunStarted          EventType = "RUN_STARTED"
	EventTypeDayAdvanced         EventType = "DAY_ADVANCED"
	EventTypeNegativeCompartment EventType = "NEGATIVE_COMPARTMENT"
	EventTypeRunAborted          EventType = "RUN_ABORTED"
	EventTypeRunCompleted        EventType = "RUN_COMPLETED"
)

// SimEvent represents an immutable record of something that happened in a run.
type SimEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	RunID     string      `json:"run_id"`
	Region    string      `json:"region,omitempty"` // region code, when the event concerns one
	Payload   interface{} `json:"payload"`
	Day       int         `json:"day"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event SimEvent) error
}

// EventLog is the in-memory append-only log of simulation events.
type EventLog struct {
	mu        sync.RWMutex
	events    []SimEvent
	persister EventPersister
	onError   func(SimEvent, error)
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return NewEventLogSize(persister, 0)
}

// NewEventLogSize is NewEventLog with room reserved for capacity events.
func NewEventLogSize(persister EventPersister, capacity int) *EventLog {
	if capacity < 0 {
		capacity = 0
	}
	return &EventLog{
		events:    make([]SimEvent, 0, capacity),
		persister: persister,
	}
}

// OnPersistError installs a callback for persister failures.
func (el *EventLog) OnPersistError(fn func(SimEvent, error)) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.onError = fn
}

// Append adds a new event to the log, filling in ID and Timestamp when empty.
// The persister is called synchronously so stored order matches log order.
func (el *EventLog) Append(event SimEvent) SimEvent {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	el.mu.Lock()
	el.events = append(el.events, event)
	persister, onError := el.persister, el.onError
	el.mu.Unlock()

	if persister != nil {
		if err := persister.Append(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
	return event
}

// Len returns the number of events appended so far.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// Since returns a copy of the events appended after the first n.
func (el *EventLog) Since(n int) []SimEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	if n >= len(el.events) {
		return nil
	}
	if n < 0 {
		n = 0
	}
	return append([]SimEvent(nil), el.events[n:]...)
}

// GetByDay returns all events recorded for a specific simulated day.
func (el *EventLog) GetByDay(day int) []SimEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []SimEvent
	for _, e := range el.events {
		if e.Day == day {
			result = append(result, e)
		}
	}
	return result
}

// GetByType returns all events of the given type.
func (el *EventLog) GetByType(t EventType) []SimEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []SimEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of the full history of events.
func (el *EventLog) Replay() []SimEvent {
	return el.Since(0)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
