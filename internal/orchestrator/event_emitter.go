package orchestrator

import (
	"log"
	"sync/atomic"
	"time"
)

// EventEmitter is a bounded queue of negotiation events.
// It provides a simple, thread-safe way to hand events to a dispatcher
// without blocking the turn loop indefinitely.
type EventEmitter struct {
	events       chan NegotiationEvent
	droppedCount atomic.Uint64
	sendTimeout  time.Duration
}

// NewEventEmitter creates a new EventEmitter with the given buffer size.
func NewEventEmitter(bufferSize int) *EventEmitter {
	return &EventEmitter{
		events:      make(chan NegotiationEvent, bufferSize),
		sendTimeout: 100 * time.Millisecond,
	}
}

// Emit sends an event to the events channel.
// If the channel is full, it tries with a timeout before dropping the event.
func (e *EventEmitter) Emit(event NegotiationEvent) {
	select {
	case e.events <- event:
		return
	default:
	}

	// Give the receiver a chance to drain
	select {
	case e.events <- event:
		return
	case <-time.After(e.sendTimeout):
		count := e.droppedCount.Add(1)
		if count%10 == 1 { // Log every 10th drop to avoid spam
			log.Printf("[orchestrator] WARNING: Event channel full, dropped event (total dropped: %d): type=%s session=%s",
				count, event.Type, event.SessionID)
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// reportDrops records the session's dropped events in the debug log, if any.
func (e *EventEmitter) reportDrops(logger *DebugLogger, sessionID string) {
	if n := e.DroppedCount(); n > 0 {
		logger.Session(sessionID, "dropped %d events: callbacks could not keep up", n)
	}
}

// Events returns a read-only channel of events.
func (e *EventEmitter) Events() <-chan NegotiationEvent {
	return e.events
}

// Close closes the events channel. No Emit may follow.
func (e *EventEmitter) Close() {
	close(e.events)
}
