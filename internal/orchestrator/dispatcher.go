package orchestrator

import (
	"fmt"
	"log"
)

// dispatcher drains one session's events and invokes the caller's callbacks
// in order. Callback errors and panics are logged and never reach the turn
// loop.
type dispatcher struct {
	sessionID  string
	onMessage  MessageCallback
	onProgress ProgressCallback
	logger     *DebugLogger
}

func (d *dispatcher) run(events <-chan NegotiationEvent) {
	for event := range events {
		switch event.Type {
		case EventMessage:
			if d.onMessage != nil && event.Message != nil {
				d.invoke("message", func() error { return d.onMessage(*event.Message) })
			}
		case EventProgress:
			if d.onProgress != nil {
				d.invoke("progress", func() error { return d.onProgress(event.Progress) })
			}
		}
	}
}

func (d *dispatcher) invoke(kind string, fn func() error) {
	defer func() {
		if p := recover(); p != nil {
			d.report(kind, fmt.Errorf("panic: %v", p))
		}
	}()
	if err := fn(); err != nil {
		d.report(kind, err)
	}
}

func (d *dispatcher) report(kind string, err error) {
	log.Printf("[orchestrator] %s callback failed for session %s: %v", kind, d.sessionID, err)
	d.logger.Session(d.sessionID, "%s callback failed: %v", kind, err)
}
