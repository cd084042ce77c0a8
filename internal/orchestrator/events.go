package orchestrator

import (
	"time"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

// EventType represents the type of negotiation event.
type EventType string

const (
	// EventMessage carries a newly persisted transcript message.
	EventMessage EventType = "message"
	// EventProgress carries a progress update.
	EventProgress EventType = "progress"
)

// ProgressTag labels a progress update.
type ProgressTag string

const (
	ProgressStarted    ProgressTag = "started"
	ProgressTurn       ProgressTag = "turn"
	ProgressConsensus  ProgressTag = "consensus"
	ProgressExtracting ProgressTag = "extracting"
	ProgressCompleted  ProgressTag = "completed"
	ProgressFailed     ProgressTag = "failed"
)

// Progress reports how far a negotiation has come.
type Progress struct {
	SessionID string
	// Turn is the last completed turn.
	Turn int
	// Total is the turn limit. Zero means unknown.
	Total int
	Tag   ProgressTag
}

// MessageCallback receives each transcript message after it is persisted.
// Returned errors are logged and otherwise ignored.
type MessageCallback func(models.Message) error

// ProgressCallback receives progress updates. Returned errors are logged and
// otherwise ignored.
type ProgressCallback func(Progress) error

// NegotiationEvent is the unit carried by a session's event channel.
type NegotiationEvent struct {
	// Type is the kind of event.
	Type EventType
	// SessionID identifies the negotiation.
	SessionID string
	// Message is set for EventMessage.
	Message *models.Message
	// Progress is set for EventProgress.
	Progress Progress
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
