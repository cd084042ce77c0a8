package models

import "time"

// SessionStatus represents the lifecycle state of a negotiation session.
type SessionStatus string

const (
	// SessionCreated indicates the durable record exists but the turn loop has not started.
	SessionCreated SessionStatus = "created"
	// SessionInProgress indicates the turn loop is running.
	SessionInProgress SessionStatus = "in_progress"
	// SessionCompleted indicates the negotiation finished and a decision was recorded.
	SessionCompleted SessionStatus = "completed"
	// SessionFailed indicates an infrastructure error stopped the negotiation.
	SessionFailed SessionStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionCreated, SessionInProgress, SessionCompleted, SessionFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further transitions are allowed.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed
}

// CanTransition reports whether moving from s to next is a legal transition.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	switch s {
	case SessionCreated:
		return next == SessionInProgress || next == SessionFailed
	case SessionInProgress:
		return next == SessionCompleted || next == SessionFailed
	default:
		return false
	}
}

// Session is the durable record of one negotiation.
type Session struct {
	// ID uniquely identifies the negotiation.
	ID string `json:"id"`
	// UserID is the user who started the negotiation.
	UserID string `json:"user_id"`
	// InitiatingTeamID is the team that proposed the negotiation.
	InitiatingTeamID int `json:"initiating_team_id"`
	// TargetTeamIDs are the counterparties, in speaking order.
	TargetTeamIDs []int `json:"target_team_ids"`
	// Status is the current lifecycle state.
	Status SessionStatus `json:"status"`
	// CurrentTurn is the last turn number that was persisted.
	CurrentTurn int `json:"current_turn"`
	// MaxTurns is the configured turn limit.
	MaxTurns int `json:"max_turns"`
	// StartedAt is when the session record was created.
	StartedAt time.Time `json:"started_at"`
	// CompletedAt is set when the session reaches a terminal status.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// ErrorMessage describes the cause of a failed session.
	ErrorMessage string `json:"error_message,omitempty"`
}

// TeamIDs returns the initiating team followed by all target teams.
func (s *Session) TeamIDs() []int {
	ids := make([]int, 0, len(s.TargetTeamIDs)+1)
	ids = append(ids, s.InitiatingTeamID)
	return append(ids, s.TargetTeamIDs...)
}

// Message is one turn of the negotiation transcript.
type Message struct {
	SessionID  string         `json:"session_id"`
	TurnNumber int            `json:"turn_number"`
	Speaker    string         `json:"speaker"`
	Content    string         `json:"content"`
	Timestamp  time.Time      `json:"timestamp"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NegotiationResult is the terminal outcome recorded for a completed session.
type NegotiationResult struct {
	SessionID        string         `json:"session_id"`
	ConsensusReached bool           `json:"consensus_reached"`
	Decision         *TradeDecision `json:"decision,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	TotalTurns       int            `json:"total_turns"`
	FinalConsensus   string         `json:"final_consensus,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}
