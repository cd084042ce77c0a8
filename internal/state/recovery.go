package state

import (
	"fmt"
	"log"
	"time"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

// InterruptedMessage is recorded on sessions failed by recovery.
const InterruptedMessage = "negotiation interrupted: process exited before the session finished"

// InterruptedSession describes a session that was left non-terminal by a
// process that is no longer running.
type InterruptedSession struct {
	SessionID   string
	StartedAt   time.Time
	CurrentTurn int
	Status      models.SessionStatus
}

// RecoveryManager detects and cleans up interrupted sessions on startup.
// Active negotiations live only in the orchestrator's memory, so any
// non-terminal record seen before an orchestrator starts is orphaned.
type RecoveryManager struct {
	db *DB
}

// NewRecoveryManager creates a new RecoveryManager with the given database.
func NewRecoveryManager(db *DB) *RecoveryManager {
	return &RecoveryManager{db: db}
}

// CheckForInterrupted returns every session that is not in a terminal status.
func (rm *RecoveryManager) CheckForInterrupted() ([]InterruptedSession, error) {
	sessions, err := rm.db.ListSessions(0)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var interrupted []InterruptedSession
	for _, s := range sessions {
		if s.Status.Terminal() {
			continue
		}
		interrupted = append(interrupted, InterruptedSession{
			SessionID:   s.ID,
			StartedAt:   s.StartedAt,
			CurrentTurn: s.CurrentTurn,
			Status:      s.Status,
		})
	}
	return interrupted, nil
}

// Clean marks every interrupted session as failed and returns how many
// sessions were cleaned.
func (rm *RecoveryManager) Clean() (int, error) {
	interrupted, err := rm.CheckForInterrupted()
	if err != nil {
		return 0, err
	}

	for _, s := range interrupted {
		if err := rm.db.UpdateSessionStatus(s.SessionID, StatusUpdate{
			Status:       models.SessionFailed,
			ErrorMessage: InterruptedMessage,
		}); err != nil {
			return 0, fmt.Errorf("fail session %s: %w", s.SessionID, err)
		}
		log.Printf("[state] session %s (turn %d) marked failed after interruption", s.SessionID, s.CurrentTurn)
	}
	return len(interrupted), nil
}
