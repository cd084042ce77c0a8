package state

import (
	"errors"
	"io"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

var (
	// ErrSessionNotFound is returned when updating a session that does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidTransition is returned when a status change violates the session state machine.
	ErrInvalidTransition = errors.New("invalid session status transition")
	// ErrResultExists is returned when a result has already been saved for a session.
	ErrResultExists = errors.New("result already saved")
)

// StatusUpdate describes a session status change.
type StatusUpdate struct {
	Status models.SessionStatus
	// ErrorMessage is recorded when non-empty.
	ErrorMessage string
	// CurrentTurn is recorded when non-nil.
	CurrentTurn *int
}

// SessionStore handles session-related persistence operations.
type SessionStore interface {
	CreateSession(s *models.Session) error
	GetSession(id string) (*models.Session, error)
	UpdateSessionStatus(id string, update StatusUpdate) error
	ListSessions(limit int) ([]models.Session, error)
}

// MessageStore handles transcript persistence.
type MessageStore interface {
	AppendMessage(m *models.Message) error
	ListMessages(sessionID string) ([]models.Message, error)
}

// ResultStore handles negotiation result persistence.
type ResultStore interface {
	SaveResult(r *models.NegotiationResult) error
	GetResult(sessionID string) (*models.NegotiationResult, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	Migrate() error
}

// Repository is everything the orchestrator needs from persistence.
type Repository interface {
	SessionStore
	MessageStore
	ResultStore
}

// Store is a Repository backed by a closable, migratable database.
type Store interface {
	io.Closer
	Migrator
	Repository
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Store        = (*DB)(nil)
	_ Repository   = (*DB)(nil)
	_ SessionStore = (*DB)(nil)
	_ MessageStore = (*DB)(nil)
	_ ResultStore  = (*DB)(nil)
)
