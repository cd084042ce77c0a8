package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

// CreateSession creates a new session record.
func (db *DB) CreateSession(s *models.Session) error {
	if s.Status == "" {
		s.Status = models.SessionCreated
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	targets, err := json.Marshal(nonNilInts(s.TargetTeamIDs))
	if err != nil {
		return fmt.Errorf("encode target teams: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO sessions (id, user_id, initiating_team_id, target_team_ids, status, current_turn, max_turns, started_at, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.UserID, s.InitiatingTeamID, string(targets), string(s.Status), s.CurrentTurn, s.MaxTurns,
		formatTime(s.StartedAt), s.ErrorMessage)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

const sessionColumns = `id, user_id, initiating_team_id, target_team_ids, status, current_turn, max_turns, started_at, completed_at, error_message`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var s models.Session
	var targets, startedAt string
	var completedAt sql.NullString
	err := row.Scan(&s.ID, &s.UserID, &s.InitiatingTeamID, &targets, &s.Status, &s.CurrentTurn,
		&s.MaxTurns, &startedAt, &completedAt, &s.ErrorMessage)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(targets), &s.TargetTeamIDs); err != nil {
		return nil, fmt.Errorf("decode target teams: %w", err)
	}
	s.StartedAt, _ = parseTime(startedAt)
	s.CompletedAt = parseNullableTime(completedAt)
	return &s, nil
}

// GetSession retrieves a session by ID. Returns nil if it does not exist.
func (db *DB) GetSession(id string) (*models.Session, error) {
	row := db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// UpdateSessionStatus moves a session to a new status. The transition is
// checked against the session state machine inside one transaction;
// terminal statuses also stamp completed_at.
func (db *DB) UpdateSessionStatus(id string, update StatusUpdate) error {
	return db.Transaction(func(tx *sql.Tx) error {
		var current models.SessionStatus
		err := tx.QueryRow(`SELECT status FROM sessions WHERE id = ?`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update session %s: %w", id, ErrSessionNotFound)
		}
		if err != nil {
			return fmt.Errorf("update session %s: %w", id, err)
		}

		if current != update.Status && !current.CanTransition(update.Status) {
			return fmt.Errorf("update session %s from %s to %s: %w", id, current, update.Status, ErrInvalidTransition)
		}

		var completedAt any
		if update.Status.Terminal() && !current.Terminal() {
			completedAt = formatTime(time.Now())
		}

		_, err = tx.Exec(`
			UPDATE sessions SET
				status = ?,
				error_message = CASE WHEN ? != '' THEN ? ELSE error_message END,
				current_turn = COALESCE(?, current_turn),
				completed_at = COALESCE(?, completed_at)
			WHERE id = ?
		`, string(update.Status), update.ErrorMessage, update.ErrorMessage, nullableInt(update.CurrentTurn), completedAt, id)
		if err != nil {
			return fmt.Errorf("update session %s: %w", id, err)
		}
		return nil
	})
}

// ListSessions returns sessions, newest first. A limit of zero or less
// returns all sessions.
func (db *DB) ListSessions(limit int) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func nonNilInts(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
