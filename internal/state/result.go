package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

// SaveResult records the terminal outcome of a session. A session has at
// most one result; saving a second returns ErrResultExists.
func (db *DB) SaveResult(r *models.NegotiationResult) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	var decision sql.NullString
	if r.Decision != nil {
		data, err := json.Marshal(r.Decision)
		if err != nil {
			return fmt.Errorf("encode decision: %w", err)
		}
		decision = sql.NullString{String: string(data), Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO results (session_id, consensus_reached, decision_json, notes, total_turns, final_consensus, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.SessionID, r.ConsensusReached, decision, r.Notes, r.TotalTurns, r.FinalConsensus, formatTime(r.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("save result for %s: %w", r.SessionID, ErrResultExists)
		}
		return fmt.Errorf("save result for %s: %w", r.SessionID, err)
	}
	return nil
}

// GetResult retrieves a session's result. Returns nil if none was saved.
func (db *DB) GetResult(sessionID string) (*models.NegotiationResult, error) {
	row := db.QueryRow(`
		SELECT session_id, consensus_reached, decision_json, notes, total_turns, final_consensus, created_at
		FROM results WHERE session_id = ?
	`, sessionID)

	var r models.NegotiationResult
	var decision sql.NullString
	var createdAt string
	err := row.Scan(&r.SessionID, &r.ConsensusReached, &decision, &r.Notes, &r.TotalTurns, &r.FinalConsensus, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}

	if decision.Valid {
		var d models.TradeDecision
		if err := json.Unmarshal([]byte(decision.String), &d); err != nil {
			return nil, fmt.Errorf("decode decision: %w", err)
		}
		d.Normalize()
		r.Decision = &d
	}
	r.CreatedAt, _ = parseTime(createdAt)
	return &r, nil
}
