package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

// AppendMessage persists one transcript message. Turn numbers are unique
// per session; appending a duplicate turn fails.
func (db *DB) AppendMessage(m *models.Message) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}

	var metadata sql.NullString
	if len(m.Metadata) > 0 {
		data, err := json.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("encode message metadata: %w", err)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO messages (session_id, turn_number, speaker, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.SessionID, m.TurnNumber, m.Speaker, m.Content, metadata, formatTime(m.Timestamp))
	if err != nil {
		return fmt.Errorf("append message turn %d: %w", m.TurnNumber, err)
	}
	return nil
}

// ListMessages returns a session's transcript ordered by turn number.
func (db *DB) ListMessages(sessionID string) ([]models.Message, error) {
	rows, err := db.Query(`
		SELECT session_id, turn_number, speaker, content, metadata, created_at
		FROM messages WHERE session_id = ? ORDER BY turn_number
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		var metadata sql.NullString
		var createdAt string
		if err := rows.Scan(&m.SessionID, &m.TurnNumber, &m.Speaker, &m.Content, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &m.Metadata); err != nil {
				return nil, fmt.Errorf("decode message metadata: %w", err)
			}
		}
		m.Timestamp, _ = parseTime(createdAt)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
