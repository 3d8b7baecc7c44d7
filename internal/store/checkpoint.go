package store

import (
	"database/sql"
	"time"
)

// SaveCheckpoint upserts the serialized attempt state for a user/kind
// pair. The payload is opaque to the store.
func (s *Store) SaveCheckpoint(userID int64, kind string, payload []byte) error {
	now := time.Now()
	_, err := s.db.Exec(
		`INSERT INTO checkpoints (user_id, kind, payload, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, kind) DO UPDATE SET payload = ?, updated_at = ?`,
		userID, kind, string(payload), now, string(payload), now,
	)
	return err
}

// LoadCheckpoint returns the stored payload, or nil when none exists.
func (s *Store) LoadCheckpoint(userID int64, kind string) ([]byte, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM checkpoints WHERE user_id = ? AND kind = ?`, userID, kind,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

// DeleteCheckpoint removes the stored state for a user/kind pair.
func (s *Store) DeleteCheckpoint(userID int64, kind string) error {
	_, err := s.db.Exec(`DELETE FROM checkpoints WHERE user_id = ? AND kind = ?`, userID, kind)
	return err
}
