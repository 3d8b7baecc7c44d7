package store

import (
	"fmt"
	"time"

	"github.com/ekaraca/hazirlik/internal/model"
)

// UserExport is one user's full result history, shaped for JSON export.
type UserExport struct {
	Email       string               `json:"email"`
	DisplayName string               `json:"display_name"`
	Tests       []model.StoredResult `json:"tests"`
	Exams       []ExamExport         `json:"exams"`
}

// ExamExport pairs a simulated exam row with its section breakdown.
type ExamExport struct {
	Result   model.StoredResult    `json:"result"`
	Sections []model.SectionResult `json:"sections"`
}

// ExportAllResults builds export-ready result histories for every user.
func (s *Store) ExportAllResults() ([]UserExport, error) {
	rows, err := s.db.Query(`SELECT id, email, display_name FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	type userRow struct {
		id          int64
		email, name string
	}
	var users []userRow
	for rows.Next() {
		var u userRow
		if err := rows.Scan(&u.id, &u.email, &u.name); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var exports []UserExport
	for _, u := range users {
		tests, err := s.ListTestResults(u.id)
		if err != nil {
			return nil, fmt.Errorf("list test results for user %d: %w", u.id, err)
		}
		examRows, breakdowns, err := s.ListExamResults(u.id)
		if err != nil {
			return nil, fmt.Errorf("list exam results for user %d: %w", u.id, err)
		}
		var exams []ExamExport
		for i, r := range examRows {
			exams = append(exams, ExamExport{Result: r, Sections: breakdowns[i]})
		}
		exports = append(exports, UserExport{
			Email:       u.email,
			DisplayName: u.name,
			Tests:       tests,
			Exams:       exams,
		})
	}
	return exports, nil
}

// PurgeExpired removes expired auth sessions and checkpoints older than
// the retention window. Used by the maintenance path at startup.
func (s *Store) PurgeExpired(checkpointRetention time.Duration) error {
	if err := s.CleanupExpiredSessions(); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM checkpoints WHERE updated_at < ?`, time.Now().Add(-checkpointRetention))
	return err
}
