package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ekaraca/hazirlik/internal/model"
)

// InsertTestResult records a completed single-subject practice attempt.
func (s *Store) InsertTestResult(userID int64, r model.AttemptResult) (int64, error) {
	correct, wrong, empty, total := sumSections(r.Sections)
	res, err := s.db.Exec(
		`INSERT INTO test_results
		 (user_id, exam_type, subject, level, total_questions, correct_answers, wrong_answers, empty_answers, score, time_spent, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, string(r.ExamType), r.Subject, string(r.Level),
		total, correct, wrong, empty, r.Score, r.TimeSpentSeconds, r.CompletedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertExamResult records a completed multi-section simulated exam.
func (s *Store) InsertExamResult(userID int64, r model.AttemptResult) (int64, error) {
	sections, err := json.Marshal(r.Sections)
	if err != nil {
		return 0, fmt.Errorf("marshal sections: %w", err)
	}
	correct, wrong, empty, total := sumSections(r.Sections)
	res, err := s.db.Exec(
		`INSERT INTO exam_results
		 (user_id, exam_type, exam_id, total_questions, correct_answers, wrong_answers, empty_answers, score, time_spent, sections, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, string(r.ExamType), r.AttemptID,
		total, correct, wrong, empty, r.Score, r.TimeSpentSeconds, string(sections), r.CompletedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListTestResults returns a user's practice attempts, newest first.
func (s *Store) ListTestResults(userID int64) ([]model.StoredResult, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, exam_type, subject, level, total_questions, correct_answers, wrong_answers, empty_answers, score, time_spent, completed_at
		 FROM test_results WHERE user_id = ? ORDER BY completed_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.StoredResult
	for rows.Next() {
		var r model.StoredResult
		if err := rows.Scan(&r.ID, &r.UserID, &r.ExamType, &r.Subject, &r.Level,
			&r.TotalQuestions, &r.CorrectAnswers, &r.WrongAnswers, &r.EmptyAnswers,
			&r.Score, &r.TimeSpent, &r.CompletedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListExamResults returns a user's simulated exam attempts with their
// per-section breakdowns, newest first.
func (s *Store) ListExamResults(userID int64) ([]model.StoredResult, [][]model.SectionResult, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, exam_type, exam_id, total_questions, correct_answers, wrong_answers, empty_answers, score, time_spent, sections, completed_at
		 FROM exam_results WHERE user_id = ? ORDER BY completed_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var results []model.StoredResult
	var breakdowns [][]model.SectionResult
	for rows.Next() {
		var r model.StoredResult
		var raw string
		if err := rows.Scan(&r.ID, &r.UserID, &r.ExamType, &r.ExamID,
			&r.TotalQuestions, &r.CorrectAnswers, &r.WrongAnswers, &r.EmptyAnswers,
			&r.Score, &r.TimeSpent, &raw, &r.CompletedAt); err != nil {
			return nil, nil, err
		}
		var sections []model.SectionResult
		if err := json.Unmarshal([]byte(raw), &sections); err != nil {
			sections = nil
		}
		results = append(results, r)
		breakdowns = append(breakdowns, sections)
	}
	return results, breakdowns, rows.Err()
}

// SaveConversation inserts or updates a tutor conversation. A zero ID
// inserts; the stored row's ID is returned either way.
func (s *Store) SaveConversation(c model.ChatConversation) (int64, error) {
	messages, err := json.Marshal(c.Messages)
	if err != nil {
		return 0, fmt.Errorf("marshal messages: %w", err)
	}
	now := time.Now()
	if c.ID == 0 {
		res, err := s.db.Exec(
			`INSERT INTO chat_conversations (user_id, title, messages, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			c.UserID, c.Title, string(messages), now, now,
		)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}
	_, err = s.db.Exec(
		`UPDATE chat_conversations SET title = ?, messages = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		c.Title, string(messages), now, c.ID, c.UserID,
	)
	return c.ID, err
}

// GetConversation returns one conversation owned by the user, or nil.
func (s *Store) GetConversation(userID, id int64) (*model.ChatConversation, error) {
	var c model.ChatConversation
	var raw string
	err := s.db.QueryRow(
		`SELECT id, user_id, title, messages, created_at, updated_at
		 FROM chat_conversations WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&c.ID, &c.UserID, &c.Title, &raw, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &c.Messages); err != nil {
		return nil, fmt.Errorf("unmarshal messages: %w", err)
	}
	return &c, nil
}

// ListConversations returns a user's conversations, most recent first,
// without message bodies.
func (s *Store) ListConversations(userID int64) ([]model.ChatConversation, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, title, created_at, updated_at
		 FROM chat_conversations WHERE user_id = ? ORDER BY updated_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var convs []model.ChatConversation
	for rows.Next() {
		var c model.ChatConversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// DeleteConversation removes a conversation owned by the user.
func (s *Store) DeleteConversation(userID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM chat_conversations WHERE id = ? AND user_id = ?`, id, userID)
	return err
}

func sumSections(sections []model.SectionResult) (correct, wrong, empty, total int) {
	for _, sec := range sections {
		correct += sec.Correct
		wrong += sec.Wrong
		empty += sec.Empty
	}
	total = correct + wrong + empty
	return
}
