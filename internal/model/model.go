package model

import (
	"context"
	"time"
)

// User represents a registered account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Profile holds the user-editable profile fields.
type Profile struct {
	UserID      int64     `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// ExamType identifies one of the supported national exams.
type ExamType string

const (
	ExamTYT ExamType = "TYT"
	ExamAYT ExamType = "AYT"
	ExamLGS ExamType = "LGS"
)

// ParseExamType maps a case-insensitive string to an ExamType.
func ParseExamType(s string) (ExamType, bool) {
	switch s {
	case "TYT", "tyt":
		return ExamTYT, true
	case "AYT", "ayt":
		return ExamAYT, true
	case "LGS", "lgs":
		return ExamLGS, true
	}
	return "", false
}

// Difficulty represents a question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "kolay"
	DifficultyMedium Difficulty = "orta"
	DifficultyHard   Difficulty = "zor"
)

// Question is a single multiple-choice question. Immutable once fetched.
type Question struct {
	ID          int               `json:"id"`
	Prompt      string            `json:"question"`
	Options     map[string]string `json:"options"`
	Correct     string            `json:"correct"`
	Explanation string            `json:"explanation"`
	Topic       string            `json:"topic,omitempty"`
}

// Section is a named, ordered block of questions within an exam type.
// Catalogs are defined at compile time in catalog.go.
type Section struct {
	Name            string       `json:"name"`
	QuestionCount   int          `json:"count"`
	DurationMinutes int          `json:"duration"`
	SubSections     []SubSection `json:"sub_sections,omitempty"`
	// ParentSection is set on flattened leaves that came from a sub-section.
	ParentSection string `json:"parent_section,omitempty"`
}

// SubSection is a scoring subdivision of a Section.
type SubSection struct {
	Name          string `json:"name"`
	QuestionCount int    `json:"count"`
}

// SessionKind distinguishes the two attempt flows that can be resumed.
type SessionKind string

const (
	// KindPractice is the single generated exam (subject + level + count).
	KindPractice SessionKind = "practice"
	// KindSimulated is the full multi-section simulated exam.
	KindSimulated SessionKind = "simulated"
)

// SessionStatus represents the status of an exam attempt.
type SessionStatus string

const (
	StatusNotStarted        SessionStatus = "not_started"
	StatusInSection         SessionStatus = "in_section"
	StatusSectionTransition SessionStatus = "section_transition"
	StatusCompleted         SessionStatus = "completed"
)

// TimerPolicy selects how an attempt's time limit is tracked.
type TimerPolicy string

const (
	// TimerStopwatch increments only on explicit ticks and is not
	// wall-clock corrected across reloads.
	TimerStopwatch TimerPolicy = "stopwatch"
	// TimerCountdown stores an absolute end timestamp so time keeps
	// elapsing while the client is away.
	TimerCountdown TimerPolicy = "countdown"
)

// SessionState is the mutable root entity for one attempt. It must
// round-trip exactly through JSON for checkpointing.
type SessionState struct {
	AttemptID    string      `json:"attempt_id"`
	ExamType     ExamType    `json:"exam_type"`
	Kind         SessionKind `json:"kind"`
	Subject      string      `json:"subject,omitempty"`
	Level        Difficulty  `json:"level,omitempty"`
	FlatSections []Section   `json:"flat_sections"`

	CurrentSection int `json:"current_section"`
	// HighWater is the furthest section index ever reached; navigating
	// back to review never lowers it.
	HighWater int `json:"high_water"`

	Questions      map[string][]Question     `json:"questions"`
	Answers        map[string]map[int]string `json:"answers"`
	Finalized      map[string]bool           `json:"finalized"`
	SectionResults []SectionResult           `json:"section_results"`

	ElapsedSeconds int         `json:"elapsed_seconds"`
	Timer          TimerPolicy `json:"timer"`
	// EndsAt is set only under TimerCountdown.
	EndsAt *time.Time `json:"ends_at,omitempty"`

	Status          SessionStatus `json:"status"`
	ContentFallback bool          `json:"content_fallback"`
	StartedAt       time.Time     `json:"started_at"`
}

// Clone returns a deep copy. Checkpoint writers and state readers
// marshal outside the session lock, so they must never share the inner
// maps with the live state.
func (s *SessionState) Clone() *SessionState {
	copied := *s
	copied.FlatSections = append([]Section(nil), s.FlatSections...)
	copied.SectionResults = append([]SectionResult(nil), s.SectionResults...)
	copied.Questions = CloneQuestions(s.Questions)
	copied.Answers = CloneAnswers(s.Answers)
	if s.Finalized != nil {
		copied.Finalized = make(map[string]bool, len(s.Finalized))
		for k, v := range s.Finalized {
			copied.Finalized[k] = v
		}
	}
	if s.EndsAt != nil {
		endsAt := *s.EndsAt
		copied.EndsAt = &endsAt
	}
	return &copied
}

// CloneQuestions copies the per-section question cache. Question values
// are immutable once fetched, so only the map layers are copied.
func CloneQuestions(questions map[string][]Question) map[string][]Question {
	if questions == nil {
		return nil
	}
	copied := make(map[string][]Question, len(questions))
	for name, qs := range questions {
		copied[name] = append([]Question(nil), qs...)
	}
	return copied
}

// CloneAnswers copies the per-section answer maps.
func CloneAnswers(answers map[string]map[int]string) map[string]map[int]string {
	if answers == nil {
		return nil
	}
	copied := make(map[string]map[int]string, len(answers))
	for name, byIndex := range answers {
		inner := make(map[int]string, len(byIndex))
		for i, label := range byIndex {
			inner[i] = label
		}
		copied[name] = inner
	}
	return copied
}

// CurrentSectionName returns the name of the active section, or "" when
// the attempt has moved past the last section.
func (s *SessionState) CurrentSectionName() string {
	if s.CurrentSection < 0 || s.CurrentSection >= len(s.FlatSections) {
		return ""
	}
	return s.FlatSections[s.CurrentSection].Name
}

// SectionResult is the correctness breakdown for one finalized section.
type SectionResult struct {
	Section string `json:"section"`
	Correct int    `json:"correct"`
	Wrong   int    `json:"wrong"`
	Empty   int    `json:"empty"`
}

// AttemptResult is the immutable outcome of a completed attempt. The
// storage backend owns it after insertion; the client keeps a transient
// copy for the results screen.
type AttemptResult struct {
	AttemptID        string                    `json:"attempt_id"`
	ExamType         ExamType                  `json:"exam_type"`
	Kind             SessionKind               `json:"kind"`
	Subject          string                    `json:"subject,omitempty"`
	Level            Difficulty                `json:"level,omitempty"`
	Sections         []SectionResult           `json:"sections"`
	TotalQuestions   int                       `json:"total_questions"`
	CorrectAnswers   int                       `json:"correct_answers"`
	WrongAnswers     int                       `json:"wrong_answers"`
	EmptyAnswers     int                       `json:"empty_answers"`
	Score            int                       `json:"score"`
	TimeSpentSeconds int                       `json:"time_spent"`
	RawAnswers       map[string]map[int]string `json:"raw_answers"`
	Questions        map[string][]Question     `json:"questions"`
	CompletedAt      time.Time                 `json:"completed_at"`
}

// StoredResult is one historical attempt row as read back from the
// storage backend, normalized for the statistics view.
type StoredResult struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	ExamType       string    `json:"exam_type"`
	Subject        string    `json:"subject"`
	Level          string    `json:"level"`
	TotalQuestions int       `json:"total_questions"`
	CorrectAnswers int       `json:"correct_answers"`
	WrongAnswers   int       `json:"wrong_answers"`
	EmptyAnswers   int       `json:"empty_answers"`
	Score          int       `json:"score"`
	TimeSpent      int       `json:"time_spent"`
	ExamID         string    `json:"exam_id,omitempty"`
	CompletedAt    time.Time `json:"completed_at"`
}

// ChatMessage is one turn in a tutor conversation.
type ChatMessage struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ChatConversation is a persisted tutor conversation.
type ChatConversation struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"user_id"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
