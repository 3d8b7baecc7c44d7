// Package session drives the lifecycle of one exam attempt: section
// sequencing, answer capture, timing, and completion. Every mutation is
// checkpointed so the attempt survives reloads.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ekaraca/hazirlik/internal/content"
	"github.com/ekaraca/hazirlik/internal/model"
	"github.com/ekaraca/hazirlik/internal/progress"
	"github.com/ekaraca/hazirlik/internal/score"
)

// Fetcher acquires question batches. Implementations must always return
// exactly count questions; a non-nil error marks the batch as
// substitute content, never as missing content.
type Fetcher interface {
	FetchQuestions(ctx context.Context, examType model.ExamType, sectionName string, count int, difficulty model.Difficulty) ([]model.Question, error)
}

var (
	ErrNoSession        = errors.New("no active session")
	ErrCompleted        = errors.New("session already completed")
	ErrSectionNotLoaded = errors.New("current section has no questions")
)

// Manager owns the SessionState for one attempt. All methods are safe
// for concurrent use; the in-flight map deduplicates section fetches.
type Manager struct {
	mu       sync.Mutex
	userID   int64
	fetcher  Fetcher
	progress progress.Store
	state    *model.SessionState
	inflight map[string]*fetchJob
}

// fetchJob tracks one outstanding section fetch. Waiters block on done.
type fetchJob struct {
	done chan struct{}
}

// StartParams selects what kind of attempt to build.
type StartParams struct {
	ExamType model.ExamType
	Kind     model.SessionKind
	// Subject, Level and QuestionCount apply to practice attempts only.
	Subject         string
	Level           model.Difficulty
	QuestionCount   int
	DurationMinutes int
}

// NewManager creates a manager bound to one user and attempt kind.
func NewManager(userID int64, fetcher Fetcher, store progress.Store) *Manager {
	return &Manager{
		userID:   userID,
		fetcher:  fetcher,
		progress: store,
		inflight: make(map[string]*fetchJob),
	}
}

// StartSession constructs a fresh attempt, discarding any prior durable
// session of the same kind for this user. Practice attempts run a
// single section on a wall-clock countdown; simulated exams run the
// full section catalog on a tick-driven stopwatch.
func (m *Manager) StartSession(params StartParams) *model.SessionState {
	now := time.Now()
	state := &model.SessionState{
		AttemptID:      uuid.NewString(),
		ExamType:       params.ExamType,
		Kind:           params.Kind,
		CurrentSection: 0,
		HighWater:      0,
		Questions:      make(map[string][]model.Question),
		Answers:        make(map[string]map[int]string),
		Finalized:      make(map[string]bool),
		Status:         model.StatusNotStarted,
		StartedAt:      now,
	}

	switch params.Kind {
	case model.KindPractice:
		state.Subject = params.Subject
		state.Level = params.Level
		state.FlatSections = []model.Section{{
			Name:            params.Subject,
			QuestionCount:   params.QuestionCount,
			DurationMinutes: params.DurationMinutes,
		}}
		state.Timer = model.TimerCountdown
		endsAt := now.Add(time.Duration(params.DurationMinutes) * time.Minute)
		state.EndsAt = &endsAt
	default:
		state.FlatSections = model.FlattenSections(model.SectionsFor(params.ExamType))
		state.Timer = model.TimerStopwatch
	}

	m.mu.Lock()
	m.state = state
	m.inflight = make(map[string]*fetchJob)
	m.mu.Unlock()

	m.checkpoint()
	return m.snapshot()
}

// Resume restores a checkpointed attempt. Returns nil when there is
// nothing to resume; completed sessions never resume.
func (m *Manager) Resume(kind model.SessionKind) *model.SessionState {
	saved, err := m.progress.Load(m.userID, kind)
	if err != nil {
		slog.Warn("checkpoint load failed", "user", m.userID, "kind", kind, "error", err)
		return nil
	}
	if saved == nil || saved.Status == model.StatusCompleted {
		return nil
	}

	m.mu.Lock()
	m.state = saved
	m.inflight = make(map[string]*fetchJob)
	m.mu.Unlock()
	return m.snapshot()
}

// State returns a copy of the current state, or nil without a session.
func (m *Manager) State() *model.SessionState {
	return m.snapshot()
}

// RemainingSeconds reports the countdown time left as of now. Time
// keeps elapsing while the attempt is unloaded: it is recomputed from
// the stored end timestamp, not from ticks. Stopwatch attempts have no
// limit and report -1.
func (m *Manager) RemainingSeconds(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil || m.state.Timer != model.TimerCountdown || m.state.EndsAt == nil {
		return -1
	}
	remaining := int(m.state.EndsAt.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// EnsureSectionLoaded fetches the current section's questions if they
// are not cached. Concurrent calls for the same section share one
// upstream request. The returned flag reports substitute content.
func (m *Manager) EnsureSectionLoaded(ctx context.Context) (fallback bool, err error) {
	m.mu.Lock()
	if m.state == nil {
		m.mu.Unlock()
		return false, ErrNoSession
	}
	if m.state.Status == model.StatusCompleted {
		m.mu.Unlock()
		return false, ErrCompleted
	}

	attemptID := m.state.AttemptID
	section := m.state.FlatSections[m.state.CurrentSection]
	if _, ok := m.state.Questions[section.Name]; ok {
		m.promoteLocked()
		fallback = m.state.ContentFallback
		m.mu.Unlock()
		return fallback, nil
	}

	if job, ok := m.inflight[section.Name]; ok {
		m.mu.Unlock()
		select {
		case <-job.done:
		case <-ctx.Done():
			return false, ctx.Err()
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.state == nil || m.state.AttemptID != attemptID {
			return false, ErrNoSession
		}
		if _, ok := m.state.Questions[section.Name]; !ok {
			return false, ErrSectionNotLoaded
		}
		return m.state.ContentFallback, nil
	}

	job := &fetchJob{done: make(chan struct{})}
	m.inflight[section.Name] = job
	examType := m.state.ExamType
	level := m.state.Level
	if level == "" {
		level = model.DifficultyMedium
	}
	m.mu.Unlock()

	questions, fetchErr := m.fetcher.FetchQuestions(ctx, examType, section.Name, section.QuestionCount, level)

	m.mu.Lock()
	delete(m.inflight, section.Name)
	close(job.done)

	// A stale response for an abandoned attempt is discarded.
	if m.state == nil || m.state.AttemptID != attemptID {
		m.mu.Unlock()
		return false, ErrNoSession
	}
	m.state.Questions[section.Name] = questions
	if fetchErr != nil {
		m.state.ContentFallback = true
	}
	m.promoteLocked()
	fallback = m.state.ContentFallback
	m.mu.Unlock()

	m.checkpoint()
	return fallback, nil
}

// promoteLocked moves a waiting status to InSection once the current
// section has questions. Caller holds mu.
func (m *Manager) promoteLocked() {
	if m.state.Status == model.StatusNotStarted || m.state.Status == model.StatusSectionTransition {
		if _, ok := m.state.Questions[m.state.CurrentSectionName()]; ok {
			m.state.Status = model.StatusInSection
		}
	}
}

// SelectAnswer records or overwrites one answer. It is a silent no-op
// when the target is not the current section, the section is finalized,
// or the attempt is not accepting answers.
func (m *Manager) SelectAnswer(sectionIndex, questionIndex int, label string) {
	m.mu.Lock()
	if m.state == nil ||
		m.state.Status != model.StatusInSection ||
		sectionIndex != m.state.CurrentSection {
		m.mu.Unlock()
		return
	}
	name := m.state.FlatSections[sectionIndex].Name
	if m.state.Finalized[name] {
		m.mu.Unlock()
		return
	}
	questions := m.state.Questions[name]
	if questionIndex < 0 || questionIndex >= len(questions) {
		m.mu.Unlock()
		return
	}
	if m.state.Answers[name] == nil {
		m.state.Answers[name] = make(map[int]string)
	}
	m.state.Answers[name][questionIndex] = label
	m.mu.Unlock()

	m.checkpoint()
}

// Tick advances the stopwatch by one second. Counted only while the
// attempt is in a section; transitions and completed attempts do not
// accumulate time.
func (m *Manager) Tick() {
	m.mu.Lock()
	if m.state == nil || m.state.Status != model.StatusInSection {
		m.mu.Unlock()
		return
	}
	m.state.ElapsedSeconds++
	// Checkpoint every few seconds rather than on every tick; the final
	// flush happens on the next answer, advance, or teardown.
	flush := m.state.ElapsedSeconds%5 == 0
	m.mu.Unlock()

	if flush {
		m.checkpoint()
	}
}

// AdvanceSection finalizes the current section and either moves to the
// next one or completes the attempt. The current section must be
// loaded; a pending fetch is waited for via EnsureSectionLoaded, so
// advancing never finalizes against zero questions. On completion the
// aggregate result is returned and durable progress is cleared; the
// caller persists the result to the storage backend.
func (m *Manager) AdvanceSection(ctx context.Context) (*model.AttemptResult, error) {
	if _, err := m.EnsureSectionLoaded(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.state == nil {
		m.mu.Unlock()
		return nil, ErrNoSession
	}
	if m.state.Status == model.StatusCompleted {
		m.mu.Unlock()
		return nil, ErrCompleted
	}

	name := m.state.FlatSections[m.state.CurrentSection].Name
	questions := m.state.Questions[name]
	if len(questions) == 0 {
		m.mu.Unlock()
		return nil, ErrSectionNotLoaded
	}

	if !m.state.Finalized[name] {
		m.state.Finalized[name] = true
		m.state.SectionResults = append(m.state.SectionResults,
			score.ScoreSection(name, questions, m.state.Answers[name]))
	}

	if m.state.CurrentSection+1 < len(m.state.FlatSections) {
		m.state.CurrentSection++
		if m.state.CurrentSection > m.state.HighWater {
			m.state.HighWater = m.state.CurrentSection
		}
		m.state.Status = model.StatusSectionTransition
		m.mu.Unlock()
		m.checkpoint()
		return nil, nil
	}

	m.state.Status = model.StatusCompleted
	result := m.buildResultLocked()
	kind := m.state.Kind
	m.mu.Unlock()

	if err := m.progress.Clear(m.userID, kind); err != nil {
		slog.Warn("clearing checkpoint failed", "user", m.userID, "kind", kind, "error", err)
	}
	return result, nil
}

// GotoSection navigates back to an already-visited section for review.
// Recorded answers are kept; the high-water mark never lowers, so the
// student can always return forward.
func (m *Manager) GotoSection(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return ErrNoSession
	}
	if m.state.Status == model.StatusCompleted {
		return ErrCompleted
	}
	if index < 0 || index > m.state.HighWater {
		return errors.New("section not yet reached")
	}
	m.state.CurrentSection = index
	return nil
}

// Abandon discards the attempt and its durable progress.
func (m *Manager) Abandon() {
	m.mu.Lock()
	if m.state == nil {
		m.mu.Unlock()
		return
	}
	kind := m.state.Kind
	m.state = nil
	m.mu.Unlock()

	if err := m.progress.Clear(m.userID, kind); err != nil {
		slog.Warn("clearing checkpoint failed", "user", m.userID, "kind", kind, "error", err)
	}
}

// Flush writes the current state synchronously. Used on teardown so
// debounced tick checkpoints cannot lose the final state.
func (m *Manager) Flush() {
	m.checkpoint()
}

// buildResultLocked assembles the immutable attempt outcome. Caller
// holds mu and has finalized every section.
func (m *Manager) buildResultLocked() *model.AttemptResult {
	st := m.state
	result := &model.AttemptResult{
		AttemptID:        st.AttemptID,
		ExamType:         st.ExamType,
		Kind:             st.Kind,
		Subject:          st.Subject,
		Level:            st.Level,
		Sections:         append([]model.SectionResult(nil), st.SectionResults...),
		Score:            score.ScoreAttempt(st.SectionResults),
		TimeSpentSeconds: st.ElapsedSeconds,
		RawAnswers:       model.CloneAnswers(st.Answers),
		Questions:        model.CloneQuestions(st.Questions),
		CompletedAt:      time.Now(),
	}
	if st.Timer == model.TimerCountdown && st.EndsAt != nil {
		// Wall-clock policy: time spent is real elapsed time, capped at
		// the allotted duration.
		total := st.FlatSections[0].DurationMinutes * 60
		spent := total - int(time.Until(*st.EndsAt).Seconds())
		if spent > total {
			spent = total
		}
		if spent > 0 {
			result.TimeSpentSeconds = spent
		}
	}
	for _, sec := range result.Sections {
		result.CorrectAnswers += sec.Correct
		result.WrongAnswers += sec.Wrong
		result.EmptyAnswers += sec.Empty
	}
	result.TotalQuestions = result.CorrectAnswers + result.WrongAnswers + result.EmptyAnswers
	return result
}

// snapshot deep-copies the state under the lock. Callers marshal the
// copy concurrently with further mutations, so it must not alias the
// live maps.
func (m *Manager) snapshot() *model.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil
	}
	return m.state.Clone()
}

// checkpoint writes the state best effort. A failed write is logged and
// never blocks the attempt. The store marshals outside the lock, so it
// gets a deep copy.
func (m *Manager) checkpoint() {
	m.mu.Lock()
	if m.state == nil {
		m.mu.Unlock()
		return
	}
	st := m.state.Clone()
	m.mu.Unlock()

	if err := m.progress.Save(m.userID, st.Kind, st); err != nil {
		slog.Warn("checkpoint write failed", "user", m.userID, "kind", st.Kind, "error", err)
	}
}

// compile-time check that the content adapter satisfies Fetcher
var _ Fetcher = (*content.Adapter)(nil)
