package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ekaraca/hazirlik/internal/i18n"
	"github.com/ekaraca/hazirlik/internal/model"
	"github.com/ekaraca/hazirlik/internal/session"
)

// attemptRoutes registers the attempt lifecycle endpoints for one kind.
// Practice and simulated exams share the same surface; only their
// session construction differs.
func (h *Handler) attemptRoutes(r chi.Router, kind model.SessionKind) {
	r.Post("/start", h.handleStartAttempt(kind))
	r.Get("/state", h.handleAttemptState(kind))
	r.Get("/resume", h.handleResumeAttempt(kind))
	r.Post("/answer", h.handleSelectAnswer(kind))
	r.Post("/advance", h.handleAdvance(kind))
	r.Post("/tick", h.handleTick(kind))
	r.Post("/goto", h.handleGotoSection(kind))
	r.Post("/abandon", h.handleAbandonAttempt(kind))
}

// attemptView is the state payload shared by every attempt endpoint.
type attemptView struct {
	State            *model.SessionState `json:"state"`
	RemainingSeconds int                 `json:"remaining_seconds"`
	Notice           string              `json:"notice,omitempty"`
}

func (h *Handler) attemptViewFor(m *session.Manager, notice string) attemptView {
	return attemptView{
		State:            m.State(),
		RemainingSeconds: m.RemainingSeconds(time.Now()),
		Notice:           notice,
	}
}

type startAttemptRequest struct {
	ExamType        string `json:"exam_type"`
	Subject         string `json:"subject,omitempty"`
	Level           string `json:"level,omitempty"`
	QuestionCount   int    `json:"question_count,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

func (h *Handler) handleStartAttempt(kind model.SessionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startAttemptRequest
		if err := decodeJSON(r, &req); err != nil {
			h.respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
			return
		}
		examType, ok := model.ParseExamType(req.ExamType)
		if !ok {
			h.respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
			return
		}

		params := session.StartParams{ExamType: examType, Kind: kind}
		if kind == model.KindPractice {
			if req.Subject == "" || req.QuestionCount <= 0 {
				h.respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
				return
			}
			params.Subject = req.Subject
			params.Level = model.Difficulty(req.Level)
			if params.Level == "" {
				params.Level = model.DifficultyMedium
			}
			params.QuestionCount = req.QuestionCount
			params.DurationMinutes = req.DurationMinutes
			if params.DurationMinutes <= 0 {
				// One and a half minutes per question by default.
				params.DurationMinutes = (req.QuestionCount*3 + 1) / 2
			}
		}

		m := h.manager(r, kind)
		m.StartSession(params)

		fallback, err := m.EnsureSectionLoaded(r.Context())
		if err != nil {
			h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
			return
		}
		var notice string
		if fallback {
			notice = i18n.T(r.Context(), "ContentFallbackNotice")
		}
		respondJSON(w, http.StatusOK, h.attemptViewFor(m, notice))
	}
}

func (h *Handler) handleAttemptState(kind model.SessionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := h.manager(r, kind)
		if m.State() == nil {
			h.respondError(w, r, http.StatusNotFound, "ErrSessionNotFound")
			return
		}
		respondJSON(w, http.StatusOK, h.attemptViewFor(m, ""))
	}
}

func (h *Handler) handleResumeAttempt(kind model.SessionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := h.manager(r, kind)
		if m.State() == nil && m.Resume(kind) == nil {
			h.respondError(w, r, http.StatusNotFound, "ErrSessionNotFound")
			return
		}
		// Make sure the restored current section has its questions; a
		// checkpoint taken mid-fetch has none cached.
		fallback, err := m.EnsureSectionLoaded(r.Context())
		switch {
		case errors.Is(err, session.ErrCompleted):
			// A finished attempt lingering in the live manager is not
			// resumable; its checkpoint is already cleared.
			h.respondError(w, r, http.StatusNotFound, "ErrSessionNotFound")
			return
		case err != nil:
			h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
			return
		}
		var notice string
		if fallback {
			notice = i18n.T(r.Context(), "ContentFallbackNotice")
		}
		respondJSON(w, http.StatusOK, h.attemptViewFor(m, notice))
	}
}

type answerRequest struct {
	SectionIndex  int    `json:"section_index"`
	QuestionIndex int    `json:"question_index"`
	Label         string `json:"label"`
}

func (h *Handler) handleSelectAnswer(kind model.SessionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req answerRequest
		if err := decodeJSON(r, &req); err != nil {
			h.respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
			return
		}
		m := h.manager(r, kind)
		if m.State() == nil {
			h.respondError(w, r, http.StatusNotFound, "ErrSessionNotFound")
			return
		}
		// Invalid selections are silent no-ops; the caller always gets
		// the authoritative state back.
		m.SelectAnswer(req.SectionIndex, req.QuestionIndex, req.Label)
		respondJSON(w, http.StatusOK, h.attemptViewFor(m, ""))
	}
}

// advanceResponse carries the attempt view plus, on completion, the
// final result.
type advanceResponse struct {
	attemptView
	Result *model.AttemptResult `json:"result,omitempty"`
}

func (h *Handler) handleAdvance(kind model.SessionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := h.manager(r, kind)
		result, err := m.AdvanceSection(r.Context())
		switch {
		case errors.Is(err, session.ErrNoSession):
			h.respondError(w, r, http.StatusNotFound, "ErrSessionNotFound")
			return
		case errors.Is(err, session.ErrCompleted):
			h.respondError(w, r, http.StatusConflict, "ErrSessionNotFound")
			return
		case err != nil:
			h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
			return
		}

		resp := advanceResponse{attemptView: h.attemptViewFor(m, ""), Result: result}
		if result != nil {
			// The computed result is display-authoritative even when the
			// backend write fails; persistence is best effort.
			if notice := h.persistResult(r, kind, result); notice != "" {
				resp.Notice = notice
			}
		} else {
			// Load the next section eagerly so the transition screen can
			// show it without another round trip.
			if fallback, err := m.EnsureSectionLoaded(r.Context()); err == nil && fallback {
				resp.Notice = i18n.T(r.Context(), "ContentFallbackNotice")
			}
			resp.State = m.State()
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

// persistResult writes a completed attempt to the backend. Returns a
// localized notice when the write fails; anonymous results are never
// stored.
func (h *Handler) persistResult(r *http.Request, kind model.SessionKind, result *model.AttemptResult) string {
	userID := currentUserID(r)
	if userID == 0 {
		return ""
	}
	var err error
	if kind == model.KindPractice {
		_, err = h.store.InsertTestResult(userID, *result)
	} else {
		_, err = h.store.InsertExamResult(userID, *result)
	}
	if err != nil {
		slog.Error("failed to persist attempt result", "user", userID, "kind", kind, "error", err)
		return i18n.T(r.Context(), "ResultSaveFailed")
	}
	return ""
}

func (h *Handler) handleTick(kind model.SessionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := h.manager(r, kind)
		if m.State() == nil {
			h.respondError(w, r, http.StatusNotFound, "ErrSessionNotFound")
			return
		}
		m.Tick()
		respondJSON(w, http.StatusOK, h.attemptViewFor(m, ""))
	}
}

type gotoRequest struct {
	SectionIndex int `json:"section_index"`
}

func (h *Handler) handleGotoSection(kind model.SessionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gotoRequest
		if err := decodeJSON(r, &req); err != nil {
			h.respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
			return
		}
		m := h.manager(r, kind)
		if err := m.GotoSection(req.SectionIndex); err != nil {
			switch {
			case errors.Is(err, session.ErrNoSession):
				h.respondError(w, r, http.StatusNotFound, "ErrSessionNotFound")
			default:
				h.respondError(w, r, http.StatusBadRequest, "ErrSectionNotReached")
			}
			return
		}
		respondJSON(w, http.StatusOK, h.attemptViewFor(m, ""))
	}
}

func (h *Handler) handleAbandonAttempt(kind model.SessionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := h.manager(r, kind)
		m.Abandon()
		h.sessions.Drop(currentUserID(r), clientID(r), kind)
		w.WriteHeader(http.StatusNoContent)
	}
}
