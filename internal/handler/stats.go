package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ekaraca/hazirlik/internal/model"
	"github.com/ekaraca/hazirlik/internal/score"
)

// statsData gathers everything the statistics view needs in one read.
type statsData struct {
	Tests []model.StoredResult    `json:"tests"`
	Exams []model.StoredResult    `json:"exams"`
	Topic []score.TopicStat       `json:"topics"`
	Break [][]model.SectionResult `json:"-"`
}

func (h *Handler) loadStats(userID int64) (*statsData, error) {
	tests, err := h.store.ListTestResults(userID)
	if err != nil {
		return nil, err
	}
	exams, breakdowns, err := h.store.ListExamResults(userID)
	if err != nil {
		return nil, err
	}

	records := score.RecordsFromResults(tests)
	for i, exam := range exams {
		for _, sec := range breakdowns[i] {
			records = append(records, score.TopicRecord{
				ExamType: exam.ExamType,
				Section:  sec.Section,
				Correct:  sec.Correct,
				Wrong:    sec.Wrong,
				Empty:    sec.Empty,
			})
		}
	}

	return &statsData{
		Tests: tests,
		Exams: exams,
		Topic: score.GroupByTopic(records),
		Break: breakdowns,
	}, nil
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	data, err := h.loadStats(currentUserID(r))
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"tests": data.Tests,
		"exams": data.Exams,
	})
}

func (h *Handler) handleTopicStats(w http.ResponseWriter, r *http.Request) {
	data, err := h.loadStats(currentUserID(r))
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	respondJSON(w, http.StatusOK, data.Topic)
}

// handleEvaluateStats asks the generation endpoint for a natural
// language study recommendation based on the user's topic performance.
func (h *Handler) handleEvaluateStats(w http.ResponseWriter, r *http.Request) {
	data, err := h.loadStats(currentUserID(r))
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	if len(data.Topic) == 0 {
		h.respondError(w, r, http.StatusNotFound, "ErrNotFound")
		return
	}

	text, err := h.completer.Complete(r.Context(), buildEvaluationPrompt(data.Topic))
	if err != nil {
		// Statistics remain viewable without the narrative.
		h.respondError(w, r, http.StatusServiceUnavailable, "ContentFallbackNotice")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"evaluation": text})
}

func buildEvaluationPrompt(topics []score.TopicStat) string {
	var sb strings.Builder
	sb.WriteString("Bir öğrencinin sınav hazırlık performansı konu bazında aşağıdadır. ")
	sb.WriteString("Güçlü ve zayıf yönlerini özetle, çalışma önerileri ver. Kısa ve motive edici ol, Türkçe yanıtla.\n\n")
	for _, t := range topics {
		fmt.Fprintf(&sb, "- %s: %d doğru, %d yanlış, %d boş (başarı %%%.0f)\n",
			t.Label, t.Correct, t.Wrong, t.Empty, t.Accuracy)
	}
	return sb.String()
}
