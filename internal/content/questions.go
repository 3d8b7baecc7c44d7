package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ekaraca/hazirlik/internal/model"
)

// Adapter acquires question batches for exam sections. It makes exactly
// one upstream attempt per fetch; any failure synthesizes the batch from
// the offline bank so callers never see an empty or short result.
type Adapter struct {
	completer Completer
}

// NewAdapter creates a content adapter over a generation endpoint.
func NewAdapter(c Completer) *Adapter {
	return &Adapter{completer: c}
}

// FetchQuestions returns exactly count questions for the given section.
// The returned error, when non-nil, is an *UpstreamError describing why
// the offline bank was used; the batch itself is always usable.
func (a *Adapter) FetchQuestions(ctx context.Context, examType model.ExamType, sectionName string, count int, difficulty model.Difficulty) ([]model.Question, error) {
	prompt := buildQuestionPrompt(examType, sectionName, count, difficulty)

	raw, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		slog.Warn("question generation failed, using offline bank",
			"section", sectionName, "count", count, "error", err)
		return FallbackQuestions(sectionName, count), err
	}

	questions, err := parseQuestionPayload(raw)
	if err != nil {
		slog.Warn("question payload unusable, using offline bank",
			"section", sectionName, "error", err)
		return FallbackQuestions(sectionName, count), &UpstreamError{Class: FailMalformed, Err: err}
	}

	return normalizeCount(questions, sectionName, count), nil
}

// questionPayload is the strict single-line format the prompt demands.
type questionPayload struct {
	Title     string           `json:"title"`
	Questions []model.Question `json:"questions"`
}

func parseQuestionPayload(raw string) ([]model.Question, error) {
	var payload questionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parse question payload: %w", err)
	}
	if len(payload.Questions) == 0 {
		return nil, fmt.Errorf("payload contains no questions")
	}
	return payload.Questions, nil
}

// normalizeCount enforces the exact-length contract: extra questions are
// dropped, missing ones are topped up from the offline bank.
func normalizeCount(questions []model.Question, sectionName string, count int) []model.Question {
	if len(questions) > count {
		return questions[:count]
	}
	for _, q := range FallbackQuestions(sectionName, count-len(questions)) {
		q.ID = len(questions) + 1
		questions = append(questions, q)
	}
	return questions
}

func buildQuestionPrompt(examType model.ExamType, sectionName string, count int, difficulty model.Difficulty) string {
	level := levelName(difficulty)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s sınavı için %q bölümünde, %q seviyesinde, %d soruluk bir deneme sınavı hazırla.\n\n",
		examType, sectionName, level, count)
	if difficulty == model.DifficultyHard {
		sb.WriteString("ÖNEMLİ: Sorular gerçek sınav zorluğunda ve hatta daha zor olmalı. ")
		sb.WriteString("Öğrencileri zorlayacak, analiz gerektiren, detaylı düşünme becerisi isteyen sorular hazırla.\n\n")
	}
	sb.WriteString("Yanıtı yalnızca JSON formatında ve tek satır olarak, stringlerde satır sonları için \\n kullanarak ver. ")
	sb.WriteString("Her sorunun \"id\" alanı benzersiz olmalı. Örnek format:\n\n")
	sb.WriteString(`{"title":"Sınav başlığı","questions":[{"id":1,"question":"Soru metni","options":{"A":"Seçenek A","B":"Seçenek B","C":"Seçenek C","D":"Seçenek D","E":"Seçenek E"},"correct":"A","explanation":"Cevabın açıklaması"}]}`)
	sb.WriteString("\n")
	return sb.String()
}

func levelName(d model.Difficulty) string {
	switch d {
	case model.DifficultyEasy:
		return "Kolay"
	case model.DifficultyHard:
		return "Zor"
	default:
		return "Orta"
	}
}
