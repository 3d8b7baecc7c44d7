package score

import (
	"testing"

	"github.com/ekaraca/hazirlik/internal/model"
)

func makeQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:      i + 1,
			Prompt:  "soru",
			Options: map[string]string{"A": "a", "B": "b", "C": "c", "D": "d", "E": "e"},
			Correct: "A",
		}
	}
	return qs
}

func TestScoreSectionPartition(t *testing.T) {
	tests := []struct {
		name    string
		answers map[int]string
		correct int
		wrong   int
		empty   int
	}{
		{"no answers", nil, 0, 0, 10},
		{"all correct", func() map[int]string {
			m := map[int]string{}
			for i := 0; i < 10; i++ {
				m[i] = "A"
			}
			return m
		}(), 10, 0, 0},
		{"mixed", map[int]string{0: "A", 1: "B", 2: "A", 5: "C"}, 2, 2, 6},
		{"blank string counts as empty", map[int]string{0: ""}, 0, 0, 10},
	}

	qs := makeQuestions(10)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ScoreSection("Türkçe", qs, tt.answers)
			if res.Correct != tt.correct || res.Wrong != tt.wrong || res.Empty != tt.empty {
				t.Errorf("got (%d, %d, %d), want (%d, %d, %d)",
					res.Correct, res.Wrong, res.Empty, tt.correct, tt.wrong, tt.empty)
			}
			if res.Correct+res.Wrong+res.Empty != len(qs) {
				t.Errorf("counts do not partition the question set: %+v", res)
			}
		})
	}
}

func TestScoreAttempt(t *testing.T) {
	tests := []struct {
		name     string
		sections []model.SectionResult
		want     int
	}{
		{"empty", nil, 0},
		{"zero questions", []model.SectionResult{{Section: "x"}}, 0},
		{"all correct", []model.SectionResult{{Correct: 40}}, 100},
		{"half", []model.SectionResult{{Correct: 5, Wrong: 5}}, 50},
		{"rounding up", []model.SectionResult{{Correct: 2, Wrong: 1}}, 67},
		{"across sections", []model.SectionResult{
			{Correct: 30, Wrong: 5, Empty: 5},
			{Correct: 10, Wrong: 20, Empty: 10},
		}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreAttempt(tt.sections)
			if got != tt.want {
				t.Errorf("ScoreAttempt() = %d, want %d", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("score %d outside [0,100]", got)
			}
		})
	}
}

func TestGroupByTopicAccumulates(t *testing.T) {
	records := []TopicRecord{
		{ExamType: "tyt", Section: "Türkçe", Topic: "orta", Correct: 8, Wrong: 2},
		{ExamType: "tyt", Section: "Türkçe", Topic: "orta", Correct: 6, Wrong: 4},
		{ExamType: "tyt", Section: "Matematik", Topic: "orta", Correct: 3, Wrong: 7, Empty: 2},
	}

	stats := GroupByTopic(records)
	if len(stats) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(stats))
	}
	if stats[0].Label != "TYT - Türkçe - orta" {
		t.Errorf("unexpected first label %q", stats[0].Label)
	}
	if stats[0].Correct != 14 || stats[0].Wrong != 6 {
		t.Errorf("expected accumulated 14/6, got %d/%d", stats[0].Correct, stats[0].Wrong)
	}
	if stats[0].Accuracy != 70 {
		t.Errorf("expected accuracy 70, got %v", stats[0].Accuracy)
	}
}

func TestGroupByTopicExcludesEmptyFromAccuracy(t *testing.T) {
	stats := GroupByTopic([]TopicRecord{
		{ExamType: "lgs", Section: "Fen Bilimleri", Topic: "zor", Correct: 5, Wrong: 5, Empty: 90},
	})
	if len(stats) != 1 {
		t.Fatalf("expected 1 topic, got %d", len(stats))
	}
	if stats[0].Accuracy != 50 {
		t.Errorf("expected accuracy 50 (empty excluded), got %v", stats[0].Accuracy)
	}
}

func TestGroupByTopicAllEmpty(t *testing.T) {
	// correct+wrong == 0 must not divide by zero.
	stats := GroupByTopic([]TopicRecord{
		{ExamType: "tyt", Section: "Felsefe", Topic: "orta", Empty: 5},
	})
	if stats[0].Accuracy != 0 {
		t.Errorf("expected accuracy 0, got %v", stats[0].Accuracy)
	}
}

func TestGroupByTopicSortStable(t *testing.T) {
	records := []TopicRecord{
		{ExamType: "tyt", Section: "Tarih", Topic: "orta", Correct: 1, Wrong: 1},    // 50
		{ExamType: "tyt", Section: "Coğrafya", Topic: "orta", Correct: 2, Wrong: 2}, // 50, inserted second
		{ExamType: "tyt", Section: "Türkçe", Topic: "orta", Correct: 9, Wrong: 1},   // 90
	}

	stats := GroupByTopic(records)
	if stats[0].Label != "TYT - Türkçe - orta" {
		t.Errorf("expected highest accuracy first, got %q", stats[0].Label)
	}
	// The two 50% topics keep their insertion order.
	if stats[1].Label != "TYT - Tarih - orta" || stats[2].Label != "TYT - Coğrafya - orta" {
		t.Errorf("tie order not preserved: %q, %q", stats[1].Label, stats[2].Label)
	}
}

func TestGroupByTopicDefaultsTopic(t *testing.T) {
	stats := GroupByTopic([]TopicRecord{
		{ExamType: "ayt", Section: "Matematik", Correct: 1},
	})
	if stats[0].Label != "AYT - Matematik - Genel" {
		t.Errorf("expected Genel default topic, got %q", stats[0].Label)
	}
}
