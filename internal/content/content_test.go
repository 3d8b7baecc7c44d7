package content

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ekaraca/hazirlik/internal/model"
)

// fakeCompleter scripts the upstream response for adapter tests.
type fakeCompleter struct {
	response string
	err      error
	calls    int
}

func (f *fakeCompleter) Complete(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestFetchQuestionsSuccess(t *testing.T) {
	payload := `{"title":"Deneme","questions":[` +
		`{"id":1,"question":"Soru 1","options":{"A":"a","B":"b","C":"c","D":"d","E":"e"},"correct":"B","explanation":"çünkü"},` +
		`{"id":2,"question":"Soru 2","options":{"A":"a","B":"b","C":"c","D":"d","E":"e"},"correct":"C","explanation":"çünkü"}]}`
	fc := &fakeCompleter{response: payload}
	a := NewAdapter(fc)

	qs, err := a.FetchQuestions(context.Background(), model.ExamTYT, "Türkçe", 2, model.DifficultyMedium)
	if err != nil {
		t.Fatalf("FetchQuestions: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	if qs[0].Correct != "B" || qs[1].Prompt != "Soru 2" {
		t.Errorf("unexpected questions: %+v", qs)
	}
}

func TestFetchQuestionsFallbackOnError(t *testing.T) {
	tests := []struct {
		name      string
		completer *fakeCompleter
		wantClass FailureClass
	}{
		{"network failure", &fakeCompleter{err: &UpstreamError{Class: FailNetwork, Err: errors.New("unreachable")}}, FailNetwork},
		{"rate limited", &fakeCompleter{err: &UpstreamError{Class: FailRateLimited, Err: errors.New("429")}}, FailRateLimited},
		{"malformed payload", &fakeCompleter{response: "not json at all"}, FailMalformed},
		{"zero questions", &fakeCompleter{response: `{"title":"x","questions":[]}`}, FailMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdapter(tt.completer)
			qs, err := a.FetchQuestions(context.Background(), model.ExamTYT, "Türkçe", 40, model.DifficultyHard)
			if len(qs) != 40 {
				t.Fatalf("expected exactly 40 questions, got %d", len(qs))
			}
			var ue *UpstreamError
			if !errors.As(err, &ue) {
				t.Fatalf("expected *UpstreamError, got %v", err)
			}
			if ue.Class != tt.wantClass {
				t.Errorf("expected class %q, got %q", tt.wantClass, ue.Class)
			}
			for _, q := range qs {
				if q.Correct != FallbackCorrectLabel {
					t.Fatalf("fallback question %d has correct label %q", q.ID, q.Correct)
				}
				if q.Explanation != FallbackExplanation {
					t.Fatalf("fallback question %d missing substitute explanation", q.ID)
				}
			}
		})
	}
}

func TestFetchQuestionsNormalizesCount(t *testing.T) {
	// Three questions returned when five were requested: top up from the bank.
	payload := `{"questions":[` +
		`{"id":1,"question":"q1","options":{"A":"a"},"correct":"A","explanation":""},` +
		`{"id":2,"question":"q2","options":{"A":"a"},"correct":"A","explanation":""},` +
		`{"id":3,"question":"q3","options":{"A":"a"},"correct":"A","explanation":""}]}`
	a := NewAdapter(&fakeCompleter{response: payload})

	qs, err := a.FetchQuestions(context.Background(), model.ExamLGS, "Matematik", 5, model.DifficultyMedium)
	if err != nil {
		t.Fatalf("FetchQuestions: %v", err)
	}
	if len(qs) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(qs))
	}
	if qs[3].Explanation != FallbackExplanation || qs[4].Explanation != FallbackExplanation {
		t.Error("topped-up questions should carry the substitute explanation")
	}
	if qs[3].ID != 4 || qs[4].ID != 5 {
		t.Errorf("topped-up IDs should continue the sequence, got %d, %d", qs[3].ID, qs[4].ID)
	}
}

func TestFetchQuestionsTruncatesExtra(t *testing.T) {
	payload := `{"questions":[` +
		`{"id":1,"question":"q1","options":{"A":"a"},"correct":"A"},` +
		`{"id":2,"question":"q2","options":{"A":"a"},"correct":"A"},` +
		`{"id":3,"question":"q3","options":{"A":"a"},"correct":"A"}]}`
	a := NewAdapter(&fakeCompleter{response: payload})

	qs, err := a.FetchQuestions(context.Background(), model.ExamLGS, "Türkçe", 2, model.DifficultyMedium)
	if err != nil {
		t.Fatalf("FetchQuestions: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
}

func TestFallbackQuestionsCycleTemplates(t *testing.T) {
	qs := FallbackQuestions("Türkçe", 12)
	if len(qs) != 12 {
		t.Fatalf("expected 12 questions, got %d", len(qs))
	}
	// Bank holds 5 templates; question 6 repeats question 1.
	if qs[5].Prompt != qs[0].Prompt {
		t.Errorf("expected template cycling, got %q vs %q", qs[5].Prompt, qs[0].Prompt)
	}
	if qs[0].ID == qs[5].ID {
		t.Error("cycled questions must keep distinct IDs")
	}
}

func TestFallbackTemplateLookup(t *testing.T) {
	tests := []struct {
		section string
		wantKey string
	}{
		{"Türkçe", "Türkçe"},
		{"Temel Matematik", "Matematik"},
		{"T.C. İnkılap Tarihi ve Atatürkçülük", "Tarih"},
		{"Din Kültürü ve Ahlak Bilgisi", "Din Kültürü"},
		{"Bilinmeyen Bölüm", "Matematik"},
	}
	for _, tt := range tests {
		t.Run(tt.section, func(t *testing.T) {
			got := templatesFor(tt.section)
			want := fallbackTemplates[tt.wantKey]
			if got[0] != want[0] {
				t.Errorf("templatesFor(%q) resolved to %q, want %q bank", tt.section, got[0], tt.wantKey)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureClass
	}{
		{"rate limit", &openai.APIError{HTTPStatusCode: 429}, FailRateLimited},
		{"unauthorized", &openai.APIError{HTTPStatusCode: 401}, FailUnauthorized},
		{"forbidden", &openai.APIError{HTTPStatusCode: 403}, FailUnauthorized},
		{"server error", &openai.APIError{HTTPStatusCode: 500}, FailHTTP},
		{"request error", &openai.RequestError{HTTPStatusCode: 502}, FailHTTP},
		{"plain error", errors.New("dial tcp: no route to host"), FailNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildQuestionPrompt(t *testing.T) {
	p := buildQuestionPrompt(model.ExamAYT, "Fizik", 14, model.DifficultyHard)
	for _, want := range []string{"AYT", "Fizik", "14 soruluk", "Zor", "tek satır", `"id"`} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.Contains(p, "analiz gerektiren") {
		t.Error("hard prompts should demand harder questions")
	}
	if strings.Contains(buildQuestionPrompt(model.ExamTYT, "Türkçe", 10, model.DifficultyMedium), "analiz gerektiren") {
		t.Error("non-hard prompts should not carry the hard-question instruction")
	}
}
