package model

import "testing"

func TestFlattenSections(t *testing.T) {
	tests := []struct {
		examType  ExamType
		wantLeafs int
	}{
		{ExamTYT, 9},
		{ExamAYT, 9},
		{ExamLGS, 6},
	}

	for _, tt := range tests {
		t.Run(string(tt.examType), func(t *testing.T) {
			flat := FlattenSections(SectionsFor(tt.examType))
			if len(flat) != tt.wantLeafs {
				t.Fatalf("expected %d leaf sections, got %d", tt.wantLeafs, len(flat))
			}
			for _, s := range flat {
				if len(s.SubSections) != 0 {
					t.Errorf("leaf section %q still has sub-sections", s.Name)
				}
				if s.QuestionCount <= 0 {
					t.Errorf("leaf section %q has no question count", s.Name)
				}
			}
		})
	}
}

func TestFlattenSectionsCarriesParent(t *testing.T) {
	flat := FlattenSections(SectionsFor(ExamTYT))

	var fizik *Section
	for i := range flat {
		if flat[i].Name == "Fizik" {
			fizik = &flat[i]
			break
		}
	}
	if fizik == nil {
		t.Fatal("expected Fizik leaf in TYT catalog")
	}
	if fizik.ParentSection != "Fen Bilimleri" {
		t.Errorf("expected parent 'Fen Bilimleri', got %q", fizik.ParentSection)
	}
	if fizik.DurationMinutes != 80 {
		t.Errorf("expected inherited duration 80, got %d", fizik.DurationMinutes)
	}
}

func TestSectionCounts(t *testing.T) {
	// The flattened TYT catalog carries 120 questions total.
	total := 0
	for _, s := range FlattenSections(SectionsFor(ExamTYT)) {
		total += s.QuestionCount
	}
	if total != 120 {
		t.Errorf("expected 120 TYT questions, got %d", total)
	}
}

func TestParseExamType(t *testing.T) {
	tests := []struct {
		in   string
		want ExamType
		ok   bool
	}{
		{"TYT", ExamTYT, true},
		{"tyt", ExamTYT, true},
		{"ayt", ExamAYT, true},
		{"LGS", ExamLGS, true},
		{"kpss", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseExamType(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseExamType(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
