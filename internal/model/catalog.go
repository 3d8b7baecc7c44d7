package model

// Section catalogs mirror the official exam layouts. They are static
// reference data, not user data.

var tytSections = []Section{
	{Name: "Türkçe", QuestionCount: 40, DurationMinutes: 165},
	{Name: "Temel Matematik", QuestionCount: 40, DurationMinutes: 165},
	{Name: "Sosyal Bilimler", DurationMinutes: 80, SubSections: []SubSection{
		{Name: "Coğrafya", QuestionCount: 5},
		{Name: "Din Kültürü", QuestionCount: 5},
		{Name: "Felsefe", QuestionCount: 5},
		{Name: "Tarih", QuestionCount: 5},
	}},
	{Name: "Fen Bilimleri", DurationMinutes: 80, SubSections: []SubSection{
		{Name: "Fizik", QuestionCount: 7},
		{Name: "Kimya", QuestionCount: 7},
		{Name: "Biyoloji", QuestionCount: 6},
	}},
}

var aytSections = []Section{
	{Name: "Türk Dili ve Edebiyatı", QuestionCount: 40, DurationMinutes: 180},
	{Name: "Matematik", QuestionCount: 40, DurationMinutes: 180},
	{Name: "Sosyal Bilimler", DurationMinutes: 100, SubSections: []SubSection{
		{Name: "Tarih", QuestionCount: 11},
		{Name: "Coğrafya", QuestionCount: 11},
		{Name: "Felsefe", QuestionCount: 12},
		{Name: "Din Kültürü", QuestionCount: 6},
	}},
	{Name: "Fizik Kimya Biyoloji", DurationMinutes: 100, SubSections: []SubSection{
		{Name: "Fizik", QuestionCount: 14},
		{Name: "Kimya", QuestionCount: 13},
		{Name: "Biyoloji", QuestionCount: 13},
	}},
}

var lgsSections = []Section{
	{Name: "Türkçe", QuestionCount: 20, DurationMinutes: 50},
	{Name: "Matematik", QuestionCount: 20, DurationMinutes: 40},
	{Name: "Fen Bilimleri", QuestionCount: 20, DurationMinutes: 30},
	{Name: "İnkılap Tarihi", QuestionCount: 10, DurationMinutes: 20},
	{Name: "İngilizce", QuestionCount: 10, DurationMinutes: 20},
	{Name: "Din Kültürü", QuestionCount: 10, DurationMinutes: 20},
}

// ExamDurationMinutes is the total sitting time per exam type.
var ExamDurationMinutes = map[ExamType]int{
	ExamTYT: 165,
	ExamAYT: 180,
	ExamLGS: 155,
}

// SubjectsByExam lists the practice-exam subject keys and their display
// names per exam type.
var SubjectsByExam = map[ExamType]map[string]string{
	ExamTYT: {
		"turkce":    "Türkçe",
		"matematik": "Temel Matematik",
		"sosyal":    "Sosyal Bilimler",
		"fen":       "Fen Bilimleri",
	},
	ExamAYT: {
		"turkce":    "Türk Dili ve Edebiyatı",
		"matematik": "Matematik",
		"sosyal":    "Sosyal Bilimler",
		"fen":       "Fen Bilimleri",
	},
	ExamLGS: {
		"turkce":    "Türkçe",
		"matematik": "Matematik",
		"fen":       "Fen Bilimleri",
		"inkilap":   "T.C. İnkılap Tarihi ve Atatürkçülük",
		"din":       "Din Kültürü ve Ahlak Bilgisi",
		"ingilizce": "İngilizce",
	},
}

// SectionsFor returns the section catalog for an exam type.
func SectionsFor(examType ExamType) []Section {
	switch examType {
	case ExamTYT:
		return tytSections
	case ExamAYT:
		return aytSections
	case ExamLGS:
		return lgsSections
	}
	return nil
}

// FlattenSections expands sub-sections into leaf sections, carrying the
// parent name and duration down. LGS has no sub-sections, so its catalog
// passes through unchanged.
func FlattenSections(sections []Section) []Section {
	var flat []Section
	for _, s := range sections {
		if len(s.SubSections) == 0 {
			flat = append(flat, s)
			continue
		}
		for _, sub := range s.SubSections {
			flat = append(flat, Section{
				Name:            sub.Name,
				QuestionCount:   sub.QuestionCount,
				DurationMinutes: s.DurationMinutes,
				ParentSection:   s.Name,
			})
		}
	}
	return flat
}
