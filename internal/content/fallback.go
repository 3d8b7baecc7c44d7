package content

import (
	"strings"

	"github.com/ekaraca/hazirlik/internal/model"
)

// FallbackCorrectLabel is the fixed correct choice on every synthesized
// question.
const FallbackCorrectLabel = "A"

// FallbackExplanation marks a question as a substitute so the student
// can tell it apart from generated content.
const FallbackExplanation = "Bu soru, soru üretim servisine ulaşılamadığı için hazır şablondan oluşturulmuştur. Gerçek sınav soruları için lütfen daha sonra tekrar deneyin."

var fallbackOptions = map[string]string{
	"A": "Seçenek A",
	"B": "Seçenek B",
	"C": "Seçenek C",
	"D": "Seçenek D",
	"E": "Seçenek E",
}

// Section-keyed template bank. Sections without their own entry fall
// through to the Matematik templates.
var fallbackTemplates = map[string][]string{
	"Türkçe": {
		"Aşağıdaki cümlelerden hangisinde yazım hatası vardır?",
		"Hangi cümlede anlatım bozukluğu bulunmaktadır?",
		"Aşağıdaki kelimelerden hangisi yapısı bakımından diğerlerinden farklıdır?",
		"Hangi cümlede noktalama işareti yanlış kullanılmıştır?",
		"Aşağıdaki parçada hangi anlatım tekniği kullanılmıştır?",
	},
	"Matematik": {
		"x² + 5x + 6 = 0 denkleminin kökleri toplamı kaçtır?",
		"Bir üçgenin iç açıları 2x, 3x ve 4x ise x kaçtır?",
		"Logaritma işlemi log₂(8) kaçtır?",
		"Bir aritmetik dizinin ilk terimi 3, ortak farkı 2 ise 10. terimi kaçtır?",
		"Bir fonksiyonun türevi f'(x) = 2x + 3 ise f(x) fonksiyonu nedir?",
	},
	"Fizik": {
		"Bir cismin kinetik enerjisi 100 J, potansiyel enerjisi 50 J ise toplam mekanik enerji kaç J'dir?",
		"Ses dalgalarının frekansı 440 Hz ise dalga boyu kaç metredir?",
		"Bir elektrik devresinde akım 2A, direnç 5Ω ise gerilim kaç V'dir?",
		"Bir cismin kütlesi 2 kg, ivmesi 3 m/s² ise net kuvvet kaç N'dir?",
		"Bir atomun çekirdeğinde kaç proton varsa o kadar elektron bulunur.",
	},
	"Kimya": {
		"H₂O molekülünde hidrojen atomlarının oksidasyon sayısı kaçtır?",
		"Bir çözeltinin pH'ı 3 ise H⁺ iyonu derişimi kaç mol/L'dir?",
		"CH₄ molekülünde karbon atomunun hibritleşme türü nedir?",
		"Bir tepkimenin aktivasyon enerjisi yüksekse tepkime hızı nasıldır?",
		"Periyodik tabloda aynı grupta bulunan elementlerin özellikleri benzerdir.",
	},
	"Biyoloji": {
		"Hücre zarının temel yapısını oluşturan molekül hangisidir?",
		"Bir DNA molekülünde adenin nükleotidi %30 ise timin oranı kaçtır?",
		"Mitokondri organelinin temel görevi nedir?",
		"Bir hücrenin interfaz evresinde hangi organel çoğalır?",
		"Bitkilerde fotosentez hangi organelde gerçekleşir?",
	},
	"Tarih": {
		"Osmanlı Devleti'nin kurucusu kimdir?",
		"İstanbul'un fethi hangi yılda gerçekleşmiştir?",
		"Türkiye Cumhuriyeti hangi tarihte ilan edilmiştir?",
		"I. Dünya Savaşı hangi yıllar arasında gerçekleşmiştir?",
		"Atatürk'ün doğum yeri neresidir?",
	},
	"Coğrafya": {
		"Türkiye'nin en yüksek dağı hangisidir?",
		"Karadeniz Bölgesi'nin en önemli tarım ürünü nedir?",
		"Türkiye'nin en büyük gölü hangisidir?",
		"Akdeniz ikliminin özellikleri nelerdir?",
		"Türkiye'nin en kalabalık şehri hangisidir?",
	},
	"Felsefe": {
		"Felsefenin temel sorularından biri hangisidir?",
		"Sokrates'in öğretim yöntemi nedir?",
		"Platon'un idealar kuramı neyi savunur?",
		"Aristoteles'in mantık bilimine katkısı nedir?",
		"Descartes'in 'Düşünüyorum, o halde varım' sözü neyi ifade eder?",
	},
	"Din Kültürü": {
		"İslam'ın temel inanç esasları kaç tanedir?",
		"Kur'an-ı Kerim'in ilk inen ayeti hangisidir?",
		"İslam'da namazın farzları kaç tanedir?",
		"Hac ibadeti hangi ayda gerçekleştirilir?",
		"İslam'da zekatın farz olması için gerekli şartlar nelerdir?",
	},
	"İngilizce": {
		"Which tense is used for actions happening now?",
		"What is the past participle of 'go'?",
		"Which modal verb expresses possibility?",
		"What is the comparative form of 'good'?",
		"Which article is used before consonant sounds?",
	},
}

// fallbackKeyOrder fixes the substring lookup order, longest keys first
// so "Din Kültürü" wins over "Tarih"-style partial overlaps.
var fallbackKeyOrder = []string{
	"Din Kültürü", "Matematik", "Coğrafya", "Biyoloji", "İngilizce",
	"Felsefe", "Türkçe", "Fizik", "Kimya", "Tarih",
}

// FallbackQuestions synthesizes exactly count questions for a section
// from the template bank, cycling templates when count exceeds the bank
// size. All questions share a fixed option set and correct label.
func FallbackQuestions(sectionName string, count int) []model.Question {
	templates := templatesFor(sectionName)
	questions := make([]model.Question, 0, count)
	for i := 1; i <= count; i++ {
		questions = append(questions, model.Question{
			ID:          i,
			Prompt:      templates[(i-1)%len(templates)],
			Options:     cloneOptions(),
			Correct:     FallbackCorrectLabel,
			Explanation: FallbackExplanation,
		})
	}
	return questions
}

func templatesFor(sectionName string) []string {
	if t, ok := fallbackTemplates[sectionName]; ok {
		return t
	}
	// "Temel Matematik", "İnkılap Tarihi" and friends match by substring.
	for _, key := range fallbackKeyOrder {
		if strings.Contains(sectionName, key) {
			return fallbackTemplates[key]
		}
	}
	return fallbackTemplates["Matematik"]
}

func cloneOptions() map[string]string {
	opts := make(map[string]string, len(fallbackOptions))
	for k, v := range fallbackOptions {
		opts[k] = v
	}
	return opts
}
