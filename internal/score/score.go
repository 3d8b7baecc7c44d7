// Package score holds the pure result computations: section scoring,
// attempt scoring, and topic grouping for the statistics view. No I/O.
package score

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ekaraca/hazirlik/internal/model"
)

// ScoreSection classifies every recorded answer against the question's
// correct label. The counts always sum to len(questions): an absent
// answer is empty, a matching one correct, anything else wrong.
func ScoreSection(sectionName string, questions []model.Question, answers map[int]string) model.SectionResult {
	res := model.SectionResult{Section: sectionName}
	for i, q := range questions {
		ans, ok := answers[i]
		switch {
		case !ok || ans == "":
			res.Empty++
		case ans == q.Correct:
			res.Correct++
		default:
			res.Wrong++
		}
	}
	return res
}

// ScoreAttempt computes the overall percentage across section results,
// rounded to the nearest integer. Zero questions scores zero.
func ScoreAttempt(sections []model.SectionResult) int {
	var correct, total int
	for _, s := range sections {
		correct += s.Correct
		total += s.Correct + s.Wrong + s.Empty
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// TopicRecord is one historical attempt row reduced to the fields the
// grouping cares about.
type TopicRecord struct {
	ExamType string
	Section  string
	Topic    string
	Correct  int
	Wrong    int
	Empty    int
}

// TopicStat is the accumulated performance for one composite topic.
type TopicStat struct {
	Label    string  `json:"topic"`
	Correct  int     `json:"correct"`
	Wrong    int     `json:"wrong"`
	Empty    int     `json:"empty"`
	Accuracy float64 `json:"accuracy"`
}

// GroupByTopic accumulates historical records keyed by exam type,
// section and topic, then sorts by descending accuracy. Empty answers
// are excluded from the accuracy denominator: an unanswered question is
// not evidence of a misunderstood topic. Ties keep first-seen order.
func GroupByTopic(records []TopicRecord) []TopicStat {
	index := make(map[string]int)
	var stats []TopicStat

	for _, r := range records {
		topic := r.Topic
		if topic == "" {
			topic = "Genel"
		}
		key := r.ExamType + "-" + r.Section + "-" + topic
		i, ok := index[key]
		if !ok {
			i = len(stats)
			index[key] = i
			stats = append(stats, TopicStat{
				Label: fmt.Sprintf("%s - %s - %s", strings.ToUpper(r.ExamType), r.Section, topic),
			})
		}
		stats[i].Correct += r.Correct
		stats[i].Wrong += r.Wrong
		stats[i].Empty += r.Empty
	}

	for i := range stats {
		answered := stats[i].Correct + stats[i].Wrong
		if answered < 1 {
			answered = 1
		}
		stats[i].Accuracy = 100 * float64(stats[i].Correct) / float64(answered)
	}

	sort.SliceStable(stats, func(a, b int) bool {
		return stats[a].Accuracy > stats[b].Accuracy
	})
	return stats
}

// RecordsFromResults converts stored attempt rows into grouping records.
// Stored rows carry whole-attempt counts keyed by subject and level, the
// same shape the statistics view reads.
func RecordsFromResults(results []model.StoredResult) []TopicRecord {
	records := make([]TopicRecord, 0, len(results))
	for _, r := range results {
		records = append(records, TopicRecord{
			ExamType: r.ExamType,
			Section:  r.Subject,
			Topic:    r.Level,
			Correct:  r.CorrectAnswers,
			Wrong:    r.WrongAnswers,
			Empty:    r.EmptyAnswers,
		})
	}
	return records
}
