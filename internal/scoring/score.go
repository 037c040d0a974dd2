// Package scoring turns an analysis result's option distributions into
// 0-100 satisfaction scores per section and overall.
//
// Each Likert code is mapped onto a 5-point weight (1->1, 2->3, 3->5). A
// question scores weighted_sum / (responses*5) * 100. Section scores are the
// unweighted mean of their question scores and the overall score is the
// unweighted mean of the section means. Rounding happens only at the section
// and overall level. Codes outside 1..3 are used as their own weight.
package scoring

import (
	"math"
	"sort"

	"github.com/iqac-kare/feedback-dashboard/internal/models"
)

const maxWeight = 5

// SectionScore is the rounded score of one analysis section
type SectionScore struct {
	Key           string `json:"key"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
	QuestionCount int    `json:"question_count"`
}

// Scores is the derived view of an analysis result
type Scores struct {
	Overall  int            `json:"overall"`
	Sections []SectionScore `json:"sections"`
}

// Section returns the score for key, if present
func (s Scores) Section(key string) (SectionScore, bool) {
	for _, sec := range s.Sections {
		if sec.Key == key {
			return sec, true
		}
	}
	return SectionScore{}, false
}

// MapOptionValue maps a Likert code onto the 5-point weight scale
func MapOptionValue(value int) int {
	switch value {
	case 1:
		return 1
	case 2:
		return 3
	case 3:
		return 5
	default:
		return value
	}
}

// QuestionScore returns the unrounded 0-100 score for one question
func QuestionScore(q models.QuestionResult) float64 {
	weightedSum := 0
	responses := 0
	for _, opt := range q.Options {
		weightedSum += opt.Count * MapOptionValue(opt.Value)
		responses += opt.Count
	}

	maxPossible := responses * maxWeight
	if maxPossible <= 0 {
		return 0
	}
	return float64(weightedSum) / float64(maxPossible) * 100
}

// sectionMean returns the unrounded mean question score and the number of questions
func sectionMean(section models.Section) (float64, int) {
	if len(section.Questions) == 0 {
		return 0, 0
	}

	total := 0.0
	for _, key := range sortedKeys(section.Questions) {
		total += QuestionScore(section.Questions[key])
	}
	return total / float64(len(section.Questions)), len(section.Questions)
}

// Compute derives section and overall scores. Sections are returned in key order.
func Compute(result *models.AnalysisResult) Scores {
	scores := Scores{Sections: []SectionScore{}}
	if result == nil || len(result.Analysis) == 0 {
		return scores
	}

	total := 0.0
	for _, key := range sortedKeys(result.Analysis) {
		section := result.Analysis[key]
		mean, count := sectionMean(section)

		name := section.SectionName
		if name == "" {
			name = key
		}

		scores.Sections = append(scores.Sections, SectionScore{
			Key:           key,
			Name:          name,
			Score:         Round(mean),
			QuestionCount: count,
		})
		total += mean
	}

	scores.Overall = Round(total / float64(len(scores.Sections)))
	return scores
}

// Round rounds half-up (toward positive infinity on ties), also for the
// negative scores pass-through codes can produce
func Round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Band classifies a score for display
func Band(score int) string {
	switch {
	case score >= 75:
		return "success"
	case score >= 50:
		return "warning"
	default:
		return "danger"
	}
}

// OptionPercentage returns the share of responses for one option
func OptionPercentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// Interpretation labels a Likert code
func Interpretation(value int) string {
	switch value {
	case 3:
		return "Good"
	case 2:
		return "Neutral"
	default:
		return "Bad"
	}
}

// OptionDetail is one response choice of a question breakdown
type OptionDetail struct {
	Text           string  `json:"text"`
	Value          int     `json:"value"`
	Count          int     `json:"count"`
	Percentage     float64 `json:"percentage"`
	Interpretation string  `json:"interpretation"`
}

// QuestionDetail is one question of a section breakdown
type QuestionDetail struct {
	Key            string         `json:"key"`
	Question       string         `json:"question"`
	Score          float64        `json:"score"`
	TotalResponses int            `json:"total_responses"`
	Options        []OptionDetail `json:"options"`
}

// SectionDetail is a section score with its per-question breakdown
type SectionDetail struct {
	SectionScore
	Questions []QuestionDetail `json:"questions"`
}

// Breakdown returns every section with its questions in key order. Option
// percentages are taken against the question's reported total_responses.
func Breakdown(result *models.AnalysisResult) []SectionDetail {
	scores := Compute(result)
	details := make([]SectionDetail, 0, len(scores.Sections))
	for _, sec := range scores.Sections {
		section := result.Analysis[sec.Key]
		detail := SectionDetail{SectionScore: sec, Questions: make([]QuestionDetail, 0, len(section.Questions))}
		for _, qk := range sortedKeys(section.Questions) {
			q := section.Questions[qk]
			qd := QuestionDetail{
				Key:            qk,
				Question:       q.Question,
				Score:          QuestionScore(q),
				TotalResponses: q.TotalResponses,
				Options:        make([]OptionDetail, 0, len(q.Options)),
			}
			for _, opt := range q.Options {
				qd.Options = append(qd.Options, OptionDetail{
					Text:           opt.Text,
					Value:          opt.Value,
					Count:          opt.Count,
					Percentage:     OptionPercentage(opt.Count, q.TotalResponses),
					Interpretation: Interpretation(opt.Value),
				})
			}
			detail.Questions = append(detail.Questions, qd)
		}
		details = append(details, detail)
	}
	return details
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
