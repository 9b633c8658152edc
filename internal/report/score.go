// Package report scores quiz answers and renders the results as a
// paginated PDF or a plain-text transcript.
package report

import (
	"math"

	"github.com/thywilljoshua/study-docs/internal/models"
)

// PassPercentage is the score at and above which a result counts as passing.
const PassPercentage = 60

// Summary is the aggregate score of an answer set.
type Summary struct {
	Correct    int `json:"correct"`
	Answered   int `json:"answered"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Passed reports whether the score reaches PassPercentage.
func (s Summary) Passed() bool {
	return s.Percentage >= PassPercentage
}

// Score counts the questions whose selected option is the correct one.
// Percentage is rounded and 0 when there are no questions.
func Score(result *models.AnalysisResult, answers models.Answers) Summary {
	var s Summary
	if result == nil {
		return s
	}
	for ti, topic := range result.Quizzes {
		for qi, q := range topic.Questions {
			s.Total++
			sel, ok := answers.Selected(models.AnswerKey{Topic: ti, Question: qi})
			if !ok {
				continue
			}
			s.Answered++
			if sel == q.CorrectAnswerIndex {
				s.Correct++
			}
		}
	}
	if s.Total > 0 {
		s.Percentage = int(math.Round(100 * float64(s.Correct) / float64(s.Total)))
	}
	return s
}
