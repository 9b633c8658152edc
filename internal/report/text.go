package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/thywilljoshua/study-docs/internal/apperr"
	"github.com/thywilljoshua/study-docs/internal/models"
)

const (
	doubleRule = "================================================="
	singleRule = "-------------------------------------------------"
)

// RenderText writes the fixed-format plain-text report: summary, quiz
// with the user's selections and correctness marks, then flashcards.
func RenderText(w io.Writer, result *models.AnalysisResult, answers models.Answers, generatedAt time.Time) error {
	if result == nil {
		return apperr.Errorf(apperr.KindValidation, "report.RenderText", "no analysis result to render")
	}

	var b strings.Builder
	b.WriteString("STUDY REPORT - DOCUMENT ANALYSIS\n")
	fmt.Fprintf(&b, "Generated: %s\n", generatedAt.Format("2006-01-02"))
	b.WriteString(doubleRule + "\n\n")

	b.WriteString("SUMMARY\n")
	b.WriteString(doubleRule + "\n")
	b.WriteString(result.Summary + "\n\n")

	score := Score(result, answers)
	b.WriteString("QUIZ\n")
	b.WriteString(doubleRule + "\n")
	fmt.Fprintf(&b, "Score: %d%% (%d/%d)\n", score.Percentage, score.Correct, score.Total)

	for ti, topic := range result.Quizzes {
		fmt.Fprintf(&b, "\nTOPIC %d: %s\n", ti+1, strings.ToUpper(topic.Topic))
		b.WriteString(singleRule + "\n")

		for qi, q := range topic.Questions {
			selected, answered := answers.Selected(models.AnswerKey{Topic: ti, Question: qi})

			fmt.Fprintf(&b, "\n%d. %s\n", qi+1, q.Text)
			for oi, opt := range q.Options {
				mark := "[ ]"
				if answered && oi == selected {
					mark = "[X]"
				}
				if oi == q.CorrectAnswerIndex {
					mark += " (CORRECT)"
				}
				fmt.Fprintf(&b, "   %s %s\n", mark, opt)
			}
			if answered {
				verdict := "Incorrect"
				if selected == q.CorrectAnswerIndex {
					verdict = "Correct"
				}
				fmt.Fprintf(&b, "   > Your answer was: %s\n", verdict)
			}
			fmt.Fprintf(&b, "   > Explanation: %s\n", q.Explanation)
		}
	}

	if len(result.Flashcards) > 0 {
		b.WriteString("\nFLASHCARDS\n")
		b.WriteString(doubleRule + "\n")
		for i, card := range result.Flashcards {
			fmt.Fprintf(&b, "\n%d. %s\n   %s\n", i+1, card.Front, card.Back)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
