package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/thywilljoshua/study-docs/internal/models"
)

// The wire types mirror models.AnalysisResult with pointers, so a missing
// required key can be told apart from a zero value.
type wireResult struct {
	Summary    *string          `json:"summary"`
	Quizzes    *[]wireTopic     `json:"quizzes"`
	Flashcards *[]wireFlashcard `json:"flashcards"`
}

type wireTopic struct {
	Topic     *string         `json:"topic"`
	Questions *[]wireQuestion `json:"questions"`
}

type wireQuestion struct {
	Text               *string   `json:"text"`
	Options            *[]string `json:"options"`
	CorrectAnswerIndex *int      `json:"correctAnswerIndex"`
	Explanation        *string   `json:"explanation"`
}

type wireFlashcard struct {
	Front *string `json:"front"`
	Back  *string `json:"back"`
}

func malformed(path, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedResponse, path, fmt.Sprintf(format, args...))
}

// ParseAnalysis decodes and validates an analysis document, as produced by
// the model or saved by the analyze command. It never returns
// a partial result.
func ParseAnalysis(raw string) (*models.AnalysisResult, error) {
	body := stripCodeFences(raw)
	w, err := decodeStrict(body)
	if err != nil {
		var syntaxErr *json.SyntaxError
		if !errors.As(err, &syntaxErr) && !errors.Is(err, errTrailingData) {
			return nil, err
		}
		// prose around the object; retry on the first balanced {...}
		s := findFirstJSON(body)
		if s == "" || s == body {
			return nil, malformed("$", "invalid JSON: %v", err)
		}
		if w, err = decodeStrict(s); err != nil {
			if errors.Is(err, ErrMalformedResponse) {
				return nil, err
			}
			return nil, malformed("$", "invalid JSON: %v", err)
		}
	}
	return w.validate()
}

var errTrailingData = errors.New("trailing data after JSON object")

func decodeStrict(body string) (*wireResult, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()

	var w wireResult
	if err := dec.Decode(&w); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, err
		}
		return nil, malformed("$", "%v", err)
	}
	if strings.TrimSpace(body[dec.InputOffset():]) != "" {
		return nil, errTrailingData
	}
	return &w, nil
}

func (w *wireResult) validate() (*models.AnalysisResult, error) {
	if w.Summary == nil {
		return nil, malformed("summary", "missing")
	}
	if w.Quizzes == nil {
		return nil, malformed("quizzes", "missing")
	}

	out := &models.AnalysisResult{
		Summary: *w.Summary,
		Quizzes: make([]models.Topic, 0, len(*w.Quizzes)),
	}
	for ti, wt := range *w.Quizzes {
		path := fmt.Sprintf("quizzes[%d]", ti)
		if wt.Topic == nil || strings.TrimSpace(*wt.Topic) == "" {
			return nil, malformed(path+".topic", "missing or empty")
		}
		if wt.Questions == nil {
			return nil, malformed(path+".questions", "missing")
		}
		topic := models.Topic{Topic: *wt.Topic, Questions: make([]models.Question, 0, len(*wt.Questions))}
		for qi, wq := range *wt.Questions {
			q, err := wq.validate(fmt.Sprintf("%s.questions[%d]", path, qi))
			if err != nil {
				return nil, err
			}
			topic.Questions = append(topic.Questions, q)
		}
		out.Quizzes = append(out.Quizzes, topic)
	}

	if w.Flashcards != nil {
		for i, wf := range *w.Flashcards {
			path := fmt.Sprintf("flashcards[%d]", i)
			if wf.Front == nil || strings.TrimSpace(*wf.Front) == "" {
				return nil, malformed(path+".front", "missing or empty")
			}
			if wf.Back == nil || strings.TrimSpace(*wf.Back) == "" {
				return nil, malformed(path+".back", "missing or empty")
			}
			out.Flashcards = append(out.Flashcards, models.Flashcard{Front: *wf.Front, Back: *wf.Back})
		}
	}
	return out, nil
}

func (wq wireQuestion) validate(path string) (models.Question, error) {
	if wq.Text == nil || strings.TrimSpace(*wq.Text) == "" {
		return models.Question{}, malformed(path+".text", "missing or empty")
	}
	if wq.Options == nil {
		return models.Question{}, malformed(path+".options", "missing")
	}
	opts := *wq.Options
	if len(opts) != models.OptionsPerQuestion {
		return models.Question{}, malformed(path+".options", "want %d options, got %d", models.OptionsPerQuestion, len(opts))
	}
	if wq.CorrectAnswerIndex == nil {
		return models.Question{}, malformed(path+".correctAnswerIndex", "missing")
	}
	if idx := *wq.CorrectAnswerIndex; idx < 0 || idx >= len(opts) {
		return models.Question{}, malformed(path+".correctAnswerIndex", "%d out of range [0,%d)", idx, len(opts))
	}
	if wq.Explanation == nil {
		return models.Question{}, malformed(path+".explanation", "missing")
	}
	return models.Question{
		Text:               *wq.Text,
		Options:            append([]string(nil), opts...),
		CorrectAnswerIndex: *wq.CorrectAnswerIndex,
		Explanation:        *wq.Explanation,
	}, nil
}

func stripCodeFences(s string) string {
	// Remove markdown/json code fences like ```json or ```
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		if firstNewline := strings.Index(s, "\n"); firstNewline != -1 {
			s = s[firstNewline+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func findFirstJSON(s string) string {
	// naive scan for the first balanced {...}, skipping braces inside strings
	start := -1
	depth := 0
	inString, escaped := false, false
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if start != -1 {
				inString = true
			}
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
