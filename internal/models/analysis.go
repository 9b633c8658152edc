// Package models holds the study material types shared by the generation
// client, the session state and the report renderers.
package models

// OptionsPerQuestion is the number of answer options every question carries.
const OptionsPerQuestion = 4

// AnalysisResult is the structured output of a document analysis. It is
// replaced wholesale on re-analysis and never mutated in place.
type AnalysisResult struct {
	Summary    string      `json:"summary" jsonschema:"description=Complete study summary of the documents in Markdown"`
	Quizzes    []Topic     `json:"quizzes" jsonschema:"description=Main topics of the documents each with its own quiz"`
	Flashcards []Flashcard `json:"flashcards,omitempty" jsonschema:"description=Optional review flashcards"`
}

// Topic groups the questions evaluating one subject.
type Topic struct {
	Topic     string     `json:"topic" jsonschema:"description=Title of the evaluated topic"`
	Questions []Question `json:"questions"`
}

// Question is a multiple choice question with exactly four options.
type Question struct {
	Text               string   `json:"text" jsonschema:"description=The quiz question"`
	Options            []string `json:"options" jsonschema:"minItems=4,maxItems=4,description=Four possible answers"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex" jsonschema:"minimum=0,maximum=3,description=Index (0-3) of the correct option"`
	Explanation        string   `json:"explanation" jsonschema:"description=Short explanation of why the answer is correct"`
}

// Flashcard is a front/back review card.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// QuestionCount returns the number of questions across all topics.
func (r *AnalysisResult) QuestionCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, t := range r.Quizzes {
		n += len(t.Questions)
	}
	return n
}

// Question returns the question addressed by key, if it exists.
func (r *AnalysisResult) Question(key AnswerKey) (Question, bool) {
	if r == nil || key.Topic < 0 || key.Topic >= len(r.Quizzes) {
		return Question{}, false
	}
	qs := r.Quizzes[key.Topic].Questions
	if key.Question < 0 || key.Question >= len(qs) {
		return Question{}, false
	}
	return qs[key.Question], true
}
