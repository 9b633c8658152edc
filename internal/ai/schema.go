package ai

import (
	"github.com/invopop/jsonschema"
	"github.com/thywilljoshua/study-docs/internal/models"
	genai "google.golang.org/genai"
)

// responseSchema is the structured output contract sent with every
// analysis request.
func responseSchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}

	question := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"text": str("The quiz question."),
			"options": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Exactly 4 possible answers.",
			},
			"correctAnswerIndex": {
				Type:        genai.TypeInteger,
				Description: "Index (0-3) of the correct answer in the options array.",
			},
			"explanation": str("A short explanation of why the answer is correct."),
		},
		Required:         []string{"text", "options", "correctAnswerIndex", "explanation"},
		PropertyOrdering: []string{"text", "options", "correctAnswerIndex", "explanation"},
	}

	topic := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"topic":     str("Title of the evaluated topic."),
			"questions": {Type: genai.TypeArray, Items: question},
		},
		Required:         []string{"topic", "questions"},
		PropertyOrdering: []string{"topic", "questions"},
	}

	flashcard := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"front": str("Term or question on the front of the card."),
			"back":  str("Definition or answer on the back of the card."),
		},
		Required: []string{"front", "back"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": str("A complete, well structured summary of the provided documents, in Markdown."),
			"quizzes": {
				Type:        genai.TypeArray,
				Description: "The main topics of the documents, each with its own quiz.",
				Items:       topic,
			},
			"flashcards": {
				Type:        genai.TypeArray,
				Description: "Review flashcards covering key terms.",
				Items:       flashcard,
			},
		},
		Required:         []string{"summary", "quizzes"},
		PropertyOrdering: []string{"summary", "quizzes", "flashcards"},
	}
}

// JSONSchema describes models.AnalysisResult as JSON Schema for integrators.
func JSONSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&models.AnalysisResult{})
}
