package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"strconv"
	"strings"

	"github.com/thywilljoshua/study-docs/internal/apperr"
	"github.com/thywilljoshua/study-docs/internal/audio"
	"github.com/thywilljoshua/study-docs/internal/document"
	"github.com/thywilljoshua/study-docs/internal/models"
	genai "google.golang.org/genai"
)

// contentGenerator is the slice of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements Assistant on top of the Gemini API.
type Gemini struct {
	gen  contentGenerator
	opts Options
	log  *slog.Logger
}

var _ Assistant = (*Gemini)(nil)

func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	if apiKey == "" {
		return nil, apperr.Errorf(apperr.KindValidation, "ai.NewGemini", "missing GEMINI_API_KEY")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return newGemini(c.Models, opts...), nil
}

func newGemini(gen contentGenerator, opts ...Option) *Gemini {
	o := NewOptions(opts...)
	return &Gemini{gen: gen, opts: o, log: o.Logger.With("component", "gemini")}
}

// Options returns the effective configuration.
func (g *Gemini) Options() Options { return g.opts }

const analysisPrompt = `Analyze the documents above.
1. Write a detailed, educational summary of their content in Markdown.
2. Identify the main topics and write an assessment quiz for each topic. Every question has exactly 4 options and the index of the correct one.
3. Make the questions challenging but fair.
4. Add flashcards for the key terms and definitions.

Respond strictly in JSON following the provided schema.`

const transcriptPrompt = `Extract the text of the documents above word for word, in reading order.
Do not summarize, interpret or translate it. Do not add a title, an introduction or any comment of your own.
Output only the extracted text.`

func (g *Gemini) systemInstruction() *genai.Content {
	return genai.NewContentFromText(
		"You are an expert teacher and document analyst. Your goal is to help students understand "+
			"and assess their knowledge of the uploaded material. Always answer in "+g.opts.Language+".",
		genai.RoleUser,
	)
}

// Analyze produces the summary, quizzes and flashcards for docs.
func (g *Gemini) Analyze(ctx context.Context, docs []*document.UploadedFile) (*models.AnalysisResult, error) {
	const op = "ai.Analyze"

	if len(docs) == 0 {
		return nil, apperr.Errorf(apperr.KindValidation, op, "no documents to analyze")
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: g.systemInstruction(),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(),
	}
	text, err := g.generateText(ctx, op, g.opts.AnalysisModel, documentContent(docs, analysisPrompt), cfg)
	if err != nil {
		return nil, err
	}

	result, err := ParseAnalysis(text)
	if err != nil {
		g.log.Warn("rejected analysis response", "error", err, "bytes", len(text))
		return nil, apperr.E(apperr.KindBackend, op, err)
	}
	g.log.Info("analysis complete",
		"topics", len(result.Quizzes),
		"questions", result.QuestionCount(),
		"flashcards", len(result.Flashcards))
	return result, nil
}

// Transcribe returns the literal text of docs, cut to the transcript limit.
func (g *Gemini) Transcribe(ctx context.Context, docs []*document.UploadedFile) (*Transcript, error) {
	const op = "ai.Transcribe"

	if len(docs) == 0 {
		return nil, apperr.Errorf(apperr.KindValidation, op, "no documents to transcribe")
	}
	text, err := g.generateText(ctx, op, g.opts.AnalysisModel, documentContent(docs, transcriptPrompt), nil)
	if err != nil {
		return nil, err
	}
	out, cut := Truncate(text, g.opts.TranscriptLimit)
	if cut {
		g.log.Info("transcript truncated", "limit", g.opts.TranscriptLimit)
	}
	return &Transcript{Text: out, Truncated: cut}, nil
}

// Synthesize renders text as speech with the configured voice.
func (g *Gemini) Synthesize(ctx context.Context, text string) (*Speech, error) {
	const op = "ai.Synthesize"

	if strings.TrimSpace(text) == "" {
		return nil, apperr.Errorf(apperr.KindValidation, op, "nothing to synthesize")
	}
	cfg := &genai.GenerateContentConfig{
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.opts.Voice},
			},
		},
	}
	cfg.ResponseModalities = append(cfg.ResponseModalities, "AUDIO")

	res, err := g.gen.GenerateContent(ctx, g.opts.SpeechModel, []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}, cfg)
	if err != nil {
		return nil, apperr.E(apperr.KindBackend, op, fmt.Errorf("gemini API call failed: %w", err))
	}

	blob := firstInlineData(res)
	if blob == nil {
		return nil, apperr.E(apperr.KindBackend, op, ErrNoAudio)
	}
	speech := &Speech{PCM: blob.Data, Format: speechFormat(blob.MIMEType)}
	g.log.Info("speech synthesized",
		"bytes", len(speech.PCM),
		"sample_rate", speech.Format.SampleRate,
		"seconds", audio.Duration(speech.PCM, speech.Format))
	return speech, nil
}

func (g *Gemini) generateText(ctx context.Context, op, model string, content *genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	res, err := g.gen.GenerateContent(ctx, model, []*genai.Content{content}, cfg)
	if err != nil {
		return "", apperr.E(apperr.KindBackend, op, fmt.Errorf("gemini API call failed: %w", err))
	}
	var text string
	if res != nil {
		text = res.Text()
	}
	g.log.Debug("gemini response", "op", op, "model", model, "bytes", len(text))
	if strings.TrimSpace(text) == "" {
		return "", apperr.E(apperr.KindBackend, op, ErrEmptyResponse)
	}
	return text, nil
}

// documentContent builds one user turn: a part per document followed by
// the instruction. Text documents go in as delimited text; everything else,
// and text that fails to decode, goes in as inline bytes.
func documentContent(docs []*document.UploadedFile, instruction string) *genai.Content {
	parts := make([]*genai.Part, 0, len(docs)+1)
	for _, d := range docs {
		if d.IsText() {
			if text, err := d.Text(); err == nil {
				parts = append(parts, &genai.Part{Text: delimitText(d.Name, text)})
				continue
			}
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: d.MIMEType, Data: d.Data}})
	}
	parts = append(parts, &genai.Part{Text: instruction})
	return genai.NewContentFromParts(parts, genai.RoleUser)
}

func delimitText(name, text string) string {
	return "=== BEGIN DOCUMENT: " + name + " ===\n" + text + "\n=== END DOCUMENT: " + name + " ==="
}

func firstInlineData(res *genai.GenerateContentResponse) *genai.Blob {
	if res == nil {
		return nil
	}
	for _, cand := range res.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
				return p.InlineData
			}
		}
	}
	return nil
}

// speechFormat reads the sample rate from a MIME type such as
// "audio/L16;codec=pcm;rate=24000".
func speechFormat(mimeType string) audio.Format {
	f := audio.DefaultFormat
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return f
	}
	if rate, err := strconv.Atoi(params["rate"]); err == nil && rate > 0 {
		f.SampleRate = rate
	}
	return f
}

// IsMalformed reports whether err came from an invalid analysis response.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}
