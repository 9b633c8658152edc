// Package ai talks to the generation backend: structured document
// analysis, verbatim transcripts and speech synthesis.
package ai

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/thywilljoshua/study-docs/internal/audio"
	"github.com/thywilljoshua/study-docs/internal/document"
	"github.com/thywilljoshua/study-docs/internal/models"
)

var (
	// ErrMalformedResponse marks a response that does not satisfy the
	// analysis contract.
	ErrMalformedResponse = errors.New("malformed analysis response")
	// ErrEmptyResponse is returned when the backend produced no text.
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrNoAudio is returned when a speech response carries no audio part.
	ErrNoAudio = errors.New("no audio in speech response")
)

// DefaultTranscriptLimit bounds the transcript sent to speech synthesis, in characters.
const DefaultTranscriptLimit = 20000

// TruncationMarker is appended to transcripts cut at the limit.
const TruncationMarker = "\n\n[Transcript truncated for narration.]"

// Assistant is the generation backend as the rest of the program sees it.
type Assistant interface {
	Analyze(ctx context.Context, docs []*document.UploadedFile) (*models.AnalysisResult, error)
	Transcribe(ctx context.Context, docs []*document.UploadedFile) (*Transcript, error)
	Synthesize(ctx context.Context, text string) (*Speech, error)
}

// Transcript is the narration text of a document set. Truncated is set
// when the text was cut at the transcript limit.
type Transcript struct {
	Text      string
	Truncated bool
}

// Speech is raw synthesized audio.
type Speech struct {
	PCM    []byte
	Format audio.Format
}

// Truncate cuts text to at most limit characters and appends
// TruncationMarker when it did, reporting whether it cut. A limit <= 0
// disables truncation.
func Truncate(text string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text, false
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i] + TruncationMarker, true
		}
		n++
	}
	return text, false
}
