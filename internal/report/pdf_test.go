package report

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thywilljoshua/study-docs/internal/apperr"
	"github.com/thywilljoshua/study-docs/internal/models"
	rpdf "rsc.io/pdf"
)

var fixedTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func render(t *testing.T, result *models.AnalysisResult, answers models.Answers, opts Options) ([]byte, Stats) {
	t.Helper()
	var buf bytes.Buffer
	stats, err := RenderPDF(&buf, result, answers, opts)
	require.NoError(t, err)
	return buf.Bytes(), stats
}

func pageCount(t *testing.T, data []byte) int {
	t.Helper()
	r, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return r.NumPage()
}

func largeResult(topics, questions int) *models.AnalysisResult {
	r := &models.AnalysisResult{Summary: "s"}
	for ti := 0; ti < topics; ti++ {
		topic := models.Topic{Topic: fmt.Sprintf("Topic number %d with a reasonably long title", ti)}
		for qi := 0; qi < questions; qi++ {
			topic.Questions = append(topic.Questions, models.Question{
				Text:               fmt.Sprintf("Question %d asks something that needs a couple of lines to wrap across the fixed content width of the page, doesn't it?", qi),
				Options:            []string{"first option", "second option", "third option with éàü accents", "fourth option"},
				CorrectAnswerIndex: qi % 4,
				Explanation:        "The explanation repeats itself so it wraps onto more than one line inside its shaded panel. The explanation repeats itself.",
			})
		}
		r.Quizzes = append(r.Quizzes, topic)
	}
	return r
}

func TestRenderPDFDeterministic(t *testing.T) {
	opts := Options{GeneratedAt: fixedTime, PageHeight: 150}
	answers := models.Answers{key(0, 0): 0, key(1, 2): 1}

	first, s1 := render(t, sampleResult(), answers, opts)
	second, s2 := render(t, sampleResult(), answers, opts)

	assert.Equal(t, first, second)
	assert.Equal(t, s1, s2)
	assert.True(t, bytes.HasPrefix(first, []byte("%PDF-")))
}

func TestRenderPDFDependsOnInputs(t *testing.T) {
	opts := Options{GeneratedAt: fixedTime}
	base, _ := render(t, sampleResult(), nil, opts)
	answered, _ := render(t, sampleResult(), models.Answers{key(0, 1): 3}, opts)
	later, _ := render(t, sampleResult(), nil, Options{GeneratedAt: fixedTime.Add(time.Hour)})

	assert.NotEqual(t, base, answered)
	assert.NotEqual(t, base, later)
}

func TestRenderPDFPaginates(t *testing.T) {
	small := largeResult(1, 1)
	data, stats := render(t, small, nil, Options{GeneratedAt: fixedTime})
	assert.Equal(t, 1, stats.Pages)
	assert.Equal(t, 1, pageCount(t, data))

	big := largeResult(4, 8)
	data, stats = render(t, big, nil, Options{GeneratedAt: fixedTime})
	assert.Greater(t, stats.Pages, 1)
	assert.Equal(t, stats.Pages, pageCount(t, data))

	_, shortPages := render(t, big, nil, Options{GeneratedAt: fixedTime, PageHeight: 140})
	assert.Greater(t, shortPages.Pages, stats.Pages)
}

func TestRenderPDFEmptyQuiz(t *testing.T) {
	data, stats := render(t, &models.AnalysisResult{Summary: "nothing"}, nil, Options{GeneratedAt: fixedTime})
	assert.Equal(t, 1, stats.Pages)
	assert.Equal(t, 1, pageCount(t, data))
}

func TestRenderPDFValidation(t *testing.T) {
	var buf bytes.Buffer
	_, err := RenderPDF(&buf, nil, nil, Options{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = RenderPDF(&buf, sampleResult(), nil, Options{PageHeight: 50})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Zero(t, buf.Len())
}

func TestEnsureBreaksOnlyOnOverflow(t *testing.T) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	p := &pdfWriter{pdf: doc, pageH: a4Height, y: margin}

	p.ensure(a4Height - 2*margin)
	assert.Equal(t, 1, doc.PageCount())

	p.y = margin + 1
	p.ensure(a4Height - 2*margin)
	assert.Equal(t, 2, doc.PageCount())
	assert.Equal(t, margin, p.y)
}
