package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/thywilljoshua/study-docs/internal/apperr"
	"github.com/thywilljoshua/study-docs/internal/models"
)

// Page geometry in millimetres.
const (
	pageWidth  = 210.0
	a4Height   = 297.0
	margin     = 20.0
	minPageH   = 2*margin + 60
	panelPad   = 2.5
	optionMark = 6.0
	optionText = 12.0
)

// DefaultTitle heads every report.
const DefaultTitle = "Study Report - Quiz Results"

// Options control RenderPDF.
type Options struct {
	// GeneratedAt is printed in the header and stored as the document
	// creation date. Fixing it makes the output byte-for-byte reproducible.
	GeneratedAt time.Time
	// PageHeight overrides the A4 page height.
	PageHeight float64
	Title      string
}

// Stats describes a rendered report.
type Stats struct {
	Pages int `json:"pages"`
}

type rgb struct{ r, g, b int }

var (
	colorTitle    = rgb{37, 99, 235}
	colorMuted    = rgb{100, 116, 139}
	colorInk      = rgb{15, 23, 42}
	colorHeading  = rgb{30, 41, 59}
	colorQuestion = rgb{51, 65, 85}
	colorOption   = rgb{71, 85, 105}
	colorCorrect  = rgb{22, 163, 74}
	colorWrong    = rgb{220, 38, 38}
	colorPanel    = rgb{241, 245, 249}
	colorRule     = rgb{200, 200, 200}
)

type textStyle struct {
	size  float64
	bold  bool
	color rgb
}

var (
	styleTitle       = textStyle{20, true, colorTitle}
	styleDate        = textStyle{10, false, colorMuted}
	styleTopic       = textStyle{14, true, colorHeading}
	styleQuestion    = textStyle{11, true, colorQuestion}
	styleOption      = textStyle{10, false, colorOption}
	styleExplanation = textStyle{9, false, colorOption}
	styleBody        = textStyle{11, false, colorInk}
)

// lineHeight converts a font size in points to a line advance in mm.
func lineHeight(size float64) float64 {
	return size * 0.3528 * 1.35
}

type pdfWriter struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	pageH float64
	y     float64
}

func (p *pdfWriter) bottom() float64       { return p.pageH - margin }
func (p *pdfWriter) printable() float64    { return p.pageH - 2*margin }
func (p *pdfWriter) contentWidth() float64 { return pageWidth - 2*margin }

// ensure starts a new page when a block of height h would cross the
// bottom margin.
func (p *pdfWriter) ensure(h float64) {
	if p.y+h > p.bottom() {
		p.pdf.AddPage()
		p.y = margin
	}
}

func (p *pdfWriter) setStyle(s textStyle) {
	fontStyle := ""
	if s.bold {
		fontStyle = "B"
	}
	p.pdf.SetFont("Helvetica", fontStyle, s.size)
	p.pdf.SetTextColor(s.color.r, s.color.g, s.color.b)
}

func (p *pdfWriter) wrap(text string, s textStyle, indent float64) []string {
	p.setStyle(s)
	return wrapText(p.pdf, p.tr(text), p.contentWidth()-indent)
}

// paragraph writes text as one block. A block taller than a page flows
// line by line instead.
func (p *pdfWriter) paragraph(text string, s textStyle, indent, after float64) {
	lines := p.wrap(text, s, indent)
	lh := lineHeight(s.size)
	if h := float64(len(lines)) * lh; h <= p.printable() {
		p.ensure(h)
	}
	for _, line := range lines {
		p.ensure(lh)
		p.pdf.Text(margin+indent, p.y+lh*0.75, line)
		p.y += lh
	}
	p.y += after
}

func (p *pdfWriter) rule(after float64) {
	p.ensure(1)
	p.pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
	p.pdf.SetLineWidth(0.3)
	p.pdf.Line(margin, p.y, pageWidth-margin, p.y)
	p.y += after
}

func (p *pdfWriter) header(title string, generatedAt time.Time) {
	p.paragraph(title, styleTitle, 0, 2)
	p.paragraph("Generated "+generatedAt.Format("2006-01-02 15:04 MST"), styleDate, 0, 6)
}

func (p *pdfWriter) scoreCard(s Summary) {
	const h = 26.0
	p.ensure(h)
	p.pdf.SetFillColor(colorPanel.r, colorPanel.g, colorPanel.b)
	p.pdf.Rect(margin, p.y, p.contentWidth(), h, "F")

	scoreColor := colorWrong
	if s.Passed() {
		scoreColor = colorCorrect
	}
	p.setStyle(textStyle{24, true, scoreColor})
	p.pdf.Text(margin+6, p.y+13, fmt.Sprintf("%d%%", s.Percentage))

	p.setStyle(textStyle{11, true, colorInk})
	p.pdf.Text(margin+45, p.y+10, fmt.Sprintf("%d of %d questions correct", s.Correct, s.Total))
	p.setStyle(styleDate)
	p.pdf.Text(margin+45, p.y+17, fmt.Sprintf("%d answered", s.Answered))

	p.y += h + 6
}

func (p *pdfWriter) option(text string, mark string, s textStyle) {
	lines := p.wrap(text, s, optionText)
	lh := lineHeight(s.size)
	if h := float64(len(lines)) * lh; h <= p.printable() {
		p.ensure(h)
	}
	for i, line := range lines {
		p.ensure(lh)
		if i == 0 {
			p.pdf.Text(margin+optionMark, p.y+lh*0.75, mark)
		}
		p.pdf.Text(margin+optionText, p.y+lh*0.75, line)
		p.y += lh
	}
	p.y += 1
}

// panel writes text on a shaded box.
func (p *pdfWriter) panel(text string, s textStyle) {
	lines := p.wrap(text, s, 2*panelPad)
	lh := lineHeight(s.size)
	h := float64(len(lines))*lh + 2*panelPad
	if h > p.printable() {
		p.paragraph(text, s, panelPad, 4)
		return
	}
	p.ensure(h)
	p.pdf.SetFillColor(colorPanel.r, colorPanel.g, colorPanel.b)
	p.pdf.Rect(margin, p.y, p.contentWidth(), h, "F")
	p.setStyle(s)
	y := p.y + panelPad
	for _, line := range lines {
		p.pdf.Text(margin+panelPad, y+lh*0.75, line)
		y += lh
	}
	p.y += h + 5
}

func (p *pdfWriter) quizzes(result *models.AnalysisResult, answers models.Answers) {
	if result.QuestionCount() == 0 {
		p.paragraph("No quiz questions were generated for these documents.", styleBody, 0, 4)
		return
	}
	for ti, topic := range result.Quizzes {
		// keep a heading together with the start of its first question
		p.ensure(lineHeight(styleTopic.size) + 4 + lineHeight(styleQuestion.size)*2)
		p.paragraph(fmt.Sprintf("Topic %d: %s", ti+1, topic.Topic), styleTopic, 0, 1)
		p.rule(4)

		for qi, q := range topic.Questions {
			p.paragraph(fmt.Sprintf("%d. %s", qi+1, q.Text), styleQuestion, 0, 2)

			selected, answered := answers.Selected(models.AnswerKey{Topic: ti, Question: qi})
			for oi, opt := range q.Options {
				switch {
				case oi == q.CorrectAnswerIndex:
					p.option(opt, "+", textStyle{styleOption.size, true, colorCorrect})
				case answered && oi == selected:
					p.option(opt, "X", textStyle{styleOption.size, true, colorWrong})
				default:
					p.option(opt, "o", styleOption)
				}
			}
			p.y += 1
			p.panel("Explanation: "+q.Explanation, styleExplanation)
		}
		p.y += 4
	}
}

// RenderPDF writes the quiz results as a paginated A4 PDF.
func RenderPDF(w io.Writer, result *models.AnalysisResult, answers models.Answers, opts Options) (Stats, error) {
	const op = "report.RenderPDF"

	if result == nil {
		return Stats{}, apperr.Errorf(apperr.KindValidation, op, "no analysis result to render")
	}
	pageH := opts.PageHeight
	if pageH <= 0 {
		pageH = a4Height
	}
	if pageH < minPageH {
		return Stats{}, apperr.Errorf(apperr.KindValidation, op, "page height %.0fmm is below %.0fmm", pageH, float64(minPageH))
	}
	generatedAt := opts.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: pageWidth, Ht: pageH},
	})
	doc.SetMargins(margin, margin, margin)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCreationDate(generatedAt)
	doc.SetModificationDate(generatedAt)
	doc.SetCatalogSort(true)
	doc.SetTitle(title, true)
	doc.SetCreator("studydocs", true)
	doc.AliasNbPages("")
	doc.SetFooterFunc(func() {
		doc.SetFont("Helvetica", "", 8)
		doc.SetTextColor(colorMuted.r, colorMuted.g, colorMuted.b)
		doc.SetXY(margin, pageH-margin/2-3)
		doc.CellFormat(pageWidth-2*margin, 6, fmt.Sprintf("Page %d of {nb}", doc.PageNo()), "", 0, "C", false, 0, "")
	})

	p := &pdfWriter{pdf: doc, tr: doc.UnicodeTranslatorFromDescriptor(""), pageH: pageH}
	doc.AddPage()
	p.y = margin

	p.header(title, generatedAt)
	p.scoreCard(Score(result, answers))
	p.rule(8)
	p.quizzes(result, answers)

	stats := Stats{Pages: doc.PageCount()}
	if err := doc.Output(w); err != nil {
		return Stats{}, fmt.Errorf("writing pdf: %w", err)
	}
	return stats, nil
}
