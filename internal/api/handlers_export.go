package api

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/thywilljoshua/study-docs/internal/report"
)

// HandleNarrate transcribes the documents and synthesizes the narration.
func (h *Handler) HandleNarrate(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	a, err := s.Narrate(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

// HandleAudioWAV downloads the narration as WAV.
func (h *Handler) HandleAudioWAV(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	a, err := s.Audio()
	if err != nil {
		return err
	}
	h.metrics.ObserveExport("wav")
	return attachment(c, "audio/wav", NarrationWAVName, a.WAV)
}

// HandleAudioMP3 downloads the narration as MP3, encoding it on first use.
func (h *Handler) HandleAudioMP3(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	data, err := s.MP3()
	if err != nil {
		return err
	}
	h.metrics.ObserveExport("mp3")
	return attachment(c, "audio/mpeg", NarrationMP3Name, data)
}

// HandleReportPDF renders the quiz report as PDF.
func (h *Handler) HandleReportPDF(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	result, err := s.Result()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	stats, err := report.RenderPDF(&buf, result, s.Answers(), report.Options{GeneratedAt: h.now()})
	if err != nil {
		return err
	}
	h.metrics.ObserveExport("pdf")
	h.log.Debug("report rendered", "session", s.ID(), "pages", stats.Pages, "bytes", buf.Len())
	return attachment(c, "application/pdf", ReportPDFName, buf.Bytes())
}

// HandleReportText renders the quiz report as plain text.
func (h *Handler) HandleReportText(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	result, err := s.Result()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := report.RenderText(&buf, result, s.Answers(), h.now()); err != nil {
		return err
	}
	h.metrics.ObserveExport("txt")
	return attachment(c, echo.MIMETextPlainCharsetUTF8, ReportTextName, buf.Bytes())
}
