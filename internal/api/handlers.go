// Package api exposes study sessions over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/thywilljoshua/study-docs/internal/ai"
	"github.com/thywilljoshua/study-docs/internal/metrics"
	"github.com/thywilljoshua/study-docs/internal/session"
)

// Download file names.
const (
	NarrationWAVName = "study-narration.wav"
	NarrationMP3Name = "study-narration.mp3"
	ReportPDFName    = "study-report.pdf"
	ReportTextName   = "study-report.txt"
)

// Handler serves the session API.
type Handler struct {
	sessions *session.Manager
	metrics  *metrics.Metrics
	log      *slog.Logger
	version  string
	now      func() time.Time
}

// NewHandler creates a handler around a session manager.
func NewHandler(sessions *session.Manager, m *metrics.Metrics, logger *slog.Logger, version string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sessions: sessions,
		metrics:  m,
		log:      logger,
		version:  version,
		now:      time.Now,
	}
}

// session resolves the :id path parameter.
func (h *Handler) session(c echo.Context) (*session.Session, error) {
	id := c.Param("id")
	if id == "" {
		return nil, NewValidationError("id")
	}
	return h.sessions.Get(id)
}

// HandleHealth returns server health status
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"version":  h.version,
		"sessions": h.sessions.Len(),
	})
}

// HandleSchema returns the JSON schema of the analysis result.
func (h *Handler) HandleSchema(c echo.Context) error {
	return c.JSON(http.StatusOK, ai.JSONSchema())
}

// attachment sends data as a file download.
func attachment(c echo.Context, contentType, name string, data []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, contentType, data)
}
