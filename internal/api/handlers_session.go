package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HandleCreateSession starts a new idle session.
func (h *Handler) HandleCreateSession(c echo.Context) error {
	s, err := h.sessions.Create()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, s.Snapshot())
}

// HandleGetSession returns the phase, documents and last error of a session.
func (h *Handler) HandleGetSession(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Snapshot())
}

// HandleDeleteSession removes a session and discards its in-flight work.
func (h *Handler) HandleDeleteSession(c echo.Context) error {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleResetSession clears documents, results and audio.
func (h *Handler) HandleResetSession(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	s.Reset()
	return c.JSON(http.StatusOK, s.Snapshot())
}
