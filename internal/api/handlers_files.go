package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/thywilljoshua/study-docs/internal/document"
)

// UploadResponse lists the per-file outcome of an upload.
type UploadResponse struct {
	Accepted []*document.UploadedFile `json:"accepted"`
	Rejected []document.Rejection     `json:"rejected"`
}

// HandleUploadFiles accepts multipart "files" parts. It answers 201 when at
// least one file was accepted and 422 otherwise.
func (h *Handler) HandleUploadFiles(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("invalid multipart form", err)
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return NewValidationError("files")
	}

	sources := make([]document.Source, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return NewBadRequestError(fmt.Sprintf("failed to read %s", fh.Filename), err)
		}
		sources = append(sources, document.Source{
			Name:         fh.Filename,
			DeclaredType: fh.Header.Get(echo.HeaderContentType),
			Data:         data,
		})
	}

	accepted, rejected, err := s.AddFiles(c.Request().Context(), sources)
	if err != nil {
		return err
	}
	resp := UploadResponse{Accepted: accepted, Rejected: rejected}
	if resp.Accepted == nil {
		resp.Accepted = []*document.UploadedFile{}
	}
	if resp.Rejected == nil {
		resp.Rejected = []document.Rejection{}
	}
	if len(accepted) == 0 {
		return c.JSON(http.StatusUnprocessableEntity, resp)
	}
	return c.JSON(http.StatusCreated, resp)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// HandleDeleteFile removes one document from a session.
func (h *Handler) HandleDeleteFile(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	if err := s.RemoveFile(c.Param("fileId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
