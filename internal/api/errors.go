package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/thywilljoshua/study-docs/internal/apperr"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// statusByKind maps error kinds to HTTP statuses and codes.
var statusByKind = map[apperr.Kind]struct {
	status int
	code   string
}{
	apperr.KindValidation:         {http.StatusBadRequest, "VALIDATION_ERROR"},
	apperr.KindDecode:             {http.StatusBadRequest, "VALIDATION_ERROR"},
	apperr.KindNotFound:           {http.StatusNotFound, "NOT_FOUND"},
	apperr.KindBusy:               {http.StatusConflict, "CONFLICT"},
	apperr.KindDiscarded:          {http.StatusConflict, "DISCARDED"},
	apperr.KindBackend:            {http.StatusBadGateway, "BACKEND_ERROR"},
	apperr.KindEncoderUnavailable: {http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
}

// FromError converts any error into an APIError.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	}
	if m, ok := statusByKind[apperr.KindOf(err)]; ok {
		return &APIError{Status: m.status, Code: m.code, Message: err.Error()}
	}
	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: "An unexpected error occurred",
		Details: err.Error(),
	}
}

// ErrorHandler returns the echo error handler. Server side failures are logged.
// Usage: e.HTTPErrorHandler = api.ErrorHandler(logger)
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		apiErr := FromError(err)
		if apiErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", apiErr.Status,
				"error", err)
		}
		if err := c.JSON(apiErr.Status, apiErr); err != nil {
			logger.Warn("failed to write error response", "error", err)
		}
	}
}
