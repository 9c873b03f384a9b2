package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"notionpdf/internal/http/middleware"
	"notionpdf/internal/service"
)

// Safe messages returned to callers. Internal causes are only logged.
const (
	msgMissingFields    = "Missing required fields: token and pageId"
	msgInvalidPageSize  = "pageSize must be one of: letter, a4"
	msgInvalidFilename  = "filename may only contain letters, digits, spaces, dots, dashes and underscores"
	msgInvalidBody      = "invalid request body"
	msgConversionFailed = "PDF generation failed. Please check your Notion credentials."
	msgArtifactMissing  = "PDF file was not generated"
	msgExportFailed     = "Export failed"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "BAD_REQUEST", "CONVERSION_FAILED")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Status:  status,
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeExportError maps an ExportService error onto its HTTP response.
func writeExportError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", msgMissingFields)
	case errors.Is(err, service.ErrInvalidPageSize):
		return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE_SIZE", msgInvalidPageSize)
	case errors.Is(err, service.ErrInvalidFilename):
		return writeError(c, fiber.StatusBadRequest, "INVALID_FILENAME", msgInvalidFilename)
	case errors.Is(err, service.ErrConversionFailed):
		return writeError(c, fiber.StatusInternalServerError, "CONVERSION_FAILED", msgConversionFailed)
	case errors.Is(err, service.ErrArtifactMissing):
		return writeError(c, fiber.StatusInternalServerError, "ARTIFACT_MISSING", msgArtifactMissing)
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", msgExportFailed)
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
// Errors that are not *fiber.Error are logged before the generic 500 is sent.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			log.WithError(err).WithFields(logrus.Fields{
				"request_id": requestIDFromCtx(c),
				"method":     c.Method(),
				"path":       c.Path(),
			}).Error("unhandled error")
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		case fiber.StatusServiceUnavailable:
			return writeError(c, status, "SERVICE_UNAVAILABLE", "service unavailable")
		default:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}
