package handler

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"notionpdf/internal/model"
	"notionpdf/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// db may be nil when export history is not configured.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.ExportService) {
	app.Get("/health", HealthCheck(db, svc))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Post("/export", ExportPDF(svc))
	api.Get("/exports", ListExports(svc))
}

// HealthCheck godoc
// @Summary Readiness probe
// @Description Pings the database when one is configured and reports the last resolved interpreter.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db *sql.DB, svc service.ExportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":      "healthy",
			"interpreter": svc.Interpreter(),
		})
	}
}

// LivenessProbe godoc
// @Summary Liveness probe
// @Tags health
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ExportPDF godoc
// @Summary Export a Notion page to PDF
// @Description Runs the conversion program for one page and returns the PDF as an attachment.
// @Tags export
// @Accept json
// @Produce application/pdf
// @Param request body model.ExportRequest true "Export request"
// @Success 200 {file} binary
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/export [post]
func ExportPDF(svc service.ExportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.ExportRequest
		// An empty body is an empty request, reported as missing fields.
		if body := c.Body(); len(bytes.TrimSpace(body)) > 0 {
			if err := c.App().Config().JSONDecoder(body, &req); err != nil {
				return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
			}
		}

		art, err := svc.Export(c.UserContext(), req)
		if err != nil {
			return writeExportError(c, err)
		}

		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+art.Filename+`"`)
		return c.Status(fiber.StatusOK).Send(art.Data)
	}
}

// ListExports godoc
// @Summary List export history
// @Description Returns recorded export attempts, newest first. Requires a configured database.
// @Tags export
// @Produce json
// @Param limit query int false "Page size (max 100)" default(10)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} service.ExportListResult
// @Failure 400 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /api/exports [get]
func ListExports(svc service.ExportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.History(c.UserContext(), limit, offset)
		if err != nil {
			if errors.Is(err, service.ErrHistoryDisabled) {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "export history is not available")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}
