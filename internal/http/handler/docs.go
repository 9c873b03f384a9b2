package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	// Registers the API document read by the Swagger UI.
	_ "notionpdf/docs"
)

// RegisterDocs serves the Swagger UI under /swagger. The registered document
// leaves host and schemes unset, so the UI targets whichever host served it.
func RegisterDocs(app *fiber.App) {
	app.Get("/swagger/*", swagger.HandlerDefault)
}
