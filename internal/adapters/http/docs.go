package http

import (
	"fmt"
	"html"
	"log/slog"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

const openAPIPath = "api/openapi.yaml"

const swaggerUIPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>%s</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
  <style>body{margin:0;background:#fafafa}</style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: '/docs/openapi.yaml', dom_id: '#swagger-ui', deepLinking: true});
  </script>
</body>
</html>`

// docsTitle names the Swagger UI page after the document's info.title.
func docsTitle(doc []byte) string {
	title := "API reference"
	if len(doc) == 0 {
		return title
	}
	spec, err := openapi3.NewLoader().LoadFromData(doc)
	if err != nil {
		slog.Warn("openapi document does not parse", "path", openAPIPath, "error", err)
		return title
	}
	if spec.Info != nil && spec.Info.Title != "" {
		title = spec.Info.Title
	}
	return title
}

// SetupDocs registers Swagger UI at /docs and the OpenAPI document at
// /docs/openapi.yaml. The document is read once at startup.
func SetupDocs(app *fiber.App) {
	doc, err := os.ReadFile(openAPIPath)
	if err != nil {
		slog.Warn("openapi document not found, /docs/openapi.yaml will 404", "path", openAPIPath)
	}
	page := fmt.Sprintf(swaggerUIPage, html.EscapeString(docsTitle(doc)))

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/html; charset=utf-8")
		return c.SendString(page)
	})

	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		if doc == nil {
			return errNotFound(c, "openapi document not found")
		}
		c.Set("Content-Type", "application/yaml")
		return c.Send(doc)
	})
}
