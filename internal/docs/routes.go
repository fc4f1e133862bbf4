package docs

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// DocumentationHandler serves the generated API document
type DocumentationHandler struct {
	engine    *gin.Engine
	described map[string]Route
	version   string

	once    sync.Once
	openAPI *OpenAPISpec
}

// NewDocumentationHandler documents the routes registered on engine. The
// document is built on first request so routes added after this call appear.
func NewDocumentationHandler(engine *gin.Engine, described map[string]Route, version string) *DocumentationHandler {
	return &DocumentationHandler{engine: engine, described: described, version: version}
}

// RegisterRoutes registers documentation endpoints
func (h *DocumentationHandler) RegisterRoutes() {
	docs := h.engine.Group("/api/docs")
	{
		docs.GET("", h.handleDocIndex)
		docs.GET("/openapi.json", h.handleOpenAPISpec)
		docs.GET("/swagger", h.handleSwaggerUI)
	}
}

// Spec returns the generated document.
func (h *DocumentationHandler) Spec() *OpenAPISpec {
	h.once.Do(func() {
		h.openAPI = Generate(h.engine.Routes(), h.described, h.version)
	})
	return h.openAPI
}

func (h *DocumentationHandler) handleDocIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Storybooks API Documentation",
		"links": gin.H{
			"openapi": "/api/docs/openapi.json",
			"swagger": "/api/docs/swagger",
		},
	})
}

func (h *DocumentationHandler) handleOpenAPISpec(c *gin.Context) {
	c.JSON(http.StatusOK, h.Spec())
}

func (h *DocumentationHandler) handleSwaggerUI(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, swaggerHTML)
}

const swaggerHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Storybooks API Documentation</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@3/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@3/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({
            url: "/api/docs/openapi.json",
            dom_id: '#swagger-ui',
            presets: [SwaggerUIBundle.presets.apis],
            deepLinking: true
        })
    </script>
</body>
</html>
`
