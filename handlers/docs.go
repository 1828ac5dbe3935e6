package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, swaggerJSON)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>pitwall — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the CRON-facing endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "pitwall", "version": "v0.1.0" },
  "paths": {
    "/ingest": {
      "post": {
        "summary": "Run every registered source",
        "security": [{"bearerAuth": []}],
        "responses": { "200": { "description": "per-source summaries, plus per-source errors when some failed" }, "401": { "description": "missing or malformed bearer token" }, "403": { "description": "wrong bearer token" }, "502": { "description": "no source ran to completion" } }
      }
    },
    "/ingest/{source}": {
      "post": {
        "summary": "Run one source",
        "security": [{"bearerAuth": []}],
        "parameters": [{"name":"source","in":"path","required":true,"schema":{"type":"string"},"description":"registered source name, e.g. youtube or blog"}],
        "responses": { "200": { "description": "{source, inserted, updated, skipped}" }, "404": { "description": "unknown source" }, "502": { "description": "upstream fetch failed" }, "500": { "description": "storage write failed" } }
      }
    },
    "/publish/blog": {
      "post": {
        "summary": "Publish blog posts to the site bucket",
        "security": [{"bearerAuth": []}],
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"blog":{"type":"string","description":"post slug; omit for a full sync"}}}}}},
        "responses": { "200": { "description": "published" }, "403": { "description": "wrong bearer token for the requested mode" }, "404": { "description": "post not found" } }
      }
    },
    "/status": { "get": { "summary": "Server status message", "responses": { "200": { "description": "running" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metric exposition" } } } }
  }
}`
