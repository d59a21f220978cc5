package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the person API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>personstore Swagger</title>
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

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "personstore", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "Person": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "id": { "type": "string" },
          "name": { "type": "string" },
          "age": { "type": "integer" },
          "favoriteFoods": { "type": "array", "items": { "type": "string" } }
        }
      }
    }
  },
  "paths": {
    "/api/people": {
      "post": { "summary": "Create and save one person", "responses": { "201": { "description": "saved" }, "400": { "description": "validation failed" } } },
      "get": { "summary": "Find people by exact name", "parameters": [{ "name": "name", "in": "query", "required": true, "schema": { "type": "string" } }], "responses": { "200": { "description": "list, possibly empty" } } },
      "delete": { "summary": "Delete every person with this name", "parameters": [{ "name": "name", "in": "query", "required": true, "schema": { "type": "string" } }], "responses": { "200": { "description": "deletedCount" } } }
    },
    "/api/people/bulk": {
      "post": { "summary": "Create many people", "responses": { "201": { "description": "saved" }, "400": { "description": "a document failed validation, nothing written" } } }
    },
    "/api/people/search": {
      "get": { "summary": "Find one person by favorite food, case-insensitive substring", "parameters": [{ "name": "food", "in": "query", "required": true, "schema": { "type": "string" } }], "responses": { "200": { "description": "person" }, "404": { "description": "no match" } } }
    },
    "/api/people/food-lovers": {
      "get": { "summary": "People who list a food, sorted by name, limited, without ids", "parameters": [{ "name": "food", "in": "query", "required": true, "schema": { "type": "string" } }, { "name": "limit", "in": "query", "schema": { "type": "integer", "default": 2 } }], "responses": { "200": { "description": "list" } } }
    },
    "/api/people/{id}": {
      "get": { "summary": "Find person by id", "responses": { "200": { "description": "person" }, "400": { "description": "malformed id" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete person by id", "responses": { "200": { "description": "deleted person" }, "404": { "description": "not found" } } }
    },
    "/api/people/{id}/favorite-foods": {
      "post": { "summary": "Append a favorite food (find, edit, save)", "responses": { "200": { "description": "updated person" }, "404": { "description": "not found" } } }
    },
    "/api/people/by-name/{name}/age": {
      "patch": { "summary": "Atomically set age on the first person with this name", "responses": { "200": { "description": "updated person" }, "404": { "description": "not found" } } }
    },
    "/api/people/export": {
      "post": { "summary": "Upload a JSON snapshot of the collection", "responses": { "201": { "description": "snapshot key and link" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
