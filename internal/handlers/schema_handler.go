package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schemakit/internal/responses"
	"schemakit/internal/services"
)

type SchemaHandler struct {
	schemaService *services.SchemaService
}

func NewSchemaHandler(schemaService *services.SchemaService) *SchemaHandler {
	return &SchemaHandler{
		schemaService: schemaService,
	}
}

// ListTables handles GET /api/v1/apps/:app/schema/tables, returning the
// introspected shape of the application's generated tables.
func (h *SchemaHandler) ListTables(c *gin.Context) {
	schema := c.DefaultQuery("schema", "public")

	tables, err := h.schemaService.LiveTables(c.Request.Context(), schema, c.Param("app"))
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Failed to introspect tables")
		return
	}
	responses.Success(c, http.StatusOK, tables, "Tables retrieved successfully")
}

// VisualizeSchema handles GET /api/v1/apps/:app/schema/visualize
func (h *SchemaHandler) VisualizeSchema(c *gin.Context) {
	schema := c.DefaultQuery("schema", "public")

	mermaidDiagram, err := h.schemaService.VisualizeSchema(c.Request.Context(), schema, c.Param("app"))
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Failed to visualize schema")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{
		"mermaid": mermaidDiagram,
		"schema":  schema,
	}, "Schema visualization generated successfully")
}
