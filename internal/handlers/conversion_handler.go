package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"schemakit/internal/erd"
	"schemakit/internal/responses"
	"schemakit/internal/services"
)

type ConversionHandler struct {
	conversionService *services.ConversionService
}

func NewConversionHandler(conversionService *services.ConversionService) *ConversionHandler {
	return &ConversionHandler{
		conversionService: conversionService,
	}
}

// Convert handles POST /api/v1/apps/:app/convert. The request body is the raw
// ERD graph JSON. A valid result replaces the application's stored model
// definitions; pass ?dry_run=true to convert without persisting.
func (h *ConversionHandler) Convert(c *gin.Context) {
	appName := c.Param("app")
	dryRun := c.Query("dry_run") == "true"

	graphJSON, err := io.ReadAll(c.Request.Body)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Failed to read request body")
		return
	}
	if len(graphJSON) == 0 {
		responses.Fail(c, http.StatusBadRequest, nil, "Request body must contain an ERD graph")
		return
	}

	var result *erd.ConversionResult
	if dryRun {
		result, err = h.conversionService.Convert(graphJSON, appName)
		if err != nil {
			responses.Fail(c, http.StatusBadRequest, err, "Failed to convert ERD graph")
			return
		}
	} else {
		result, err = h.conversionService.ConvertAndStore(c.Request.Context(), graphJSON, appName)
		if err != nil {
			responses.Fail(c, http.StatusInternalServerError, err, "Failed to convert ERD graph")
			return
		}
	}

	if !result.IsValid {
		// Conversion ran but the output failed validation; nothing was stored.
		// The result payload carries the validation errors.
		responses.JSON(c, http.StatusUnprocessableEntity, "error", result,
			"Conversion produced validation errors", nil)
		return
	}
	responses.SuccessWithWarnings(c, http.StatusOK, result, result.Warnings,
		"ERD graph converted successfully")
}
