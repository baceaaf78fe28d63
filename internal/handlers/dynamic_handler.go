package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"schemakit/internal/responses"
	"schemakit/internal/services"
)

type DynamicHandler struct {
	dynamicService *services.DynamicService
}

func NewDynamicHandler(dynamicService *services.DynamicService) *DynamicHandler {
	return &DynamicHandler{
		dynamicService: dynamicService,
	}
}

// ListModels handles GET /api/v1/apps/:app/models
func (h *DynamicHandler) ListModels(c *gin.Context) {
	records, err := h.dynamicService.ListModels(c.Request.Context(), c.Param("app"))
	if err != nil {
		responses.Fail(c, statusFor(err), err, "Failed to list models")
		return
	}
	responses.Success(c, http.StatusOK, records, "Models retrieved successfully")
}

// GetModel handles GET /api/v1/apps/:app/models/:model, returning the
// materialized definition the sync engine works from.
func (h *DynamicHandler) GetModel(c *gin.Context) {
	handle, err := h.dynamicService.GetModel(c.Request.Context(), c.Param("app"), c.Param("model"))
	if err != nil {
		responses.Fail(c, statusFor(err), err, "Failed to load model")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{
		"definition": handle.Definition,
		"table":      handle.Table,
		"built_at":   handle.BuiltAt,
	}, "Model retrieved successfully")
}

// ApplyModel handles POST /api/v1/apps/:app/models/:model/apply, synchronizing
// the model's table with its stored definition.
func (h *DynamicHandler) ApplyModel(c *gin.Context) {
	err := h.dynamicService.ApplyModel(c.Request.Context(), c.Param("app"), c.Param("model"))
	if err != nil {
		responses.Fail(c, statusFor(err), err, "Failed to apply model")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Model applied successfully")
}

// ApplyApplication handles POST /api/v1/apps/:app/apply, synchronizing every
// model of the application in reference order.
func (h *DynamicHandler) ApplyApplication(c *gin.Context) {
	err := h.dynamicService.ApplyApplication(c.Request.Context(), c.Param("app"))
	if err != nil {
		responses.Fail(c, statusFor(err), err, "Failed to apply application")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Application applied successfully")
}

// DeleteModel handles DELETE /api/v1/apps/:app/models/:model, dropping the
// model's tables and its stored definition.
func (h *DynamicHandler) DeleteModel(c *gin.Context) {
	err := h.dynamicService.DropModel(c.Request.Context(), c.Param("app"), c.Param("model"))
	if err != nil {
		responses.Fail(c, statusFor(err), err, "Failed to delete model")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Model deleted successfully")
}

type renameFieldRequest struct {
	Name string `json:"name" binding:"required"`
}

// RenameField handles PATCH /api/v1/apps/:app/models/:model/fields/:field.
// The old name is kept as a rename hint so the next apply renames the column
// instead of dropping it.
func (h *DynamicHandler) RenameField(c *gin.Context) {
	var req renameFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	err := h.dynamicService.RenameField(c.Request.Context(),
		c.Param("app"), c.Param("model"), c.Param("field"), req.Name)
	if err != nil {
		responses.Fail(c, statusFor(err), err, "Failed to rename field")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Field renamed successfully")
}

func statusFor(err error) int {
	if err != nil && strings.Contains(err.Error(), "not found") {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
