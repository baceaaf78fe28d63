package routes

import (
	"github.com/gin-gonic/gin"

	"schemakit/internal/handlers"
)

type DynamicRoutes struct {
	handler *handlers.DynamicHandler
}

func NewDynamicRoutes(handler *handlers.DynamicHandler) *DynamicRoutes {
	return &DynamicRoutes{handler: handler}
}

func (r *DynamicRoutes) RegisterRoutes(router *gin.RouterGroup) {
	apps := router.Group("/apps/:app")
	{
		apps.POST("/apply", r.handler.ApplyApplication)
		apps.GET("/models", r.handler.ListModels)
		apps.GET("/models/:model", r.handler.GetModel)
		apps.POST("/models/:model/apply", r.handler.ApplyModel)
		apps.DELETE("/models/:model", r.handler.DeleteModel)
		apps.PATCH("/models/:model/fields/:field", r.handler.RenameField)
	}
}
