package routes

import (
	"github.com/gin-gonic/gin"

	"schemakit/internal/handlers"
)

type ConversionRoutes struct {
	handler *handlers.ConversionHandler
}

func NewConversionRoutes(handler *handlers.ConversionHandler) *ConversionRoutes {
	return &ConversionRoutes{handler: handler}
}

func (r *ConversionRoutes) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/apps/:app/convert", r.handler.Convert)
}
