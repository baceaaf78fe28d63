package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schemakit/internal/handlers"
)

func RegisterRoutes(router *gin.Engine, conversionHandler *handlers.ConversionHandler, dynamicHandler *handlers.DynamicHandler, schemaHandler *handlers.SchemaHandler) {
	api := router.Group("/api/v1")

	conversionRoutes := NewConversionRoutes(conversionHandler)
	conversionRoutes.RegisterRoutes(api)

	dynamicRoutes := NewDynamicRoutes(dynamicHandler)
	dynamicRoutes.RegisterRoutes(api)

	schemaRoutes := NewSchemaRoutes(schemaHandler)
	schemaRoutes.RegisterRoutes(api)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}
