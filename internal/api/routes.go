package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(gin.Logger())

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/scan", handler.Scan)
		v1.GET("/state", handler.GetState)

		favorites := v1.Group("/favorites")
		{
			favorites.GET("", handler.GetFavorites)
			favorites.POST("/toggle", handler.ToggleFavorite)
		}

		v1.GET("/report", handler.GetReport)

		key := v1.Group("/key")
		{
			key.POST("", handler.SaveKey)
			key.POST("/validate", handler.ValidateKey)
		}
	}

	return router
}
