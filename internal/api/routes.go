package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, handler *Handler, metricsHandler http.Handler) {
	// Health checks (no /api/v1 prefix for standard health endpoints)
	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadinessCheck)

	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handler.HealthCheck)
		v1.GET("/ready", handler.ReadinessCheck)

		search := v1.Group("/search")
		{
			search.POST("", handler.Search) // POST for full option control
			search.GET("", handler.Search)  // GET for simple searches
		}

		keywords := v1.Group("/keywords")
		{
			keywords.POST("/analyze", handler.AnalyzeKeywords)
		}
	}
}
