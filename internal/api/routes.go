package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grievassist/ml-service/internal/telemetry"
)

// SetupRoutes configures every route of the service. tel may be nil, in
// which case /metrics is not registered.
func SetupRoutes(router *gin.Engine, handler *Handler, tel *telemetry.Provider, jwtSecret string) {
	startTime := time.Now()

	router.GET("/health", handler.Health(startTime))
	router.HEAD("/health", handler.HeadHealth)
	router.GET("/ready", handler.Ready)

	if tel != nil {
		router.GET("/metrics", gin.WrapH(tel.Handler()))
	}

	v1 := router.Group("/api/v1")
	if jwtSecret != "" {
		v1.Use(AuthMiddleware(jwtSecret))
	}

	v1.POST("/predict", handler.Predict)
	v1.POST("/predict/batch", handler.PredictBatch)
	v1.GET("/model", handler.ModelInfo)
	v1.GET("/stats", handler.Stats)
}
