package router

import (
	"github.com/gin-gonic/gin"

	"decklens/internal/config"
	"decklens/internal/handler"
	"decklens/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	analysisH *handler.AnalysisHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	// API routes - bearer auth is a no-op when no JWT secret is configured
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(&cfg.JWT))

	analyses := v1.Group("/analyses")
	analyses.POST("", analysisH.Create)
	analyses.GET("", analysisH.List)
	analyses.GET("/:id", analysisH.GetByID)
	analyses.DELETE("/:id", analysisH.Delete)
	analyses.POST("/:id/retry", analysisH.Retry)
	analyses.GET("/:id/report", analysisH.Report)

	return r
}
