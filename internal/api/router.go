package api

import (
	"github.com/gin-gonic/gin"
	"github.com/medlit/paperclass/internal/api/handler"
	"github.com/medlit/paperclass/internal/api/middleware"
	"github.com/medlit/paperclass/internal/config"
	"github.com/medlit/paperclass/internal/repository"
	"github.com/medlit/paperclass/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	pipeline *service.PipelineService,
	store repository.JobStore,
	classifier service.Classifier,
	cfg *config.Config,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.Server.CORS))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	jobHandler := handler.NewJobHandler(pipeline, store)
	classifyHandler := handler.NewClassifyHandler(classifier, cfg.Classify.Categories)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Batch classification
		v1.POST("/upload", jobHandler.Upload)
		v1.GET("/status/:job_id", jobHandler.Status)
		v1.GET("/results/:job_id", jobHandler.Results)

		// Single-text classification
		v1.POST("/classify-text", classifyHandler.ClassifyText)

		// Categories
		v1.GET("/categories", classifyHandler.GetCategories)
	}

	return r
}
