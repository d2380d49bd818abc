package routes

import (
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"betterresume/internal/api/handlers"
	"betterresume/internal/api/middleware"
	"betterresume/internal/background"
	"betterresume/internal/cache"
	"betterresume/internal/config"
	"betterresume/internal/download"
	"betterresume/internal/ingest"
	"betterresume/internal/llm"
	"betterresume/internal/profile"
	"betterresume/internal/records"
	"betterresume/internal/tailor"
)

// Dependencies carries everything the route handlers need
type Dependencies struct {
	Config      *config.Config
	LLMManager  *llm.Manager
	TaskManager background.TaskManager
	Tailor      *tailor.Service
	Ingest      *ingest.Service
	Records     *records.Store
	Profiles    *profile.Store
	Cache       *cache.Cache
	Signer      *download.Signer
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	// Global middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation())
	// Selective timeout: short for most endpoints, longer for model-backed
	// generation, none for the SSE stream.
	e.Use(middleware.SelectiveTimeoutConfig(deps.Config.Server.ReadTimeout, 5*time.Minute))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(deps.LLMManager, deps.TaskManager))
		health.GET("/live", handlers.LivenessHandler)
	}

	// Status route
	e.GET("/status", handlers.StatusHandler(deps.LLMManager))

	// Signed file downloads
	e.GET("/download/:user_id/:filename", handlers.DownloadHandler(deps.Cache, deps.Signer))

	// API v1 routes
	v1 := e.Group("/api/v1")
	{
		users := v1.Group("/users/:user_id")
		{
			users.POST("/records", handlers.UploadRecordsHandler(deps.TaskManager, deps.Ingest))
			users.GET("/records", handlers.RecordsInfoHandler(deps.Records))
			users.POST("/profile-picture", handlers.UploadProfilePictureHandler(deps.Profiles))
			users.DELETE("/profile-picture", handlers.DeleteProfilePictureHandler(deps.Profiles))
			users.POST("/generate", handlers.GenerateResumeHandler(deps.Tailor))
			users.POST("/generate/stream", handlers.GenerateResumeStreamHandler(deps.Tailor))
		}

		v1.GET("/tasks/:process_id", handlers.TaskStatusHandler(deps.TaskManager))
	}

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"service": "BetterResume Generator",
			"version": "1.0.0",
			"status":  "running",
		})
	})
}
