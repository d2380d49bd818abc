package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"betterresume/internal/background"
	"betterresume/internal/llm"
	"betterresume/internal/logging"
	"betterresume/pkg/models"
	"betterresume/pkg/utils"
)

var startTime = time.Now()

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	requestID := utils.GenerateRequestID()
	logger := logging.GetGlobalLogger()

	logger.Debug("Health check requested", map[string]interface{}{"request_id": requestID})

	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Uptime:    time.Since(startTime),
		Checks: map[string]string{
			"api": "ok",
		},
	}

	return c.JSON(http.StatusOK, response)
}

// ReadinessHandler handles readiness probe requests
func ReadinessHandler(llmManager *llm.Manager, taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.GetGlobalLogger()

		logger.Debug("Readiness check requested", map[string]interface{}{"request_id": requestID})

		checks := map[string]string{
			"api": "ok",
		}
		status := "ready"
		httpStatus := http.StatusOK

		if llmManager.IsHealthy() {
			checks["llm"] = "ok"
		} else {
			checks["llm"] = "unavailable"
			status = "degraded"
		}

		if taskManager.IsHealthy() {
			checks["tasks"] = "ok"
		} else {
			checks["tasks"] = "unavailable"
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		}

		response := models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Uptime:    time.Since(startTime),
			Checks:    checks,
		}

		return c.JSON(httpStatus, response)
	}
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	response := models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Uptime:    time.Since(startTime),
	}

	return c.JSON(http.StatusOK, response)
}

// StatusHandler provides detailed service status
func StatusHandler(llmManager *llm.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		checks := map[string]string{
			"api":      "operational",
			"provider": llmManager.GetProviderName(),
		}
		if llmManager.IsHealthy() {
			checks["llm"] = "operational"
		} else {
			checks["llm"] = "degraded"
		}

		response := models.HealthResponse{
			Status:    "operational",
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Uptime:    time.Since(startTime),
			Checks:    checks,
		}

		return c.JSON(http.StatusOK, response)
	}
}
