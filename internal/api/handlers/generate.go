package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"betterresume/internal/agent"
	"betterresume/internal/llm"
	"betterresume/internal/logging"
	"betterresume/internal/tailor"
	"betterresume/pkg/models"
	"betterresume/pkg/utils"
)

var generateValidator = validator.New()

// GenerateResumeHandler handles POST /api/v1/users/:user_id/generate
func GenerateResumeHandler(svc *tailor.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFromContext(c)
		logger := logging.GetGlobalLogger()
		userID := c.Param("user_id")

		logger.Info("Processing resume generation request", map[string]interface{}{
			"request_id": requestID,
			"user_id":    userID,
		})

		req, err := bindGenerateRequest(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		response, err := svc.GenerateResume(c.Request().Context(), userID, req, nil)
		if err != nil {
			status, code := classifyGenerationError(err)
			logger.Error("Resume generation failed", map[string]interface{}{
				"request_id": requestID,
				"user_id":    userID,
				"error":      err.Error(),
			})
			return c.JSON(status, models.ErrorResponse{
				Error:     code,
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		logger.Info("Resume generation completed", map[string]interface{}{
			"request_id": requestID,
			"user_id":    userID,
			"cached":     response.Cached,
		})

		return c.JSON(http.StatusOK, response)
	}
}

// GenerateResumeStreamHandler handles POST /api/v1/users/:user_id/generate/stream
// and emits progress events as server-sent events.
func GenerateResumeStreamHandler(svc *tailor.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFromContext(c)
		logger := logging.GetGlobalLogger()
		userID := c.Param("user_id")

		req, err := bindGenerateRequest(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		logger.Info("Processing streaming resume generation request", map[string]interface{}{
			"request_id": requestID,
			"user_id":    userID,
		})

		res := c.Response()
		res.Header().Set(echo.HeaderContentType, "text/event-stream")
		res.Header().Set("Cache-Control", "no-cache")
		res.Header().Set("Connection", "keep-alive")
		res.WriteHeader(http.StatusOK)

		progress := func(event models.ProgressEvent) {
			writeSSEEvent(c, event)
		}

		// Terminal stages (done or error) are emitted by the service itself,
		// so any error here has already reached the client as an event.
		if _, err := svc.GenerateResume(c.Request().Context(), userID, req, progress); err != nil {
			logger.Error("Streaming resume generation failed", map[string]interface{}{
				"request_id": requestID,
				"user_id":    userID,
				"error":      err.Error(),
			})
		}

		return nil
	}
}

func bindGenerateRequest(c echo.Context) (*models.GenerateRequest, error) {
	var req models.GenerateRequest
	if err := c.Bind(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if req.Format == "" {
		req.Format = models.FormatLatex
	}
	if err := generateValidator.Struct(&req); err != nil {
		return nil, fmt.Errorf("request validation failed: %w", err)
	}
	return &req, nil
}

// writeSSEEvent frames a progress event as "data: {json}\n\n" and flushes it
func writeSSEEvent(c echo.Context, event models.ProgressEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", payload); err != nil {
		return
	}
	c.Response().Flush()
}

// classifyGenerationError maps pipeline errors to HTTP statuses
func classifyGenerationError(err error) (int, string) {
	var customErr *utils.CustomError
	if errors.As(err, &customErr) {
		switch customErr.Code {
		case http.StatusBadRequest:
			return http.StatusBadRequest, "invalid_request"
		case http.StatusNotFound:
			return http.StatusNotFound, "records_not_found"
		case http.StatusBadGateway:
			return http.StatusBadGateway, "generation_failed"
		default:
			return customErr.Code, "generation_failed"
		}
	}

	var unavailable *llm.ModelUnavailableError
	if errors.As(err, &unavailable) {
		return http.StatusServiceUnavailable, "model_unavailable"
	}

	var noTool *agent.NoToolCallError
	if errors.As(err, &noTool) {
		return http.StatusBadGateway, "generation_failed"
	}

	var parseErr *agent.GenerationParseError
	if errors.As(err, &parseErr) {
		return http.StatusBadGateway, "generation_failed"
	}

	var limitErr *agent.TurnLimitError
	if errors.As(err, &limitErr) {
		return http.StatusBadGateway, "generation_failed"
	}

	return http.StatusInternalServerError, "internal_error"
}

func requestIDFromContext(c echo.Context) string {
	if requestID, ok := c.Get("request_id").(string); ok && requestID != "" {
		return requestID
	}
	return utils.GenerateRequestID()
}
