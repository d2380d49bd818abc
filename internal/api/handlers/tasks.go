package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"betterresume/internal/background"
	"betterresume/pkg/models"
)

// TaskStatusHandler handles GET /api/v1/tasks/:process_id
func TaskStatusHandler(taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		processID := c.Param("process_id")
		if processID == "" {
			return c.JSON(http.StatusBadRequest, models.CreateAsyncErrorResponse(
				"invalid_request",
				"Process ID is required",
			))
		}

		result, err := taskManager.GetTaskResult(c.Request().Context(), processID)
		if err != nil {
			if errors.Is(err, background.ErrTaskNotFound) {
				return c.JSON(http.StatusNotFound, models.CreateAsyncErrorResponse(
					"task_not_found",
					"No task found for process ID",
					processID,
				))
			}
			return c.JSON(http.StatusInternalServerError, models.CreateAsyncErrorResponse(
				"task_lookup_failed",
				"Failed to look up task status",
				processID,
			))
		}

		return c.JSON(http.StatusOK, models.AsyncTaskStatusResponse{
			ProcessID:      result.ProcessID,
			Status:         models.AsyncStatus(result.Status),
			Data:           result.Data,
			Error:          result.Error,
			CreatedAt:      result.CreatedAt,
			CompletedAt:    result.CompletedAt,
			ProcessingTime: result.ProcessingTime,
			Metadata:       result.Metadata,
		})
	}
}
