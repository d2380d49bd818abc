package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"betterresume/internal/background"
	"betterresume/internal/ingest"
	"betterresume/internal/logging"
	"betterresume/internal/profile"
	"betterresume/internal/records"
	"betterresume/pkg/models"
	"betterresume/pkg/utils"
)

var recordsValidator = validator.New()

// UploadRecordsHandler handles POST /api/v1/users/:user_id/records
// asynchronously: records are accepted immediately and ingested in the
// background.
func UploadRecordsHandler(taskManager background.TaskManager, svc *ingest.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFromContext(c)
		logger := logging.GetGlobalLogger()
		userID := c.Param("user_id")

		if !utils.ValidUserID(userID) {
			return c.JSON(http.StatusBadRequest, models.CreateAsyncErrorResponse(
				"invalid_user_id",
				"Invalid user id",
			))
		}

		var req models.RecordsUploadRequest
		if err := c.Bind(&req); err != nil {
			logger.Error("Failed to parse records upload body", map[string]interface{}{
				"request_id": requestID,
				"error":      err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.CreateAsyncErrorResponse(
				"invalid_request",
				"Invalid request body: "+err.Error(),
			))
		}

		if err := recordsValidator.Struct(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.CreateAsyncErrorResponse(
				"validation_failed",
				"Request validation failed: "+err.Error(),
			))
		}

		if len(req.Records) == 0 {
			return c.JSON(http.StatusBadRequest, models.CreateAsyncErrorResponse(
				"validation_failed",
				"At least one record is required",
			))
		}

		processID := utils.GenerateIngestProcessID()

		logger.Info("Submitting records ingestion for background processing", map[string]interface{}{
			"request_id": requestID,
			"process_id": processID,
			"user_id":    userID,
			"rows":       len(req.Records),
		})

		ctx := c.Request().Context()
		if err := taskManager.SubmitIngestTask(ctx, processID, userID, req.Records, svc); err != nil {
			logger.Error("Failed to submit background ingest task", map[string]interface{}{
				"request_id": requestID,
				"error":      err.Error(),
			})
			return c.JSON(http.StatusInternalServerError, models.CreateAsyncErrorResponse(
				"task_submission_failed",
				fmt.Sprintf("Failed to submit ingestion task: %v", err),
				processID,
			))
		}

		return c.JSON(http.StatusAccepted, models.CreateAsyncIngestResponse(processID))
	}
}

// RecordsInfoHandler handles GET /api/v1/users/:user_id/records
func RecordsInfoHandler(recordStore *records.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFromContext(c)
		userID := c.Param("user_id")

		if !utils.ValidUserID(userID) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_user_id",
				Message:   "Invalid user id",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		info, ok := recordStore.GetInfo(userID)
		if !ok {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:     "records_not_found",
				Message:   "No records ingested for user",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, models.IngestResponse{
			Status:       "ok",
			RowsIngested: info.Rows,
			Hash:         info.Hash,
		})
	}
}

// UploadProfilePictureHandler handles POST /api/v1/users/:user_id/profile-picture
func UploadProfilePictureHandler(profiles *profile.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFromContext(c)
		logger := logging.GetGlobalLogger()
		userID := c.Param("user_id")

		if !utils.ValidUserID(userID) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_user_id",
				Message:   "Invalid user id",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Multipart field 'file' is required",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		ext, ok := profile.DetectExtension(fileHeader.Header.Get("Content-Type"), fileHeader.Filename)
		if !ok {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "unsupported_image_type",
				Message:   "Only PNG and JPEG profile pictures are supported",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		src, err := fileHeader.Open()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "upload_failed",
				Message:   "Failed to read uploaded file",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}
		defer src.Close()

		path, err := profiles.Save(userID, src, ext)
		if err != nil {
			logger.Error("Failed to store profile picture", map[string]interface{}{
				"request_id": requestID,
				"user_id":    userID,
				"error":      err.Error(),
			})
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "upload_failed",
				Message:   "Failed to store profile picture",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		logger.Info("Profile picture stored", map[string]interface{}{
			"request_id": requestID,
			"user_id":    userID,
			"path":       path,
		})

		return c.JSON(http.StatusOK, map[string]string{
			"status": "ok",
		})
	}
}

// DeleteProfilePictureHandler handles DELETE /api/v1/users/:user_id/profile-picture
func DeleteProfilePictureHandler(profiles *profile.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFromContext(c)
		userID := c.Param("user_id")

		if !utils.ValidUserID(userID) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_user_id",
				Message:   "Invalid user id",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		profiles.Delete(userID)
		return c.NoContent(http.StatusNoContent)
	}
}
