package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"betterresume/internal/cache"
	"betterresume/internal/download"
	"betterresume/internal/logging"
	"betterresume/pkg/models"
	"betterresume/pkg/utils"
)

// DownloadHandler handles GET /download/:user_id/:filename with an HMAC
// signed query string issued by the generation endpoints.
func DownloadHandler(resumeCache *cache.Cache, signer *download.Signer) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFromContext(c)
		logger := logging.GetGlobalLogger()
		userID := c.Param("user_id")
		filename := c.Param("filename")

		if !utils.ValidUserID(userID) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_user_id",
				Message:   "Invalid user id",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		// Reject anything that could escape the user's output directory
		if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_filename",
				Message:   "Invalid file name",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		exp, err := strconv.ParseInt(c.QueryParam("exp"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error:     "invalid_signature",
				Message:   "Missing or malformed expiry",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		if err := signer.Verify(userID, filename, exp, c.QueryParam("sig")); err != nil {
			logger.Warn("Rejected download request", map[string]interface{}{
				"request_id": requestID,
				"user_id":    userID,
				"filename":   filename,
				"error":      err.Error(),
			})
			return c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error:     "invalid_signature",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		path := filepath.Join(resumeCache.UserDir(userID), filename)
		if _, err := os.Stat(path); err != nil {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:     "file_not_found",
				Message:   "File not found",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.Attachment(path, filename)
	}
}
